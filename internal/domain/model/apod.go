package model

import "time"

// MediaType distinguishes the two media kinds the APOD API serves.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// ApodEntry is one day's Astronomy Picture of the Day record as returned by
// the NASA API. Entries are immutable once fetched; a gallery is replaced
// wholesale on every successful fetch, never merged.
type ApodEntry struct {
	Date        time.Time
	Title       string
	Explanation string
	MediaType   MediaType
	URL         string
	HDURL       string // High-resolution image URL; empty for videos and some images.
	Copyright   string
}

// IsImage reports whether the entry is a downloadable image.
func (e ApodEntry) IsImage() bool {
	return e.MediaType == MediaTypeImage
}

// BestImageURL returns the high-resolution URL when present, else the
// standard URL. Callers that fail to load the HD variant fall back to URL.
func (e ApodEntry) BestImageURL() string {
	if e.HDURL != "" {
		return e.HDURL
	}
	return e.URL
}
