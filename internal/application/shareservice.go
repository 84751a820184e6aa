package application

import (
	"fmt"
	"regexp"
	"time"

	"github.com/apodpanel/apodpanel/internal/domain/model"
)

// ShareInfo is the payload the GUI hands to the native share surface, the
// clipboard, or a visible link, in that fallback order. Failures of those
// tiers degrade silently client-side; the server only builds the payload.
type ShareInfo struct {
	Title string
	Text  string
	URL   string
}

// youtubeIDPattern matches the video ID in the common YouTube URL shapes the
// APOD feed uses (watch, embed, short links).
var youtubeIDPattern = regexp.MustCompile(`(?:youtu\.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*)`)

// ShareService derives share payloads and video embed URLs from entries.
type ShareService struct{}

// NewShareService creates a ShareService.
func NewShareService() *ShareService {
	return &ShareService{}
}

// Build constructs the share payload for an entry, pointing at the official
// APOD permalink for its date.
func (s *ShareService) Build(entry model.ApodEntry) ShareInfo {
	kind := "image"
	if entry.MediaType == model.MediaTypeVideo {
		kind = "video"
	}

	return ShareInfo{
		Title: fmt.Sprintf("NASA APOD: %s", entry.Title),
		Text: fmt.Sprintf("Check out this amazing space %s from NASA! %q - %s",
			kind, entry.Title, entry.Date.Format(model.APODDateFormat)),
		URL: Permalink(entry.Date),
	}
}

// Permalink returns the official APOD page URL for a date. The archive path
// uses two-digit year, month, day run together: apYYMMDD.html.
func Permalink(date time.Time) string {
	return fmt.Sprintf("https://apod.nasa.gov/apod/ap%s.html", date.Format("060102"))
}

// ExtractYouTubeID pulls the 11-character video ID out of a YouTube URL.
// Returns "" when the URL is not a recognizable YouTube link.
func ExtractYouTubeID(url string) string {
	m := youtubeIDPattern.FindStringSubmatch(url)
	if m == nil || len(m[1]) != 11 {
		return ""
	}
	return m[1]
}

// EmbedURL returns the embeddable player URL for a video entry, or "" when
// the video host is not YouTube. The GUI links out directly in that case.
func EmbedURL(entry model.ApodEntry) string {
	id := ExtractYouTubeID(entry.URL)
	if id == "" {
		return ""
	}
	return "https://www.youtube.com/embed/" + id
}

// ThumbnailURL returns a stills thumbnail for a YouTube video entry, or ""
// when unavailable.
func ThumbnailURL(entry model.ApodEntry) string {
	id := ExtractYouTubeID(entry.URL)
	if id == "" {
		return ""
	}
	return fmt.Sprintf("https://img.youtube.com/vi/%s/maxresdefault.jpg", id)
}
