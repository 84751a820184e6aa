package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/apodpanel/apodpanel/internal/domain/model"
	"github.com/apodpanel/apodpanel/internal/domain/port/driven"
)

// ErrNotDownloadable is returned when a download is requested for a video
// entry; only images can be proxied to disk.
var ErrNotDownloadable = errors.New("entry is not a downloadable image")

// FetchRecorder receives fetch outcome metrics. Satisfied by
// metrics.Collector; nil disables recording.
type FetchRecorder interface {
	RecordFetchSuccess(days int)
	RecordFetchFailure(reason string)
	RecordFetchLatency(d time.Duration)
}

// GalleryResult is the outcome of one gallery request: the validation
// verdict plus the fetched entries when the fetch was permitted and
// succeeded. Entries replace any previous gallery wholesale.
type GalleryResult struct {
	Outcome model.ValidationOutcome
	Entries []model.ApodEntry
}

// DownloadResult carries proxied image bytes plus presentation metadata.
type DownloadResult struct {
	Filename     string
	ContentType  string
	Data         []byte
	UsedFallback bool
}

// GalleryService orchestrates a gallery request: classify the credential,
// validate the range, fetch from the APOD API, and sanitize the returned
// text fields. It never retries; one user action is one upstream attempt.
type GalleryService struct {
	client   driven.ApodClient
	keys     *KeyService
	ranges   *RangeService
	recorder FetchRecorder
	policy   *bluemonday.Policy
}

// NewGalleryService creates a GalleryService. recorder may be nil.
func NewGalleryService(client driven.ApodClient, keys *KeyService, ranges *RangeService, recorder FetchRecorder) *GalleryService {
	return &GalleryService{
		client:   client,
		keys:     keys,
		ranges:   ranges,
		recorder: recorder,
		policy:   bluemonday.StrictPolicy(),
	}
}

// Fetch validates r against the current credential class and, when
// permitted, retrieves the gallery. A non-permitted outcome is returned with
// a nil error: bad input is the user's problem to correct, not an
// application failure.
func (s *GalleryService) Fetch(ctx context.Context, r model.DateRange) (GalleryResult, error) {
	class, err := s.keys.Classify(ctx)
	if err != nil {
		return GalleryResult{}, fmt.Errorf("classify key: %w", err)
	}

	outcome := s.ranges.Validate(r, class)
	if !outcome.Permitted {
		return GalleryResult{Outcome: outcome}, nil
	}

	key, err := s.keys.Resolve(ctx)
	if err != nil {
		return GalleryResult{}, fmt.Errorf("resolve key: %w", err)
	}

	start := time.Now()
	entries, err := s.client.FetchRange(ctx, r, key)
	if err != nil {
		s.recordFailure(err)
		slog.Error("gallery fetch failed",
			"start", r.Start.Format(model.APODDateFormat),
			"end", r.End.Format(model.APODDateFormat),
			"class", class,
			"error", err,
		)
		return GalleryResult{Outcome: outcome}, err
	}

	for i := range entries {
		entries[i].Title = s.sanitize(entries[i].Title)
		entries[i].Explanation = s.sanitize(entries[i].Explanation)
		entries[i].Copyright = s.sanitize(entries[i].Copyright)
	}

	if s.recorder != nil {
		s.recorder.RecordFetchSuccess(outcome.Days)
		s.recorder.RecordFetchLatency(time.Since(start))
	}
	slog.Debug("gallery fetched",
		"days", outcome.Days,
		"entries", len(entries),
		"class", class,
	)

	return GalleryResult{Outcome: outcome, Entries: entries}, nil
}

// Entry retrieves and sanitizes a single day's entry for the share and
// download paths.
func (s *GalleryService) Entry(ctx context.Context, date time.Time) (*model.ApodEntry, error) {
	key, err := s.keys.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve key: %w", err)
	}

	entry, err := s.client.FetchDay(ctx, date, key)
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}

	entry.Title = s.sanitize(entry.Title)
	entry.Explanation = s.sanitize(entry.Explanation)
	entry.Copyright = s.sanitize(entry.Copyright)
	return entry, nil
}

// Download fetches the image bytes for date, preferring the high-resolution
// URL and falling back once to the standard URL before giving up.
func (s *GalleryService) Download(ctx context.Context, date time.Time) (*DownloadResult, error) {
	entry, err := s.Entry(ctx, date)
	if err != nil {
		return nil, err
	}
	if !entry.IsImage() {
		return nil, ErrNotDownloadable
	}

	result := &DownloadResult{}
	data, contentType, err := s.client.FetchImage(ctx, entry.BestImageURL())
	if err != nil && entry.HDURL != "" && entry.HDURL != entry.URL {
		slog.Warn("hd image fetch failed, falling back to standard url",
			"date", entry.Date.Format(model.APODDateFormat),
			"error", err,
		)
		data, contentType, err = s.client.FetchImage(ctx, entry.URL)
		result.UsedFallback = true
	}
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}

	result.Data = data
	result.ContentType = contentType
	result.Filename = DownloadFilename(*entry)
	return result, nil
}

// recordFailure maps a fetch error to its taxonomy label for metrics.
func (s *GalleryService) recordFailure(err error) {
	if s.recorder == nil {
		return
	}
	switch {
	case errors.Is(err, driven.ErrKeyRejected):
		s.recorder.RecordFetchFailure("key_rejected")
	case errors.Is(err, driven.ErrQuotaExceeded):
		s.recorder.RecordFetchFailure("quota_exceeded")
	default:
		s.recorder.RecordFetchFailure("transport")
	}
}

// sanitize strips all markup; APOD text fields are plain prose but arrive
// from a remote payload.
func (s *GalleryService) sanitize(text string) string {
	return strings.TrimSpace(s.policy.Sanitize(text))
}

// DownloadFilename builds the attachment filename for an image entry:
// NASA_APOD_<date>_<title>.<ext> with the title reduced to word characters,
// underscored, and capped at 50 characters.
func DownloadFilename(entry model.ApodEntry) string {
	title := sanitizeFilenameTitle(entry.Title)

	ext := ".png"
	lower := strings.ToLower(entry.BestImageURL())
	if strings.Contains(lower, ".jpg") || strings.Contains(lower, ".jpeg") {
		ext = ".jpg"
	}

	return fmt.Sprintf("NASA_APOD_%s_%s%s", entry.Date.Format(model.APODDateFormat), title, ext)
}

// sanitizeFilenameTitle keeps letters, digits, and spaces, collapses runs of
// spaces to single underscores, and truncates to 50 characters.
func sanitizeFilenameTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
	}

	cleaned := strings.Join(strings.Fields(b.String()), "_")
	if len(cleaned) > 50 {
		cleaned = cleaned[:50]
	}
	if cleaned == "" {
		cleaned = "untitled"
	}
	return cleaned
}
