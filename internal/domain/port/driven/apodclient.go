package driven

import (
	"context"
	"errors"
	"time"

	"github.com/apodpanel/apodpanel/internal/domain/model"
)

// Fetch error taxonomy. Adapters wrap transport detail around these
// sentinels; handlers map them to user-facing guidance with errors.Is.
var (
	// ErrKeyRejected means the upstream answered 403: the API key is invalid.
	ErrKeyRejected = errors.New("api key rejected: check your NASA API key")

	// ErrQuotaExceeded means the upstream answered 429: the key's rate
	// limit is exhausted.
	ErrQuotaExceeded = errors.New("api rate limit exceeded: try again later or use a personal key")

	// ErrRequestFailed covers every other non-2xx status, transport
	// failures, and malformed response bodies.
	ErrRequestFailed = errors.New("apod request failed")
)

// ApodClient defines the driven port for the NASA APOD API.
type ApodClient interface {
	// FetchRange retrieves one entry per calendar day in the inclusive
	// range. A single attempt is made per call; no automatic retries.
	FetchRange(ctx context.Context, r model.DateRange, apiKey string) ([]model.ApodEntry, error)

	// FetchDay retrieves the entry for a single date.
	FetchDay(ctx context.Context, date time.Time, apiKey string) (*model.ApodEntry, error)

	// FetchImage downloads the image bytes at url, which must come from a
	// previously fetched entry. Returns the bytes and the Content-Type.
	FetchImage(ctx context.Context, url string) ([]byte, string, error)
}
