// Package nasa implements the ApodClient port against the NASA APOD API.
package nasa

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/doyensec/safeurl"
	"github.com/gregjones/httpcache"
	"golang.org/x/time/rate"

	"github.com/apodpanel/apodpanel/internal/domain/model"
	"github.com/apodpanel/apodpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ApodClient = (*Client)(nil)

// DefaultBaseURL is the production APOD endpoint.
const DefaultBaseURL = "https://api.nasa.gov/planetary/apod"

// maxImageBytes caps proxied image downloads. APOD HD images run tens of
// megabytes; anything past this is not an image we should be relaying.
const maxImageBytes = 100 << 20

// sharedKeyBudget paces shared-key requests at NASA's published DEMO_KEY
// quota of 30 requests per hour so the panel refuses locally before the
// upstream would with a 429.
var sharedKeyBudget = rate.Limit(30.0 / 3600.0)

// StatusRecorder receives upstream HTTP status codes for metrics. Satisfied
// by metrics.Collector; nil disables recording.
type StatusRecorder interface {
	RecordUpstreamStatus(code int)
}

// Client implements the driven.ApodClient port. The API transport wraps an
// in-memory ETag cache (repeat queries for the same range are served
// conditionally); image downloads go through an SSRF-guarded client because
// their URLs arrive in a remote payload.
type Client struct {
	baseURL     string
	api         *http.Client
	images      *http.Client
	sharedLimit *rate.Limiter
	recorder    StatusRecorder
}

// NewClient creates a production Client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching) for API queries
//  2. safeurl (private/link-local/metadata IP blocking) for image downloads
//  3. a token bucket pacing shared-key requests at the DEMO_KEY quota
func NewClient(timeout time.Duration, recorder StatusRecorder) *Client {
	return NewClientWithBaseURL(timeout, recorder, DefaultBaseURL)
}

// NewClientWithBaseURL is NewClient against an alternate APOD endpoint.
func NewClientWithBaseURL(timeout time.Duration, recorder StatusRecorder, baseURL string) *Client {
	apiClient := &http.Client{
		Transport: httpcache.NewMemoryCacheTransport(),
		Timeout:   timeout,
	}

	imageConfig := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	return &Client{
		baseURL:     baseURL,
		api:         apiClient,
		images:      safeurl.Client(imageConfig).Client,
		sharedLimit: rate.NewLimiter(sharedKeyBudget, 30),
		recorder:    recorder,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and
// base URL. This constructor is intended for testing, allowing injection of
// an httptest server; the SSRF guard is bypassed so loopback URLs resolve.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) *Client {
	return &Client{
		baseURL:     baseURL,
		api:         httpClient,
		images:      httpClient,
		sharedLimit: rate.NewLimiter(rate.Inf, 0),
		recorder:    nil,
	}
}

// apodPayload mirrors the APOD API's JSON shape.
type apodPayload struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	MediaType   string `json:"media_type"`
	URL         string `json:"url"`
	HDURL       string `json:"hdurl"`
	Copyright   string `json:"copyright"`
}

// FetchRange retrieves one entry per day in the inclusive range. The API
// returns a JSON array for multi-day queries but a bare object when start
// and end coincide; both shapes are normalized to a slice.
func (c *Client) FetchRange(ctx context.Context, r model.DateRange, apiKey string) ([]model.ApodEntry, error) {
	query := url.Values{
		"start_date": {model.DateOnly(r.Start).Format(model.APODDateFormat)},
		"end_date":   {model.DateOnly(r.End).Format(model.APODDateFormat)},
		"api_key":    {apiKey},
	}
	return c.fetchEntries(ctx, query, apiKey)
}

// FetchDay retrieves the entry for a single date.
func (c *Client) FetchDay(ctx context.Context, date time.Time, apiKey string) (*model.ApodEntry, error) {
	query := url.Values{
		"date":    {model.DateOnly(date).Format(model.APODDateFormat)},
		"api_key": {apiKey},
	}

	entries, err := c.fetchEntries(ctx, query, apiKey)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: empty response for %s", driven.ErrRequestFailed, date.Format(model.APODDateFormat))
	}
	return &entries[0], nil
}

// fetchEntries issues one API request and maps the outcome. A single
// attempt per call; retrying is the user's decision, not the client's.
func (c *Client) fetchEntries(ctx context.Context, query url.Values, apiKey string) ([]model.ApodEntry, error) {
	if apiKey == model.SharedAPIKey && !c.sharedLimit.Allow() {
		return nil, fmt.Errorf("shared key budget exhausted locally: %w", driven.ErrQuotaExceeded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build apod request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.api.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", driven.ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if c.recorder != nil {
		c.recorder.RecordUpstreamStatus(resp.StatusCode)
	}
	logQuota(resp)

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w (status 403)", driven.ErrKeyRejected)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w (status 429)", driven.ErrQuotaExceeded)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: status %d", driven.ErrRequestFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", driven.ErrRequestFailed, err)
	}

	payloads, err := decodePayloads(body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", driven.ErrRequestFailed, err)
	}

	entries := make([]model.ApodEntry, 0, len(payloads))
	for _, p := range payloads {
		entry, err := mapEntry(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", driven.ErrRequestFailed, err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// FetchImage downloads image bytes through the SSRF-guarded client.
func (c *Client) FetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build image request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := c.images.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", driven.ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("%w: image status %d", driven.ErrRequestFailed, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", fmt.Errorf("%w: read image: %v", driven.ErrRequestFailed, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

// decodePayloads accepts both response shapes: an array for range queries
// and a bare object for single-day queries.
func decodePayloads(body []byte) ([]apodPayload, error) {
	var many []apodPayload
	if err := json.Unmarshal(body, &many); err == nil {
		return many, nil
	}

	var one apodPayload
	if err := json.Unmarshal(body, &one); err != nil {
		return nil, err
	}
	return []apodPayload{one}, nil
}

// mapEntry converts an API payload to the domain model.
func mapEntry(p apodPayload) (model.ApodEntry, error) {
	date, err := model.ParseAPODDate(p.Date)
	if err != nil {
		return model.ApodEntry{}, fmt.Errorf("bad date %q: %v", p.Date, err)
	}

	mediaType := model.MediaType(p.MediaType)
	if mediaType != model.MediaTypeImage && mediaType != model.MediaTypeVideo {
		// APOD occasionally labels interactive content with other types;
		// treat anything unknown as an image so it still renders a card.
		mediaType = model.MediaTypeImage
	}

	return model.ApodEntry{
		Date:        date,
		Title:       p.Title,
		Explanation: p.Explanation,
		MediaType:   mediaType,
		URL:         p.URL,
		HDURL:       p.HDURL,
		Copyright:   p.Copyright,
	}, nil
}

// logQuota logs NASA's remaining-quota header after each call.
func logQuota(resp *http.Response) {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" {
		return
	}

	slog.Debug("apod api call",
		"status", resp.StatusCode,
		"rate_remaining", remaining,
		"rate_limit", resp.Header.Get("X-RateLimit-Limit"),
	)
}
