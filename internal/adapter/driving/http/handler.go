// Package httphandler is the HTTP driving adapter serving the panel's REST API.
package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/apodpanel/apodpanel/internal/application"
	"github.com/apodpanel/apodpanel/internal/domain/model"
	"github.com/apodpanel/apodpanel/internal/domain/port/driven"
)

// confirmThresholdDays is the size past which a permitted gallery request
// needs an explicit client acknowledgement before it proceeds.
const confirmThresholdDays = 30

// Preference names persisted through the preference store.
const (
	prefTheme      = "theme"
	prefLastPreset = "last_preset"
)

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	gallery *application.GalleryService
	keys    *application.KeyService
	ranges  *application.RangeService
	facts   *application.FactService
	share   *application.ShareService
	prefs   driven.PreferenceStore
	logger  *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	gallery *application.GalleryService,
	keys *application.KeyService,
	ranges *application.RangeService,
	facts *application.FactService,
	share *application.ShareService,
	prefs driven.PreferenceStore,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		gallery: gallery,
		keys:    keys,
		ranges:  ranges,
		facts:   facts,
		share:   share,
		prefs:   prefs,
		logger:  logger,
	}
}

// RegisterAPIRoutes registers all API routes on the provided mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/gallery", h.Gallery)
	mux.HandleFunc("GET /api/v1/gallery/validate", h.ValidateRange)
	mux.HandleFunc("GET /api/v1/presets", h.ListPresets)
	mux.HandleFunc("PUT /api/v1/presets/last", h.SaveLastPreset)
	mux.HandleFunc("GET /api/v1/key", h.KeyStatus)
	mux.HandleFunc("PUT /api/v1/key", h.SaveKey)
	mux.HandleFunc("POST /api/v1/key/shared", h.UseSharedKey)
	mux.HandleFunc("DELETE /api/v1/key", h.ClearKey)
	mux.HandleFunc("GET /api/v1/theme", h.GetTheme)
	mux.HandleFunc("PUT /api/v1/theme", h.SetTheme)
	mux.HandleFunc("GET /api/v1/facts/random", h.RandomFact)
	mux.HandleFunc("GET /api/v1/share/{date}", h.Share)
	mux.HandleFunc("GET /api/v1/download/{date}", h.Download)
	mux.HandleFunc("GET /api/v1/health", h.Health)
}

// ApplyMiddleware wraps a handler with the request logging and panic
// recovery middleware.
func ApplyMiddleware(next http.Handler, logger *slog.Logger, recorder RequestRecorder) http.Handler {
	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, next)
	wrapped = loggingMiddleware(logger, recorder, wrapped)

	return wrapped
}

// Gallery fetches entries for the requested range. Blocked ranges come back
// as 422 with the validation verdict; large permitted ranges need a
// confirm=true acknowledgement first.
func (h *Handler) Gallery(w http.ResponseWriter, r *http.Request) {
	dateRange, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	class, err := h.keys.Classify(r.Context())
	if err != nil {
		h.logger.Error("failed to classify key", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	outcome := h.ranges.Validate(dateRange, class)
	if outcome.Permitted && outcome.Days > confirmThresholdDays && r.URL.Query().Get("confirm") != "true" {
		writeJSON(w, http.StatusConflict, ConfirmRequiredResponse{
			ConfirmRequired: true,
			Message:         fmt.Sprintf("This will load %d days of images. Continue?", outcome.Days),
			Outcome:         toOutcomeResponse(outcome),
		})
		return
	}

	result, err := h.gallery.Fetch(r.Context(), dateRange)
	if err != nil {
		h.writeFetchError(w, err)
		return
	}

	if !result.Outcome.Permitted {
		writeJSON(w, http.StatusUnprocessableEntity, GalleryResponse{
			Outcome: toOutcomeResponse(result.Outcome),
			Entries: []EntryResponse{},
		})
		return
	}

	entries := make([]EntryResponse, 0, len(result.Entries))
	for _, entry := range result.Entries {
		entries = append(entries, toEntryResponse(entry))
	}

	writeJSON(w, http.StatusOK, GalleryResponse{
		Outcome: toOutcomeResponse(result.Outcome),
		Entries: entries,
	})
}

// ValidateRange evaluates a range without fetching, so the GUI can surface
// verdicts as the user picks dates.
func (h *Handler) ValidateRange(w http.ResponseWriter, r *http.Request) {
	dateRange, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	class, err := h.keys.Classify(r.Context())
	if err != nil {
		h.logger.Error("failed to classify key", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, toOutcomeResponse(h.ranges.Validate(dateRange, class)))
}

// ListPresets returns the quick-select menu with resolved ranges, the
// default choice, and the last-used preset when one was remembered.
func (h *Handler) ListPresets(w http.ResponseWriter, r *http.Request) {
	resp := PresetsResponse{DefaultDays: application.DefaultPresetDays}

	for _, preset := range application.PresetMenu {
		entry := PresetResponse{Label: preset.Label, Days: preset.Days}
		if preset.Days > 0 {
			resolved, err := h.ranges.ApplyPreset(preset.Days)
			if err != nil {
				h.logger.Error("failed to resolve preset", "days", preset.Days, "error", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			}
			entry.Start = resolved.Start.Format(model.APODDateFormat)
			entry.End = resolved.End.Format(model.APODDateFormat)
		}
		resp.Presets = append(resp.Presets, entry)
	}

	if pref, err := h.prefs.Get(r.Context(), prefLastPreset); err != nil {
		h.logger.Error("failed to load last preset", "error", err)
	} else if pref != nil {
		var days int
		if _, err := fmt.Sscanf(pref.Value, "%d", &days); err == nil {
			resp.LastDays = days
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// SaveLastPreset remembers the preset the user applied last.
func (h *Handler) SaveLastPreset(w http.ResponseWriter, r *http.Request) {
	var req LastPresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if out := application.CheckCustomDays(req.Days); !out.Permitted {
		writeError(w, http.StatusBadRequest, out.Message)
		return
	}

	if err := h.prefs.Set(r.Context(), prefLastPreset, fmt.Sprintf("%d", req.Days)); err != nil {
		h.logger.Error("failed to save last preset", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// KeyStatus reports the active credential class with the key masked.
func (h *Handler) KeyStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.keys.Status(r.Context())
	if err != nil {
		h.logger.Error("failed to load key status", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, KeyStatusResponse{
		Class:     string(status.Class),
		MaskedKey: status.MaskedKey,
	})
}

// SaveKey stores a personal API key after validation.
func (h *Handler) SaveKey(w http.ResponseWriter, r *http.Request) {
	var req SaveKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.keys.Save(r.Context(), req.Key)
	switch {
	case errors.Is(err, application.ErrBlankKey), errors.Is(err, application.ErrKeyTooShort):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, driven.ErrSecretKeyNotSet):
		writeError(w, http.StatusConflict, "key storage is disabled: set APODPANEL_SECRET_KEY to enable it")
		return
	case err != nil:
		h.logger.Error("failed to save key", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.KeyStatus(w, r)
}

// UseSharedKey switches the panel to the shared fallback token.
func (h *Handler) UseSharedKey(w http.ResponseWriter, r *http.Request) {
	err := h.keys.UseSharedKey(r.Context())
	switch {
	case errors.Is(err, driven.ErrSecretKeyNotSet):
		// Without a secret the panel is already on the shared token.
	case err != nil:
		h.logger.Error("failed to select shared key", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.KeyStatus(w, r)
}

// ClearKey removes the stored key, dropping back to the shared token.
func (h *Handler) ClearKey(w http.ResponseWriter, r *http.Request) {
	err := h.keys.Clear(r.Context())
	switch {
	case errors.Is(err, driven.ErrSecretKeyNotSet):
		// Nothing stored to clear.
	case err != nil:
		h.logger.Error("failed to clear key", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetTheme returns the persisted theme flag, defaulting to light.
func (h *Handler) GetTheme(w http.ResponseWriter, r *http.Request) {
	theme := model.ThemeLight
	if pref, err := h.prefs.Get(r.Context(), prefTheme); err != nil {
		h.logger.Error("failed to load theme", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	} else if pref != nil && model.ValidTheme(pref.Value) {
		theme = pref.Value
	}

	writeJSON(w, http.StatusOK, ThemeResponse{Theme: theme})
}

// SetTheme persists the theme flag.
func (h *Handler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req ThemeResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !model.ValidTheme(req.Theme) {
		writeError(w, http.StatusBadRequest, "theme must be light or dark")
		return
	}

	if err := h.prefs.Set(r.Context(), prefTheme, req.Theme); err != nil {
		h.logger.Error("failed to save theme", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, req)
}

// RandomFact returns one space fact for the GUI's fact panel.
func (h *Handler) RandomFact(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, FactResponse{Fact: h.facts.Random()})
}

// Share builds the share payload for one day's entry.
func (h *Handler) Share(w http.ResponseWriter, r *http.Request) {
	date, ok := h.parsePathDate(w, r)
	if !ok {
		return
	}

	entry, err := h.gallery.Entry(r.Context(), date)
	if err != nil {
		h.writeFetchError(w, err)
		return
	}

	info := h.share.Build(*entry)
	resp := ShareResponse{Title: info.Title, Text: info.Text, URL: info.URL}
	if entry.MediaType == model.MediaTypeVideo {
		resp.EmbedURL = application.EmbedURL(*entry)
		resp.ThumbnailURL = application.ThumbnailURL(*entry)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Download proxies the image bytes for one day's entry as an attachment.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	date, ok := h.parsePathDate(w, r)
	if !ok {
		return
	}

	result, err := h.gallery.Download(r.Context(), date)
	if errors.Is(err, application.ErrNotDownloadable) {
		writeError(w, http.StatusUnprocessableEntity, "only image entries can be downloaded")
		return
	}
	if err != nil {
		h.writeFetchError(w, err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// parseRange reads the start/end query parameters. Absent parameters yield
// an incomplete range (the validator's concern, not a request error);
// malformed dates are a 400.
func (h *Handler) parseRange(w http.ResponseWriter, r *http.Request) (model.DateRange, bool) {
	var dateRange model.DateRange

	if raw := r.URL.Query().Get("start"); raw != "" {
		parsed, err := model.ParseAPODDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start date: use YYYY-MM-DD")
			return model.DateRange{}, false
		}
		dateRange.Start = parsed
	}

	if raw := r.URL.Query().Get("end"); raw != "" {
		parsed, err := model.ParseAPODDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end date: use YYYY-MM-DD")
			return model.DateRange{}, false
		}
		dateRange.End = parsed
	}

	return dateRange, true
}

// parsePathDate reads the {date} path segment.
func (h *Handler) parsePathDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	date, err := model.ParseAPODDate(r.PathValue("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date: use YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

// writeFetchError maps upstream fetch failures to their taxonomy status.
func (h *Handler) writeFetchError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, driven.ErrKeyRejected):
		writeError(w, http.StatusForbidden,
			"NASA rejected the API key. Check it at api.nasa.gov or switch to the demo key.")
	case errors.Is(err, driven.ErrQuotaExceeded):
		writeError(w, http.StatusTooManyRequests,
			"API rate limit reached. Wait a bit or use your own API key for a higher quota.")
	default:
		h.logger.Error("apod fetch failed", "error", err)
		writeError(w, http.StatusBadGateway,
			"Could not reach the APOD service. Please try again.")
	}
}
