package httphandler

import (
	"encoding/json"
	"net/http"
	"unicode/utf8"

	"github.com/apodpanel/apodpanel/internal/application"
	"github.com/apodpanel/apodpanel/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// OutcomeResponse is the JSON form of a range validation verdict.
type OutcomeResponse struct {
	Permitted bool   `json:"permitted"`
	Severity  string `json:"severity"`
	Message   string `json:"message,omitempty"`
	Days      int    `json:"days"`
}

// EntryResponse is the JSON representation of one APOD entry, enriched with
// the derived presentation fields the GUI renders directly.
type EntryResponse struct {
	Date            string `json:"date"`
	Title           string `json:"title"`
	Explanation     string `json:"explanation"`
	CardExplanation string `json:"card_explanation"`
	MediaType       string `json:"media_type"`
	URL             string `json:"url"`
	HDURL           string `json:"hdurl,omitempty"`
	Copyright       string `json:"copyright,omitempty"`
	Permalink       string `json:"permalink"`
	EmbedURL        string `json:"embed_url,omitempty"`
	ThumbnailURL    string `json:"thumbnail_url,omitempty"`
}

// GalleryResponse is the gallery endpoint body: the validation verdict plus
// the entries when the fetch went through.
type GalleryResponse struct {
	Outcome OutcomeResponse `json:"outcome"`
	Entries []EntryResponse `json:"entries"`
}

// ConfirmRequiredResponse asks the client to re-send the request with an
// explicit acknowledgement before a large fetch proceeds.
type ConfirmRequiredResponse struct {
	ConfirmRequired bool            `json:"confirm_required"`
	Message         string          `json:"message"`
	Outcome         OutcomeResponse `json:"outcome"`
}

// PresetResponse is one quick-select menu entry with its resolved range.
// Start and End are empty for the custom option.
type PresetResponse struct {
	Label string `json:"label"`
	Days  int    `json:"days"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

// PresetsResponse is the preset menu plus the default and last-used choices.
type PresetsResponse struct {
	Presets     []PresetResponse `json:"presets"`
	DefaultDays int              `json:"default_days"`
	LastDays    int              `json:"last_days,omitempty"`
}

// KeyStatusResponse reports the active credential class with the key masked.
type KeyStatusResponse struct {
	Class     string `json:"class"`
	MaskedKey string `json:"masked_key"`
}

// SaveKeyRequest is the body for storing a personal API key.
type SaveKeyRequest struct {
	Key string `json:"key"`
}

// ThemeResponse carries the persisted GUI theme flag.
type ThemeResponse struct {
	Theme string `json:"theme"`
}

// LastPresetRequest is the body for remembering the last-used preset.
type LastPresetRequest struct {
	Days int `json:"days"`
}

// FactResponse carries one random space fact.
type FactResponse struct {
	Fact string `json:"fact"`
}

// ShareResponse is the share payload for one entry: what the GUI hands to
// the native share sheet, the clipboard, or a plain link.
type ShareResponse struct {
	Title        string `json:"title"`
	Text         string `json:"text"`
	URL          string `json:"url"`
	EmbedURL     string `json:"embed_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// HealthResponse is the health check response body.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// cardExplanationLimit caps the teaser text shown on gallery cards; the full
// explanation ships alongside for the detail modal.
const cardExplanationLimit = 150

func toOutcomeResponse(o model.ValidationOutcome) OutcomeResponse {
	return OutcomeResponse{
		Permitted: o.Permitted,
		Severity:  string(o.Severity),
		Message:   o.Message,
		Days:      o.Days,
	}
}

func toEntryResponse(e model.ApodEntry) EntryResponse {
	resp := EntryResponse{
		Date:            e.Date.Format(model.APODDateFormat),
		Title:           e.Title,
		Explanation:     e.Explanation,
		CardExplanation: truncateCard(e.Explanation),
		MediaType:       string(e.MediaType),
		URL:             e.URL,
		HDURL:           e.HDURL,
		Copyright:       e.Copyright,
		Permalink:       application.Permalink(e.Date),
	}

	if e.MediaType == model.MediaTypeVideo {
		resp.EmbedURL = application.EmbedURL(e)
		resp.ThumbnailURL = application.ThumbnailURL(e)
	}

	return resp
}

// truncateCard shortens an explanation to the card teaser length, appending
// an ellipsis when anything was cut.
func truncateCard(text string) string {
	if utf8.RuneCountInString(text) <= cardExplanationLimit {
		return text
	}

	runes := []rune(text)
	return string(runes[:cardExplanationLimit]) + "..."
}
