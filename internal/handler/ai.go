package handler

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/abenhamida/minemods/internal/ai"
	"github.com/abenhamida/minemods/internal/service"
)

// Inline screenshot uploads cap at 8MB of raw image data — ample for a
// game screenshot, small enough to keep a single request cheap.
const maxImageBytes = 8 << 20

// AIHandler proxies the three Gemini enrichment operations so the API key
// stays server-side. All three are best-effort: an upstream failure is a
// 200 with a null field, never an error status — the frontend renders
// "feature unavailable" and moves on.
type AIHandler struct {
	enricher *ai.Enricher // nil when GEMINI_API_KEY is not configured
	logger   *slog.Logger
}

// NewAIHandler creates an AIHandler. A nil enricher is valid and makes every
// endpoint return its degraded null response.
func NewAIHandler(enricher *ai.Enricher, logger *slog.Logger) *AIHandler {
	return &AIHandler{enricher: enricher, logger: logger}
}

// HandleDescribe generates a description for a mod title.
//
// HTTP: POST /api/ai/describe {"title":"Iron Chests"} → {"text": "..."|null}
func (h *AIHandler) HandleDescribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Title == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "title is required",
		})
		return
	}
	if len(req.Title) > service.MaxTitleLength {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "title is too long",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"text": nullable(h.enricher.DescribeMod(r.Context(), req.Title)),
	})
}

// HandleAnalyze describes what an uploaded screenshot shows.
//
// HTTP: POST /api/ai/analyze {"image":"<base64>","mime_type":"image/png"}
// → {"text": "..."|null}
func (h *AIHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Image    string `json:"image"`
		MimeType string `json:"mime_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Image == "" || req.MimeType == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "image and mime_type are required",
		})
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "image must be valid base64",
		})
		return
	}
	if len(data) > maxImageBytes {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "image is too large",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"text": nullable(h.enricher.AnalyzeScreenshot(r.Context(), data, req.MimeType)),
	})
}

// HandleSpeech synthesizes a spoken reading of a description.
//
// HTTP: POST /api/ai/speech {"text":"..."} → {"audio": "data:audio/..."|null}
func (h *AIHandler) HandleSpeech(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "text is required",
		})
		return
	}
	if len(req.Text) > service.MaxDescriptionLength {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "text is too long",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"audio": nullable(h.enricher.SynthesizeSpeech(r.Context(), req.Text)),
	})
}

// nullable maps the enricher's degraded "" result to JSON null.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
