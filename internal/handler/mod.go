package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/abenhamida/minemods/internal/auth"
	"github.com/abenhamida/minemods/internal/service"
)

// ModHandler exposes the catalog over HTTP.
//
// Route/auth summary (the router wires the middlewares):
//
//	GET    /api/mods           public
//	GET    /api/mods/{id}      public
//	POST   /api/mods           admin
//	PUT    /api/mods/{id}      admin
//	DELETE /api/mods/{id}      admin
//	POST   /api/mods/{id}/rate logged-in user
type ModHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

// NewModHandler creates a ModHandler.
func NewModHandler(catalog *service.CatalogService, logger *slog.Logger) *ModHandler {
	return &ModHandler{catalog: catalog, logger: logger}
}

// modRequest is the JSON body for create and update. Screenshots being
// absent (null) and being [] mean different things on update: absent keeps
// the current set, [] clears it. A *pointer to slice* preserves that
// distinction through json.Decode.
type modRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	IconURL     string    `json:"icon_url"`
	Size        string    `json:"size"`
	Screenshots *[]string `json:"screenshots"`
}

func (req *modRequest) toInput() service.ModInput {
	in := service.ModInput{
		Title:       req.Title,
		Description: req.Description,
		IconURL:     req.IconURL,
		Size:        req.Size,
	}
	if req.Screenshots != nil {
		in.Screenshots = *req.Screenshots
		if in.Screenshots == nil {
			in.Screenshots = []string{}
		}
	}
	return in
}

// HandleList returns all mods, newest first.
//
// HTTP: GET /api/mods
func (h *ModHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	mods, err := h.catalog.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mods)
}

// HandleGetByID returns a single mod with its screenshots.
//
// HTTP: GET /api/mods/{id} → 200 or 404
func (h *ModHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	mod, err := h.catalog.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mod)
}

// HandleCreate inserts a new catalog entry.
//
// HTTP: POST /api/mods (admin)
// BODY: {"title","description","icon_url","size","screenshots":[...]}
//
// The author is the user session attached to the request, if any — an admin
// who isn't also logged in produces an authorless entry.
func (h *ModHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req modRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid mod JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	authorID, _ := auth.UserIDFromContext(r.Context())

	mod, err := h.catalog.Create(r.Context(), req.toInput(), authorID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"id": mod.ID})
}

// HandleUpdate modifies an existing entry. A supplied screenshot list fully
// replaces the previous set; omitting the field keeps it.
//
// HTTP: PUT /api/mods/{id} (admin) → {"success":true} or 404
func (h *ModHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req modRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid mod JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	if _, err := h.catalog.Update(r.Context(), r.PathValue("id"), req.toInput()); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleDelete removes an entry; screenshots and ratings cascade away.
//
// HTTP: DELETE /api/mods/{id} (admin) → {"success":true} or 404
func (h *ModHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleRate records the caller's 1–5 score and returns the new average.
//
// HTTP: POST /api/mods/{id}/rate (login required)
// BODY: {"score": 4} → {"success":true,"newRating":4.0}
func (h *ModHandler) HandleRate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Score int `json:"score"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	// RequireAuth guarantees a user on this route; the service re-checks
	// for callers that bypass HTTP (CLI, tests).
	userID, _ := auth.UserIDFromContext(r.Context())

	avg, err := h.catalog.Rate(r.Context(), r.PathValue("id"), userID, req.Score)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"newRating": avg,
	})
}
