package list

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adonis32/expenses-app/internal/common"
)

// Handler exposes HTTP handlers for list management.
type Handler struct {
	Svc *Service
}

type createRequest struct {
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

type joinRequest struct {
	Code string `json:"code"`
}

// Create handles POST /api/v1/lists.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	created, err := h.Svc.Create(r.Context(), userID, req.Name, req.Currency)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Get handles GET /api/v1/lists/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	l, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": l})
}

// Index handles GET /api/v1/lists.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	lists, err := h.Svc.ForUser(r.Context(), userID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": lists})
}

// Members handles GET /api/v1/lists/{id}/members.
func (h *Handler) Members(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	members, err := h.Svc.Members(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": members})
}

// Join handles POST /api/v1/lists/{id}/join.
func (h *Handler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	joined, err := h.Svc.Join(r.Context(), userID, chi.URLParam(r, "id"), req.Code)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": joined})
}

// Delete handles DELETE /api/v1/lists/{id}. The purge runs in the
// background, so a success is an acceptance rather than a completion.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	if err := h.Svc.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		common.RenderError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
