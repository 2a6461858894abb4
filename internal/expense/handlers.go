package expense

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adonis32/expenses-app/internal/common"
)

// Handler exposes HTTP handlers for expenses and settlements.
type Handler struct {
	Svc *Service
}

// Create handles POST /api/v1/lists/{id}/expenses.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	created, err := h.Svc.Create(r.Context(), chi.URLParam(r, "id"), userID, req)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Index handles GET /api/v1/lists/{id}/expenses.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	expenses, err := h.Svc.List(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": expenses})
}

// Settle handles GET /api/v1/lists/{id}/settlement.
func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	result, err := h.Svc.Settle(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// Balance handles GET /api/v1/lists/{id}/settlement/{otherID}.
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid token", nil)
		return
	}
	result, err := h.Svc.Balance(r.Context(), chi.URLParam(r, "id"), userID, chi.URLParam(r, "otherID"))
	if err != nil {
		common.RenderError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}
