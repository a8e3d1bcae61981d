package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/custos-id/custos/internal/auth"
	"github.com/custos-id/custos/internal/domain"
	"github.com/custos-id/custos/internal/service"
)

// RightHandler serves the rights catalog endpoints.
type RightHandler struct {
	rbac   *service.RBACService
	logger zerolog.Logger
}

// NewRightHandler creates a new RightHandler.
func NewRightHandler(rbac *service.RBACService, logger zerolog.Logger) *RightHandler {
	return &RightHandler{
		rbac:   rbac,
		logger: logger.With().Str("handler", "right").Logger(),
	}
}

// createRightRequest is the right creation request body.
type createRightRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create handles POST /v1/rights.
func (h *RightHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRightRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid request body")
		return
	}

	right, err := h.rbac.CreateRight(r.Context(), service.CreateRightInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, right)
}

// Get handles GET /v1/rights/{id}.
func (h *RightHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid right id")
		return
	}

	right, err := h.rbac.GetRight(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, right)
}

// List handles GET /v1/rights.
func (h *RightHandler) List(w http.ResponseWriter, r *http.Request) {
	rights, err := h.rbac.ListRights(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if rights == nil {
		rights = []*domain.Right{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"rights": rights})
}

// Delete handles DELETE /v1/rights/{id}.
func (h *RightHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid right id")
		return
	}

	if err := h.rbac.DeleteRight(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
