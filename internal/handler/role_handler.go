package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/custos-id/custos/internal/auth"
	"github.com/custos-id/custos/internal/domain"
	"github.com/custos-id/custos/internal/service"
)

// RoleHandler serves the role management endpoints.
type RoleHandler struct {
	rbac   *service.RBACService
	logger zerolog.Logger
}

// NewRoleHandler creates a new RoleHandler.
func NewRoleHandler(rbac *service.RBACService, logger zerolog.Logger) *RoleHandler {
	return &RoleHandler{
		rbac:   rbac,
		logger: logger.With().Str("handler", "role").Logger(),
	}
}

// createRoleRequest is the role creation request body.
type createRoleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	HomeRoute   string `json:"home_route"`
}

// Create handles POST /v1/roles.
func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid request body")
		return
	}

	role, err := h.rbac.CreateRole(r.Context(), service.CreateRoleInput{
		Name:        req.Name,
		Description: req.Description,
		HomeRoute:   req.HomeRoute,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, role)
}

// Get handles GET /v1/roles/{id}.
func (h *RoleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid role id")
		return
	}

	role, err := h.rbac.GetRole(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, role)
}

// List handles GET /v1/roles.
func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.rbac.ListRoles(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if roles == nil {
		roles = []*domain.Role{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"roles": roles})
}

// updateRoleRequest is the role update request body. Absent fields are left
// unchanged.
type updateRoleRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	HomeRoute   *string `json:"home_route"`
}

// Update handles PATCH /v1/roles/{id}.
func (h *RoleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid role id")
		return
	}

	var req updateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid request body")
		return
	}

	role, err := h.rbac.UpdateRole(r.Context(), service.UpdateRoleInput{
		RoleID:      id,
		Name:        req.Name,
		Description: req.Description,
		HomeRoute:   req.HomeRoute,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, role)
}

// Delete handles DELETE /v1/roles/{id}.
func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid role id")
		return
	}

	if err := h.rbac.DeleteRole(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListRights handles GET /v1/roles/{id}/rights.
func (h *RoleHandler) ListRights(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid role id")
		return
	}

	names, err := h.rbac.ListRoleRights(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"rights": names})
}

// AttachRight handles PUT /v1/roles/{id}/rights/{rightID}. Re-attaching an
// already-attached right succeeds without effect.
func (h *RoleHandler) AttachRight(w http.ResponseWriter, r *http.Request) {
	roleID, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid role id")
		return
	}
	rightID, ok := urlID(r, "rightID")
	if !ok {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid right id")
		return
	}

	if err := h.rbac.AttachRight(r.Context(), roleID, rightID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DetachRight handles DELETE /v1/roles/{id}/rights/{rightID}.
func (h *RoleHandler) DetachRight(w http.ResponseWriter, r *http.Request) {
	roleID, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid role id")
		return
	}
	rightID, ok := urlID(r, "rightID")
	if !ok {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid right id")
		return
	}

	if err := h.rbac.DetachRight(r.Context(), roleID, rightID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
