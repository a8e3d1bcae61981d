package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/custos-id/custos/internal/auth"
	"github.com/custos-id/custos/internal/domain"
	"github.com/custos-id/custos/internal/service"
)

// UserHandler serves the user management endpoints.
type UserHandler struct {
	users  *service.UserService
	logger zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger.With().Str("handler", "user").Logger(),
	}
}

// urlID parses the {id} route parameter.
func urlID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// createUserRequest is the user creation request body.
type createUserRequest struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// Create handles POST /v1/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid request body")
		return
	}

	user, err := h.users.Create(r.Context(), service.CreateUserInput{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// Get handles GET /v1/users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid user id")
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// listUsersResponse is the body returned by the list endpoint.
type listUsersResponse struct {
	Users  []*domain.User `json:"users"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// List handles GET /v1/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	out, err := h.users.List(r.Context(), service.ListUsersInput{Limit: limit, Offset: offset})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	users := out.Users
	if users == nil {
		users = []*domain.User{}
	}

	writeJSON(w, http.StatusOK, listUsersResponse{
		Users:  users,
		Total:  out.TotalCount,
		Limit:  limit,
		Offset: offset,
	})
}

// updateUserRequest is the profile update request body. Absent fields are
// left unchanged.
type updateUserRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Email     *string `json:"email"`
}

// Update handles PATCH /v1/users/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid user id")
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid request body")
		return
	}

	user, err := h.users.Update(r.Context(), service.UpdateUserInput{
		UserID:    id,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// setPasswordRequest is the password replacement request body.
type setPasswordRequest struct {
	Password string `json:"password"`
}

// SetPassword handles PUT /v1/users/{id}/password.
func (h *UserHandler) SetPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid user id")
		return
	}

	var req setPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid request body")
		return
	}

	if err := h.users.SetPassword(r.Context(), id, req.Password); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// setStatusRequest is the account status request body. Absent fields are
// left unchanged.
type setStatusRequest struct {
	IsActive   *bool `json:"is_active"`
	IsVerified *bool `json:"is_verified"`
}

// SetStatus handles PUT /v1/users/{id}/status.
func (h *UserHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid user id")
		return
	}

	var req setStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid request body")
		return
	}
	if req.IsActive == nil && req.IsVerified == nil {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "is_active or is_verified is required")
		return
	}

	if req.IsActive != nil {
		if err := h.users.SetActive(r.Context(), id, *req.IsActive); err != nil {
			writeServiceError(w, err)
			return
		}
	}
	if req.IsVerified != nil {
		if err := h.users.SetVerified(r.Context(), id, *req.IsVerified); err != nil {
			writeServiceError(w, err)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /v1/users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid user id")
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListRoles handles GET /v1/users/{id}/roles.
func (h *UserHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid user id")
		return
	}

	roles, err := h.users.ListRoles(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if roles == nil {
		roles = []*domain.Role{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"roles": roles})
}

// AttachRole handles PUT /v1/users/{id}/roles/{roleID}. Re-attaching an
// already-attached role succeeds without effect.
func (h *UserHandler) AttachRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid user id")
		return
	}
	roleID, ok := urlID(r, "roleID")
	if !ok {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid role id")
		return
	}

	if err := h.users.AttachRole(r.Context(), userID, roleID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DetachRole handles DELETE /v1/users/{id}/roles/{roleID}.
func (h *UserHandler) DetachRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := urlID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid user id")
		return
	}
	roleID, ok := urlID(r, "roleID")
	if !ok {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid role id")
		return
	}

	if err := h.users.DetachRole(r.Context(), userID, roleID); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
