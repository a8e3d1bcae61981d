package handler

import (
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/custos-id/custos/internal/auth"
	"github.com/custos-id/custos/internal/domain"
	"github.com/custos-id/custos/internal/service"
)

// AuthHandler serves the authentication endpoints.
type AuthHandler struct {
	tokens   *service.TokenService
	users    *service.UserService
	resolver *auth.Resolver
	logger   zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	tokens *service.TokenService,
	users *service.UserService,
	resolver *auth.Resolver,
	logger zerolog.Logger,
) *AuthHandler {
	return &AuthHandler{
		tokens:   tokens,
		users:    users,
		resolver: resolver,
		logger:   logger.With().Str("handler", "auth").Logger(),
	}
}

// loginRequest is the login request body.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// tokenResponse is the body returned by login and refresh.
type tokenResponse struct {
	BearerToken     string `json:"bearer_token"`
	UserID          int64  `json:"user_id"`
	LifetimeSeconds int64  `json:"lifetime_seconds"`
	ExpiresAt       string `json:"expires_at"`
}

func newTokenResponse(token *auth.IssuedToken, userID int64) tokenResponse {
	return tokenResponse{
		BearerToken:     token.Token,
		UserID:          userID,
		LifetimeSeconds: token.LifetimeSeconds,
		ExpiresAt:       token.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, string(auth.CodeInvalidInput), "username and password are required")
		return
	}

	out, err := h.tokens.Login(r.Context(), service.LoginInput{
		Username:   req.Username,
		Password:   req.Password,
		RemoteAddr: r.RemoteAddr,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newTokenResponse(out.Token, out.User.ID))
}

// Refresh handles POST /v1/auth/refresh. The route is guarded, so the
// request already carries a verified principal.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	gc := auth.FromContext(r.Context())
	if gc == nil {
		writeError(w, http.StatusInternalServerError, string(auth.CodeInternalError), "internal error")
		return
	}

	token, err := h.tokens.Refresh(r.Context(), gc.Principal.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newTokenResponse(token, gc.Principal.ID))
}

// meResponse is the body returned by the identity endpoint.
type meResponse struct {
	User   *domain.User   `json:"user"`
	Roles  []*domain.Role `json:"roles"`
	Rights []string       `json:"rights"`
}

// Me handles GET /v1/auth/me: the authenticated principal, its roles and
// its effective right-set.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	gc := auth.FromContext(r.Context())
	if gc == nil {
		writeError(w, http.StatusInternalServerError, string(auth.CodeInternalError), "internal error")
		return
	}

	roles, err := h.users.ListRoles(r.Context(), gc.Principal.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resolved, err := h.resolver.ResolveRights(r.Context(), gc.Principal.ID)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", gc.Principal.ID).Msg("failed to resolve rights")
		writeError(w, http.StatusInternalServerError, string(auth.CodeInternalError), "internal error")
		return
	}

	rights := make([]string, 0, len(resolved))
	for name := range resolved {
		rights = append(rights, name)
	}
	sort.Strings(rights)

	writeJSON(w, http.StatusOK, meResponse{
		User:   gc.Principal,
		Roles:  roles,
		Rights: rights,
	})
}
