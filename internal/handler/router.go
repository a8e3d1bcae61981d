package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/custos-id/custos/internal/auth"
	"github.com/custos-id/custos/internal/domain"
	"github.com/custos-id/custos/internal/metrics"
)

// DatabaseChecker reports database health for the health endpoint.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// Router assembles the HTTP API.
type Router struct {
	guard        *auth.Guard
	authHandler  *AuthHandler
	userHandler  *UserHandler
	roleHandler  *RoleHandler
	rightHandler *RightHandler
	db           DatabaseChecker
	metrics      *metrics.Metrics
	logger       zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	Guard        *auth.Guard
	AuthHandler  *AuthHandler
	UserHandler  *UserHandler
	RoleHandler  *RoleHandler
	RightHandler *RightHandler
	Database     DatabaseChecker
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(config RouterConfig) *Router {
	return &Router{
		guard:        config.Guard,
		authHandler:  config.AuthHandler,
		userHandler:  config.UserHandler,
		roleHandler:  config.RoleHandler,
		rightHandler: config.RightHandler,
		db:           config.Database,
		metrics:      config.Metrics,
		logger:       config.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger(rt.logger))
	if rt.metrics != nil {
		r.Use(Metrics(rt.metrics))
	}
	r.Use(chimiddleware.Recoverer)

	// Health check (no auth)
	r.Get("/health", rt.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", rt.authHandler.Login)

			// Any valid principal; no specific rights.
			r.Group(func(r chi.Router) {
				r.Use(rt.guard.Require())
				r.Post("/refresh", rt.authHandler.Refresh)
				r.Get("/me", rt.authHandler.Me)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.With(rt.guard.Require(domain.RightCreateUser)).Post("/", rt.userHandler.Create)
			r.With(rt.guard.Require(domain.RightListUsers)).Get("/", rt.userHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.With(rt.guard.Require(domain.RightViewUser)).Get("/", rt.userHandler.Get)
				r.With(rt.guard.Require(domain.RightUpdateUser)).Patch("/", rt.userHandler.Update)
				r.With(rt.guard.Require(domain.RightUpdateUser)).Put("/password", rt.userHandler.SetPassword)
				r.With(rt.guard.Require(domain.RightUpdateUser)).Put("/status", rt.userHandler.SetStatus)
				r.With(rt.guard.Require(domain.RightDeleteUser)).Delete("/", rt.userHandler.Delete)

				r.With(rt.guard.Require(domain.RightViewUser)).Get("/roles", rt.userHandler.ListRoles)
				r.With(rt.guard.Require(domain.RightManageRoles)).Put("/roles/{roleID}", rt.userHandler.AttachRole)
				r.With(rt.guard.Require(domain.RightManageRoles)).Delete("/roles/{roleID}", rt.userHandler.DetachRole)
			})
		})

		r.Route("/roles", func(r chi.Router) {
			r.Use(rt.guard.Require(domain.RightManageRoles))
			r.Post("/", rt.roleHandler.Create)
			r.Get("/", rt.roleHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", rt.roleHandler.Get)
				r.Patch("/", rt.roleHandler.Update)
				r.Delete("/", rt.roleHandler.Delete)
				r.Get("/rights", rt.roleHandler.ListRights)
				r.Put("/rights/{rightID}", rt.roleHandler.AttachRight)
				r.Delete("/rights/{rightID}", rt.roleHandler.DetachRight)
			})
		})

		r.Route("/rights", func(r chi.Router) {
			// Listing the catalog is open to role managers as well.
			r.With(rt.guard.Require(domain.RightManageRights, domain.RightManageRoles)).Get("/", rt.rightHandler.List)
			r.With(rt.guard.Require(domain.RightManageRights, domain.RightManageRoles)).Get("/{id}", rt.rightHandler.Get)
			r.With(rt.guard.Require(domain.RightManageRights)).Post("/", rt.rightHandler.Create)
			r.With(rt.guard.Require(domain.RightManageRights)).Delete("/{id}", rt.rightHandler.Delete)
		})
	})

	return r
}

// handleHealth handles health check requests.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if rt.db != nil {
		if err := rt.db.Ping(r.Context()); err != nil {
			rt.logger.Error().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
