// Package auth implements the bearer-token authorization core for Custos.
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/custos-id/custos/internal/domain"
)

// Context is the result of a successful guard pass, handed to the protected
// operation.
type Context struct {
	// Principal is the resolved user.
	Principal *domain.User

	// Claims are the verified token claims.
	Claims *Claims

	// Rights is the principal's resolved right-set. Only populated when the
	// guarded operation declared required rights.
	Rights map[string]struct{}

	// Matched holds the required rights the principal actually held
	// (including no_limits when that is what satisfied the check).
	Matched []string
}

// guardContextKey is the request-context key for Context.
type guardContextKey struct{}

// FromContext retrieves the guard Context from a request context, or nil
// when the request did not pass through the guard.
func FromContext(ctx context.Context) *Context {
	if gc, ok := ctx.Value(guardContextKey{}).(*Context); ok {
		return gc
	}
	return nil
}

// Guard is the single reusable enforcement point wrapping protected
// operations. It is stateless and reentrant: every request runs the full
// extract-decode-resolve-check sequence from scratch, and concurrent
// requests share nothing but the immutable codec secret.
type Guard struct {
	codec    *Codec
	dir      PrincipalDirectory
	resolver *Resolver
	logger   zerolog.Logger

	// observe, when set, receives the outcome code of every guard pass.
	observe func(code ErrorCode)
}

// NewGuard creates a Guard.
func NewGuard(codec *Codec, dir PrincipalDirectory, logger zerolog.Logger) *Guard {
	return &Guard{
		codec:    codec,
		dir:      dir,
		resolver: NewResolver(dir),
		logger:   logger.With().Str("component", "guard").Logger(),
	}
}

// Observe registers a callback invoked with the outcome code of each guard
// pass ("Authorized" is reported as an empty code). Used for metrics.
func (g *Guard) Observe(fn func(code ErrorCode)) {
	g.observe = fn
}

// Check runs the enforcement sequence for one request:
//
//  1. extract the Bearer credential from the Authorization header
//  2. decode and verify the token
//  3. resolve the principal by the token subject
//  4. check required rights (skipped when required is empty:
//     authentication only)
//
// On success it returns the Context for the protected operation; on failure
// exactly one error from the package taxonomy.
func (g *Guard) Check(r *http.Request, required []string) (*Context, error) {
	token, err := extractBearerToken(r)
	if err != nil {
		return nil, err
	}

	claims, err := g.codec.Decode(token)
	if err != nil {
		return nil, err
	}

	principal, err := g.dir.GetPrincipal(r.Context(), claims.Subject)
	if err != nil {
		return nil, translateDirectoryError(err)
	}

	gc := &Context{Principal: principal, Claims: claims}

	if len(required) > 0 {
		resolved, err := g.resolver.ResolveRights(r.Context(), principal.ID)
		if err != nil {
			return nil, err
		}
		ok, matched := intersect(resolved, required)
		if !ok {
			return nil, ErrInsufficientRights
		}
		gc.Rights = resolved
		gc.Matched = matched
	}

	return gc, nil
}

// Require returns a middleware enforcing the given required rights around
// the wrapped handler. With no rights it requires only a valid, resolvable
// principal. The guard Context is stored in the request context for
// retrieval via FromContext.
func (g *Guard) Require(rights ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gc, err := g.Check(r, rights)
			if err != nil {
				g.fail(w, r, err)
				return
			}
			if g.observe != nil {
				g.observe("")
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), guardContextKey{}, gc)))
		})
	}
}

// fail writes the JSON error response for a guard failure.
func (g *Guard) fail(w http.ResponseWriter, r *http.Request, err error) {
	guardErr := NewError(err)

	if guardErr.Code == CodeInternalError {
		g.logger.Error().Err(err).Str("path", r.URL.Path).Msg("guard failed on internal error")
	} else {
		g.logger.Debug().Err(err).Str("path", r.URL.Path).Msg("request rejected")
	}
	if g.observe != nil {
		g.observe(guardErr.Code)
	}

	WriteError(w, guardErr)
}

// WriteError writes an auth Error as a JSON response.
func WriteError(w http.ResponseWriter, guardErr *Error) {
	w.Header().Set("Content-Type", "application/json")
	if guardErr.HTTPStatus == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", BearerScheme)
	}
	w.WriteHeader(guardErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    string(guardErr.Code),
		"message": guardErr.Message,
	})
}

// extractBearerToken reads the credential from the Authorization header.
// A missing header is ErrNoCredential; anything other than exactly
// "Bearer <token>" is ErrBadAuthorization.
func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get(AuthorizationHeader)
	if header == "" {
		return "", ErrNoCredential
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != BearerScheme || parts[1] == "" {
		return "", ErrBadAuthorization
	}
	return parts[1], nil
}
