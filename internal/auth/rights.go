// Package auth implements the bearer-token authorization core for Custos.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/custos-id/custos/internal/domain"
)

// PrincipalDirectory is the storage-layer view the core depends on: user
// lookup and the role/right graph. Implementations must answer each call
// against a consistent snapshot of the graph (ordinary request-scoped reads
// satisfy this; no locking is expected from the core).
type PrincipalDirectory interface {
	// GetPrincipal returns the user record for an id.
	// Returns domain.ErrUserNotFound when the id does not resolve.
	GetPrincipal(ctx context.Context, id int64) (*domain.User, error)

	// GetRolesFor returns the ids of all roles attached to a principal.
	GetRolesFor(ctx context.Context, principalID int64) ([]int64, error)

	// GetRightsFor returns the names of all rights attached to a role.
	GetRightsFor(ctx context.Context, roleID int64) ([]string, error)
}

// Resolver computes a principal's effective right-set by walking the
// user-role-right graph. Rights are recomputed fresh at every check; nothing
// is cached across requests.
type Resolver struct {
	dir PrincipalDirectory
}

// NewResolver creates a Resolver over the given directory.
func NewResolver(dir PrincipalDirectory) *Resolver {
	return &Resolver{dir: dir}
}

// ResolveRights returns the distinct union of right names reachable from
// the principal via its roles. A principal with no roles (or roles with no
// rights) yields an empty set, not an error. An unknown principal yields
// ErrUnknownPrincipal; any other directory failure propagates wrapped in
// ErrDirectoryUnavailable.
func (r *Resolver) ResolveRights(ctx context.Context, principalID int64) (map[string]struct{}, error) {
	roleIDs, err := r.dir.GetRolesFor(ctx, principalID)
	if err != nil {
		return nil, translateDirectoryError(err)
	}

	rights := make(map[string]struct{})
	for _, roleID := range roleIDs {
		names, err := r.dir.GetRightsFor(ctx, roleID)
		if err != nil {
			return nil, translateDirectoryError(err)
		}
		for _, name := range names {
			rights[name] = struct{}{}
		}
	}
	return rights, nil
}

// HasAny reports whether the principal's resolved rights intersect the
// required set. The no_limits sentinel is implicitly OR'd into every
// requirement, so a root-equivalent principal satisfies any guard. The
// returned slice holds the right names that matched.
func (r *Resolver) HasAny(ctx context.Context, principalID int64, required []string) (bool, []string, error) {
	resolved, err := r.ResolveRights(ctx, principalID)
	if err != nil {
		return false, nil, err
	}
	ok, matched := intersect(resolved, required)
	return ok, matched, nil
}

// intersect applies the requirement check against an already-resolved set.
func intersect(resolved map[string]struct{}, required []string) (bool, []string) {
	var matched []string
	if _, ok := resolved[domain.RightNoLimits]; ok {
		matched = append(matched, domain.RightNoLimits)
	}
	for _, name := range required {
		if _, ok := resolved[name]; ok {
			matched = append(matched, name)
		}
	}
	return len(matched) > 0, matched
}

// translateDirectoryError maps directory failures into the core taxonomy:
// a definite "no such user" becomes ErrUnknownPrincipal, everything else
// (I/O failure, cancellation, timeout) becomes ErrDirectoryUnavailable so it
// can never be mistaken for a security decision.
func translateDirectoryError(err error) error {
	if errors.Is(err, domain.ErrUserNotFound) {
		return ErrUnknownPrincipal
	}
	return fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
}
