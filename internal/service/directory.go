package service

import (
	"context"

	"github.com/custos-id/custos/internal/auth"
	"github.com/custos-id/custos/internal/domain"
	"github.com/custos-id/custos/internal/repository"
)

// DirectoryAdapter adapts the repository layer to auth.PrincipalDirectory,
// giving the authorization core its view of users and the role/right graph.
type DirectoryAdapter struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
}

// NewDirectoryAdapter creates a new DirectoryAdapter.
func NewDirectoryAdapter(userRepo repository.UserRepository, roleRepo repository.RoleRepository) *DirectoryAdapter {
	return &DirectoryAdapter{
		userRepo: userRepo,
		roleRepo: roleRepo,
	}
}

// GetPrincipal returns the user record for an id.
func (a *DirectoryAdapter) GetPrincipal(ctx context.Context, id int64) (*domain.User, error) {
	return a.userRepo.GetByID(ctx, id)
}

// GetRolesFor returns the ids of all roles attached to a principal.
func (a *DirectoryAdapter) GetRolesFor(ctx context.Context, principalID int64) ([]int64, error) {
	return a.userRepo.ListRoleIDs(ctx, principalID)
}

// GetRightsFor returns the names of all rights attached to a role.
func (a *DirectoryAdapter) GetRightsFor(ctx context.Context, roleID int64) ([]string, error) {
	return a.roleRepo.ListRightNames(ctx, roleID)
}

// Ensure DirectoryAdapter implements auth.PrincipalDirectory.
var _ auth.PrincipalDirectory = (*DirectoryAdapter)(nil)
