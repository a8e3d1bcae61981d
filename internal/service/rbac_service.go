package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/custos-id/custos/internal/domain"
	"github.com/custos-id/custos/internal/repository"
)

// RBACService handles role and right management.
type RBACService struct {
	roleRepo  repository.RoleRepository
	rightRepo repository.RightRepository
	auditRepo repository.AuditRepository
	logger    zerolog.Logger
}

// NewRBACService creates a new RBACService.
func NewRBACService(
	roleRepo repository.RoleRepository,
	rightRepo repository.RightRepository,
	auditRepo repository.AuditRepository,
	logger zerolog.Logger,
) *RBACService {
	return &RBACService{
		roleRepo:  roleRepo,
		rightRepo: rightRepo,
		auditRepo: auditRepo,
		logger:    logger.With().Str("service", "rbac").Logger(),
	}
}

// CreateRoleInput contains the data needed to create a role.
type CreateRoleInput struct {
	Name        string
	Description string
	HomeRoute   string
}

// CreateRole creates a new role.
func (s *RBACService) CreateRole(ctx context.Context, input CreateRoleInput) (*domain.Role, error) {
	if len(input.Name) < 1 || len(input.Name) > 255 {
		return nil, ErrInvalidRoleName
	}

	role := domain.NewRole(input.Name, input.Description, input.HomeRoute)
	if err := s.roleRepo.Create(ctx, role); err != nil {
		if errors.Is(err, domain.ErrRoleAlreadyExists) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("name", input.Name).Msg("failed to create role")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("role_id", role.ID).Str("name", role.Name).Msg("role created")
	return role, nil
}

// GetRole retrieves a role by ID.
func (s *RBACService) GetRole(ctx context.Context, id int64) (*domain.Role, error) {
	role, err := s.roleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return role, nil
}

// GetRoleByName retrieves a role by name.
func (s *RBACService) GetRoleByName(ctx context.Context, name string) (*domain.Role, error) {
	role, err := s.roleRepo.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return role, nil
}

// ListRoles returns all roles.
func (s *RBACService) ListRoles(ctx context.Context) ([]*domain.Role, error) {
	roles, err := s.roleRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list roles")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return roles, nil
}

// UpdateRoleInput contains the role fields that can be updated.
// Nil fields are left unchanged.
type UpdateRoleInput struct {
	RoleID      int64
	Name        *string
	Description *string
	HomeRoute   *string
}

// UpdateRole updates a role.
func (s *RBACService) UpdateRole(ctx context.Context, input UpdateRoleInput) (*domain.Role, error) {
	role, err := s.roleRepo.GetByID(ctx, input.RoleID)
	if err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if input.Name != nil {
		if len(*input.Name) < 1 || len(*input.Name) > 255 {
			return nil, ErrInvalidRoleName
		}
		role.Name = *input.Name
	}
	if input.Description != nil {
		role.Description = *input.Description
	}
	if input.HomeRoute != nil {
		role.HomeRoute = *input.HomeRoute
	}

	if err := s.roleRepo.Update(ctx, role); err != nil {
		if errors.Is(err, domain.ErrRoleAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("role_id", role.ID).Msg("role updated")
	return role, nil
}

// DeleteRole deletes a role. Every user holding it loses its rights at the
// next check; memberships are removed by the database cascades.
func (s *RBACService) DeleteRole(ctx context.Context, id int64) error {
	if err := s.roleRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			return domain.ErrRoleNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.audit(ctx, domain.NewAuditEvent(domain.AuditRoleDeleted, 0, id, ""))

	s.logger.Info().Int64("role_id", id).Msg("role deleted")
	return nil
}

// CreateRightInput contains the data needed to create a right.
type CreateRightInput struct {
	Name        string
	Description string
}

// CreateRight creates a new right.
func (s *RBACService) CreateRight(ctx context.Context, input CreateRightInput) (*domain.Right, error) {
	if len(input.Name) < 1 || len(input.Name) > 255 {
		return nil, ErrInvalidRight
	}

	right := domain.NewRight(input.Name, input.Description)
	if err := s.rightRepo.Create(ctx, right); err != nil {
		if errors.Is(err, domain.ErrRightAlreadyExists) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("name", input.Name).Msg("failed to create right")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("right_id", right.ID).Str("name", right.Name).Msg("right created")
	return right, nil
}

// GetRight retrieves a right by ID.
func (s *RBACService) GetRight(ctx context.Context, id int64) (*domain.Right, error) {
	right, err := s.rightRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRightNotFound) {
			return nil, domain.ErrRightNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return right, nil
}

// ListRights returns all rights.
func (s *RBACService) ListRights(ctx context.Context) ([]*domain.Right, error) {
	rights, err := s.rightRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list rights")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return rights, nil
}

// DeleteRight deletes a right. Every role carrying it loses it in the same
// statement via the database cascade.
func (s *RBACService) DeleteRight(ctx context.Context, id int64) error {
	if err := s.rightRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrRightNotFound) {
			return domain.ErrRightNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.audit(ctx, domain.NewAuditEvent(domain.AuditRightDeleted, 0, id, ""))

	s.logger.Info().Int64("right_id", id).Msg("right deleted")
	return nil
}

// AttachRight attaches a right to a role. Attaching an already-attached
// right is a no-op.
func (s *RBACService) AttachRight(ctx context.Context, roleID, rightID int64) error {
	if _, err := s.roleRepo.GetByID(ctx, roleID); err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			return domain.ErrRoleNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if _, err := s.rightRepo.GetByID(ctx, rightID); err != nil {
		if errors.Is(err, domain.ErrRightNotFound) {
			return domain.ErrRightNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := s.roleRepo.AttachRight(ctx, roleID, rightID); err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.audit(ctx, domain.NewAuditEvent(domain.AuditRightAttached, 0, roleID, fmt.Sprintf("right:%d", rightID)))

	s.logger.Info().
		Int64("role_id", roleID).
		Int64("right_id", rightID).
		Msg("right attached to role")

	return nil
}

// DetachRight detaches a right from a role. Detaching a right that is not
// attached is a no-op.
func (s *RBACService) DetachRight(ctx context.Context, roleID, rightID int64) error {
	if _, err := s.roleRepo.GetByID(ctx, roleID); err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			return domain.ErrRoleNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := s.roleRepo.DetachRight(ctx, roleID, rightID); err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.audit(ctx, domain.NewAuditEvent(domain.AuditRightDetached, 0, roleID, fmt.Sprintf("right:%d", rightID)))

	s.logger.Info().
		Int64("role_id", roleID).
		Int64("right_id", rightID).
		Msg("right detached from role")

	return nil
}

// ListRoleRights returns the names of all rights attached to a role.
func (s *RBACService) ListRoleRights(ctx context.Context, roleID int64) ([]string, error) {
	if _, err := s.roleRepo.GetByID(ctx, roleID); err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	names, err := s.roleRepo.ListRightNames(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return names, nil
}

// Seed applies the built-in right catalog and role seed table. Existing
// rights, roles and attachments are left untouched, so running it against
// a populated database is safe.
func (s *RBACService) Seed(ctx context.Context) error {
	for _, entry := range domain.RightCatalog {
		right := domain.NewRight(entry.Name, entry.Description)
		if err := s.rightRepo.Create(ctx, right); err != nil {
			if errors.Is(err, domain.ErrRightAlreadyExists) {
				continue
			}
			return fmt.Errorf("failed to seed right %q: %w", entry.Name, err)
		}
	}

	for _, seed := range domain.DefaultRoleSeeds {
		role, err := s.roleRepo.GetByName(ctx, seed.Name)
		if errors.Is(err, domain.ErrRoleNotFound) {
			role = domain.NewRole(seed.Name, seed.Description, seed.HomeRoute)
			if err := s.roleRepo.Create(ctx, role); err != nil {
				return fmt.Errorf("failed to seed role %q: %w", seed.Name, err)
			}
		} else if err != nil {
			return fmt.Errorf("failed to look up role %q: %w", seed.Name, err)
		}

		for _, rightName := range seed.Rights {
			right, err := s.rightRepo.GetByName(ctx, rightName)
			if err != nil {
				return fmt.Errorf("failed to look up right %q: %w", rightName, err)
			}
			if err := s.roleRepo.AttachRight(ctx, role.ID, right.ID); err != nil {
				return fmt.Errorf("failed to attach right %q to role %q: %w", rightName, seed.Name, err)
			}
		}
	}

	s.logger.Info().Msg("rights catalog and role seeds applied")
	return nil
}

// audit records an event on a best-effort basis.
func (s *RBACService) audit(ctx context.Context, event *domain.AuditEvent) {
	if s.auditRepo == nil {
		return
	}
	if err := s.auditRepo.Record(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("action", string(event.Action)).Msg("failed to record audit event")
	}
}
