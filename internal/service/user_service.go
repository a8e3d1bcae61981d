// Package service provides business logic services for Custos.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/rs/zerolog"

	"github.com/custos-id/custos/internal/auth"
	"github.com/custos-id/custos/internal/domain"
	"github.com/custos-id/custos/internal/repository"
)

// UserService handles user management operations.
type UserService struct {
	userRepo  repository.UserRepository
	roleRepo  repository.RoleRepository
	auditRepo repository.AuditRepository
	hasher    *auth.Hasher
	logger    zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	auditRepo repository.AuditRepository,
	hasher *auth.Hasher,
	logger zerolog.Logger,
) *UserService {
	return &UserService{
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		auditRepo: auditRepo,
		hasher:    hasher,
		logger:    logger.With().Str("service", "user").Logger(),
	}
}

// CreateUserInput contains the data needed to create a new user.
type CreateUserInput struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Create creates a new user account. New accounts start inactive and
// unverified; enable them with SetActive and SetVerified.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	if err := s.validateCreateInput(input); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to check username existence")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: username '%s'", domain.ErrUserAlreadyExists, input.Username)
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	user := domain.NewUser(input.Username, input.Email, passwordHash)
	user.FirstName = input.FirstName
	user.LastName = input.LastName

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to create user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.audit(ctx, domain.NewAuditEvent(domain.AuditUserCreated, 0, user.ID, user.Username))

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("user created")

	return user, nil
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return user, nil
}

// GetByUsername retrieves a user by username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("username", username).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return user, nil
}

// UpdateUserInput contains the profile fields that can be updated.
// Nil fields are left unchanged. Password, activity flags and login
// timestamps have their own operations and are never touched here.
type UpdateUserInput struct {
	UserID    int64
	FirstName *string
	LastName  *string
	Email     *string
}

// Update updates a user's profile fields.
func (s *UserService) Update(ctx context.Context, input UpdateUserInput) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Email != nil {
		if *input.Email != "" {
			if _, err := mail.ParseAddress(*input.Email); err != nil {
				return nil, ErrInvalidEmail
			}
		}
		user.Email = *input.Email
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.audit(ctx, domain.NewAuditEvent(domain.AuditUserUpdated, 0, user.ID, user.Username))

	s.logger.Info().Int64("user_id", user.ID).Msg("user updated")
	return user, nil
}

// SetPassword replaces a user's password.
func (s *UserService) SetPassword(ctx context.Context, userID int64, password string) error {
	if len(password) < 8 {
		return ErrInvalidPassword
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("password updated")
	return nil
}

// SetActive sets the active status of a user.
func (s *UserService) SetActive(ctx context.Context, userID int64, isActive bool) error {
	return s.setFlag(ctx, userID, func(u *domain.User) {
		u.IsActive = isActive
	}, "is_active", isActive)
}

// SetVerified sets the verified status of a user.
func (s *UserService) SetVerified(ctx context.Context, userID int64, isVerified bool) error {
	return s.setFlag(ctx, userID, func(u *domain.User) {
		u.IsVerified = isVerified
	}, "is_verified", isVerified)
}

func (s *UserService) setFlag(ctx context.Context, userID int64, apply func(*domain.User), field string, value bool) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	apply(user)
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.audit(ctx, domain.NewAuditEvent(domain.AuditUserUpdated, 0, user.ID, field))

	s.logger.Info().
		Int64("user_id", user.ID).
		Bool(field, value).
		Msg("user status updated")

	return nil
}

// Delete deletes a user account. Role memberships are removed with it.
func (s *UserService) Delete(ctx context.Context, userID int64) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.audit(ctx, domain.NewAuditEvent(domain.AuditUserDeleted, 0, userID, ""))

	s.logger.Info().Int64("user_id", userID).Msg("user deleted")
	return nil
}

// ListUsersInput contains pagination options for listing users.
type ListUsersInput struct {
	Limit  int
	Offset int
}

// ListUsersOutput contains the result of listing users.
type ListUsersOutput struct {
	Users      []*domain.User
	TotalCount int64
}

// List returns all users with pagination.
func (s *UserService) List(ctx context.Context, input ListUsersInput) (*ListUsersOutput, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.Limit > 100 {
		input.Limit = 100
	}

	result, err := s.userRepo.List(ctx, repository.ListOptions{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return &ListUsersOutput{
		Users:      result.Items,
		TotalCount: result.Total,
	}, nil
}

// AttachRole attaches a role to a user. Attaching an already-attached role
// is a no-op, so retried requests converge on the same state.
func (s *UserService) AttachRole(ctx context.Context, userID, roleID int64) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if _, err := s.roleRepo.GetByID(ctx, roleID); err != nil {
		if errors.Is(err, domain.ErrRoleNotFound) {
			return domain.ErrRoleNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := s.userRepo.AttachRole(ctx, userID, roleID); err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.audit(ctx, domain.NewAuditEvent(domain.AuditRoleAttached, 0, userID, fmt.Sprintf("role:%d", roleID)))

	s.logger.Info().
		Int64("user_id", userID).
		Int64("role_id", roleID).
		Msg("role attached to user")

	return nil
}

// DetachRole detaches a role from a user. Detaching a role that is not
// attached is a no-op.
func (s *UserService) DetachRole(ctx context.Context, userID, roleID int64) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrUserNotFound
		}
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := s.userRepo.DetachRole(ctx, userID, roleID); err != nil {
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.audit(ctx, domain.NewAuditEvent(domain.AuditRoleDetached, 0, userID, fmt.Sprintf("role:%d", roleID)))

	s.logger.Info().
		Int64("user_id", userID).
		Int64("role_id", roleID).
		Msg("role detached from user")

	return nil
}

// ListRoles returns the roles attached to a user.
func (s *UserService) ListRoles(ctx context.Context, userID int64) ([]*domain.Role, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	roleIDs, err := s.userRepo.ListRoleIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	roles := make([]*domain.Role, 0, len(roleIDs))
	for _, id := range roleIDs {
		role, err := s.roleRepo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrRoleNotFound) {
				// Membership row outlived the role; skip it.
				continue
			}
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		roles = append(roles, role)
	}

	return roles, nil
}

// audit records an event on a best-effort basis. A failed write must not
// fail the operation it describes.
func (s *UserService) audit(ctx context.Context, event *domain.AuditEvent) {
	if s.auditRepo == nil {
		return
	}
	if err := s.auditRepo.Record(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("action", string(event.Action)).Msg("failed to record audit event")
	}
}

// validateCreateInput validates the input for creating a user.
func (s *UserService) validateCreateInput(input CreateUserInput) error {
	if len(input.Username) < 3 || len(input.Username) > 255 {
		return ErrInvalidUsername
	}

	if input.Email != "" {
		if _, err := mail.ParseAddress(input.Email); err != nil {
			return ErrInvalidEmail
		}
	}

	if len(input.Password) < 8 {
		return ErrInvalidPassword
	}

	return nil
}
