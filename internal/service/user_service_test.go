package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/custos-id/custos/internal/auth"
	"github.com/custos-id/custos/internal/domain"
)

func userServiceFixture() (*UserService, *mockUserRepository, *mockRoleRepository, *mockAuditRepository) {
	userRepo := newMockUserRepository()
	roleRepo := newMockRoleRepository()
	auditRepo := newMockAuditRepository()
	svc := NewUserService(userRepo, roleRepo, auditRepo, auth.NewHasher(auth.MinHashIterations), zerolog.Nop())
	return svc, userRepo, roleRepo, auditRepo
}

func TestUserService_Create(t *testing.T) {
	svc, _, _, auditRepo := userServiceFixture()
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateUserInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "a long password",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if user.ID == 0 {
		t.Error("expected an assigned id")
	}
	if user.IsActive || user.IsVerified {
		t.Error("new accounts must start inactive and unverified")
	}
	if user.PasswordHash == "" || user.PasswordHash == "a long password" {
		t.Error("expected a password hash, not the plaintext")
	}

	actions := auditRepo.actions()
	if len(actions) != 1 || actions[0] != domain.AuditUserCreated {
		t.Errorf("expected a user.created audit event, got %v", actions)
	}
}

func TestUserService_Create_Validation(t *testing.T) {
	svc, _, _, _ := userServiceFixture()
	ctx := context.Background()

	tests := []struct {
		name    string
		input   CreateUserInput
		wantErr error
	}{
		{
			name:    "username too short",
			input:   CreateUserInput{Username: "ab", Password: "a long password"},
			wantErr: ErrInvalidUsername,
		},
		{
			name:    "bad email",
			input:   CreateUserInput{Username: "alice", Email: "not-an-email", Password: "a long password"},
			wantErr: ErrInvalidEmail,
		},
		{
			name:    "password too short",
			input:   CreateUserInput{Username: "alice", Password: "short"},
			wantErr: ErrInvalidPassword,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tt.input); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestUserService_Create_DuplicateUsername(t *testing.T) {
	svc, _, _, _ := userServiceFixture()
	ctx := context.Background()

	input := CreateUserInput{Username: "alice", Password: "a long password"}
	if _, err := svc.Create(ctx, input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Create(ctx, input); !errors.Is(err, domain.ErrUserAlreadyExists) {
		t.Errorf("expected ErrUserAlreadyExists, got %v", err)
	}
}

func TestUserService_Update(t *testing.T) {
	svc, _, _, _ := userServiceFixture()
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateUserInput{Username: "alice", Password: "a long password"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := "Alice"
	email := "alice@example.com"
	updated, err := svc.Update(ctx, UpdateUserInput{UserID: user.ID, FirstName: &first, Email: &email})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.FirstName != "Alice" || updated.Email != "alice@example.com" {
		t.Errorf("expected updated fields, got %+v", updated)
	}
	if updated.Username != "alice" {
		t.Errorf("username must be untouched, got %q", updated.Username)
	}

	bad := "not-an-email"
	if _, err := svc.Update(ctx, UpdateUserInput{UserID: user.ID, Email: &bad}); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("expected ErrInvalidEmail, got %v", err)
	}
}

func TestUserService_Update_NotFound(t *testing.T) {
	svc, _, _, _ := userServiceFixture()

	first := "Nobody"
	_, err := svc.Update(context.Background(), UpdateUserInput{UserID: 404, FirstName: &first})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_SetPassword(t *testing.T) {
	svc, userRepo, _, _ := userServiceFixture()
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateUserInput{Username: "alice", Password: "a long password"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	oldHash := userRepo.users[user.ID].PasswordHash

	if err := svc.SetPassword(ctx, user.ID, "short"); !errors.Is(err, ErrInvalidPassword) {
		t.Errorf("expected ErrInvalidPassword, got %v", err)
	}

	if err := svc.SetPassword(ctx, user.ID, "a new long password"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userRepo.users[user.ID].PasswordHash == oldHash {
		t.Error("expected the stored hash to change")
	}
}

func TestUserService_SetActiveAndVerified(t *testing.T) {
	svc, userRepo, _, _ := userServiceFixture()
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateUserInput{Username: "alice", Password: "a long password"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.SetActive(ctx, user.ID, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.SetVerified(ctx, user.ID, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored := userRepo.users[user.ID]
	if !stored.CanAuthenticate() {
		t.Errorf("expected user to be able to authenticate, got %+v", stored)
	}
}

func TestUserService_Delete(t *testing.T) {
	svc, _, _, _ := userServiceFixture()
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateUserInput{Username: "alice", Password: "a long password"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Delete(ctx, user.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetByID(ctx, user.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, user.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound on double delete, got %v", err)
	}
}

func TestUserService_List(t *testing.T) {
	svc, userRepo, _, _ := userServiceFixture()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		user := domain.NewUser("user"+string(rune('a'+i)), "", "hash")
		if err := userRepo.Create(ctx, user); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	out, err := svc.List(ctx, ListUsersInput{Limit: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Users) != 3 || out.TotalCount != 3 {
		t.Errorf("expected 3 users, got %d (total %d)", len(out.Users), out.TotalCount)
	}

	out, err = svc.List(ctx, ListUsersInput{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Users) != 1 {
		t.Errorf("expected 1 user at offset 2, got %d", len(out.Users))
	}
	if out.TotalCount != 3 {
		t.Errorf("expected total 3 regardless of page, got %d", out.TotalCount)
	}
}

func TestUserService_AttachDetachRole(t *testing.T) {
	svc, userRepo, roleRepo, _ := userServiceFixture()
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateUserInput{Username: "alice", Password: "a long password"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	role := domain.NewRole("auditor", "", "")
	if err := roleRepo.Create(ctx, role); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.AttachRole(ctx, user.ID, 404); !errors.Is(err, domain.ErrRoleNotFound) {
		t.Errorf("expected ErrRoleNotFound, got %v", err)
	}
	if err := svc.AttachRole(ctx, 404, role.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}

	// Attaching twice converges on a single membership.
	if err := svc.AttachRole(ctx, user.ID, role.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.AttachRole(ctx, user.ID, role.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids, _ := userRepo.ListRoleIDs(ctx, user.ID)
	if len(ids) != 1 || ids[0] != role.ID {
		t.Fatalf("expected a single membership, got %v", ids)
	}

	roles, err := svc.ListRoles(ctx, user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(roles) != 1 || roles[0].Name != "auditor" {
		t.Errorf("expected [auditor], got %v", roles)
	}

	if err := svc.DetachRole(ctx, user.ID, role.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Detaching an absent membership is a no-op.
	if err := svc.DetachRole(ctx, user.ID, role.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	roles, _ = svc.ListRoles(ctx, user.ID)
	if len(roles) != 0 {
		t.Errorf("expected no roles after detach, got %v", roles)
	}
}

func TestUserService_ListRoles_SkipsDanglingMemberships(t *testing.T) {
	svc, _, roleRepo, _ := userServiceFixture()
	ctx := context.Background()

	user, err := svc.Create(ctx, CreateUserInput{Username: "alice", Password: "a long password"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	role := domain.NewRole("auditor", "", "")
	if err := roleRepo.Create(ctx, role); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.AttachRole(ctx, user.ID, role.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The membership row outlives the role.
	delete(roleRepo.roles, role.ID)

	roles, err := svc.ListRoles(ctx, user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(roles) != 0 {
		t.Errorf("expected dangling membership to be skipped, got %v", roles)
	}
}

func TestUserService_AuditFailureDoesNotFailOperation(t *testing.T) {
	svc, _, _, auditRepo := userServiceFixture()
	auditRepo.recordErr = errors.New("audit store down")

	if _, err := svc.Create(context.Background(), CreateUserInput{Username: "alice", Password: "a long password"}); err != nil {
		t.Errorf("audit failure must not fail the operation, got %v", err)
	}
}
