package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/custos-id/custos/internal/auth"
	"github.com/custos-id/custos/internal/domain"
	"github.com/custos-id/custos/internal/ratelimit"
)

func tokenServiceFixture(limiter ratelimit.Limiter) (*TokenService, *mockUserRepository, *mockAuditRepository, *auth.Hasher) {
	userRepo := newMockUserRepository()
	auditRepo := newMockAuditRepository()
	hasher := auth.NewHasher(auth.MinHashIterations)
	codec := auth.NewCodec("test-secret", 30*time.Minute)
	svc := NewTokenService(userRepo, auditRepo, hasher, codec, limiter, zerolog.Nop())
	return svc, userRepo, auditRepo, hasher
}

func seedAccount(t *testing.T, userRepo *mockUserRepository, hasher *auth.Hasher, username, password string, active bool) *domain.User {
	t.Helper()
	hash, err := hasher.Hash(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := domain.NewUser(username, "", hash)
	user.IsActive = active
	user.IsVerified = active
	if err := userRepo.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func TestTokenService_Login(t *testing.T) {
	svc, userRepo, auditRepo, hasher := tokenServiceFixture(nil)
	user := seedAccount(t, userRepo, hasher, "alice", "a long password", true)

	out, err := svc.Login(context.Background(), LoginInput{
		Username:   "alice",
		Password:   "a long password",
		RemoteAddr: "192.0.2.1:4242",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Token == nil || out.Token.Token == "" {
		t.Fatal("expected an issued token")
	}
	if out.User.ID != user.ID {
		t.Errorf("expected user %d, got %d", user.ID, out.User.ID)
	}
	if userRepo.users[user.ID].LastLoginAt == nil {
		t.Error("expected last login timestamp to be recorded")
	}

	actions := auditRepo.actions()
	if len(actions) != 1 || actions[0] != domain.AuditLoginSucceeded {
		t.Errorf("expected a login.succeeded audit event, got %v", actions)
	}
	if auditRepo.events[0].RemoteAddr != "192.0.2.1:4242" {
		t.Errorf("expected remote address on the event, got %q", auditRepo.events[0].RemoteAddr)
	}
}

func TestTokenService_Login_Failures(t *testing.T) {
	svc, userRepo, _, hasher := tokenServiceFixture(nil)
	seedAccount(t, userRepo, hasher, "alice", "a long password", true)
	seedAccount(t, userRepo, hasher, "bob", "a long password", false)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		// A missing user and a wrong password are indistinguishable.
		{"unknown username", "nobody", "a long password", domain.ErrInvalidCredentials},
		{"wrong password", "alice", "not the password", domain.ErrInvalidCredentials},
		{"inactive account", "bob", "a long password", domain.ErrUserInactive},
		// The password is checked first: bad credentials against an
		// inactive account must not reveal the account state.
		{"inactive account with wrong password", "bob", "not the password", domain.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), LoginInput{Username: tt.username, Password: tt.password})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTokenService_Login_FailuresAreAudited(t *testing.T) {
	svc, userRepo, auditRepo, hasher := tokenServiceFixture(nil)
	seedAccount(t, userRepo, hasher, "alice", "a long password", true)

	_, _ = svc.Login(context.Background(), LoginInput{Username: "nobody", Password: "x"})
	_, _ = svc.Login(context.Background(), LoginInput{Username: "alice", Password: "wrong"})

	actions := auditRepo.actions()
	if len(actions) != 2 {
		t.Fatalf("expected 2 audit events, got %v", actions)
	}
	for _, action := range actions {
		if action != domain.AuditLoginFailed {
			t.Errorf("expected login.failed, got %v", action)
		}
	}
	if auditRepo.events[0].ActorID != 0 {
		t.Error("unknown username must record actor id 0")
	}
	if auditRepo.events[1].ActorID == 0 {
		t.Error("wrong password for a known user must record the actor id")
	}
}

func TestTokenService_Login_RateLimited(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(2, time.Minute)
	svc, userRepo, _, hasher := tokenServiceFixture(limiter)
	seedAccount(t, userRepo, hasher, "alice", "a long password", true)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "wrong"}); !errors.Is(err, domain.ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	}

	// Third attempt in the window, even with the right password.
	if _, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "a long password"}); !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestTokenService_Login_SuccessResetsLimiter(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(3, time.Minute)
	svc, userRepo, _, hasher := tokenServiceFixture(limiter)
	seedAccount(t, userRepo, hasher, "alice", "a long password", true)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if _, err := svc.Login(ctx, LoginInput{Username: "alice", Password: "a long password"}); err != nil {
			t.Fatalf("login %d should pass after the previous success reset the counter: %v", i+1, err)
		}
	}
}

func TestTokenService_Refresh(t *testing.T) {
	svc, userRepo, auditRepo, hasher := tokenServiceFixture(nil)
	user := seedAccount(t, userRepo, hasher, "alice", "a long password", true)
	ctx := context.Background()

	token, err := svc.Refresh(ctx, user.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.Token == "" {
		t.Fatal("expected an issued token")
	}

	actions := auditRepo.actions()
	if len(actions) != 1 || actions[0] != domain.AuditTokenRefreshed {
		t.Errorf("expected a token.refreshed audit event, got %v", actions)
	}
}

func TestTokenService_Refresh_DeactivatedUser(t *testing.T) {
	svc, userRepo, _, hasher := tokenServiceFixture(nil)
	user := seedAccount(t, userRepo, hasher, "alice", "a long password", true)
	ctx := context.Background()

	userRepo.users[user.ID].IsActive = false

	if _, err := svc.Refresh(ctx, user.ID); !errors.Is(err, domain.ErrUserInactive) {
		t.Errorf("expected ErrUserInactive, got %v", err)
	}
	if _, err := svc.Refresh(ctx, 404); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
