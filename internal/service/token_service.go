package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/custos-id/custos/internal/auth"
	"github.com/custos-id/custos/internal/domain"
	"github.com/custos-id/custos/internal/metrics"
	"github.com/custos-id/custos/internal/ratelimit"
	"github.com/custos-id/custos/internal/repository"
)

// TokenService handles credential verification and token issuance.
type TokenService struct {
	userRepo  repository.UserRepository
	auditRepo repository.AuditRepository
	hasher    *auth.Hasher
	codec     *auth.Codec
	limiter   ratelimit.Limiter
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewTokenService creates a new TokenService.
func NewTokenService(
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	hasher *auth.Hasher,
	codec *auth.Codec,
	limiter ratelimit.Limiter,
	logger zerolog.Logger,
) *TokenService {
	if limiter == nil {
		limiter = ratelimit.NewNoopLimiter()
	}
	return &TokenService{
		userRepo:  userRepo,
		auditRepo: auditRepo,
		hasher:    hasher,
		codec:     codec,
		limiter:   limiter,
		logger:    logger.With().Str("service", "token").Logger(),
	}
}

// Observe registers the metrics sink for login and issuance counters.
func (s *TokenService) Observe(m *metrics.Metrics) {
	s.metrics = m
}

// countLogin records a login attempt outcome.
func (s *TokenService) countLogin(result string) {
	if s.metrics != nil {
		s.metrics.LoginAttempts.WithLabelValues(result).Inc()
	}
}

// countIssued records an issued token by grant kind.
func (s *TokenService) countIssued(grant string) {
	if s.metrics != nil {
		s.metrics.TokensIssued.WithLabelValues(grant).Inc()
	}
}

// LoginInput contains the credentials presented at login.
type LoginInput struct {
	Username   string
	Password   string
	RemoteAddr string
}

// LoginOutput contains the issued token and the authenticated user.
type LoginOutput struct {
	Token *auth.IssuedToken
	User  *domain.User
}

// Login verifies a username/password pair and issues a bearer token.
// Failures never reveal whether the username exists: a missing user and a
// wrong password both come back as domain.ErrInvalidCredentials.
func (s *TokenService) Login(ctx context.Context, input LoginInput) (*LoginOutput, error) {
	allowed, err := s.limiter.Allow(ctx, ratelimit.Keys.Login(input.Username))
	if err != nil {
		s.countLogin("error")
		s.logger.Error().Err(err).Msg("rate limiter failure")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if !allowed {
		s.countLogin("rate_limited")
		s.logger.Warn().Str("username", input.Username).Msg("login rate limited")
		return nil, ErrRateLimited
	}

	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.countLogin("invalid_credentials")
			s.auditFailure(ctx, 0, input)
			s.logger.Debug().Str("username", input.Username).Msg("user not found during login")
			return nil, domain.ErrInvalidCredentials
		}
		s.countLogin("error")
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to look up user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if !s.hasher.Verify(user.PasswordHash, input.Password) {
		s.countLogin("invalid_credentials")
		s.auditFailure(ctx, user.ID, input)
		s.logger.Debug().Str("username", input.Username).Msg("invalid password during login")
		return nil, domain.ErrInvalidCredentials
	}

	if !user.CanAuthenticate() {
		s.countLogin("inactive")
		s.auditFailure(ctx, user.ID, input)
		s.logger.Debug().Str("username", input.Username).Msg("inactive user attempted login")
		return nil, domain.ErrUserInactive
	}

	token, err := s.codec.Issue(user.ID, 0, nil)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to issue token")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := s.limiter.Reset(ctx, ratelimit.Keys.Login(input.Username)); err != nil {
		s.logger.Warn().Err(err).Msg("failed to reset rate limit counter")
	}

	now := time.Now().UTC()
	user.LastLoginAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		// The token is already issued; losing the timestamp is tolerable.
		s.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to record last login")
	}

	event := domain.NewAuditEvent(domain.AuditLoginSucceeded, user.ID, user.ID, user.Username)
	event.RemoteAddr = input.RemoteAddr
	s.audit(ctx, event)

	s.countLogin("success")
	s.countIssued("password")

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("user logged in")

	return &LoginOutput{Token: token, User: user}, nil
}

// Refresh issues a fresh token for an already-authenticated principal.
// The account state is re-checked: a deactivated user cannot extend an old
// session.
func (s *TokenService) Refresh(ctx context.Context, userID int64) (*auth.IssuedToken, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if !user.CanAuthenticate() {
		return nil, domain.ErrUserInactive
	}

	token, err := s.codec.Issue(user.ID, 0, nil)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to issue token")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.audit(ctx, domain.NewAuditEvent(domain.AuditTokenRefreshed, user.ID, user.ID, ""))
	s.countIssued("refresh")

	s.logger.Info().Int64("user_id", user.ID).Msg("token refreshed")
	return token, nil
}

func (s *TokenService) auditFailure(ctx context.Context, actorID int64, input LoginInput) {
	event := domain.NewAuditEvent(domain.AuditLoginFailed, actorID, 0, input.Username)
	event.RemoteAddr = input.RemoteAddr
	s.audit(ctx, event)
}

// audit records an event on a best-effort basis.
func (s *TokenService) audit(ctx context.Context, event *domain.AuditEvent) {
	if s.auditRepo == nil {
		return
	}
	if err := s.auditRepo.Record(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("action", string(event.Action)).Msg("failed to record audit event")
	}
}
