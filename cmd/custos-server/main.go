// Package main is the entry point for the Custos identity server.
// Custos is a multi-tenant identity and authorization backend issuing
// bearer tokens and enforcing right-based access over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/custos-id/custos/internal/auth"
	"github.com/custos-id/custos/internal/bootstrap"
	"github.com/custos-id/custos/internal/config"
	"github.com/custos-id/custos/internal/handler"
	"github.com/custos-id/custos/internal/metrics"
	"github.com/custos-id/custos/internal/ratelimit"
	"github.com/custos-id/custos/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)
	logger := bootstrap.SetupLogger(cfg.Logging)

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting Custos server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	if cfg.Auth.SigningSecret == "" {
		return errors.New("auth.signing_secret is required")
	}

	repos, dbHealth, err := bootstrap.OpenRepositories(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer dbHealth.Close()

	m := metrics.New()

	limiter, redisClient, err := buildLimiter(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	hasher := auth.NewHasher(cfg.Auth.HashIterations)
	codec := auth.NewCodec(cfg.Auth.SigningSecret, cfg.Auth.TokenLifetime)
	directory := service.NewDirectoryAdapter(repos.User, repos.Role)
	resolver := auth.NewResolver(directory)

	guard := auth.NewGuard(codec, directory, logger)
	guard.Observe(func(code auth.ErrorCode) {
		if code == "" {
			m.GuardDecisions.WithLabelValues("ok").Inc()
			return
		}
		m.GuardDecisions.WithLabelValues(string(code)).Inc()
	})

	userService := service.NewUserService(repos.User, repos.Role, repos.Audit, hasher, logger)
	rbacService := service.NewRBACService(repos.Role, repos.Right, repos.Audit, logger)
	tokenService := service.NewTokenService(repos.User, repos.Audit, hasher, codec, limiter, logger)
	tokenService.Observe(m)

	router := handler.NewRouter(handler.RouterConfig{
		Guard:        guard,
		AuthHandler:  handler.NewAuthHandler(tokenService, userService, resolver, logger),
		UserHandler:  handler.NewUserHandler(userService, logger),
		RoleHandler:  handler.NewRoleHandler(rbacService, logger),
		RightHandler: handler.NewRightHandler(rbacService, logger),
		Database:     dbHealth,
		Metrics:      m,
		Logger:       logger,
	})

	// Audit archiver
	var archiver *service.AuditArchiver
	if cfg.Archive.Enabled {
		client, err := buildS3Client(ctx, cfg.Archive.S3)
		if err != nil {
			return fmt.Errorf("failed to build S3 client: %w", err)
		}
		archiver = service.NewAuditArchiver(repos.Audit, client, m, logger, service.ArchiveConfig{
			Interval:  cfg.Archive.Interval,
			BatchSize: cfg.Archive.BatchSize,
			Bucket:    cfg.Archive.S3.Bucket,
			Prefix:    cfg.Archive.S3.Prefix,
			Retain:    cfg.Archive.Retain,
		})
		archiver.Start()
		defer archiver.Stop()
	}

	// Metrics server
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, m.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: mux,
		}
		go func() {
			logger.Info().Int("port", cfg.Metrics.Port).Str("path", cfg.Metrics.Path).Msg("metrics server listening")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("metrics server failed")
			}
		}()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}

	return nil
}

// buildLimiter picks the login rate limiter implementation from config.
func buildLimiter(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (ratelimit.Limiter, *redis.Client, error) {
	if !cfg.RateLimit.Enabled {
		return ratelimit.NewNoopLimiter(), nil, nil
	}

	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:        cfg.Redis.Addr(),
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    cfg.Redis.PoolSize,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		logger.Info().Str("addr", cfg.Redis.Addr()).Msg("using Redis login rate limiter")
		return ratelimit.NewRedisLimiter(client, cfg.RateLimit.MaxAttempts, cfg.RateLimit.Window), client, nil
	}

	logger.Info().Msg("using in-memory login rate limiter")
	return ratelimit.NewMemoryLimiter(cfg.RateLimit.MaxAttempts, cfg.RateLimit.Window), nil, nil
}

// buildS3Client creates an S3 client for the audit archiver.
func buildS3Client(ctx context.Context, cfg config.S3Config) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	}), nil
}
