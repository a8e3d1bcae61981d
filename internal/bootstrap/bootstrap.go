// Package bootstrap wires shared process-level infrastructure for the
// Custos binaries: logger setup and database/repository construction.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/custos-id/custos/internal/config"
	"github.com/custos-id/custos/internal/repository"
	"github.com/custos-id/custos/internal/repository/postgres"
	"github.com/custos-id/custos/internal/repository/sqlite"
)

// SetupLogger configures the process logger.
func SetupLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = cfg.TimeFormat

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}

	return logger.Level(level).With().Timestamp().Logger()
}

// OpenRepositories opens the configured database backend and runs pending
// migrations. The caller owns the returned handle and must Close it.
func OpenRepositories(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*repository.Repositories, repository.DatabaseHealth, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := sqlite.NewDB(ctx, sqlite.Config{
			Path:            cfg.Path,
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: time.Hour,
			JournalMode:     cfg.JournalMode,
			BusyTimeout:     cfg.BusyTimeout,
			SynchronousMode: cfg.SynchronousMode,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return &repository.Repositories{
			User:  sqlite.NewUserRepository(db),
			Role:  sqlite.NewRoleRepository(db),
			Right: sqlite.NewRightRepository(db),
			Audit: sqlite.NewAuditRepository(db),
		}, db, nil

	case "postgres":
		db, err := postgres.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return &repository.Repositories{
			User:  postgres.NewUserRepository(db),
			Role:  postgres.NewRoleRepository(db),
			Right: postgres.NewRightRepository(db),
			Audit: postgres.NewAuditRepository(db),
		}, db, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
