package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/habits/internal/habits/store"
	"github.com/aussiebroadwan/habits/internal/habits/store/drivers/memory"
	"github.com/aussiebroadwan/habits/internal/habits/store/drivers/postgres"
	"github.com/aussiebroadwan/habits/internal/habits/store/drivers/sqlite"
)

// OpenStore opens the configured driver and applies migrations.
func OpenStore(ctx context.Context, cfg Config, logger *slog.Logger) (store.Store, error) {
	var (
		db  store.Store
		err error
	)

	switch cfg.DatabaseDriver {
	case DriverMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore(), nil
	case DriverPostgres:
		db, err = postgres.NewStore(ctx, cfg.DatabaseURL, postgres.Config{
			MaxOpenConns:    cfg.DatabaseMaxOpen,
			MaxIdleConns:    cfg.DatabaseMaxOpen / 2,
			ConnMaxLifetime: cfg.DatabaseMaxLife,
		})
	case DriverSQLite:
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", cfg.DatabaseFile)
		db, err = sqlite.NewStore(dsn)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s database: %w", cfg.DatabaseDriver, err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}

	logger.Info("database migrations applied successfully", "driver", cfg.DatabaseDriver)
	return db, nil
}
