package postgres_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aussiebroadwan/habits/internal/habits/store"
	"github.com/aussiebroadwan/habits/internal/habits/store/drivers/postgres"
	"github.com/aussiebroadwan/habits/internal/habits/store/storetest"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startPostgres runs a throwaway PostgreSQL container and returns its DSN.
// Skipped unless HABITS_E2E=1 since it needs a Docker daemon.
func startPostgres(t *testing.T) string {
	t.Helper()
	if os.Getenv("HABITS_E2E") != "1" {
		t.Skip("set HABITS_E2E=1 to run PostgreSQL integration tests")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "habits",
			"POSTGRES_PASSWORD": "habits",
			"POSTGRES_DB":       "habits",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://habits:habits@%s:%s/habits?sslmode=disable", host, port.Port())
}

func TestStore(t *testing.T) {
	dsn := startPostgres(t)

	storetest.Run(t, func(t *testing.T) store.Store {
		ctx := context.Background()
		s, err := postgres.NewStore(ctx, dsn, postgres.Config{MaxOpenConns: 4})
		require.NoError(t, err)
		require.NoError(t, s.ApplyMigrations())

		// Every subtest starts from empty tables.
		_, err = s.DB().ExecContext(ctx,
			`TRUNCATE users, habits, entries, notifications RESTART IDENTITY CASCADE;
			 UPDATE system_settings SET telegram_bot_token = NULL, enable_notifications = TRUE, notification_interval = 60`)
		require.NoError(t, err)

		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}
