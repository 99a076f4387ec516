package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
)

func TestWithForeignKeys(t *testing.T) {
	require.Equal(t, ":memory:?_pragma=foreign_keys(1)", withForeignKeys(":memory:"))
	require.Equal(t,
		"file:h.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
		withForeignKeys("file:h.db?_pragma=busy_timeout(5000)"))
	require.Equal(t, "file:h.db?_pragma=foreign_keys(1)", withForeignKeys("file:h.db?_pragma=foreign_keys(1)"))
}

func TestForeignKeysSurviveConnectionRecycling(t *testing.T) {
	ctx := context.Background()
	s, err := NewStore("file:" + filepath.Join(t.TempDir(), "habits.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())

	// Close every connection as soon as it is released.
	s.db.SetMaxIdleConns(0)

	for range 3 {
		var on int
		require.NoError(t, s.db.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&on))
		require.Equal(t, 1, on)
	}

	_, err = s.Habits().CreateHabit(ctx, domain.Habit{
		UserID:      999,
		Name:        "Orphan",
		Frequency:   domain.FrequencyDaily,
		TargetCount: 1,
	})
	require.Error(t, err)
}
