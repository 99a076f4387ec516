package memory_test

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/store"
	"github.com/aussiebroadwan/habits/internal/habits/store/drivers/memory"
	"github.com/aussiebroadwan/habits/internal/habits/store/storetest"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return memory.NewStore()
	})
}

func TestIDsShareOneCounter(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	u, err := s.Users().CreateUser(ctx, domain.User{Username: "alice", PasswordHash: "x"})
	require.NoError(t, err)
	h, err := s.Habits().CreateHabit(ctx, domain.Habit{UserID: u.ID, Name: "Read", Frequency: domain.FrequencyDaily, TargetCount: 1})
	require.NoError(t, err)

	require.Equal(t, int64(1), u.ID)
	require.Equal(t, int64(2), h.ID)
}

func TestTxIsolatedUntilCommit(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	tx, err := s.Tx(ctx)
	require.NoError(t, err)

	_, err = tx.Users().CreateUser(ctx, domain.User{Username: "alice", PasswordHash: "x"})
	require.NoError(t, err)

	_, err = s.Users().GetUserByUsername(ctx, "alice")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, tx.Commit())
	require.Error(t, tx.Rollback())

	_, err = s.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
}
