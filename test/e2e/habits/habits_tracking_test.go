package habits_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/aussiebroadwan/habits/pkg/habitsdk"
	"github.com/stretchr/testify/require"
)

// TestHabitLifecycle walks a user through creating a habit, toggling days
// and reading stats.
func TestHabitLifecycle(t *testing.T) {
	_, baseURL := setupHabitsContainer(t, testEnv())
	client := habitsdk.NewClient(baseURL)
	ctx := t.Context()

	alice := registerAndLogin(t, client, "alice")

	habit, err := alice.CreateHabit(ctx, habitsdk.HabitRequest{
		Name:         "Meditate",
		Frequency:    "weekly",
		TargetCount:  2,
		Reminder:     true,
		ReminderTime: ptr("07:30"),
	})
	require.NoError(t, err)
	require.Equal(t, "07:30", *habit.ReminderTime)

	monday := "2026-03-09"
	tuesday := "2026-03-10"
	for _, day := range []string{monday, tuesday} {
		res, err := alice.ToggleEntry(ctx, habit.ID, day)
		require.NoError(t, err)
		require.True(t, res.Created)
	}

	tl, err := alice.Timeline(ctx, "2026-03-12")
	require.NoError(t, err)
	require.Equal(t, monday, tl.WeekStart)
	require.Len(t, tl.Habits, 1)
	require.Equal(t, []bool{true, true, false, false, false, false, false}, tl.Habits[0].Done)

	res, err := alice.ToggleEntry(ctx, habit.ID, tuesday)
	require.NoError(t, err)
	require.False(t, res.Created)

	stats, err := alice.HabitStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	require.Equal(t, 1, stats[0].TotalEntries)

	_, err = alice.CreateEntry(ctx, habitsdk.EntryRequest{HabitID: habit.ID, CompletedAt: ptr(time.Now().UTC())})
	require.NoError(t, err)
	entries, err := alice.ListEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}

// TestHabitsAreIsolated verifies another user's habit looks missing.
func TestHabitsAreIsolated(t *testing.T) {
	_, baseURL := setupHabitsContainer(t, testEnv())
	client := habitsdk.NewClient(baseURL)
	ctx := t.Context()

	alice := registerAndLogin(t, client, "alice")
	bob := registerAndLogin(t, client, "bob")

	habit, err := alice.CreateHabit(ctx, habitsdk.HabitRequest{Name: "Journal", Frequency: "daily"})
	require.NoError(t, err)

	_, err = bob.ToggleEntry(ctx, habit.ID, "2026-03-09")
	requireAPIError(t, err, http.StatusNotFound, habitsdk.ErrorCodeNotFound)

	err = bob.DeleteHabit(ctx, habit.ID)
	requireAPIError(t, err, http.StatusNotFound, habitsdk.ErrorCodeNotFound)

	_, err = bob.ListUsers(ctx)
	requireAPIError(t, err, http.StatusForbidden, habitsdk.ErrorCodeForbidden)
}
