// Package storetest holds behaviour checks shared by every store driver.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/store"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, migrated store.
type Factory func(t *testing.T) store.Store

func ptr[T any](v T) *T { return &v }

// Run exercises the full store.Store contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("habits", func(t *testing.T) { testHabits(t, newStore(t)) })
	t.Run("entries", func(t *testing.T) { testEntries(t, newStore(t)) })
	t.Run("notifications", func(t *testing.T) { testNotifications(t, newStore(t)) })
	t.Run("settings", func(t *testing.T) { testSettings(t, newStore(t)) })
	t.Run("stats", func(t *testing.T) { testStats(t, newStore(t)) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
}

func mustUser(t *testing.T, s store.Store, username string) domain.User {
	t.Helper()
	u, err := s.Users().CreateUser(context.Background(), domain.User{
		Username:     username,
		PasswordHash: "argon2:dummy",
	})
	require.NoError(t, err)
	return u
}

func mustHabit(t *testing.T, s store.Store, userID int64, name string) domain.Habit {
	t.Helper()
	h, err := s.Habits().CreateHabit(context.Background(), domain.Habit{
		UserID:      userID,
		Name:        name,
		Frequency:   domain.FrequencyDaily,
		TargetCount: 1,
	})
	require.NoError(t, err)
	return h
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()

	alice := mustUser(t, s, "alice")
	require.NotZero(t, alice.ID)
	require.False(t, alice.CreatedAt.IsZero())
	require.Nil(t, alice.ExternalHandle)

	_, err := s.Users().CreateUser(ctx, domain.User{Username: "alice", PasswordHash: "x"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	got, err := s.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)

	_, err = s.Users().GetUserByID(ctx, 9999)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Users().GetUserByUsername(ctx, "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)

	updated, err := s.Users().UpdateUser(ctx, alice.ID, domain.UserPatch{
		IsAdmin:        ptr(true),
		ExternalHandle: ptr("12345"),
	})
	require.NoError(t, err)
	require.True(t, updated.IsAdmin)
	require.True(t, updated.Linked())
	require.Equal(t, "12345", *updated.ExternalHandle)

	// An empty patch leaves the user untouched.
	same, err := s.Users().UpdateUser(ctx, alice.ID, domain.UserPatch{})
	require.NoError(t, err)
	require.True(t, same.IsAdmin)
	require.Equal(t, "12345", *same.ExternalHandle)

	_, err = s.Users().UpdateUser(ctx, 9999, domain.UserPatch{IsAdmin: ptr(true)})
	require.ErrorIs(t, err, store.ErrNotFound)

	bob := mustUser(t, s, "bob")
	users, err := s.Users().ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, alice.ID, users[0].ID)
	require.Equal(t, bob.ID, users[1].ID)
}

func testHabits(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")

	h, err := s.Habits().CreateHabit(ctx, domain.Habit{
		UserID:       alice.ID,
		Name:         "Read",
		Description:  ptr("20 pages"),
		Frequency:    domain.FrequencyWeekly,
		TargetCount:  3,
		Reminder:     true,
		ReminderTime: ptr("08:30"),
	})
	require.NoError(t, err)
	require.NotZero(t, h.ID)

	got, err := s.Habits().GetHabit(ctx, h.ID)
	require.NoError(t, err)
	require.Equal(t, "Read", got.Name)
	require.Equal(t, "20 pages", *got.Description)
	require.Equal(t, domain.FrequencyWeekly, got.Frequency)
	require.Equal(t, 3, got.TargetCount)
	require.Equal(t, "08:30", *got.ReminderTime)

	mustHabit(t, s, bob.ID, "Run")
	mustHabit(t, s, alice.ID, "Stretch")

	mine, err := s.Habits().ListUserHabits(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	reminders, err := s.Habits().ListReminderHabits(ctx)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	require.Equal(t, h.ID, reminders[0].ID)

	updated, err := s.Habits().UpdateHabit(ctx, h.ID, domain.HabitPatch{
		Name:     ptr("Read more"),
		Reminder: ptr(false),
	})
	require.NoError(t, err)
	require.Equal(t, "Read more", updated.Name)
	require.False(t, updated.Reminder)
	require.Equal(t, 3, updated.TargetCount)

	reminders, err = s.Habits().ListReminderHabits(ctx)
	require.NoError(t, err)
	require.Empty(t, reminders)

	_, err = s.Habits().UpdateHabit(ctx, 9999, domain.HabitPatch{Name: ptr("x")})
	require.ErrorIs(t, err, store.ErrNotFound)

	entry, err := s.Entries().CreateEntry(ctx, domain.Entry{HabitID: h.ID, UserID: alice.ID, Completed: true})
	require.NoError(t, err)

	require.NoError(t, s.Habits().DeleteHabit(ctx, h.ID))
	_, err = s.Habits().GetHabit(ctx, h.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.Habits().DeleteHabit(ctx, h.ID), store.ErrNotFound)

	// Entries outlive their habit.
	_, err = s.Entries().GetEntry(ctx, entry.ID)
	require.NoError(t, err)
}

func testEntries(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "alice")
	h := mustHabit(t, s, alice.ID, "Read")

	earlier := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	later := earlier.Add(24 * time.Hour)

	second, err := s.Entries().CreateEntry(ctx, domain.Entry{
		HabitID: h.ID, UserID: alice.ID, Completed: true, CompletedAt: later, Note: ptr("good"),
	})
	require.NoError(t, err)
	first, err := s.Entries().CreateEntry(ctx, domain.Entry{
		HabitID: h.ID, UserID: alice.ID, Completed: true, CompletedAt: earlier,
	})
	require.NoError(t, err)

	stamped, err := s.Entries().CreateEntry(ctx, domain.Entry{HabitID: h.ID, UserID: alice.ID, Completed: true})
	require.NoError(t, err)
	require.WithinDuration(t, time.Now(), stamped.CompletedAt, time.Minute)

	got, err := s.Entries().GetEntry(ctx, second.ID)
	require.NoError(t, err)
	require.Equal(t, "good", *got.Note)
	require.WithinDuration(t, later, got.CompletedAt, time.Second)

	list, err := s.Entries().ListHabitEntries(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, first.ID, list[0].ID)
	require.Equal(t, second.ID, list[1].ID)

	byUser, err := s.Entries().ListUserEntries(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, byUser, 3)

	require.NoError(t, s.Entries().DeleteEntry(ctx, first.ID))
	require.ErrorIs(t, s.Entries().DeleteEntry(ctx, first.ID), store.ErrNotFound)
	_, err = s.Entries().GetEntry(ctx, first.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testNotifications(t *testing.T, s store.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "alice")

	a, err := s.Notifications().CreateNotification(ctx, domain.NewNotification{
		UserID: alice.ID, HabitID: 7, Type: domain.NotificationReminder, Message: "Time to read",
	})
	require.NoError(t, err)
	require.False(t, a.Sent)
	require.NotZero(t, a.ID)

	b, err := s.Notifications().CreateNotification(ctx, domain.NewNotification{
		UserID: alice.ID, HabitID: domain.SystemHabitID, Type: domain.NotificationRoleChange, Message: "Your role has been upgraded to admin",
	})
	require.NoError(t, err)

	pending, err := s.Notifications().ListPendingNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.NoError(t, s.Notifications().MarkNotificationSent(ctx, a.ID))
	// Second mark and unknown ids are no-ops.
	require.NoError(t, s.Notifications().MarkNotificationSent(ctx, a.ID))
	require.NoError(t, s.Notifications().MarkNotificationSent(ctx, 9999))

	pending, err = s.Notifications().ListPendingNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, b.ID, pending[0].ID)
	require.Equal(t, domain.NotificationRoleChange, pending[0].Type)
	require.Equal(t, domain.SystemHabitID, pending[0].HabitID)

	all, err := s.Notifications().ListNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, n := range all {
		if n.ID == a.ID {
			require.True(t, n.Sent)
		}
	}
}

func testSettings(t *testing.T, s store.Store) {
	ctx := context.Background()

	defaults, err := s.Settings().GetSystemSettings(ctx)
	require.NoError(t, err)
	require.True(t, defaults.EnableNotifications)
	require.Equal(t, domain.DefaultNotificationInterval, defaults.NotificationInterval)
	require.Empty(t, defaults.Token())

	updated, err := s.Settings().UpdateSystemSettings(ctx, domain.SettingsPatch{
		NotificationInterval: ptr(120),
		TelegramBotToken:     ptr("123:abc"),
	})
	require.NoError(t, err)
	require.Equal(t, 120, updated.NotificationInterval)
	require.True(t, updated.EnableNotifications)
	require.Equal(t, "123:abc", updated.Token())

	updated, err = s.Settings().UpdateSystemSettings(ctx, domain.SettingsPatch{EnableNotifications: ptr(false)})
	require.NoError(t, err)
	require.False(t, updated.EnableNotifications)
	require.Equal(t, 120, updated.NotificationInterval)

	got, err := s.Settings().GetSystemSettings(ctx)
	require.NoError(t, err)
	require.False(t, got.EnableNotifications)
	require.Equal(t, 120, got.NotificationInterval)
	require.Equal(t, "123:abc", got.Token())
	require.Equal(t, 2*time.Minute, got.Interval())
}

func testStats(t *testing.T, s store.Store) {
	ctx := context.Background()

	stats, err := s.Stats().GetSystemStats(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.SystemStats{}, stats)

	alice := mustUser(t, s, "alice")
	mustUser(t, s, "bob")
	h := mustHabit(t, s, alice.ID, "Read")
	_, err = s.Entries().CreateEntry(ctx, domain.Entry{HabitID: h.ID, UserID: alice.ID, Completed: true})
	require.NoError(t, err)

	stats, err = s.Stats().GetSystemStats(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.SystemStats{TotalUsers: 2, TotalHabits: 1, TotalEntries: 1}, stats)
}

func testTransactions(t *testing.T, s store.Store) {
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Users().CreateUser(ctx, domain.User{Username: "committed", PasswordHash: "x"})
		return err
	})
	require.NoError(t, err)

	_, err = s.Users().GetUserByUsername(ctx, "committed")
	require.NoError(t, err)

	boom := context.Canceled
	err = s.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Users().CreateUser(ctx, domain.User{Username: "rolled-back", PasswordHash: "x"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users().GetUserByUsername(ctx, "rolled-back")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Ping(ctx))
}
