package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/service"
)

func TestReminderRunAt(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := mustUser(t, s, "alice")

	due := mustHabit(t, s, domain.Habit{UserID: u.ID, Name: "Read", Reminder: true, ReminderTime: ptr("07:30")})
	mustHabit(t, s, domain.Habit{UserID: u.ID, Name: "Run", Reminder: true, ReminderTime: ptr("08:00")})
	mustHabit(t, s, domain.Habit{UserID: u.ID, Name: "Nap", Reminder: false, ReminderTime: ptr("07:30")})

	aest := time.FixedZone("AEST", 10*3600)
	svc := service.NewReminderService(s, quietLogger(), aest)

	// 21:30 UTC is 07:30 the next morning in AEST.
	n, err := svc.RunAt(ctx, time.Date(2026, 3, 10, 21, 30, 15, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	all := notifications(t, s)
	require.Len(t, all, 1)
	require.Equal(t, domain.NotificationReminder, all[0].Type)
	require.Equal(t, due.ID, all[0].HabitID)
	require.Equal(t, "Reminder: time for Read", all[0].Message)

	n, err = svc.RunAt(ctx, time.Date(2026, 3, 10, 21, 31, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestReminderStartStop(t *testing.T) {
	svc := service.NewReminderService(newStore(t), quietLogger(), nil)
	require.NoError(t, svc.Start(context.Background()))
	svc.Stop()
}
