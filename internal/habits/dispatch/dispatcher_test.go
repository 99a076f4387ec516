package dispatch_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/habits/internal/habits/dispatch"
	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/store"
	"github.com/aussiebroadwan/habits/internal/habits/store/drivers/memory"
)

type sent struct {
	handle  string
	message string
}

// fakeSender records sends and fails the first len(errs) calls with errs in
// order.
type fakeSender struct {
	mu    sync.Mutex
	calls []sent
	errs  []error
}

func (f *fakeSender) Send(ctx context.Context, handle, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, sent{handle: handle, message: message})
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return err
	}
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedUser(t *testing.T, s store.Store, username string, handle string) domain.User {
	t.Helper()
	ctx := context.Background()
	u, err := s.Users().CreateUser(ctx, domain.User{Username: username, PasswordHash: "x"})
	require.NoError(t, err)
	if handle != "" {
		u, err = s.Users().UpdateUser(ctx, u.ID, domain.UserPatch{ExternalHandle: &handle})
		require.NoError(t, err)
	}
	return u
}

func seedNotification(t *testing.T, s store.Store, userID int64, msg string) domain.Notification {
	t.Helper()
	n, err := s.Notifications().CreateNotification(context.Background(), domain.NewNotification{
		UserID:  userID,
		HabitID: domain.SystemHabitID,
		Type:    domain.NotificationReminder,
		Message: msg,
	})
	require.NoError(t, err)
	return n
}

func pendingIDs(t *testing.T, s store.Store) []int64 {
	t.Helper()
	pending, err := s.Notifications().ListPendingNotifications(context.Background())
	require.NoError(t, err)
	ids := make([]int64, 0, len(pending))
	for _, n := range pending {
		ids = append(ids, n.ID)
	}
	return ids
}

func TestTickDeliversLinkedNotification(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	sender := &fakeSender{}
	d := dispatch.New(s, sender, quietLogger())

	u := seedUser(t, s, "alice", "1001")
	n := seedNotification(t, s, u.ID, "time to stretch")

	rep := d.Tick(ctx)
	require.False(t, rep.Disabled)
	require.NoError(t, rep.Err)
	require.Equal(t, 1, rep.Delivered)
	require.Equal(t, 1, rep.Attempts)
	require.Equal(t, []dispatch.Result{{
		NotificationID: n.ID,
		UserID:         u.ID,
		Outcome:        dispatch.OutcomeDelivered,
	}}, rep.Results)
	require.Equal(t, []sent{{handle: "1001", message: "time to stretch"}}, sender.calls)
	require.Empty(t, pendingIDs(t, s))

	// Sent notifications are never picked up again.
	rep = d.Tick(ctx)
	require.Empty(t, rep.Results)
	require.Equal(t, 1, sender.count())

	all, err := s.Notifications().ListNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.True(t, all[0].Sent)
}

func TestTickLeavesUnlinkedPending(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	sender := &fakeSender{}
	d := dispatch.New(s, sender, quietLogger())

	u := seedUser(t, s, "bob", "")
	n := seedNotification(t, s, u.ID, "hello")
	ghost := seedNotification(t, s, 999, "nobody home")

	for range 3 {
		rep := d.Tick(ctx)
		require.Equal(t, 2, rep.Skipped)
		require.Zero(t, rep.Attempts)
		for _, res := range rep.Results {
			require.Equal(t, dispatch.OutcomeSkippedNoHandle, res.Outcome)
		}
	}

	require.Zero(t, sender.count())
	require.ElementsMatch(t, []int64{n.ID, ghost.ID}, pendingIDs(t, s))
}

func TestTickDisabledDoesNothing(t *testing.T) {
	s := memory.NewStore()
	sender := &fakeSender{}
	d := dispatch.New(s, sender, quietLogger())

	u := seedUser(t, s, "carol", "42")
	seedNotification(t, s, u.ID, "hi")

	d.Reconfigure(dispatch.Config{Enabled: false, Interval: time.Minute})
	rep := d.Tick(context.Background())

	require.True(t, rep.Disabled)
	require.Empty(t, rep.Results)
	require.Zero(t, sender.count())
	require.Len(t, pendingIDs(t, s), 1)
}

func TestTickRetriesFailedDelivery(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	sender := &fakeSender{errs: []error{errors.New("telegram: 502")}}
	d := dispatch.New(s, sender, quietLogger())

	u := seedUser(t, s, "dave", "7")
	n := seedNotification(t, s, u.ID, "drink water")

	rep := d.Tick(ctx)
	require.Equal(t, 1, rep.Failed)
	require.Equal(t, 1, rep.Attempts)
	require.Equal(t, dispatch.OutcomeFailed, rep.Results[0].Outcome)
	require.ErrorContains(t, rep.Results[0].Err, "telegram: 502")
	require.Equal(t, []int64{n.ID}, pendingIDs(t, s))

	rep = d.Tick(ctx)
	require.Equal(t, 1, rep.Delivered)
	require.Empty(t, pendingIDs(t, s))
	require.Equal(t, 2, sender.count())
}

func TestTickWithoutTransport(t *testing.T) {
	ctx := context.Background()

	t.Run("nil sender", func(t *testing.T) {
		s := memory.NewStore()
		d := dispatch.New(s, nil, quietLogger())
		u := seedUser(t, s, "erin", "5")
		seedNotification(t, s, u.ID, "x")

		rep := d.Tick(ctx)
		require.Equal(t, dispatch.OutcomeSkippedNoTransport, rep.Results[0].Outcome)
		require.Zero(t, rep.Attempts)
		require.Len(t, pendingIDs(t, s), 1)
	})

	t.Run("sender without bot", func(t *testing.T) {
		s := memory.NewStore()
		sender := &fakeSender{errs: []error{dispatch.ErrNoTransport}}
		d := dispatch.New(s, sender, quietLogger())
		u := seedUser(t, s, "frank", "6")
		seedNotification(t, s, u.ID, "x")

		rep := d.Tick(ctx)
		require.Equal(t, dispatch.OutcomeSkippedNoTransport, rep.Results[0].Outcome)
		require.Equal(t, 1, rep.Skipped)
		require.Zero(t, rep.Failed)
		require.Len(t, pendingIDs(t, s), 1)
	})
}

func TestTickExpiry(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	sender := &fakeSender{}

	later := time.Now().Add(48 * time.Hour)
	d := dispatch.New(s, sender, quietLogger(),
		dispatch.WithClock(func() time.Time { return later }),
		dispatch.WithExpiry(func(n domain.Notification, now time.Time) bool {
			return now.Sub(n.CreatedAt) > 24*time.Hour
		}),
	)

	u := seedUser(t, s, "gina", "")
	n := seedNotification(t, s, u.ID, "old news")

	rep := d.Tick(ctx)
	require.Equal(t, 1, rep.Expired)
	require.Equal(t, dispatch.OutcomeExpired, rep.Results[0].Outcome)
	require.Zero(t, sender.count())

	// Expired notifications are reported, not deleted.
	require.Equal(t, []int64{n.ID}, pendingIDs(t, s))
}

type brokenNotifications struct {
	store.Notifications
}

func (brokenNotifications) ListPendingNotifications(context.Context) ([]domain.Notification, error) {
	return nil, errors.New("disk on fire")
}

type brokenStore struct {
	store.Store
}

func (b brokenStore) Notifications() store.Notifications {
	return brokenNotifications{b.Store.Notifications()}
}

func TestTickStorageErrorIsReported(t *testing.T) {
	d := dispatch.New(brokenStore{memory.NewStore()}, &fakeSender{}, quietLogger())

	rep := d.Tick(context.Background())
	require.ErrorContains(t, rep.Err, "disk on fire")
	require.Empty(t, rep.Results)

	st := d.Status()
	require.NotNil(t, st.LastReport)
	require.Equal(t, rep.TickID, st.LastReport.TickID)
}

func TestReconfigureRearms(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	d := dispatch.New(s, &fakeSender{}, quietLogger())
	require.Equal(t, dispatch.StateStopped, d.State())

	require.NoError(t, d.Start(ctx))
	t.Cleanup(d.Stop)

	require.Equal(t, dispatch.StateArmed, d.State())
	require.Equal(t, 60*time.Second, d.Config().Interval)
	next, ok := d.NextRun()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(60*time.Second), next, 2*time.Second)

	before := time.Now()
	d.Reconfigure(dispatch.Config{Enabled: true, Interval: 30 * time.Second})
	require.Equal(t, dispatch.StateArmed, d.State())
	next, ok = d.NextRun()
	require.True(t, ok)
	require.False(t, next.After(before.Add(31*time.Second)), "next run %s too late", next)

	d.Reconfigure(dispatch.Config{Enabled: false, Interval: 30 * time.Second})
	require.Equal(t, dispatch.StateStopped, d.State())
	_, ok = d.NextRun()
	require.False(t, ok)

	d.Reconfigure(dispatch.Config{Enabled: true, Interval: 45 * time.Second})
	require.Equal(t, dispatch.StateArmed, d.State())
}

func TestStartRespectsStoredSettings(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	off := false
	interval := 90
	_, err := s.Settings().UpdateSystemSettings(ctx, domain.SettingsPatch{
		EnableNotifications:  &off,
		NotificationInterval: &interval,
	})
	require.NoError(t, err)

	d := dispatch.New(s, &fakeSender{}, quietLogger())
	require.NoError(t, d.Start(ctx))
	t.Cleanup(d.Stop)

	require.Equal(t, dispatch.StateStopped, d.State())
	require.Equal(t, dispatch.Config{Enabled: false, Interval: 90 * time.Second}, d.Config())
}

func TestScheduledTickDelivers(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	sender := &fakeSender{}
	d := dispatch.New(s, sender, quietLogger())

	u := seedUser(t, s, "hana", "77")
	seedNotification(t, s, u.ID, "scheduled")

	require.NoError(t, d.Start(ctx))
	t.Cleanup(d.Stop)
	d.Reconfigure(dispatch.Config{Enabled: true, Interval: time.Second})

	require.Eventually(t, func() bool { return sender.count() == 1 }, 5*time.Second, 50*time.Millisecond)
	require.Eventually(t, func() bool {
		pending, err := s.Notifications().ListPendingNotifications(ctx)
		return err == nil && len(pending) == 0
	}, 5*time.Second, 50*time.Millisecond)
}

func TestStopWithoutStart(t *testing.T) {
	d := dispatch.New(memory.NewStore(), nil, quietLogger())
	d.Stop()
	require.Equal(t, dispatch.StateStopped, d.State())
}
