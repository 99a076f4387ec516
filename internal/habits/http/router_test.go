package http_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/habits/internal/habits/dispatch"
	"github.com/aussiebroadwan/habits/internal/habits/domain"
	habitshttp "github.com/aussiebroadwan/habits/internal/habits/http"
	"github.com/aussiebroadwan/habits/internal/habits/service"
	"github.com/aussiebroadwan/habits/internal/habits/store"
	"github.com/aussiebroadwan/habits/internal/habits/store/drivers/memory"
	"github.com/aussiebroadwan/habits/pkg/cryptox"
	"github.com/aussiebroadwan/habits/pkg/habitsdk"
	"github.com/aussiebroadwan/habits/pkg/httpx"
	"github.com/aussiebroadwan/habits/pkg/jwtx"
)

const testIssuer = "habits-test"

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "habits-http-test")
	if err != nil {
		panic(err)
	}
	cryptox.SetPepperPath(filepath.Join(dir, "pepper"))
	httpx.StrictLimit = httpx.LenientLimit

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

type recordingSender struct {
	mu   sync.Mutex
	sent map[string][]string
}

func (s *recordingSender) Send(ctx context.Context, handle, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sent == nil {
		s.sent = map[string][]string{}
	}
	s.sent[handle] = append(s.sent[handle], message)
	return nil
}

func (s *recordingSender) Active() bool { return true }

func (s *recordingSender) messages(handle string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent[handle]...)
}

type harness struct {
	store      store.Store
	users      *service.UserService
	dispatcher *dispatch.Dispatcher
	sender     *recordingSender
	client     *habitsdk.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := memory.NewStore()

	signer, err := jwtx.NewHS256([]byte(strings.Repeat("s", jwtx.MinSecretLength)), testIssuer)
	require.NoError(t, err)

	sender := &recordingSender{}
	d := dispatch.New(st, sender, logger)
	require.NoError(t, d.Start(ctx))
	t.Cleanup(d.Stop)

	users := &service.UserService{Store: st}
	r := habitshttp.NewRouter(signer, "test", st, logger)
	r.UserService = users
	r.TokenService = &service.TokenService{Signer: signer, Issuer: testIssuer, AccessTTL: time.Hour}
	r.HabitService = &service.HabitService{Store: st}
	r.EntryService = &service.EntryService{Store: st}
	r.StatsService = &service.StatsService{Store: st}
	r.NotificationService = &service.NotificationService{Store: st}
	r.SettingsService = &service.SettingsService{
		Store: st,
		OnUpdate: []service.SettingsHook{
			func(ctx context.Context, s domain.SystemSettings) {
				d.Reconfigure(dispatch.ConfigFromSettings(s))
			},
		},
	}
	r.Dispatcher = d
	r.Transport = sender
	r.ApplyRoutes()

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &harness{
		store:      st,
		users:      users,
		dispatcher: d,
		sender:     sender,
		client:     habitsdk.NewClient(srv.URL),
	}
}

func (h *harness) login(t *testing.T, username string) *habitsdk.Session {
	t.Helper()
	ctx := context.Background()
	_, err := h.client.Register(ctx, username, "hunter22")
	require.NoError(t, err)
	s, err := h.client.Login(ctx, username, "hunter22")
	require.NoError(t, err)
	return s
}

func (h *harness) admin(t *testing.T, username string) *habitsdk.Session {
	t.Helper()
	s := h.login(t, username)
	_, err := h.users.Promote(context.Background(), username)
	require.NoError(t, err)
	return s
}

func requireAPIError(t *testing.T, err error, status int, code string) *habitsdk.APIError {
	t.Helper()
	var apiErr *habitsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode)
	require.Equal(t, code, apiErr.Code)
	return apiErr
}

func ptr[T any](v T) *T { return &v }

func TestAccounts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	s := h.login(t, "alice")
	require.NotEmpty(t, s.Token())
	require.Equal(t, "alice", s.User.Username)
	require.False(t, s.User.IsAdmin)

	me, err := s.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, s.User.ID, me.ID)
	require.Nil(t, me.TelegramID)

	_, err = h.client.Register(ctx, "alice", "other")
	requireAPIError(t, err, http.StatusConflict, habitsdk.ErrorCodeUsernameTaken)

	_, err = h.client.Register(ctx, "  ", "pw")
	apiErr := requireAPIError(t, err, http.StatusBadRequest, habitsdk.ErrorCodeInvalidRequest)
	require.Equal(t, "username is required", apiErr.Description)

	_, err = h.client.Login(ctx, "alice", "wrong")
	requireAPIError(t, err, http.StatusUnauthorized, habitsdk.ErrorCodeInvalidCredentials)

	_, err = h.client.Login(ctx, "nobody", "hunter22")
	requireAPIError(t, err, http.StatusUnauthorized, habitsdk.ErrorCodeInvalidCredentials)

	_, err = h.client.NewSession("garbage").Me(ctx)
	requireAPIError(t, err, http.StatusUnauthorized, habitsdk.ErrorCodeUnauthorized)
}

func TestHabitsAreScopedToOwner(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.login(t, "alice")
	bob := h.login(t, "bob")

	habit, err := alice.CreateHabit(ctx, habitsdk.HabitRequest{Name: "Read", Frequency: "daily"})
	require.NoError(t, err)
	require.Equal(t, 1, habit.TargetCount)
	require.Equal(t, alice.User.ID, habit.UserID)

	_, err = alice.CreateHabit(ctx, habitsdk.HabitRequest{Name: "Swim", Frequency: "yearly"})
	requireAPIError(t, err, http.StatusBadRequest, habitsdk.ErrorCodeInvalidRequest)

	list, err := bob.ListHabits(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	got, err := alice.GetHabit(ctx, habit.ID)
	require.NoError(t, err)
	require.Equal(t, habit, got)
	_, err = bob.GetHabit(ctx, habit.ID)
	requireAPIError(t, err, http.StatusNotFound, habitsdk.ErrorCodeNotFound)

	_, err = bob.UpdateHabit(ctx, habit.ID, habitsdk.HabitPatchRequest{Name: ptr("Mine now")})
	requireAPIError(t, err, http.StatusNotFound, habitsdk.ErrorCodeNotFound)
	requireAPIError(t, bob.DeleteHabit(ctx, habit.ID), http.StatusNotFound, habitsdk.ErrorCodeNotFound)
	_, err = bob.ListHabitEntries(ctx, habit.ID)
	requireAPIError(t, err, http.StatusNotFound, habitsdk.ErrorCodeNotFound)

	updated, err := alice.UpdateHabit(ctx, habit.ID, habitsdk.HabitPatchRequest{
		Frequency:   ptr("weekly"),
		TargetCount: ptr(3),
	})
	require.NoError(t, err)
	require.Equal(t, "Read", updated.Name)
	require.Equal(t, "weekly", updated.Frequency)
	require.Equal(t, 3, updated.TargetCount)

	_, err = alice.UpdateHabit(ctx, habit.ID, habitsdk.HabitPatchRequest{ReminderTime: ptr("25:00")})
	apiErr := requireAPIError(t, err, http.StatusBadRequest, habitsdk.ErrorCodeInvalidRequest)
	require.Equal(t, "reminderTime must be HH:MM", apiErr.Description)

	require.NoError(t, alice.DeleteHabit(ctx, habit.ID))
	_, err = alice.GetHabit(ctx, habit.ID)
	requireAPIError(t, err, http.StatusNotFound, habitsdk.ErrorCodeNotFound)
	list, err = alice.ListHabits(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestEntriesToggleAndAchievement(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.login(t, "alice")

	habit, err := alice.CreateHabit(ctx, habitsdk.HabitRequest{Name: "Stretch", Frequency: "daily"})
	require.NoError(t, err)

	today := time.Now().UTC().Format("2006-01-02")
	res, err := alice.ToggleEntry(ctx, habit.ID, today)
	require.NoError(t, err)
	require.True(t, res.Created)
	require.True(t, res.Entry.Completed)

	entries, err := alice.ListHabitEntries(ctx, habit.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	res, err = alice.ToggleEntry(ctx, habit.ID, today)
	require.NoError(t, err)
	require.False(t, res.Created)

	entries, err = alice.ListEntries(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)

	_, err = alice.ToggleEntry(ctx, habit.ID, "yesterday")
	apiErr := requireAPIError(t, err, http.StatusBadRequest, habitsdk.ErrorCodeInvalidRequest)
	require.Equal(t, "date must be YYYY-MM-DD", apiErr.Description)

	entry, err := alice.CreateEntry(ctx, habitsdk.EntryRequest{HabitID: habit.ID, Note: ptr("felt good")})
	require.NoError(t, err)
	require.True(t, entry.Completed)
	require.Equal(t, "felt good", *entry.Note)

	pending, err := h.store.Notifications().ListPendingNotifications(ctx)
	require.NoError(t, err)
	var achievements int
	for _, n := range pending {
		if n.Type == domain.NotificationAchievement {
			achievements++
			require.Equal(t, service.AchievementMessage(domain.Habit{Name: "Stretch", TargetCount: 1, Frequency: domain.FrequencyDaily}), n.Message)
		}
	}
	require.Equal(t, 2, achievements, "one for the toggle and one for the entry")

	require.NoError(t, alice.DeleteEntry(ctx, entry.ID))
	requireAPIError(t, alice.DeleteEntry(ctx, entry.ID), http.StatusNotFound, habitsdk.ErrorCodeNotFound)
}

func TestStatsAndTimeline(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.login(t, "alice")

	habit, err := alice.CreateHabit(ctx, habitsdk.HabitRequest{Name: "Run", Frequency: "weekly", TargetCount: 2})
	require.NoError(t, err)
	_, err = alice.CreateEntry(ctx, habitsdk.EntryRequest{HabitID: habit.ID})
	require.NoError(t, err)

	stats, err := alice.HabitStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	require.Equal(t, 1, stats[0].PeriodCount)
	require.InDelta(t, 50.0, stats[0].CompletionRate, 0.001)
	require.Equal(t, 1, stats[0].TotalEntries)

	tl, err := alice.Timeline(ctx, "2026-03-11")
	require.NoError(t, err)
	require.Equal(t, "2026-03-09", tl.WeekStart)
	require.Len(t, tl.Days, 7)
	require.Equal(t, "2026-03-15", tl.Days[6])
	require.Len(t, tl.Habits, 1)
	require.Len(t, tl.Habits[0].Done, 7)

	_, err = alice.Timeline(ctx, "03/11/2026")
	requireAPIError(t, err, http.StatusBadRequest, habitsdk.ErrorCodeInvalidRequest)
}

func TestAdminRoutesRequireStoredAdminRole(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	alice := h.login(t, "alice")

	_, err := alice.ListUsers(ctx)
	requireAPIError(t, err, http.StatusForbidden, habitsdk.ErrorCodeForbidden)

	// The token was issued before promotion; the stored role is what counts.
	_, err = h.users.Promote(ctx, "alice")
	require.NoError(t, err)
	users, err := alice.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.True(t, users[0].IsAdmin)
}

func TestAdminRoleChangeQueuesNotification(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	root := h.admin(t, "root")
	bob := h.login(t, "bob")

	_, err := h.client.NewSession(root.Token()).SetAdmin(ctx, 999, true)
	requireAPIError(t, err, http.StatusNotFound, habitsdk.ErrorCodeNotFound)

	updated, err := root.SetAdmin(ctx, bob.User.ID, true)
	require.NoError(t, err)
	require.True(t, updated.IsAdmin)

	notes, err := root.ListNotifications(ctx)
	require.NoError(t, err)
	var found bool
	for _, n := range notes {
		if n.UserID == bob.User.ID {
			found = true
			require.Equal(t, string(domain.NotificationRoleChange), n.Type)
			require.Equal(t, service.RoleChangeMessage(true), n.Message)
			require.Equal(t, domain.SystemHabitID, n.HabitID)
			require.False(t, n.Sent)
		}
	}
	require.True(t, found)

	stats, err := root.SystemStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalUsers)
}

func TestAdminRoleChangeRejectsMissingRole(t *testing.T) {
	h := newHarness(t)
	root := h.admin(t, "root")

	req, err := http.NewRequest(http.MethodPatch, h.client.BaseURL+"/api/admin/users/1", strings.NewReader(`{"isAdmin":null}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+root.Token())
	resp, err := h.client.HTTPClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "Invalid role value")
}

func TestSettingsReconfigureDispatcher(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	root := h.admin(t, "root")

	settings, err := root.GetSettings(ctx)
	require.NoError(t, err)
	require.True(t, settings.EnableNotifications)
	require.Equal(t, domain.DefaultNotificationInterval, settings.NotificationInterval)

	_, err = root.UpdateSettings(ctx, habitsdk.SettingsPatchRequest{NotificationInterval: ptr(10)})
	apiErr := requireAPIError(t, err, http.StatusBadRequest, habitsdk.ErrorCodeInvalidRequest)
	require.Equal(t, "Notification interval must be at least 30 seconds", apiErr.Description)

	_, err = root.UpdateSettings(ctx, habitsdk.SettingsPatchRequest{NotificationInterval: ptr(18446744074)})
	apiErr = requireAPIError(t, err, http.StatusBadRequest, habitsdk.ErrorCodeInvalidRequest)
	require.Equal(t, "Notification interval must be at most 86400 seconds", apiErr.Description)

	status, err := root.DispatcherStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, "armed", status.State)
	require.Equal(t, 60, status.IntervalSeconds)
	require.True(t, status.TransportActive)

	before := time.Now()
	settings, err = root.UpdateSettings(ctx, habitsdk.SettingsPatchRequest{NotificationInterval: ptr(30)})
	require.NoError(t, err)
	require.Equal(t, 30, settings.NotificationInterval)

	status, err = root.DispatcherStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, 30, status.IntervalSeconds)
	require.NotNil(t, status.NextRun)
	require.True(t, status.NextRun.Before(before.Add(31*time.Second)))

	_, err = root.UpdateSettings(ctx, habitsdk.SettingsPatchRequest{EnableNotifications: ptr(false)})
	require.NoError(t, err)
	status, err = root.DispatcherStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, "stopped", status.State)
	require.Nil(t, status.NextRun)
}

func TestDispatcherRunDeliversToLinkedUsers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	root := h.admin(t, "root")
	bob := h.login(t, "bob")
	carol := h.login(t, "carol")

	_, err := h.users.LinkHandle(ctx, "bob", "1001")
	require.NoError(t, err)

	_, err = root.SetAdmin(ctx, bob.User.ID, true)
	require.NoError(t, err)
	_, err = root.SetAdmin(ctx, carol.User.ID, true)
	require.NoError(t, err)

	rep, err := root.RunDispatcher(ctx)
	require.NoError(t, err)
	require.False(t, rep.Disabled)
	require.Equal(t, 1, rep.Delivered)
	require.Equal(t, 2, rep.Skipped, "root and carol have no chat linked")
	require.Equal(t, []string{service.RoleChangeMessage(true)}, h.sender.messages("1001"))

	rep, err = root.RunDispatcher(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, rep.Delivered)
	require.Equal(t, 2, rep.Skipped)

	status, err := root.DispatcherStatus(ctx)
	require.NoError(t, err)
	require.NotNil(t, status.LastReport)
	require.Equal(t, rep.TickID, status.LastReport.TickID)

	_, err = root.UpdateSettings(ctx, habitsdk.SettingsPatchRequest{EnableNotifications: ptr(false)})
	require.NoError(t, err)
	rep, err = root.RunDispatcher(ctx)
	require.NoError(t, err)
	require.True(t, rep.Disabled)
	require.Zero(t, rep.Attempts)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	live, err := h.client.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	ready, err := h.client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.NotNil(t, ready.Checks)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "ok", ready.Checks.Scheduler)
}
