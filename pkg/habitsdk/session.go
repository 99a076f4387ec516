package habitsdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Session performs calls as one logged-in user.
type Session struct {
	client *Client
	token  string

	// User is the account returned at login, empty for NewSession.
	User UserResponse
}

func (s *Session) Token() string { return s.token }

func get[T any](ctx context.Context, s *Session, path string) (T, error) {
	var out T
	resp, err := s.client.doJSON(ctx, http.MethodGet, path, s.token, nil)
	if err != nil {
		return out, err
	}
	err = decodeJSON(resp, &out, http.StatusOK)
	return out, err
}

func send[T any](ctx context.Context, s *Session, method, path string, body any, status int) (T, error) {
	var out T
	resp, err := s.client.doJSON(ctx, method, path, s.token, body)
	if err != nil {
		return out, err
	}
	err = decodeJSON(resp, &out, status)
	return out, err
}

func (s *Session) Me(ctx context.Context) (UserResponse, error) {
	return get[UserResponse](ctx, s, "/api/user")
}

// ============================================================================
// Habits
// ============================================================================

func (s *Session) CreateHabit(ctx context.Context, req HabitRequest) (HabitResponse, error) {
	return send[HabitResponse](ctx, s, http.MethodPost, "/api/habits", req, http.StatusCreated)
}

func (s *Session) ListHabits(ctx context.Context) ([]HabitResponse, error) {
	return get[[]HabitResponse](ctx, s, "/api/habits")
}

func (s *Session) GetHabit(ctx context.Context, id int64) (HabitResponse, error) {
	return get[HabitResponse](ctx, s, fmt.Sprintf("/api/habits/%d", id))
}

func (s *Session) UpdateHabit(ctx context.Context, id int64, req HabitPatchRequest) (HabitResponse, error) {
	return send[HabitResponse](ctx, s, http.MethodPatch, fmt.Sprintf("/api/habits/%d", id), req, http.StatusOK)
}

func (s *Session) DeleteHabit(ctx context.Context, id int64) error {
	resp, err := s.client.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/habits/%d", id), s.token, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// ============================================================================
// Entries
// ============================================================================

func (s *Session) CreateEntry(ctx context.Context, req EntryRequest) (EntryResponse, error) {
	return send[EntryResponse](ctx, s, http.MethodPost, "/api/entries", req, http.StatusCreated)
}

func (s *Session) ListEntries(ctx context.Context) ([]EntryResponse, error) {
	return get[[]EntryResponse](ctx, s, "/api/entries")
}

func (s *Session) ListHabitEntries(ctx context.Context, habitID int64) ([]EntryResponse, error) {
	return get[[]EntryResponse](ctx, s, fmt.Sprintf("/api/entries/%d", habitID))
}

func (s *Session) DeleteEntry(ctx context.Context, id int64) error {
	resp, err := s.client.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/entries/%d", id), s.token, nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

func (s *Session) ToggleEntry(ctx context.Context, habitID int64, date string) (ToggleEntryResponse, error) {
	return send[ToggleEntryResponse](ctx, s, http.MethodPost, "/api/entries/toggle",
		ToggleEntryRequest{HabitID: habitID, Date: date}, http.StatusOK)
}

// ============================================================================
// Statistics
// ============================================================================

func (s *Session) HabitStats(ctx context.Context) ([]HabitStatsResponse, error) {
	return get[[]HabitStatsResponse](ctx, s, "/api/stats/habits")
}

// Timeline returns the week containing week (YYYY-MM-DD), or this week for "".
func (s *Session) Timeline(ctx context.Context, week string) (TimelineResponse, error) {
	path := "/api/timeline"
	if week != "" {
		path += "?week=" + url.QueryEscape(week)
	}
	return get[TimelineResponse](ctx, s, path)
}

// ============================================================================
// Admin
// ============================================================================

func (s *Session) ListUsers(ctx context.Context) ([]UserResponse, error) {
	return get[[]UserResponse](ctx, s, "/api/admin/users")
}

func (s *Session) SetAdmin(ctx context.Context, userID int64, isAdmin bool) (UserResponse, error) {
	return send[UserResponse](ctx, s, http.MethodPatch, fmt.Sprintf("/api/admin/users/%d", userID),
		UpdateUserRequest{IsAdmin: &isAdmin}, http.StatusOK)
}

func (s *Session) SystemStats(ctx context.Context) (SystemStatsResponse, error) {
	return get[SystemStatsResponse](ctx, s, "/api/admin/stats")
}

func (s *Session) ListNotifications(ctx context.Context) ([]NotificationResponse, error) {
	return get[[]NotificationResponse](ctx, s, "/api/admin/notifications")
}

func (s *Session) GetSettings(ctx context.Context) (SettingsResponse, error) {
	return get[SettingsResponse](ctx, s, "/api/admin/settings")
}

func (s *Session) UpdateSettings(ctx context.Context, req SettingsPatchRequest) (SettingsResponse, error) {
	return send[SettingsResponse](ctx, s, http.MethodPatch, "/api/admin/settings", req, http.StatusOK)
}

func (s *Session) DispatcherStatus(ctx context.Context) (DispatcherStatusResponse, error) {
	return get[DispatcherStatusResponse](ctx, s, "/api/admin/dispatcher")
}

// RunDispatcher runs one dispatch tick now and returns its report.
func (s *Session) RunDispatcher(ctx context.Context) (DispatchReportResponse, error) {
	return send[DispatchReportResponse](ctx, s, http.MethodPost, "/api/admin/dispatcher/run", nil, http.StatusOK)
}
