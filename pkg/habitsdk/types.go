package habitsdk

import "time"

// ============================================================================
// Accounts
// ============================================================================

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries a bearer token for the Authorization header.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	User        UserResponse `json:"user"`
}

// UserResponse never includes the password hash.
type UserResponse struct {
	ID         int64     `json:"id"`
	Username   string    `json:"username"`
	IsAdmin    bool      `json:"isAdmin"`
	TelegramID *string   `json:"telegramId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// UpdateUserRequest is the admin role change body. IsAdmin must be present.
type UpdateUserRequest struct {
	IsAdmin *bool `json:"isAdmin"`
}

// ============================================================================
// Habits and entries
// ============================================================================

type HabitRequest struct {
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	Frequency    string  `json:"frequency"`
	TargetCount  int     `json:"targetCount,omitempty"`
	Reminder     bool    `json:"reminder,omitempty"`
	ReminderTime *string `json:"reminderTime,omitempty"`
}

// HabitPatchRequest leaves absent fields unchanged.
type HabitPatchRequest struct {
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	Frequency    *string `json:"frequency,omitempty"`
	TargetCount  *int    `json:"targetCount,omitempty"`
	Reminder     *bool   `json:"reminder,omitempty"`
	ReminderTime *string `json:"reminderTime,omitempty"`
}

type HabitResponse struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	Name         string    `json:"name"`
	Description  *string   `json:"description"`
	Frequency    string    `json:"frequency"`
	TargetCount  int       `json:"targetCount"`
	Reminder     bool      `json:"reminder"`
	ReminderTime *string   `json:"reminderTime"`
	CreatedAt    time.Time `json:"createdAt"`
}

// EntryRequest records a completion. Completed defaults to true and
// CompletedAt to now.
type EntryRequest struct {
	HabitID     int64      `json:"habitId"`
	Completed   *bool      `json:"completed,omitempty"`
	Note        *string    `json:"note,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

type EntryResponse struct {
	ID          int64     `json:"id"`
	HabitID     int64     `json:"habitId"`
	UserID      int64     `json:"userId"`
	Completed   bool      `json:"completed"`
	Note        *string   `json:"note"`
	CompletedAt time.Time `json:"completedAt"`
}

// ToggleEntryRequest flips completion of a habit on one calendar day.
type ToggleEntryRequest struct {
	HabitID int64  `json:"habitId"`
	Date    string `json:"date"` // YYYY-MM-DD
}

type ToggleEntryResponse struct {
	Created bool          `json:"created"`
	Entry   EntryResponse `json:"entry"`
}

// ============================================================================
// Statistics
// ============================================================================

type HabitStatsResponse struct {
	Habit          HabitResponse `json:"habit"`
	PeriodCount    int           `json:"periodCount"`
	CompletionRate float64       `json:"completionRate"`
	Streak         int           `json:"streak"`
	TotalEntries   int           `json:"totalEntries"`
}

type TimelineRowResponse struct {
	Habit HabitResponse `json:"habit"`
	Done  []bool        `json:"done"`
}

type TimelineResponse struct {
	WeekStart string                `json:"weekStart"`
	Days      []string              `json:"days"`
	Habits    []TimelineRowResponse `json:"habits"`
}

type SystemStatsResponse struct {
	TotalUsers   int `json:"totalUsers"`
	TotalHabits  int `json:"totalHabits"`
	TotalEntries int `json:"totalEntries"`
}

// ============================================================================
// Notifications, settings and the dispatcher
// ============================================================================

type NotificationResponse struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	HabitID   int64     `json:"habitId"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Sent      bool      `json:"sent"`
	CreatedAt time.Time `json:"createdAt"`
}

type SettingsResponse struct {
	TelegramBotToken     *string   `json:"telegramBotToken"`
	EnableNotifications  bool      `json:"enableNotifications"`
	NotificationInterval int       `json:"notificationInterval"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// SettingsPatchRequest leaves absent fields unchanged.
type SettingsPatchRequest struct {
	TelegramBotToken     *string `json:"telegramBotToken,omitempty"`
	EnableNotifications  *bool   `json:"enableNotifications,omitempty"`
	NotificationInterval *int    `json:"notificationInterval,omitempty" minimum:"30" maximum:"86400"`
}

type DispatchResultResponse struct {
	NotificationID int64  `json:"notificationId"`
	UserID         int64  `json:"userId"`
	Outcome        string `json:"outcome"`
	Error          string `json:"error,omitempty"`
}

type DispatchReportResponse struct {
	TickID     string                   `json:"tickId"`
	StartedAt  time.Time                `json:"startedAt"`
	DurationMS int64                    `json:"durationMs"`
	Disabled   bool                     `json:"disabled"`
	Error      string                   `json:"error,omitempty"`
	Attempts   int                      `json:"attempts"`
	Delivered  int                      `json:"delivered"`
	Skipped    int                      `json:"skipped"`
	Failed     int                      `json:"failed"`
	Expired    int                      `json:"expired"`
	Results    []DispatchResultResponse `json:"results"`
}

type DispatcherStatusResponse struct {
	State           string                  `json:"state"`
	Enabled         bool                    `json:"enabled"`
	IntervalSeconds int                     `json:"intervalSeconds"`
	NextRun         *time.Time              `json:"nextRun,omitempty"`
	TransportActive bool                    `json:"transportActive"`
	LastReport      *DispatchReportResponse `json:"lastReport,omitempty"`
}

// ============================================================================
// Health
// ============================================================================

// HealthResponse is returned by /livez and /readyz (readyz adds Checks).
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database  string `json:"database"`
	Scheduler string `json:"scheduler"`
}
