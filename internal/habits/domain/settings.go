package domain

import "time"

const (
	// MinNotificationInterval is the smallest accepted dispatcher interval in seconds.
	MinNotificationInterval = 30

	// MaxNotificationInterval is the largest accepted dispatcher interval in seconds.
	MaxNotificationInterval = 24 * 60 * 60

	// DefaultNotificationInterval applies when no interval has been stored.
	DefaultNotificationInterval = 60
)

// SystemSettings is the process-wide configuration singleton.
type SystemSettings struct {
	TelegramBotToken     *string
	EnableNotifications  bool
	NotificationInterval int // seconds
	UpdatedAt            time.Time
}

// DefaultSystemSettings returns the settings used before an administrator
// changes anything.
func DefaultSystemSettings() SystemSettings {
	return SystemSettings{
		EnableNotifications:  true,
		NotificationInterval: DefaultNotificationInterval,
	}
}

// Interval returns the dispatcher interval as a duration, falling back to
// the default for unset values and clamping to the accepted range.
func (s SystemSettings) Interval() time.Duration {
	secs := s.NotificationInterval
	switch {
	case secs <= 0:
		secs = DefaultNotificationInterval
	case secs < MinNotificationInterval:
		secs = MinNotificationInterval
	case secs > MaxNotificationInterval:
		secs = MaxNotificationInterval
	}
	return time.Duration(secs) * time.Second
}

// Token returns the stored bot token or "" when unset.
func (s SystemSettings) Token() string {
	if s.TelegramBotToken == nil {
		return ""
	}
	return *s.TelegramBotToken
}

// SettingsPatch carries a partial update. Nil fields are left unchanged.
type SettingsPatch struct {
	TelegramBotToken     *string
	EnableNotifications  *bool
	NotificationInterval *int
}

// Apply merges p into s and returns the result.
func (p SettingsPatch) Apply(s SystemSettings) SystemSettings {
	if p.TelegramBotToken != nil {
		tok := *p.TelegramBotToken
		s.TelegramBotToken = &tok
	}
	if p.EnableNotifications != nil {
		s.EnableNotifications = *p.EnableNotifications
	}
	if p.NotificationInterval != nil {
		s.NotificationInterval = *p.NotificationInterval
	}
	return s
}

// SystemStats are point-in-time counts for the admin dashboard.
type SystemStats struct {
	TotalUsers   int
	TotalHabits  int
	TotalEntries int
}
