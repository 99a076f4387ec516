package domain

import "time"

type NotificationType string

const (
	NotificationReminder    NotificationType = "reminder"
	NotificationAchievement NotificationType = "achievement"
	NotificationRoleChange  NotificationType = "role_change"
)

// SystemHabitID marks a notification that is not tied to a habit.
const SystemHabitID int64 = 0

// Notification is a message queued for delivery over the external transport.
// Sent flips from false to true exactly once, when delivery succeeds.
type Notification struct {
	ID        int64
	UserID    int64
	HabitID   int64
	Type      NotificationType
	Message   string
	Sent      bool
	CreatedAt time.Time
}

// NewNotification is the producer-side input; storage assigns ID and
// CreatedAt.
type NewNotification struct {
	UserID  int64
	HabitID int64
	Type    NotificationType
	Message string
}
