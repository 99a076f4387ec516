package postgres

import (
	"database/sql"
	"time"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
)

type userRow struct {
	ID             int64          `db:"id"`
	Username       string         `db:"username"`
	PasswordHash   string         `db:"password_hash"`
	IsAdmin        bool           `db:"is_admin"`
	ExternalHandle sql.NullString `db:"external_handle"`
	CreatedAt      time.Time      `db:"created_at"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:             r.ID,
		Username:       r.Username,
		PasswordHash:   r.PasswordHash,
		IsAdmin:        r.IsAdmin,
		ExternalHandle: mapNullStringPtr(r.ExternalHandle),
		CreatedAt:      r.CreatedAt,
	}
}

type habitRow struct {
	ID           int64          `db:"id"`
	UserID       int64          `db:"user_id"`
	Name         string         `db:"name"`
	Description  sql.NullString `db:"description"`
	Frequency    string         `db:"frequency"`
	TargetCount  int            `db:"target_count"`
	Reminder     bool           `db:"reminder"`
	ReminderTime sql.NullString `db:"reminder_time"`
	CreatedAt    time.Time      `db:"created_at"`
}

func (r habitRow) toDomain() domain.Habit {
	return domain.Habit{
		ID:           r.ID,
		UserID:       r.UserID,
		Name:         r.Name,
		Description:  mapNullStringPtr(r.Description),
		Frequency:    domain.Frequency(r.Frequency),
		TargetCount:  r.TargetCount,
		Reminder:     r.Reminder,
		ReminderTime: mapNullStringPtr(r.ReminderTime),
		CreatedAt:    r.CreatedAt,
	}
}

type entryRow struct {
	ID          int64          `db:"id"`
	HabitID     int64          `db:"habit_id"`
	UserID      int64          `db:"user_id"`
	Completed   bool           `db:"completed"`
	Note        sql.NullString `db:"note"`
	CompletedAt time.Time      `db:"completed_at"`
}

func (r entryRow) toDomain() domain.Entry {
	return domain.Entry{
		ID:          r.ID,
		HabitID:     r.HabitID,
		UserID:      r.UserID,
		Completed:   r.Completed,
		Note:        mapNullStringPtr(r.Note),
		CompletedAt: r.CompletedAt,
	}
}

type notificationRow struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	HabitID   int64     `db:"habit_id"`
	Type      string    `db:"type"`
	Message   string    `db:"message"`
	Sent      bool      `db:"sent"`
	CreatedAt time.Time `db:"created_at"`
}

func (r notificationRow) toDomain() domain.Notification {
	return domain.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		HabitID:   r.HabitID,
		Type:      domain.NotificationType(r.Type),
		Message:   r.Message,
		Sent:      r.Sent,
		CreatedAt: r.CreatedAt,
	}
}

type settingsRow struct {
	TelegramBotToken     sql.NullString `db:"telegram_bot_token"`
	EnableNotifications  bool           `db:"enable_notifications"`
	NotificationInterval int            `db:"notification_interval"`
	UpdatedAt            time.Time      `db:"updated_at"`
}

func (r settingsRow) toDomain() domain.SystemSettings {
	return domain.SystemSettings{
		TelegramBotToken:     mapNullStringPtr(r.TelegramBotToken),
		EnableNotifications:  r.EnableNotifications,
		NotificationInterval: r.NotificationInterval,
		UpdatedAt:            r.UpdatedAt,
	}
}

func mapRows[R interface{ toDomain() D }, D any](rows []R) []D {
	out := make([]D, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}
