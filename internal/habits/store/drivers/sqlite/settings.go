package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
)

type settingsRepo struct {
	db dbtx
}

func (r *settingsRepo) GetSystemSettings(ctx context.Context) (domain.SystemSettings, error) {
	var (
		s     domain.SystemSettings
		token sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT telegram_bot_token, enable_notifications, notification_interval, updated_at
		 FROM system_settings WHERE id = 1`,
	).Scan(&token, &s.EnableNotifications, &s.NotificationInterval, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultSystemSettings(), nil
	}
	if err != nil {
		return domain.SystemSettings{}, err
	}
	s.TelegramBotToken = mapNullStringPtr(token)
	return s, nil
}

func (r *settingsRepo) UpdateSystemSettings(ctx context.Context, patch domain.SettingsPatch) (domain.SystemSettings, error) {
	current, err := r.GetSystemSettings(ctx)
	if err != nil {
		return domain.SystemSettings{}, err
	}
	s := patch.Apply(current)
	s.UpdatedAt = now()

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO system_settings (id, telegram_bot_token, enable_notifications, notification_interval, updated_at)
		 VALUES (1, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   telegram_bot_token = excluded.telegram_bot_token,
		   enable_notifications = excluded.enable_notifications,
		   notification_interval = excluded.notification_interval,
		   updated_at = excluded.updated_at`,
		mapOptionalString(s.TelegramBotToken), s.EnableNotifications, s.NotificationInterval, s.UpdatedAt,
	)
	if err != nil {
		return domain.SystemSettings{}, err
	}
	return s, nil
}
