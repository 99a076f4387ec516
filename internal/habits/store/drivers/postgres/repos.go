package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/store"
)

const (
	userColumns         = `id, username, password_hash, is_admin, external_handle, created_at`
	habitColumns        = `id, user_id, name, description, frequency, target_count, reminder, reminder_time, created_at`
	entryColumns        = `id, habit_id, user_id, completed, note, completed_at`
	notificationColumns = `id, user_id, habit_id, type, message, sent, created_at`
)

type usersRepo struct{ db ext }

func (r *usersRepo) get(ctx context.Context, where string, arg any) (domain.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE `+where, arg); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return row.toDomain(), nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	return r.get(ctx, `id = $1`, id)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return r.get(ctx, `username = $1`, username)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row,
		`INSERT INTO users (username, password_hash, is_admin, external_handle)
		 VALUES ($1, $2, $3, $4) RETURNING `+userColumns,
		u.Username, u.PasswordHash, u.IsAdmin, mapOptionalString(u.ExternalHandle),
	)
	if err != nil {
		return domain.User{}, mapPQ(err)
	}
	return row.toDomain(), nil
}

func (r *usersRepo) UpdateUser(ctx context.Context, id int64, patch domain.UserPatch) (domain.User, error) {
	var row userRow
	err := r.db.GetContext(ctx, &row,
		`UPDATE users SET
		   is_admin = COALESCE($2::boolean, is_admin),
		   external_handle = COALESCE($3::text, external_handle)
		 WHERE id = $1 RETURNING `+userColumns,
		id, patch.IsAdmin, mapOptionalString(patch.ExternalHandle),
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return row.toDomain(), nil
}

func (r *usersRepo) ListUsers(ctx context.Context) ([]domain.User, error) {
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+userColumns+` FROM users ORDER BY id`); err != nil {
		return nil, err
	}
	return mapRows[userRow, domain.User](rows), nil
}

type habitsRepo struct{ db ext }

func (r *habitsRepo) CreateHabit(ctx context.Context, h domain.Habit) (domain.Habit, error) {
	var row habitRow
	err := r.db.GetContext(ctx, &row,
		`INSERT INTO habits (user_id, name, description, frequency, target_count, reminder, reminder_time)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+habitColumns,
		h.UserID, h.Name, mapOptionalString(h.Description), string(h.Frequency),
		h.TargetCount, h.Reminder, mapOptionalString(h.ReminderTime),
	)
	if err != nil {
		return domain.Habit{}, mapPQ(err)
	}
	return row.toDomain(), nil
}

func (r *habitsRepo) GetHabit(ctx context.Context, id int64) (domain.Habit, error) {
	var row habitRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+habitColumns+` FROM habits WHERE id = $1`, id); err != nil {
		return domain.Habit{}, mapNotFound(err)
	}
	return row.toDomain(), nil
}

func (r *habitsRepo) ListUserHabits(ctx context.Context, userID int64) ([]domain.Habit, error) {
	var rows []habitRow
	err := r.db.SelectContext(ctx, &rows, `SELECT `+habitColumns+` FROM habits WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	return mapRows[habitRow, domain.Habit](rows), nil
}

func (r *habitsRepo) ListReminderHabits(ctx context.Context) ([]domain.Habit, error) {
	var rows []habitRow
	err := r.db.SelectContext(ctx, &rows, `SELECT `+habitColumns+` FROM habits
		WHERE reminder AND reminder_time IS NOT NULL AND reminder_time <> '' ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return mapRows[habitRow, domain.Habit](rows), nil
}

func (r *habitsRepo) UpdateHabit(ctx context.Context, id int64, p domain.HabitPatch) (domain.Habit, error) {
	var frequency *string
	if p.Frequency != nil {
		f := string(*p.Frequency)
		frequency = &f
	}

	var row habitRow
	err := r.db.GetContext(ctx, &row,
		`UPDATE habits SET
		   name = COALESCE($2::text, name),
		   description = COALESCE($3::text, description),
		   frequency = COALESCE($4::text, frequency),
		   target_count = COALESCE($5::integer, target_count),
		   reminder = COALESCE($6::boolean, reminder),
		   reminder_time = COALESCE($7::text, reminder_time)
		 WHERE id = $1 RETURNING `+habitColumns,
		id, p.Name, mapOptionalString(p.Description), frequency, p.TargetCount, p.Reminder, mapOptionalString(p.ReminderTime),
	)
	if err != nil {
		return domain.Habit{}, mapNotFound(err)
	}
	return row.toDomain(), nil
}

func (r *habitsRepo) DeleteHabit(ctx context.Context, id int64) error {
	return execOne(ctx, r.db, `DELETE FROM habits WHERE id = $1`, id)
}

type entriesRepo struct{ db ext }

func (r *entriesRepo) CreateEntry(ctx context.Context, e domain.Entry) (domain.Entry, error) {
	if e.CompletedAt.IsZero() {
		e.CompletedAt = time.Now()
	}

	var row entryRow
	err := r.db.GetContext(ctx, &row,
		`INSERT INTO entries (habit_id, user_id, completed, note, completed_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING `+entryColumns,
		e.HabitID, e.UserID, e.Completed, mapOptionalString(e.Note), e.CompletedAt.UTC(),
	)
	if err != nil {
		return domain.Entry{}, mapPQ(err)
	}
	return row.toDomain(), nil
}

func (r *entriesRepo) GetEntry(ctx context.Context, id int64) (domain.Entry, error) {
	var row entryRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+entryColumns+` FROM entries WHERE id = $1`, id); err != nil {
		return domain.Entry{}, mapNotFound(err)
	}
	return row.toDomain(), nil
}

func (r *entriesRepo) ListHabitEntries(ctx context.Context, habitID int64) ([]domain.Entry, error) {
	var rows []entryRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+entryColumns+` FROM entries WHERE habit_id = $1 ORDER BY completed_at, id`, habitID)
	if err != nil {
		return nil, err
	}
	return mapRows[entryRow, domain.Entry](rows), nil
}

func (r *entriesRepo) ListUserEntries(ctx context.Context, userID int64) ([]domain.Entry, error) {
	var rows []entryRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+entryColumns+` FROM entries WHERE user_id = $1 ORDER BY completed_at, id`, userID)
	if err != nil {
		return nil, err
	}
	return mapRows[entryRow, domain.Entry](rows), nil
}

func (r *entriesRepo) DeleteEntry(ctx context.Context, id int64) error {
	return execOne(ctx, r.db, `DELETE FROM entries WHERE id = $1`, id)
}

type notificationsRepo struct{ db ext }

func (r *notificationsRepo) CreateNotification(ctx context.Context, n domain.NewNotification) (domain.Notification, error) {
	var row notificationRow
	err := r.db.GetContext(ctx, &row,
		`INSERT INTO notifications (user_id, habit_id, type, message)
		 VALUES ($1, $2, $3, $4) RETURNING `+notificationColumns,
		n.UserID, n.HabitID, string(n.Type), n.Message,
	)
	if err != nil {
		return domain.Notification{}, err
	}
	return row.toDomain(), nil
}

func (r *notificationsRepo) ListPendingNotifications(ctx context.Context) ([]domain.Notification, error) {
	var rows []notificationRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+notificationColumns+` FROM notifications WHERE NOT sent`); err != nil {
		return nil, err
	}
	return mapRows[notificationRow, domain.Notification](rows), nil
}

func (r *notificationsRepo) MarkNotificationSent(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET sent = TRUE WHERE id = $1 AND NOT sent`, id)
	return err
}

func (r *notificationsRepo) ListNotifications(ctx context.Context) ([]domain.Notification, error) {
	var rows []notificationRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT `+notificationColumns+` FROM notifications ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	return mapRows[notificationRow, domain.Notification](rows), nil
}

type settingsRepo struct{ db ext }

func (r *settingsRepo) GetSystemSettings(ctx context.Context) (domain.SystemSettings, error) {
	var row settingsRow
	err := r.db.GetContext(ctx, &row,
		`SELECT telegram_bot_token, enable_notifications, notification_interval, updated_at
		 FROM system_settings WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DefaultSystemSettings(), nil
	}
	if err != nil {
		return domain.SystemSettings{}, err
	}
	return row.toDomain(), nil
}

func (r *settingsRepo) UpdateSystemSettings(ctx context.Context, patch domain.SettingsPatch) (domain.SystemSettings, error) {
	defaults := domain.DefaultSystemSettings()

	var row settingsRow
	err := r.db.GetContext(ctx, &row,
		`INSERT INTO system_settings (id, telegram_bot_token, enable_notifications, notification_interval, updated_at)
		 VALUES (1, $1::text, COALESCE($2::boolean, $4::boolean), COALESCE($3::integer, $5::integer), NOW())
		 ON CONFLICT (id) DO UPDATE SET
		   telegram_bot_token = COALESCE($1::text, system_settings.telegram_bot_token),
		   enable_notifications = COALESCE($2::boolean, system_settings.enable_notifications),
		   notification_interval = COALESCE($3::integer, system_settings.notification_interval),
		   updated_at = NOW()
		 RETURNING telegram_bot_token, enable_notifications, notification_interval, updated_at`,
		mapOptionalString(patch.TelegramBotToken), patch.EnableNotifications, patch.NotificationInterval,
		defaults.EnableNotifications, defaults.NotificationInterval,
	)
	if err != nil {
		return domain.SystemSettings{}, err
	}
	return row.toDomain(), nil
}

type statsRepo struct{ db ext }

func (r *statsRepo) GetSystemStats(ctx context.Context) (domain.SystemStats, error) {
	var s domain.SystemStats
	err := r.db.QueryRowxContext(ctx,
		`SELECT (SELECT COUNT(*) FROM users), (SELECT COUNT(*) FROM habits), (SELECT COUNT(*) FROM entries)`,
	).Scan(&s.TotalUsers, &s.TotalHabits, &s.TotalEntries)
	return s, err
}

func execOne(ctx context.Context, db ext, query string, args ...any) error {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}
