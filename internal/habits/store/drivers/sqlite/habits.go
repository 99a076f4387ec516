package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/store"
)

const habitColumns = `id, user_id, name, description, frequency, target_count, reminder, reminder_time, created_at`

type habitsRepo struct {
	db dbtx
}

func scanHabit(row scanner) (domain.Habit, error) {
	var (
		h            domain.Habit
		description  sql.NullString
		reminderTime sql.NullString
		frequency    string
	)
	err := row.Scan(&h.ID, &h.UserID, &h.Name, &description, &frequency,
		&h.TargetCount, &h.Reminder, &reminderTime, &h.CreatedAt)
	if err != nil {
		return domain.Habit{}, err
	}
	h.Frequency = domain.Frequency(frequency)
	h.Description = mapNullStringPtr(description)
	h.ReminderTime = mapNullStringPtr(reminderTime)
	return h, nil
}

func (r *habitsRepo) list(ctx context.Context, query string, args ...any) ([]domain.Habit, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	habits := []domain.Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

func (r *habitsRepo) CreateHabit(ctx context.Context, h domain.Habit) (domain.Habit, error) {
	h.CreatedAt = now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO habits (user_id, name, description, frequency, target_count, reminder, reminder_time, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		h.UserID, h.Name, mapOptionalString(h.Description), string(h.Frequency),
		h.TargetCount, h.Reminder, mapOptionalString(h.ReminderTime), h.CreatedAt,
	)
	if err != nil {
		return domain.Habit{}, mapForeignKey(err)
	}
	if h.ID, err = res.LastInsertId(); err != nil {
		return domain.Habit{}, err
	}
	return h, nil
}

func (r *habitsRepo) GetHabit(ctx context.Context, id int64) (domain.Habit, error) {
	h, err := scanHabit(r.db.QueryRowContext(ctx, `SELECT `+habitColumns+` FROM habits WHERE id = ?`, id))
	if err != nil {
		return domain.Habit{}, mapNotFound(err)
	}
	return h, nil
}

func (r *habitsRepo) ListUserHabits(ctx context.Context, userID int64) ([]domain.Habit, error) {
	return r.list(ctx, `SELECT `+habitColumns+` FROM habits WHERE user_id = ? ORDER BY id`, userID)
}

func (r *habitsRepo) ListReminderHabits(ctx context.Context) ([]domain.Habit, error) {
	return r.list(ctx, `SELECT `+habitColumns+` FROM habits
		WHERE reminder = 1 AND reminder_time IS NOT NULL AND reminder_time != '' ORDER BY id`)
}

func (r *habitsRepo) UpdateHabit(ctx context.Context, id int64, patch domain.HabitPatch) (domain.Habit, error) {
	h, err := r.GetHabit(ctx, id)
	if err != nil {
		return domain.Habit{}, err
	}
	h = applyHabitPatch(h, patch)

	_, err = r.db.ExecContext(ctx,
		`UPDATE habits SET name = ?, description = ?, frequency = ?, target_count = ?, reminder = ?, reminder_time = ?
		 WHERE id = ?`,
		h.Name, mapOptionalString(h.Description), string(h.Frequency), h.TargetCount,
		h.Reminder, mapOptionalString(h.ReminderTime), id,
	)
	if err != nil {
		return domain.Habit{}, err
	}
	return h, nil
}

func (r *habitsRepo) DeleteHabit(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func applyHabitPatch(h domain.Habit, p domain.HabitPatch) domain.Habit {
	if p.Name != nil {
		h.Name = *p.Name
	}
	if p.Description != nil {
		d := *p.Description
		h.Description = &d
	}
	if p.Frequency != nil {
		h.Frequency = *p.Frequency
	}
	if p.TargetCount != nil {
		h.TargetCount = *p.TargetCount
	}
	if p.Reminder != nil {
		h.Reminder = *p.Reminder
	}
	if p.ReminderTime != nil {
		t := *p.ReminderTime
		h.ReminderTime = &t
	}
	return h
}
