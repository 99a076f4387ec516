package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/store"
)

const entryColumns = `id, habit_id, user_id, completed, note, completed_at`

type entriesRepo struct {
	db dbtx
}

func scanEntry(row scanner) (domain.Entry, error) {
	var (
		e    domain.Entry
		note sql.NullString
	)
	if err := row.Scan(&e.ID, &e.HabitID, &e.UserID, &e.Completed, &note, &e.CompletedAt); err != nil {
		return domain.Entry{}, err
	}
	e.Note = mapNullStringPtr(note)
	return e, nil
}

func (r *entriesRepo) list(ctx context.Context, query string, args ...any) ([]domain.Entry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []domain.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *entriesRepo) CreateEntry(ctx context.Context, e domain.Entry) (domain.Entry, error) {
	if e.CompletedAt.IsZero() {
		e.CompletedAt = now()
	}
	e.CompletedAt = e.CompletedAt.UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO entries (habit_id, user_id, completed, note, completed_at) VALUES (?, ?, ?, ?, ?)`,
		e.HabitID, e.UserID, e.Completed, mapOptionalString(e.Note), e.CompletedAt,
	)
	if err != nil {
		return domain.Entry{}, mapForeignKey(err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return domain.Entry{}, err
	}
	return e, nil
}

func (r *entriesRepo) GetEntry(ctx context.Context, id int64) (domain.Entry, error) {
	e, err := scanEntry(r.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ?`, id))
	if err != nil {
		return domain.Entry{}, mapNotFound(err)
	}
	return e, nil
}

func (r *entriesRepo) ListHabitEntries(ctx context.Context, habitID int64) ([]domain.Entry, error) {
	return r.list(ctx, `SELECT `+entryColumns+` FROM entries WHERE habit_id = ? ORDER BY completed_at, id`, habitID)
}

func (r *entriesRepo) ListUserEntries(ctx context.Context, userID int64) ([]domain.Entry, error) {
	return r.list(ctx, `SELECT `+entryColumns+` FROM entries WHERE user_id = ? ORDER BY completed_at, id`, userID)
}

func (r *entriesRepo) DeleteEntry(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}
