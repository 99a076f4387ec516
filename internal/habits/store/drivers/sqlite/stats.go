package sqlite

import (
	"context"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
)

type statsRepo struct {
	db dbtx
}

func (r *statsRepo) GetSystemStats(ctx context.Context) (domain.SystemStats, error) {
	var s domain.SystemStats
	err := r.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM users), (SELECT COUNT(*) FROM habits), (SELECT COUNT(*) FROM entries)`,
	).Scan(&s.TotalUsers, &s.TotalHabits, &s.TotalEntries)
	return s, err
}
