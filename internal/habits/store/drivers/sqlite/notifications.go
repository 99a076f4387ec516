package sqlite

import (
	"context"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
)

const notificationColumns = `id, user_id, habit_id, type, message, sent, created_at`

type notificationsRepo struct {
	db dbtx
}

func scanNotification(row scanner) (domain.Notification, error) {
	var (
		n   domain.Notification
		typ string
	)
	if err := row.Scan(&n.ID, &n.UserID, &n.HabitID, &typ, &n.Message, &n.Sent, &n.CreatedAt); err != nil {
		return domain.Notification{}, err
	}
	n.Type = domain.NotificationType(typ)
	return n, nil
}

func (r *notificationsRepo) list(ctx context.Context, query string) ([]domain.Notification, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *notificationsRepo) CreateNotification(ctx context.Context, in domain.NewNotification) (domain.Notification, error) {
	n := domain.Notification{
		UserID:    in.UserID,
		HabitID:   in.HabitID,
		Type:      in.Type,
		Message:   in.Message,
		CreatedAt: now(),
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, habit_id, type, message, sent, created_at) VALUES (?, ?, ?, ?, 0, ?)`,
		n.UserID, n.HabitID, string(n.Type), n.Message, n.CreatedAt,
	)
	if err != nil {
		return domain.Notification{}, err
	}
	if n.ID, err = res.LastInsertId(); err != nil {
		return domain.Notification{}, err
	}
	return n, nil
}

func (r *notificationsRepo) ListPendingNotifications(ctx context.Context) ([]domain.Notification, error) {
	return r.list(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE sent = 0`)
}

func (r *notificationsRepo) MarkNotificationSent(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET sent = 1 WHERE id = ? AND sent = 0`, id)
	return err
}

func (r *notificationsRepo) ListNotifications(ctx context.Context) ([]domain.Notification, error) {
	return r.list(ctx, `SELECT `+notificationColumns+` FROM notifications ORDER BY created_at DESC, id DESC`)
}
