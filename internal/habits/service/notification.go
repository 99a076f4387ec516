package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/store"
	"github.com/aussiebroadwan/habits/pkg/slogx"
)

// NotificationService is the producer side of the delivery pipeline. It only
// writes pending records; the dispatcher delivers them.
type NotificationService struct {
	Store store.Store
}

// Notify queues n for delivery.
func (s *NotificationService) Notify(ctx context.Context, n domain.NewNotification) (domain.Notification, error) {
	created, err := s.Store.Notifications().CreateNotification(ctx, n)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("create notification: %w", err)
	}

	slogx.FromContext(ctx).Debug("notification queued",
		slog.Int64("notification_id", created.ID),
		slog.Int64("user_id", created.UserID),
		slog.String("type", string(created.Type)),
	)
	return created, nil
}

// NotifyRoleChange queues exactly one role change message for userID. Calling
// it twice queues two messages.
func (s *NotificationService) NotifyRoleChange(ctx context.Context, userID int64, isAdmin bool) (domain.Notification, error) {
	return s.Notify(ctx, domain.NewNotification{
		UserID:  userID,
		HabitID: domain.SystemHabitID,
		Type:    domain.NotificationRoleChange,
		Message: RoleChangeMessage(isAdmin),
	})
}

func RoleChangeMessage(isAdmin bool) string {
	if isAdmin {
		return "Your role has been upgraded to admin"
	}
	return "Your role has been changed to user"
}

// List returns every notification, newest first.
func (s *NotificationService) List(ctx context.Context) ([]domain.Notification, error) {
	return s.Store.Notifications().ListNotifications(ctx)
}
