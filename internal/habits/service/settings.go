package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/store"
	"github.com/aussiebroadwan/habits/pkg/slogx"
)

// SettingsHook is called after settings are persisted.
type SettingsHook func(ctx context.Context, s domain.SystemSettings)

type SettingsService struct {
	Store store.Store

	// OnUpdate runs in order after every successful update. The dispatcher
	// re-arms itself here.
	OnUpdate []SettingsHook
}

func (s *SettingsService) Get(ctx context.Context) (domain.SystemSettings, error) {
	return s.Store.Settings().GetSystemSettings(ctx)
}

// Update validates and persists patch, then runs the hooks. An invalid patch
// changes nothing and runs no hooks.
func (s *SettingsService) Update(ctx context.Context, patch domain.SettingsPatch) (domain.SystemSettings, error) {
	if iv := patch.NotificationInterval; iv != nil {
		switch {
		case *iv < domain.MinNotificationInterval:
			return domain.SystemSettings{}, invalidf("Notification interval must be at least %d seconds", domain.MinNotificationInterval)
		case *iv > domain.MaxNotificationInterval:
			return domain.SystemSettings{}, invalidf("Notification interval must be at most %d seconds", domain.MaxNotificationInterval)
		}
	}
	if patch.TelegramBotToken != nil {
		tok := strings.TrimSpace(*patch.TelegramBotToken)
		patch.TelegramBotToken = &tok
	}

	updated, err := s.Store.Settings().UpdateSystemSettings(ctx, patch)
	if err != nil {
		return domain.SystemSettings{}, err
	}

	slogx.FromContext(ctx).Info("system settings updated",
		slog.Bool("enable_notifications", updated.EnableNotifications),
		slog.Int("notification_interval", updated.NotificationInterval),
		slog.Bool("token_changed", patch.TelegramBotToken != nil),
	)

	for _, hook := range s.OnUpdate {
		hook(ctx, updated)
	}
	return updated, nil
}
