package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/store"
	"github.com/aussiebroadwan/habits/pkg/slogx"
)

// ReminderService queues a reminder notification for every habit whose
// reminder time matches the current minute.
type ReminderService struct {
	Store    store.Store
	Logger   *slog.Logger
	Location *time.Location

	cron *cron.Cron
}

// NewReminderService creates a reminder producer evaluating reminder times in
// loc. A nil loc means UTC.
func NewReminderService(st store.Store, logger *slog.Logger, loc *time.Location) *ReminderService {
	if loc == nil {
		loc = time.UTC
	}
	return &ReminderService{
		Store:    st,
		Logger:   logger.With("component", "reminders"),
		Location: loc,
	}
}

// Start schedules the producer at the top of every minute. Non-blocking.
func (s *ReminderService) Start(ctx context.Context) error {
	cl := slogx.CronLogger(s.Logger)
	s.cron = cron.New(
		cron.WithLocation(s.Location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	_, err := s.cron.AddFunc("* * * * *", func() {
		if _, err := s.RunAt(ctx, time.Now()); err != nil {
			s.Logger.Error("reminder run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}

	s.cron.Start()
	s.Logger.Info("reminder service started", "timezone", s.Location.String())
	return nil
}

// Stop waits for a running pass to finish.
func (s *ReminderService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.Logger.Info("reminder service stopped")
}

// RunAt queues reminders for habits due at the minute of t and returns how
// many were queued.
func (s *ReminderService) RunAt(ctx context.Context, t time.Time) (int, error) {
	minute := t.In(s.Location).Format(reminderTimeLayout)

	habits, err := s.Store.Habits().ListReminderHabits(ctx)
	if err != nil {
		return 0, fmt.Errorf("list reminder habits: %w", err)
	}

	notifier := &NotificationService{Store: s.Store}
	queued := 0
	for _, h := range habits {
		if !h.Reminder || h.ReminderTime == nil || *h.ReminderTime != minute {
			continue
		}
		_, err := notifier.Notify(ctx, domain.NewNotification{
			UserID:  h.UserID,
			HabitID: h.ID,
			Type:    domain.NotificationReminder,
			Message: ReminderMessage(h),
		})
		if err != nil {
			s.Logger.Error("failed to queue reminder", "habit_id", h.ID, "error", err)
			continue
		}
		queued++
	}

	if queued > 0 {
		s.Logger.Info("reminders queued", "minute", minute, "count", queued)
	}
	return queued, nil
}

func ReminderMessage(h domain.Habit) string {
	return fmt.Sprintf("Reminder: time for %s", h.Name)
}
