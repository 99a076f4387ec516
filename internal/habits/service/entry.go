package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/store"
	"github.com/aussiebroadwan/habits/pkg/slogx"
)

// DayLayout is the wire format for calendar days.
const DayLayout = "2006-01-02"

// EntryService records completions. Creating an entry that brings a habit to
// its target for the current period queues an achievement notification.
type EntryService struct {
	Store    store.Store
	Location *time.Location // calendar used for days and periods, default UTC
}

// ToggleResult reports what Toggle did. Entry is the created entry, or the
// deleted one when Created is false.
type ToggleResult struct {
	Entry   domain.Entry
	Created bool
}

func (s *EntryService) loc() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

// ParseDay parses a YYYY-MM-DD string as midnight in the service calendar.
func (s *EntryService) ParseDay(v string) (time.Time, error) {
	return parseDay(v, s.loc())
}

func parseDay(v string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, v, loc)
	if err != nil {
		return time.Time{}, invalidf("date must be YYYY-MM-DD")
	}
	return t, nil
}

// Create stores an entry against a habit owned by userID.
func (s *EntryService) Create(ctx context.Context, userID int64, e domain.Entry) (domain.Entry, error) {
	var created domain.Entry
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		habit, err := ownedHabit(ctx, tx, userID, e.HabitID)
		if err != nil {
			return err
		}

		e.ID = 0
		e.UserID = userID
		created, err = tx.Entries().CreateEntry(ctx, e)
		if err != nil {
			return err
		}
		return s.checkAchievement(ctx, tx, habit, created)
	})
	return created, err
}

// ListForHabit returns the entries of an owned habit.
func (s *EntryService) ListForHabit(ctx context.Context, userID, habitID int64) ([]domain.Entry, error) {
	if _, err := ownedHabit(ctx, s.Store, userID, habitID); err != nil {
		return nil, err
	}
	return s.Store.Entries().ListHabitEntries(ctx, habitID)
}

func (s *EntryService) ListForUser(ctx context.Context, userID int64) ([]domain.Entry, error) {
	return s.Store.Entries().ListUserEntries(ctx, userID)
}

// Delete removes an entry owned by userID.
func (s *EntryService) Delete(ctx context.Context, userID, id int64) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		e, err := tx.Entries().GetEntry(ctx, id)
		if err != nil {
			return err
		}
		if e.UserID != userID {
			return store.ErrNotFound
		}
		return tx.Entries().DeleteEntry(ctx, id)
	})
}

// Toggle flips the completion of habitID on the calendar day of day. An
// existing entry on that day is deleted, otherwise one is created at the
// start of the day. Toggling twice restores the original state.
func (s *EntryService) Toggle(ctx context.Context, userID, habitID int64, day time.Time) (ToggleResult, error) {
	day = day.In(s.loc())
	start := domain.FrequencyDaily.PeriodStart(day)

	var res ToggleResult
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		habit, err := ownedHabit(ctx, tx, userID, habitID)
		if err != nil {
			return err
		}

		entries, err := tx.Entries().ListHabitEntries(ctx, habitID)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if e.UserID == userID && e.SameDay(start) {
				res = ToggleResult{Entry: e, Created: false}
				return tx.Entries().DeleteEntry(ctx, e.ID)
			}
		}

		created, err := tx.Entries().CreateEntry(ctx, domain.Entry{
			HabitID:     habitID,
			UserID:      userID,
			Completed:   true,
			CompletedAt: start,
		})
		if err != nil {
			return err
		}
		res = ToggleResult{Entry: created, Created: true}
		return s.checkAchievement(ctx, tx, habit, created)
	})
	if err != nil {
		return ToggleResult{}, err
	}

	slogx.FromContext(ctx).Debug("entry toggled",
		slog.Int64("habit_id", habitID),
		slog.String("day", start.Format(DayLayout)),
		slog.Bool("created", res.Created),
	)
	return res, nil
}

// checkAchievement queues an achievement when the new entry makes the count
// for its period exactly reach the habit's target.
func (s *EntryService) checkAchievement(ctx context.Context, tx store.Tx, habit domain.Habit, created domain.Entry) error {
	entries, err := tx.Entries().ListHabitEntries(ctx, habit.ID)
	if err != nil {
		return err
	}

	start := habit.Frequency.PeriodStart(created.CompletedAt.In(s.loc()))
	count := countInPeriod(entries, habit, start)
	if count != habit.TargetCount {
		return nil
	}

	notifier := &NotificationService{Store: tx}
	_, err = notifier.Notify(ctx, domain.NewNotification{
		UserID:  habit.UserID,
		HabitID: habit.ID,
		Type:    domain.NotificationAchievement,
		Message: AchievementMessage(habit),
	})
	return err
}

func countInPeriod(entries []domain.Entry, habit domain.Habit, start time.Time) int {
	end := habit.Frequency.NextPeriod(start)
	n := 0
	for _, e := range entries {
		if e.UserID != habit.UserID {
			continue
		}
		at := e.CompletedAt.In(start.Location())
		if !at.Before(start) && at.Before(end) {
			n++
		}
	}
	return n
}

func AchievementMessage(h domain.Habit) string {
	return fmt.Sprintf("Goal reached: %s (%d/%d this %s)", h.Name, h.TargetCount, h.TargetCount, periodNoun(h.Frequency))
}

func periodNoun(f domain.Frequency) string {
	switch f {
	case domain.FrequencyWeekly:
		return "week"
	case domain.FrequencyMonthly:
		return "month"
	default:
		return "day"
	}
}
