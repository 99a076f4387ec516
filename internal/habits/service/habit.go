package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/store"
	"github.com/aussiebroadwan/habits/pkg/slogx"
)

const (
	MaxHabitNameLength = 100
	reminderTimeLayout = "15:04"
)

type HabitService struct {
	Store store.Store
}

// Create validates h and stores it for userID. The caller's UserID, ID and
// CreatedAt are ignored.
func (s *HabitService) Create(ctx context.Context, userID int64, h domain.Habit) (domain.Habit, error) {
	h.ID = 0
	h.UserID = userID
	h.Name = strings.TrimSpace(h.Name)
	if h.TargetCount == 0 {
		h.TargetCount = 1
	}
	if err := validateHabit(h); err != nil {
		return domain.Habit{}, err
	}

	created, err := s.Store.Habits().CreateHabit(ctx, h)
	if err != nil {
		return domain.Habit{}, err
	}

	slogx.FromContext(ctx).Info("habit created",
		slog.Int64("habit_id", created.ID),
		slog.Int64("user_id", userID),
	)
	return created, nil
}

func (s *HabitService) List(ctx context.Context, userID int64) ([]domain.Habit, error) {
	return s.Store.Habits().ListUserHabits(ctx, userID)
}

// Get returns the habit if userID owns it. Habits owned by someone else are
// reported as store.ErrNotFound.
func (s *HabitService) Get(ctx context.Context, userID, id int64) (domain.Habit, error) {
	return ownedHabit(ctx, s.Store, userID, id)
}

// Update applies patch to an owned habit after validating the merged result.
func (s *HabitService) Update(ctx context.Context, userID, id int64, patch domain.HabitPatch) (domain.Habit, error) {
	var updated domain.Habit
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		current, err := ownedHabit(ctx, tx, userID, id)
		if err != nil {
			return err
		}

		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			patch.Name = &name
		}
		if err := validateHabit(mergeHabit(current, patch)); err != nil {
			return err
		}

		updated, err = tx.Habits().UpdateHabit(ctx, id, patch)
		return err
	})
	return updated, err
}

// Delete removes an owned habit. Its entries stay in storage.
func (s *HabitService) Delete(ctx context.Context, userID, id int64) error {
	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := ownedHabit(ctx, tx, userID, id); err != nil {
			return err
		}
		return tx.Habits().DeleteHabit(ctx, id)
	})
}

func ownedHabit(ctx context.Context, st store.Store, userID, id int64) (domain.Habit, error) {
	h, err := st.Habits().GetHabit(ctx, id)
	if err != nil {
		return domain.Habit{}, err
	}
	if h.UserID != userID {
		return domain.Habit{}, store.ErrNotFound
	}
	return h, nil
}

func mergeHabit(h domain.Habit, p domain.HabitPatch) domain.Habit {
	if p.Name != nil {
		h.Name = *p.Name
	}
	if p.Description != nil {
		h.Description = p.Description
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
		h.ReminderTime = p.ReminderTime
	}
	return h
}

func validateHabit(h domain.Habit) error {
	if h.Name == "" {
		return invalidf("name is required")
	}
	if len(h.Name) > MaxHabitNameLength {
		return invalidf("name must be at most %d characters", MaxHabitNameLength)
	}
	if !h.Frequency.Valid() {
		return invalidf("frequency must be one of daily, weekly, monthly")
	}
	if h.TargetCount < 1 {
		return invalidf("targetCount must be at least 1")
	}
	if h.ReminderTime != nil && *h.ReminderTime != "" {
		if _, err := time.Parse(reminderTimeLayout, *h.ReminderTime); err != nil || len(*h.ReminderTime) != 5 {
			return invalidf("reminderTime must be HH:MM")
		}
	}
	if h.Reminder && (h.ReminderTime == nil || *h.ReminderTime == "") {
		return invalidf("reminderTime is required when reminder is enabled")
	}
	return nil
}
