package service

import (
	"context"
	"math"
	"time"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/store"
)

type HabitStats struct {
	Habit domain.Habit

	// PeriodCount is the number of entries in the current period.
	PeriodCount int

	// CompletionRate is PeriodCount against the target, capped at 100.
	CompletionRate float64

	// Streak counts consecutive periods, ending with the current one, that
	// met the target. An unfinished current period does not break it.
	Streak int

	TotalEntries int
}

type TimelineRow struct {
	Habit domain.Habit
	Done  [7]bool
}

// Timeline is one Monday-start week.
type Timeline struct {
	Start time.Time
	Days  [7]time.Time
	Rows  []TimelineRow
}

type StatsService struct {
	Store    store.Store
	Location *time.Location
	Now      func() time.Time

	// System overrides Store.Stats(), for example with a cache.
	System store.Stats
}

func (s *StatsService) loc() *time.Location {
	if s.Location == nil {
		return time.UTC
	}
	return s.Location
}

func (s *StatsService) now() time.Time {
	if s.Now == nil {
		return time.Now().In(s.loc())
	}
	return s.Now().In(s.loc())
}

// ParseWeek parses a YYYY-MM-DD day, or returns today for "".
func (s *StatsService) ParseWeek(v string) (time.Time, error) {
	if v == "" {
		return s.now(), nil
	}
	return parseDay(v, s.loc())
}

func (s *StatsService) HabitStats(ctx context.Context, userID int64) ([]HabitStats, error) {
	habits, err := s.Store.Habits().ListUserHabits(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.Store.Entries().ListUserEntries(ctx, userID)
	if err != nil {
		return nil, err
	}

	byHabit := make(map[int64][]domain.Entry, len(habits))
	for _, e := range entries {
		byHabit[e.HabitID] = append(byHabit[e.HabitID], e)
	}

	now := s.now()
	out := make([]HabitStats, 0, len(habits))
	for _, h := range habits {
		hs := byHabit[h.ID]
		count := countInPeriod(hs, h, h.Frequency.PeriodStart(now))
		out = append(out, HabitStats{
			Habit:          h,
			PeriodCount:    count,
			CompletionRate: completionRate(count, h.TargetCount),
			Streak:         streak(hs, h, now),
			TotalEntries:   len(hs),
		})
	}
	return out, nil
}

func completionRate(count, target int) float64 {
	if target < 1 {
		target = 1
	}
	return math.Min(100, float64(count)/float64(target)*100)
}

func streak(entries []domain.Entry, h domain.Habit, now time.Time) int {
	counts := make(map[int64]int)
	for _, e := range entries {
		p := h.Frequency.PeriodStart(e.CompletedAt.In(now.Location()))
		counts[p.Unix()]++
	}

	p := h.Frequency.PeriodStart(now)
	if counts[p.Unix()] < h.TargetCount {
		p = previousPeriod(h.Frequency, p)
	}

	n := 0
	for counts[p.Unix()] >= h.TargetCount && n <= len(entries) {
		n++
		p = previousPeriod(h.Frequency, p)
	}
	return n
}

func previousPeriod(f domain.Frequency, start time.Time) time.Time {
	return f.PeriodStart(start.Add(-time.Nanosecond))
}

// Timeline returns the Monday-start week containing day with one row per
// habit of userID.
func (s *StatsService) Timeline(ctx context.Context, userID int64, day time.Time) (Timeline, error) {
	start := domain.FrequencyWeekly.PeriodStart(day.In(s.loc()))

	habits, err := s.Store.Habits().ListUserHabits(ctx, userID)
	if err != nil {
		return Timeline{}, err
	}
	entries, err := s.Store.Entries().ListUserEntries(ctx, userID)
	if err != nil {
		return Timeline{}, err
	}

	tl := Timeline{Start: start, Rows: make([]TimelineRow, 0, len(habits))}
	for i := range tl.Days {
		tl.Days[i] = start.AddDate(0, 0, i)
	}

	index := make(map[int64]int, len(habits))
	for i, h := range habits {
		index[h.ID] = i
		tl.Rows = append(tl.Rows, TimelineRow{Habit: h})
	}
	for _, e := range entries {
		i, ok := index[e.HabitID]
		if !ok {
			continue
		}
		for d, dayStart := range tl.Days {
			if e.SameDay(dayStart) {
				tl.Rows[i].Done[d] = true
			}
		}
	}
	return tl, nil
}

// SystemStats returns the admin dashboard counts.
func (s *StatsService) SystemStats(ctx context.Context) (domain.SystemStats, error) {
	if s.System != nil {
		return s.System.GetSystemStats(ctx)
	}
	return s.Store.Stats().GetSystemStats(ctx)
}
