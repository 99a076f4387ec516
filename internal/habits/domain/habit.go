package domain

import "time"

type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	default:
		return false
	}
}

// PeriodStart returns the start of the period containing t. Weeks start on
// Monday.
func (f Frequency) PeriodStart(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	switch f {
	case FrequencyWeekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case FrequencyMonthly:
		return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	default:
		return day
	}
}

// NextPeriod returns the start of the period following the one that starts at
// start.
func (f Frequency) NextPeriod(start time.Time) time.Time {
	switch f {
	case FrequencyWeekly:
		return start.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

type Habit struct {
	ID           int64
	UserID       int64
	Name         string
	Description  *string
	Frequency    Frequency
	TargetCount  int
	Reminder     bool
	ReminderTime *string // "HH:MM"
	CreatedAt    time.Time
}

// HabitPatch carries a partial update. Nil fields are left unchanged.
type HabitPatch struct {
	Name         *string
	Description  *string
	Frequency    *Frequency
	TargetCount  *int
	Reminder     *bool
	ReminderTime *string
}
