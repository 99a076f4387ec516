package domain

import "time"

// Entry records one completion of a habit. UserID duplicates the habit's
// owner so entries can be listed per user without a join.
type Entry struct {
	ID          int64
	HabitID     int64
	UserID      int64
	Completed   bool
	Note        *string
	CompletedAt time.Time
}

// SameDay reports whether the entry was completed on the calendar day of t,
// evaluated in t's location.
func (e Entry) SameDay(t time.Time) bool {
	ey, em, ed := e.CompletedAt.In(t.Location()).Date()
	ty, tm, td := t.Date()
	return ey == ty && em == tm && ed == td
}
