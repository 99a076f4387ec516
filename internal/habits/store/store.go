package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres,
// memory) implement this. It exposes sub-repositories to keep concerns tidy
// and testable, and so a transaction can only be started from the root.
type Store interface {
	Users() Users
	Habits() Habits
	Entries() Entries
	Notifications() Notifications
	Settings() Settings
	Stats() Stats

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id int64) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a user and returns it with ID and CreatedAt set.
	// Returns ErrAlreadyExists when the username is taken.
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)

	// UpdateUser applies patch and returns the updated user, or ErrNotFound.
	UpdateUser(ctx context.Context, id int64, patch domain.UserPatch) (domain.User, error)

	// ListUsers returns every user ordered by id.
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// Habits does not check ownership; callers do.
type Habits interface {
	CreateHabit(ctx context.Context, h domain.Habit) (domain.Habit, error)
	GetHabit(ctx context.Context, id int64) (domain.Habit, error)
	ListUserHabits(ctx context.Context, userID int64) ([]domain.Habit, error)

	// ListReminderHabits returns habits with reminders switched on and a
	// reminder time set.
	ListReminderHabits(ctx context.Context) ([]domain.Habit, error)

	UpdateHabit(ctx context.Context, id int64, patch domain.HabitPatch) (domain.Habit, error)

	// DeleteHabit removes the habit. Entries are left in place.
	DeleteHabit(ctx context.Context, id int64) error
}

type Entries interface {
	// CreateEntry inserts an entry. A zero CompletedAt is set to now.
	CreateEntry(ctx context.Context, e domain.Entry) (domain.Entry, error)
	GetEntry(ctx context.Context, id int64) (domain.Entry, error)
	ListHabitEntries(ctx context.Context, habitID int64) ([]domain.Entry, error)
	ListUserEntries(ctx context.Context, userID int64) ([]domain.Entry, error)
	DeleteEntry(ctx context.Context, id int64) error
}

type Notifications interface {
	// CreateNotification stores a pending notification; ID and CreatedAt are
	// assigned here.
	CreateNotification(ctx context.Context, n domain.NewNotification) (domain.Notification, error)

	// ListPendingNotifications returns every notification with sent=false.
	// No ordering is guaranteed.
	ListPendingNotifications(ctx context.Context) ([]domain.Notification, error)

	// MarkNotificationSent flips sent to true. Already-sent or unknown ids are
	// a no-op, not an error.
	MarkNotificationSent(ctx context.Context, id int64) error

	// ListNotifications returns all notifications, newest first.
	ListNotifications(ctx context.Context) ([]domain.Notification, error)
}

type Settings interface {
	// GetSystemSettings returns the singleton, or defaults if never written.
	GetSystemSettings(ctx context.Context) (domain.SystemSettings, error)

	// UpdateSystemSettings merges patch into the singleton and returns the result.
	UpdateSystemSettings(ctx context.Context, patch domain.SettingsPatch) (domain.SystemSettings, error)
}

type Stats interface {
	GetSystemStats(ctx context.Context) (domain.SystemStats, error)
}
