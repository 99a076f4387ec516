package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/store"
)

func now() time.Time { return time.Now().UTC() }

func sortedByID[T any](m map[int64]T, keep func(T) bool) []T {
	ids := make([]int64, 0, len(m))
	for id, v := range m {
		if keep == nil || keep(v) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

func strPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Users

type usersRepo struct{ b backend }

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (u domain.User, err error) {
	err = r.b.view(func(st *state) error {
		var ok bool
		if u, ok = st.users[id]; !ok {
			return store.ErrNotFound
		}
		return nil
	})
	return u, err
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (u domain.User, err error) {
	err = r.b.view(func(st *state) error {
		for _, candidate := range st.users {
			if candidate.Username == username {
				u = candidate
				return nil
			}
		}
		return store.ErrNotFound
	})
	return u, err
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	err := r.b.update(func(st *state) error {
		for _, existing := range st.users {
			if existing.Username == u.Username {
				return store.ErrAlreadyExists
			}
		}
		u.ID = st.id()
		u.CreatedAt = now()
		u.ExternalHandle = strPtr(u.ExternalHandle)
		st.users[u.ID] = u
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (r *usersRepo) UpdateUser(ctx context.Context, id int64, patch domain.UserPatch) (u domain.User, err error) {
	err = r.b.update(func(st *state) error {
		var ok bool
		if u, ok = st.users[id]; !ok {
			return store.ErrNotFound
		}
		if patch.IsAdmin != nil {
			u.IsAdmin = *patch.IsAdmin
		}
		if patch.ExternalHandle != nil {
			u.ExternalHandle = strPtr(patch.ExternalHandle)
		}
		st.users[id] = u
		return nil
	})
	return u, err
}

func (r *usersRepo) ListUsers(ctx context.Context) (users []domain.User, err error) {
	err = r.b.view(func(st *state) error {
		users = sortedByID(st.users, nil)
		return nil
	})
	return users, err
}

// Habits

type habitsRepo struct{ b backend }

func (r *habitsRepo) CreateHabit(ctx context.Context, h domain.Habit) (domain.Habit, error) {
	err := r.b.update(func(st *state) error {
		if _, ok := st.users[h.UserID]; !ok {
			return store.ErrNotFound
		}
		h.ID = st.id()
		h.CreatedAt = now()
		h.Description = strPtr(h.Description)
		h.ReminderTime = strPtr(h.ReminderTime)
		st.habits[h.ID] = h
		return nil
	})
	if err != nil {
		return domain.Habit{}, err
	}
	return h, nil
}

func (r *habitsRepo) GetHabit(ctx context.Context, id int64) (h domain.Habit, err error) {
	err = r.b.view(func(st *state) error {
		var ok bool
		if h, ok = st.habits[id]; !ok {
			return store.ErrNotFound
		}
		return nil
	})
	return h, err
}

func (r *habitsRepo) ListUserHabits(ctx context.Context, userID int64) (habits []domain.Habit, err error) {
	err = r.b.view(func(st *state) error {
		habits = sortedByID(st.habits, func(h domain.Habit) bool { return h.UserID == userID })
		return nil
	})
	return habits, err
}

func (r *habitsRepo) ListReminderHabits(ctx context.Context) (habits []domain.Habit, err error) {
	err = r.b.view(func(st *state) error {
		habits = sortedByID(st.habits, func(h domain.Habit) bool {
			return h.Reminder && h.ReminderTime != nil && *h.ReminderTime != ""
		})
		return nil
	})
	return habits, err
}

func (r *habitsRepo) UpdateHabit(ctx context.Context, id int64, p domain.HabitPatch) (h domain.Habit, err error) {
	err = r.b.update(func(st *state) error {
		var ok bool
		if h, ok = st.habits[id]; !ok {
			return store.ErrNotFound
		}
		if p.Name != nil {
			h.Name = *p.Name
		}
		if p.Description != nil {
			h.Description = strPtr(p.Description)
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
			h.ReminderTime = strPtr(p.ReminderTime)
		}
		st.habits[id] = h
		return nil
	})
	return h, err
}

func (r *habitsRepo) DeleteHabit(ctx context.Context, id int64) error {
	return r.b.update(func(st *state) error {
		if _, ok := st.habits[id]; !ok {
			return store.ErrNotFound
		}
		delete(st.habits, id)
		return nil
	})
}

// Entries

type entriesRepo struct{ b backend }

func sortEntries(entries []domain.Entry) {
	slices.SortStableFunc(entries, func(a, b domain.Entry) int {
		if c := a.CompletedAt.Compare(b.CompletedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func (r *entriesRepo) CreateEntry(ctx context.Context, e domain.Entry) (domain.Entry, error) {
	err := r.b.update(func(st *state) error {
		if _, ok := st.users[e.UserID]; !ok {
			return store.ErrNotFound
		}
		e.ID = st.id()
		if e.CompletedAt.IsZero() {
			e.CompletedAt = now()
		}
		e.CompletedAt = e.CompletedAt.UTC()
		e.Note = strPtr(e.Note)
		st.entries[e.ID] = e
		return nil
	})
	if err != nil {
		return domain.Entry{}, err
	}
	return e, nil
}

func (r *entriesRepo) GetEntry(ctx context.Context, id int64) (e domain.Entry, err error) {
	err = r.b.view(func(st *state) error {
		var ok bool
		if e, ok = st.entries[id]; !ok {
			return store.ErrNotFound
		}
		return nil
	})
	return e, err
}

func (r *entriesRepo) ListHabitEntries(ctx context.Context, habitID int64) (entries []domain.Entry, err error) {
	err = r.b.view(func(st *state) error {
		entries = sortedByID(st.entries, func(e domain.Entry) bool { return e.HabitID == habitID })
		return nil
	})
	sortEntries(entries)
	return entries, err
}

func (r *entriesRepo) ListUserEntries(ctx context.Context, userID int64) (entries []domain.Entry, err error) {
	err = r.b.view(func(st *state) error {
		entries = sortedByID(st.entries, func(e domain.Entry) bool { return e.UserID == userID })
		return nil
	})
	sortEntries(entries)
	return entries, err
}

func (r *entriesRepo) DeleteEntry(ctx context.Context, id int64) error {
	return r.b.update(func(st *state) error {
		if _, ok := st.entries[id]; !ok {
			return store.ErrNotFound
		}
		delete(st.entries, id)
		return nil
	})
}

// Notifications

type notificationsRepo struct{ b backend }

func (r *notificationsRepo) CreateNotification(ctx context.Context, in domain.NewNotification) (n domain.Notification, err error) {
	err = r.b.update(func(st *state) error {
		n = domain.Notification{
			ID:        st.id(),
			UserID:    in.UserID,
			HabitID:   in.HabitID,
			Type:      in.Type,
			Message:   in.Message,
			CreatedAt: now(),
		}
		st.notifications[n.ID] = n
		return nil
	})
	return n, err
}

func (r *notificationsRepo) ListPendingNotifications(ctx context.Context) (out []domain.Notification, err error) {
	err = r.b.view(func(st *state) error {
		out = sortedByID(st.notifications, func(n domain.Notification) bool { return !n.Sent })
		return nil
	})
	return out, err
}

func (r *notificationsRepo) MarkNotificationSent(ctx context.Context, id int64) error {
	return r.b.update(func(st *state) error {
		if n, ok := st.notifications[id]; ok && !n.Sent {
			n.Sent = true
			st.notifications[id] = n
		}
		return nil
	})
}

func (r *notificationsRepo) ListNotifications(ctx context.Context) (out []domain.Notification, err error) {
	err = r.b.view(func(st *state) error {
		out = sortedByID(st.notifications, nil)
		return nil
	})
	slices.Reverse(out)
	return out, err
}

// Settings

type settingsRepo struct{ b backend }

func (r *settingsRepo) GetSystemSettings(ctx context.Context) (s domain.SystemSettings, err error) {
	err = r.b.view(func(st *state) error {
		if st.settings == nil {
			s = domain.DefaultSystemSettings()
			return nil
		}
		s = *st.settings
		s.TelegramBotToken = strPtr(s.TelegramBotToken)
		return nil
	})
	return s, err
}

func (r *settingsRepo) UpdateSystemSettings(ctx context.Context, patch domain.SettingsPatch) (s domain.SystemSettings, err error) {
	err = r.b.update(func(st *state) error {
		current := domain.DefaultSystemSettings()
		if st.settings != nil {
			current = *st.settings
		}
		s = patch.Apply(current)
		s.UpdatedAt = now()
		stored := s
		st.settings = &stored
		return nil
	})
	return s, err
}

// Stats

type statsRepo struct{ b backend }

func (r *statsRepo) GetSystemStats(ctx context.Context) (s domain.SystemStats, err error) {
	err = r.b.view(func(st *state) error {
		s = domain.SystemStats{
			TotalUsers:   len(st.users),
			TotalHabits:  len(st.habits),
			TotalEntries: len(st.entries),
		}
		return nil
	})
	return s, err
}
