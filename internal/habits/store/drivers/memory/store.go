// Package memory is a process-local store.Store used for development and
// tests. Nothing survives a restart.
package memory

import (
	"context"
	"database/sql"
	"maps"
	"sync"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/store"
)

// state holds every table. IDs come from one counter shared by all tables.
type state struct {
	users         map[int64]domain.User
	habits        map[int64]domain.Habit
	entries       map[int64]domain.Entry
	notifications map[int64]domain.Notification
	settings      *domain.SystemSettings
	nextID        int64
}

func newState() *state {
	return &state{
		users:         map[int64]domain.User{},
		habits:        map[int64]domain.Habit{},
		entries:       map[int64]domain.Entry{},
		notifications: map[int64]domain.Notification{},
		nextID:        1,
	}
}

func (s *state) clone() *state {
	c := &state{
		users:         maps.Clone(s.users),
		habits:        maps.Clone(s.habits),
		entries:       maps.Clone(s.entries),
		notifications: maps.Clone(s.notifications),
		nextID:        s.nextID,
	}
	if s.settings != nil {
		settings := *s.settings
		c.settings = &settings
	}
	return c
}

func (s *state) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

// backend gives repos guarded access to a state, either the live one or a
// transaction's private copy.
type backend interface {
	view(fn func(st *state) error) error
	update(fn func(st *state) error) error
}

type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex // held by writers and for the lifetime of a tx
	st   *state
}

func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) view(fn func(st *state) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.st)
}

func (s *Store) update(fn func(st *state) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func (s *Store) ApplyMigrations() error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

// Tx takes the writer lock and works on a copy of the state until Commit
// swaps it in. Writes outside the tx block until it finishes.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.txMu.Lock()
	s.mu.RLock()
	st := s.st.clone()
	s.mu.RUnlock()
	return &txStore{root: s, st: st}, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Users() store.Users                 { return &usersRepo{b: s} }
func (s *Store) Habits() store.Habits               { return &habitsRepo{b: s} }
func (s *Store) Entries() store.Entries             { return &entriesRepo{b: s} }
func (s *Store) Notifications() store.Notifications { return &notificationsRepo{b: s} }
func (s *Store) Settings() store.Settings           { return &settingsRepo{b: s} }
func (s *Store) Stats() store.Stats                 { return &statsRepo{b: s} }

type txStore struct {
	root *Store
	mu   sync.Mutex
	st   *state
	done bool
}

func (t *txStore) view(fn func(st *state) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return sql.ErrTxDone
	}
	return fn(t.st)
}

func (t *txStore) update(fn func(st *state) error) error { return t.view(fn) }

func (t *txStore) finish(commit bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	if commit {
		t.root.mu.Lock()
		t.root.st = t.st
		t.root.mu.Unlock()
	}
	t.root.txMu.Unlock()
	return nil
}

func (t *txStore) Commit() error   { return t.finish(true) }
func (t *txStore) Rollback() error { return t.finish(false) }

func (t *txStore) ApplyMigrations() error         { return nil }
func (t *txStore) Close() error                   { return nil }
func (t *txStore) Ping(ctx context.Context) error { return nil }

func (t *txStore) Tx(ctx context.Context) (store.Tx, error) {
	return nil, sql.ErrTxDone
}

func (t *txStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return sql.ErrTxDone
}

func (t *txStore) Users() store.Users                 { return &usersRepo{b: t} }
func (t *txStore) Habits() store.Habits               { return &habitsRepo{b: t} }
func (t *txStore) Entries() store.Entries             { return &entriesRepo{b: t} }
func (t *txStore) Notifications() store.Notifications { return &notificationsRepo{b: t} }
func (t *txStore) Settings() store.Settings           { return &settingsRepo{b: t} }
func (t *txStore) Stats() store.Stats                 { return &statsRepo{b: t} }
