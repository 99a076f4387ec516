// Package telegram is the messaging transport for notifications. It also
// answers the /start and /connect commands that link a chat to an account.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/aussiebroadwan/habits/internal/habits/dispatch"
	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/store"
	"github.com/aussiebroadwan/habits/pkg/idx"
	"github.com/aussiebroadwan/habits/pkg/slogx"
)

const (
	WelcomeReply      = "Welcome to HabitTracker! Please use /connect <username> to link your account."
	UserNotFoundReply = "User not found."
	ConnectedReply    = "Successfully connected! You will now receive habit reminders here."
	ConnectUsageReply = "Usage: /connect <username>"
	ConnectErrorReply = "Something went wrong, please try again later."
)

// Linker stores a chat id against the named account.
type Linker interface {
	LinkHandle(ctx context.Context, username, handle string) (domain.User, error)
}

// Manager owns the live bot. The bot is rebuilt in place when the token
// changes, and Send reports dispatch.ErrNoTransport while there is none.
type Manager struct {
	linker      Linker
	logger      *slog.Logger
	pollTimeout time.Duration

	// newBot builds a bot from settings. It talks to the Bot API and may
	// block, so it is never called with mu held.
	newBot func(tele.Settings) (*tele.Bot, error)

	// reloadMu serialises Reload and Stop. mu guards the live bot and is
	// only held for field swaps, so Send never waits on a reload.
	reloadMu sync.Mutex
	mu       sync.Mutex
	bot      *tele.Bot
	token    string
	done     chan struct{}
}

var _ dispatch.Sender = (*Manager)(nil)

func NewManager(linker Linker, logger *slog.Logger, pollTimeout time.Duration) *Manager {
	if pollTimeout <= 0 {
		pollTimeout = 10 * time.Second
	}
	return &Manager{
		linker:      linker,
		logger:      logger.With("component", "telegram"),
		pollTimeout: pollTimeout,
		newBot:      tele.NewBot,
	}
}

// Reload switches to token. The new bot is built and started before the old
// one, if any, is swapped out and stopped. An empty token leaves the manager
// without a transport, as does a token the Bot API rejects. Reloading the
// current token is a no-op.
func (m *Manager) Reload(token string) error {
	token = strings.TrimSpace(token)

	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()

	m.mu.Lock()
	unchanged := token == m.token && (token == "" || m.bot != nil)
	m.mu.Unlock()
	if unchanged {
		return nil
	}

	if token == "" {
		m.stopBot(m.swap(nil, nil, ""))
		m.logger.Info("telegram transport disabled")
		return nil
	}

	bot, err := m.newBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: m.pollTimeout},
		OnError: func(err error, c tele.Context) {
			m.logger.Warn("telegram handler error", "error", err)
		},
	})
	if err != nil {
		m.stopBot(m.swap(nil, nil, ""))
		return fmt.Errorf("telegram: create bot: %w", err)
	}

	bot.Handle("/start", func(c tele.Context) error {
		return c.Send(WelcomeReply)
	})
	bot.Handle("/connect", func(c tele.Context) error {
		return c.Send(m.connect(c.Chat().ID, c.Message().Payload))
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Start()
	}()

	m.stopBot(m.swap(bot, done, token))
	m.logger.Info("telegram polling started", "bot", bot.Me.Username)
	return nil
}

// swap installs bot as the live transport and returns the previous one.
func (m *Manager) swap(bot *tele.Bot, done chan struct{}, token string) (*tele.Bot, chan struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, oldDone := m.bot, m.done
	m.bot, m.done, m.token = bot, done, token
	return old, oldDone
}

// connect links chatID to the account named by payload and returns the reply.
func (m *Manager) connect(chatID int64, payload string) string {
	username := strings.TrimSpace(payload)
	if username == "" {
		return ConnectUsageReply
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ctx = slogx.WithContext(ctx, m.logger.With("request_id", idx.New().String()))

	_, err := m.linker.LinkHandle(ctx, username, strconv.FormatInt(chatID, 10))
	switch {
	case errors.Is(err, store.ErrNotFound):
		return UserNotFoundReply
	case err != nil:
		m.logger.Error("failed to link telegram chat", "error", err)
		return ConnectErrorReply
	}
	return ConnectedReply
}

// Send delivers message to the chat id in handle.
func (m *Manager) Send(ctx context.Context, handle, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	bot := m.bot
	m.mu.Unlock()
	if bot == nil {
		return dispatch.ErrNoTransport
	}

	chatID, err := strconv.ParseInt(handle, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: invalid chat id %q: %w", handle, err)
	}
	if _, err := bot.Send(tele.ChatID(chatID), message); err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	return nil
}

// Active reports whether a bot is running.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bot != nil
}

// Stop shuts the bot down.
func (m *Manager) Stop() {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()
	m.stopBot(m.swap(nil, nil, ""))
}

// stopBot stops a bot that is no longer live. It must not be called with mu
// held.
func (m *Manager) stopBot(bot *tele.Bot, done chan struct{}) {
	if bot == nil {
		return
	}

	go bot.Stop()

	// Long polls can hang on the network; never block for long.
	select {
	case <-done:
		m.logger.Info("telegram polling stopped")
	case <-time.After(2 * time.Second):
		m.logger.Warn("telegram polling did not stop in time")
	}
}
