package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	"github.com/aussiebroadwan/habits/internal/habits/dispatch"
	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/store"
)

type fakeLinker struct {
	users  map[string]int64
	linked map[string]string
	err    error
}

func (f *fakeLinker) LinkHandle(ctx context.Context, username, handle string) (domain.User, error) {
	if f.err != nil {
		return domain.User{}, f.err
	}
	id, ok := f.users[username]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	f.linked[username] = handle
	return domain.User{ID: id, Username: username, ExternalHandle: &handle}, nil
}

func newTestManager(l Linker) *Manager {
	return NewManager(l, slog.New(slog.NewTextHandler(io.Discard, nil)), 0)
}

func TestConnect(t *testing.T) {
	linker := &fakeLinker{users: map[string]int64{"alice": 1}, linked: map[string]string{}}
	m := newTestManager(linker)

	require.Equal(t, ConnectedReply, m.connect(987654321, " alice "))
	require.Equal(t, "987654321", linker.linked["alice"])

	require.Equal(t, UserNotFoundReply, m.connect(1, "bob"))
	require.Equal(t, ConnectUsageReply, m.connect(1, "  "))

	linker.err = errors.New("db down")
	require.Equal(t, ConnectErrorReply, m.connect(1, "alice"))
}

func TestSendWithoutBot(t *testing.T) {
	m := newTestManager(&fakeLinker{})
	require.False(t, m.Active())

	err := m.Send(context.Background(), "42", "hello")
	require.ErrorIs(t, err, dispatch.ErrNoTransport)

	require.NoError(t, m.Reload(""))
	require.False(t, m.Active())
	m.Stop()
}

func TestSendHonoursCancelledContext(t *testing.T) {
	m := newTestManager(&fakeLinker{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, m.Send(ctx, "42", "hello"), context.Canceled)
}

// idlePoller never yields updates and returns once asked to stop.
type idlePoller struct{}

func (idlePoller) Poll(b *tele.Bot, updates chan tele.Update, stop chan struct{}) {
	<-stop
}

func TestReloadDoesNotBlockSend(t *testing.T) {
	m := newTestManager(&fakeLinker{})

	entered := make(chan struct{})
	release := make(chan struct{})
	builds := 0
	m.newBot = func(s tele.Settings) (*tele.Bot, error) {
		builds++
		close(entered)
		<-release
		s.Offline = true
		s.Poller = idlePoller{}
		return tele.NewBot(s)
	}

	reloaded := make(chan error, 1)
	go func() { reloaded <- m.Reload("123:token") }()
	<-entered

	sent := make(chan error, 1)
	go func() { sent <- m.Send(context.Background(), "42", "hello") }()
	select {
	case err := <-sent:
		require.ErrorIs(t, err, dispatch.ErrNoTransport)
	case <-time.After(time.Second):
		t.Fatal("Send waited for the bot to be built")
	}
	require.False(t, m.Active())

	close(release)
	require.NoError(t, <-reloaded)
	require.True(t, m.Active())

	require.NoError(t, m.Reload(" 123:token "))
	require.Equal(t, 1, builds)

	m.Stop()
	require.False(t, m.Active())
}

func TestReloadFailureClearsTransport(t *testing.T) {
	m := newTestManager(&fakeLinker{})
	m.newBot = func(tele.Settings) (*tele.Bot, error) {
		return nil, errors.New("unauthorized")
	}

	require.Error(t, m.Reload("bad"))
	require.False(t, m.Active())
	require.ErrorIs(t, m.Send(context.Background(), "42", "hello"), dispatch.ErrNoTransport)
}
