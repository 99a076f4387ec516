// Package dispatch delivers pending notifications on a recurring schedule.
//
// A Dispatcher owns one cron entry. Each tick reads every unsent notification,
// resolves the recipient's external handle and hands the message to a Sender.
// Successful deliveries are marked sent; everything else stays pending and is
// picked up again on the next tick. Settings changes re-arm the entry through
// Reconfigure without restarting the process.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/store"
	"github.com/aussiebroadwan/habits/pkg/idx"
	"github.com/aussiebroadwan/habits/pkg/slogx"
)

// ErrNoTransport is returned by a Sender that has no live transport, for
// example when no bot token is configured.
var ErrNoTransport = errors.New("dispatch: no transport configured")

// Sender delivers a message to an external handle. A nil error means the
// transport accepted the message.
type Sender interface {
	Send(ctx context.Context, handle, message string) error
}

// ExpiryFunc reports whether a pending notification should no longer be
// attempted. Expired notifications are reported but left in storage.
type ExpiryFunc func(n domain.Notification, now time.Time) bool

// Config is the scheduling configuration owned by the dispatcher.
type Config struct {
	Enabled  bool
	Interval time.Duration
}

// ConfigFromSettings derives the dispatcher configuration from the stored
// settings singleton.
func ConfigFromSettings(s domain.SystemSettings) Config {
	return Config{Enabled: s.EnableNotifications, Interval: s.Interval()}
}

type State string

const (
	StateStopped State = "stopped"
	StateArmed   State = "armed"
)

// Status is a snapshot for the admin API.
type Status struct {
	State      State
	Config     Config
	NextRun    time.Time // zero when stopped
	LastReport *Report
}

type Option func(*Dispatcher)

// WithExpiry installs an expiry policy. Without one nothing ever expires.
func WithExpiry(fn ExpiryFunc) Option {
	return func(d *Dispatcher) { d.expired = fn }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) { d.now = now }
}

type Dispatcher struct {
	store   store.Store
	sender  Sender
	logger  *slog.Logger
	expired ExpiryFunc
	now     func() time.Time

	// tickMu serialises ticks. Scheduled ticks skip when it is held.
	tickMu sync.Mutex

	mu      sync.Mutex
	cfg     Config
	cron    *cron.Cron
	entry   cron.EntryID
	state   State
	runCtx  context.Context
	running bool
	last    *Report
}

// New builds a stopped dispatcher. sender may be nil, in which case every
// linked notification is skipped as having no transport.
func New(st store.Store, sender Sender, logger *slog.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "dispatcher")

	d := &Dispatcher{
		store:  st,
		sender: sender,
		logger: logger,
		now:    time.Now,
		state:  StateStopped,
		cfg: Config{
			Enabled:  true,
			Interval: domain.DefaultNotificationInterval * time.Second,
		},
	}
	cl := slogx.CronLogger(logger)
	d.cron = cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start loads the stored settings, starts the scheduler and arms the tick
// entry if notifications are enabled. ctx bounds the scheduled ticks.
func (d *Dispatcher) Start(ctx context.Context) error {
	settings, err := d.store.Settings().GetSystemSettings(ctx)
	if err != nil {
		return fmt.Errorf("dispatch: load settings: %w", err)
	}

	d.mu.Lock()
	d.runCtx = ctx
	if !d.running {
		d.cron.Start()
		d.running = true
	}
	d.mu.Unlock()

	d.Reconfigure(ConfigFromSettings(settings))
	return nil
}

// Reconfigure replaces the dispatcher configuration. The current entry is
// removed and, when enabled, a new one is scheduled so the next tick fires at
// most one interval from now. A tick already running is not interrupted.
func (d *Dispatcher) Reconfigure(cfg Config) {
	if cfg.Interval <= 0 {
		cfg.Interval = domain.DefaultNotificationInterval * time.Second
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.cfg = cfg
	if d.entry != 0 {
		d.cron.Remove(d.entry)
		d.entry = 0
	}
	if !cfg.Enabled || !d.running {
		d.state = StateStopped
		d.logger.Info("dispatcher disarmed", "enabled", cfg.Enabled)
		return
	}

	d.entry = d.cron.Schedule(cron.Every(cfg.Interval), cron.FuncJob(d.scheduledTick))
	d.state = StateArmed
	d.logger.Info("dispatcher armed", "interval", cfg.Interval)
}

// Stop removes the entry and waits for a running tick to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.entry != 0 {
		d.cron.Remove(d.entry)
		d.entry = 0
	}
	d.state = StateStopped
	wasRunning := d.running
	d.running = false
	d.mu.Unlock()

	if wasRunning {
		<-d.cron.Stop().Done()
	}
	d.logger.Info("dispatcher stopped")
}

func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Dispatcher) Config() Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// NextRun returns when the armed entry fires next.
func (d *Dispatcher) NextRun() (time.Time, bool) {
	d.mu.Lock()
	id := d.entry
	d.mu.Unlock()

	if id == 0 {
		return time.Time{}, false
	}
	e := d.cron.Entry(id)
	if !e.Valid() || e.Next.IsZero() {
		return time.Time{}, false
	}
	return e.Next, true
}

func (d *Dispatcher) Status() Status {
	next, _ := d.NextRun()

	d.mu.Lock()
	defer d.mu.Unlock()
	return Status{
		State:      d.state,
		Config:     d.cfg,
		NextRun:    next,
		LastReport: d.last,
	}
}

// Tick runs one dispatch pass now, waiting for any running tick first.
func (d *Dispatcher) Tick(ctx context.Context) Report {
	d.tickMu.Lock()
	defer d.tickMu.Unlock()
	return d.tick(ctx)
}

func (d *Dispatcher) scheduledTick() {
	if !d.tickMu.TryLock() {
		d.logger.Debug("tick skipped, previous tick still running")
		return
	}
	defer d.tickMu.Unlock()

	d.mu.Lock()
	ctx := d.runCtx
	d.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	d.tick(ctx)
}

func (d *Dispatcher) tick(ctx context.Context) Report {
	cfg := d.Config()
	rep := Report{TickID: idx.New(), StartedAt: d.now()}
	log := d.logger.With("tick_id", rep.TickID.String())

	if !cfg.Enabled {
		rep.Disabled = true
		d.finish(log, &rep)
		return rep
	}

	pending, err := d.store.Notifications().ListPendingNotifications(ctx)
	if err != nil {
		rep.Err = fmt.Errorf("list pending: %w", err)
		d.finish(log, &rep)
		return rep
	}

	for _, n := range pending {
		if ctx.Err() != nil {
			break
		}
		rep.add(d.deliver(ctx, n, rep.StartedAt, &rep.Attempts))
	}

	d.finish(log, &rep)
	return rep
}

func (d *Dispatcher) deliver(ctx context.Context, n domain.Notification, now time.Time, attempts *int) Result {
	res := Result{NotificationID: n.ID, UserID: n.UserID}

	if d.expired != nil && d.expired(n, now) {
		res.Outcome = OutcomeExpired
		return res
	}

	user, err := d.store.Users().GetUserByID(ctx, n.UserID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		res.Outcome = OutcomeSkippedNoHandle
		return res
	case err != nil:
		res.Outcome = OutcomeFailed
		res.Err = fmt.Errorf("resolve user: %w", err)
		return res
	}
	if !user.Linked() {
		res.Outcome = OutcomeSkippedNoHandle
		return res
	}
	if d.sender == nil {
		res.Outcome = OutcomeSkippedNoTransport
		return res
	}

	*attempts++
	if err := d.sender.Send(ctx, *user.ExternalHandle, n.Message); err != nil {
		if errors.Is(err, ErrNoTransport) {
			res.Outcome = OutcomeSkippedNoTransport
			return res
		}
		res.Outcome = OutcomeFailed
		res.Err = fmt.Errorf("send: %w", err)
		return res
	}

	if err := d.store.Notifications().MarkNotificationSent(ctx, n.ID); err != nil {
		// Delivered but still pending, so it will be sent again next tick.
		res.Outcome = OutcomeFailed
		res.Err = fmt.Errorf("mark sent: %w", err)
		return res
	}
	res.Outcome = OutcomeDelivered
	return res
}

func (d *Dispatcher) finish(log *slog.Logger, rep *Report) {
	rep.Duration = d.now().Sub(rep.StartedAt)

	d.mu.Lock()
	last := *rep
	d.last = &last
	d.mu.Unlock()

	switch {
	case rep.Disabled:
		log.Debug("dispatch tick skipped, notifications disabled")
	case rep.Err != nil:
		log.Error("dispatch tick failed", "err", rep.Err, "duration", rep.Duration)
	default:
		attrs := []any{
			"pending", len(rep.Results),
			"attempts", rep.Attempts,
			"delivered", rep.Delivered,
			"skipped", rep.Skipped,
			"failed", rep.Failed,
			"expired", rep.Expired,
			"duration", rep.Duration,
		}
		if rep.Failed > 0 {
			log.Warn("dispatch tick completed with failures", append(attrs, "errors", failureSummary(rep.Results))...)
			return
		}
		log.Info("dispatch tick completed", attrs...)
	}
}

func failureSummary(results []Result) map[string]string {
	out := make(map[string]string)
	for _, r := range results {
		if r.Outcome == OutcomeFailed && r.Err != nil {
			out[fmt.Sprintf("%d", r.NotificationID)] = r.Err.Error()
		}
	}
	return out
}
