package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/aussiebroadwan/habits/internal/habits/cache"
	"github.com/aussiebroadwan/habits/internal/habits/dispatch"
	"github.com/aussiebroadwan/habits/internal/habits/domain"
	httpapi "github.com/aussiebroadwan/habits/internal/habits/http"
	"github.com/aussiebroadwan/habits/internal/habits/service"
	"github.com/aussiebroadwan/habits/internal/habits/store"
	"github.com/aussiebroadwan/habits/internal/habits/telegram"
	"github.com/aussiebroadwan/habits/pkg/cryptox"
	"github.com/aussiebroadwan/habits/pkg/jwtx"
	"github.com/aussiebroadwan/habits/pkg/slogx"
)

// BuildVersion is overridden at build time with -ldflags "-X ...".
var BuildVersion = "v0.1.0"

// Application encapsulates the habits service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger
	loc    *time.Location

	// Core dependencies
	db     store.Store
	redis  *redis.Client // nil when REDIS_ADDR is unset or unreachable
	signer *jwtx.HS256

	// Services
	userService         *service.UserService
	tokenService        *service.TokenService
	habitService        *service.HabitService
	entryService        *service.EntryService
	statsService        *service.StatsService
	notificationService *service.NotificationService
	settingsService     *service.SettingsService
	reminderService     *service.ReminderService

	// Notification delivery
	telegram   *telegram.Manager
	dispatcher *dispatch.Dispatcher

	// Background context for schedulers
	runCtx    context.Context
	cancelRun context.CancelFunc

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: "habits",
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		File:    cfg.LogFile,
	})
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	app := &Application{
		cfg:    cfg,
		logger: NewLogger(cfg),
		loc:    loc,
	}
	app.runCtx, app.cancelRun = context.WithCancel(context.Background())

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	db, err := OpenStore(app.runCtx, app.cfg, app.logger)
	if err != nil {
		app.cancelRun()
		return nil, err
	}
	app.db = db

	if err := app.initSigner(); err != nil {
		app.cancelRun()
		_ = app.db.Close()
		return nil, err
	}

	app.initCache()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	if err := app.startBackground(); err != nil {
		return err
	}

	app.logger.Info("habits service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			app.stopBackground()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down habits service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.stopBackground()

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("habits service stopped")
	return nil
}

// startBackground arms the dispatcher, starts the reminder producer and
// brings up the Telegram bot if a token is configured.
func (app *Application) startBackground() error {
	ctx := slogx.WithContext(app.runCtx, app.logger)

	settings, err := app.settingsService.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	// A bad token must not keep the API down; it can be fixed in settings.
	if err := app.telegram.Reload(app.botToken(settings)); err != nil {
		app.logger.Error("failed to start telegram bot", "error", err)
	}

	if err := app.dispatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start dispatcher: %w", err)
	}
	if err := app.reminderService.Start(ctx); err != nil {
		app.dispatcher.Stop()
		return fmt.Errorf("failed to start reminders: %w", err)
	}
	return nil
}

func (app *Application) stopBackground() {
	app.reminderService.Stop()
	app.dispatcher.Stop()
	app.telegram.Stop()
	app.cancelRun()
}

// botToken prefers the token stored in settings over TELEGRAM_BOT_TOKEN.
func (app *Application) botToken(s domain.SystemSettings) string {
	if tok := strings.TrimSpace(s.Token()); tok != "" {
		return tok
	}
	return app.cfg.TelegramToken
}

func (app *Application) initSigner() error {
	secret := app.cfg.JWTSecret
	if secret == "" {
		generated, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		secret = generated
		app.logger.Warn("JWT_SECRET not set, using a random secret; sessions end on restart")
	}

	signer, err := jwtx.NewHS256([]byte(secret), app.cfg.JWTIssuer)
	if err != nil {
		return fmt.Errorf("failed to initialize token signer: %w", err)
	}
	app.signer = signer
	return nil
}

// initCache connects to Redis when configured. The service runs without the
// cache if Redis is unreachable at startup.
func (app *Application) initCache() {
	if app.cfg.RedisAddr == "" {
		return
	}

	client, err := cache.Connect(app.runCtx, cache.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})
	if err != nil {
		app.logger.Warn("redis unavailable, stats cache disabled", "error", err)
		return
	}
	app.redis = client
	app.logger.Info("redis stats cache enabled", "addr", app.cfg.RedisAddr, "ttl", app.cfg.StatsCacheTTL)
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.userService = &service.UserService{Store: app.db}
	app.tokenService = &service.TokenService{
		Signer:    app.signer,
		Issuer:    app.cfg.JWTIssuer,
		AccessTTL: app.cfg.AccessTokenTTL,
	}
	app.habitService = &service.HabitService{Store: app.db}
	app.entryService = &service.EntryService{Store: app.db, Location: app.loc}
	app.statsService = &service.StatsService{Store: app.db, Location: app.loc}
	if app.redis != nil {
		app.statsService.System = cache.NewStats(app.redis, app.db.Stats(), app.cfg.StatsCacheTTL, cache.DefaultKeyPrefix, app.logger)
	}
	app.notificationService = &service.NotificationService{Store: app.db}
	app.reminderService = service.NewReminderService(app.db, app.logger, app.loc)

	app.telegram = telegram.NewManager(app.userService, app.logger, app.cfg.TelegramPollTimeout)

	var opts []dispatch.Option
	if maxAge := app.cfg.NotificationMaxAge; maxAge > 0 {
		opts = append(opts, dispatch.WithExpiry(func(n domain.Notification, now time.Time) bool {
			return now.Sub(n.CreatedAt) > maxAge
		}))
	}
	app.dispatcher = dispatch.New(app.db, app.telegram, app.logger, opts...)

	app.settingsService = &service.SettingsService{
		Store: app.db,
		OnUpdate: []service.SettingsHook{
			func(ctx context.Context, s domain.SystemSettings) {
				app.dispatcher.Reconfigure(dispatch.ConfigFromSettings(s))
			},
			func(ctx context.Context, s domain.SystemSettings) {
				if err := app.telegram.Reload(app.botToken(s)); err != nil {
					slogx.FromContext(ctx).Error("failed to reload telegram bot", "error", err)
				}
			},
		},
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.signer,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.UserService = app.userService
	router.TokenService = app.tokenService
	router.HabitService = app.habitService
	router.EntryService = app.entryService
	router.StatsService = app.statsService
	router.NotificationService = app.notificationService
	router.SettingsService = app.settingsService
	router.Dispatcher = app.dispatcher
	router.Transport = app.telegram
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
