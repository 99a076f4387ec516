package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/habits/internal/habits/dispatch"
	"github.com/aussiebroadwan/habits/internal/habits/service"
	"github.com/aussiebroadwan/habits/internal/habits/store"
	"github.com/aussiebroadwan/habits/pkg/httpx"
	"github.com/aussiebroadwan/habits/pkg/jwtx"
	"github.com/aussiebroadwan/habits/pkg/slogx"

	_ "github.com/aussiebroadwan/habits/api/habits" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Transport reports whether a messaging transport is live.
type Transport interface {
	Active() bool
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store               store.Store
	UserService         *service.UserService
	TokenService        *service.TokenService
	HabitService        *service.HabitService
	EntryService        *service.EntryService
	StatsService        *service.StatsService
	NotificationService *service.NotificationService
	SettingsService     *service.SettingsService
	Dispatcher          *dispatch.Dispatcher
	Transport           Transport // Optional: nil when no bot is configured
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAccounts()
	r.registerHabits()
	r.registerEntries()
	r.registerStats()
	r.registerAdmin()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Habits API
//	@version		0.1.0
//	@description	Habit tracking with periodic goals, streaks, reminders and Telegram notifications.
//	@description
//	@description				Authenticate with POST /api/login and send the access token as a bearer token.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/habits
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// user wraps h for an authenticated caller.
func (r *Router) user(h http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByUser(limit),
	)
}

// admin wraps h for an authenticated caller whose stored role is admin.
func (r *Router) admin(h http.HandlerFunc) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(r.verifier),
		httpx.RequireAdmin(r.UserService.IsAdmin),
		httpx.RateLimitByUser(httpx.ModerateLimit),
	)
}

func (r *Router) registerAccounts() {
	h := &AccountHandler{
		UserService:  r.UserService,
		TokenService: r.TokenService,
	}

	// POST /api/register and /api/login - strict rate limit by IP (brute force prevention)
	r.Mux.Handle("POST /api/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /api/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("GET /api/user", r.user(h.HandleMe, httpx.LenientLimit))
}

func (r *Router) registerHabits() {
	h := &HabitHandler{HabitService: r.HabitService}

	r.Mux.Handle("POST /api/habits", r.user(h.HandleCreate, httpx.LenientLimit))
	r.Mux.Handle("GET /api/habits", r.user(h.HandleList, httpx.LenientLimit))
	r.Mux.Handle("GET /api/habits/{id}", r.user(h.HandleGet, httpx.LenientLimit))
	r.Mux.Handle("PATCH /api/habits/{id}", r.user(h.HandleUpdate, httpx.LenientLimit))
	r.Mux.Handle("DELETE /api/habits/{id}", r.user(h.HandleDelete, httpx.LenientLimit))
}

func (r *Router) registerEntries() {
	h := &EntryHandler{EntryService: r.EntryService}

	r.Mux.Handle("POST /api/entries", r.user(h.HandleCreate, httpx.LenientLimit))
	r.Mux.Handle("GET /api/entries", r.user(h.HandleList, httpx.LenientLimit))
	r.Mux.Handle("POST /api/entries/toggle", r.user(h.HandleToggle, httpx.LenientLimit))
	r.Mux.Handle("GET /api/entries/{habitId}", r.user(h.HandleListForHabit, httpx.LenientLimit))
	r.Mux.Handle("DELETE /api/entries/{id}", r.user(h.HandleDelete, httpx.LenientLimit))
}

func (r *Router) registerStats() {
	h := &StatsHandler{StatsService: r.StatsService}

	r.Mux.Handle("GET /api/stats/habits", r.user(h.HandleHabitStats, httpx.LenientLimit))
	r.Mux.Handle("GET /api/timeline", r.user(h.HandleTimeline, httpx.LenientLimit))
}

func (r *Router) registerAdmin() {
	users := &AdminUsersHandler{UserService: r.UserService}
	stats := &StatsHandler{StatsService: r.StatsService}
	notifications := &NotificationsHandler{NotificationService: r.NotificationService}
	settings := &SettingsHandler{SettingsService: r.SettingsService}
	dispatcher := &DispatcherHandler{Dispatcher: r.Dispatcher, Transport: r.Transport}

	r.Mux.Handle("GET /api/admin/users", r.admin(users.HandleList))
	r.Mux.Handle("PATCH /api/admin/users/{id}", r.admin(users.HandleUpdate))
	r.Mux.Handle("GET /api/admin/stats", r.admin(stats.HandleSystemStats))
	r.Mux.Handle("GET /api/admin/notifications", r.admin(notifications.HandleList))
	r.Mux.Handle("GET /api/admin/settings", r.admin(settings.HandleGet))
	r.Mux.Handle("PATCH /api/admin/settings", r.admin(settings.HandleUpdate))

	if r.Dispatcher != nil {
		r.Mux.Handle("GET /api/admin/dispatcher", r.admin(dispatcher.HandleStatus))
		r.Mux.Handle("POST /api/admin/dispatcher/run", r.admin(dispatcher.HandleRun))
	}
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.Dispatcher),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
