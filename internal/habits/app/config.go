package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported DATABASE_DRIVER values.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port                int           // HTTP server port (default: 8080)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	LogFile             string        // Optional: also write logs to this rotated file
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	DatabaseDriver  string        // sqlite, postgres or memory (default: sqlite)
	DatabaseFile    string        // SQLite database file (default: ./habits.db)
	DatabaseURL     string        // Postgres DSN, required for the postgres driver
	DatabaseMaxOpen int           // Postgres pool size (default: 10)
	DatabaseMaxLife time.Duration // Postgres connection lifetime (default: 30m)
	PepperFile      string        // File holding the password pepper (default: ./pepper)

	JWTSecret      string        // Optional: HMAC secret; a random one is generated when unset
	JWTIssuer      string        // Token issuer (default: habits)
	AccessTokenTTL time.Duration // Access token lifetime (default: 24h)

	TelegramToken       string        // Optional: used when no token is stored in settings
	TelegramPollTimeout time.Duration // Long poll timeout (default: 10s)

	RedisAddr     string        // Optional: enables the admin stats cache
	RedisPassword string        // Optional
	RedisDB       int           // Redis database number (default: 0)
	StatsCacheTTL time.Duration // Admin stats cache lifetime (default: 30s)

	ReminderTimezone   string        // IANA zone for reminder times and calendar days (default: UTC)
	NotificationMaxAge time.Duration // Optional: pending notifications older than this expire (default: never)
}

// LoadConfig reads the environment. A .env file in the working directory is
// loaded first; variables already set take precedence over it.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		Port:                getEnvIntOrDefault("PORT", 8080),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		LogFile:             os.Getenv("LOG_FILE"),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),

		DatabaseDriver:  strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", DriverSQLite)),
		DatabaseFile:    getEnvOrDefault("DATABASE_FILE", "habits.db"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		DatabaseMaxOpen: getEnvIntOrDefault("DATABASE_MAX_OPEN_CONNS", 10),
		DatabaseMaxLife: getEnvDurationOrDefault("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		PepperFile:      getEnvOrDefault("PEPPER_FILE", "pepper"),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTIssuer:      getEnvOrDefault("JWT_ISSUER", "habits"),
		AccessTokenTTL: getEnvDurationOrDefault("ACCESS_TOKEN_TTL", 24*time.Hour),

		TelegramToken:       os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramPollTimeout: getEnvDurationOrDefault("TELEGRAM_POLL_TIMEOUT", 10*time.Second),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvIntOrDefault("REDIS_DB", 0),
		StatsCacheTTL: getEnvDurationOrDefault("STATS_CACHE_TTL", 30*time.Second),

		ReminderTimezone:   getEnvOrDefault("REMINDER_TIMEZONE", "UTC"),
		NotificationMaxAge: getEnvDurationOrDefault("NOTIFICATION_MAX_AGE", 0),
	}
}

// Validate reports configuration that cannot start a server.
func (c Config) Validate() error {
	var errs []error
	switch c.DatabaseDriver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.DatabaseDriver))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d", c.Port))
	}
	return errors.Join(errs...)
}

// Location resolves ReminderTimezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.ReminderTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDER_TIMEZONE %q: %w", c.ReminderTimezone, err)
	}
	return loc, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
