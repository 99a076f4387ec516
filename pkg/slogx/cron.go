package slogx

import (
	"log/slog"

	"github.com/robfig/cron/v3"
)

type cronLogger struct {
	l *slog.Logger
}

// CronLogger adapts l to cron.Logger. Cron's chatty info lines go to debug.
func CronLogger(l *slog.Logger) cron.Logger {
	return cronLogger{l: l.With("component", "cron")}
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error(msg, append(keysAndValues, "err", err)...)
}
