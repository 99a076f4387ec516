// Package cache fronts expensive store reads with Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/aussiebroadwan/habits/internal/habits/domain"
	"github.com/aussiebroadwan/habits/internal/habits/store"
)

const DefaultKeyPrefix = "habits:"

type Options struct {
	Addr     string
	Password string
	DB       int
}

// Connect builds a client and pings it.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", opts.Addr, err)
	}
	return client, nil
}

type statsPayload struct {
	TotalUsers   int `json:"totalUsers"`
	TotalHabits  int `json:"totalHabits"`
	TotalEntries int `json:"totalEntries"`
}

// Stats caches the admin dashboard counts for a short TTL. Redis errors are
// logged and the read falls through to the store.
type Stats struct {
	client *redis.Client
	next   store.Stats
	ttl    time.Duration
	key    string
	logger *slog.Logger
}

var _ store.Stats = (*Stats)(nil)

func NewStats(client *redis.Client, next store.Stats, ttl time.Duration, prefix string, logger *slog.Logger) *Stats {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Stats{
		client: client,
		next:   next,
		ttl:    ttl,
		key:    prefix + "stats:system",
		logger: logger.With("component", "stats_cache"),
	}
}

func (s *Stats) GetSystemStats(ctx context.Context) (domain.SystemStats, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	switch {
	case err == nil:
		var p statsPayload
		if err := json.Unmarshal(raw, &p); err == nil {
			return domain.SystemStats(p), nil
		}
		s.logger.Warn("discarding malformed cached stats")
	case errors.Is(err, redis.Nil):
	default:
		s.logger.Warn("stats cache read failed", "error", err)
	}

	stats, err := s.next.GetSystemStats(ctx)
	if err != nil {
		return domain.SystemStats{}, err
	}

	raw, err = json.Marshal(statsPayload(stats))
	if err == nil {
		err = s.client.Set(ctx, s.key, raw, s.ttl).Err()
	}
	if err != nil {
		s.logger.Warn("stats cache write failed", "error", err)
	}
	return stats, nil
}

// Invalidate drops the cached value.
func (s *Stats) Invalidate(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}
