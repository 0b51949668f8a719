package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// FlagSource is the authoritative store behind CachedFlags.
type FlagSource interface {
	UserCreated(ctx context.Context) (bool, error)
}

// CachedFlags is a Redis read-through cache for the USER_CREATED flag.
// Only true is cached: the flag never reverts, so a cached true cannot go stale.
type CachedFlags struct {
	next   FlagSource
	rdb    *redis.Client
	key    string
	logger *slog.Logger
}

// NewCachedFlags wraps next with a Redis cache. keyPrefix namespaces the cache key.
func NewCachedFlags(next FlagSource, rdb *redis.Client, keyPrefix string, logger *slog.Logger) *CachedFlags {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedFlags{next: next, rdb: rdb, key: keyPrefix + "flag:user_created", logger: logger}
}

// UserCreated returns the cached flag when present, otherwise asks next and caches a true answer.
// Redis failures fall through to next.
func (c *CachedFlags) UserCreated(ctx context.Context) (bool, error) {
	v, err := c.rdb.Get(ctx, c.key).Result()
	switch {
	case err == nil && v == "true":
		return true, nil
	case err != nil && !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "flag cache read failed", "error", err)
	}

	created, err := c.next.UserCreated(ctx)
	if err != nil || !created {
		return created, err
	}
	if err := c.rdb.Set(ctx, c.key, "true", 0).Err(); err != nil {
		c.logger.WarnContext(ctx, "flag cache write failed", "error", err)
	}
	return true, nil
}
