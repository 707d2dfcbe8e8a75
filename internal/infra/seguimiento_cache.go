package infra

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// SeguimientoCache keeps the public tracking payload in Redis for a short TTL.
// Unauthenticated trackers poll it as the fallback of the real-time channel;
// every status transition invalidates the entry.
type SeguimientoCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSeguimientoCache(rdb *redis.Client, ttl time.Duration) *SeguimientoCache {
	return &SeguimientoCache{rdb: rdb, ttl: ttl}
}

func seguimientoKey(tracking string) string { return "seguimiento:" + tracking }

// Get decodes the cached value into dest and reports whether it was found.
func (c *SeguimientoCache) Get(ctx context.Context, tracking string, dest any) bool {
	if c == nil || c.rdb == nil {
		return false
	}
	b, err := c.rdb.Get(ctx, seguimientoKey(tracking)).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(b, dest) == nil
}

// Set is best effort; errors are ignored.
func (c *SeguimientoCache) Set(ctx context.Context, tracking string, v any) {
	if c == nil || c.rdb == nil || c.ttl <= 0 {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = c.rdb.Set(context.WithoutCancel(ctx), seguimientoKey(tracking), b, c.ttl).Err()
}

func (c *SeguimientoCache) Invalidar(ctx context.Context, tracking string) {
	if c == nil || c.rdb == nil {
		return
	}
	if err := c.rdb.Del(context.WithoutCancel(ctx), seguimientoKey(tracking)).Err(); err != nil {
		log.Warn().Err(err).Str("tracking_id", tracking).Msg("seguimiento cache: invalidate failed")
	}
}
