package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/rustyeddy/riskbench/internal/telemetry"
	"github.com/rustyeddy/riskbench/market"
)

const DefaultCachePrefix = "riskbench:bars:"

// Cached serves bars from Redis and falls through to Next on a miss. Redis
// failures are logged and treated as misses; only successful, non-empty
// fetches are stored.
type Cached struct {
	Client    redis.Cmdable
	Next      market.Provider
	Prefix    string
	TTL       time.Duration
	Log       zerolog.Logger
	Telemetry *telemetry.Metrics
}

func NewCached(client redis.Cmdable, next market.Provider, prefix string, ttl time.Duration) *Cached {
	if prefix == "" {
		prefix = DefaultCachePrefix
	}
	return &Cached{Client: client, Next: next, Prefix: prefix, TTL: ttl, Log: zerolog.Nop()}
}

// Key returns the cache key for a symbol and range.
func (c *Cached) Key(symbol string, start, end time.Time) string {
	return c.Prefix + normSymbol(symbol) + ":" + dayKey(start) + ":" + dayKey(end)
}

func dayKey(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.DateOnly)
}

func (c *Cached) Bars(ctx context.Context, symbol string, start, end time.Time) (market.Series, error) {
	key := c.Key(symbol, start, end)

	raw, err := c.Client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var s market.Series
		jerr := json.Unmarshal(raw, &s)
		if jerr == nil {
			c.Telemetry.CacheHit()
			return s, nil
		}
		c.Log.Warn().Err(jerr).Str("key", key).Msg("discarding corrupt cache entry")
	case errors.Is(err, redis.Nil):
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		c.Log.Warn().Err(err).Str("key", key).Msg("bar cache read failed")
	}
	c.Telemetry.CacheMiss()

	s, err := c.Next.Bars(ctx, symbol, start, end)
	if err != nil || len(s) == 0 {
		return s, err
	}

	data, err := json.Marshal(s)
	if err != nil {
		return s, nil
	}
	if err := c.Client.Set(ctx, key, data, c.TTL).Err(); err != nil {
		c.Log.Warn().Err(err).Str("key", key).Msg("bar cache write failed")
	}
	return s, nil
}
