// Package cache is an optional caller-side cache for screening
// results. The engine itself never caches: every Screen call reflects
// the current store snapshot. Deployments that accept a staleness
// window enable this layer in front of the API handlers.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/meridianfin/tradegate/pkg/models"
)

// DefaultTTL bounds staleness of cached screening results.
const DefaultTTL = 24 * time.Hour

const screeningKey = "tradegate:screening:%s:%s:%s" // type:country:name

// Config holds the redis connection and TTL settings.
type Config struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// ScreeningCache stores screening results keyed by entity identity.
// Cache faults are soft: a miss or a redis error just falls through to
// a fresh screening.
type ScreeningCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	logger *zap.SugaredLogger
}

// New connects a screening cache.
func New(cfg Config, logger *zap.SugaredLogger) *ScreeningCache {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &ScreeningCache{client: client, ttl: ttl, logger: logger}
}

func key(entity models.Entity) string {
	return fmt.Sprintf(screeningKey, entity.Type, entity.Country, entity.Name)
}

// Get returns a cached result, or false on miss or cache fault.
func (c *ScreeningCache) Get(ctx context.Context, entity models.Entity) (models.ScreeningResult, bool) {
	raw, err := c.client.Get(ctx, key(entity)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warnw("screening cache read failed", "entity", entity.Name, "error", err)
		}
		return models.ScreeningResult{}, false
	}

	var result models.ScreeningResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.logger.Warnw("screening cache entry corrupt, dropping", "entity", entity.Name, "error", err)
		c.client.Del(ctx, key(entity))
		return models.ScreeningResult{}, false
	}
	return result, true
}

// Put stores a fresh result under the configured TTL. Failures are
// logged and ignored; caching is best effort.
func (c *ScreeningCache) Put(ctx context.Context, entity models.Entity, result models.ScreeningResult) {
	raw, err := json.Marshal(result)
	if err != nil {
		c.logger.Warnw("screening cache encode failed", "entity", entity.Name, "error", err)
		return
	}
	if err := c.client.Set(ctx, key(entity), raw, c.ttl).Err(); err != nil {
		c.logger.Warnw("screening cache write failed", "entity", entity.Name, "error", err)
	}
}

// Close releases the redis connection.
func (c *ScreeningCache) Close() error { return c.client.Close() }
