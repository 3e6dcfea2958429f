package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/Istiyak4099/Airdrop/config"
)

const defaultTTL = 5 * time.Minute

// Cache is a read-through Redis cache. A disabled cache calls the loader
// every time, so callers never branch on whether Redis is configured.
type Cache struct {
	client  *redis.Client
	enabled bool
	ttl     time.Duration
	logger  *slog.Logger
	group   singleflight.Group
}

// New connects to Redis when cfg.Host is set. A failed ping logs and returns
// a disabled cache rather than an error.
func New(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) *Cache {
	c := &Cache{ttl: cfg.TTL, logger: logger}
	if c.ttl <= 0 {
		c.ttl = defaultTTL
	}
	if !cfg.Enabled() {
		logger.Info("redis not configured, caching disabled")
		return c
	}

	c.client = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Username: cfg.Username,
		Password: cfg.Password,
	})

	if _, err := c.client.Ping(ctx).Result(); err != nil {
		logger.Warn("redis connection failed, caching disabled", "addr", cfg.Addr(), "error", err)
		return c
	}
	c.enabled = true
	logger.Info("redis connected successfully", "addr", cfg.Addr())
	return c
}

// Disabled returns a cache that always loads from the source.
func Disabled(logger *slog.Logger) *Cache {
	return &Cache{ttl: defaultTTL, logger: logger}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

// PageKey is the cache key of a page credential.
func PageKey(pageID string) string {
	return fmt.Sprintf("page:%s:credential", pageID)
}

// ProfileKey is the cache key of a business profile.
func ProfileKey(accountID string) string {
	return fmt.Sprintf("profile:%s:business", accountID)
}

// GetOrLoad returns the cached value for key or calls load on a miss.
// Concurrent misses for the same key share one load.
func GetOrLoad[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	if !c.Enabled() {
		return load(ctx)
	}

	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			c.logger.Debug("cache hit", "key", key)
			return v, nil
		}
	} else if err != redis.Nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
	}

	c.logger.Debug("cache miss", "key", key)
	res, err, _ := c.group.Do(key, func() (any, error) {
		v, err := load(ctx)
		if err != nil {
			return v, err
		}
		c.store(ctx, key, v)
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

func (c *Cache) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("failed to cache value", "key", key, "error", err)
	}
}

// Invalidate removes key. It is a no-op when the cache is disabled.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Del(ctx, key).Err()
}

func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// CustomerNameKey is the cache key of a customer's Graph display name.
func CustomerNameKey(pageID, psid string) string {
	return fmt.Sprintf("customer:%s:%s:name", pageID, psid)
}
