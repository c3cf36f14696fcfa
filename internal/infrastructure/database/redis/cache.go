package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/clauselens/clauselens/internal/infrastructure/monitoring/logging"
	apperrors "github.com/clauselens/clauselens/pkg/errors"
)

const (
	defaultKeyPrefix = "clauselens:"
	defaultTTL       = 15 * time.Minute

	// nullSentinel caches the absence of a value so repeated misses do not
	// keep hitting the loader.
	nullSentinel = "__null__"
)

// ErrCacheMiss is returned by Get when the key does not exist.
var ErrCacheMiss = apperrors.New(apperrors.ErrCodeNotFound, "cache miss")

// Cache is the application-facing caching contract.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)
	Ping(ctx context.Context) error
}

type cache struct {
	client  *Client
	logger  logging.Logger
	prefix  string
	ttl     time.Duration
	loaders singleflight.Group
}

// Option customizes cache construction.
type Option func(*cache)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *cache) { c.prefix = prefix }
}

// WithDefaultTTL overrides the TTL used when Set or GetOrSet receive ttl <= 0.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *cache) { c.ttl = ttl }
}

// NewCache builds a JSON-serializing cache over the Redis client.
func NewCache(client *Client, log logging.Logger, opts ...Option) Cache {
	c := &cache{
		client: client,
		logger: log.Named("cache"),
		prefix: defaultKeyPrefix,
		ttl:    defaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *cache) key(k string) string { return c.prefix + k }

// jitterTTL spreads expirations by +/-10% so hot keys do not expire together.
func jitterTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	jitter := time.Duration(rand.Int63n(int64(ttl) / 5))
	return ttl - ttl/10 + jitter
}

func (c *cache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, err := c.client.Raw().Get(ctx, c.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "cache get failed")
	}
	if raw == nullSentinel {
		return ErrCacheMiss
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to decode cached value")
	}
	return nil
}

func (c *cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode cache value")
	}
	if err := c.client.Raw().Set(ctx, c.key(key), payload, jitterTTL(ttl)).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "cache set failed")
	}
	return nil
}

func (c *cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if err := c.client.Raw().Del(ctx, full...).Err(); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeCacheError, "cache delete failed")
	}
	return nil
}

func (c *cache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Raw().Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrCodeCacheError, "cache exists failed")
	}
	return n > 0, nil
}

// GetOrSet reads key from the cache, falling back to loader on a miss.
// Concurrent misses for the same key share a single loader call.
func (c *cache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, loader func(ctx context.Context) (interface{}, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return err
	}

	raw, err, _ := c.loaders.Do(c.key(key), func() (interface{}, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if value == nil {
			if err := c.client.Raw().Set(ctx, c.key(key), nullSentinel, jitterTTL(c.ttl)).Err(); err != nil {
				c.logger.Warn("failed to cache null sentinel", logging.String("key", key), logging.Err(err))
			}
			return nil, ErrCacheMiss
		}
		if err := c.Set(ctx, key, value, ttl); err != nil {
			// A write failure should not fail the read path.
			c.logger.Warn("failed to populate cache", logging.String("key", key), logging.Err(err))
		}
		return value, nil
	})
	if err != nil {
		return err
	}

	// Round-trip through JSON so every caller gets the same shape regardless
	// of whether the value came from Redis or the loader.
	payload, err := json.Marshal(raw)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode loaded value")
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to decode loaded value")
	}
	return nil
}

// DeleteByPrefix removes all keys under the given application prefix using
// cursor-based SCAN, returning the number of deleted keys.
func (c *cache) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	pattern := c.key(strings.TrimSuffix(prefix, "*")) + "*"
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.client.Raw().Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, apperrors.Wrap(err, apperrors.ErrCodeCacheError, "cache scan failed")
		}
		if len(keys) > 0 {
			n, err := c.client.Raw().Del(ctx, keys...).Result()
			if err != nil {
				return deleted, apperrors.Wrap(err, apperrors.ErrCodeCacheError, "cache delete failed")
			}
			deleted += int(n)
		}
		cursor = next
		if cursor == 0 {
			return deleted, nil
		}
	}
}

func (c *cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}
