// internal/aicache/cache.go
package aicache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/redis/go-redis/v9"

	"quiz-scoring/internal/models"
)

const cacheNamespace = "ai_answer:"

// CacheKey addresses model output by app and canonical choice sequence.
func CacheKey(appID int64, choices []string) string {
	sum := md5.Sum([]byte(models.EncodeChoices(choices)))
	return fmt.Sprintf("%d:%s", appID, hex.EncodeToString(sum[:]))
}

// Cache stores raw model output with a sliding TTL: every hit restarts the timer.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// RedisCache is shared by every node using the same Redis.
type RedisCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisCache(rdb redis.Cmdable, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.GetEx(ctx, cacheNamespace+key, c.ttl).Result()
	if stderrors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis getex %s: %w", key, err)
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string) error {
	if err := c.rdb.Set(ctx, cacheNamespace+key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// LocalCache keeps entries in process memory. It only deduplicates across
// nodes when requests for a key are routed to the same node.
type LocalCache struct {
	items *ttlcache.Cache[string, string]
}

// NewLocalCache starts the expiry loop; call Close to stop it.
func NewLocalCache(ttl time.Duration) *LocalCache {
	items := ttlcache.New[string, string](
		ttlcache.WithTTL[string, string](ttl),
	)
	go items.Start()
	return &LocalCache{items: items}
}

func (c *LocalCache) Get(_ context.Context, key string) (string, bool, error) {
	item := c.items.Get(key)
	if item == nil {
		return "", false, nil
	}
	return item.Value(), true, nil
}

func (c *LocalCache) Set(_ context.Context, key, value string) error {
	c.items.Set(key, value, ttlcache.DefaultTTL)
	return nil
}

func (c *LocalCache) Close() {
	c.items.Stop()
}
