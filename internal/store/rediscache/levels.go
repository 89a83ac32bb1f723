// Package rediscache caches repairer claim levels in Redis.
package rediscache

import (
	"context"
	"strconv"
	"time"

	"repairer-search/internal/common/logger"
	"repairer-search/internal/common/metrics"
	"repairer-search/internal/search/matcher"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "repairer:level:"

func levelKey(id string) string {
	return keyPrefix + id
}

// LevelCache is a read-through ProfileStore: hits come from Redis, misses from next.
// Ids without a profile are cached as level 0.
type LevelCache struct {
	client *redis.Client
	next   matcher.ProfileStore
	ttl    time.Duration
	logger logger.Logger
}

func NewLevelCache(client *redis.Client, next matcher.ProfileStore, ttl time.Duration, log logger.Logger) *LevelCache {
	return &LevelCache{
		client: client,
		next:   next,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "level-cache"}),
	}
}

func (c *LevelCache) Levels(ctx context.Context, ids []string) (map[string]int, error) {
	levels := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return levels, nil
	}

	missing := c.lookup(ctx, ids, levels)
	if len(missing) == 0 {
		return levels, nil
	}

	found, err := c.next.Levels(ctx, missing)
	for id, lvl := range found {
		levels[id] = lvl
	}
	if err != nil {
		return levels, err
	}

	c.store(ctx, missing, found)
	return levels, nil
}

// lookup fills levels from Redis and returns the ids it could not resolve.
func (c *LevelCache) lookup(ctx context.Context, ids []string, levels map[string]int) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = levelKey(id)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		metrics.LevelCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("level cache read failed", map[string]interface{}{"error": err.Error()})
		return ids
	}

	var missing []string
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			missing = append(missing, ids[i])
			continue
		}
		lvl, err := strconv.Atoi(s)
		if err != nil {
			missing = append(missing, ids[i])
			continue
		}
		levels[ids[i]] = lvl
	}

	metrics.LevelCacheLookups.WithLabelValues("hit").Add(float64(len(ids) - len(missing)))
	metrics.LevelCacheLookups.WithLabelValues("miss").Add(float64(len(missing)))
	return missing
}

func (c *LevelCache) store(ctx context.Context, ids []string, found map[string]int) {
	pipe := c.client.Pipeline()
	for _, id := range ids {
		pipe.Set(ctx, levelKey(id), found[id], c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("level cache write failed", map[string]interface{}{
			"error": err.Error(),
			"ids":   len(ids),
		})
	}
}
