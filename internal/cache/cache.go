// Package cache is a small JSON cache on top of Redis used for the stats
// snapshot and pack label lookups.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/twmb/murmur3"

	"github.com/Gopher0727/StarterPacks/internal/metrics"
)

const keyPrefix = "starterpacks:"

// Cache names, also used as metric labels.
const (
	Stats  = "stats"
	Labels = "labels"
)

// Cache stores JSON values in Redis. With a nil client every lookup is a miss.
type Cache struct {
	client *redis.Client
}

func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Enabled reports whether a Redis client is attached.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Get decodes the value at key into dst. It reports false on a miss.
func (c *Cache) Get(ctx context.Context, name, key string, dst any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheMiss(name)
		return false, nil
	}
	if err != nil {
		metrics.CacheError(name)
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(val, dst); err != nil {
		// stale encoding, treated as a miss and overwritten by the next Set
		metrics.CacheMiss(name)
		return false, nil
	}
	metrics.CacheHit(name)
	return true, nil
}

// Set stores v as JSON for ttl. A non-positive ttl is a no-op.
func (c *Cache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !c.Enabled() || ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// StatsKey is the key of the stats snapshot for the given mode.
func StatsKey(strict bool) string {
	return keyPrefix + "stats:" + strconv.FormatBool(strict)
}

// LabelsKey identifies a set of pack rkeys regardless of order or
// duplicates. The set is hashed so long id lists stay short keys.
func LabelsKey(rkeys []string) string {
	ids := slices.Clone(rkeys)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	h1, h2 := murmur3.Sum128([]byte(strings.Join(ids, "\x00")))
	return fmt.Sprintf("%slabels:%d:%016x%016x", keyPrefix, len(ids), h1, h2)
}
