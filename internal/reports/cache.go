package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps rendered reports in Redis for a short TTL. A nil Cache (or a
// cache without a client) degrades to calling the loader every time.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Fetch loads a cached report or populates it using the loader.
func (c *Cache) Fetch(ctx context.Context, key string, loader func(context.Context) (Report, error)) (Report, error) {
	if loader == nil {
		return Report{}, errors.New("reports: cache loader required")
	}
	if c == nil || c.client == nil {
		return loader(ctx)
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var report Report
		if err := json.Unmarshal(payload, &report); err == nil {
			return report, nil
		}
		// A corrupt entry falls through to a rebuild.
	} else if !errors.Is(err, redis.Nil) {
		return Report{}, err
	}

	report, err := loader(ctx)
	if err != nil {
		return Report{}, err
	}
	raw, err := json.Marshal(report)
	if err != nil {
		return Report{}, err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return Report{}, err
	}
	return report, nil
}

// Invalidate drops the cached reports for a shop.
func (c *Cache) Invalidate(ctx context.Context, shopID int64) error {
	if c == nil || c.client == nil {
		return nil
	}
	iter := c.client.Scan(ctx, 0, fmt.Sprintf("reports:%d:*", shopID), 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func cacheKey(shopID int64, from, to time.Time) string {
	return fmt.Sprintf("reports:%d:%s:%s", shopID, from.Format("20060102"), to.Format("20060102"))
}
