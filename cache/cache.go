package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when a key is not cached.
var ErrMiss = errors.New("cache miss")

// Default lifetimes for the booking read paths. The doctors list changes
// rarely; free-slot listings are invalidated on every book/cancel anyway,
// the TTL only bounds staleness if an invalidation is lost.
const (
	DoctorsTTL = 5 * time.Minute
	SlotsTTL   = 30 * time.Second
)

type Cache struct {
	redis  *redis.Client
	prefix string
}

func NewCache(redis *redis.Client, prefix string) *Cache {
	return &Cache{
		redis:  redis,
		prefix: prefix,
	}
}

// DoctorsKey caches the public list of available doctors.
func DoctorsKey() string {
	return "doctors"
}

// SlotsKey caches the free-slot listing of one doctor on one date.
func SlotsKey(doctorID, dateKey string) string {
	return fmt.Sprintf("slots:%s:%s", doctorID, dateKey)
}

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.redis.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return errors.Wrap(err, "failed to get from cache")
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return errors.Wrap(err, "failed to unmarshal cached data")
	}
	return nil
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "failed to marshal data for cache")
	}

	if err := c.redis.Set(ctx, c.prefix+key, data, expiration).Err(); err != nil {
		return errors.Wrap(err, "failed to set cache")
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if err := c.redis.Del(ctx, c.prefix+key).Err(); err != nil {
			return errors.Wrap(err, "failed to delete from cache")
		}
	}
	return nil
}

func (c *Cache) Clear(ctx context.Context) error {
	iter := c.redis.Scan(ctx, 0, c.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.redis.Del(ctx, iter.Val()).Err(); err != nil {
			return errors.Wrap(err, "failed to clear cache")
		}
	}
	return errors.Wrap(iter.Err(), "failed to iterate over cache keys")
}
