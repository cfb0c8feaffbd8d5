package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrNotLockOwner is returned by Unlock when the key is held by someone else.
var ErrNotLockOwner = errors.New("lock release failed: not the lock owner")

const releaseLockScript = `
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
	`

// Cache wraps a Redis client. A Cache built with a nil client is disabled:
// reads always miss, writes are dropped and locks are granted immediately.
type Cache struct {
	client *redis.Client
}

func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Enabled reports whether a Redis client backs the cache.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Set(ctx, key, value, expiration).Err()
}

// Get returns "" with a nil error when the key does not exist.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	if !c.Enabled() {
		return "", nil
	}
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// Lock acquires a best-effort distributed lock with SETNX.
func (c *Cache) Lock(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if !c.Enabled() {
		return true, nil
	}
	return c.client.SetNX(ctx, key, value, ttl).Result()
}

// Unlock releases a lock taken with Lock, only if value still owns it.
func (c *Cache) Unlock(ctx context.Context, key, value string) error {
	if !c.Enabled() {
		return nil
	}
	result, err := redis.NewScript(releaseLockScript).Run(ctx, c.client, []string{key}, value).Result()
	if err != nil {
		return err
	}
	if n, ok := result.(int64); !ok || n == 0 {
		return ErrNotLockOwner
	}
	return nil
}
