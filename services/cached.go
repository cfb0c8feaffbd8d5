package services

import (
	"ClinicDesk/cache"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	entityCacheExpiry = 10 * time.Minute
	lockExpiry        = 10 * time.Second
	lockRetries       = 3
	lockRetryDelay    = 200 * time.Millisecond
)

func clinicCacheKey(id string) string  { return "clinic_cache:" + id }
func patientCacheKey(id string) string { return "patient_cache:" + id }
func invoiceCacheKey(id string) string { return "invoice_cache:" + id }

// readThrough serves key from Redis when present, otherwise calls load and
// caches a non-nil result. Cache failures are logged and never returned.
func readThrough[T any](ctx context.Context, c *cache.Cache, log *zap.Logger, key string, load func() (*T, error)) (*T, error) {
	if cached, err := c.Get(ctx, key); err != nil {
		log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	} else if cached != "" {
		var value T
		if err := json.Unmarshal([]byte(cached), &value); err == nil {
			return &value, nil
		}
		log.Warn("discarding malformed cache entry", zap.String("key", key))
	}

	value, err := load()
	if err != nil || value == nil {
		return value, err
	}
	if data, err := json.Marshal(value); err == nil {
		if err := c.Set(ctx, key, data, entityCacheExpiry); err != nil {
			log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return value, nil
}

// invalidate drops keys after a commit. Stale entries expire on their own,
// so failures are only logged.
func invalidate(ctx context.Context, c *cache.Cache, log *zap.Logger, keys ...string) {
	if err := c.Delete(ctx, keys...); err != nil {
		log.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// withLock runs fn while holding the named Redis lock, retrying acquisition
// a few times before giving up.
func withLock(ctx context.Context, c *cache.Cache, log *zap.Logger, key string, fn func() error) error {
	value := uuid.NewString()
	var locked bool
	var err error
	for i := 0; i < lockRetries; i++ {
		locked, err = c.Lock(ctx, key, value, lockExpiry)
		if err == nil && locked {
			break
		}
		if i < lockRetries-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(lockRetryDelay):
			}
		}
	}
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !locked {
		return invalidState("Another request is in progress, please retry")
	}
	defer func() {
		if err := c.Unlock(ctx, key, value); err != nil {
			log.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}()
	return fn()
}
