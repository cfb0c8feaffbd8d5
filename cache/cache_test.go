package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledCache(t *testing.T) {
	ctx := context.Background()
	c := New(nil)

	assert.False(t, c.Enabled())
	require.NoError(t, c.Set(ctx, "invoice_cache:1", "{}", time.Minute))

	val, err := c.Get(ctx, "invoice_cache:1")
	require.NoError(t, err)
	assert.Empty(t, val)

	locked, err := c.Lock(ctx, "lock", "owner", time.Second)
	require.NoError(t, err)
	assert.True(t, locked)

	assert.NoError(t, c.Unlock(ctx, "lock", "owner"))
	assert.NoError(t, c.Delete(ctx, "a", "b"))
}

func TestNilCacheIsDisabled(t *testing.T) {
	var c *Cache
	assert.False(t, c.Enabled())
	val, err := c.Get(context.Background(), "k")
	assert.NoError(t, err)
	assert.Empty(t, val)
}
