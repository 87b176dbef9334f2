// file: service/revocation_cache_test.go

package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRevocationCache(t *testing.T) {
	ctx := context.Background()

	t.Run("added entry is present until its TTL elapses", func(t *testing.T) {
		cache := NewMemoryRevocationCache(time.Hour)
		defer cache.Stop()

		require.NoError(t, cache.Add(ctx, "token-1", 50*time.Millisecond))

		found, err := cache.Contains(ctx, "token-1")
		require.NoError(t, err)
		assert.True(t, found)

		// After the TTL the entry must be gone even though the janitor has
		// not run yet; lookup evicts lazily.
		time.Sleep(80 * time.Millisecond)
		found, err = cache.Contains(ctx, "token-1")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("janitor sweeps expired entries", func(t *testing.T) {
		cache := NewMemoryRevocationCache(20 * time.Millisecond)
		defer cache.Stop()

		require.NoError(t, cache.Add(ctx, "token-2", 10*time.Millisecond))
		time.Sleep(60 * time.Millisecond)

		cache.mu.RLock()
		_, stillThere := cache.entries["token-2"]
		cache.mu.RUnlock()
		assert.False(t, stillThere, "janitor should have removed the expired entry")
	})

	t.Run("non-positive TTL is a no-op", func(t *testing.T) {
		cache := NewMemoryRevocationCache(time.Hour)
		defer cache.Stop()

		require.NoError(t, cache.Add(ctx, "token-3", 0))
		found, err := cache.Contains(ctx, "token-3")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("unknown token is not contained", func(t *testing.T) {
		cache := NewMemoryRevocationCache(time.Hour)
		defer cache.Stop()

		found, err := cache.Contains(ctx, "never-added")
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestRedisRevocationCache(t *testing.T) {
	ctx := context.Background()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewRedisRevocationCache(client)

	t.Run("added entry is present", func(t *testing.T) {
		require.NoError(t, cache.Add(ctx, "token-1", time.Minute))

		found, err := cache.Contains(ctx, "token-1")
		require.NoError(t, err)
		assert.True(t, found)
	})

	t.Run("entry expires with its TTL", func(t *testing.T) {
		require.NoError(t, cache.Add(ctx, "token-2", time.Minute))

		// miniredis lets us advance time instead of sleeping.
		mr.FastForward(2 * time.Minute)

		found, err := cache.Contains(ctx, "token-2")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("non-positive TTL is a no-op", func(t *testing.T) {
		require.NoError(t, cache.Add(ctx, "token-3", -time.Second))

		found, err := cache.Contains(ctx, "token-3")
		require.NoError(t, err)
		assert.False(t, found)
	})
}
