package cache_test

import (
	"context"
	"testing"
	"time"

	"go-gin-helpdesk/internal/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestLoginAttemptLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("LocksAfterMaxAttempts", func(t *testing.T) {
		_, client := setupRedis(t)
		limiter := cache.NewRedisLoginAttemptLimiter(client, 3, time.Minute)

		for i := 1; i <= 3; i++ {
			allowed, err := limiter.Allowed(ctx, "ada@example.com")
			require.NoError(t, err)
			assert.True(t, allowed, "attempt %d", i)

			count, err := limiter.RecordFailure(ctx, "ada@example.com")
			require.NoError(t, err)
			assert.Equal(t, i, count)
		}

		allowed, err := limiter.Allowed(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.False(t, allowed)

		// 其他帳號不受影響
		allowed, err = limiter.Allowed(ctx, "bob@example.com")
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("EmailIsCaseInsensitive", func(t *testing.T) {
		_, client := setupRedis(t)
		limiter := cache.NewRedisLoginAttemptLimiter(client, 1, time.Minute)

		_, err := limiter.RecordFailure(ctx, "Ada@Example.com")
		require.NoError(t, err)

		allowed, err := limiter.Allowed(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("WindowExpires", func(t *testing.T) {
		mr, client := setupRedis(t)
		limiter := cache.NewRedisLoginAttemptLimiter(client, 1, time.Minute)

		_, err := limiter.RecordFailure(ctx, "ada@example.com")
		require.NoError(t, err)

		mr.FastForward(61 * time.Second)

		allowed, err := limiter.Allowed(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("ResetClearsFailures", func(t *testing.T) {
		_, client := setupRedis(t)
		limiter := cache.NewRedisLoginAttemptLimiter(client, 1, time.Minute)

		_, err := limiter.RecordFailure(ctx, "ada@example.com")
		require.NoError(t, err)
		require.NoError(t, limiter.Reset(ctx, "ada@example.com"))

		allowed, err := limiter.Allowed(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("Disabled", func(t *testing.T) {
		_, client := setupRedis(t)
		limiter := cache.NewRedisLoginAttemptLimiter(client, 0, time.Minute)

		count, err := limiter.RecordFailure(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.Zero(t, count)

		allowed, err := limiter.Allowed(ctx, "ada@example.com")
		require.NoError(t, err)
		assert.True(t, allowed)
	})
}
