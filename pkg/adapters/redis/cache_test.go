package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/inf-monkeys/monkey-tools-text/pkg/adapters/redis"
	"github.com/inf-monkeys/monkey-tools-text/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisCache_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunContentCacheContract(t, redis.NewFromClient(client))
}

func TestRedisCache_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	cache := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "https://example.com", []byte(`{"page_content":"hi"}`)))

	_, ok, err := cache.Get(ctx, "https://example.com")
	assert.NoError(t, err)
	assert.True(t, ok)

	// Fast Forward time in miniredis (for Key Expiration)
	mr.FastForward(2 * time.Second)

	_, ok, err = cache.Get(ctx, "https://example.com")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCache_Prefix(t *testing.T) {
	mr, client := newClient(t)

	cache := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	require.NoError(t, cache.Set(context.Background(), "k", []byte("v")))

	assert.True(t, mr.Exists("custom:app:k"), "Expected key with custom prefix to exist")
	assert.NoError(t, cache.Ping(context.Background()))
}
