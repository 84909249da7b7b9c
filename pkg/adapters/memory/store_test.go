package memory

import (
	"context"
	"testing"
	"time"

	"github.com/inf-monkeys/monkey-tools-text/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunObjectStoreContract(t, NewStore(""))
}

func TestMemoryCache_Contract(t *testing.T) {
	ports.RunContentCacheContract(t, NewCache(0))
}

func TestMemoryCache_TTL(t *testing.T) {
	c := NewCache(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(context.Background(), "k", []byte("v")))

	_, ok, _ := c.Get(context.Background(), "k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = c.Get(context.Background(), "k")
	assert.False(t, ok)
}
