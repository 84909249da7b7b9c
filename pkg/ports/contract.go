package ports

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunObjectStoreContract runs a suite of tests to verify that an ObjectStore implementation
// adheres to the defined interface contract.
func RunObjectStoreContract(t *testing.T, store ObjectStore) {
	ctx := context.Background()
	key := "workflow/artifact/contract-" + time.Now().Format("20060102150405") + "/result.txt"

	write := func(t *testing.T, content string) string {
		p := filepath.Join(t.TempDir(), "result.txt")
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
		return p
	}

	t.Run("Put and Open", func(t *testing.T) {
		artifact, err := store.Put(ctx, key, write(t, "hello"), "text/plain")
		require.NoError(t, err, "Put should not return error")
		assert.Equal(t, key, artifact.Key)
		assert.NotEmpty(t, artifact.URL)

		rc, err := store.Open(ctx, key)
		require.NoError(t, err, "Open should not return error")
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
	})

	t.Run("Put is idempotent", func(t *testing.T) {
		first, err := store.Put(ctx, key, write(t, "v1"), "text/plain")
		require.NoError(t, err)
		second, err := store.Put(ctx, key, write(t, "v2"), "text/plain")
		require.NoError(t, err)
		assert.Equal(t, first.URL, second.URL)

		rc, err := store.Open(ctx, key)
		require.NoError(t, err)
		defer rc.Close()
		data, _ := io.ReadAll(rc)
		assert.Equal(t, "v2", string(data))
	})

	t.Run("Put Missing File", func(t *testing.T) {
		_, err := store.Put(ctx, key, filepath.Join(t.TempDir(), "missing"), "text/plain")
		assert.Error(t, err)
	})

	t.Run("Open Non-Existent", func(t *testing.T) {
		_, err := store.Open(ctx, "non-existent/"+key)
		assert.ErrorIs(t, err, ErrObjectNotFound)
	})
}

// RunContentCacheContract verifies a ContentCache implementation.
func RunContentCacheContract(t *testing.T, cache ContentCache) {
	ctx := context.Background()

	t.Run("Miss", func(t *testing.T) {
		_, ok, err := cache.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Set and Get", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, "k", []byte("v1")))
		v, ok, err := cache.Get(ctx, "k")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("v1"), v)

		require.NoError(t, cache.Set(ctx, "k", []byte("v2")))
		v, _, _ = cache.Get(ctx, "k")
		assert.Equal(t, []byte("v2"), v)
	})
}
