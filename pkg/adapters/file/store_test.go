package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/inf-monkeys/monkey-tools-text/pkg/adapters/file"
	"github.com/inf-monkeys/monkey-tools-text/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir(), "http://localhost:8890/artifacts")
	ports.RunObjectStoreContract(t, store)
}

func TestFileStore_URL(t *testing.T) {
	store := file.New(t.TempDir(), "http://localhost:8890/artifacts/")
	assert.Equal(t, "http://localhost:8890/artifacts/workflow/artifact/t1/a.txt", store.URL("workflow/artifact/t1/a.txt"))

	local := file.New(t.TempDir(), "")
	assert.Contains(t, local.URL("a.txt"), "file://")
}

func TestFileStore_KeyCannotEscapeBase(t *testing.T) {
	base := t.TempDir()
	store := file.New(base, "")

	src := filepath.Join(t.TempDir(), "x.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	_, err := store.Put(context.Background(), "../../escape.txt", src, "text/plain")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(base, "escape.txt"))
	assert.NoError(t, err, "key should be rooted at the base path")
}
