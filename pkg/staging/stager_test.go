package staging_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/inf-monkeys/monkey-tools-text/pkg/adapters/memory"
	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
	"github.com/inf-monkeys/monkey-tools-text/pkg/staging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "content of "+r.URL.Path)
	})
	mux.HandleFunc("/missing.txt", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/slow.txt", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestWorkspace_CreatedLazily(t *testing.T) {
	root := t.TempDir()
	ws := staging.NewWorkspace(root, "task-1")

	_, err := os.Stat(filepath.Join(root, "task-1"))
	assert.True(t, os.IsNotExist(err), "workspace should not exist before first use")

	dir, err := ws.Dir()
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, filepath.Join(root, "task-1", "out.txt"), ws.Path("out.txt"))
}

func TestStageInput(t *testing.T) {
	srv := fileServer(t)
	ws := staging.NewWorkspace(t.TempDir(), "task-1")
	st := staging.New(memory.NewStore(""))

	local, err := st.StageInput(context.Background(), ws, srv.URL+"/files/report%20v1.txt?sig=1")
	require.NoError(t, err)
	assert.Equal(t, "report v1.txt", filepath.Base(local))

	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "content of /files/report v1.txt", string(data))

	// Idempotent: staging again overwrites in place.
	again, err := st.StageInput(context.Background(), ws, srv.URL+"/files/report%20v1.txt")
	require.NoError(t, err)
	assert.Equal(t, local, again)
}

func TestStageInput_SeparateWorkspacesGetIdenticalFiles(t *testing.T) {
	srv := fileServer(t)
	root := t.TempDir()
	st := staging.New(memory.NewStore(""))
	url := srv.URL + "/files/report.txt"

	a, err := st.StageInput(context.Background(), staging.NewWorkspace(root, "a"), url)
	require.NoError(t, err)
	b, err := st.StageInput(context.Background(), staging.NewWorkspace(root, "b"), url)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Equal(t, filepath.Join(root, "a", "inputs", "report.txt"), a)
	assert.Equal(t, filepath.Join(root, "b", "inputs", "report.txt"), b)

	dataA, err := os.ReadFile(a)
	require.NoError(t, err)
	dataB, err := os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, dataA, dataB)
	assert.Equal(t, "content of /files/report.txt", string(dataA))
}

func TestStageInput_Non2xx(t *testing.T) {
	srv := fileServer(t)
	ws := staging.NewWorkspace(t.TempDir(), "task-1")
	st := staging.New(memory.NewStore(""))

	_, err := st.StageInput(context.Background(), ws, srv.URL+"/missing.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDownloadFailed)
	assert.Equal(t, domain.KindDownloadFailed, domain.KindOf(err))
	assert.Contains(t, err.Error(), "404")
}

func TestStageInput_Timeout(t *testing.T) {
	srv := fileServer(t)
	ws := staging.NewWorkspace(t.TempDir(), "task-1")
	st := staging.New(memory.NewStore(""), staging.WithTimeouts(100*time.Millisecond, 0))

	_, err := st.StageInput(context.Background(), ws, srv.URL+"/slow.txt")
	require.Error(t, err)
	assert.Equal(t, domain.KindExternalTimeout, domain.KindOf(err))
}

func TestStageInput_MaxBytes(t *testing.T) {
	srv := fileServer(t)
	ws := staging.NewWorkspace(t.TempDir(), "task-1")
	st := staging.New(memory.NewStore(""), staging.WithMaxDownloadBytes(4))

	_, err := st.StageInput(context.Background(), ws, srv.URL+"/files/big.txt")
	assert.ErrorIs(t, err, domain.ErrDownloadFailed)
}

func TestStageInputs_PreservesOrder(t *testing.T) {
	srv := fileServer(t)
	ws := staging.NewWorkspace(t.TempDir(), "task-1")
	st := staging.New(memory.NewStore(""), staging.WithParallelism(2))

	urls := []string{
		srv.URL + "/files/a/doc.txt",
		srv.URL + "/files/b/doc.txt",
		srv.URL + "/files/c/doc.txt",
	}
	paths, err := st.StageInputs(context.Background(), ws, urls)
	require.NoError(t, err)
	require.Len(t, paths, 3)

	for i, p := range paths {
		data, err := os.ReadFile(p)
		require.NoError(t, err)
		u, _ := url.Parse(urls[i])
		assert.Equal(t, "content of "+u.Path, string(data))
	}
}

func TestStageInputs_FirstErrorWins(t *testing.T) {
	srv := fileServer(t)
	ws := staging.NewWorkspace(t.TempDir(), "task-1")
	st := staging.New(memory.NewStore(""))

	_, err := st.StageInputs(context.Background(), ws, []string{srv.URL + "/files/a.txt", srv.URL + "/missing.txt"})
	assert.ErrorIs(t, err, domain.ErrDownloadFailed)
}

func TestStageOutput(t *testing.T) {
	store := memory.NewStore("https://bucket.example.com")
	st := staging.New(store)

	local := filepath.Join(t.TempDir(), "result.txt")
	require.NoError(t, os.WriteFile(local, []byte("done"), 0o644))

	artifact, err := st.StageOutput(context.Background(), local, "task-1", "result.txt")
	require.NoError(t, err)
	assert.Equal(t, "workflow/artifact/task-1/result.txt", artifact.Key)
	assert.Equal(t, "https://bucket.example.com/workflow/artifact/task-1/result.txt", artifact.URL)
}

func TestStageOutput_UploadFailed(t *testing.T) {
	st := staging.New(memory.NewStore(""))

	_, err := st.StageOutput(context.Background(), filepath.Join(t.TempDir(), "nope.txt"), "task-1", "nope.txt")
	assert.ErrorIs(t, err, domain.ErrUploadFailed)
	assert.Equal(t, domain.KindUploadFailed, domain.KindOf(err))
}

func TestKey_CustomPrefix(t *testing.T) {
	st := staging.New(memory.NewStore(""), staging.WithKeyPrefix("/tenant/x/"))
	assert.Equal(t, "tenant/x/t/out.md", st.Key("t", "/out.md"))
}
