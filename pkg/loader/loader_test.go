package loader_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os/exec"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inf-monkeys/monkey-tools-text/pkg/adapters/memory"
	"github.com/inf-monkeys/monkey-tools-text/pkg/adapters/redis"
	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
	"github.com/inf-monkeys/monkey-tools-text/pkg/loader"
)

const page = `<!DOCTYPE html>
<html lang="en">
<head>
  <title> Monkeys </title>
  <meta name="description" content="Tools for workflows">
  <style>body { color: red }</style>
</head>
<body>
  <script>var hidden = "do not show";</script>
  <h1>Welcome</h1>
  <p>First   paragraph
     continues here.</p>
  <div>Second<br>line</div>
  <ul><li>one</li><li>two</li></ul>
</body>
</html>`

func TestFromHTML(t *testing.T) {
	doc, err := loader.FromHTML("https://example.com/a", page)
	require.NoError(t, err)

	assert.Equal(t, "Welcome\n\nFirst paragraph\ncontinues here.\n\nSecond\nline\n\none\n\ntwo", doc.PageContent)
	assert.Equal(t, "https://example.com/a", doc.Metadata["source"])
	assert.Equal(t, "Monkeys", doc.Metadata["title"])
	assert.Equal(t, "Tools for workflows", doc.Metadata["description"])
	assert.Equal(t, "en", doc.Metadata["language"])
	assert.NotContains(t, doc.PageContent, "do not show")
	assert.NotContains(t, doc.PageContent, "color")
}

func origin(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	})
	mux.HandleFunc("/plain", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprint(w, "  just text \n")
	})
	mux.HandleFunc("/gone", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestStatic_Load(t *testing.T) {
	var hits atomic.Int32
	srv := origin(t, &hits)
	l := loader.NewStatic(5 * time.Second)

	doc, err := l.Load(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Contains(t, doc.PageContent, "Welcome")
	assert.Equal(t, "text/html; charset=utf-8", doc.Metadata["content_type"])

	doc, err = l.Load(context.Background(), srv.URL+"/plain")
	require.NoError(t, err)
	assert.Equal(t, "just text", doc.PageContent)
}

func TestStatic_Errors(t *testing.T) {
	var hits atomic.Int32
	srv := origin(t, &hits)
	l := loader.NewStatic(5 * time.Second)

	_, err := l.Load(context.Background(), srv.URL+"/gone")
	assert.ErrorIs(t, err, domain.ErrDownloadFailed)
	assert.Contains(t, err.Error(), "410")

	_, err = l.Load(context.Background(), "ftp://example.com/file")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = l.Load(context.Background(), "https://")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestStatic_TimeoutAndCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	_, err := loader.NewStatic(50*time.Millisecond).Load(context.Background(), srv.URL+"/slow")
	assert.Equal(t, domain.KindExternalTimeout, domain.KindOf(err))

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(50*time.Millisecond))
	defer cancel()
	_, err = loader.NewStatic(5*time.Second).Load(ctx, srv.URL+"/slow")
	assert.Equal(t, domain.KindExternalTimeout, domain.KindOf(err))

	ctx, cancel = context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)
	_, err = loader.NewStatic(5*time.Second).Load(ctx, srv.URL+"/slow")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, domain.KindDownloadFailed, domain.KindOf(err))
}

func TestCached_SecondLoadSkipsOrigin(t *testing.T) {
	var hits atomic.Int32
	srv := origin(t, &hits)

	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cached := loader.NewCached(
		loader.NewStatic(5*time.Second),
		"static",
		redis.NewFromClient(client),
		loader.WithLocker(redis.NewLocker(client, "test:"), 5*time.Second),
	)

	first, err := cached.Load(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	second, err := cached.Load(context.Background(), srv.URL+"/page")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())
}

func TestCached_ConcurrentMissesLoadOnce(t *testing.T) {
	var calls atomic.Int32
	slow := loader.LoaderFunc(func(ctx context.Context, rawURL string) (loader.Document, error) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		return loader.Document{Metadata: map[string]any{"source": rawURL}, PageContent: "body"}, nil
	})

	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cached := loader.NewCached(slow, "static", redis.NewFromClient(client),
		loader.WithLocker(redis.NewLocker(client, "test:"), 5*time.Second))

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc, err := cached.Load(context.Background(), "https://example.com/x")
			assert.NoError(t, err)
			assert.Equal(t, "body", doc.PageContent)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestCached_ModesAreSeparate(t *testing.T) {
	var calls atomic.Int32
	counting := loader.LoaderFunc(func(ctx context.Context, rawURL string) (loader.Document, error) {
		calls.Add(1)
		return loader.Document{Metadata: map[string]any{}, PageContent: "x"}, nil
	})
	cache := memory.NewCache(time.Minute)

	_, err := loader.NewCached(counting, "static", cache).Load(context.Background(), "https://example.com")
	require.NoError(t, err)
	_, err = loader.NewCached(counting, "browser", cache).Load(context.Background(), "https://example.com")
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
}

func TestCached_DoesNotCacheFailures(t *testing.T) {
	var calls atomic.Int32
	failing := loader.LoaderFunc(func(ctx context.Context, rawURL string) (loader.Document, error) {
		calls.Add(1)
		return loader.Document{}, domain.DownloadFailed(rawURL, 500, nil)
	})
	cached := loader.NewCached(failing, "static", memory.NewCache(time.Minute))

	for range 2 {
		_, err := cached.Load(context.Background(), "https://example.com")
		assert.ErrorIs(t, err, domain.ErrDownloadFailed)
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestBrowser_Load(t *testing.T) {
	var path string
	for _, name := range []string{"chromium", "chromium-browser", "google-chrome", "headless-shell"} {
		if p, err := exec.LookPath(name); err == nil {
			path = p
			break
		}
	}
	if path == "" {
		t.Skip("no chrome binary in PATH")
	}

	var hits atomic.Int32
	srv := origin(t, &hits)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	doc, err := (&loader.Browser{ExecPath: path}).Load(ctx, srv.URL+"/page")
	require.NoError(t, err)
	assert.Contains(t, doc.PageContent, "Welcome")
	assert.Equal(t, true, doc.Metadata["rendered"])
}
