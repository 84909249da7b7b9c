package monkeytools_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	monkeytools "github.com/inf-monkeys/monkey-tools-text"
	"github.com/inf-monkeys/monkey-tools-text/internal/logging"
	"github.com/inf-monkeys/monkey-tools-text/pkg/config"
	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
)

func loadConfig(t *testing.T, opts ...config.Option) config.Config {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	opts = append([]config.Option{
		config.WithValue("workspace.root", filepath.Join(dir, "download")),
		config.WithValue("storage.file.dir", filepath.Join(dir, "artifacts")),
		config.WithValue("storage.file.base_url", "http://files.local"),
	}, opts...)
	cfg, err := config.Load("", opts...)
	require.NoError(t, err)
	return *cfg
}

func newApp(t *testing.T, cfg config.Config) *monkeytools.App {
	t.Helper()
	app, err := monkeytools.New(context.Background(), cfg, monkeytools.WithLogger(logging.NewNop()))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, app.Close(context.Background())) })
	return app
}

func TestNew_Defaults(t *testing.T) {
	app := newApp(t, loadConfig(t))

	assert.Equal(t, 8, app.Registry.Len())

	out, err := app.Dispatcher.Dispatch(context.Background(), domain.Invocation{
		ToolName: "text_replace",
		Params:   map[string]any{"document": "hello world", "searchText": "world", "replaceText": "monkeys"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Output{"result": "hello monkeys"}, out)
}

func TestApp_Handler(t *testing.T) {
	app := newApp(t, loadConfig(t))
	h, err := app.Handler(context.Background())
	require.NoError(t, err)

	_, err = app.Dispatcher.Dispatch(context.Background(), domain.Invocation{
		ToolName: "text_replace",
		Params:   map[string]any{"document": "a", "searchText": "a", "replaceText": "b"},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `monkeytools_tool_invocations_total{outcome="success",tool="text_replace"} 1`)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/manifest.json", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/text/text-segment")
}

func TestNew_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	app := newApp(t, loadConfig(t, config.WithValue("cache.redis.addr", mr.Addr())))
	assert.Equal(t, 8, app.Registry.Len())
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name string
		opt  config.Option
	}{
		{"unreachable redis", config.WithValue("cache.redis.addr", "127.0.0.1:1")},
		{"unknown ocr engine", config.WithValue("ocr.engine", "abbyy")},
		{"bad log level", config.WithValue("log.level", "chatty")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadConfig(t, tt.opt)
			_, err := monkeytools.New(context.Background(), cfg)
			assert.Error(t, err)
		})
	}
}

func TestNew_ErrorReleasesRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := loadConfig(t,
		config.WithValue("cache.redis.addr", mr.Addr()),
		config.WithValue("ocr.engine", "abbyy"),
	)

	_, err := monkeytools.New(context.Background(), cfg, monkeytools.WithLogger(logging.NewNop()))
	require.Error(t, err)
	assert.Eventually(t, func() bool { return mr.CurrentConnectionCount() == 0 },
		time.Second, 10*time.Millisecond, "redis connection left open")
}
