package monkeytools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"os"

	"github.com/inf-monkeys/monkey-tools-text/internal/logging"
	"github.com/inf-monkeys/monkey-tools-text/internal/telemetry"
	"github.com/inf-monkeys/monkey-tools-text/internal/tools"
	"github.com/inf-monkeys/monkey-tools-text/pkg/adapters/file"
	httpAdapter "github.com/inf-monkeys/monkey-tools-text/pkg/adapters/http"
	"github.com/inf-monkeys/monkey-tools-text/pkg/adapters/memory"
	"github.com/inf-monkeys/monkey-tools-text/pkg/adapters/process"
	"github.com/inf-monkeys/monkey-tools-text/pkg/adapters/redis"
	"github.com/inf-monkeys/monkey-tools-text/pkg/adapters/s3"
	"github.com/inf-monkeys/monkey-tools-text/pkg/config"
	"github.com/inf-monkeys/monkey-tools-text/pkg/convert"
	"github.com/inf-monkeys/monkey-tools-text/pkg/dispatch"
	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
	"github.com/inf-monkeys/monkey-tools-text/pkg/loader"
	"github.com/inf-monkeys/monkey-tools-text/pkg/ocr"
	"github.com/inf-monkeys/monkey-tools-text/pkg/ports"
	"github.com/inf-monkeys/monkey-tools-text/pkg/registry"
	"github.com/inf-monkeys/monkey-tools-text/pkg/split"
	"github.com/inf-monkeys/monkey-tools-text/pkg/staging"
)

// Version is overridden at build time with -ldflags "-X ...monkeytools.Version=v1.2.3".
var Version = "dev"

// Loader cache modes.
const (
	modeStatic   = "static"
	modeHeadless = "headless"
)

// App is a fully wired service: the tool registry, its dispatcher and the
// collaborators behind the tools.
type App struct {
	Config     config.Config
	Logger     *slog.Logger
	Registry   *registry.Registry
	Dispatcher *dispatch.Dispatcher
	Metrics    *telemetry.Metrics
	Events     *httpAdapter.StreamManager
	Store      ports.ObjectStore

	closers []func(context.Context) error
}

// Option customizes New.
type Option func(*options)

type options struct {
	logger *slog.Logger
	store  ports.ObjectStore
	runner *process.Runner
	hooks  domain.LifecycleHooks
}

// WithLogger replaces the logger built from the log config.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStore replaces the object store selected by storage.driver.
func WithStore(s ports.ObjectStore) Option {
	return func(o *options) { o.store = s }
}

// WithRunner replaces the external command runner.
func WithRunner(r *process.Runner) Option {
	return func(o *options) { o.runner = r }
}

// WithLifecycleHooks adds hooks next to the built-in metrics and event stream.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(o *options) { o.hooks = h }
}

// New wires the service described by cfg. Close releases what it opened.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	app := &App{Config: cfg, Logger: o.logger}
	if app.Logger == nil {
		level, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			return nil, err
		}
		app.Logger = logging.NewWithFormat(os.Stderr, level, cfg.Log.Format)
	}
	logger := app.Logger

	store, err := newStore(ctx, cfg.Storage, o.store)
	if err != nil {
		return nil, err
	}
	app.Store = store

	runner := o.runner
	if runner == nil {
		runner, err = newRunner(cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	cache, locker, closeCache, err := newCache(ctx, cfg.Cache.Redis)
	if err != nil {
		return nil, err
	}
	if closeCache != nil {
		app.closers = append(app.closers, closeCache)
	}
	cached := func(l loader.Loader, mode string) loader.Loader {
		cacheOpts := []loader.CachedOption{loader.WithCacheLogger(logger)}
		if locker != nil {
			cacheOpts = append(cacheOpts, loader.WithLocker(locker, cfg.Timeouts.Download))
		}
		return loader.NewCached(l, mode, cache, cacheOpts...)
	}

	engine, err := ocr.NewEngine(cfg.OCR.Engine, runner)
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}

	stager := staging.New(store,
		staging.WithKeyPrefix(cfg.Storage.KeyPrefix),
		staging.WithMaxDownloadBytes(cfg.Storage.MaxDownloadBytes),
		staging.WithTimeouts(cfg.Timeouts.Download, cfg.Timeouts.Upload),
		staging.WithLogger(logger),
	)
	deps := tools.Deps{
		Stager:     stager,
		Converters: convert.NewDefaultTable(runner),
		Splitters:  split.NewDefaultTable(),
		Pandoc:     &convert.Pandoc{Runner: runner},
		Static:     cached(loader.NewStatic(cfg.Timeouts.Download), modeStatic),
		Headless:   cached(&loader.Browser{ExecPath: cfg.Browser.ExecPath}, modeHeadless),
		OCR:        engine,
		Structure:  &ocr.Structure{Runner: runner},
		Languages:  cfg.OCR.Languages,
	}

	app.Registry = registry.NewRegistry()
	if err := tools.Register(app.Registry, deps); err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	app.Registry.Seal()

	tp, shutdown, err := telemetry.SetupTracing(ctx, telemetry.TracingOptions{
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		ServiceName: cfg.Tracing.ServiceName,
		Version:     Version,
	})
	if err != nil {
		_ = app.Close(ctx)
		return nil, err
	}
	app.closers = append(app.closers, shutdown)

	app.Metrics = telemetry.NewMetrics()
	app.Events = httpAdapter.NewStreamManager(logger)
	hooks := app.Metrics.Hooks().Merge(app.Events.Hooks()).Merge(o.hooks)

	app.Dispatcher = dispatch.New(app.Registry, cfg.Workspace.Root,
		dispatch.WithTimeout(cfg.Timeouts.Tool),
		dispatch.WithHooks(hooks),
		dispatch.WithLogger(logger),
		dispatch.WithTracerProvider(tp),
	)

	logger.Info("service wired",
		"tools", app.Registry.Len(),
		"storage", cfg.Storage.Driver,
		"ocr_engine", engine.Name(),
		"loader_cache", cfg.Cache.Redis.Addr != "",
		"tracing", cfg.Tracing.Endpoint != "",
	)
	return app, nil
}

// Handler builds the HTTP façade over the dispatcher.
func (a *App) Handler(ctx context.Context) (http.Handler, error) {
	return httpAdapter.NewHandler(ctx, a.Dispatcher, httpAdapter.Options{
		Namespace:    a.Config.Server.Namespace,
		ContactEmail: a.Config.Server.ContactEmail,
		Version:      Version,
		Metrics:      a.Metrics.Handler(),
		Logger:       a.Logger,
		Events:       a.Events,
	})
}

// Close flushes traces and closes the cache connection.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	a.closers = nil
	return errors.Join(errs...)
}

func newStore(ctx context.Context, cfg config.StorageConfig, override ports.ObjectStore) (ports.ObjectStore, error) {
	if override != nil {
		return override, nil
	}
	switch cfg.Driver {
	case config.DriverS3:
		s, err := s3.New(cfg.S3)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverFile:
		return file.New(cfg.File.Dir, cfg.File.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func newRunner(cfg config.Config, logger *slog.Logger) (*process.Runner, error) {
	commands := process.Defaults()
	if cfg.Commands.File != "" {
		loaded, err := process.LoadCommands(cfg.Commands.File)
		if err != nil {
			return nil, err
		}
		maps.Copy(commands, loaded)
	}
	return process.NewRunner(
		process.WithRegistry(commands),
		process.WithTimeout(cfg.Timeouts.Process),
		process.WithLogger(logger),
	), nil
}

// newCache picks Redis when an address is configured and an in-process
// cache otherwise. The locker is nil without Redis.
func newCache(ctx context.Context, cfg config.RedisConfig) (ports.ContentCache, ports.DistributedLocker, func(context.Context) error, error) {
	if cfg.Addr == "" {
		return memory.NewCache(cfg.TTL), nil, nil, nil
	}
	c := redis.New(cfg.Addr, cfg.Password, cfg.DB, redis.WithTTL(cfg.TTL))
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	closer := func(context.Context) error { return c.Close() }
	return c, redis.NewLocker(c.Client(), "monkeytools:lock:"), closer, nil
}
