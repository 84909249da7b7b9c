package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
	"github.com/inf-monkeys/monkey-tools-text/pkg/registry"
	"github.com/inf-monkeys/monkey-tools-text/pkg/schema"
	"github.com/inf-monkeys/monkey-tools-text/pkg/staging"
)

const tracerName = "github.com/inf-monkeys/monkey-tools-text/pkg/dispatch"

// Dispatcher runs invocations against the tools of a registry.
// It is safe for concurrent use; every call gets its own workspace.
type Dispatcher struct {
	registry      *registry.Registry
	workspaceRoot string
	timeout       time.Duration
	hooks         domain.LifecycleHooks
	logger        *slog.Logger
	tracer        trace.Tracer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout bounds each tool call. Zero means no bound beyond the caller's context.
func WithTimeout(d time.Duration) Option {
	return func(dp *Dispatcher) {
		dp.timeout = d
	}
}

// WithHooks attaches lifecycle hooks. Multiple calls are merged.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(dp *Dispatcher) {
		dp.hooks = dp.hooks.Merge(h)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(dp *Dispatcher) {
		dp.logger = l
	}
}

// WithTracerProvider overrides the global OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(dp *Dispatcher) {
		dp.tracer = tp.Tracer(tracerName)
	}
}

// New creates a dispatcher whose workspaces live under workspaceRoot.
func New(reg *registry.Registry, workspaceRoot string, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry:      reg,
		workspaceRoot: workspaceRoot,
		logger:        slog.Default(),
		tracer:        otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the registry the dispatcher serves.
func (d *Dispatcher) Registry() *registry.Registry {
	return d.registry
}

// Dispatch validates inv.Params, runs the tool handler and shapes its
// result to the declared outputs. A task id is assigned when inv has none.
// Every failure is returned as a *domain.Error scoped to the tool.
func (d *Dispatcher) Dispatch(ctx context.Context, inv domain.Invocation) (out domain.Output, err error) {
	if inv.TaskID == "" {
		inv.TaskID = uuid.NewString()
	}

	ctx, span := d.tracer.Start(ctx, "tool "+inv.ToolName, trace.WithAttributes(
		attribute.String("tool.name", inv.ToolName),
		attribute.String("tool.task_id", inv.TaskID),
	))
	defer span.End()

	start := time.Now()
	d.emit(ctx, d.hooks.OnToolCall, &domain.ToolEvent{
		Timestamp: start,
		Type:      domain.EventToolCall,
		TaskID:    inv.TaskID,
		ToolName:  inv.ToolName,
		Caller:    inv.Caller,
	})

	defer func() {
		elapsed := time.Since(start)
		kind := domain.KindOf(err)
		d.emit(ctx, d.hooks.OnToolReturn, &domain.ToolEvent{
			Timestamp: time.Now(),
			Type:      domain.EventToolReturn,
			TaskID:    inv.TaskID,
			ToolName:  inv.ToolName,
			Caller:    inv.Caller,
			Duration:  elapsed,
			ErrorKind: kind,
		})

		attrs := append([]any{"task_id", inv.TaskID, "tool", inv.ToolName, "duration", elapsed}, inv.Caller.LogAttrs()...)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(kind))
			d.logger.Warn("tool call failed", append(attrs, "kind", kind, "error", err)...)
			return
		}
		span.SetStatus(codes.Ok, "")
		d.logger.Info("tool call completed", attrs...)
	}()

	entry, err := d.registry.Lookup(inv.ToolName)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindNotFound, Tool: inv.ToolName, Message: "unknown tool", Cause: err}
	}

	params, err := schema.Validate(entry.Descriptor, inv.Params)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindValidation, Tool: inv.ToolName, Message: "invalid parameters", Cause: err}
	}

	call := &registry.Call{
		Invocation: inv,
		Params:     params,
		Workspace:  staging.NewWorkspace(d.workspaceRoot, inv.TaskID),
	}

	result, err := d.run(ctx, entry.Handler, call)
	if err != nil {
		return nil, domain.WithTool(inv.ToolName, err)
	}

	shaped, err := shape(entry.Descriptor, result)
	if err != nil {
		return nil, domain.WithTool(inv.ToolName, err)
	}
	return shaped, nil
}

func (d *Dispatcher) run(ctx context.Context, h registry.Handler, call *registry.Call) (out domain.Output, err error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool handler panicked", "tool", call.Invocation.ToolName, "panic", r, "stack", string(debug.Stack()))
			out = nil
			err = domain.NewError(domain.KindInternal, fmt.Sprintf("handler panicked: %v", r), nil)
		}
	}()

	out, err = h(ctx, call)
	if err == nil {
		return out, nil
	}
	if domain.KindOf(err) == domain.KindExternalTimeout {
		return nil, err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return nil, domain.ExternalCallTimeout(call.Invocation.ToolName, err)
	}
	return nil, err
}

// shape keeps only the declared output fields and fails if one is missing.
func shape(desc domain.ToolDescriptor, result domain.Output) (domain.Output, error) {
	names := desc.OutputNames()
	out := make(domain.Output, len(names))
	for _, name := range names {
		v, ok := result[name]
		if !ok {
			return nil, domain.NewError(domain.KindInternal, fmt.Sprintf("handler did not produce declared output %q", name), nil)
		}
		out[name] = v
	}
	return out, nil
}

func (d *Dispatcher) emit(ctx context.Context, hook func(context.Context, *domain.ToolEvent), ev *domain.ToolEvent) {
	if hook != nil {
		hook(ctx, ev)
	}
}
