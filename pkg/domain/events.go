package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventToolCall   EventType = "tool_call"
	EventToolReturn EventType = "tool_return"
)

// ToolEvent describes one side of a tool dispatch.
type ToolEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      EventType      `json:"type"`
	TaskID    string         `json:"task_id"`
	ToolName  string         `json:"tool_name"`
	Caller    CallerIdentity `json:"caller"`
	// Duration and ErrorKind are only set on EventToolReturn.
	Duration  time.Duration `json:"duration,omitempty"`
	ErrorKind ErrorKind     `json:"error_kind,omitempty"`
}

// IsError reports whether the dispatch this event closes failed.
func (e *ToolEvent) IsError() bool {
	return e.ErrorKind != ""
}

// LifecycleHooks defines callbacks for dispatch observability.
// Nil callbacks are skipped.
type LifecycleHooks struct {
	OnToolCall   func(context.Context, *ToolEvent)
	OnToolReturn func(context.Context, *ToolEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnToolCall:   chain(h.OnToolCall, other.OnToolCall),
		OnToolReturn: chain(h.OnToolReturn, other.OnToolReturn),
	}
}

func chain(a, b func(context.Context, *ToolEvent)) func(context.Context, *ToolEvent) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, ev *ToolEvent) {
		a(ctx, ev)
		b(ctx, ev)
	}
}
