package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
)

// StreamManager fans dispatch events out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan<- []byte]struct{}
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamManager{
		subscribers: make(map[chan<- []byte]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel. The returned func unsubscribes
// and closes it.
func (sm *StreamManager) Subscribe() (<-chan []byte, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan []byte, 16)
	sm.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.subscribers, ch)
			close(ch)
		})
	}
}

// Broadcast never blocks: slow subscribers miss events.
func (sm *StreamManager) Broadcast(ev *domain.ToolEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		sm.logger.Error("event encode failed", "error", err)
		return
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for ch := range sm.subscribers {
		select {
		case ch <- payload:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping event", "task_id", ev.TaskID)
		}
	}
}

// Hooks feeds the stream from the dispatcher.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	fn := func(_ context.Context, ev *domain.ToolEvent) { sm.Broadcast(ev) }
	return domain.LifecycleHooks{OnToolCall: fn, OnToolReturn: fn}
}

// SubscribeEvents handles GET /events. The optional tool query parameter
// is a comma separated list of tool names to keep.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var watch map[string]bool
	if q := r.URL.Query().Get("tool"); q != "" {
		watch = map[string]bool{}
		for _, name := range strings.Split(q, ",") {
			watch[strings.TrimSpace(name)] = true
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.opts.Events.Subscribe()
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if watch != nil {
				var ev struct {
					ToolName string `json:"tool_name"`
				}
				if err := json.Unmarshal(msg, &ev); err == nil && !watch[ev.ToolName] {
					continue
				}
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
