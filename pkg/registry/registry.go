package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
	"github.com/inf-monkeys/monkey-tools-text/pkg/schema"
	"github.com/inf-monkeys/monkey-tools-text/pkg/staging"
)

// Call is everything a handler receives for one invocation.
type Call struct {
	Invocation domain.Invocation
	Params     schema.Params
	// Workspace is the per-task scratch directory. It is created on first use.
	Workspace *staging.Workspace
}

// Handler defines the signature for a tool implementation.
// It receives validated parameters and returns a value keyed by output field.
type Handler func(ctx context.Context, call *Call) (domain.Output, error)

// Entry binds a descriptor to its handler.
type Entry struct {
	Descriptor domain.ToolDescriptor
	Handler    Handler
}

// Registry manages the available tools. Tools are registered once at
// startup; after Seal the registry only serves reads.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	tools  map[string]Entry
	sealed bool
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Entry),
	}
}

// Register adds a tool to the registry.
// It fails without touching the registry when the name is taken or the
// descriptor is malformed.
func (r *Registry) Register(d domain.ToolDescriptor, h Handler) error {
	if h == nil {
		return fmt.Errorf("%w: tool %q has no handler", domain.ErrInvalidDescriptor, d.Name)
	}
	if err := d.Check(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("%w: cannot register %q", domain.ErrRegistrySealed, d.Name)
	}
	if _, exists := r.tools[d.Name]; exists {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateTool, d.Name)
	}
	r.tools[d.Name] = Entry{Descriptor: d, Handler: h}
	r.order = append(r.order, d.Name)
	return nil
}

// MustRegister is like Register but panics on error. Intended for static
// tool tables built at startup.
func (r *Registry) MustRegister(d domain.ToolDescriptor, h Handler) {
	if err := r.Register(d, h); err != nil {
		panic(err)
	}
}

// Seal freezes the registry.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Get returns the descriptor registered under name.
func (r *Registry) Get(name string) (domain.ToolDescriptor, error) {
	e, err := r.Lookup(name)
	if err != nil {
		return domain.ToolDescriptor{}, err
	}
	return e.Descriptor, nil
}

// Lookup returns the full entry registered under name.
func (r *Registry) Lookup(name string) (Entry, error) {
	r.mu.RLock()
	e, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", domain.ErrToolNotFound, name)
	}
	return e, nil
}

// List returns all descriptors in registration order.
func (r *Registry) List() []domain.ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Descriptor)
	}
	return out
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
