package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
)

// ErrCommandNotAllowed is returned for commands missing from the allow-list.
var ErrCommandNotAllowed = errors.New("command not allowed")

// maxStderr bounds how much stderr is kept in error messages.
const maxStderr = 2048

// Runner executes allow-listed local processes.
// It follows a Strict Registry pattern for security (Allow-Listing):
// callers name a registered command and pass an argv; nothing goes through a shell.
type Runner struct {
	mu       sync.RWMutex
	registry map[string]RegisteredProcess
	baseDir  string
	timeout  time.Duration
	logger   *slog.Logger
}

// RegisteredProcess defines an allowed command execution.
type RegisteredProcess struct {
	Command string
	Args    []string // Prepended to every call
	Env     []string
}

// Result holds the captured output of a finished process.
type Result struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(commands map[string]ProcessConfig) RunnerOption {
	return func(r *Runner) {
		for name, c := range commands {
			r.Register(name, c.Command, c.Args...)
			if len(c.Environment) > 0 {
				r.setEnv(name, c.Environment)
			}
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithTimeout bounds every process run. Zero leaves only the caller's context.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]RegisteredProcess),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list, replacing any previous entry.
func (r *Runner) Register(name string, command string, args ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registry[name] = RegisteredProcess{
		Command: command,
		Args:    args,
	}
}

func (r *Runner) setEnv(name string, env map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.registry[name]
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p.Env = append(p.Env, k+"="+env[k])
	}
	r.registry[name] = p
}

// Commands returns the registered command names in sorted order.
func (r *Runner) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Available reports whether name is registered and its binary can be found.
func (r *Runner) Available(name string) bool {
	r.mu.RLock()
	proc, ok := r.registry[name]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	_, err := exec.LookPath(proc.Command)
	return err == nil
}

// Run executes the command registered under name with args appended.
// Cancelling ctx kills the process. A non-zero exit is reported as an
// external call failure carrying the tail of stderr; an exceeded deadline
// as an external call timeout.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (Result, error) {
	r.mu.RLock()
	proc, ok := r.registry[name]
	r.mu.RUnlock()
	if !ok {
		return Result{}, domain.NewError(domain.KindInternal, fmt.Sprintf("process %q is not registered", name), ErrCommandNotAllowed)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	argv := append(append([]string{}, proc.Args...), args...)
	cmd := exec.CommandContext(ctx, proc.Command, argv...)
	cmd.Dir = r.baseDir
	if len(proc.Env) > 0 {
		cmd.Env = append(cmd.Environ(), proc.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	r.logger.Debug("process finished", "command", name, "args", argv, "duration", res.Duration, "error", err)

	if err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return res, domain.ExternalCallTimeout(name, ctxErr)
		}
		return res, domain.ExternalCallFailure(name, fmt.Errorf("%w: %s", err, tail(res.Stderr)))
	}
	return res, nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		s = "..." + s[len(s)-maxStderr:]
	}
	if s == "" {
		return "no stderr output"
	}
	return s
}
