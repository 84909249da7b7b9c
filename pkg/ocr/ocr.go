// Package ocr defines the OCR engine contract used by the ocr tool and the
// PP-Structure layout recovery used by pp_structure.
//
// Engines register themselves by name. The CLI tesseract engine is always
// available; the in-process gosseract engine registers itself when its
// package is linked in.
package ocr

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/inf-monkeys/monkey-tools-text/pkg/adapters/process"
)

// DefaultLanguages is used when a request carries no language.
const DefaultLanguages = "chi_sim+eng"

// Input is one image submitted for recognition.
type Input struct {
	// Path is the local image file.
	Path string
	// Languages are tesseract language codes, e.g. "chi_sim", "eng".
	Languages []string
}

// Result is the recognized text of one image.
type Result struct {
	Text   string
	Engine string
}

// Engine recognizes text in images.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Result, error)
}

// CommandRunner runs an allow-listed external command.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (process.Result, error)
}

// Factory builds an engine. runner may be ignored by in-process engines.
type Factory func(runner CommandRunner) Engine

var (
	enginesMu sync.RWMutex
	engines   = map[string]Factory{}
)

// RegisterEngine makes an engine available under name.
func RegisterEngine(name string, f Factory) {
	enginesMu.Lock()
	defer enginesMu.Unlock()
	engines[name] = f
}

// NewEngine builds the engine registered under name.
func NewEngine(name string, runner CommandRunner) (Engine, error) {
	enginesMu.RLock()
	f, ok := engines[name]
	enginesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown ocr engine %q (available: %s)", name, strings.Join(Engines(), ", "))
	}
	return f(runner), nil
}

// Engines lists registered engine names.
func Engines() []string {
	enginesMu.RLock()
	defer enginesMu.RUnlock()
	names := make([]string, 0, len(engines))
	for n := range engines {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SplitLanguages turns "chi_sim+eng" into ["chi_sim", "eng"].
func SplitLanguages(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		s = DefaultLanguages
	}
	var out []string
	for _, l := range strings.Split(s, "+") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// Detached wraps an engine that cannot be interrupted. Recognition runs in
// its own goroutine; when ctx ends first the call returns ctx.Err() and the
// eventual result is dropped.
func Detached(e Engine) Engine {
	return detached{e}
}

type detached struct{ Engine }

func (d detached) Recognize(ctx context.Context, in Input) (Result, error) {
	type outcome struct {
		res Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := d.Engine.Recognize(context.WithoutCancel(ctx), in)
		done <- outcome{res, err}
	}()

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case o := <-done:
		return o.res, o.err
	}
}
