// Package split selects and parametrizes a text splitter by name.
//
// Lengths are measured in runes, except for the token splitter which
// measures in cl100k_base tokens.
package split

import (
	"sort"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
)

// Split type names accepted by the text_segment tool.
const (
	TypeCharacter = "splitByCharacter"
	TypeRecursive = "recursivelySplitByCharacter"
	TypeCode      = "splitCode"
	TypeMarkdown  = "markdown"
	TypeToken     = "splitByToken"
)

// Options parametrize a split. Not every splitter reads every field.
type Options struct {
	ChunkSize    int    `json:"chunkSize"`
	ChunkOverlap int    `json:"chunkOverlap"`
	Separator    string `json:"separator"`
	Language     string `json:"language"`
}

func (o Options) check() error {
	if o.ChunkSize <= 0 {
		return domain.InvalidInput("chunkSize must be positive, got %d", o.ChunkSize)
	}
	if o.ChunkOverlap < 0 {
		return domain.InvalidInput("chunkOverlap must not be negative, got %d", o.ChunkOverlap)
	}
	if o.ChunkOverlap >= o.ChunkSize {
		return domain.InvalidInput("chunkOverlap (%d) must be smaller than chunkSize (%d)", o.ChunkOverlap, o.ChunkSize)
	}
	return nil
}

// Splitter breaks text into ordered chunks.
type Splitter interface {
	Split(text string, opts Options) ([]string, error)
}

// SplitterFunc adapts a function to Splitter.
type SplitterFunc func(text string, opts Options) ([]string, error)

func (f SplitterFunc) Split(text string, opts Options) ([]string, error) {
	return f(text, opts)
}

// Table maps split type names to splitters.
type Table struct {
	splitters map[string]Splitter
}

// NewDefaultTable registers the built-in splitters.
func NewDefaultTable() *Table {
	return &Table{splitters: map[string]Splitter{
		TypeCharacter: SplitterFunc(ByCharacter),
		TypeRecursive: SplitterFunc(Recursive),
		TypeCode:      SplitterFunc(Code),
		TypeMarkdown:  SplitterFunc(MarkdownHeaders),
		TypeToken:     SplitterFunc(ByToken),
	}}
}

// Lookup returns the splitter for name or an UnknownSplitter error.
func (t *Table) Lookup(name string) (Splitter, error) {
	s, ok := t.splitters[name]
	if !ok {
		return nil, domain.UnknownSplitter(name)
	}
	return s, nil
}

// Split validates opts and runs the named splitter.
func (t *Table) Split(name, text string, opts Options) ([]string, error) {
	s, err := t.Lookup(name)
	if err != nil {
		return nil, err
	}
	if err := opts.check(); err != nil {
		return nil, err
	}
	chunks, err := s.Split(text, opts)
	if err != nil {
		return nil, err
	}
	if chunks == nil {
		chunks = []string{}
	}
	return chunks, nil
}

// Names returns the registered split types in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.splitters))
	for n := range t.splitters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
