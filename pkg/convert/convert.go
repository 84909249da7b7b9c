// Package convert maps (input format, output format) pairs to converters.
//
// The table is fixed at construction time. A pair without a converter is
// reported as an unsupported conversion before any file is touched, so
// callers can look up first and stage inputs afterwards.
package convert

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/inf-monkeys/monkey-tools-text/pkg/adapters/process"
	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
)

// Converter turns the file at in into the file at out.
type Converter interface {
	Convert(ctx context.Context, in, out string) error
}

// ConverterFunc adapts a function to Converter.
type ConverterFunc func(ctx context.Context, in, out string) error

func (f ConverterFunc) Convert(ctx context.Context, in, out string) error {
	return f(ctx, in, out)
}

// CommandRunner runs an allow-listed external command.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (process.Result, error)
}

// Pair identifies a conversion by normalized format names.
type Pair struct {
	From string
	To   string
}

func (p Pair) String() string { return p.From + "->" + p.To }

// Table is the registry of supported conversions.
type Table struct {
	converters map[Pair]Converter
}

// NewTable builds an empty table. Use Register or NewDefaultTable.
func NewTable() *Table {
	return &Table{converters: make(map[Pair]Converter)}
}

// Image formats that can be written. webp can only be read.
var (
	ImageInputs  = []string{"png", "jpg", "bmp", "gif", "tiff", "webp"}
	ImageOutputs = []string{"png", "jpg", "bmp", "gif", "tiff"}
)

// NewDefaultTable registers every built-in conversion. runner executes
// pandoc for the document conversions.
func NewDefaultTable(runner CommandRunner) *Table {
	t := NewTable()
	for _, from := range ImageInputs {
		for _, to := range ImageOutputs {
			if from != to {
				t.Register(from, to, ImageConverter(to))
			}
		}
	}

	pdf := &PDFText{}
	pan := &Pandoc{Runner: runner}

	t.Register("pdf", "md", pdf)
	t.Register("pdf", "docx", ConverterFunc(func(ctx context.Context, in, out string) error {
		return pdf.ToDocx(ctx, pan, in, out)
	}))
	t.Register("docx", "md", pan.Converter("docx", "markdown"))
	t.Register("md", "docx", pan.Converter("markdown", "docx"))
	t.Register("xlsx", "csv", ConverterFunc(XLSXToCSV))
	t.Register("csv", "xlsx", ConverterFunc(CSVToXLSX))
	return t
}

// Register binds a converter to a pair, replacing any existing one.
func (t *Table) Register(from, to string, c Converter) {
	t.converters[Pair{From: NormalizeFormat(from), To: NormalizeFormat(to)}] = c
}

// Lookup returns the converter for (from, to) or an UnsupportedConversion error.
func (t *Table) Lookup(from, to string) (Converter, error) {
	c, ok := t.converters[Pair{From: NormalizeFormat(from), To: NormalizeFormat(to)}]
	if !ok {
		return nil, domain.UnsupportedConversion(from, to)
	}
	return c, nil
}

// Pairs lists the registered conversions in a stable order.
func (t *Table) Pairs() []Pair {
	pairs := make([]Pair, 0, len(t.converters))
	for p := range t.converters {
		pairs = append(pairs, p)
	}
	slices.SortFunc(pairs, func(a, b Pair) int {
		if c := strings.Compare(a.From, b.From); c != 0 {
			return c
		}
		return strings.Compare(a.To, b.To)
	})
	return pairs
}

// Convert looks up and runs the converter for (from, to).
func (t *Table) Convert(ctx context.Context, from, to, in, out string) error {
	c, err := t.Lookup(from, to)
	if err != nil {
		return err
	}
	if err := c.Convert(ctx, in, out); err != nil {
		return fmt.Errorf("convert %s to %s: %w", NormalizeFormat(from), NormalizeFormat(to), err)
	}
	return nil
}

// NormalizeFormat lower-cases a format name and folds common aliases.
func NormalizeFormat(f string) string {
	f = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(f), "."))
	switch f {
	case "jpeg":
		return "jpg"
	case "tif":
		return "tiff"
	case "markdown":
		return "md"
	}
	return f
}
