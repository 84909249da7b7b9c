// Package tui renders the tool catalog and the startup banner for terminals.
package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
)

// Renderer turns Markdown into terminal output.
type Renderer func(markdown string) (string, error)

// NewRenderer returns a glamour renderer when f is a terminal and a
// pass-through otherwise, so piped output stays plain Markdown.
func NewRenderer(f *os.File) Renderer {
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return func(markdown string) (string, error) { return markdown, nil }
	}

	width := 100
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 20 {
		width = w - 4
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return r.Render
}

// Catalog renders the descriptors as a Markdown document: one section per
// tool with its route and a table of inputs.
func Catalog(descs []domain.ToolDescriptor) string {
	var b strings.Builder
	b.WriteString("# Tools\n\n")
	for _, d := range descs {
		fmt.Fprintf(&b, "## %s\n\n", d.Name)
		fmt.Fprintf(&b, "**%s**. %s\n\n", d.DisplayName, d.Description)
		fmt.Fprintf(&b, "`POST %s` · categories: %s · ~%ds\n\n", d.Path, strings.Join(d.Categories, ", "), d.EstimatedSeconds)

		if len(d.Inputs) == 0 {
			continue
		}
		b.WriteString("| input | kind | required | default | shown when |\n")
		b.WriteString("|---|---|---|---|---|\n")
		for _, f := range d.Inputs {
			kind := string(f.Kind)
			if f.Multiple() {
				kind += "[]"
			}
			if opts := f.OptionValues(); len(opts) > 0 {
				kind += ": " + strings.Join(opts, " / ")
			}
			fmt.Fprintf(&b, "| `%s` | %s | %t | %s | %s |\n",
				f.Name, cell(kind), f.Required, cell(defaultOf(f)), cell(conditionOf(f.Visibility)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func defaultOf(f domain.FieldSpec) string {
	if f.Default == nil {
		return ""
	}
	return fmt.Sprintf("%q", fmt.Sprint(f.Default))
}

func conditionOf(v *domain.Visibility) string {
	if v == nil {
		return ""
	}
	parts := make([]string, 0, len(v.Show))
	for _, c := range v.Show {
		parts = append(parts, c.Field+" ∈ {"+strings.Join(c.Values, ", ")+"}")
	}
	return strings.Join(parts, " and ")
}

// cell escapes table separators and newlines.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", `\n`)
}
