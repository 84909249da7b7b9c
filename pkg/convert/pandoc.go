package convert

import (
	"context"

	"github.com/inf-monkeys/monkey-tools-text/pkg/adapters/process"
)

// Pandoc runs the pandoc binary through the process allow-list.
type Pandoc struct {
	Runner CommandRunner
}

// Converter returns a converter between two pandoc format names.
func (p *Pandoc) Converter(from, to string) Converter {
	return ConverterFunc(func(ctx context.Context, in, out string) error {
		_, err := p.Runner.Run(ctx, process.CommandPandoc, p.Args(from, to, in, out)...)
		return err
	})
}

// Args builds the pandoc argv for one conversion.
func (p *Pandoc) Args(from, to, in, out string) []string {
	args := []string{in, "-f", from, "-t", to, "-o", out}
	if to == "markdown" || to == "plain" {
		args = append(args, "--wrap=none")
	}
	if from == "docx" && to == "markdown" {
		args = append(args, "--reference-links")
	}
	if to == "docx" || to == "markdown" {
		args = append(args, "-s")
	}
	return args
}
