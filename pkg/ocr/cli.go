package ocr

import (
	"context"
	"strings"

	"github.com/inf-monkeys/monkey-tools-text/pkg/adapters/process"
)

// EngineTesseractCLI is the name of the engine that shells out to tesseract.
const EngineTesseractCLI = "tesseract"

func init() {
	RegisterEngine(EngineTesseractCLI, func(runner CommandRunner) Engine {
		return &CLIEngine{Runner: runner}
	})
}

// CLIEngine runs the tesseract binary and reads the text from stdout.
// Cancelling the context kills the process.
type CLIEngine struct {
	Runner CommandRunner
}

func (e *CLIEngine) Name() string { return EngineTesseractCLI }

func (e *CLIEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	res, err := e.Runner.Run(ctx, process.CommandTesseract, e.Args(in)...)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: normalize(res.Stdout), Engine: e.Name()}, nil
}

// Args builds the argument vector for one image.
func (e *CLIEngine) Args(in Input) []string {
	langs := in.Languages
	if len(langs) == 0 {
		langs = SplitLanguages("")
	}
	return []string{in.Path, "stdout", "-l", strings.Join(langs, "+")}
}

// normalize drops blank lines and trailing spaces so the result reads as
// one recognized line per row.
func normalize(s string) string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimRight(l, " \t\r\f"); strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}
