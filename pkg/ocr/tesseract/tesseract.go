//go:build gosseract

// Package tesseract registers an in-process OCR engine backed by libtesseract
// through gosseract. It needs cgo and the tesseract headers, so it is only
// built with the gosseract build tag.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/inf-monkeys/monkey-tools-text/pkg/ocr"
)

// EngineName is the name the engine registers under.
const EngineName = "gosseract"

func init() {
	ocr.RegisterEngine(EngineName, func(ocr.CommandRunner) ocr.Engine {
		return ocr.Detached(NewEngine())
	})
}

// Engine recognizes text with a fresh gosseract client per image.
type Engine struct {
	clientFactory func() *gosseract.Client
}

// NewEngine constructs a gosseract-backed engine.
func NewEngine() *Engine {
	return &Engine{clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return EngineName }

// Recognize runs OCR on in.Path. libtesseract cannot be interrupted, so ctx
// is only checked before starting.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImage(in.Path); err != nil {
		return ocr.Result{}, fmt.Errorf("set image: %w", err)
	}
	if len(in.Languages) > 0 {
		if err := c.SetLanguage(in.Languages...); err != nil {
			return ocr.Result{}, fmt.Errorf("set languages: %w", err)
		}
	}
	text, err := c.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("recognize text: %w", err)
	}
	return ocr.Result{Text: strings.TrimSpace(text), Engine: EngineName}, nil
}
