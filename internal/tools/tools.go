// Package tools declares the text and document tools and binds them to
// their collaborators.
package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/inf-monkeys/monkey-tools-text/pkg/convert"
	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
	"github.com/inf-monkeys/monkey-tools-text/pkg/loader"
	"github.com/inf-monkeys/monkey-tools-text/pkg/ocr"
	"github.com/inf-monkeys/monkey-tools-text/pkg/registry"
	"github.com/inf-monkeys/monkey-tools-text/pkg/split"
	"github.com/inf-monkeys/monkey-tools-text/pkg/staging"
)

// Tool names.
const (
	NameExtractURLContent = "extract_url_content"
	NameFileConvert       = "file_convert"
	NameOCR               = "ocr"
	NamePDFToText         = "pdf_to_txt"
	NamePPStructure       = "pp_structure"
	NameTextCombination   = "text_combination"
	NameTextReplace       = "text_replace"
	NameTextSegment       = "text_segment"
)

const (
	categoryFile = "file"
	categoryText = "text"

	iconFile = "emoji:📝:#56b4a2"
	iconText = "emoji:✂️:#f3cd5f"

	maxUploadBytes = 20 << 20
)

// Deps are the collaborators of the tools. Nil collaborators are allowed
// for tools that are not registered through Register.
type Deps struct {
	Stager     *staging.Stager
	Converters *convert.Table
	Splitters  *split.Table
	Pandoc     *convert.Pandoc

	// Static and Headless load pages for extract_url_content.
	Static   loader.Loader
	Headless loader.Loader

	OCR       ocr.Engine
	Structure *ocr.Structure
	// Languages is the default OCR language selection, e.g. "chi_sim+eng".
	Languages string
}

// Tool is a descriptor with its handler.
type Tool struct {
	Descriptor domain.ToolDescriptor
	Handler    registry.Handler
}

// All returns every tool in catalog order.
func All(d Deps) []Tool {
	return []Tool{
		extractURLContent(d),
		fileConvert(d),
		ocrTool(d),
		pdfToText(d),
		ppStructure(d),
		textCombination(d),
		textReplace(d),
		textSegment(d),
	}
}

// Register adds every tool to reg.
func Register(reg *registry.Registry, d Deps) error {
	for _, t := range All(d) {
		if err := reg.Register(t.Descriptor, t.Handler); err != nil {
			return err
		}
	}
	return nil
}

// Descriptors returns the catalog without binding any collaborator.
func Descriptors() []domain.ToolDescriptor {
	all := All(Deps{})
	out := make([]domain.ToolDescriptor, len(all))
	for i, t := range all {
		out[i] = t.Descriptor
	}
	return out
}

func fileField(name, displayName string, required bool, exts ...string) domain.FieldSpec {
	return domain.FieldSpec{
		Name:        name,
		DisplayName: displayName,
		Kind:        domain.KindFile,
		Required:    required,
		Constraints: &domain.Constraints{AcceptedExtensions: exts, MaxSizeBytes: maxUploadBytes},
	}
}

func options(values ...string) []domain.Option {
	out := make([]domain.Option, len(values))
	for i, v := range values {
		out[i] = domain.Option{Label: strings.ToUpper(v), Value: v}
	}
	return out
}

// readText reads a staged file that must be UTF-8 text.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read staged file: %w", err)
	}
	if !utf8.Valid(data) {
		return "", domain.InvalidInput("%s is not a valid UTF-8 text file", filepath.Base(path))
	}
	return string(data), nil
}

// writeAndStage writes content into the task outputs directory and uploads it.
func writeAndStage(ctx context.Context, d Deps, call *registry.Call, name, content string) (string, error) {
	dir, err := call.Workspace.Sub("outputs")
	if err != nil {
		return "", err
	}
	local := filepath.Join(dir, name)
	if err := os.WriteFile(local, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	artifact, err := d.Stager.StageOutput(ctx, local, call.Invocation.TaskID, name)
	if err != nil {
		return "", err
	}
	return artifact.URL, nil
}

// replaceExt swaps the extension of a file name.
func replaceExt(name, ext string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + "." + ext
}
