package ocr

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/inf-monkeys/monkey-tools-text/pkg/adapters/process"
	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
)

// Structure runs PaddleOCR's PP-Structure layout recovery, which rebuilds an
// image or PDF as an editable docx.
type Structure struct {
	Runner CommandRunner
}

// Args builds the paddleocr argument vector for recovering input into outDir.
func (s *Structure) Args(input, outDir string) []string {
	return []string{
		"--image_dir", input,
		"--type", "structure",
		"--recovery", "true",
		"--use_pdf2docx_api", "true",
		"--output", outDir,
	}
}

// Recover runs layout recovery and returns the path of the produced docx.
// paddleocr may nest its output in subdirectories, so outDir is searched.
func (s *Structure) Recover(ctx context.Context, input, outDir string) (string, error) {
	if _, err := s.Runner.Run(ctx, process.CommandPaddleOCR, s.Args(input, outDir)...); err != nil {
		return "", err
	}

	docx, err := FindFirst(outDir, ".docx")
	if err != nil {
		return "", domain.ExternalCallFailure("layout recovery", err)
	}
	return docx, nil
}

var errNoOutput = errors.New("no output file produced")

// FindFirst returns the lexically first file below dir with extension ext.
func FindFirst(dir, ext string) (string, error) {
	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ext) {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if found == "" {
		return "", errNoOutput
	}
	return found, nil
}
