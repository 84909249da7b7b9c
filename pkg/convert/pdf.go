package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFText extracts the text layer of a PDF and writes it as Markdown, one
// paragraph block per page. Scanned PDFs without a text layer produce an
// empty document; use the pdf_to_txt tool for those.
type PDFText struct {
	// Extract overrides the text extractor. Defaults to ExtractPDFText.
	Extract func(path string) ([]string, error)
}

func (p *PDFText) extract(path string) ([]string, error) {
	if p.Extract != nil {
		return p.Extract(path)
	}
	return ExtractPDFText(path)
}

// Convert writes the Markdown rendition of in to out.
func (p *PDFText) Convert(ctx context.Context, in, out string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pages, err := p.extract(in)
	if err != nil {
		return err
	}
	return os.WriteFile(out, []byte(pagesToMarkdown(pages)), 0o644)
}

// ToDocx extracts text to an intermediate Markdown file next to out and
// hands it to pandoc.
func (p *PDFText) ToDocx(ctx context.Context, pan *Pandoc, in, out string) error {
	md := strings.TrimSuffix(out, filepath.Ext(out)) + ".extracted.md"
	if err := p.Convert(ctx, in, md); err != nil {
		return err
	}
	return pan.Converter("markdown", "docx").Convert(ctx, md, out)
}

// ExtractPDFText returns the plain text of every page.
func ExtractPDFText(path string) (pages []string, err error) {
	defer func() {
		// The parser panics on some malformed inputs.
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("malformed pdf %s: %v", filepath.Base(path), r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	n := r.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func pagesToMarkdown(pages []string) string {
	blocks := make([]string, 0, len(pages))
	for _, page := range pages {
		var lines []string
		for _, line := range strings.Split(page, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			blocks = append(blocks, strings.Join(lines, "\n"))
		}
	}
	return strings.Join(blocks, "\n\n") + "\n"
}
