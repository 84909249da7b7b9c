package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/inf-monkeys/monkey-tools-text/pkg/convert"
	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
	"github.com/inf-monkeys/monkey-tools-text/pkg/registry"
)

func pdfToText(d Deps) Tool {
	desc := domain.ToolDescriptor{
		Name:             NamePDFToText,
		Path:             "/text/pdf-to-text",
		Categories:       []string{categoryFile},
		DisplayName:      "PDF to text",
		Description:      "Extract the plain text of a PDF",
		Icon:             iconFile,
		EstimatedSeconds: 180,
		Inputs: []domain.FieldSpec{
			fileField("pdfUrl", "PDF file URL", true, ".pdf"),
		},
		Outputs: []domain.FieldSpec{
			{Name: "result", DisplayName: "Text file URL", Kind: domain.KindString},
		},
	}

	return Tool{Descriptor: desc, Handler: func(ctx context.Context, call *registry.Call) (domain.Output, error) {
		in, err := d.Stager.StageInput(ctx, call.Workspace, call.Params.String("pdfUrl"))
		if err != nil {
			return nil, err
		}
		name := replaceExt(filepath.Base(in), "txt")

		text, err := extractText(ctx, d, call, in)
		if err != nil {
			return nil, err
		}

		url, err := writeAndStage(ctx, d, call, name, text)
		if err != nil {
			return nil, err
		}
		return domain.Output{"result": url}, nil
	}}
}

// extractText reads the text layer of the PDF. PDFs without one are
// scans: they go through layout recovery and pandoc instead.
func extractText(ctx context.Context, d Deps, call *registry.Call, in string) (string, error) {
	pages, err := convert.ExtractPDFText(in)
	if err != nil {
		return "", domain.ExternalCallFailure("pdf text extraction", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text := strings.TrimSpace(strings.Join(pages, "\n\n"))
	if text != "" || d.Structure == nil || d.Pandoc == nil {
		return text + "\n", nil
	}

	docxDir, err := call.Workspace.Sub("structure")
	if err != nil {
		return "", err
	}
	docx, err := d.Structure.Recover(ctx, in, docxDir)
	if err != nil {
		return "", err
	}
	plain := replaceExt(docx, "txt")
	if err := d.Pandoc.Converter("docx", "plain").Convert(ctx, docx, plain); err != nil {
		return "", err
	}
	data, err := os.ReadFile(plain)
	if err != nil {
		return "", domain.ExternalCallFailure("pandoc", err)
	}
	return string(data), nil
}
