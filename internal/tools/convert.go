package tools

import (
	"context"
	"path/filepath"

	"github.com/inf-monkeys/monkey-tools-text/pkg/convert"
	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
	"github.com/inf-monkeys/monkey-tools-text/pkg/registry"
)

var (
	imageFormats    = []string{"png", "jpg", "bmp", "gif", "tiff", "webp"}
	documentFormats = []string{"pdf", "docx", "md"}
	sheetFormats    = []string{"xlsx", "csv"}
)

func fileConvert(d Deps) Tool {
	inputFormats := append(append(append([]string{}, imageFormats...), documentFormats...), sheetFormats...)

	outputFormat := func(show []string, values ...string) domain.FieldSpec {
		return domain.FieldSpec{
			Name:        "output_format",
			DisplayName: "Output format",
			Kind:        domain.KindOptions,
			Required:    true,
			Options:     options(values...),
			Visibility:  domain.ShowWhen("input_format", show...),
		}
	}

	desc := domain.ToolDescriptor{
		Name:             NameFileConvert,
		Path:             "/text/file-convert",
		Categories:       []string{categoryFile},
		DisplayName:      "File conversion",
		Description:      "Convert a file to another format",
		Icon:             iconFile,
		EstimatedSeconds: 10,
		Inputs: []domain.FieldSpec{
			fileField("url", "File URL", true,
				".png", ".jpg", ".jpeg", ".bmp", ".gif", ".tiff", ".webp", ".pdf", ".docx", ".xlsx", ".csv", ".md"),
			{
				Name:        "input_format",
				DisplayName: "Input format",
				Kind:        domain.KindOptions,
				Default:     "png",
				Options:     options(inputFormats...),
			},
			outputFormat(imageFormats, convert.ImageOutputs...),
			outputFormat(documentFormats, "pdf", "docx", "md"),
			outputFormat(sheetFormats, "xlsx", "csv", "pdf"),
		},
		Outputs: []domain.FieldSpec{
			{Name: "result", DisplayName: "Converted file URL", Kind: domain.KindAny},
		},
	}

	return Tool{Descriptor: desc, Handler: func(ctx context.Context, call *registry.Call) (domain.Output, error) {
		from := call.Params.String("input_format")
		to := call.Params.String("output_format")

		// Unsupported pairs fail before anything is downloaded or stored.
		conv, err := d.Converters.Lookup(from, to)
		if err != nil {
			return nil, err
		}

		in, err := d.Stager.StageInput(ctx, call.Workspace, call.Params.String("url"))
		if err != nil {
			return nil, err
		}
		dir, err := call.Workspace.Sub("outputs")
		if err != nil {
			return nil, err
		}
		name := replaceExt(filepath.Base(in), convert.NormalizeFormat(to))
		out := filepath.Join(dir, name)

		if err := conv.Convert(ctx, in, out); err != nil {
			return nil, err
		}

		artifact, err := d.Stager.StageOutput(ctx, out, call.Invocation.TaskID, name)
		if err != nil {
			return nil, err
		}
		return domain.Output{"result": artifact.URL}, nil
	}}
}
