package tools

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
	"github.com/inf-monkeys/monkey-tools-text/pkg/ocr"
	"github.com/inf-monkeys/monkey-tools-text/pkg/registry"
)

var ocrLanguages = []domain.Option{
	{Label: "Chinese (simplified) + English", Value: "chi_sim+eng"},
	{Label: "Chinese (simplified)", Value: "chi_sim"},
	{Label: "Chinese (traditional)", Value: "chi_tra"},
	{Label: "English", Value: "eng"},
	{Label: "Japanese", Value: "jpn"},
	{Label: "Korean", Value: "kor"},
}

func ocrTool(d Deps) Tool {
	defaultLang := d.Languages
	if defaultLang == "" {
		defaultLang = ocr.DefaultLanguages
	}
	langs := ocrLanguages
	if !containsOption(langs, defaultLang) {
		langs = append([]domain.Option{{Label: defaultLang, Value: defaultLang}}, langs...)
	}

	desc := domain.ToolDescriptor{
		Name:             NameOCR,
		Path:             "/text/ocr",
		Categories:       []string{categoryFile},
		DisplayName:      "OCR",
		Description:      "Recognize the text in an image",
		Icon:             iconFile,
		EstimatedSeconds: 20,
		Inputs: []domain.FieldSpec{
			fileField("url", "Image URL", true, ".jpg", ".jpeg", ".png"),
			{Name: "language", DisplayName: "Language", Kind: domain.KindOptions, Default: defaultLang, Options: langs},
		},
		Outputs: []domain.FieldSpec{
			{Name: "result", DisplayName: "Recognized text", Kind: domain.KindString},
		},
	}

	return Tool{Descriptor: desc, Handler: func(ctx context.Context, call *registry.Call) (domain.Output, error) {
		if d.OCR == nil {
			return nil, domain.NewError(domain.KindUnsupported, "no OCR engine configured", nil)
		}
		img, err := d.Stager.StageInput(ctx, call.Workspace, call.Params.String("url"))
		if err != nil {
			return nil, err
		}

		res, err := d.OCR.Recognize(ctx, ocr.Input{
			Path:      img,
			Languages: ocr.SplitLanguages(call.Params.String("language")),
		})
		if err != nil {
			return nil, err
		}
		return domain.Output{"result": res.Text}, nil
	}}
}

func containsOption(opts []domain.Option, value string) bool {
	for _, o := range opts {
		if o.Value == value {
			return true
		}
	}
	return false
}

func ppStructure(d Deps) Tool {
	desc := domain.ToolDescriptor{
		Name:             NamePPStructure,
		Path:             "/text/pp-structure",
		Categories:       []string{categoryFile},
		DisplayName:      "Layout recovery",
		Description:      "Rebuild a scanned page as an editable document",
		Icon:             iconFile,
		EstimatedSeconds: 60,
		Inputs: []domain.FieldSpec{
			fileField("url", "File URL", true, ".jpg", ".jpeg", ".png"),
		},
		Outputs: []domain.FieldSpec{
			{Name: "result", DisplayName: "Document URL", Kind: domain.KindString},
		},
	}

	return Tool{Descriptor: desc, Handler: func(ctx context.Context, call *registry.Call) (domain.Output, error) {
		if d.Structure == nil {
			return nil, domain.NewError(domain.KindUnsupported, "layout recovery is not configured", nil)
		}
		in, err := d.Stager.StageInput(ctx, call.Workspace, call.Params.String("url"))
		if err != nil {
			return nil, err
		}
		outDir, err := call.Workspace.Sub("structure")
		if err != nil {
			return nil, err
		}

		docx, err := d.Structure.Recover(ctx, in, outDir)
		if err != nil {
			return nil, err
		}

		name := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in)) + ".docx"
		artifact, err := d.Stager.StageOutput(ctx, docx, call.Invocation.TaskID, name)
		if err != nil {
			return nil, err
		}
		return domain.Output{"result": artifact.URL}, nil
	}}
}
