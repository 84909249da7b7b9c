package tools

import (
	"context"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
	"github.com/inf-monkeys/monkey-tools-text/pkg/registry"
)

func extractURLContent(d Deps) Tool {
	desc := domain.ToolDescriptor{
		Name:             NameExtractURLContent,
		Path:             "/text/extract-url-content",
		Categories:       []string{categoryFile},
		DisplayName:      "Extract URL content",
		Description:      "Extract the readable text of a web page",
		Icon:             iconFile,
		EstimatedSeconds: 30,
		Inputs: []domain.FieldSpec{
			{Name: "headless", DisplayName: "Render with a headless browser", Kind: domain.KindBoolean, Default: false},
			{Name: "url", DisplayName: "URL", Kind: domain.KindString, Required: true},
		},
		Outputs: []domain.FieldSpec{
			{
				Name:        "result",
				DisplayName: "Extracted content",
				Kind:        domain.KindAny,
				Properties: []domain.FieldSpec{
					{Name: "metadata", DisplayName: "Metadata", Kind: domain.KindAny},
					{Name: "page_content", DisplayName: "Text content", Kind: domain.KindString},
				},
			},
		},
	}

	return Tool{Descriptor: desc, Handler: func(ctx context.Context, call *registry.Call) (domain.Output, error) {
		l := d.Static
		if call.Params.Bool("headless") {
			l = d.Headless
		}
		if l == nil {
			return nil, domain.NewError(domain.KindUnsupported, "no page loader configured for this mode", nil)
		}

		doc, err := l.Load(ctx, call.Params.String("url"))
		if err != nil {
			return nil, err
		}
		return domain.Output{"result": doc}, nil
	}}
}
