package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
	"github.com/inf-monkeys/monkey-tools-text/pkg/registry"
	"github.com/inf-monkeys/monkey-tools-text/pkg/split"
)

// Document types accepted by text_combination.
const (
	docJSON  = "json"
	docJSONL = "jsonl"
	docTXT   = "txt"
)

func textCombination(d Deps) Tool {
	desc := domain.ToolDescriptor{
		Name:             NameTextCombination,
		Path:             "/text/text-combination",
		Categories:       []string{categoryText},
		DisplayName:      "Text combination",
		Description:      "Merge several documents into one",
		Icon:             iconText,
		EstimatedSeconds: 30,
		Inputs: []domain.FieldSpec{
			{
				Name:        "textOrUrl",
				DisplayName: "Source",
				Kind:        domain.KindOptions,
				Default:     "text",
				Options:     []domain.Option{{Label: "Plain text", Value: "text"}, {Label: "Text URL", Value: "url"}},
			},
			{
				Name:        "documents",
				DisplayName: "Documents (JSON, JSONL or TXT)",
				Kind:        domain.KindString,
				Visibility:  domain.ShowWhen("textOrUrl", "text"),
				Constraints: &domain.Constraints{AllowMultiple: true},
			},
			{
				Name:        "documentsUrl",
				DisplayName: "Document URLs (JSON, JSONL or TXT)",
				Kind:        domain.KindFile,
				Visibility:  domain.ShowWhen("textOrUrl", "url"),
				Constraints: &domain.Constraints{
					AcceptedExtensions: []string{".json", ".jsonl", ".txt"},
					MaxSizeBytes:       maxUploadBytes,
					AllowMultiple:      true,
				},
			},
			{
				Name:        "documentType",
				DisplayName: "Document type",
				Kind:        domain.KindOptions,
				Default:     docTXT,
				Options:     options(docJSON, docJSONL, docTXT),
			},
		},
		Outputs: []domain.FieldSpec{
			{Name: "result", DisplayName: "Merged document URL", Kind: domain.KindString},
		},
	}

	return Tool{Descriptor: desc, Handler: func(ctx context.Context, call *registry.Call) (domain.Output, error) {
		docType := call.Params.String("documentType")

		var docs []string
		if call.Params.String("textOrUrl") == "url" {
			urls := call.Params.Strings("documentsUrl")
			if len(urls) == 0 {
				return nil, domain.InvalidInput("documentsUrl must list at least one document")
			}
			paths, err := d.Stager.StageInputs(ctx, call.Workspace, urls)
			if err != nil {
				return nil, err
			}
			for _, p := range paths {
				if ext := strings.TrimPrefix(filepath.Ext(p), "."); ext != docType {
					return nil, domain.InvalidInput("documentType is %s but %s is a %s file", docType, filepath.Base(p), ext)
				}
				text, err := readText(p)
				if err != nil {
					return nil, err
				}
				docs = append(docs, text)
			}
		} else {
			docs = call.Params.Strings("documents")
			if len(docs) == 0 {
				return nil, domain.InvalidInput("documents must list at least one document")
			}
		}

		merged, err := Combine(docType, docs)
		if err != nil {
			return nil, err
		}
		url, err := writeAndStage(ctx, d, call, "result."+docType, merged)
		if err != nil {
			return nil, err
		}
		return domain.Output{"result": url}, nil
	}}
}

// Combine merges documents of one type. JSON documents become one array,
// JSONL records are concatenated one per line and text documents are
// joined with a newline after each.
func Combine(docType string, docs []string) (string, error) {
	var b strings.Builder
	switch docType {
	case docJSON:
		values := make([]json.RawMessage, 0, len(docs))
		for i, doc := range docs {
			doc = strings.TrimSpace(doc)
			if !json.Valid([]byte(doc)) {
				return "", domain.InvalidInput("document %d is not valid JSON", i+1)
			}
			values = append(values, json.RawMessage(doc))
		}
		out, err := json.Marshal(values)
		if err != nil {
			return "", err
		}
		b.Write(out)
	case docJSONL:
		for i, doc := range docs {
			for n, line := range strings.Split(doc, "\n") {
				line = strings.TrimSpace(line)
				if line == "" {
					continue
				}
				var compact bytes.Buffer
				if err := json.Compact(&compact, []byte(line)); err != nil {
					return "", domain.InvalidInput("document %d line %d is not valid JSON", i+1, n+1)
				}
				b.Write(compact.Bytes())
				b.WriteByte('\n')
			}
		}
	case docTXT:
		for _, doc := range docs {
			b.WriteString(doc)
			b.WriteByte('\n')
		}
	default:
		return "", domain.InvalidInput("unsupported document type %q", docType)
	}
	return b.String(), nil
}

func textReplace(d Deps) Tool {
	desc := domain.ToolDescriptor{
		Name:             NameTextReplace,
		Path:             "/text/text-replace",
		Categories:       []string{categoryText},
		DisplayName:      "Text replace",
		Description:      "Replace every occurrence of a text in a document",
		Icon:             iconText,
		EstimatedSeconds: 30,
		Inputs: []domain.FieldSpec{
			{
				Name:        "documentType",
				DisplayName: "Document type",
				Kind:        domain.KindOptions,
				Default:     "document",
				Options:     []domain.Option{{Label: "Plain text", Value: "document"}, {Label: "Text URL", Value: "documentUrl"}},
			},
			{
				Name:        "document",
				DisplayName: "Document text",
				Kind:        domain.KindString,
				Visibility:  domain.ShowWhen("documentType", "document"),
			},
			withVisibility(fileField("documentUrl", "Document URL", false, ".txt"), domain.ShowWhen("documentType", "documentUrl")),
			{Name: "searchText", DisplayName: "Text to search for", Kind: domain.KindString, Required: true},
			{Name: "replaceText", DisplayName: "Replacement text", Kind: domain.KindString, Required: true},
		},
		Outputs: []domain.FieldSpec{
			{Name: "result", DisplayName: "Replaced document or its URL", Kind: domain.KindString},
		},
	}

	return Tool{Descriptor: desc, Handler: func(ctx context.Context, call *registry.Call) (domain.Output, error) {
		p := call.Params
		search, replacement := p.String("searchText"), p.String("replaceText")
		if search == "" {
			return nil, domain.InvalidInput("searchText must not be empty")
		}

		if p.String("documentType") == "document" {
			if !p.Has("document") {
				return nil, domain.InvalidInput("document is required when documentType is document")
			}
			return domain.Output{"result": strings.ReplaceAll(p.String("document"), search, replacement)}, nil
		}

		if !p.Has("documentUrl") {
			return nil, domain.InvalidInput("documentUrl is required when documentType is documentUrl")
		}
		in, err := d.Stager.StageInput(ctx, call.Workspace, p.String("documentUrl"))
		if err != nil {
			return nil, err
		}
		text, err := readText(in)
		if err != nil {
			return nil, err
		}
		url, err := writeAndStage(ctx, d, call, "result.txt", strings.ReplaceAll(text, search, replacement))
		if err != nil {
			return nil, err
		}
		return domain.Output{"result": url}, nil
	}}
}

func withVisibility(f domain.FieldSpec, v *domain.Visibility) domain.FieldSpec {
	f.Visibility = v
	return f
}

func textSegment(d Deps) Tool {
	splitTypes := []domain.Option{
		{Label: "Character splitter", Value: split.TypeCharacter},
		{Label: "Code splitter", Value: split.TypeCode},
		{Label: "Markdown splitter", Value: split.TypeMarkdown},
		{Label: "Recursive character splitter", Value: split.TypeRecursive},
		{Label: "Token splitter", Value: split.TypeToken},
	}
	languages := make([]domain.Option, 0, len(split.Languages()))
	for _, l := range split.Languages() {
		languages = append(languages, domain.Option{Label: l, Value: l})
	}

	desc := domain.ToolDescriptor{
		Name:             NameTextSegment,
		Path:             "/text/text-segment",
		Categories:       []string{categoryText},
		DisplayName:      "Text segmentation",
		Description:      "Split a long text file into chunks",
		Icon:             iconText,
		EstimatedSeconds: 30,
		Inputs: []domain.FieldSpec{
			fileField("txtUrl", "Text file", true, ".txt"),
			{Name: "splitType", DisplayName: "Splitter", Kind: domain.KindOptions, Default: split.TypeCharacter, Options: splitTypes},
			{Name: "chunkSize", DisplayName: "Chunk size", Kind: domain.KindNumber, Default: float64(2000)},
			{Name: "chunkOverlap", DisplayName: "Chunk overlap", Kind: domain.KindNumber, Default: float64(10)},
			{
				Name:        "separator",
				DisplayName: "Separator",
				Kind:        domain.KindString,
				Default:     "\n\n",
				Visibility:  domain.ShowWhen("splitType", split.TypeCharacter, split.TypeRecursive),
			},
			{
				Name:        "language",
				DisplayName: "Language",
				Kind:        domain.KindOptions,
				Default:     "python",
				Visibility:  domain.ShowWhen("splitType", split.TypeCode),
				Options:     languages,
			},
		},
		Outputs: []domain.FieldSpec{
			{
				Name:        "result",
				DisplayName: "Chunks",
				Kind:        domain.KindString,
				Constraints: &domain.Constraints{AllowMultiple: true},
			},
		},
	}

	return Tool{Descriptor: desc, Handler: func(ctx context.Context, call *registry.Call) (domain.Output, error) {
		p := call.Params
		splitType := p.String("splitType")

		// Unknown splitters fail before the download.
		if _, err := d.Splitters.Lookup(splitType); err != nil {
			return nil, err
		}

		in, err := d.Stager.StageInput(ctx, call.Workspace, p.String("txtUrl"))
		if err != nil {
			return nil, err
		}
		text, err := readText(in)
		if err != nil {
			return nil, err
		}

		chunks, err := d.Splitters.Split(splitType, text, split.Options{
			ChunkSize:    p.Int("chunkSize"),
			ChunkOverlap: p.Int("chunkOverlap"),
			Separator:    p.String("separator"),
			Language:     p.String("language"),
		})
		if err != nil {
			return nil, err
		}
		return domain.Output{"result": chunks}, nil
	}}
}
