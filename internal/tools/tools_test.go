package tools_test

import (
	"context"
	"encoding/csv"
	"io"
	"maps"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/inf-monkeys/monkey-tools-text/internal/logging"
	"github.com/inf-monkeys/monkey-tools-text/internal/tools"
	"github.com/inf-monkeys/monkey-tools-text/pkg/adapters/memory"
	"github.com/inf-monkeys/monkey-tools-text/pkg/adapters/process"
	"github.com/inf-monkeys/monkey-tools-text/pkg/convert"
	"github.com/inf-monkeys/monkey-tools-text/pkg/dispatch"
	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
	"github.com/inf-monkeys/monkey-tools-text/pkg/loader"
	"github.com/inf-monkeys/monkey-tools-text/pkg/ocr"
	"github.com/inf-monkeys/monkey-tools-text/pkg/registry"
	"github.com/inf-monkeys/monkey-tools-text/pkg/split"
	"github.com/inf-monkeys/monkey-tools-text/pkg/staging"
)

const storeURL = "memory://artifacts"

// fakeRunner stands in for pandoc and paddleocr. It writes the file a real
// command would produce, or blocks until the context ends when slow is set.
type fakeRunner struct {
	slow  bool
	calls []string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (process.Result, error) {
	f.calls = append(f.calls, name)
	if f.slow {
		<-ctx.Done()
		return process.Result{}, domain.ExternalCallTimeout(name, ctx.Err())
	}
	for i := 0; i+1 < len(args); i++ {
		switch args[i] {
		case "-o":
			if err := os.WriteFile(args[i+1], []byte("converted"), 0o644); err != nil {
				return process.Result{}, err
			}
		case "--output":
			nested := filepath.Join(args[i+1], "page")
			if err := os.MkdirAll(nested, 0o755); err != nil {
				return process.Result{}, err
			}
			if err := os.WriteFile(filepath.Join(nested, "page_ocr.docx"), []byte("docx"), 0o644); err != nil {
				return process.Result{}, err
			}
		}
	}
	return process.Result{}, nil
}

type fakeEngine struct {
	got ocr.Input
}

func (e *fakeEngine) Name() string { return "fake" }

func (e *fakeEngine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	e.got = in
	return ocr.Result{Text: "recognized " + filepath.Base(in.Path), Engine: e.Name()}, nil
}

type harness struct {
	t      *testing.T
	files  string
	srv    *httptest.Server
	store  *memory.Store
	runner *fakeRunner
	engine *fakeEngine
	d      *dispatch.Dispatcher
}

func newHarness(t *testing.T, opts ...dispatch.Option) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		files:  t.TempDir(),
		store:  memory.NewStore(storeURL),
		runner: &fakeRunner{},
		engine: &fakeEngine{},
	}
	h.srv = httptest.NewServer(http.FileServer(http.Dir(h.files)))
	t.Cleanup(h.srv.Close)

	deps := tools.Deps{
		Stager:     staging.New(h.store, staging.WithLogger(logging.NewNop())),
		Converters: convert.NewDefaultTable(h.runner),
		Splitters:  split.NewDefaultTable(),
		Pandoc:     &convert.Pandoc{Runner: h.runner},
		Static:     loader.NewStatic(5 * time.Second),
		OCR:        h.engine,
		Structure:  &ocr.Structure{Runner: h.runner},
	}
	reg := registry.NewRegistry()
	require.NoError(t, tools.Register(reg, deps))
	reg.Seal()

	opts = append([]dispatch.Option{dispatch.WithLogger(logging.NewNop())}, opts...)
	h.d = dispatch.New(reg, t.TempDir(), opts...)
	return h
}

// serve writes a file into the served directory and returns its URL.
func (h *harness) serve(name, content string) string {
	h.t.Helper()
	require.NoError(h.t, os.WriteFile(filepath.Join(h.files, name), []byte(content), 0o644))
	return h.srv.URL + "/" + name
}

func (h *harness) call(name string, params map[string]any) (domain.Output, error) {
	return h.d.Dispatch(context.Background(), domain.Invocation{ToolName: name, Params: params})
}

// stored reads back an uploaded artifact by its URL.
func (h *harness) stored(url string) string {
	h.t.Helper()
	require.True(h.t, strings.HasPrefix(url, storeURL+"/"), url)
	rc, err := h.store.Open(context.Background(), strings.TrimPrefix(url, storeURL+"/"))
	require.NoError(h.t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(h.t, err)
	return string(data)
}

func TestDescriptors(t *testing.T) {
	descs := tools.Descriptors()
	require.Len(t, descs, 8)

	names := make([]string, 0, len(descs))
	for _, d := range descs {
		assert.NoError(t, d.Check(), d.Name)
		assert.True(t, strings.HasPrefix(d.Path, "/text/"), d.Path)
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{
		"extract_url_content", "file_convert", "ocr", "pdf_to_txt",
		"pp_structure", "text_combination", "text_replace", "text_segment",
	}, names)
}

func TestTextReplace_Inline(t *testing.T) {
	h := newHarness(t)

	out, err := h.call(tools.NameTextReplace, map[string]any{
		"document":    "hello world",
		"searchText":  "world",
		"replaceText": "monkeys",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Output{"result": "hello monkeys"}, out)
	assert.Empty(t, h.store.Keys())
}

func TestTextReplace_URL(t *testing.T) {
	h := newHarness(t)
	url := h.serve("doc.txt", "a-b-c")

	out, err := h.call(tools.NameTextReplace, map[string]any{
		"documentType": "documentUrl",
		"documentUrl":  url,
		"searchText":   "-",
		"replaceText":  "+",
	})
	require.NoError(t, err)
	result := out["result"].(string)
	assert.True(t, strings.HasSuffix(result, "/result.txt"), result)
	assert.Equal(t, "a+b+c", h.stored(result))
}

func TestTextReplace_Invalid(t *testing.T) {
	h := newHarness(t)

	_, err := h.call(tools.NameTextReplace, map[string]any{"searchText": "a", "replaceText": "b"})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	_, err = h.call(tools.NameTextReplace, map[string]any{"document": "x", "searchText": "", "replaceText": "b"})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestTextSegment(t *testing.T) {
	const code = "def a():\n    return 1\n\ndef b():\n    return 2\n"
	tests := []struct {
		name   string
		text   string
		params map[string]any
		want   []string
	}{
		{
			name: "defaults",
			text: "a\n\nb\n\nc",
			want: []string{"a", "b", "c"},
		},
		{
			name: "character splitter",
			text: "a\n\nb\n\nc",
			params: map[string]any{
				"splitType":    "splitByCharacter",
				"separator":    "\n\n",
				"chunkSize":    10,
				"chunkOverlap": 0,
			},
			want: []string{"a", "b", "c"},
		},
		{
			name:   "code splitter with default language",
			text:   code,
			params: map[string]any{"splitType": "splitCode", "chunkSize": 30, "chunkOverlap": 0},
			want:   []string{"def a():\n    return 1", "def b():\n    return 2"},
		},
		{
			name:   "code splitter with language",
			text:   code,
			params: map[string]any{"splitType": "splitCode", "language": "go", "chunkSize": 30, "chunkOverlap": 0},
			want:   []string{"def a():\n    return 1", "def b():\n    return 2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			params := map[string]any{"txtUrl": h.serve("doc.txt", tt.text)}
			maps.Copy(params, tt.params)

			out, err := h.call(tools.NameTextSegment, params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out["result"])
			assert.Empty(t, h.store.Keys())
		})
	}
}

func TestTextSegment_UnknownSplitterSkipsDownload(t *testing.T) {
	h := newHarness(t)

	_, err := h.call(tools.NameTextSegment, map[string]any{
		"txtUrl":    h.srv.URL + "/missing.txt",
		"splitType": "bogus",
	})
	// Rejected by the option list before the handler runs.
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestTextSegment_BadOverlap(t *testing.T) {
	h := newHarness(t)
	url := h.serve("doc.txt", "abc")

	_, err := h.call(tools.NameTextSegment, map[string]any{
		"txtUrl":       url,
		"chunkSize":    10,
		"chunkOverlap": 10,
	})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestTextCombination(t *testing.T) {
	tests := []struct {
		name    string
		docType string
		docs    []any
		want    string
	}{
		{"txt", "txt", []any{"one", "two", "three"}, "one\ntwo\nthree\n"},
		{"json", "json", []any{`{"a":1}`, `[2, 3]`}, `[{"a":1},[2,3]]`},
		{"jsonl", "jsonl", []any{"{\"a\": 1}\n\n{\"b\":2}", `{"c":3}`}, "{\"a\":1}\n{\"b\":2}\n{\"c\":3}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			out, err := h.call(tools.NameTextCombination, map[string]any{
				"documents":    tt.docs,
				"documentType": tt.docType,
			})
			require.NoError(t, err)
			url := out["result"].(string)
			assert.True(t, strings.HasSuffix(url, "/result."+tt.docType), url)
			assert.Equal(t, tt.want, h.stored(url))
		})
	}
}

func TestTextCombination_DefaultType(t *testing.T) {
	h := newHarness(t)

	out, err := h.call(tools.NameTextCombination, map[string]any{"documents": []any{"a", "b"}})
	require.NoError(t, err)
	url := out["result"].(string)
	assert.True(t, strings.HasSuffix(url, "/result.txt"), url)
	assert.Equal(t, "a\nb\n", h.stored(url))
}

func TestTextCombination_URLs(t *testing.T) {
	h := newHarness(t)
	a := h.serve("a.txt", "first")
	b := h.serve("b.txt", "second")

	out, err := h.call(tools.NameTextCombination, map[string]any{
		"textOrUrl":    "url",
		"documentsUrl": []any{a, b},
		"documentType": "txt",
	})
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", h.stored(out["result"].(string)))
}

func TestTextCombination_TypeMismatch(t *testing.T) {
	h := newHarness(t)
	a := h.serve("a.txt", "first")

	_, err := h.call(tools.NameTextCombination, map[string]any{
		"textOrUrl":    "url",
		"documentsUrl": []any{a},
		"documentType": "json",
	})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	assert.Empty(t, h.store.Keys())
}

func TestCombine_InvalidJSON(t *testing.T) {
	_, err := tools.Combine("json", []string{"{"})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestFileConvert_XLSXToCSV(t *testing.T) {
	h := newHarness(t)

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"name", "count"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"apples", 3}))
	require.NoError(t, f.SaveAs(filepath.Join(h.files, "fruit.xlsx")))
	require.NoError(t, f.Close())

	out, err := h.call(tools.NameFileConvert, map[string]any{
		"url":           h.srv.URL + "/fruit.xlsx",
		"input_format":  "xlsx",
		"output_format": "csv",
	})
	require.NoError(t, err)
	url := out["result"].(string)
	assert.True(t, strings.HasSuffix(url, "/fruit.csv"), url)

	rows, err := csv.NewReader(strings.NewReader(h.stored(url))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"name", "count"}, {"apples", "3"}}, rows)
}

func TestFileConvert_UnsupportedTouchesNothing(t *testing.T) {
	h := newHarness(t)

	_, err := h.call(tools.NameFileConvert, map[string]any{
		"url":           h.srv.URL + "/missing.xlsx",
		"input_format":  "xlsx",
		"output_format": "pdf",
	})
	require.Error(t, err)
	assert.Equal(t, domain.KindUnsupported, domain.KindOf(err))
	assert.ErrorIs(t, err, domain.ErrUnsupportedConversion)
	assert.Empty(t, h.store.Keys())
}

func TestFileConvert_TimeoutSkipsUpload(t *testing.T) {
	h := newHarness(t, dispatch.WithTimeout(100*time.Millisecond))
	h.runner.slow = true
	url := h.serve("notes.md", "# notes")

	_, err := h.call(tools.NameFileConvert, map[string]any{
		"url":           url,
		"input_format":  "md",
		"output_format": "docx",
	})
	require.Error(t, err)
	assert.Equal(t, domain.KindExternalTimeout, domain.KindOf(err))
	assert.Empty(t, h.store.Keys())
}

func TestFileConvert_DownloadFailure(t *testing.T) {
	h := newHarness(t)

	_, err := h.call(tools.NameFileConvert, map[string]any{
		"url":           h.srv.URL + "/missing.md",
		"input_format":  "md",
		"output_format": "docx",
	})
	assert.Equal(t, domain.KindDownloadFailed, domain.KindOf(err))
	assert.Empty(t, h.runner.calls)
}

func TestOCR(t *testing.T) {
	h := newHarness(t)
	url := h.serve("scan.png", "not really a png")

	out, err := h.call(tools.NameOCR, map[string]any{"url": url, "language": "eng"})
	require.NoError(t, err)
	assert.Equal(t, domain.Output{"result": "recognized scan.png"}, out)
	assert.Equal(t, []string{"eng"}, h.engine.got.Languages)

	_, err = h.call(tools.NameOCR, map[string]any{"url": h.srv.URL + "/scan.pdf"})
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestOCR_DefaultLanguages(t *testing.T) {
	h := newHarness(t)
	url := h.serve("scan.jpg", "jpg")

	_, err := h.call(tools.NameOCR, map[string]any{"url": url})
	require.NoError(t, err)
	assert.Equal(t, []string{"chi_sim", "eng"}, h.engine.got.Languages)
}

func TestPPStructure(t *testing.T) {
	h := newHarness(t)
	url := h.serve("page.png", "png")

	out, err := h.call(tools.NamePPStructure, map[string]any{"url": url})
	require.NoError(t, err)
	result := out["result"].(string)
	assert.True(t, strings.HasSuffix(result, "/page.docx"), result)
	assert.Equal(t, "docx", h.stored(result))
	assert.Equal(t, []string{process.CommandPaddleOCR}, h.runner.calls)
}

func TestPDFToText_Malformed(t *testing.T) {
	h := newHarness(t)
	url := h.serve("broken.pdf", "this is not a pdf")

	_, err := h.call(tools.NamePDFToText, map[string]any{"pdfUrl": url})
	assert.Equal(t, domain.KindExternalFailure, domain.KindOf(err))
	assert.Empty(t, h.store.Keys())
}

func TestExtractURLContent(t *testing.T) {
	h := newHarness(t)
	url := h.serve("page.html", `<html><head><title>Bananas</title></head><body><p>Bananas are yellow.</p></body></html>`)

	out, err := h.call(tools.NameExtractURLContent, map[string]any{"url": url})
	require.NoError(t, err)
	doc, ok := out["result"].(loader.Document)
	require.True(t, ok)
	assert.Contains(t, doc.PageContent, "Bananas are yellow.")

	_, err = h.call(tools.NameExtractURLContent, map[string]any{"url": url, "headless": true})
	assert.Equal(t, domain.KindUnsupported, domain.KindOf(err))
}
