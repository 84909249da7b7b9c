/*
Package monkeytools serves a catalog of text and document tools over HTTP
and MCP.

Every tool is declared once, as a descriptor with typed inputs and a
handler. The same descriptors drive request validation, the OpenAPI
manifest consumed by the workflow platform, the MCP tool list and the
terminal catalog printed by the CLI.

# Tools

  - extract_url_content: readable text of a web page, optionally rendered in headless Chrome.
  - file_convert: image, document and spreadsheet conversion.
  - ocr: text recognition with tesseract.
  - pdf_to_txt: plain text of a PDF, with layout recovery for scans.
  - pp_structure: PP-Structure layout recovery of a page image into docx.
  - text_combination: merge JSON, JSONL or text documents.
  - text_replace: search and replace in inline or remote text.
  - text_segment: split text into chunks by character, recursively, by code, Markdown headers or tokens.

File inputs are downloaded into a per-task workspace and file outputs are
uploaded to the configured object store (S3 compatible or local files).

# Usage

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal(err)
	}
	app, err := monkeytools.New(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close(ctx)

	out, err := app.Dispatcher.Dispatch(ctx, domain.Invocation{
		ToolName: "text_replace",
		Params:   map[string]any{"document": "hello world", "searchText": "world", "replaceText": "monkeys"},
	})

Use App.Handler to mount the HTTP API, or the monkeytools command to run it.
*/
package monkeytools
