package split

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// maxHeaderLevel is the deepest heading that starts a new section.
const maxHeaderLevel = 3

// MarkdownHeaders splits a Markdown document into sections at headings of
// level 1 to 3. Heading lines are not part of the returned chunks and
// whitespace-only sections are dropped. Hash signs inside code blocks are
// not mistaken for headings since the document is parsed, not scanned.
func MarkdownHeaders(doc string, _ Options) ([]string, error) {
	src := []byte(doc)
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	type span struct{ start, end int }
	var headings []span

	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level > maxHeaderLevel || h.Lines().Len() == 0 {
			continue
		}
		seg := h.Lines().At(0)
		start := lineStart(src, seg.Start)
		end := lineEnd(src, h.Lines().At(h.Lines().Len()-1).Stop)
		if !strings.HasPrefix(strings.TrimLeft(string(src[start:end]), " "), "#") {
			end = skipSetextUnderline(src, end)
		}
		headings = append(headings, span{start, end})
	}

	var chunks []string
	add := func(b []byte) {
		if s := strings.TrimSpace(string(b)); s != "" {
			chunks = append(chunks, s)
		}
	}

	prev := 0
	for _, h := range headings {
		add(src[prev:h.start])
		prev = h.end
	}
	add(src[prev:])
	return chunks, nil
}

func lineStart(src []byte, pos int) int {
	if i := bytes.LastIndexByte(src[:pos], '\n'); i >= 0 {
		return i + 1
	}
	return 0
}

// lineEnd returns the index just past the newline that ends the line containing pos.
func lineEnd(src []byte, pos int) int {
	if pos > len(src) {
		return len(src)
	}
	if pos > 0 && src[pos-1] == '\n' {
		return pos
	}
	if i := bytes.IndexByte(src[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(src)
}

// skipSetextUnderline steps over a "===" or "---" line following a heading.
func skipSetextUnderline(src []byte, pos int) int {
	next := len(src)
	if i := bytes.IndexByte(src[pos:], '\n'); i >= 0 {
		next = pos + i + 1
	}
	line := strings.TrimSpace(string(src[pos:next]))
	if line != "" && (strings.Trim(line, "=") == "" || strings.Trim(line, "-") == "") {
		return next
	}
	return pos
}
