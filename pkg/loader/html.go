package loader

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var spaces = regexp.MustCompile(`[ \t\r\f\v\x{00a0}]+`)

// FromHTML parses a page and keeps its visible text. Block elements start a
// new paragraph; script, style and similar elements are dropped. The title,
// description and language end up in the metadata next to the source URL.
func FromHTML(source, page string) (Document, error) {
	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return Document{}, err
	}

	meta := map[string]any{"source": source}
	var b strings.Builder
	walk(root, &b, meta)

	return Document{Metadata: meta, PageContent: tidy(b.String())}, nil
}

func walk(n *html.Node, b *strings.Builder, meta map[string]any) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Head:
			headMetadata(n, meta)
			return
		case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Svg, atom.Iframe:
			return
		case atom.Html:
			if lang := attr(n, "lang"); lang != "" {
				meta["language"] = lang
			}
		case atom.Br:
			b.WriteString("\n")
			return
		}
	}

	block := n.Type == html.ElementNode && isBlock(n.DataAtom)
	if block {
		b.WriteString("\n\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, b, meta)
	}
	if block {
		b.WriteString("\n\n")
	}
}

func headMetadata(head *html.Node, meta map[string]any) {
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				if n.FirstChild != nil {
					meta["title"] = strings.TrimSpace(n.FirstChild.Data)
				}
			case atom.Meta:
				if strings.EqualFold(attr(n, "name"), "description") {
					meta["description"] = strings.TrimSpace(attr(n, "content"))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(head)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func isBlock(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Section, atom.Article, atom.Main, atom.Header, atom.Footer,
		atom.Nav, atom.Aside, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Ul, atom.Ol, atom.Li, atom.Table, atom.Tr, atom.Pre, atom.Blockquote,
		atom.Figure, atom.Figcaption, atom.Dl, atom.Dt, atom.Dd, atom.Hr, atom.Form:
		return true
	}
	return false
}

// tidy collapses runs of spaces, trims every line and keeps at most one
// blank line between paragraphs.
func tidy(s string) string {
	var out []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(spaces.ReplaceAllString(line, " "))
		if line == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
