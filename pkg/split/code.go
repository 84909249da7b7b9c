package split

import (
	"sort"
	"strings"

	"github.com/inf-monkeys/monkey-tools-text/pkg/domain"
)

// languageSeparators lists, per language, the boundaries a recursive split
// should prefer, from coarsest to finest.
var languageSeparators = map[string][]string{
	"cpp":      {"\nclass ", "\nvoid ", "\nint ", "\nfloat ", "\ndouble ", "\nif ", "\nfor ", "\nwhile ", "\nswitch ", "\ncase ", "\n\n", "\n", " ", ""},
	"go":       {"\nfunc ", "\nvar ", "\nconst ", "\ntype ", "\nif ", "\nfor ", "\nswitch ", "\ncase ", "\n\n", "\n", " ", ""},
	"java":     {"\nclass ", "\npublic ", "\nprotected ", "\nprivate ", "\nstatic ", "\nif ", "\nfor ", "\nwhile ", "\nswitch ", "\ncase ", "\n\n", "\n", " ", ""},
	"js":       {"\nfunction ", "\nconst ", "\nlet ", "\nvar ", "\nclass ", "\nif ", "\nfor ", "\nwhile ", "\nswitch ", "\ncase ", "\ndefault ", "\n\n", "\n", " ", ""},
	"php":      {"\nfunction ", "\nclass ", "\nif ", "\nforeach ", "\nwhile ", "\ndo ", "\nswitch ", "\ncase ", "\n\n", "\n", " ", ""},
	"proto":    {"\nmessage ", "\nservice ", "\nenum ", "\noption ", "\nimport ", "\nsyntax ", "\n\n", "\n", " ", ""},
	"python":   {"\nclass ", "\ndef ", "\n\tdef ", "\n\n", "\n", " ", ""},
	"rst":      {"\n===", "\n---", "\n***", "\n\n.. ", "\n\n", "\n", " ", ""},
	"ruby":     {"\ndef ", "\nclass ", "\nif ", "\nunless ", "\nwhile ", "\nfor ", "\ndo ", "\nbegin ", "\nrescue ", "\n\n", "\n", " ", ""},
	"rust":     {"\nfn ", "\nconst ", "\nlet ", "\nif ", "\nwhile ", "\nfor ", "\nloop ", "\nmatch ", "\n\n", "\n", " ", ""},
	"scala":    {"\nclass ", "\nobject ", "\ndef ", "\nval ", "\nvar ", "\nif ", "\nfor ", "\nwhile ", "\nmatch ", "\ncase ", "\n\n", "\n", " ", ""},
	"swift":    {"\nfunc ", "\nclass ", "\nstruct ", "\nenum ", "\nif ", "\nfor ", "\nwhile ", "\ndo ", "\nswitch ", "\ncase ", "\n\n", "\n", " ", ""},
	"markdown": {"\n# ", "\n## ", "\n### ", "\n#### ", "\n##### ", "\n###### ", "```\n\n", "\n\n***\n\n", "\n\n---\n\n", "\n\n___\n\n", "\n\n", "\n", " ", ""},
	"latex":    {"\n\\chapter{", "\n\\section{", "\n\\subsection{", "\n\\subsubsection{", "\n\\begin{enumerate}", "\n\\begin{itemize}", "\n\\begin{description}", "\n\\begin{list}", "\n\\begin{quote}", "\n\\begin{quotation}", "\n\\begin{verse}", "\n\\begin{verbatim}", "\n\\begin{align}", "$$", "$", "\n\n", "\n", " ", ""},
	"html":     {"<body", "<div", "<p", "<br", "<li", "<h1", "<h2", "<h3", "<h4", "<h5", "<h6", "<span", "<table", "<tr", "<td", "<th", "<ul", "<ol", "<header", "<footer", "<nav", "<head", "<style", "<script", "<meta", "<title", ""},
	"sol":      {"\npragma ", "\nusing ", "\ncontract ", "\ninterface ", "\nlibrary ", "\nconstructor ", "\ntype ", "\nfunction ", "\nevent ", "\nmodifier ", "\nerror ", "\nstruct ", "\nenum ", "\nif ", "\nfor ", "\nwhile ", "\ndo while ", "\nassembly ", "\n\n", "\n", " ", ""},
}

// Languages returns the languages the code splitter knows, sorted.
func Languages() []string {
	out := make([]string, 0, len(languageSeparators))
	for l := range languageSeparators {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Code is the recursive splitter seeded with language-specific separators.
func Code(text string, opts Options) ([]string, error) {
	lang := strings.ToLower(strings.TrimSpace(opts.Language))
	seps, ok := languageSeparators[lang]
	if !ok {
		return nil, domain.InvalidInput("unsupported code language %q", opts.Language)
	}
	return recursiveSplit(text, seps, opts, runeLen), nil
}
