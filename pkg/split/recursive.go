package split

import (
	"strings"
	"unicode/utf8"
)

// DefaultSeparators are tried in order by the recursive splitter.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Recursive splits on the first separator that occurs in the text, merges
// small pieces back together up to ChunkSize, and recurses into pieces that
// are still too long with the remaining separators. Separators stay attached
// to the start of the piece that follows them. A non-empty
// opts.Separator is tried before the defaults.
func Recursive(text string, opts Options) ([]string, error) {
	seps := DefaultSeparators
	if opts.Separator != "" && opts.Separator != seps[0] {
		seps = append([]string{opts.Separator}, seps...)
	}
	return recursiveSplit(text, seps, opts, runeLen), nil
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }

func recursiveSplit(text string, separators []string, opts Options, length func(string) int) []string {
	separator := separators[len(separators)-1]
	var rest []string
	for i, s := range separators {
		if s == "" {
			separator = s
			break
		}
		if strings.Contains(text, s) {
			separator = s
			rest = separators[i+1:]
			break
		}
	}

	var final, good []string
	for _, piece := range splitKeep(text, separator) {
		if piece == "" {
			continue
		}
		if length(piece) < opts.ChunkSize {
			good = append(good, piece)
			continue
		}
		if len(good) > 0 {
			final = append(final, merge(good, "", opts, length)...)
			good = nil
		}
		if len(rest) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, recursiveSplit(piece, rest, opts, length)...)
		}
	}
	if len(good) > 0 {
		final = append(final, merge(good, "", opts, length)...)
	}
	return final
}

func splitKeep(text, separator string) []string {
	if separator == "" {
		return strings.Split(text, "")
	}
	parts := strings.Split(text, separator)
	for i := 1; i < len(parts); i++ {
		parts[i] = separator + parts[i]
	}
	return parts
}

// merge greedily joins pieces with separator into chunks of at most
// ChunkSize, carrying up to ChunkOverlap of trailing pieces into the next chunk.
func merge(pieces []string, separator string, opts Options, length func(string) int) []string {
	sepLen := length(separator)
	var (
		docs    []string
		current []string
		total   int
	)
	joinedLen := func(extra int) int {
		if len(current) > 0 {
			return total + extra + sepLen
		}
		return total + extra
	}

	for _, p := range pieces {
		n := length(p)
		if joinedLen(n) > opts.ChunkSize && len(current) > 0 {
			if doc := strings.TrimSpace(strings.Join(current, separator)); doc != "" {
				docs = append(docs, doc)
			}
			for total > opts.ChunkOverlap || (joinedLen(n) > opts.ChunkSize && total > 0) {
				drop := length(current[0])
				if len(current) > 1 {
					drop += sepLen
				}
				total -= drop
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
		if len(current) > 1 {
			total += sepLen
		}
	}
	if doc := strings.TrimSpace(strings.Join(current, separator)); doc != "" {
		docs = append(docs, doc)
	}
	return docs
}
