package split

import (
	"strings"
	"unicode/utf8"
)

// ByCharacter splits on a fixed separator. Each non-blank piece becomes a
// chunk; pieces longer than ChunkSize are cut into overlapping windows.
// An empty separator splits into single characters.
func ByCharacter(text string, opts Options) ([]string, error) {
	var pieces []string
	if opts.Separator == "" {
		pieces = strings.Split(text, "")
	} else {
		pieces = strings.Split(text, opts.Separator)
	}

	chunks := make([]string, 0, len(pieces))
	for _, p := range pieces {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		chunks = append(chunks, window(p, opts.ChunkSize, opts.ChunkOverlap)...)
	}
	return chunks, nil
}

// window cuts s into runs of at most size runes, each starting overlap
// runes before the end of the previous one.
func window(s string, size, overlap int) []string {
	if utf8.RuneCountInString(s) <= size {
		return []string{s}
	}
	runes := []rune(s)
	step := size - overlap
	var out []string
	for start := 0; start < len(runes); start += step {
		end := min(start+size, len(runes))
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}
