package split

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// TokenEncoding is the BPE encoding used to count tokens.
const TokenEncoding = "cl100k_base"

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

// encoding loads the BPE ranks from the embedded offline loader once, so
// splitting never reaches out to the network.
func encoding() (*tiktoken.Tiktoken, error) {
	encOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
		enc, encErr = tiktoken.GetEncoding(TokenEncoding)
	})
	return enc, encErr
}

// ByToken cuts text into windows of ChunkSize tokens, each overlapping the
// previous one by ChunkOverlap tokens.
func ByToken(text string, opts Options) ([]string, error) {
	e, err := encoding()
	if err != nil {
		return nil, fmt.Errorf("load %s encoding: %w", TokenEncoding, err)
	}

	tokens := e.Encode(text, nil, nil)
	step := opts.ChunkSize - opts.ChunkOverlap
	var chunks []string
	for start := 0; start < len(tokens); start += step {
		end := min(start+opts.ChunkSize, len(tokens))
		chunks = append(chunks, e.Decode(tokens[start:end]))
		if end == len(tokens) {
			break
		}
	}
	return chunks, nil
}

// CountTokens returns the number of tokens in text.
func CountTokens(text string) (int, error) {
	e, err := encoding()
	if err != nil {
		return 0, err
	}
	return len(e.Encode(text, nil, nil)), nil
}
