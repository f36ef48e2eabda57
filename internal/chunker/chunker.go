// Package chunker splits transcript text into slices that fit the rewrite
// service's input budget, measured in tiktoken BPE tokens.
package chunker

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/Epistemic-Technology/transcript-mcp/models"
)

// DefaultEncoding is used when neither an encoding nor a known model is given.
const DefaultEncoding = "cl100k_base"

func init() {
	// Ranks ship with the binary; no download at first use.
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Chunker splits text on token boundaries. It is safe for concurrent use.
type Chunker struct {
	encoding  string
	tke       *tiktoken.Tiktoken
	maxTokens int
}

// New returns a Chunker producing chunks of at most maxTokens tokens.
// encoding may be an encoding name or a model name; empty selects
// DefaultEncoding.
func New(encoding string, maxTokens int) (*Chunker, error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("max tokens must be positive, got %d", maxTokens)
	}
	name, tke, err := resolve(encoding)
	if err != nil {
		return nil, err
	}
	return &Chunker{encoding: name, tke: tke, maxTokens: maxTokens}, nil
}

// ForModel returns a Chunker using the model's encoding, falling back to
// DefaultEncoding for models tiktoken does not know.
func ForModel(model string, maxTokens int) (*Chunker, error) {
	if maxTokens <= 0 {
		return nil, fmt.Errorf("max tokens must be positive, got %d", maxTokens)
	}
	if tke, err := tiktoken.EncodingForModel(model); err == nil {
		return &Chunker{encoding: model, tke: tke, maxTokens: maxTokens}, nil
	}
	return New(DefaultEncoding, maxTokens)
}

func resolve(encoding string) (string, *tiktoken.Tiktoken, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	if tke, err := tiktoken.GetEncoding(encoding); err == nil {
		return encoding, tke, nil
	}
	tke, err := tiktoken.EncodingForModel(encoding)
	if err != nil {
		return "", nil, fmt.Errorf("unknown tokenizer encoding or model %q: %w", encoding, err)
	}
	return encoding, tke, nil
}

// Encoding returns the encoding or model name the Chunker was built with.
func (c *Chunker) Encoding() string { return c.encoding }

// MaxTokens returns the per-chunk budget.
func (c *Chunker) MaxTokens() int { return c.maxTokens }

// Encode returns the token ids of text.
func (c *Chunker) Encode(text string) []int {
	return c.tke.Encode(text, nil, nil)
}

// Decode returns the bytes of tokens as a string.
func (c *Chunker) Decode(tokens []int) string {
	return c.tke.Decode(tokens)
}

// CountTokens returns the number of tokens in text.
func (c *Chunker) CountTokens(text string) int {
	return len(c.Encode(text))
}

// Split partitions text into consecutive chunks of at most MaxTokens tokens.
// Concatenating the chunk texts reproduces Decode(Encode(text)). A boundary
// that would cut a multi-byte character is moved back up to utf8.UTFMax-1
// tokens so each chunk is valid UTF-8. The chunk count is therefore
// ceil(T/M) for single-byte text and at most ceil(T/max(1, M-3)) otherwise.
// Empty text yields no chunks.
func (c *Chunker) Split(text string) []models.Chunk {
	tokens := c.Encode(text)
	if len(tokens) == 0 {
		return nil
	}

	chunks := make([]models.Chunk, 0, (len(tokens)+c.maxTokens-1)/c.maxTokens)
	for start := 0; start < len(tokens); {
		end := min(start+c.maxTokens, len(tokens))
		if end < len(tokens) {
			end = c.alignEnd(tokens, start, end)
		}
		chunks = append(chunks, models.Chunk{
			Index:  len(chunks),
			Text:   c.Decode(tokens[start:end]),
			Tokens: end - start,
		})
		start = end
	}
	return chunks
}

// alignEnd moves end back while tokens[start:end] ends inside a character.
// If no nearby boundary ends cleanly, end is returned unchanged.
func (c *Chunker) alignEnd(tokens []int, start, end int) int {
	for back := 0; back < utf8.UTFMax && end-back > start; back++ {
		if endsOnRune(c.Decode(tokens[start : end-back])) {
			return end - back
		}
	}
	return end
}

// endsOnRune reports whether s does not end with a truncated UTF-8 sequence.
func endsOnRune(s string) bool {
	if s == "" {
		return true
	}
	r, size := utf8.DecodeLastRuneInString(s)
	return !(r == utf8.RuneError && size == 1)
}
