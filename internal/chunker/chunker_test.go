package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Epistemic-Technology/transcript-mcp/models"
)

const englishSample = "The governor opened the press conference by thanking reporters for attending. " +
	"She then described the new disaster preparedness budget, the schedule for the public hearings, " +
	"and the expected impact on residents of the metropolitan area.\n"

const japaneseSample = "【知事】皆さん、こんにちは。本日は防災対策について三点ご報告いたします。" +
	"まず、首都直下地震に備えた備蓄の拡充です。次に、帰宅困難者対策の強化についてお知らせします。\n" +
	"【記者】幹事社の日経新聞です。予算規模について教えてください。\n"

func joinChunks(chunks []models.Chunk) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Text)
	}
	return b.String()
}

func TestSplit_RoundTrip(t *testing.T) {
	c, err := New(DefaultEncoding, 7)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for name, text := range map[string]string{
		"english":  strings.Repeat(englishSample, 5),
		"japanese": strings.Repeat(japaneseSample, 5),
		"mixed":    englishSample + japaneseSample + "  \n\n" + englishSample,
	} {
		t.Run(name, func(t *testing.T) {
			chunks := c.Split(text)
			want := c.Decode(c.Encode(text))
			if got := joinChunks(chunks); got != want {
				t.Fatalf("Concatenated chunks differ from decode(encode(text))")
			}
			if want != text {
				t.Errorf("Tokenizer round trip is lossy for this sample")
			}

			total := 0
			for i, ch := range chunks {
				if ch.Index != i {
					t.Errorf("chunk %d has Index %d", i, ch.Index)
				}
				if ch.Tokens <= 0 || ch.Tokens > c.MaxTokens() {
					t.Errorf("chunk %d has %d tokens, limit %d", i, ch.Tokens, c.MaxTokens())
				}
				if !utf8.ValidString(ch.Text) {
					t.Errorf("chunk %d is not valid UTF-8: %q", i, ch.Text)
				}
				total += ch.Tokens
			}
			if total != c.CountTokens(text) {
				t.Errorf("chunk tokens sum to %d, text has %d", total, c.CountTokens(text))
			}
		})
	}
}

func TestSplit_ChunkCount(t *testing.T) {
	text := strings.Repeat(englishSample, 8)

	for _, limit := range []int{1, 3, 10, 64, 250, 4000} {
		c, err := New(DefaultEncoding, limit)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		total := c.CountTokens(text)
		want := (total + limit - 1) / limit

		chunks := c.Split(text)
		if len(chunks) != want {
			t.Errorf("limit %d: got %d chunks, want ceil(%d/%d) = %d", limit, len(chunks), total, limit, want)
		}
	}
}

func TestSplit_ChunkCountMultiByte(t *testing.T) {
	text := strings.Repeat(japaneseSample, 20)

	for _, limit := range []int{1, 2, 5, 8, 50, 400} {
		c, err := New(DefaultEncoding, limit)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		total := c.CountTokens(text)
		// Boundaries move back at most utf8.UTFMax-1 tokens, so every chunk
		// but the last keeps at least this many.
		floor := max(1, limit-(utf8.UTFMax-1))
		lower := (total + limit - 1) / limit
		upper := (total + floor - 1) / floor

		chunks := c.Split(text)
		if len(chunks) < lower || len(chunks) > upper {
			t.Errorf("limit %d: got %d chunks for %d tokens, want between %d and %d", limit, len(chunks), total, lower, upper)
		}
		for i, ch := range chunks[:len(chunks)-1] {
			if ch.Tokens < floor {
				t.Errorf("limit %d: chunk %d has %d tokens, want at least %d", limit, i, ch.Tokens, floor)
			}
		}
		if got := joinChunks(chunks); got != text {
			t.Errorf("limit %d: concatenated chunks differ from the input", limit)
		}
	}
}

func TestSplit_SingleChunk(t *testing.T) {
	c, err := New(DefaultEncoding, 4000)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	chunks := c.Split(japaneseSample)
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != japaneseSample {
		t.Errorf("Single chunk should equal the input")
	}
}

func TestSplit_Empty(t *testing.T) {
	c, err := New(DefaultEncoding, 10)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if chunks := c.Split(""); len(chunks) != 0 {
		t.Errorf("Expected no chunks for empty text, got %d", len(chunks))
	}
}

func TestNew_Invalid(t *testing.T) {
	if _, err := New(DefaultEncoding, 0); err == nil {
		t.Error("Expected error for zero token limit")
	}
	if _, err := New("no-such-encoding", 10); err == nil {
		t.Error("Expected error for unknown encoding")
	}
}

func TestForModel(t *testing.T) {
	c, err := ForModel("gpt-4", 100)
	if err != nil {
		t.Fatalf("ForModel failed: %v", err)
	}
	if c.CountTokens("hello world") == 0 {
		t.Error("Expected a non-zero token count")
	}

	fallback, err := ForModel("some-private-model", 100)
	if err != nil {
		t.Fatalf("ForModel fallback failed: %v", err)
	}
	if fallback.Encoding() != DefaultEncoding {
		t.Errorf("Encoding = %q, want %q", fallback.Encoding(), DefaultEncoding)
	}
}

func TestEndsOnRune(t *testing.T) {
	full := "発言"
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"abc", true},
		{full, true},
		{full[:len(full)-1], false},
		{full[:4], false},
	}
	for _, tt := range tests {
		if got := endsOnRune(tt.in); got != tt.want {
			t.Errorf("endsOnRune(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
