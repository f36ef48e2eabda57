// Package operations runs the transcript formatting pipeline: date from
// filename, body text, chunking, per-chunk rewrite, assembly, rendering.
package operations

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Epistemic-Technology/transcript-mcp/internal/chunker"
	"github.com/Epistemic-Technology/transcript-mcp/internal/config"
	"github.com/Epistemic-Technology/transcript-mcp/internal/datestamp"
	"github.com/Epistemic-Technology/transcript-mcp/internal/documents"
	"github.com/Epistemic-Technology/transcript-mcp/internal/layout"
	"github.com/Epistemic-Technology/transcript-mcp/internal/llm"
	"github.com/Epistemic-Technology/transcript-mcp/internal/logger"
	"github.com/Epistemic-Technology/transcript-mcp/models"
)

const (
	titleSuffix    = " 知事記者会見"
	openingSection = "知事冒頭発言"
	paragraphBreak = "\n\n"
)

// Title is the era-date title line without heading markers.
func Title(date models.DateStamp) string {
	return date.Era + titleSuffix
}

// Preamble is the block placed before the rewritten text: the title and
// the opening-remarks section marker, each followed by a blank line.
func Preamble(date models.DateStamp) string {
	return layout.HeadingOpen + Title(date) + layout.HeadingClose + paragraphBreak +
		layout.HeadingOpen + openingSection + layout.HeadingClose + paragraphBreak
}

// Assemble joins results by chunk index, separated by blank lines, after
// the preamble. Arrival order is irrelevant.
func Assemble(date models.DateStamp, results []models.RewriteResult) string {
	ordered := slices.Clone(results)
	slices.SortStableFunc(ordered, func(a, b models.RewriteResult) int { return a.Index - b.Index })

	texts := make([]string, len(ordered))
	for i, r := range ordered {
		texts[i] = r.Text
	}
	return Preamble(date) + strings.Join(texts, paragraphBreak)
}

// Extractor returns the body text of a PDF and its page count.
type Extractor func(data []byte) (string, int, error)

// Processor formats transcripts. It holds no per-request state and can be
// shared.
type Processor struct {
	cfg      config.Config
	rewriter llm.Rewriter
	extract  Extractor
	chunker  *chunker.Chunker
	dispatch llm.Dispatch
	log      logger.Logger
}

// Option customises a Processor.
type Option func(*Processor)

// WithExtractor replaces PDF text extraction.
func WithExtractor(e Extractor) Option {
	return func(p *Processor) { p.extract = e }
}

// WithLimiter shares a rate limiter between processors.
func WithLimiter(l *llm.Limiter) Option {
	return func(p *Processor) { p.dispatch.Limiter = l }
}

// NewProcessor checks the non-credential settings and prepares the
// tokenizer. The API key is the rewriter's concern.
func NewProcessor(cfg config.Config, rw llm.Rewriter, log logger.Logger, opts ...Option) (*Processor, error) {
	if err := config.ValidateFormat(cfg.Format); err != nil {
		return nil, err
	}
	if err := cfg.Layout.Validate(); err != nil {
		return nil, err
	}

	var (
		c   *chunker.Chunker
		err error
	)
	if cfg.Encoding != "" {
		c, err = chunker.New(cfg.Encoding, cfg.ChunkTokens)
	} else {
		c, err = chunker.ForModel(cfg.Model, cfg.ChunkTokens)
	}
	if err != nil {
		return nil, fmt.Errorf("tokenizer: %w", err)
	}

	p := &Processor{
		cfg:      cfg,
		rewriter: rw,
		extract:  documents.ExtractText,
		chunker:  c,
		dispatch: llm.DispatchFromConfig(cfg),
		log:      log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Process formats one upload. On any error the result is nil; no partial
// document is produced.
func (p *Processor) Process(ctx context.Context, req models.TranscriptRequest) (*models.TranscriptResult, error) {
	format := req.Format
	if format == "" {
		format = p.cfg.Format
	}
	renderer, err := layout.NewRenderer(format, p.cfg.Layout)
	if err != nil {
		return nil, err
	}

	date, err := datestamp.Extract(req.Filename)
	if err != nil {
		p.log.Error("No date in filename %q", req.Filename)
		return nil, err
	}
	log := p.log.With("date", date.Dotted)
	log.Info("Formatting %s (%d bytes) as %s", req.Filename, len(req.Data), format)

	text, pageCount, err := p.extract(req.Data)
	if err != nil {
		log.Error("Text extraction failed: %v", err)
		return nil, err
	}
	log.Info("Extracted %d characters from %d pages", len([]rune(text)), pageCount)

	chunks := p.chunker.Split(text)
	log.Info("Split %d tokens into %d chunks (limit %d)", p.chunker.CountTokens(text), len(chunks), p.chunker.MaxTokens())

	results, err := llm.RewriteChunks(ctx, p.rewriter, chunks, p.dispatch, log)
	if err != nil {
		return nil, err
	}

	assembled := Assemble(date, results)
	doc := layout.Classify(Title(date), assembled)

	var buf bytes.Buffer
	if err := renderer.Render(&buf, doc); err != nil {
		log.Error("Rendering failed: %v", err)
		return nil, err
	}

	filename := datestamp.OutputFilename(date, string(format))
	log.Info("Rendered %s (%d bytes)", filename, buf.Len())

	return &models.TranscriptResult{
		Filename:    filename,
		Format:      format,
		ContentType: renderer.ContentType(),
		Document:    buf.Bytes(),
		Text:        assembled,
		Date:        date,
		PageCount:   pageCount,
		ChunkCount:  len(chunks),
	}, nil
}

// ProcessTranscript formats one upload with the OpenAI rewriter.
func ProcessTranscript(ctx context.Context, req models.TranscriptRequest, cfg config.Config, log logger.Logger) (*models.TranscriptResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	p, err := NewProcessor(cfg, llm.NewOpenAIRewriter(cfg), log)
	if err != nil {
		return nil, err
	}
	return p.Process(ctx, req)
}
