package llm

import (
	"context"

	"github.com/Epistemic-Technology/transcript-mcp/internal/config"
	"github.com/Epistemic-Technology/transcript-mcp/internal/logger"
	"github.com/Epistemic-Technology/transcript-mcp/models"
)

// Dispatch controls how chunks are sent to a Rewriter.
type Dispatch struct {
	// MaxConcurrency of 1 sends chunks strictly one after another.
	MaxConcurrency int
	Retry          RetryPolicy
	Limiter        *Limiter
}

// DispatchFromConfig derives dispatch settings from cfg with a fresh limiter.
func DispatchFromConfig(cfg config.Config) Dispatch {
	return Dispatch{
		MaxConcurrency: cfg.MaxConcurrency,
		Retry: RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryBaseDelay,
			Timeout:    cfg.RequestTimeout,
		},
		Limiter: NewLimiter(cfg.TokensPerSecond, cfg.BurstTokens),
	}
}

// RewriteChunks rewrites every chunk and returns the results in chunk
// order. If any chunk fails the others are cancelled and a *RewriteError
// naming that chunk is returned.
func RewriteChunks(ctx context.Context, rw Rewriter, chunks []models.Chunk, d Dispatch, log logger.Logger) ([]models.RewriteResult, error) {
	if len(chunks) == 0 {
		return []models.RewriteResult{}, nil
	}

	workers := d.MaxConcurrency
	if workers <= 0 {
		workers = defaultMaxWorkers
	}
	log.Info("Rewriting %d chunks (max %d concurrent)", len(chunks), workers)

	return ParallelProcess(ctx, chunks, workers, log, func(ctx context.Context, _ int, chunk models.Chunk) (models.RewriteResult, error) {
		clog := log.With("chunk", chunk.Index)
		clog.Debug("Sending %d tokens", chunk.Tokens)

		// Output is roughly the size of the input.
		text, err := RateLimitedCall(ctx, d.Limiter, 2*chunk.Tokens, d.Retry, clog, func(ctx context.Context) (string, error) {
			return rw.Rewrite(ctx, chunk.Text)
		})
		if err != nil {
			clog.Error("Rewrite failed: %v", err)
			return models.RewriteResult{}, &RewriteError{Index: chunk.Index, Err: err}
		}
		clog.Debug("Received %d bytes", len(text))
		return models.RewriteResult{Index: chunk.Index, Text: text}, nil
	})
}
