package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"

	"github.com/Epistemic-Technology/transcript-mcp/internal/logger"
)

const (
	defaultMaxWorkers = 4
	defaultRetryDelay = 1 * time.Second
	maxRetryDelay     = 32 * time.Second
)

// RetryPolicy bounds a single service call. Timeout applies to each attempt.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	Timeout    time.Duration
}

func (p RetryPolicy) backoff() retry.Backoff {
	base := p.BaseDelay
	if base <= 0 {
		base = defaultRetryDelay
	}
	retries := p.MaxRetries
	if retries < 0 {
		retries = 0
	}
	b := retry.WithCappedDuration(maxRetryDelay, retry.NewExponential(base))
	return retry.WithMaxRetries(uint64(retries), b)
}

// Limiter throttles service calls by estimated token usage. Jobs sharing a
// Limiter share the budget.
type Limiter struct {
	tokens *rate.Limiter
	burst  int
}

// NewLimiter returns a limiter allowing tokensPerSecond sustained and burst
// at once. A non-positive rate disables limiting.
func NewLimiter(tokensPerSecond, burst int) *Limiter {
	if tokensPerSecond <= 0 {
		return &Limiter{tokens: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst < tokensPerSecond {
		burst = tokensPerSecond
	}
	return &Limiter{tokens: rate.NewLimiter(rate.Limit(tokensPerSecond), burst), burst: burst}
}

// Wait blocks until n tokens are available. Requests larger than the burst
// are clipped to it.
func (l *Limiter) Wait(ctx context.Context, n int) error {
	if l == nil {
		return nil
	}
	if l.burst > 0 && n > l.burst {
		n = l.burst
	}
	return l.tokens.WaitN(ctx, n)
}

// RateLimitedCall waits for limiter approval, then calls fn, retrying
// transient failures (429, 5xx, network errors, attempt timeouts) with
// exponential backoff up to policy.MaxRetries times.
func RateLimitedCall[T any](ctx context.Context, limiter *Limiter, estimatedTokens int, policy RetryPolicy, log logger.Logger, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := limiter.Wait(ctx, estimatedTokens); err != nil {
		return zero, fmt.Errorf("rate limiter wait failed: %w", err)
	}

	var result T
	attempt := 0
	err := retry.Do(ctx, policy.backoff(), func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			log.Info("Retry attempt %d/%d", attempt-1, policy.MaxRetries)
		}

		callCtx := ctx
		if policy.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, policy.Timeout)
			defer cancel()
		}

		value, err := fn(callCtx)
		if err == nil {
			result = value
			return nil
		}
		if ctx.Err() == nil && isRetryable(err) {
			log.Warn("Transient error on attempt %d/%d: %v", attempt, policy.MaxRetries+1, err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			return zero, fmt.Errorf("%w: %w", ctxErr, err)
		}
		return zero, err
	}
	if attempt > 1 {
		log.Info("Retry succeeded on attempt %d", attempt)
	}
	return result, nil
}

// isRetryable reports whether another attempt could succeed.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTruncated) || errors.Is(err, ErrEmptyResponse) || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= http.StatusInternalServerError
	}
	if isTimeout(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return isRateLimitError(err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// isRateLimitError checks an error message for rate limit markers, for
// errors that did not come through the SDK.
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range []string{"429", "rate limit", "rate_limit_exceeded", "Too Many Requests"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// WorkerPool manages a pool of workers for parallel processing with rate limiting
type WorkerPool struct {
	semaphore chan struct{}
}

// NewWorkerPool creates a new worker pool with the specified maximum workers
func NewWorkerPool(maxWorkers int) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = defaultMaxWorkers
	}
	return &WorkerPool{semaphore: make(chan struct{}, maxWorkers)}
}

// Acquire acquires a worker slot, blocking if all workers are busy
func (wp *WorkerPool) Acquire(ctx context.Context) error {
	select {
	case wp.semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release releases a worker slot, allowing another worker to proceed
func (wp *WorkerPool) Release() {
	<-wp.semaphore
}

// ParallelProcess runs processFn for every item with at most maxWorkers in
// flight. Results are returned in item order regardless of completion
// order. The first failure cancels the remaining work and is returned
// with no results.
func ParallelProcess[T any, R any](
	ctx context.Context,
	items []T,
	maxWorkers int,
	log logger.Logger,
	processFn func(context.Context, int, T) (R, error),
) ([]R, error) {
	if len(items) == 0 {
		return []R{}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		failOnce   sync.Once
		firstError error
	)
	fail := func(idx int, err error) {
		failOnce.Do(func() {
			firstError = err
			cancel()
			log.Debug("Cancelling remaining work after item %d failed", idx)
		})
	}

	wp := NewWorkerPool(maxWorkers)
	results := make([]R, len(items))

	var wg sync.WaitGroup
	for i, item := range items {
		if err := wp.Acquire(ctx); err != nil {
			// Cancelled, stop spawning new workers
			fail(i, err)
			break
		}

		wg.Add(1)
		go func(idx int, itm T) {
			defer wg.Done()
			defer wp.Release()

			if err := ctx.Err(); err != nil {
				fail(idx, err)
				return
			}

			val, err := processFn(ctx, idx, itm)
			if err != nil {
				fail(idx, err)
				return
			}
			results[idx] = val
		}(i, item)
	}
	wg.Wait()

	if firstError != nil {
		return nil, firstError
	}
	return results, nil
}
