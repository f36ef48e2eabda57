package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated is returned when the service stops before finishing a chunk.
	ErrTruncated = errors.New("rewrite response was truncated")
	// ErrEmptyResponse is returned when the service answers with no text.
	ErrEmptyResponse = errors.New("rewrite response was empty")
)

// RewriteError reports the chunk whose rewrite failed. Any RewriteError
// aborts the whole job.
type RewriteError struct {
	Index int
	Err   error
}

func (e *RewriteError) Error() string {
	return fmt.Sprintf("rewrite chunk %d: %v", e.Index, e.Err)
}

func (e *RewriteError) Unwrap() error {
	return e.Err
}

// Message is the user-facing description.
func (e *RewriteError) Message() string {
	switch {
	case errors.Is(e.Err, ErrTruncated):
		return fmt.Sprintf("整形結果が途中で切れました（チャンク%d）。チャンクサイズを小さくして再実行してください。", e.Index+1)
	case isTimeout(e.Err):
		return fmt.Sprintf("整形サービスの応答がタイムアウトしました（チャンク%d）。", e.Index+1)
	default:
		return fmt.Sprintf("文章の整形に失敗しました（チャンク%d）。", e.Index+1)
	}
}
