package llm

import (
	"context"
	"errors"
	"time"

	"sheetforge/internal/llmclient"
)

// Retry retries GenerateJSON up to maxAttempts with exponential backoff
// starting at baseDelay. Permanent errors and context cancellation stop the
// loop immediately.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next llmclient.LLMClient
	max  int
	base time.Duration
}

func (r *retrying) Name() string             { return r.next.Name() }
func (r *retrying) Close() error             { return r.next.Close() }
func (r *retrying) CountTokens(s string) int { return r.next.CountTokens(s) }

func (r *retrying) GenerateJSON(ctx context.Context, prompt string, input any, files ...llmclient.FilePart) (llmclient.Response, error) {
	var last error
	for i := 0; i < r.max; i++ {
		resp, err := r.next.GenerateJSON(ctx, prompt, input, files...)
		if err == nil {
			return resp, nil
		}
		var pErr *llmclient.PermanentError
		if errors.As(err, &pErr) {
			return llmclient.Response{}, err
		}
		last = err
		select {
		case <-ctx.Done():
			return llmclient.Response{}, ctx.Err()
		case <-time.After(r.base * time.Duration(1<<i)):
		}
	}
	return llmclient.Response{}, last
}
