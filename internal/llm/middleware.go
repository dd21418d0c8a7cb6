package llm

import (
	"context"

	"sheetforge/internal/llmclient"
)

// Middleware decorates an LLMClient to inject cross-cutting concerns
// (rate limiting, retries, logging, usage accounting).
type Middleware func(llmclient.LLMClient) llmclient.LLMClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner llmclient.LLMClient, mws ...Middleware) llmclient.LLMClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// RateLimit throttles calls to at most rps requests per second with a burst
// allowance. rps <= 0 disables the limiter.
func RateLimit(rps float64, burst int) Middleware {
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &rateLimited{next: next, rl: newRPSLimiter(rps, burst)}
	}
}

type rateLimited struct {
	next llmclient.LLMClient
	rl   *rpsLimiter
}

func (c *rateLimited) Name() string             { return c.next.Name() }
func (c *rateLimited) Close() error             { return c.next.Close() }
func (c *rateLimited) CountTokens(s string) int { return c.next.CountTokens(s) }

func (c *rateLimited) GenerateJSON(ctx context.Context, prompt string, input any, files ...llmclient.FilePart) (llmclient.Response, error) {
	if c.rl != nil {
		if err := c.rl.Acquire(ctx); err != nil {
			return llmclient.Response{}, err
		}
	}
	return c.next.GenerateJSON(ctx, prompt, input, files...)
}
