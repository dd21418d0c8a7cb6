package llm

import (
	"context"
	"encoding/json"
	"log"

	"sheetforge/internal/llmclient"
)

// WithLogging logs request size, usage, and errors. Provide a custom logger
// or nil to use log.Default().
func WithLogging(logger *log.Logger) Middleware {
	if logger == nil {
		logger = log.Default()
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next llmclient.LLMClient
	log  *log.Logger
}

func (l *logging) Name() string             { return l.next.Name() }
func (l *logging) Close() error             { return l.next.Close() }
func (l *logging) CountTokens(s string) int { return l.next.CountTokens(s) }

func (l *logging) GenerateJSON(ctx context.Context, prompt string, input any, files ...llmclient.FilePart) (llmclient.Response, error) {
	in, _ := json.Marshal(input)
	l.log.Printf("LLM request (%s): %d bytes, %d files", StageFrom(ctx), len(prompt)+len(in), len(files))
	resp, err := l.next.GenerateJSON(ctx, prompt, input, files...)
	if err != nil {
		l.log.Printf("LLM error (%s): %v", StageFrom(ctx), err)
		return resp, err
	}
	l.log.Printf("LLM response (%s): %d tokens, $%.6f", StageFrom(ctx), resp.Usage.Total, resp.Cost)
	return resp, nil
}
