package llmclient

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrInvalidJSON = errors.New("invalid json from LLM")

// Usage carries the token accounting of one generation call.
type Usage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
	Total      int `json:"total"`
}

// Response is the normalized result of one generation call: the raw JSON
// payload plus token usage and the estimated cost in USD.
type Response struct {
	Raw   json.RawMessage `json:"raw"`
	Usage Usage           `json:"usage"`
	Cost  float64         `json:"cost"`
}

// FilePart attaches a binary source document (pdf, image, ...) to a call.
type FilePart struct {
	Name string
	MIME string
	Data []byte
}

// LLMClient is the provider-neutral generation capability. Implementations
// focus on the API call itself; cross-cutting concerns (rate limiting,
// retries, logging, usage accounting) are applied via llm.Middleware.
type LLMClient interface {
	Name() string
	GenerateJSON(ctx context.Context, prompt string, input any, files ...FilePart) (Response, error)
	CountTokens(text string) int
	Close() error
}

// PermanentError indicates an error that will not resolve with retries
// (invalid model, schema rejection, quota hard-denied).
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}
