package llmclient

import (
	"context"
	"encoding/json"
	"fmt"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
// It normalizes the request (prompt + input JSON + optional file blobs) and
// the response (raw JSON, token usage, cost) and nothing else.
type GeminiClient struct {
	cli   *genai.Client
	model string

	temperature float32
	// USD per million tokens; zero disables cost reporting.
	promptRate     float64
	completionRate float64
}

type GeminiOption func(*GeminiClient)

// WithTemperature overrides the default generation temperature.
func WithTemperature(t float32) GeminiOption {
	return func(g *GeminiClient) { g.temperature = t }
}

// WithPricing sets the per-million-token USD rates used for cost reporting.
func WithPricing(promptRate, completionRate float64) GeminiOption {
	return func(g *GeminiClient) {
		g.promptRate = promptRate
		g.completionRate = completionRate
	}
}

// NewGeminiClient builds a client for the given model. The genai SDK reads
// GEMINI_API_KEY from the environment.
func NewGeminiClient(ctx context.Context, model string, opts ...GeminiOption) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	g := &GeminiClient{cli: cli, model: model, temperature: 0.2}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

func (g *GeminiClient) CountTokens(text string) int { return EstimateTokens(text) }

// GenerateJSON concatenates prompt and input, attaches any file blobs, asks
// for application/json, and returns the model's JSON plus usage accounting.
func (g *GeminiClient) GenerateJSON(ctx context.Context, prompt string, input any, files ...FilePart) (Response, error) {
	in, _ := json.MarshalIndent(input, "", "  ")
	full := prompt
	if input != nil {
		full += "\n\n[INPUT JSON]\n" + string(in)
	}

	parts := []*genai.Part{{Text: full}}
	for _, f := range files {
		if len(f.Data) == 0 {
			continue
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: f.MIME, Data: f.Data},
		})
	}

	temp := g.temperature
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: parts}},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      &temp,
		},
	)
	if err != nil {
		return Response{}, fmt.Errorf("gemini %s: %w", g.model, err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return Response{}, ErrInvalidJSON
	}

	out := Response{Raw: json.RawMessage(resp.Candidates[0].Content.Parts[0].Text)}
	if um := resp.UsageMetadata; um != nil {
		out.Usage = Usage{
			Prompt:     int(um.PromptTokenCount),
			Completion: int(um.CandidatesTokenCount),
			Total:      int(um.TotalTokenCount),
		}
	} else {
		est := g.CountTokens(full)
		out.Usage = Usage{Prompt: est, Total: est}
	}
	out.Cost = (float64(out.Usage.Prompt)*g.promptRate + float64(out.Usage.Completion)*g.completionRate) / 1e6
	return out, nil
}
