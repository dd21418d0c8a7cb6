package pipeline

import (
	"context"
	"fmt"
	"strings"

	"sheetforge/internal/jsonutil"
	"sheetforge/internal/llm"
	"sheetforge/internal/llmclient"
	"sheetforge/internal/prompt"
	"sheetforge/internal/types"
)

const (
	maxSampleDocs     = 3
	maxSampleDocBytes = 16 << 10
)

var configFields = []prompt.Field{
	{Name: "json_schema", Type: "string", Required: true, Description: "complete JSON schema for the extracted data"},
	{Name: "system_prompt", Type: "string", Required: true, Description: "system prompt guiding the extraction"},
	{Name: "user_prompt_template", Type: "string", Required: true, Description: "user prompt with a {document_text} placeholder"},
	{Name: "examples", Type: "[]{input, output}", Required: false, Description: "few-shot input/output pairs"},
	{Name: "extraction_instructions", Type: "[]string", Required: false, Description: "step-by-step extraction instructions"},
	{Name: "validation_rules", Type: "[]string", Required: false, Description: "quality checks for the extracted data"},
}

// ConfigGenerator turns a natural-language description of an extraction task
// into a reusable ExtractionConfig. One structured-output call per request;
// it runs outside the five-stage pipeline and touches no caches.
type ConfigGenerator struct {
	LLM     llmclient.LLMClient
	Prompts *prompt.Provider
}

// Run generates a configuration from requirements, optionally shaped by up
// to three sample documents.
func (g *ConfigGenerator) Run(ctx context.Context, requirements string, samples []string) (types.ExtractionConfig, error) {
	ctx = llm.WithStage(ctx, "engineer")

	text, err := g.Prompts.Render("engineer", map[string]any{
		"requirements":    requirements,
		"samples":         formatSamples(samples),
		"output_contract": prompt.FormatFields(configFields),
	})
	if err != nil {
		return types.ExtractionConfig{}, err
	}
	return g.call(ctx, text)
}

// Refine reworks an existing configuration against feedback. The reply must
// be a complete configuration, not a patch.
func (g *ConfigGenerator) Refine(ctx context.Context, current types.ExtractionConfig, feedback string) (types.ExtractionConfig, error) {
	ctx = llm.WithStage(ctx, "engineer")

	cur, err := jsonutil.MarshalIndentNoEscape(current)
	if err != nil {
		return types.ExtractionConfig{}, err
	}
	text, err := g.Prompts.Render("refiner", map[string]any{
		"current":         string(cur),
		"feedback":        feedback,
		"output_contract": prompt.FormatFields(configFields),
	})
	if err != nil {
		return types.ExtractionConfig{}, err
	}
	return g.call(ctx, text)
}

func (g *ConfigGenerator) call(ctx context.Context, text string) (types.ExtractionConfig, error) {
	resp, err := g.LLM.GenerateJSON(ctx, text, nil)
	if err != nil {
		return types.ExtractionConfig{}, err
	}
	var cfg types.ExtractionConfig
	if err := jsonutil.UnmarshalFlex(resp.Raw, &cfg); err != nil {
		return types.ExtractionConfig{}, fmt.Errorf("config JSON invalid: %w\nraw: %s", err, truncate(string(resp.Raw), 512))
	}
	if cfg.JSONSchema == "" && cfg.SystemPrompt == "" {
		return types.ExtractionConfig{}, ErrInvalidConfigResponse
	}
	return cfg, nil
}

func formatSamples(samples []string) string {
	kept := make([]string, 0, maxSampleDocs)
	for _, s := range samples {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		kept = append(kept, truncate(s, maxSampleDocBytes))
		if len(kept) == maxSampleDocs {
			break
		}
	}
	if len(kept) == 0 {
		return "(no sample documents supplied)"
	}
	var b strings.Builder
	for i, s := range kept {
		fmt.Fprintf(&b, "--- sample %d ---\n%s\n", i+1, s)
	}
	return strings.TrimRight(b.String(), "\n")
}
