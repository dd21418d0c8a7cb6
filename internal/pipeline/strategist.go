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

var planFields = []prompt.Field{
	{Name: "approach", Type: "string", Required: true, Description: "the overall extraction strategy"},
	{Name: "steps", Type: "[]string", Required: true, Description: "ordered working steps"},
	{Name: "expected_output", Type: "string", Required: true, Description: "shape of the data the extraction should yield"},
	{Name: "challenges", Type: "[]string", Required: false, Description: "anticipated difficulties"},
}

// Strategist produces the execution plan from the user request and the file
// manifest alone; it never reads file contents.
type Strategist struct {
	LLM     llmclient.LLMClient
	Prompts *prompt.Provider
}

func (s *Strategist) Run(ctx context.Context, request string, files []types.FileRef) (types.ExecutionPlan, error) {
	ctx = llm.WithStage(ctx, "strategist")

	text, err := s.Prompts.Render("strategist", map[string]any{
		"request":         request,
		"manifest":        formatManifest(files),
		"output_contract": prompt.FormatFields(planFields),
	})
	if err != nil {
		return types.ExecutionPlan{}, err
	}

	resp, err := s.LLM.GenerateJSON(ctx, text, nil)
	if err != nil {
		return types.ExecutionPlan{}, err
	}
	var plan types.ExecutionPlan
	if err := jsonutil.UnmarshalFlex(resp.Raw, &plan); err != nil {
		return types.ExecutionPlan{}, fmt.Errorf("plan JSON invalid: %w\nraw: %s", err, truncate(string(resp.Raw), 512))
	}
	if plan.Approach == "" && len(plan.Steps) == 0 {
		return types.ExecutionPlan{}, ErrInvalidPlanResponse
	}
	return plan, nil
}

func formatManifest(files []types.FileRef) string {
	if len(files) == 0 {
		return "(no files supplied)"
	}
	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "- %s (%s, %d bytes)\n", f.Name, orUnknown(f.Type), f.Size)
	}
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown type"
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
