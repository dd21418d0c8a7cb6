package llm

import (
	"context"
	"encoding/json"
	"sync"

	"sheetforge/internal/llmclient"
)

// FakeClient returns deterministic, minimal JSON payloads per stage for
// offline runs and tests. Responses and errors can be overridden per stage.
type FakeClient struct {
	mu        sync.Mutex
	responses map[string]json.RawMessage
	errs      map[string]error
	calls     map[string]int
}

func NewFakeClient() *FakeClient {
	return &FakeClient{
		responses: map[string]json.RawMessage{},
		errs:      map[string]error{},
		calls:     map[string]int{},
	}
}

func (f *FakeClient) Name() string             { return "FakeLLM" }
func (f *FakeClient) Close() error             { return nil }
func (f *FakeClient) CountTokens(s string) int { return llmclient.EstimateTokens(s) }

// SetResponse pins the raw JSON returned for a stage.
func (f *FakeClient) SetResponse(stage string, raw string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[stage] = json.RawMessage(raw)
}

// SetError makes calls from a stage fail.
func (f *FakeClient) SetError(stage string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[stage] = err
}

// Calls reports how many calls a stage has issued.
func (f *FakeClient) Calls(stage string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[stage]
}

func (f *FakeClient) GenerateJSON(ctx context.Context, prompt string, input any, files ...llmclient.FilePart) (llmclient.Response, error) {
	stage := StageFrom(ctx)
	f.mu.Lock()
	f.calls[stage]++
	pinnedErr := f.errs[stage]
	pinned, hasPinned := f.responses[stage]
	f.mu.Unlock()

	if pinnedErr != nil {
		return llmclient.Response{}, pinnedErr
	}
	if hasPinned {
		return llmclient.Response{Raw: pinned, Usage: llmclient.Usage{Total: 1}}, nil
	}

	var obj any
	switch stage {
	case "strategist":
		obj = map[string]any{
			"approach":        "fake single-pass extraction",
			"steps":           []string{"read files", "extract fields", "tabulate"},
			"expected_output": "one table of records",
			"challenges":      []string{},
		}
	case "extract":
		obj = map[string]any{
			"data": map[string]any{
				"line_items": []any{
					map[string]any{"description": "Widget", "total_amount": 12.5},
				},
			},
			"quality_score": 0.9,
			"issues":        []string{},
		}
	case "analyze":
		obj = map[string]any{
			"sheets": []any{
				map[string]any{
					"name":       "Line Items",
					"row_source": "line_items",
					"columns": []any{
						map[string]any{"header": "description", "data_type": "text"},
						map[string]any{"header": "total_amount", "data_type": "currency"},
					},
				},
			},
			"formatting_rules": map[string]any{},
			"total_records":    1,
			"summary":          "fake layout",
		}
	case "engineer":
		obj = map[string]any{
			"json_schema":          `{"type":"object","properties":{"total":{"type":"number"}}}`,
			"system_prompt":        "You extract structured data from documents.",
			"user_prompt_template": "Extract the fields from: {document_text}",
			"examples": []any{
				map[string]any{"input": "Total: 12.50", "output": `{"total":12.5}`},
			},
		}
	default:
		obj = map[string]any{}
	}
	b, _ := json.Marshal(obj)
	return llmclient.Response{Raw: b, Usage: llmclient.Usage{Total: 1}}, nil
}
