package pipeline

import (
	"context"
	"fmt"

	"sheetforge/internal/jsonutil"
	"sheetforge/internal/llm"
	"sheetforge/internal/llmclient"
	"sheetforge/internal/prompt"
	"sheetforge/internal/types"
	"sheetforge/internal/workbook"
)

const specContract = `{
  "sheets": [
    {
      "name": "string, at most 31 characters",
      "row_source": "string, key path into the extracted data (e.g. line_items)",
      "columns": [
        {"header": "string", "data_type": "text|number|currency|percentage|date", "format_hint": "string, optional"}
      ]
    }
  ],
  "formatting_rules": { "...": "string, optional" },
  "total_records": 0,
  "summary": "string, one-line description of the layout"
}`

// sampleRowsPerArray bounds how many records of each array the analysis
// prompt sees. The layout decision needs shape, not volume.
const sampleRowsPerArray = 25

// Analyst proposes the workbook layout. Its output is advisory: generation
// works without it, and every sheet name it returns is sanitized before use.
type Analyst struct {
	LLM     llmclient.LLMClient
	Prompts *prompt.Provider
}

func (a *Analyst) Run(ctx context.Context, data types.ExtractedData) (*types.ExcelSpecification, error) {
	ctx = llm.WithStage(ctx, "analyze")

	sampleJSON, err := jsonutil.MarshalIndentNoEscape(sampleData(data))
	if err != nil {
		return nil, err
	}
	text, err := a.Prompts.Render("analyst", map[string]any{
		"data":            string(sampleJSON),
		"output_contract": specContract,
	})
	if err != nil {
		return nil, err
	}

	resp, err := a.LLM.GenerateJSON(ctx, text, nil)
	if err != nil {
		return nil, err
	}
	var spec types.ExcelSpecification
	if err := jsonutil.UnmarshalFlex(resp.Raw, &spec); err != nil {
		return nil, fmt.Errorf("specification JSON invalid: %w\nraw: %s", err, truncate(string(resp.Raw), 512))
	}
	sanitizeSpec(&spec)
	if len(spec.Sheets) == 0 {
		return nil, fmt.Errorf("specification proposes no usable sheets")
	}
	return &spec, nil
}

// sampleData truncates each record array to a representative sample and
// annotates the real count so the model still knows the volume.
func sampleData(data types.ExtractedData) map[string]any {
	out := map[string]any{}
	for k, v := range data.Data {
		arr, ok := v.([]any)
		if !ok || len(arr) <= sampleRowsPerArray {
			out[k] = v
			continue
		}
		out[k] = arr[:sampleRowsPerArray]
		out[k+"_total_count"] = len(arr)
	}
	if data.QualityScore > 0 {
		out["_quality_score"] = data.QualityScore
	}
	if len(data.Issues) > 0 {
		out["_extraction_issues"] = data.Issues
	}
	return out
}

func sanitizeSpec(spec *types.ExcelSpecification) {
	namer := workbook.NewSheetNamer()
	kept := spec.Sheets[:0]
	for _, s := range spec.Sheets {
		if len(s.Columns) == 0 && s.RowSource == "" {
			continue
		}
		s.Name = namer.Name(s.Name)
		kept = append(kept, s)
	}
	spec.Sheets = kept
}
