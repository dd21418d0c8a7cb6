package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"sheetforge/internal/jsonutil"
	"sheetforge/internal/llm"
	"sheetforge/internal/llmclient"
	"sheetforge/internal/prompt"
	"sheetforge/internal/safeio"
	"sheetforge/internal/scan"
	"sheetforge/internal/types"
)

const extractContract = `{
  "data": { "...": "extracted structure; repeated records as arrays of objects" },
  "metadata": { "...": "string notes about provenance, optional" },
  "quality_score": 0.0,
  "issues": ["string, extraction problems worth surfacing, may be empty"]
}`

const (
	defaultMaxTextBytes  = 64 << 10
	maxSpreadsheetRows   = 200
	maxSpreadsheetSheets = 10
)

// Extractor runs the single extraction call. Text-like sources are inlined
// into the prompt (jailed to the working directory, size-capped), input
// spreadsheets are tabulated, and binary files ride along as inline blobs.
type Extractor struct {
	LLM     llmclient.LLMClient
	Prompts *prompt.Provider
	FS      *safeio.SafeFS

	// MaxTextBytes caps how much of each text-like file is inlined.
	// Zero means the default.
	MaxTextBytes int
}

func (e *Extractor) Run(ctx context.Context, request string, plan types.ExecutionPlan, files []types.FileRef) (types.ExtractedData, error) {
	ctx = llm.WithStage(ctx, "extract")

	documents, parts := e.fileContext(files)
	text, err := e.Prompts.Render("extractor", map[string]any{
		"request":         request,
		"plan":            formatPlan(plan),
		"documents":       documents,
		"output_contract": extractContract,
	})
	if err != nil {
		return types.ExtractedData{}, err
	}

	resp, err := e.LLM.GenerateJSON(ctx, text, nil, parts...)
	if err != nil {
		return types.ExtractedData{}, err
	}
	var out types.ExtractedData
	if err := jsonutil.UnmarshalFlex(resp.Raw, &out); err != nil {
		return types.ExtractedData{}, fmt.Errorf("extraction JSON invalid: %w\nraw: %s", err, truncate(string(resp.Raw), 512))
	}
	if out.Data == nil {
		out.Data = map[string]any{}
	}
	if out.QualityScore < 0 {
		out.QualityScore = 0
	}
	if out.QualityScore > 1 {
		out.QualityScore = 1
	}
	if out.Metadata == nil {
		out.Metadata = map[string]string{}
	}
	if _, ok := out.Metadata["source_files"]; !ok && len(files) > 0 {
		names := make([]string, 0, len(files))
		for _, f := range files {
			names = append(names, f.Name)
		}
		out.Metadata["source_files"] = strings.Join(names, ", ")
	}
	return out, nil
}

// fileContext renders every source file into either prompt text or an
// attached blob. Unreadable files become issues inside the document block
// rather than run failures; the model decides what to do with what remains.
func (e *Extractor) fileContext(files []types.FileRef) (string, []llmclient.FilePart) {
	if len(files) == 0 {
		return "(no documents supplied)", nil
	}
	limit := e.MaxTextBytes
	if limit <= 0 {
		limit = defaultMaxTextBytes
	}

	var b strings.Builder
	var parts []llmclient.FilePart
	for _, f := range files {
		fmt.Fprintf(&b, "=== %s ===\n", f.Name)
		switch scan.KindOf(f) {
		case scan.KindSpreadsheet:
			tab, err := e.tabulate(f)
			if err != nil {
				fmt.Fprintf(&b, "(unreadable spreadsheet: %v)\n", err)
				break
			}
			b.WriteString(tab)
		case scan.KindBinary:
			data, err := e.FS.ReadFile(f.ID())
			if err != nil {
				fmt.Fprintf(&b, "(unreadable file: %v)\n", err)
				break
			}
			parts = append(parts, llmclient.FilePart{Name: f.Name, MIME: f.Type, Data: data})
			fmt.Fprintf(&b, "(binary document attached, %d bytes)\n", len(data))
		default:
			data, err := e.FS.ReadFile(f.ID())
			if err != nil {
				fmt.Fprintf(&b, "(unreadable file: %v)\n", err)
				break
			}
			if len(data) > limit {
				data = data[:limit]
				fmt.Fprintf(&b, "(truncated to %d bytes)\n", limit)
			}
			b.Write(data)
			if len(data) > 0 && data[len(data)-1] != '\n' {
				b.WriteByte('\n')
			}
		}
		b.WriteByte('\n')
	}
	return b.String(), parts
}

// tabulate renders an input spreadsheet as tab-separated text, bounded in
// sheets and rows so one workbook cannot swamp the prompt.
func (e *Extractor) tabulate(f types.FileRef) (string, error) {
	abs, err := e.FS.Abs(f.ID())
	if err != nil {
		return "", err
	}
	wb, err := excelize.OpenFile(abs)
	if err != nil {
		return "", err
	}
	defer wb.Close()

	var b strings.Builder
	for i, sheet := range wb.GetSheetList() {
		if i >= maxSpreadsheetSheets {
			fmt.Fprintf(&b, "(further sheets omitted)\n")
			break
		}
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "[sheet: %s]\n", sheet)
		for r, row := range rows {
			if r >= maxSpreadsheetRows {
				fmt.Fprintf(&b, "(further rows omitted, %d total)\n", len(rows))
				break
			}
			b.WriteString(strings.Join(row, "\t"))
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

func formatPlan(plan types.ExecutionPlan) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Approach: %s\n", plan.Approach)
	for i, step := range plan.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	if plan.ExpectedOutput != "" {
		fmt.Fprintf(&b, "Expected output: %s\n", plan.ExpectedOutput)
	}
	for _, c := range plan.Challenges {
		fmt.Fprintf(&b, "Watch for: %s\n", c)
	}
	return b.String()
}
