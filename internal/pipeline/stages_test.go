package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"sheetforge/internal/llm"
	"sheetforge/internal/prompt"
	"sheetforge/internal/safeio"
	"sheetforge/internal/types"
)

func testPrompts(t *testing.T) *prompt.Provider {
	t.Helper()
	p, err := prompt.NewDefault()
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	return p
}

func TestStrategistRejectsEmptyPlan(t *testing.T) {
	fake := llm.NewFakeClient()
	fake.SetResponse("strategist", `{"approach": "", "steps": []}`)
	s := &Strategist{LLM: fake, Prompts: testPrompts(t)}

	_, err := s.Run(context.Background(), "req", nil)
	if !errors.Is(err, ErrInvalidPlanResponse) {
		t.Fatalf("expected ErrInvalidPlanResponse, got %v", err)
	}
}

func TestStrategistAcceptsFencedJSON(t *testing.T) {
	fake := llm.NewFakeClient()
	fake.SetResponse("strategist", "```json\n{\"approach\": \"one pass\", \"steps\": [\"read\"]}\n```")
	s := &Strategist{LLM: fake, Prompts: testPrompts(t)}

	plan, err := s.Run(context.Background(), "req", nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if plan.Approach != "one pass" {
		t.Fatalf("plan = %+v", plan)
	}
}

func TestExtractorFileContext(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatalf("seed txt: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "scan.pdf"), []byte("%PDF-1.4 fake"), 0o644); err != nil {
		t.Fatalf("seed pdf: %v", err)
	}
	wb := excelize.NewFile()
	wb.SetCellValue("Sheet1", "A1", "amount")
	wb.SetCellValue("Sheet1", "A2", 42)
	if err := wb.SaveAs(filepath.Join(dir, "data.xlsx")); err != nil {
		t.Fatalf("seed xlsx: %v", err)
	}
	wb.Close()

	fs, err := safeio.NewSafeFS(dir)
	if err != nil {
		t.Fatalf("NewSafeFS: %v", err)
	}
	e := &Extractor{FS: fs}

	files := []types.FileRef{
		{Name: "notes.txt", Path: "notes.txt", Type: "text/plain"},
		{Name: "scan.pdf", Path: "scan.pdf", Type: "application/pdf"},
		{Name: "data.xlsx", Path: "data.xlsx", Type: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	}
	documents, parts := e.fileContext(files)

	if !strings.Contains(documents, "hello") {
		t.Fatalf("text content not inlined:\n%s", documents)
	}
	if !strings.Contains(documents, "[sheet: Sheet1]") || !strings.Contains(documents, "amount") {
		t.Fatalf("spreadsheet not tabulated:\n%s", documents)
	}
	if len(parts) != 1 || parts[0].Name != "scan.pdf" {
		t.Fatalf("pdf should ride along as a blob, got %v", parts)
	}
	if !strings.Contains(documents, "binary document attached") {
		t.Fatalf("blob attachment not noted:\n%s", documents)
	}
}

func TestExtractorTruncatesLargeText(t *testing.T) {
	dir := t.TempDir()
	big := strings.Repeat("x", 100)
	if err := os.WriteFile(filepath.Join(dir, "big.txt"), []byte(big), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	fs, err := safeio.NewSafeFS(dir)
	if err != nil {
		t.Fatalf("NewSafeFS: %v", err)
	}
	e := &Extractor{FS: fs, MaxTextBytes: 10}

	documents, _ := e.fileContext([]types.FileRef{{Name: "big.txt", Path: "big.txt", Type: "text/plain"}})
	if !strings.Contains(documents, "truncated to 10 bytes") {
		t.Fatalf("truncation not noted:\n%s", documents)
	}
	if strings.Contains(documents, strings.Repeat("x", 11)) {
		t.Fatalf("content not truncated")
	}
}

func TestExtractorClampsQualityScore(t *testing.T) {
	fake := llm.NewFakeClient()
	fake.SetResponse("extract", `{"data": {"items": []}, "quality_score": 3.5}`)
	fs, err := safeio.NewSafeFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewSafeFS: %v", err)
	}
	e := &Extractor{LLM: fake, Prompts: testPrompts(t), FS: fs}

	out, err := e.Run(context.Background(), "req", types.ExecutionPlan{Approach: "x"}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.QualityScore != 1 {
		t.Fatalf("quality score not clamped: %v", out.QualityScore)
	}
}

func TestAnalystSanitizesSheetNames(t *testing.T) {
	fake := llm.NewFakeClient()
	fake.SetResponse("analyze", `{"sheets": [
		{"name": "`+strings.Repeat("Very Long Sheet Name ", 3)+`", "row_source": "items"},
		{"name": "Items/2024", "row_source": "items"},
		{"name": "Useless"}
	]}`)
	a := &Analyst{LLM: fake, Prompts: testPrompts(t)}

	spec, err := a.Run(context.Background(), types.ExtractedData{Data: map[string]any{}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(spec.Sheets) != 2 {
		t.Fatalf("sheet without columns or source should be dropped, got %d", len(spec.Sheets))
	}
	for _, s := range spec.Sheets {
		if len(s.Name) > 31 {
			t.Fatalf("name not truncated: %q", s.Name)
		}
		if strings.ContainsAny(s.Name, `\/?*[]:`) {
			t.Fatalf("invalid characters remain: %q", s.Name)
		}
	}
}

func TestAnalystSamplesLargeArrays(t *testing.T) {
	rows := make([]any, 100)
	for i := range rows {
		rows[i] = map[string]any{"n": i}
	}
	sample := sampleData(types.ExtractedData{Data: map[string]any{"items": rows}})
	got, ok := sample["items"].([]any)
	if !ok || len(got) != sampleRowsPerArray {
		t.Fatalf("expected %d sampled rows, got %v", sampleRowsPerArray, sample["items"])
	}
	if sample["items_total_count"] != 100 {
		t.Fatalf("total count missing: %v", sample["items_total_count"])
	}
}

func TestConfigGeneratorRejectsEmptyConfig(t *testing.T) {
	fake := llm.NewFakeClient()
	fake.SetResponse("engineer", `{"json_schema": "", "system_prompt": ""}`)
	g := &ConfigGenerator{LLM: fake, Prompts: testPrompts(t)}

	_, err := g.Run(context.Background(), "extract invoice totals", nil)
	if !errors.Is(err, ErrInvalidConfigResponse) {
		t.Fatalf("expected ErrInvalidConfigResponse, got %v", err)
	}
}

func TestConfigGeneratorProducesConfig(t *testing.T) {
	fake := llm.NewFakeClient()
	g := &ConfigGenerator{LLM: fake, Prompts: testPrompts(t)}

	cfg, err := g.Run(context.Background(), "extract invoice totals", []string{"Total: 12.50"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if cfg.JSONSchema == "" || cfg.SystemPrompt == "" {
		t.Fatalf("config incomplete: %+v", cfg)
	}
	if !strings.Contains(cfg.UserPromptTemplate, "{document_text}") {
		t.Fatalf("template lost its placeholder: %q", cfg.UserPromptTemplate)
	}
	if fake.Calls("engineer") != 1 {
		t.Fatalf("engineer calls = %d", fake.Calls("engineer"))
	}
}

func TestConfigGeneratorRefine(t *testing.T) {
	fake := llm.NewFakeClient()
	fake.SetResponse("engineer", `{"json_schema": "{\"type\":\"object\"}", "system_prompt": "refined", "user_prompt_template": "Extract from {document_text}"}`)
	g := &ConfigGenerator{LLM: fake, Prompts: testPrompts(t)}

	current := types.ExtractionConfig{
		JSONSchema:   `{"type":"object"}`,
		SystemPrompt: "original",
	}
	cfg, err := g.Refine(context.Background(), current, "add a date field")
	if err != nil {
		t.Fatalf("Refine: %v", err)
	}
	if cfg.SystemPrompt != "refined" {
		t.Fatalf("config = %+v", cfg)
	}
}

func TestFormatSamplesCapsAtThree(t *testing.T) {
	got := formatSamples([]string{"a", " ", "b", "c", "d"})
	if strings.Count(got, "--- sample") != 3 {
		t.Fatalf("sample sections = %q", got)
	}
	if strings.Contains(got, "d") {
		t.Fatalf("fourth sample should be dropped: %q", got)
	}
	if formatSamples(nil) != "(no sample documents supplied)" {
		t.Fatalf("empty fallback = %q", formatSamples(nil))
	}
}
