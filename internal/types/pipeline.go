package types

import "time"

// FileRef identifies one source file inside a run's working directory.
// Path is relative to the working directory; Type is a MIME type when known.
type FileRef struct {
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
	Type string `json:"type,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// ID returns the stable identity used for cache fingerprinting.
func (f FileRef) ID() string {
	if f.Path != "" {
		return f.Path
	}
	return f.Name
}

// ExecutionPlan is the strategist's output. It is descriptive guidance for
// the extraction prompt, not a schedule the orchestrator enforces.
type ExecutionPlan struct {
	Approach       string   `json:"approach"`
	Steps          []string `json:"steps"`
	ExpectedOutput string   `json:"expected_output"`
	Challenges     []string `json:"challenges,omitempty"`
}

// ConfigExample is one few-shot input/output pair inside an extraction
// configuration.
type ConfigExample struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// ExtractionConfig is a reusable extraction setup (schema, prompts, examples)
// generated from a natural-language description of what to extract. It is a
// standalone artifact handed back to the caller, not a pipeline stage input.
type ExtractionConfig struct {
	JSONSchema             string          `json:"json_schema"`
	SystemPrompt           string          `json:"system_prompt"`
	UserPromptTemplate     string          `json:"user_prompt_template"`
	Examples               []ConfigExample `json:"examples,omitempty"`
	ExtractionInstructions []string        `json:"extraction_instructions,omitempty"`
	ValidationRules        []string        `json:"validation_rules,omitempty"`
}

// ExtractedData is the extraction stage's output. Downstream stages treat it
// as read-only; the orchestrator persists it to extracted_data.json and the
// intermediate cache.
type ExtractedData struct {
	Data         map[string]any    `json:"data"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	QualityScore float64           `json:"quality_score"`
	Issues       []string          `json:"issues,omitempty"`
}

// ColumnSpec describes one column of a planned sheet.
type ColumnSpec struct {
	Header     string `json:"header"`
	DataType   string `json:"data_type,omitempty"`
	FormatHint string `json:"format_hint,omitempty"`
}

// SheetSpec describes one planned sheet. Name must fit the 31-character
// sheet-name limit; RowSource is a key path into ExtractedData.Data.
type SheetSpec struct {
	Name      string       `json:"name"`
	Columns   []ColumnSpec `json:"columns,omitempty"`
	RowSource string       `json:"row_source,omitempty"`
}

// ExcelSpecification is the analysis stage's advisory layout proposal.
// Generation must work with a nil specification.
type ExcelSpecification struct {
	Sheets          []SheetSpec       `json:"sheets"`
	FormattingRules map[string]string `json:"formatting_rules,omitempty"`
	TotalRecords    int               `json:"total_records,omitempty"`
	Summary         string            `json:"summary,omitempty"`
}

// ValidationResult is the terminal diagnostic artifact. It never blocks a run.
type ValidationResult struct {
	FilePath          string   `json:"file_path"`
	ValidationPassed  bool     `json:"validation_passed"`
	SheetsCreated     int      `json:"sheets_created"`
	FormattingApplied bool     `json:"formatting_applied"`
	Issues            []string `json:"issues,omitempty"`
}

// RunResult is what the orchestrator hands back to the boundary layer.
type RunResult struct {
	RunID        string    `json:"run_id"`
	WorkbookPath string    `json:"workbook_path"`
	ArtifactURL  string    `json:"artifact_url,omitempty"`
	Warnings     []string  `json:"warnings,omitempty"`
	FromCache    bool      `json:"from_cache,omitempty"`
	CompletedAt  time.Time `json:"completed_at"`
}
