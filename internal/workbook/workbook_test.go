package workbook

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"sheetforge/internal/types"
)

func TestDetectColumnType(t *testing.T) {
	cases := []struct {
		header string
		want   ColumnType
	}{
		{"Total Revenue", TypeCurrency},
		{"Unit Price", TypeCurrency},
		{"Growth Rate", TypePercentage},
		{"Margin %", TypePercentage},
		{"Created Date", TypeDate},
		{"Due", TypeDate},
		{"Quantity", TypeNumber},
		{"Notes", TypeText},
		{"Customer Name", TypeText},
	}
	for _, c := range cases {
		if got := DetectColumnType(c.header); got != c.want {
			t.Errorf("DetectColumnType(%q) = %s, want %s", c.header, got, c.want)
		}
	}
}

func TestNormalizeColumnTypeHintWins(t *testing.T) {
	if got := NormalizeColumnType("percentage", "Notes"); got != TypePercentage {
		t.Fatalf("hint ignored: got %s", got)
	}
	if got := NormalizeColumnType("fancy", "Total Revenue"); got != TypeCurrency {
		t.Fatalf("unknown hint should fall back to header: got %s", got)
	}
}

func TestCleanSheetName(t *testing.T) {
	got := CleanSheetName(`Q1/Q2 [Report]: *Summary?`)
	if strings.ContainsAny(got, `\/?*[]:`) {
		t.Fatalf("invalid characters remain: %q", got)
	}
	long := strings.Repeat("a", 40)
	if n := CleanSheetName(long); len(n) != 31 {
		t.Fatalf("expected truncation to 31 chars, got %d", len(n))
	}
	if CleanSheetName("  ") != "Sheet" {
		t.Fatalf("blank name should get a default")
	}
}

func TestSheetNamerDedup(t *testing.T) {
	n := NewSheetNamer()
	a := n.Name("Results")
	b := n.Name("results")
	c := n.Name("Results")
	if a != "Results" || b != "results 2" || c != "Results 3" {
		t.Fatalf("got %q, %q, %q", a, b, c)
	}

	long := strings.Repeat("x", 31)
	first := n.Name(long)
	second := n.Name(long)
	if len(second) > 31 {
		t.Fatalf("suffixed name exceeds limit: %q (%d)", second, len(second))
	}
	if first == second {
		t.Fatalf("collision not resolved")
	}
}

func TestFlatten(t *testing.T) {
	if got := Flatten([]any{"a", "b", float64(3)}); got != "a, b, 3" {
		t.Fatalf("array: got %v", got)
	}
	if got := Flatten(map[string]any{"b": float64(2), "a": "x"}); got != "a: x, b: 2" {
		t.Fatalf("object: got %v", got)
	}
	if got := Flatten(nil); got != "" {
		t.Fatalf("nil: got %v", got)
	}
	if got := Flatten("plain"); got != "plain" {
		t.Fatalf("scalar: got %v", got)
	}
}

func TestRowsFrom(t *testing.T) {
	data := map[string]any{
		"report": map[string]any{
			"items": []any{
				map[string]any{"name": "a"},
				map[string]any{"name": "b"},
			},
		},
		"tags": []any{"x", "y"},
	}
	rows := RowsFrom(data, "report.items")
	if len(rows) != 2 || rows[0]["name"] != "a" {
		t.Fatalf("dotted path: got %v", rows)
	}
	rows = RowsFrom(data, "tags")
	if len(rows) != 2 || rows[0]["value"] != "x" {
		t.Fatalf("scalar array should wrap in value column: got %v", rows)
	}
	if rows := RowsFrom(data, "missing.path"); rows != nil {
		t.Fatalf("missing path should yield nil, got %v", rows)
	}
	key, rows := AutoDetectRows(map[string]any{"zz": []any{map[string]any{"a": 1}}, "scalar": "x"})
	if key != "zz" || len(rows) != 1 {
		t.Fatalf("auto-detect: got %q, %v", key, rows)
	}
}

func sampleData() types.ExtractedData {
	return types.ExtractedData{
		Data: map[string]any{
			"line_items": []any{
				map[string]any{"product": "Widget", "unit_price": 12.5, "quantity": float64(3), "growth_rate": "12.5%"},
				map[string]any{"product": "Gadget", "unit_price": "$1,200.00", "quantity": float64(1), "growth_rate": 0.08},
			},
			"customer": "Acme Corp",
		},
		Metadata:     map[string]string{"source_file": "invoice.pdf"},
		QualityScore: 0.9,
	}
}

func TestWriteAutoLayoutAndInspect(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	res, err := Write(path, sampleData(), nil)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(res.Sheets) != 2 {
		t.Fatalf("expected data sheet plus summary, got %v", res.Sheets)
	}
	if res.Sheets[0] != "Line Items" || res.Sheets[1] != "Summary" {
		t.Fatalf("unexpected sheet names: %v", res.Sheets)
	}
	if res.TotalRows != 2 {
		t.Fatalf("expected 2 rows, got %d", res.TotalRows)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Line Items")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Growth Rate" {
		t.Fatalf("headers should be humanized and sorted, got %v", rows[0])
	}

	v := Inspect(path, nil)
	if !v.ValidationPassed {
		t.Fatalf("expected pass, issues: %v", v.Issues)
	}
	if v.SheetsCreated != 2 {
		t.Fatalf("SheetsCreated = %d", v.SheetsCreated)
	}
	if !v.FormattingApplied {
		t.Fatalf("formatting not detected")
	}
}

func TestWriteSpecDriven(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	spec := &types.ExcelSpecification{
		Sheets: []types.SheetSpec{
			{
				Name:      "Invoice Lines",
				RowSource: "line_items",
				Columns: []types.ColumnSpec{
					{Header: "Product"},
					{Header: "Unit Price", DataType: "currency"},
					{Header: "Quantity", DataType: "number"},
				},
			},
		},
	}
	res, err := Write(path, sampleData(), spec)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if res.Sheets[0] != "Invoice Lines" {
		t.Fatalf("sheet names: %v", res.Sheets)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Invoice Lines")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if rows[0][0] != "Product" || rows[0][1] != "Unit Price" {
		t.Fatalf("header order should follow the plan, got %v", rows[0])
	}
	if rows[1][0] != "Widget" {
		t.Fatalf("row values: got %v", rows[1])
	}

	v := Inspect(path, spec)
	if !v.ValidationPassed {
		t.Fatalf("expected pass, issues: %v", v.Issues)
	}
}

func TestInspectMissingFile(t *testing.T) {
	v := Inspect(filepath.Join(t.TempDir(), "nope.xlsx"), nil)
	if v.ValidationPassed {
		t.Fatalf("missing file should fail validation")
	}
	if len(v.Issues) == 0 {
		t.Fatalf("expected issues")
	}
}

func TestInspectReportsMissingPlannedSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	if _, err := Write(path, sampleData(), nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	spec := &types.ExcelSpecification{Sheets: []types.SheetSpec{{Name: "Forecast"}}}
	v := Inspect(path, spec)
	if v.ValidationPassed {
		t.Fatalf("expected failure for missing planned sheet")
	}
	found := false
	for _, issue := range v.Issues {
		if strings.Contains(issue, "Forecast") {
			found = true
		}
	}
	if !found {
		t.Fatalf("issue should name the missing sheet: %v", v.Issues)
	}
}

func TestCoerceValue(t *testing.T) {
	if got := coerceValue("$1,200.00", TypeCurrency); got != 1200.0 {
		t.Fatalf("currency: got %v", got)
	}
	if got := coerceValue("12.5%", TypePercentage); got != 0.125 {
		t.Fatalf("percentage: got %v", got)
	}
	if got := coerceValue("n/a", TypeCurrency); got != "n/a" {
		t.Fatalf("unparseable should pass through: got %v", got)
	}
	if got := coerceValue("hello", TypeText); got != "hello" {
		t.Fatalf("text passes through: got %v", got)
	}
}
