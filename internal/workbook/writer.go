package workbook

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"sheetforge/internal/types"
)

// Result summarizes a written workbook.
type Result struct {
	Path      string
	Sheets    []string
	TotalRows int
}

// Write renders extracted data into an xlsx workbook at path. A non-nil
// specification drives the sheet layout; otherwise one sheet is produced per
// top-level record array. A Summary sheet is appended in both modes, so a
// successful write always contains at least two sheets when record data
// exists.
func Write(path string, data types.ExtractedData, spec *types.ExcelSpecification) (Result, error) {
	f := excelize.NewFile()
	defer f.Close()

	st, err := newStyler(f)
	if err != nil {
		return Result{}, fmt.Errorf("workbook styles: %w", err)
	}

	namer := NewSheetNamer()
	res := Result{Path: path}

	type sheetPlan struct {
		name string
		cols []ColumnSpecResolved
		rows []map[string]any
	}
	var plans []sheetPlan

	if spec != nil {
		for _, s := range spec.Sheets {
			rows := RowsFrom(data.Data, s.RowSource)
			if len(rows) == 0 && s.RowSource != "" {
				// Planned source missing from the data; fall back to
				// auto-detection rather than emitting an empty sheet.
				rows = RowsFrom(data.Data, "")
			}
			cols := resolveColumns(s.Columns, rows)
			if len(cols) == 0 {
				continue
			}
			plans = append(plans, sheetPlan{name: s.Name, cols: cols, rows: rows})
		}
	}
	if len(plans) == 0 {
		for _, key := range RecordArrays(data.Data) {
			rows := RowsFrom(data.Data, key)
			cols := resolveColumns(nil, rows)
			if len(cols) == 0 {
				continue
			}
			plans = append(plans, sheetPlan{name: humanize(key), cols: cols, rows: rows})
		}
	}

	first := true
	for _, p := range plans {
		name := namer.Name(p.name)
		if err := placeSheet(f, name, first); err != nil {
			return Result{}, err
		}
		first = false
		if err := writeDataSheet(f, st, name, p.cols, p.rows); err != nil {
			return Result{}, fmt.Errorf("sheet %q: %w", name, err)
		}
		res.Sheets = append(res.Sheets, name)
		res.TotalRows += len(p.rows)
	}

	summaryName := namer.Name("Summary")
	if err := placeSheet(f, summaryName, first); err != nil {
		return Result{}, err
	}
	if err := writeSummarySheet(f, st, summaryName, data, res); err != nil {
		return Result{}, fmt.Errorf("sheet %q: %w", summaryName, err)
	}
	res.Sheets = append(res.Sheets, summaryName)

	if err := f.SaveAs(path); err != nil {
		os.Remove(path)
		return Result{}, fmt.Errorf("save workbook: %w", err)
	}
	return res, nil
}

// ColumnSpecResolved is a column with its type already decided.
type ColumnSpecResolved struct {
	Key    string
	Header string
	Type   ColumnType
}

func resolveColumns(specs []types.ColumnSpec, rows []map[string]any) []ColumnSpecResolved {
	if len(specs) > 0 {
		out := make([]ColumnSpecResolved, 0, len(specs))
		for _, c := range specs {
			hint := c.DataType
			if hint == "" {
				hint = c.FormatHint
			}
			out = append(out, ColumnSpecResolved{
				Key:    columnKey(c.Header, rows),
				Header: c.Header,
				Type:   NormalizeColumnType(hint, c.Header),
			})
		}
		return out
	}
	cols := Columns(rows)
	out := make([]ColumnSpecResolved, 0, len(cols))
	for _, k := range cols {
		h := humanize(k)
		out = append(out, ColumnSpecResolved{Key: k, Header: h, Type: DetectColumnType(h)})
	}
	return out
}

// columnKey maps a display header back onto a row key. Exact match wins,
// then a snake_case transform, then a case-insensitive scan of actual keys.
func columnKey(header string, rows []map[string]any) string {
	if len(rows) > 0 {
		if _, ok := rows[0][header]; ok {
			return header
		}
	}
	snake := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(header), " ", "_"))
	if len(rows) > 0 {
		if _, ok := rows[0][snake]; ok {
			return snake
		}
		for k := range rows[0] {
			if strings.EqualFold(k, header) || strings.EqualFold(k, snake) {
				return k
			}
		}
	}
	return snake
}

func placeSheet(f *excelize.File, name string, first bool) error {
	if first {
		return f.SetSheetName(f.GetSheetName(0), name)
	}
	_, err := f.NewSheet(name)
	return err
}

func writeDataSheet(f *excelize.File, st *styler, sheet string, cols []ColumnSpecResolved, rows []map[string]any) error {
	widths := make([]int, len(cols))
	for i, c := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, c.Header); err != nil {
			return err
		}
		widths[i] = len(c.Header)
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(cols), 1)
	if err := f.SetCellStyle(sheet, "A1", lastHeader, st.header); err != nil {
		return err
	}

	for r, row := range rows {
		alt := r%2 == 1
		for i, c := range cols {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			v := coerceValue(Flatten(row[c.Key]), c.Type)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
			style, err := st.cell(alt, c.Type)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
				return err
			}
			if w := displayWidth(v, c.Type); w > widths[i] {
				widths[i] = w
			}
		}
	}

	for i := range cols {
		col, _ := excelize.ColumnNumberToName(i + 1)
		w := widths[i] + 2
		if w < minColWidth {
			w = minColWidth
		}
		if w > maxColWidth {
			w = maxColWidth
		}
		if err := f.SetColWidth(sheet, col, col, float64(w)); err != nil {
			return err
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	if len(rows) > 0 {
		lastCell, _ := excelize.CoordinatesToCellName(len(cols), len(rows)+1)
		if err := f.AutoFilter(sheet, "A1:"+lastCell, nil); err != nil {
			return err
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, st *styler, sheet string, data types.ExtractedData, res Result) error {
	type kv struct {
		k string
		v any
	}
	entries := []kv{
		{"Generated At", time.Now().Format("2006-01-02 15:04:05")},
		{"Data Sheets", len(res.Sheets)},
		{"Total Rows", res.TotalRows},
		{"Quality Score", data.QualityScore},
	}
	for _, e := range ScalarEntries(data.Data) {
		entries = append(entries, kv{humanize(e[0]), e[1]})
	}
	metaKeys := make([]string, 0, len(data.Metadata))
	for k := range data.Metadata {
		metaKeys = append(metaKeys, k)
	}
	sort.Strings(metaKeys)
	for _, k := range metaKeys {
		entries = append(entries, kv{humanize(k), data.Metadata[k]})
	}
	for _, issue := range data.Issues {
		entries = append(entries, kv{"Issue", issue})
	}

	if err := f.SetCellValue(sheet, "A1", "Metric"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "B1", "Value"); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "B1", st.header); err != nil {
		return err
	}
	widthA, widthB := len("Metric"), len("Value")
	for i, e := range entries {
		ra := fmt.Sprintf("A%d", i+2)
		rb := fmt.Sprintf("B%d", i+2)
		if err := f.SetCellValue(sheet, ra, e.k); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, rb, e.v); err != nil {
			return err
		}
		style, err := st.cell(i%2 == 1, TypeText)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, ra, rb, style); err != nil {
			return err
		}
		if l := len(e.k); l > widthA {
			widthA = l
		}
		if l := len(fmt.Sprintf("%v", e.v)); l > widthB {
			widthB = l
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", capWidth(widthA+2)); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "B", capWidth(widthB+2)); err != nil {
		return err
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// coerceValue converts string numerics into real numbers for typed columns so
// the number formats apply. Unparseable values pass through as text.
func coerceValue(v any, t ColumnType) any {
	if t == TypeText || t == TypeDate {
		return v
	}
	s, ok := v.(string)
	if !ok {
		return v
	}
	hadPercent := strings.Contains(s, "%")
	cleaned := strings.NewReplacer("$", "", ",", "", "%", "", " ", "").Replace(s)
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return v
	}
	if t == TypePercentage && hadPercent {
		return n / 100
	}
	return n
}

func displayWidth(v any, t ColumnType) int {
	s := fmt.Sprintf("%v", v)
	w := len(s)
	if t == TypeCurrency || t == TypeNumber {
		w += 4
	}
	return w
}

func capWidth(w int) float64 {
	if w < minColWidth {
		w = minColWidth
	}
	if w > maxColWidth {
		w = maxColWidth
	}
	return float64(w)
}

func humanize(key string) string {
	key = strings.ReplaceAll(key, "_", " ")
	words := strings.Fields(key)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

type styleKey struct {
	alt bool
	t   ColumnType
}

// styler caches the small set of cell styles a workbook needs.
type styler struct {
	f      *excelize.File
	header int
	cells  map[styleKey]int
}

func newStyler(f *excelize.File) (*styler, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: colorHeaderText, Family: fontName, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colorHeaderBg}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, err
	}
	return &styler{f: f, header: header, cells: map[styleKey]int{}}, nil
}

func (s *styler) cell(alt bool, t ColumnType) (int, error) {
	key := styleKey{alt: alt, t: t}
	if id, ok := s.cells[key]; ok {
		return id, nil
	}
	style := &excelize.Style{
		Font:   &excelize.Font{Family: fontName, Size: 11},
		Border: thinBorders(),
	}
	if alt {
		style.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{colorAltRow}}
	}
	if nf := numberFormatFor(t); nf != "" {
		style.CustomNumFmt = &nf
	}
	id, err := s.f.NewStyle(style)
	if err != nil {
		return 0, err
	}
	s.cells[key] = id
	return id, nil
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "right", "top", "bottom"}
	out := make([]excelize.Border, 0, len(sides))
	for _, side := range sides {
		out = append(out, excelize.Border{Type: side, Color: colorBorder, Style: 1})
	}
	return out
}
