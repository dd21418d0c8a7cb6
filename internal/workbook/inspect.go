package workbook

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"sheetforge/internal/types"
)

// Inspect reopens a written workbook and checks it against the layout that
// was planned for it. It reports findings, never errors: an unreadable file
// simply yields a failed result so callers can surface it as a warning.
func Inspect(path string, spec *types.ExcelSpecification) types.ValidationResult {
	res := types.ValidationResult{FilePath: path}

	info, err := os.Stat(path)
	if err != nil {
		res.Issues = append(res.Issues, fmt.Sprintf("workbook missing: %v", err))
		return res
	}
	if info.Size() == 0 {
		res.Issues = append(res.Issues, "workbook file is empty")
		return res
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		res.Issues = append(res.Issues, fmt.Sprintf("workbook unreadable: %v", err))
		return res
	}
	defer f.Close()

	sheets := f.GetSheetList()
	res.SheetsCreated = len(sheets)
	if len(sheets) == 0 {
		res.Issues = append(res.Issues, "workbook has no sheets")
		return res
	}

	if spec != nil && len(spec.Sheets) > 0 {
		want := map[string]bool{}
		for _, s := range spec.Sheets {
			want[CleanSheetName(s.Name)] = false
		}
		for _, name := range sheets {
			if _, ok := want[name]; ok {
				want[name] = true
			}
		}
		for name, found := range want {
			if !found {
				res.Issues = append(res.Issues, fmt.Sprintf("planned sheet %q not present", name))
			}
		}
	}

	dataRows := 0
	for _, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil {
			res.Issues = append(res.Issues, fmt.Sprintf("sheet %q unreadable: %v", name, err))
			continue
		}
		if len(rows) == 0 || len(rows[0]) == 0 {
			res.Issues = append(res.Issues, fmt.Sprintf("sheet %q has no header row", name))
			continue
		}
		dataRows += len(rows) - 1
	}
	if dataRows == 0 {
		res.Issues = append(res.Issues, "workbook contains no data rows")
	}

	// Spot-check that the first header cell carries a style, which is how
	// the writer marks header rows.
	if styleID, err := f.GetCellStyle(sheets[0], "A1"); err == nil && styleID != 0 {
		res.FormattingApplied = true
	} else {
		res.Issues = append(res.Issues, "header styling not detected")
	}

	res.ValidationPassed = len(res.Issues) == 0
	return res
}
