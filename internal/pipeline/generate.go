package pipeline

import (
	"sheetforge/internal/types"
	"sheetforge/internal/workbook"
)

// Generator writes the workbook. It is deterministic: same data and
// specification, same bytes apart from the generation timestamp.
type Generator struct{}

func (Generator) Run(path string, data types.ExtractedData, spec *types.ExcelSpecification) (workbook.Result, error) {
	res, err := workbook.Write(path, data, spec)
	if err != nil {
		return workbook.Result{}, failure(KindGenerationFailed, "generate", err)
	}
	return res, nil
}
