package pipeline

import (
	"sheetforge/internal/types"
	"sheetforge/internal/workbook"
)

// Validator reopens the finished workbook and checks it against the plan.
// Its findings are advisory; the orchestrator surfaces them as warnings.
type Validator struct{}

func (Validator) Run(path string, spec *types.ExcelSpecification) types.ValidationResult {
	return workbook.Inspect(path, spec)
}
