package workbook

import "strings"

// Column formatting is keyword-driven: the header is matched against fixed
// keyword lists, first category match wins, default is plain text.
type ColumnType string

const (
	TypeCurrency   ColumnType = "currency"
	TypePercentage ColumnType = "percentage"
	TypeDate       ColumnType = "date"
	TypeNumber     ColumnType = "number"
	TypeText       ColumnType = "text"
)

// Styling palette and number formats.
const (
	colorHeaderBg   = "1F4788"
	colorHeaderText = "FFFFFF"
	colorAltRow     = "F2F2F2"
	colorBorder     = "B8B8B8"

	fontName = "Calibri"

	numFmtCurrency   = "$#,##0.00"
	numFmtPercentage = "0.0%"
	numFmtNumber     = "#,##0"
	numFmtDate       = "dd-mmm-yyyy"
)

// Column width autofit bounds, in characters.
const (
	minColWidth = 8
	maxColWidth = 50
)

var columnTypeKeywords = []struct {
	ctype    ColumnType
	keywords []string
}{
	{TypeCurrency, []string{"amount", "price", "cost", "revenue", "salary", "fee", "payment", "balance", "total"}},
	{TypePercentage, []string{"percent", "rate", "ratio", "margin", "growth", "change"}},
	{TypeDate, []string{"date", "created", "updated", "modified", "due", "period"}},
	{TypeNumber, []string{"count", "qty", "quantity", "units", "number"}},
}

// DetectColumnType classifies a column by its header name.
func DetectColumnType(header string) ColumnType {
	h := strings.ToLower(header)
	for _, group := range columnTypeKeywords {
		for _, kw := range group.keywords {
			if strings.Contains(h, kw) {
				return group.ctype
			}
		}
	}
	return TypeText
}

// NormalizeColumnType maps an analyst-supplied data_type hint onto a known
// type, falling back to header detection for unknown hints.
func NormalizeColumnType(hint, header string) ColumnType {
	switch ColumnType(strings.ToLower(strings.TrimSpace(hint))) {
	case TypeCurrency, TypePercentage, TypeDate, TypeNumber, TypeText:
		return ColumnType(strings.ToLower(strings.TrimSpace(hint)))
	}
	return DetectColumnType(header)
}

func numberFormatFor(t ColumnType) string {
	switch t {
	case TypeCurrency:
		return numFmtCurrency
	case TypePercentage:
		return numFmtPercentage
	case TypeNumber:
		return numFmtNumber
	case TypeDate:
		return numFmtDate
	default:
		return ""
	}
}
