package workbook

import (
	"fmt"
	"strings"
)

const maxSheetNameLen = 31

var invalidSheetChars = []string{`\`, `/`, `?`, `*`, `[`, `]`, `:`}

// CleanSheetName strips characters a workbook rejects and truncates to the
// 31-character sheet-name limit.
func CleanSheetName(name string) string {
	for _, c := range invalidSheetChars {
		name = strings.ReplaceAll(name, c, "")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Sheet"
	}
	if len(name) > maxSheetNameLen {
		name = strings.TrimSpace(name[:maxSheetNameLen])
	}
	return name
}

// SheetNamer hands out cleaned, collision-free sheet names. Colliding names
// get a numeric suffix; the suffix never pushes a name past the limit.
type SheetNamer struct {
	used map[string]bool
}

func NewSheetNamer() *SheetNamer {
	return &SheetNamer{used: map[string]bool{}}
}

func (n *SheetNamer) Name(raw string) string {
	name := CleanSheetName(raw)
	if !n.used[strings.ToLower(name)] {
		n.used[strings.ToLower(name)] = true
		return name
	}
	for i := 2; ; i++ {
		suffix := fmt.Sprintf(" %d", i)
		base := name
		if len(base)+len(suffix) > maxSheetNameLen {
			base = strings.TrimSpace(base[:maxSheetNameLen-len(suffix)])
		}
		candidate := base + suffix
		if !n.used[strings.ToLower(candidate)] {
			n.used[strings.ToLower(candidate)] = true
			return candidate
		}
	}
}
