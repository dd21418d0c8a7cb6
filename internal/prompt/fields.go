package prompt

import (
	"fmt"
	"strings"
)

// Field describes a single output field of a structured-output contract.
// FormatFields renders the [OUTPUT] section injected into stage templates.
type Field struct {
	Name        string
	Type        string
	Required    bool
	Description string
}

func FormatFields(fields []Field) string {
	var buf strings.Builder
	for _, f := range fields {
		name := strings.TrimSpace(f.Name)
		if name == "" {
			continue
		}
		req := "optional"
		if f.Required {
			req = "required"
		}
		if f.Description != "" {
			fmt.Fprintf(&buf, "- %s (%s, %s): %s\n", name, f.Type, req, f.Description)
		} else {
			fmt.Fprintf(&buf, "- %s (%s, %s)\n", name, f.Type, req)
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}
