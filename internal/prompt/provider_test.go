package prompt

import (
	"strings"
	"testing"
)

func TestNewDefaultLoadsStageTemplates(t *testing.T) {
	p, err := NewDefault()
	if err != nil {
		t.Fatalf("new default: %v", err)
	}
	for _, tag := range []string{"strategist", "extractor", "analyst", "engineer", "refiner"} {
		out, err := p.Render(tag, map[string]any{
			"request":         "extract totals",
			"manifest":        "[]",
			"plan":            "{}",
			"documents":       "none",
			"data":            "{}",
			"requirements":    "extract totals",
			"samples":         "(none)",
			"current":         "{}",
			"feedback":        "none",
			"output_contract": "- approach (string, required)",
		})
		if err != nil {
			t.Fatalf("render %s: %v", tag, err)
		}
		if !strings.Contains(out, "[PURPOSE]") {
			t.Fatalf("%s missing purpose section:\n%s", tag, out)
		}
	}
}

func TestRenderFillsVariables(t *testing.T) {
	p, err := NewProvider(WithTemplates(map[string]string{
		"greet": "hello {{ name }}",
	}))
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	out, err := p.Render("greet", map[string]any{"name": "world"})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.TrimSpace(out) != "hello world" {
		t.Fatalf("out = %q", out)
	}
}

func TestRenderUnknownTag(t *testing.T) {
	p, _ := NewProvider()
	if _, err := p.Render("nope", nil); err == nil {
		t.Fatalf("expected error for unknown template")
	}
}

func TestFormatFields(t *testing.T) {
	out := FormatFields([]Field{
		{Name: "approach", Type: "string", Required: true, Description: "overall approach"},
		{Name: "challenges", Type: "string[]"},
	})
	want := "- approach (string, required): overall approach\n- challenges (string[], optional)"
	if out != want {
		t.Fatalf("out = %q", out)
	}
}
