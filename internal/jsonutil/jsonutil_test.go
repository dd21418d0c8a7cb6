package jsonutil

import "testing"

func TestUnmarshalFlexDirect(t *testing.T) {
	var v map[string]any
	if err := UnmarshalFlex([]byte(`{"a":1}`), &v); err != nil {
		t.Fatalf("direct: %v", err)
	}
	if v["a"].(float64) != 1 {
		t.Fatalf("unexpected value: %v", v)
	}
}

func TestUnmarshalFlexFenced(t *testing.T) {
	raw := "Here is the result:\n```json\n{\"approach\":\"x\"}\n```\n"
	var v struct {
		Approach string `json:"approach"`
	}
	if err := UnmarshalFlex([]byte(raw), &v); err != nil {
		t.Fatalf("fenced: %v", err)
	}
	if v.Approach != "x" {
		t.Fatalf("approach = %q", v.Approach)
	}
}

func TestUnmarshalFlexQuotedPayload(t *testing.T) {
	raw := `"{\"a\":2}"`
	var v map[string]any
	if err := UnmarshalFlex([]byte(raw), &v); err != nil {
		t.Fatalf("quoted: %v", err)
	}
	if v["a"].(float64) != 2 {
		t.Fatalf("unexpected value: %v", v)
	}
}

func TestMarshalNoEscape(t *testing.T) {
	out, err := MarshalNoEscape(map[string]string{"k": "<b>&</b>"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"k":"<b>&</b>"}` {
		t.Fatalf("escaped output: %s", out)
	}
}
