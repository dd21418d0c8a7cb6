package jsonutil

import (
	"bytes"
	"encoding/json"
	"strings"
)

// StripFences removes a surrounding Markdown code fence (``` or ```json) from
// an LLM reply, if present. Anything outside the fence is discarded.
func StripFences(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	start := strings.Index(s, "```")
	if start < 0 {
		return []byte(s)
	}
	s = s[start+3:]
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		lang := strings.TrimSpace(s[:nl])
		if lang == "" || len(lang) <= 8 { // "json", "jsonc", etc.
			s = s[nl+1:]
		}
	}
	if end := strings.LastIndex(s, "```"); end >= 0 {
		s = s[:end]
	}
	return []byte(strings.TrimSpace(s))
}

// UnmarshalFlex unmarshals JSON produced by an LLM with best effort:
// 1) direct unmarshal
// 2) with code fences stripped
// 3) unwrapping a JSON-encoded string payload ("{\"a\":1}")
func UnmarshalFlex(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err == nil {
		return nil
	}
	stripped := StripFences(raw)
	if err := json.Unmarshal(stripped, v); err == nil {
		return nil
	}
	var quoted string
	if err := json.Unmarshal(stripped, &quoted); err == nil {
		return json.Unmarshal([]byte(quoted), v)
	}
	return json.Unmarshal(stripped, v)
}

// UnmarshalRaw accepts json.RawMessage directly.
func UnmarshalRaw(raw json.RawMessage, v any) error {
	return UnmarshalFlex([]byte(raw), v)
}

// MarshalNoEscape encodes v without escaping <, >, & into < etc.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// MarshalIndentNoEscape is MarshalNoEscape with two-space indentation.
func MarshalIndentNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
