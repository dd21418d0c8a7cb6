package artifact

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Put(ctx, "run-1", "workbook.xlsx", []byte("abc")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "run-1", "extracted_data.json", []byte("{}")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "run-2", "workbook.xlsx", []byte("other")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "run-1", "workbook.xlsx")
	if err != nil || string(got) != "abc" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	names, err := s.List(ctx, "run-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 || names[0] != "extracted_data.json" || names[1] != "workbook.xlsx" {
		t.Fatalf("List = %v", names)
	}

	if _, err := s.Get(ctx, "run-1", "missing.bin"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreValidation(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Put(context.Background(), "", "a", nil); err == nil {
		t.Fatalf("empty run_id should be rejected")
	}
	if err := s.Put(context.Background(), "run", " ", nil); err == nil {
		t.Fatalf("empty name should be rejected")
	}
}

func TestContentTypeFor(t *testing.T) {
	if got := contentTypeFor("workbook.xlsx"); got != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("xlsx: %s", got)
	}
	if got := contentTypeFor("extracted_data.json"); got != "application/json" {
		t.Fatalf("json: %s", got)
	}
	if got := contentTypeFor("blob"); got != "application/octet-stream" {
		t.Fatalf("default: %s", got)
	}
}
