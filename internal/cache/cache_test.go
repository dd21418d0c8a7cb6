package cache

import (
	"testing"
	"time"

	"sheetforge/internal/types"
)

func TestFingerprintStableUnderFileReorder(t *testing.T) {
	a := []types.FileRef{{Name: "a.csv", Size: 10}, {Name: "b.pdf", Size: 20}}
	b := []types.FileRef{{Name: "b.pdf", Size: 20}, {Name: "a.csv", Size: 10}}
	if Fingerprint("extract totals", a) != Fingerprint("extract totals", b) {
		t.Fatalf("fingerprint changed with file order")
	}
}

func TestFingerprintNormalizesRequest(t *testing.T) {
	files := []types.FileRef{{Name: "a.csv", Size: 10}}
	if Fingerprint("Extract   totals", files) != Fingerprint("extract totals", files) {
		t.Fatalf("fingerprint sensitive to whitespace/case")
	}
}

func TestFingerprintDistinguishesInputs(t *testing.T) {
	files := []types.FileRef{{Name: "a.csv", Size: 10}}
	if Fingerprint("extract totals", files) == Fingerprint("extract names", files) {
		t.Fatalf("distinct requests collided")
	}
	other := []types.FileRef{{Name: "a.csv", Size: 11}}
	if Fingerprint("extract totals", files) == Fingerprint("extract totals", other) {
		t.Fatalf("distinct file sizes collided")
	}
}

func TestLRUTTLExpiry(t *testing.T) {
	c := NewLRUTTL[string, string](10, 30*time.Millisecond)
	c.Set("k", "v")
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("expected hit before expiry")
	}
	time.Sleep(60 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected miss after ttl expiry")
	}
}

func TestLRUTTLEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUTTL[string, int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("touch a")
	}
	c.Set("c", 3)
	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a to remain")
	}
}

func TestLRUTTLLastWriteWins(t *testing.T) {
	c := NewLRUTTL[string, string](4, time.Minute)
	c.Set("k", "one")
	c.Set("k", "two")
	v, ok := c.Get("k")
	if !ok || v != "two" {
		t.Fatalf("got %q ok=%v", v, ok)
	}
	if c.Len() != 1 {
		t.Fatalf("len = %d", c.Len())
	}
}
