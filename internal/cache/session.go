package cache

import (
	"time"

	"sheetforge/internal/types"
)

// Session holds the two cache namespaces of one orchestrator session.
// A hit on Workbooks skips the whole pipeline; a hit only on Extracted skips
// the strategist and extraction stages. Entries live until eviction or
// session teardown; there is no explicit invalidation.
type Session struct {
	Extracted *LRUTTL[string, types.ExtractedData]
	Workbooks *LRUTTL[string, string]
}

// NewSession builds both namespaces with shared sizing. TTL zero falls back
// to the store default.
func NewSession(maxEntries int, ttl time.Duration) *Session {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	return &Session{
		Extracted: NewLRUTTL[string, types.ExtractedData](maxEntries, ttl),
		Workbooks: NewLRUTTL[string, string](maxEntries, ttl),
	}
}
