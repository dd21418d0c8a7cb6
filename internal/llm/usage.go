package llm

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"sheetforge/internal/llmclient"
)

// UsageLedger accumulates per-day, per-stage token and cost totals in a JSON
// file. Best effort: ledger write failures never fail the call.
type UsageLedger struct {
	mu   sync.Mutex
	path string
}

type usageLedgerFile struct {
	UpdatedAt string              `json:"updated_at"`
	Days      map[string]usageDay `json:"days"`
}

type usageDay struct {
	Requests int64                `json:"requests"`
	Tokens   int64                `json:"tokens"`
	Cost     float64              `json:"cost"`
	Errors   int64                `json:"errors"`
	Stages   map[string]usageStat `json:"stages"`
}

type usageStat struct {
	Requests int64   `json:"requests"`
	Tokens   int64   `json:"tokens"`
	Cost     float64 `json:"cost"`
	Errors   int64   `json:"errors"`
}

func NewUsageLedger(path string) *UsageLedger {
	return &UsageLedger{path: path}
}

// WithUsageLedger records usage of every call to the ledger at path.
func WithUsageLedger(path string) Middleware {
	ledger := NewUsageLedger(path)
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &usageClient{next: next, ledger: ledger}
	}
}

type usageClient struct {
	next   llmclient.LLMClient
	ledger *UsageLedger
}

func (u *usageClient) Name() string             { return u.next.Name() }
func (u *usageClient) Close() error             { return u.next.Close() }
func (u *usageClient) CountTokens(s string) int { return u.next.CountTokens(s) }

func (u *usageClient) GenerateJSON(ctx context.Context, prompt string, input any, files ...llmclient.FilePart) (llmclient.Response, error) {
	resp, err := u.next.GenerateJSON(ctx, prompt, input, files...)
	u.ledger.record(StageFrom(ctx), resp, err)
	return resp, err
}

func (l *UsageLedger) record(stage string, resp llmclient.Response, callErr error) {
	if l == nil || l.path == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	file := usageLedgerFile{Days: map[string]usageDay{}}
	if raw, err := os.ReadFile(l.path); err == nil {
		_ = json.Unmarshal(raw, &file)
	}
	if file.Days == nil {
		file.Days = map[string]usageDay{}
	}

	day := time.Now().UTC().Format("2006-01-02")
	d := file.Days[day]
	if d.Stages == nil {
		d.Stages = map[string]usageStat{}
	}
	st := d.Stages[stage]

	d.Requests++
	st.Requests++
	if callErr != nil {
		d.Errors++
		st.Errors++
	} else {
		d.Tokens += int64(resp.Usage.Total)
		d.Cost += resp.Cost
		st.Tokens += int64(resp.Usage.Total)
		st.Cost += resp.Cost
	}
	d.Stages[stage] = st
	file.Days[day] = d
	file.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	raw, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(l.path), 0o755)
	_ = os.WriteFile(l.path, raw, 0o644)
}
