package llmclient

import "strings"

// EstimateTokens is a cheap local token estimate (roughly 4 chars/token for
// English text). Good enough for ledgers and capacity checks; exact counts
// come from the provider's usage metadata.
func EstimateTokens(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	n := len(text) / 4
	if n < 1 {
		n = 1
	}
	return n
}
