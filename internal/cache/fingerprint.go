package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"sheetforge/internal/types"
)

// Fingerprint derives the cache key for a run: a sha256 over the normalized
// request text and the sorted file identities. File order never changes the
// key; request whitespace differences never change the key.
func Fingerprint(request string, files []types.FileRef) string {
	ids := make([]string, 0, len(files))
	for _, f := range files {
		ids = append(ids, fmt.Sprintf("%s#%d", f.ID(), f.Size))
	}
	sort.Strings(ids)

	h := sha256.New()
	h.Write([]byte(normalizeRequest(request)))
	for _, id := range ids {
		h.Write([]byte{0})
		h.Write([]byte(id))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func normalizeRequest(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
