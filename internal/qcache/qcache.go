// Package qcache implements the query result cache (A6): caching a query's
// retrieved rows keyed by a hash of the normalized query intent, so a
// repeated question skips SQL and vector execution (spec §4.8 "cache
// determinism").
package qcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// Entry is a cached retrieval result for one query key: the canonicalized
// rows produced by C8. The retrieval executor leaves Answer empty. Caching at
// this level means a cache hit skips SQL/vector execution (C3/C4) while the
// answer synthesizer runs fresh narration on every hit — only the rows
// themselves must be stable across hits (spec §4.8 "cache determinism").
type Entry struct {
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	Answer   string           `json:"answer,omitempty"`
	RowCount int              `json:"rowCount"`
	CachedAt time.Time        `json:"cachedAt"`
}

// Cache stores and retrieves Entry values by key.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool)
	Set(ctx context.Context, key string, entry Entry) error
	Close() error
}

// Key derives a stable cache key from the normalized pieces of a query
// (store, intent, and the synthesized statement's canonical text+args), so
// two requests that synthesize the same SQL hit the same cache entry
// regardless of how the question was phrased. For hybrid queries the
// executor also appends the raw query text, since it drives the vector
// search.
func Key(store, intent, canonical string) string {
	h := sha256.New()
	h.Write([]byte(store))
	h.Write([]byte{0})
	h.Write([]byte(intent))
	h.Write([]byte{0})
	h.Write([]byte(canonical))
	return hex.EncodeToString(h.Sum(nil))
}

func encode(e Entry) ([]byte, error) { return json.Marshal(e) }
func decode(b []byte) (Entry, error) {
	var e Entry
	err := json.Unmarshal(b, &e)
	return e, err
}
