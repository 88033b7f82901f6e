// Package retrieve is the retrieval executor (C8): it turns a classified
// intent and its entities into rows, going through the query cache first and
// falling back to SQL (C3), vector search (C4), or, for hybrid queries, a
// vector search whose candidate IDs narrow a synthesized SQL statement.
package retrieve

import (
	"context"
	"fmt"
	"time"

	"floatchat/internal/classify"
	"floatchat/internal/embedcap"
	"floatchat/internal/qcache"
	"floatchat/internal/sqlgen"
	"floatchat/internal/store"
	"floatchat/internal/vectorindex"
)

// Querier is the subset of *store.Store the executor needs; satisfied by
// *store.Store and by test fakes.
type Querier interface {
	Query(ctx context.Context, stmt store.Statement, rowCap int, timeout time.Duration) (store.QueryResult, error)
}

// Searcher is the subset of *vectorindex.Index the executor needs.
type Searcher interface {
	Search(ctx context.Context, vector []float32, k int, filter map[string]string) ([]vectorindex.Result, error)
}

// Executor wires the cache, relational store, vector index, and embedder
// together behind one entry point, Run.
type Executor struct {
	StoreName string // "dev" or "live"; scopes cache keys and vector filters
	SQL       Querier
	Vector    Searcher
	Embedder  embedcap.Embedder
	Cache     qcache.Cache

	VectorK          int
	HybridCandidateK int
	RowCap           int
	QueryTimeout     time.Duration
	SQLOptions       sqlgen.Options
	RRFK             int
}

// Result is what Run hands to the answer synthesizer (C9).
type Result struct {
	Columns   []string
	Rows      []map[string]any
	FromCache bool
	Truncated bool
}

func (e *Executor) withDefaults() {
	if e.VectorK <= 0 {
		e.VectorK = 10
	}
	if e.HybridCandidateK <= 0 {
		e.HybridCandidateK = 50
	}
	if e.RowCap <= 0 {
		e.RowCap = 500
	}
	if e.QueryTimeout <= 0 {
		e.QueryTimeout = 10 * time.Second
	}
	if e.RRFK <= 0 {
		e.RRFK = 60
	}
}

// Run executes intent/ent against the configured sources, preferring a
// cache hit. Informational classification never reaches this entry point
// from the query router (C9 handles it directly); semantic queries are
// served from the vector index alone below.
func (e *Executor) Run(ctx context.Context, intent classify.Intent, ent classify.Entities) (Result, error) {
	e.withDefaults()

	stmt, synthErr := sqlgen.Synthesize(intent, ent, nil, e.SQLOptions)
	canonical := ent.RawQuery
	if synthErr == nil {
		canonical = fmt.Sprintf("%s %v", stmt.Text, stmt.Args)
		if intent == classify.IntentHybrid {
			canonical += " " + ent.RawQuery
		}
	}
	key := qcache.Key(e.StoreName, string(intent), canonical)

	if e.Cache != nil {
		if entry, ok := e.Cache.Get(ctx, key); ok {
			return Result{Columns: entry.Columns, Rows: entry.Rows, FromCache: true}, nil
		}
	}

	var result Result
	var err error
	switch intent {
	case classify.IntentSemantic:
		result, err = e.runVectorOnly(ctx, ent)
	case classify.IntentHybrid:
		result, err = e.runHybrid(ctx, ent)
	default:
		if synthErr != nil {
			return Result{}, synthErr
		}
		result, err = e.runSQL(ctx, stmt)
	}
	if err != nil {
		return Result{}, err
	}

	canonicalizeRows(result.Rows)
	if e.Cache != nil {
		_ = e.Cache.Set(ctx, key, qcache.Entry{
			Columns:  result.Columns,
			Rows:     result.Rows,
			RowCount: len(result.Rows),
			CachedAt: cacheTimestamp(),
		})
	}
	return result, nil
}

func (e *Executor) runSQL(ctx context.Context, stmt store.Statement) (Result, error) {
	qr, err := e.SQL.Query(ctx, stmt, e.RowCap, e.QueryTimeout)
	if err != nil {
		return Result{}, fmt.Errorf("execute sql: %w", err)
	}
	return Result{Columns: qr.Columns, Rows: rowsToMaps(qr.Rows), Truncated: qr.Truncated}, nil
}

func (e *Executor) runVectorOnly(ctx context.Context, ent classify.Entities) (Result, error) {
	ids, err := e.searchCandidates(ctx, ent, e.VectorK)
	if err != nil {
		return Result{}, err
	}
	rows := make([]map[string]any, len(ids))
	for i, id := range ids {
		rows[i] = map[string]any{"global_profile_id": id}
	}
	return Result{Columns: []string{"global_profile_id"}, Rows: rows}, nil
}

// runHybrid vector-searches for a candidate set, then refines it with a
// synthesized SQL statement restricted to those IDs (spec §4.8).
func (e *Executor) runHybrid(ctx context.Context, ent classify.Entities) (Result, error) {
	ids, err := e.searchCandidates(ctx, ent, e.HybridCandidateK)
	if err != nil {
		return Result{}, err
	}
	if len(ids) == 0 {
		return Result{Columns: []string{}, Rows: nil}, nil
	}
	stmt, err := sqlgen.Synthesize(refinementIntent(ent), ent, ids, e.SQLOptions)
	if err != nil {
		return Result{}, err
	}
	return e.runSQL(ctx, stmt)
}

// refinementIntent picks which SQL form the hybrid refinement step should
// take: aggregated if a parameter was named, raw point-lookup otherwise.
func refinementIntent(ent classify.Entities) classify.Intent {
	if len(ent.Parameters) > 0 {
		return classify.IntentParameterProfile
	}
	return classify.IntentFloatLookup
}

func (e *Executor) searchCandidates(ctx context.Context, ent classify.Entities, k int) ([]int64, error) {
	if e.Embedder == nil || e.Vector == nil {
		return nil, fmt.Errorf("vector search requested but no embedder/index configured")
	}
	vecs, err := e.Embedder.EmbedBatch(ctx, []string{ent.RawQuery})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	filter := map[string]string{"store": e.StoreName}
	hits, err := e.Vector.Search(ctx, vecs[0], k, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	ids := make([]int64, 0, len(hits))
	for _, h := range hits {
		if id, ok := globalProfileIDFromHit(h); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// globalProfileIDFromHit recovers the numeric global_profile_id from a
// vector hit. vectorindex.PointKey composes keys as "<store>/<id>", and the
// ingestion orchestrator also mirrors the id into payload metadata under
// "global_profile_id" — prefer the metadata field, falling back to the
// trailing segment of the hit ID for points written before that field
// existed.
func globalProfileIDFromHit(h vectorindex.Result) (int64, bool) {
	if raw, ok := h.Metadata["global_profile_id"]; ok {
		var id int64
		if _, err := fmt.Sscanf(raw, "%d", &id); err == nil {
			return id, true
		}
	}
	raw := h.ID
	if idx := lastSlash(raw); idx >= 0 {
		raw = raw[idx+1:]
	}
	var id int64
	if _, err := fmt.Sscanf(raw, "%d", &id); err == nil {
		return id, true
	}
	return 0, false
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}

func rowsToMaps(rows []store.Row) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		out[i] = map[string]any(r)
	}
	return out
}

// canonicalizeRows stabilizes display precision so a cached payload equals
// a freshly computed one (spec §4.8): floats are rounded to 6 significant
// digits for any value already a float64/float32, other types pass through.
func canonicalizeRows(rows []map[string]any) {
	for _, row := range rows {
		for k, v := range row {
			switch n := v.(type) {
			case float64:
				row[k] = roundTo(n, 6)
			case float32:
				row[k] = roundTo(float64(n), 6)
			}
		}
	}
}

func roundTo(v float64, sigDigits int) float64 {
	if v == 0 {
		return 0
	}
	neg := v < 0
	if neg {
		v = -v
	}
	exp := 0
	for v >= 10 {
		v /= 10
		exp++
	}
	for v < 1 {
		v *= 10
		exp--
	}
	scale := pow10(sigDigits - 1)
	rounded := float64(int64(v*scale+0.5)) / scale
	result := rounded * pow10(exp)
	if neg {
		result = -result
	}
	return result
}

func pow10(n int) float64 {
	r := 1.0
	if n >= 0 {
		for i := 0; i < n; i++ {
			r *= 10
		}
		return r
	}
	for i := 0; i < -n; i++ {
		r /= 10
	}
	return r
}

// cacheTimestamp stamps cache entries; it is a package variable so the
// clock can be replaced.
var cacheTimestamp = func() time.Time { return time.Now() }
