package retrieve

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floatchat/internal/classify"
	"floatchat/internal/qcache"
	"floatchat/internal/store"
	"floatchat/internal/vectorindex"
)

type fakeQuerier struct {
	result store.QueryResult
	err    error
	calls  int
}

func (f *fakeQuerier) Query(ctx context.Context, stmt store.Statement, rowCap int, timeout time.Duration) (store.QueryResult, error) {
	f.calls++
	return f.result, f.err
}

type fakeSearcher struct {
	results []vectorindex.Result
	err     error
}

func (f *fakeSearcher) Search(ctx context.Context, vector []float32, k int, filter map[string]string) ([]vectorindex.Result, error) {
	return f.results, f.err
}

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}
func (fakeEmbedder) Dimension() int { return 3 }
func (fakeEmbedder) Name() string   { return "fake" }

func TestRun_FloatLookupExecutesSQL(t *testing.T) {
	q := &fakeQuerier{result: store.QueryResult{
		Columns: []string{"global_profile_id"},
		Rows:    []store.Row{{"global_profile_id": int64(1)}},
	}}
	e := &Executor{StoreName: "dev", SQL: q, Cache: qcache.NewMemory(8, time.Minute)}
	res, err := e.Run(context.Background(), classify.IntentFloatLookup, classify.Entities{FloatIDs: []string{"29027460"}})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 1)
	assert.False(t, res.FromCache)
	assert.Equal(t, 1, q.calls)
}

func TestRun_CacheHitSkipsSQL(t *testing.T) {
	q := &fakeQuerier{result: store.QueryResult{
		Columns: []string{"global_profile_id"},
		Rows:    []store.Row{{"global_profile_id": int64(1)}},
	}}
	cache := qcache.NewMemory(8, time.Minute)
	e := &Executor{StoreName: "dev", SQL: q, Cache: cache}
	ent := classify.Entities{FloatIDs: []string{"29027460"}}

	_, err := e.Run(context.Background(), classify.IntentFloatLookup, ent)
	require.NoError(t, err)
	res2, err := e.Run(context.Background(), classify.IntentFloatLookup, ent)
	require.NoError(t, err)

	assert.True(t, res2.FromCache)
	assert.Equal(t, 1, q.calls, "second run should not hit SQL again")
}

func TestRun_SemanticUsesVectorOnly(t *testing.T) {
	search := &fakeSearcher{results: []vectorindex.Result{{ID: "42", Score: 0.9}}}
	e := &Executor{StoreName: "dev", Vector: search, Embedder: fakeEmbedder{}, Cache: qcache.NewMemory(8, time.Minute)}
	res, err := e.Run(context.Background(), classify.IntentSemantic, classify.Entities{RawQuery: "deep water patterns"})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, int64(42), res.Rows[0]["global_profile_id"])
}

func TestRun_HybridRefinesVectorCandidatesWithSQL(t *testing.T) {
	search := &fakeSearcher{results: []vectorindex.Result{{ID: "1"}, {ID: "2"}}}
	q := &fakeQuerier{result: store.QueryResult{
		Columns: []string{"global_profile_id"},
		Rows:    []store.Row{{"global_profile_id": int64(1)}, {"global_profile_id": int64(2)}},
	}}
	e := &Executor{StoreName: "dev", SQL: q, Vector: search, Embedder: fakeEmbedder{}, Cache: qcache.NewMemory(8, time.Minute)}
	ent := classify.Entities{RawQuery: "salinity near the Arabian Sea last month"}
	res, err := e.Run(context.Background(), classify.IntentHybrid, ent)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)
	assert.Equal(t, 1, q.calls)
}

func TestRun_HybridWithNoVectorHitsReturnsEmptyWithoutSQL(t *testing.T) {
	search := &fakeSearcher{results: nil}
	q := &fakeQuerier{}
	e := &Executor{StoreName: "dev", SQL: q, Vector: search, Embedder: fakeEmbedder{}, Cache: qcache.NewMemory(8, time.Minute)}
	res, err := e.Run(context.Background(), classify.IntentHybrid, classify.Entities{RawQuery: "nothing matches"})
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.Equal(t, 0, q.calls)
}

func TestCanonicalizeRows_RoundsFloatsToSixSignificantDigits(t *testing.T) {
	rows := []map[string]any{{"temperature": 28.123456789}}
	canonicalizeRows(rows)
	assert.InDelta(t, 28.1235, rows[0]["temperature"].(float64), 1e-4)
}

func TestRoundTo_ZeroStaysZero(t *testing.T) {
	assert.Equal(t, 0.0, roundTo(0, 6))
}
