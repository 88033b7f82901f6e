package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"floatchat/internal/argofile"
	"floatchat/internal/crawler"
	"floatchat/internal/embedcap"
	"floatchat/internal/gazetteer"
	"floatchat/internal/objectstore"
	"floatchat/internal/store"
)

type fakeStore struct {
	mu       sync.Mutex
	runs     []store.AutomationRun
	upserted map[string]store.UpsertOutcome
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{upserted: make(map[string]store.UpsertOutcome), nextID: 1}
}

func (f *fakeStore) OpenRun(ctx context.Context, at time.Time) (int64, error) {
	return 1, nil
}

func (f *fakeStore) CloseRun(ctx context.Context, run store.AutomationRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeStore) UpsertProfile(ctx context.Context, p store.Profile, measurements []store.Measurement) (store.UpsertOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	floatID, cycle, fp := p.NaturalKey()
	key := fmt.Sprintf("%s/%d/%s", floatID, cycle, fp)
	if existing, ok := f.upserted[key]; ok {
		return store.UpsertOutcome{GlobalProfileID: existing.GlobalProfileID, Inserted: false}, nil
	}
	id := f.nextID
	f.nextID++
	outcome := store.UpsertOutcome{GlobalProfileID: id, Inserted: true}
	f.upserted[key] = outcome
	return outcome, nil
}

type fakeVector struct {
	mu       sync.Mutex
	upserted map[string][]float32
	failKeys map[string]bool
}

func newFakeVector() *fakeVector {
	return &fakeVector{upserted: make(map[string][]float32), failKeys: make(map[string]bool)}
}

func (f *fakeVector) Upsert(ctx context.Context, key string, vector []float32, metadata map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failKeys[key] {
		return fmt.Errorf("simulated index failure for %s", key)
	}
	f.upserted[key] = vector
	return nil
}

func newArgoTestServer(t *testing.T, profiles []argofile.DecodedProfile) *httptest.Server {
	encoded := argofile.EncodeBytes(profiles)
	mux := http.NewServeMux()
	mux.HandleFunc("/argo/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><a href="profile_001.bin">profile_001.bin</a></body></html>`))
	})
	mux.HandleFunc("/argo/profile_001.bin", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", "etag-1")
		w.Write(encoded)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestOrchestrator(t *testing.T, profiles []argofile.DecodedProfile) (*Orchestrator, *fakeStore, *fakeVector) {
	srv := newArgoTestServer(t, profiles)
	cfg := crawler.Config{
		RemoteRootURL:     srv.URL + "/argo/",
		AcceptGlobs:       []string{"*.bin"},
		FileBudgetPerTick: 10,
		PerFileTimeoutS:   5,
		RetryMax:          1,
		BackoffBaseS:      0.01,
	}
	fp, err := crawler.OpenFingerprintStore(filepath.Join(t.TempDir(), "fp.json"))
	require.NoError(t, err)
	archive := objectstore.NewMemoryStore()
	c := crawler.New(cfg, fp, archive)

	fs := newFakeStore()
	fv := newFakeVector()
	pv, err := OpenPendingVectorStore(filepath.Join(t.TempDir(), "pending.json"))
	require.NoError(t, err)
	o := &Orchestrator{
		StoreName:      "dev",
		Crawler:        c,
		Store:          fs,
		Vector:         fv,
		Embedder:       embedcap.NewDeterministic(16, 1),
		PendingVectors: pv,
		Log:            zerolog.Nop(),
	}
	return o, fs, fv
}

func f64(v float64) *float64 { return &v }

func sampleDecodedProfile() argofile.DecodedProfile {
	dt := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return argofile.DecodedProfile{
		FloatID:     "2902746",
		CycleNumber: 1,
		Latitude:    f64(12.5),
		Longitude:   f64(65.0),
		Datetime:    &dt,
		Levels: []argofile.Level{
			{Pressure: f64(10), Temperature: f64(28), Salinity: f64(35)},
			{Pressure: f64(100), Temperature: f64(20), Salinity: f64(35.2)},
		},
	}
}

func TestTick_IngestsNewProfileAndIndexesIt(t *testing.T) {
	o, fs, fv := newTestOrchestrator(t, []argofile.DecodedProfile{sampleDecodedProfile()})
	summary := o.Tick(context.Background())

	require.NoError(t, summary.Err)
	assert.Equal(t, 1, summary.FilesDiscovered)
	assert.Equal(t, 1, summary.ProfilesAdded)
	assert.Equal(t, 2, summary.MeasurementsAdded)
	require.Len(t, fs.runs, 1)
	assert.Equal(t, store.RunCompleted, fs.runs[0].Status)
	assert.Len(t, fv.upserted, 1)
}

func TestTick_SecondTickIsANoOpForUnchangedFile(t *testing.T) {
	o, _, _ := newTestOrchestrator(t, []argofile.DecodedProfile{sampleDecodedProfile()})
	_ = o.Tick(context.Background())
	summary2 := o.Tick(context.Background())

	require.NoError(t, summary2.Err)
	assert.Equal(t, 0, summary2.FilesDiscovered)
	assert.Equal(t, 0, summary2.ProfilesAdded)
}

func TestTick_ZeroMeasurementProfileStillCounted(t *testing.T) {
	p := sampleDecodedProfile()
	p.Levels = nil
	o, _, _ := newTestOrchestrator(t, []argofile.DecodedProfile{p})
	summary := o.Tick(context.Background())

	require.NoError(t, summary.Err)
	assert.Equal(t, 1, summary.ProfilesAdded)
	assert.Equal(t, 0, summary.MeasurementsAdded)
}

func TestTick_RepairsVectorIndexOrphanOnLaterTick(t *testing.T) {
	o, _, fv := newTestOrchestrator(t, []argofile.DecodedProfile{sampleDecodedProfile()})

	key := "dev/1"
	fv.failKeys[key] = true
	summary := o.Tick(context.Background())
	require.NoError(t, summary.Err)
	assert.Equal(t, 1, summary.ProfilesAdded)
	assert.Empty(t, fv.upserted, "vector upsert failed, so nothing should have been indexed yet")
	assert.Len(t, o.PendingVectors.All(), 1, "failed indexProfile call must record an orphan")

	fv.failKeys[key] = false
	summary2 := o.Tick(context.Background())
	require.NoError(t, summary2.Err)
	assert.Contains(t, fv.upserted, key, "repair pass on the next tick must retry the orphaned vector")
	assert.Empty(t, o.PendingVectors.All(), "repaired orphan must be cleared from the pending store")
}

func TestRegionForPoint_MatchesKnownBoundingBox(t *testing.T) {
	region, ok := regionForPoint(gazetteer.Default(), 12.5, 65.0)
	require.True(t, ok)
	assert.Equal(t, "Arabian Sea", region.Name)
}
