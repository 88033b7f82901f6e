// Package ingest implements the ingestion orchestrator (C5): one tick
// drives crawl (C1) -> parse (C2) -> relational upsert (C3) -> vector index
// (C4), records an AutomationRun, and tolerates per-file failures without
// aborting the whole tick.
package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"floatchat/internal/argofile"
	"floatchat/internal/crawler"
	"floatchat/internal/embedcap"
	"floatchat/internal/gazetteer"
	"floatchat/internal/store"
	"floatchat/internal/vectorindex"
)

// maxConsecutiveFaults aborts the remainder of a tick's file loop once this
// many files in a row fail to parse/persist — a sign of a systemic problem
// (corrupt mirror, schema drift) rather than one bad file.
const maxConsecutiveFaults = 5

// RelationalStore is the subset of *store.Store the orchestrator needs;
// satisfied by *store.Store and by test fakes.
type RelationalStore interface {
	OpenRun(ctx context.Context, at time.Time) (int64, error)
	CloseRun(ctx context.Context, run store.AutomationRun) error
	UpsertProfile(ctx context.Context, p store.Profile, measurements []store.Measurement) (store.UpsertOutcome, error)
}

// VectorIndexer is the subset of *vectorindex.Index the orchestrator needs.
type VectorIndexer interface {
	Upsert(ctx context.Context, key string, vector []float32, metadata map[string]string) error
}

// Orchestrator composes one store + the shared crawler/vector/embedder
// capabilities into a single runnable tick. A deployment with two stores
// (dev, live) runs two Orchestrators.
type Orchestrator struct {
	StoreName string
	Crawler   *crawler.Crawler
	Store     RelationalStore
	Vector    VectorIndexer
	Embedder  embedcap.Embedder
	Gazetteer *gazetteer.Gazetteer

	// PendingVectors tracks profiles upserted into the relational store
	// whose vector-index write failed, so Tick can retry them before
	// processing new files (spec §3 VectorRecord orphan repair). Nil
	// disables repair bookkeeping (e.g. in unit tests that don't exercise
	// the vector path at all).
	PendingVectors *PendingVectorStore

	FileConcurrency int
	Log             zerolog.Logger
}

// TickSummary reports what one Tick accomplished, mirroring the counters
// persisted to AutomationRun.
type TickSummary struct {
	RunID             int64
	FilesDiscovered   int
	FilesDownloaded   int
	ProfilesAdded     int
	MeasurementsAdded int
	Duration          time.Duration
	Err               error
}

func (o *Orchestrator) fileConcurrency() int {
	if o.FileConcurrency <= 0 {
		return 1
	}
	return o.FileConcurrency
}

// Tick runs one full crawl-parse-store-index pass. It is idempotent at file
// granularity: re-running after a crash resumes cleanly because C1's
// fingerprint store and C3's natural-key conflict detection both discard
// already-done work (spec §4.5).
func (o *Orchestrator) Tick(ctx context.Context) TickSummary {
	start := time.Now()
	runID, err := o.Store.OpenRun(ctx, start)
	if err != nil {
		return TickSummary{Err: fmt.Errorf("open automation run: %w", err)}
	}

	o.repairPendingVectors(ctx)

	summary := TickSummary{RunID: runID}
	files, err := o.Crawler.Tick(ctx)
	summary.FilesDiscovered = len(files)
	summary.FilesDownloaded = len(files)
	if err != nil {
		o.closeRun(ctx, summary, start, store.RunError, err.Error())
		summary.Err = err
		return summary
	}

	var mu sync.Mutex
	faults := 0
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.fileConcurrency())

	for _, f := range files {
		f := f
		g.Go(func() error {
			added, measured, ferr := o.processFile(gctx, f)
			mu.Lock()
			defer mu.Unlock()
			if ferr != nil {
				faults++
				o.Log.Warn().Err(ferr).Str("file", f.URL).Msg("ingest_file_failed")
				if faults >= maxConsecutiveFaults {
					return fmt.Errorf("aborting tick after %d consecutive file failures: %w", faults, ferr)
				}
				return nil
			}
			faults = 0
			summary.ProfilesAdded += added
			summary.MeasurementsAdded += measured
			return nil
		})
	}

	runErr := g.Wait()
	if o.PendingVectors != nil {
		if err := o.PendingVectors.Flush(); err != nil {
			o.Log.Error().Err(err).Msg("ingest_pending_vector_flush_failed")
		}
	}
	summary.Duration = time.Since(start)
	if runErr != nil {
		o.closeRun(ctx, summary, start, store.RunError, runErr.Error())
		summary.Err = runErr
		return summary
	}
	o.closeRun(ctx, summary, start, store.RunCompleted, "")
	return summary
}

func (o *Orchestrator) closeRun(ctx context.Context, summary TickSummary, start time.Time, status store.RunStatus, errMsg string) {
	run := store.AutomationRun{
		ID:                summary.RunID,
		RunTimestamp:      start,
		Status:            status,
		FilesDiscovered:   summary.FilesDiscovered,
		FilesDownloaded:   summary.FilesDownloaded,
		ProfilesAdded:     summary.ProfilesAdded,
		MeasurementsAdded: summary.MeasurementsAdded,
		DurationSeconds:   time.Since(start).Seconds(),
		ErrorMessage:      errMsg,
	}
	if err := o.Store.CloseRun(ctx, run); err != nil {
		o.Log.Error().Err(err).Int64("run_id", summary.RunID).Msg("ingest_close_run_failed")
	}
}

// processFile parses one downloaded file and persists every profile it
// contains, returning counts of profiles/measurements actually added (a
// natural-key conflict returns Inserted=false and does not count).
func (o *Orchestrator) processFile(ctx context.Context, f crawler.DiscoveredFile) (profilesAdded, measurementsAdded int, err error) {
	decoded, diag, err := argofile.DecodeBytes(f.Bytes)
	if err != nil {
		return 0, 0, fmt.Errorf("decode %s: %w", f.URL, err)
	}
	if diag.TruncatedRecords > 0 {
		o.Log.Warn().Str("file", f.URL).Int("truncated_records", diag.TruncatedRecords).Msg("ingest_truncated_records")
	}

	for _, dp := range decoded {
		profile := store.Profile{
			FloatID:               dp.FloatID,
			CycleNumber:           dp.CycleNumber,
			Latitude:              dp.Latitude,
			Longitude:             dp.Longitude,
			Datetime:              dp.Datetime,
			SourceFileFingerprint: f.Fingerprint,
		}
		measurements := make([]store.Measurement, len(dp.Levels))
		for i, lvl := range dp.Levels {
			measurements[i] = store.Measurement{
				Level:       i,
				Pressure:    lvl.Pressure,
				Temperature: lvl.Temperature,
				Salinity:    lvl.Salinity,
				QCFlag:      lvl.QCFlag,
				Latitude:    dp.Latitude,
				Longitude:   dp.Longitude,
				Datetime:    dp.Datetime,
			}
		}

		outcome, err := o.Store.UpsertProfile(ctx, profile, measurements)
		if err != nil {
			return profilesAdded, measurementsAdded, fmt.Errorf("upsert profile %s/%d: %w", dp.FloatID, dp.CycleNumber, err)
		}
		if !outcome.Inserted {
			continue
		}
		profilesAdded++
		measurementsAdded += len(measurements)

		rec := PendingVectorRecord{
			GlobalProfileID: outcome.GlobalProfileID,
			FloatID:         dp.FloatID,
			CycleNumber:     dp.CycleNumber,
			Latitude:        dp.Latitude,
			Longitude:       dp.Longitude,
			Datetime:        dp.Datetime,
		}
		if err := o.indexProfile(ctx, rec); err != nil {
			o.Log.Warn().Err(err).Int64("global_profile_id", outcome.GlobalProfileID).Msg("ingest_vector_index_failed")
			if o.PendingVectors != nil {
				o.PendingVectors.Add(rec)
			}
		} else if o.PendingVectors != nil {
			o.PendingVectors.Remove(outcome.GlobalProfileID)
		}
	}
	return profilesAdded, measurementsAdded, nil
}

// repairPendingVectors retries every VectorRecord orphan recorded by a prior
// tick's failed indexProfile call, before that tick processes any new
// files. Profiles that still fail stay pending for the next tick.
func (o *Orchestrator) repairPendingVectors(ctx context.Context) {
	if o.PendingVectors == nil {
		return
	}
	pending := o.PendingVectors.All()
	if len(pending) == 0 {
		return
	}
	for _, rec := range pending {
		if err := o.indexProfile(ctx, rec); err != nil {
			o.Log.Warn().Err(err).Int64("global_profile_id", rec.GlobalProfileID).Msg("ingest_vector_repair_failed")
			continue
		}
		o.PendingVectors.Remove(rec.GlobalProfileID)
	}
	if err := o.PendingVectors.Flush(); err != nil {
		o.Log.Error().Err(err).Msg("ingest_pending_vector_flush_failed")
	}
}

// indexProfile embeds a natural-language description of the profile and
// upserts it into the vector index, tagged with metadata the retrieval
// executor (C8) filters on.
func (o *Orchestrator) indexProfile(ctx context.Context, rec PendingVectorRecord) error {
	if o.Vector == nil || o.Embedder == nil {
		return nil
	}
	summary := vectorindex.ProfileSummary{
		FloatID:     rec.FloatID,
		CycleNumber: rec.CycleNumber,
		Latitude:    rec.Latitude,
		Longitude:   rec.Longitude,
		Datetime:    rec.Datetime,
	}
	if o.Gazetteer != nil && rec.Latitude != nil && rec.Longitude != nil {
		if region, ok := regionForPoint(o.Gazetteer, *rec.Latitude, *rec.Longitude); ok {
			summary.Region = region.Name
		}
	}
	text := vectorindex.Describe(summary)

	vecs, err := o.Embedder.EmbedBatch(ctx, []string{text})
	if err != nil {
		return fmt.Errorf("embed profile description: %w", err)
	}

	key := vectorindex.PointKey(o.StoreName, rec.GlobalProfileID)
	metadata := map[string]string{
		"store":             o.StoreName,
		"float_id":          rec.FloatID,
		"global_profile_id": fmt.Sprintf("%d", rec.GlobalProfileID),
	}
	if summary.Region != "" {
		metadata["region"] = summary.Region
	}
	if rec.Datetime != nil {
		metadata["year"] = fmt.Sprintf("%d", rec.Datetime.Year())
		metadata["month"] = fmt.Sprintf("%02d", int(rec.Datetime.Month()))
	}
	return o.Vector.Upsert(ctx, key, vecs[0], metadata)
}

func regionForPoint(g *gazetteer.Gazetteer, lat, lon float64) (gazetteer.Region, bool) {
	for _, r := range g.All() {
		if lat >= r.MinLat && lat <= r.MaxLat && lon >= r.MinLon && lon <= r.MaxLon {
			return r, true
		}
	}
	return gazetteer.Region{}, false
}
