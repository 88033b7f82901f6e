// Command floatchat-ingestd runs one ingestion tick against the configured
// store (C1 -> C5) and exits, for invocation by an external scheduler
// (cron, systemd timer). A filesystem lock prevents two ticks from running
// against the same store concurrently (spec §5).
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"floatchat/internal/config"
	"floatchat/internal/crawler"
	"floatchat/internal/embedcap"
	"floatchat/internal/gazetteer"
	"floatchat/internal/ingest"
	"floatchat/internal/objectstore"
	"floatchat/internal/store"
	"floatchat/internal/telemetry"
	"floatchat/internal/vectorindex"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	telemetry.Init(cfg.LogPath, cfg.LogLevel)

	lock, err := ingest.AcquireTickLock(cfg.Ingestion.LockFilePath)
	if err != nil {
		log.Fatal().Err(err).Msg("acquire tick lock")
	}
	defer lock.Release()

	ctx := context.Background()
	st, err := openActiveStore(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("open store")
	}
	defer st.Close()

	gaz, err := openGazetteer(cfg.Query.GazetteerPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load gazetteer")
	}

	vector, err := vectorindex.Open(cfg.Vector.DSN, cfg.Vector.Collection, cfg.Vector.Dimensions, cfg.Vector.Metric)
	if err != nil {
		log.Fatal().Err(err).Msg("open vector index")
	}
	defer vector.Close()

	embedder := openEmbedder(cfg)

	fp, err := crawler.OpenFingerprintStore(cfg.Ingestion.FingerprintPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open fingerprint store")
	}

	pendingVectors, err := ingest.OpenPendingVectorStore(cfg.Ingestion.PendingVectorPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open pending vector store")
	}

	archive, archiveErr := openArchive(ctx, cfg)
	if archiveErr != nil {
		log.Warn().Err(archiveErr).Msg("raw-file archive unavailable, ticks will skip archival")
		archive = nil
	}

	c := crawler.New(crawler.Config{
		RemoteRootURL:     cfg.Ingestion.RemoteRootURL,
		AcceptGlobs:       cfg.Ingestion.AcceptGlobs,
		FileBudgetPerTick: cfg.Ingestion.FileBudgetPerTick,
		PerFileTimeoutS:   cfg.Ingestion.PerFileTimeoutS,
		RetryMax:          cfg.Ingestion.RetryMax,
		BackoffBaseS:      cfg.Ingestion.BackoffBaseS,
	}, fp, archive)

	orchestrator := &ingest.Orchestrator{
		StoreName:      cfg.Store.Active,
		Crawler:        c,
		Store:          st,
		Vector:         vector,
		Embedder:       embedder,
		Gazetteer:      gaz,
		PendingVectors: pendingVectors,
		Log:            log.Logger.With().Str("component", "ingest").Logger(),
	}

	tickCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Ingestion.TickWallClockS)*time.Second)
	defer cancel()

	summary := orchestrator.Tick(tickCtx)
	log.Info().
		Int64("run_id", summary.RunID).
		Int("files_discovered", summary.FilesDiscovered).
		Int("profiles_added", summary.ProfilesAdded).
		Int("measurements_added", summary.MeasurementsAdded).
		Dur("duration", summary.Duration).
		Msg("ingest_tick_complete")

	if summary.Err != nil {
		log.Error().Err(summary.Err).Msg("ingest_tick_failed")
		os.Exit(1)
	}
}

func openActiveStore(ctx context.Context, cfg config.StoreConfig) (*store.Store, error) {
	if cfg.Active == "live" {
		return store.New(ctx, "live", cfg.LiveDSN, cfg.LiveIDBase, cfg.LiveIDWidth)
	}
	return store.New(ctx, "dev", cfg.DevDSN, cfg.DevIDBase, cfg.DevIDWidth)
}

func openGazetteer(path string) (*gazetteer.Gazetteer, error) {
	if path == "" {
		return gazetteer.Default(), nil
	}
	return gazetteer.Load(path)
}

func openEmbedder(cfg config.Config) embedcap.Embedder {
	if cfg.Embedding.APIKey == "" {
		return embedcap.NewDeterministic(cfg.Embedding.Dimensions, 1)
	}
	return embedcap.NewOpenAI(cfg.Embedding.APIKey, cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Embedding.Dimensions)
}

func openArchive(ctx context.Context, cfg config.Config) (objectstore.ObjectStore, error) {
	if !cfg.S3.Enabled {
		return objectstore.NewMemoryStore(), nil
	}
	return objectstore.NewS3Store(ctx, cfg.S3)
}
