// Command floatchat-server runs FloatChat's read-only HTTP API (C10): the
// natural-language query endpoint and the spatial/profile wrapper
// endpoints, backed by whichever store the FLOATCHAT_STORE environment
// variable selects.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"floatchat/internal/api"
	"floatchat/internal/classify"
	"floatchat/internal/config"
	"floatchat/internal/embedcap"
	"floatchat/internal/gazetteer"
	"floatchat/internal/narrate"
	"floatchat/internal/qcache"
	"floatchat/internal/retrieve"
	"floatchat/internal/sqlgen"
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

	var searcher retrieve.Searcher
	vector, vectorErr := vectorindex.Open(cfg.Vector.DSN, cfg.Vector.Collection, cfg.Vector.Dimensions, cfg.Vector.Metric)
	if vectorErr != nil {
		log.Warn().Err(vectorErr).Msg("vector index unavailable, semantic/hybrid queries will fail")
	} else {
		defer vector.Close()
		searcher = vector
	}

	embedder := openEmbedder(cfg)
	narrator := openNarrator(cfg)
	cache := openCache(cfg)
	defer cache.Close()

	classifier := classify.New(gaz, time.Now)
	executor := &retrieve.Executor{
		StoreName:    cfg.Store.Active,
		SQL:          st,
		Vector:       searcher,
		Embedder:     embedder,
		Cache:        cache,
		RowCap:       cfg.Query.RowCap,
		QueryTimeout: time.Duration(cfg.Query.SQLTimeoutS) * time.Second,
		SQLOptions:   sqlgen.Options{RowLimit: cfg.Query.RowCap, DepthBinMeters: cfg.Query.DepthBinMeters},
	}

	apiLog := log.Logger.With().Str("component", "api").Logger()
	server := api.NewServer(st, classifier, executor, narrator, apiLog)
	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: server}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("floatchat_server_listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
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

func openNarrator(cfg config.Config) narrate.Narrator {
	if cfg.Anthropic.APIKey == "" {
		return narrate.NewTemplate()
	}
	return narrate.NewAnthropic(cfg.Anthropic.APIKey, cfg.Anthropic.BaseURL, cfg.Anthropic.Model)
}

func openCache(cfg config.Config) qcache.Cache {
	if cfg.Redis.Enabled {
		c, err := qcache.OpenRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, false, time.Duration(cfg.Query.CacheTTLS)*time.Second)
		if err == nil {
			return c
		}
		log.Warn().Err(err).Msg("redis query cache unavailable, falling back to in-memory cache")
	}
	return qcache.NewMemory(cfg.Query.CacheMaxEntries, time.Duration(cfg.Query.CacheTTLS)*time.Second)
}
