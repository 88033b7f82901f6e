package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables, optionally
// overridden by a local .env file. Defaults are applied for anything
// left unset so both binaries run against an in-memory/no-op backend
// stack without external infrastructure.
func Load() (Config, error) {
	_ = godotenv.Overload()

	cfg := Config{
		Store: StoreConfig{
			Active:      firstNonEmpty(strings.ToLower(strings.TrimSpace(os.Getenv("FLOATCHAT_STORE"))), "dev"),
			DevDSN:      os.Getenv("FLOATCHAT_DEV_DSN"),
			DevIDBase:   getenvInt64("FLOATCHAT_DEV_ID_BASE", 1),
			DevIDWidth:  getenvInt64("FLOATCHAT_DEV_ID_WIDTH", 999_999_999),
			LiveDSN:     os.Getenv("FLOATCHAT_LIVE_DSN"),
			LiveIDBase:  getenvInt64("FLOATCHAT_LIVE_ID_BASE", 1_000_000_000),
			LiveIDWidth: getenvInt64("FLOATCHAT_LIVE_ID_WIDTH", 1_000_000_000),
		},
		Vector: VectorConfig{
			DSN:         firstNonEmpty(os.Getenv("FLOATCHAT_QDRANT_DSN"), "http://localhost:6334"),
			Collection:  firstNonEmpty(os.Getenv("FLOATCHAT_QDRANT_COLLECTION"), "argo_profiles"),
			Dimensions:  getenvInt("FLOATCHAT_EMBEDDING_DIM", 64),
			Metric:      firstNonEmpty(os.Getenv("FLOATCHAT_VECTOR_METRIC"), "cosine"),
			TopKDefault: getenvInt("FLOATCHAT_TOP_K_DEFAULT", 10),
		},
		Ingestion: IngestionConfig{
			RemoteRootURL:      os.Getenv("FLOATCHAT_REMOTE_ROOT_URL"),
			AcceptGlobs:        splitCSV(firstNonEmpty(os.Getenv("FLOATCHAT_ACCEPT_GLOBS"), "*.argo")),
			FileBudgetPerTick:  getenvInt("FLOATCHAT_FILE_BUDGET", 200),
			PerFileTimeoutS:    getenvInt("FLOATCHAT_PER_FILE_TIMEOUT_S", 30),
			RetryMax:           getenvInt("FLOATCHAT_RETRY_MAX", 3),
			BackoffBaseS:       getenvFloat("FLOATCHAT_BACKOFF_BASE_S", 1.0),
			TickWallClockS:     getenvInt("FLOATCHAT_TICK_WALL_CLOCK_S", 3300),
			ErrorRateTolerance: getenvFloat("FLOATCHAT_ERROR_RATE_TOLERANCE", 0.1),
			FingerprintPath:    firstNonEmpty(os.Getenv("FLOATCHAT_FINGERPRINT_PATH"), "floatchat-fingerprints.json"),
			LockFilePath:       firstNonEmpty(os.Getenv("FLOATCHAT_LOCK_PATH"), "floatchat-ingest.lock"),
			PendingVectorPath:  firstNonEmpty(os.Getenv("FLOATCHAT_PENDING_VECTOR_PATH"), "floatchat-pending-vectors.json"),
		},
		Query: QueryConfig{
			RowCap:          getenvInt("FLOATCHAT_ROW_CAP", 500),
			SQLTimeoutS:     getenvInt("FLOATCHAT_SQL_TIMEOUT_S", 10),
			CacheTTLS:       getenvInt("FLOATCHAT_CACHE_TTL_S", 300),
			CacheMaxEntries: getenvInt("FLOATCHAT_CACHE_MAX_ENTRIES", 1000),
			GazetteerPath:   os.Getenv("FLOATCHAT_GAZETTEER_PATH"),
			DepthBinMeters:  getenvFloat("FLOATCHAT_DEPTH_BIN_METERS", 50),
		},
		Answer: AnswerConfig{
			MaxSentencesInformational: getenvInt("FLOATCHAT_MAX_SENTENCES_INFO", 4),
			MaxSentencesData:          getenvInt("FLOATCHAT_MAX_SENTENCES_DATA", 4),
		},
		Redis: RedisConfig{
			Enabled:  strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "",
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getenvInt("REDIS_DB", 0),
		},
		Embedding: EmbeddingConfig{
			APIKey:     os.Getenv("OPENAI_API_KEY"),
			BaseURL:    os.Getenv("OPENAI_BASE_URL"),
			Model:      firstNonEmpty(os.Getenv("OPENAI_EMBEDDING_MODEL"), "text-embedding-3-small"),
			Dimensions: getenvInt("FLOATCHAT_EMBEDDING_DIM", 64),
		},
		Anthropic: AnthropicConfig{
			APIKey:  os.Getenv("ANTHROPIC_API_KEY"),
			BaseURL: os.Getenv("ANTHROPIC_BASE_URL"),
			Model:   firstNonEmpty(os.Getenv("ANTHROPIC_MODEL"), "claude-3-7-sonnet-latest"),
		},
		S3: S3Config{
			Enabled:      strings.TrimSpace(os.Getenv("FLOATCHAT_S3_BUCKET")) != "",
			Bucket:       os.Getenv("FLOATCHAT_S3_BUCKET"),
			Region:       firstNonEmpty(os.Getenv("FLOATCHAT_S3_REGION"), "us-east-1"),
			Prefix:       os.Getenv("FLOATCHAT_S3_PREFIX"),
			Endpoint:     os.Getenv("FLOATCHAT_S3_ENDPOINT"),
			AccessKey:    os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey:    os.Getenv("AWS_SECRET_ACCESS_KEY"),
			UsePathStyle: strings.EqualFold(os.Getenv("FLOATCHAT_S3_PATH_STYLE"), "true"),
		},
		HTTPAddr: firstNonEmpty(os.Getenv("FLOATCHAT_HTTP_ADDR"), ":8080"),
		LogLevel: firstNonEmpty(os.Getenv("LOG_LEVEL"), "info"),
		LogPath:  os.Getenv("LOG_PATH"),
	}

	return cfg, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getenvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
