// Package config holds FloatChat's typed configuration surface.
package config

// StoreConfig describes one of the two relational stores (dev/live) and
// selects which one the running process targets.
type StoreConfig struct {
	Active string // "dev" | "live" — which store floatchat-ingestd writes to this tick

	DevDSN      string
	DevIDBase   int64
	DevIDWidth  int64
	LiveDSN     string
	LiveIDBase  int64
	LiveIDWidth int64
}

// VectorConfig configures the Qdrant-backed semantic index.
type VectorConfig struct {
	DSN         string
	Collection  string
	Dimensions  int
	Metric      string // cosine|l2|ip
	TopKDefault int
}

// IngestionConfig configures the remote mirror crawler and orchestrator tick.
type IngestionConfig struct {
	RemoteRootURL      string
	AcceptGlobs        []string
	FileBudgetPerTick  int
	PerFileTimeoutS    int
	RetryMax           int
	BackoffBaseS       float64
	TickWallClockS     int
	ErrorRateTolerance float64
	FingerprintPath    string
	LockFilePath       string
	PendingVectorPath  string
}

// QueryConfig configures the query router, SQL synthesizer, and cache.
type QueryConfig struct {
	RowCap          int
	SQLTimeoutS     int
	CacheTTLS       int
	CacheMaxEntries int
	GazetteerPath   string
	DepthBinMeters  float64
}

// AnswerConfig bounds the narrative synthesizer's output length.
type AnswerConfig struct {
	MaxSentencesInformational int
	MaxSentencesData          int
}

// RedisConfig configures the query result cache backend.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// EmbeddingConfig configures the OpenAI-backed embedding capability.
type EmbeddingConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
}

// AnthropicConfig configures the Anthropic-backed narration capability.
type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// S3SSEConfig configures server-side encryption for the raw-file archive.
type S3SSEConfig struct {
	Mode     string // "", "sse-s3", "sse-kms"
	KMSKeyID string
}

// S3Config configures the raw-file object store archive.
type S3Config struct {
	Enabled               bool
	Bucket                string
	Region                string
	Prefix                string
	Endpoint              string
	AccessKey             string
	SecretKey             string
	UsePathStyle          bool
	TLSInsecureSkipVerify bool
	SSE                   S3SSEConfig
}

// Config is the root configuration object for both floatchat binaries.
type Config struct {
	Store     StoreConfig
	Vector    VectorConfig
	Ingestion IngestionConfig
	Query     QueryConfig
	Answer    AnswerConfig
	Redis     RedisConfig
	Embedding EmbeddingConfig
	Anthropic AnthropicConfig
	S3        S3Config

	HTTPAddr string
	LogLevel string
	LogPath  string
}
