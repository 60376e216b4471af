package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Vector index backends.
const (
	VectorBackendScan    = "scan"
	VectorBackendQdrant  = "qdrant"
	VectorBackendChromem = "chromem"
)

// Config holds all configuration for the application.
type Config struct {
	APIPort   string
	DBPath    string
	LogLevel  slog.Level
	LogFormat string

	// AliasTablePath and WeightTablePath locate the static tables: empty for
	// the embedded defaults, a file path, or s3://bucket/key.
	AliasTablePath  string
	WeightTablePath string
	AWSRegion       string

	EmbeddingServiceURL string
	EmbeddingModel      string
	EmbeddingTimeout    time.Duration
	EmbeddingDim        int

	VectorSearchEnabled bool
	VectorBackend       string
	VectorMinSimilarity float32
	VectorMaxScan       int
	QdrantURL           string
	QdrantCollection    string
	ChromemPersistPath  string

	SearchEngineURL       string
	SearchEngineIndex     string
	SearchEngineUser      string
	SearchEnginePassword  string
	SearchEngineVerifySSL bool
	SearchEngineTimeout   time.Duration
	SearchEngineAnalyzer  string

	HealthProbeTTL  time.Duration
	WorkerPoolSize  int
	MaxContentChars int
	RequestTimeout  time.Duration
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the rest.
// If a .env file exists in the current directory or a parent directory, it is
// loaded first. Environment variables already set take precedence over .env
// file values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	wd, err := os.Getwd()
	if err == nil {
		dir := wd
		for i := 0; i < 5; i++ {
			envPath := filepath.Join(dir, ".env")
			if _, err := os.Stat(envPath); err == nil {
				_ = godotenv.Load(envPath)
				break
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	env := &envReader{}
	cfg := &Config{
		APIPort:   getEnv("API_PORT", "9000"),
		DBPath:    getEnv("DB_PATH", "./data/statutes.db"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),

		AliasTablePath:  getEnv("ALIAS_TABLE_PATH", ""),
		WeightTablePath: getEnv("WEIGHT_TABLE_PATH", ""),
		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),

		EmbeddingServiceURL: getEnv("EMBEDDING_SERVICE_URL", ""),
		EmbeddingModel:      getEnv("EMBEDDING_MODEL", "bge-small-zh-v1.5"),
		EmbeddingTimeout:    env.duration("EMBEDDING_TIMEOUT", 30*time.Second),
		EmbeddingDim:        env.int("EMBEDDING_DIM", 0),

		VectorSearchEnabled: env.bool("VECTOR_SEARCH_ENABLED", true),
		VectorBackend:       strings.ToLower(getEnv("VECTOR_BACKEND", VectorBackendScan)),
		VectorMinSimilarity: env.float32("VECTOR_MIN_SIMILARITY", 0.45),
		VectorMaxScan:       env.int("VECTOR_MAX_SCAN", 5000),
		QdrantURL:           getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:    getEnv("QDRANT_COLLECTION", "law_articles"),
		ChromemPersistPath:  getEnv("CHROMEM_PERSIST_PATH", ""),

		SearchEngineURL:       getEnv("SEARCH_ENGINE_URL", getEnv("OPENSEARCH_URL", getEnv("ELASTICSEARCH_URL", ""))),
		SearchEngineIndex:     getEnv("SEARCH_ENGINE_INDEX", "law_articles"),
		SearchEngineUser:      getEnv("SEARCH_ENGINE_USER", ""),
		SearchEnginePassword:  getEnv("SEARCH_ENGINE_PASSWORD", ""),
		SearchEngineVerifySSL: env.bool("SEARCH_ENGINE_VERIFY_SSL", true),
		SearchEngineTimeout:   env.duration("SEARCH_ENGINE_TIMEOUT", 10*time.Second),
		SearchEngineAnalyzer:  getEnv("SEARCH_ENGINE_ANALYZER", "ik_smart"),

		HealthProbeTTL:  env.duration("HEALTH_PROBE_TTL", 15*time.Second),
		WorkerPoolSize:  env.int("WORKER_POOL_SIZE", max(runtime.NumCPU(), 2)),
		MaxContentChars: env.int("MAX_CONTENT_CHARS", 1500),
		RequestTimeout:  env.duration("REQUEST_TIMEOUT", 20*time.Second),
	}
	if env.err != nil {
		return nil, env.err
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.DBPath != ":memory:" {
		dataDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	switch c.VectorBackend {
	case VectorBackendScan, VectorBackendQdrant, VectorBackendChromem:
	default:
		return fmt.Errorf("VECTOR_BACKEND must be scan, qdrant or chromem, got %q", c.VectorBackend)
	}
	if c.VectorMinSimilarity < 0 || c.VectorMinSimilarity > 1 {
		return fmt.Errorf("VECTOR_MIN_SIMILARITY must be within [0, 1], got %v", c.VectorMinSimilarity)
	}
	if c.VectorMaxScan <= 0 {
		return fmt.Errorf("VECTOR_MAX_SCAN must be greater than 0")
	}
	if c.EmbeddingDim < 0 {
		return fmt.Errorf("EMBEDDING_DIM must not be negative")
	}
	if c.VectorBackend == VectorBackendQdrant && c.EmbeddingDim == 0 {
		return fmt.Errorf("EMBEDDING_DIM is required for the qdrant backend")
	}
	if c.WorkerPoolSize < 1 {
		return fmt.Errorf("WORKER_POOL_SIZE must be greater than 0")
	}
	if c.MaxContentChars < 0 {
		return fmt.Errorf("MAX_CONTENT_CHARS must not be negative")
	}
	return nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envReader parses typed variables, keeping the first parse error.
type envReader struct {
	err error
}

func (r *envReader) fail(key string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%s is invalid: %w", key, err)
	}
}

func (r *envReader) int(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return v
}

func (r *envReader) float32(key string, def float32) float32 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return float32(v)
}

func (r *envReader) bool(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		r.fail(key, err)
		return def
	}
	return v
}

func (r *envReader) duration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		r.fail(key, err)
		return def
	}
	if v < 0 {
		r.fail(key, fmt.Errorf("negative duration %s", raw))
		return def
	}
	return v
}
