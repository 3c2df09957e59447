package config

import (
	"fmt"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Config holds the configuration for the reflective memory service.
// Environment variables are parsed from the LEDGERMIND_ prefix,
// e.g. LEDGERMIND_HTTP_PORT, LEDGERMIND_STORE_DIR.
type Config struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"ledgermind"`

	// HTTP Configuration
	HTTPPort int `envconfig:"HTTP_PORT" default:"8080"`

	// Persisted layout: one store directory per configuration name. The
	// primary persisted index lives inside it; legacy per-workspace JSONL
	// exports live under ExportDir.
	StoreDir  string `envconfig:"STORE_DIR" default:"./data/memory"`
	ExportDir string `envconfig:"EXPORT_DIR" default:""`
	AuditDir  string `envconfig:"AUDIT_DIR" default:"./data/audit"`

	// Vector index backend: chromem (embedded, default) or weaviate.
	VectorStore string `envconfig:"VECTOR_STORE" default:"chromem"`
	WeaviateURL string `envconfig:"WEAVIATE_URL" default:"localhost:8081"`

	// Memory service backend: direct (record store) or engine (managed proxy).
	MemoryBackend string `envconfig:"MEMORY_BACKEND" default:"direct"`
	EngineURL     string `envconfig:"ENGINE_URL" default:""`
	EngineAPIKey  string `envconfig:"ENGINE_API_KEY" default:""`

	// Signal store driver: sqlite (default) or postgres.
	DBDriver    string `envconfig:"DB_DRIVER" default:"sqlite"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"./data/signals.db"`
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`

	// Embedding configuration
	EmbedProvider   string `envconfig:"EMBED_PROVIDER" default:"ollama"`
	EmbedModel      string `envconfig:"EMBED_MODEL" default:"mxbai-embed-large"`
	EmbedDimensions int    `envconfig:"EMBED_DIMENSIONS" default:"1024"`
	EmbedCacheMB    int64  `envconfig:"EMBED_CACHE_MB" default:"64"`

	// Decision oracle configuration
	AnthropicAPIKey      string  `envconfig:"ANTHROPIC_API_KEY" default:""`
	OracleModel          string  `envconfig:"ORACLE_MODEL" default:"claude-sonnet-4-20250514"`
	OracleTemperature    float64 `envconfig:"ORACLE_TEMPERATURE" default:"0.7"`
	OracleTimeoutSeconds int     `envconfig:"ORACLE_TIMEOUT_SECONDS" default:"60"`

	// Reflection configuration
	PortfolioManagerID    string `envconfig:"PORTFOLIO_MANAGER_ID" default:"portfolio_manager"`
	ReflectionParallelism int    `envconfig:"REFLECTION_PARALLELISM" default:"4"`
}

// ResolveDefaults validates driver selections and derives paths left empty.
func (c *Config) ResolveDefaults() error {
	switch c.VectorStore {
	case "chromem", "weaviate":
	default:
		return fmt.Errorf("unsupported VECTOR_STORE: %s", c.VectorStore)
	}

	switch c.MemoryBackend {
	case "direct":
	case "engine":
		if c.EngineURL == "" {
			return fmt.Errorf("MEMORY_BACKEND=engine requires ENGINE_URL")
		}
	default:
		return fmt.Errorf("unsupported MEMORY_BACKEND: %s", c.MemoryBackend)
	}

	switch c.DBDriver {
	case "sqlite":
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("DB_DRIVER=postgres requires POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}

	switch c.EmbedProvider {
	case "ollama", "mock":
	default:
		return fmt.Errorf("unsupported EMBED_PROVIDER: %s", c.EmbedProvider)
	}

	if c.ExportDir == "" {
		c.ExportDir = filepath.Join(c.StoreDir, "exports")
	}
	return nil
}

// New creates a new Config by parsing environment variables.
func New() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("LEDGERMIND", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("service", cfg.ServiceName).
		Int("port", cfg.HTTPPort).
		Str("store_dir", cfg.StoreDir).
		Str("vector_store", cfg.VectorStore).
		Str("memory_backend", cfg.MemoryBackend).
		Str("db_driver", cfg.DBDriver).
		Str("embed_provider", cfg.EmbedProvider).
		Str("embed_model", cfg.EmbedModel).
		Str("oracle_model", cfg.OracleModel).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a config suitable for unit tests: embedded vector
// store, mock embedder, temp-friendly relative paths.
func NewForTesting() *Config {
	cfg := &Config{
		ServiceName:           "ledgermind-test",
		HTTPPort:              8080,
		StoreDir:              "",
		AuditDir:              "",
		VectorStore:           "chromem",
		MemoryBackend:         "direct",
		DBDriver:              "sqlite",
		SQLitePath:            ":memory:",
		EmbedProvider:         "mock",
		EmbedModel:            "mock",
		EmbedDimensions:       384,
		EmbedCacheMB:          8,
		OracleModel:           "test-model",
		OracleTemperature:     0,
		OracleTimeoutSeconds:  5,
		PortfolioManagerID:    "portfolio_manager",
		ReflectionParallelism: 2,
	}
	return cfg
}

// GetHTTPAddr returns the HTTP server address.
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
