// Package factory builds the service's dependency graph from configuration.
// Every constructor fails fast; there are no lazy fallbacks at startup.
package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ledgermind/ledgermind/internal/audit"
	"github.com/ledgermind/ledgermind/internal/config"
	"github.com/ledgermind/ledgermind/internal/embeddings"
	embmock "github.com/ledgermind/ledgermind/internal/embeddings/mock"
	"github.com/ledgermind/ledgermind/internal/embeddings/ollama"
	"github.com/ledgermind/ledgermind/internal/memsvc"
	"github.com/ledgermind/ledgermind/internal/oracle"
	"github.com/ledgermind/ledgermind/internal/recordstore"
	"github.com/ledgermind/ledgermind/internal/reflection"
	"github.com/ledgermind/ledgermind/internal/registry"
	"github.com/ledgermind/ledgermind/internal/searchindex"
	"github.com/ledgermind/ledgermind/internal/signalstore"
	"github.com/ledgermind/ledgermind/internal/signalstore/postgres"
	"github.com/ledgermind/ledgermind/internal/signalstore/sqlite"
	"github.com/ledgermind/ledgermind/internal/tools"
)

// NewEmbeddingProvider builds the configured embedder wrapped in the
// embedding cache.
func NewEmbeddingProvider(cfg *config.Config) (embeddings.Provider, error) {
	var inner embeddings.Provider
	switch cfg.EmbedProvider {
	case "mock":
		inner = embmock.New()
	case "ollama":
		inner = ollama.New(cfg.EmbedModel, cfg.EmbedDimensions)
	default:
		return nil, fmt.Errorf("unsupported embed provider: %s", cfg.EmbedProvider)
	}
	if cfg.EmbedCacheMB <= 0 {
		return inner, nil
	}
	return embeddings.NewCached(inner, cfg.EmbedCacheMB*1024*1024)
}

// NewRegistry builds the workspace registry over the configured vector
// index. The index itself opens lazily on first workspace access.
func NewRegistry(ctx context.Context, cfg *config.Config, embed embeddings.Provider, log zerolog.Logger) *registry.Registry {
	open := func() (searchindex.Index, error) {
		switch cfg.VectorStore {
		case "weaviate":
			return searchindex.NewWeaviateIndex(ctx, cfg.WeaviateURL, embed)
		default:
			return searchindex.NewChromemIndex(cfg.StoreDir, embed)
		}
	}
	return registry.New(open, cfg.ExportDir, log)
}

// NewMemoryService builds the configured façade backend and wraps it with
// audit recording when trail is non-nil.
func NewMemoryService(cfg *config.Config, reg *registry.Registry, trail *audit.Log, log zerolog.Logger) memsvc.Service {
	var svc memsvc.Service
	switch cfg.MemoryBackend {
	case "engine":
		svc = memsvc.NewEngineProxy(cfg.EngineURL, cfg.EngineAPIKey, log)
	default:
		svc = memsvc.NewDirect(recordstore.New(reg, cfg.ExportDir, log), log)
	}
	if trail != nil {
		svc = memsvc.NewAudited(svc, trail)
	}
	return svc
}

// NewSignalStore opens the configured signal store driver.
func NewSignalStore(ctx context.Context, cfg *config.Config) (signalstore.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		return postgres.New(ctx, cfg.PostgresDSN)
	default:
		return sqlite.New(cfg.SQLitePath)
	}
}

// NewOracle builds the Anthropic-backed decision oracle.
func NewOracle(cfg *config.Config) (oracle.Oracle, error) {
	if cfg.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for the decision oracle")
	}
	return oracle.NewAnthropic(cfg.AnthropicAPIKey, cfg.OracleModel, cfg.OracleTemperature), nil
}

// NewReflectionEngine wires the engine with its memory tool set.
func NewReflectionEngine(cfg *config.Config, svc memsvc.Service, signals signalstore.Store, orc oracle.Oracle, trail *audit.Log, log zerolog.Logger) *reflection.Engine {
	reg := tools.NewRegistry()
	tools.RegisterMemoryTools(reg, svc)

	var sink memsvc.Recorder
	if trail != nil {
		sink = trail
	}
	return reflection.NewEngine(svc, signals, orc, reg, sink, log, reflection.Options{
		PortfolioManagerID: cfg.PortfolioManagerID,
		OracleTimeout:      time.Duration(cfg.OracleTimeoutSeconds) * time.Second,
		Parallelism:        cfg.ReflectionParallelism,
	})
}
