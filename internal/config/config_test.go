package config

import (
	"os"
	"testing"
)

func TestConfigLoad_Defaults(t *testing.T) {
	_ = os.Unsetenv("LEDGERMIND_VECTOR_STORE")
	_ = os.Unsetenv("LEDGERMIND_EMBED_MODEL")
	_ = os.Unsetenv("LEDGERMIND_DB_DRIVER")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.VectorStore != "chromem" || cfg.DBDriver != "sqlite" || cfg.EmbedModel != "mxbai-embed-large" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.ExportDir == "" {
		t.Fatalf("export dir not derived from store dir")
	}
}

func TestConfigLoad_EnvOverride(t *testing.T) {
	_ = os.Setenv("LEDGERMIND_EMBED_MODEL", "test-model")
	defer func() { _ = os.Unsetenv("LEDGERMIND_EMBED_MODEL") }()

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.EmbedModel != "test-model" {
		t.Fatalf("embed model env override failed, got %s", cfg.EmbedModel)
	}
}

func TestResolveDefaults_RejectsUnknownVectorStore(t *testing.T) {
	cfg := NewForTesting()
	cfg.VectorStore = "qdrant"
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatalf("expected error for unknown vector store")
	}
}

func TestResolveDefaults_EngineRequiresURL(t *testing.T) {
	cfg := NewForTesting()
	cfg.MemoryBackend = "engine"
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatalf("expected error when ENGINE_URL missing")
	}
	cfg.EngineURL = "http://localhost:9000"
	if err := cfg.ResolveDefaults(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
