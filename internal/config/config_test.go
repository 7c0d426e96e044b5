package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RESOLVER_CONFIG_FILE", "")
	t.Setenv("GRAPH_BACKEND", "")
	t.Setenv("NATS_SUBJECT", "")
	t.Setenv("EMBEDDING_DIM", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GraphBackend != "neo4j" {
		t.Fatalf("expected default backend neo4j, got %q", cfg.GraphBackend)
	}
	if cfg.NATSSubject != "nodes.upserted" {
		t.Fatalf("expected default subject nodes.upserted, got %q", cfg.NATSSubject)
	}
	if cfg.EmbeddingDim != 768 {
		t.Fatalf("expected default embedding dim 768, got %d", cfg.EmbeddingDim)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("RESOLVER_CONFIG_FILE", "")
	t.Setenv("GRAPH_BACKEND", "postgres")
	t.Setenv("API_RATE_LIMIT_RPS", "12.5")
	t.Setenv("API_RATE_LIMIT_BURST", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GraphBackend != "postgres" {
		t.Fatalf("expected backend override, got %q", cfg.GraphBackend)
	}
	if cfg.APIRateLimitRPS != 12.5 || cfg.APIRateLimitBurst != 25 {
		t.Fatalf("expected rate limit overrides, got %v/%d", cfg.APIRateLimitRPS, cfg.APIRateLimitBurst)
	}
}

func TestLoadConfigFileWithEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resolver.yaml")
	body := []byte("graph_backend: postgres\nembedding_dim: 384\napi_port: \"9999\"\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("RESOLVER_CONFIG_FILE", path)
	t.Setenv("API_PORT", "7070")
	t.Setenv("GRAPH_BACKEND", "")
	t.Setenv("EMBEDDING_DIM", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.GraphBackend != "postgres" {
		t.Fatalf("expected backend from file, got %q", cfg.GraphBackend)
	}
	if cfg.EmbeddingDim != 384 {
		t.Fatalf("expected embedding dim from file, got %d", cfg.EmbeddingDim)
	}
	if cfg.APIPort != "7070" {
		t.Fatalf("env should win over file, got %q", cfg.APIPort)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("RESOLVER_CONFIG_FILE", "")
	t.Setenv("GRAPH_BACKEND", "dgraph")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unsupported backend")
	}
}
