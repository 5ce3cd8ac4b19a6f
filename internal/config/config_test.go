package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	os.Unsetenv("LEADS_SERVER_PORT")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Load() port = %v, want 8080", cfg.Server.Port)
	}
	if cfg.Storage.Type != "sqlite" {
		t.Errorf("Load() storage type = %q, want sqlite", cfg.Storage.Type)
	}
	if cfg.Idempotency.TTL != time.Hour {
		t.Errorf("Load() idempotency ttl = %v, want 1h", cfg.Idempotency.TTL)
	}
	if cfg.Idempotency.FailOpen {
		t.Error("Load() fail_open = true, want fail-closed default")
	}
	if cfg.Similarity.TopK != 3 {
		t.Errorf("Load() similarity top_k = %v, want 3", cfg.Similarity.TopK)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	os.Setenv("LEADS_SERVER_PORT", "9000")
	defer os.Unsetenv("LEADS_SERVER_PORT")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Load() port = %v, want 9000", cfg.Server.Port)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 7070
storage:
  type: memory
idempotency:
  ttl: 30m
  fail_open: true
territory:
  path: ./testdata/routing.yaml
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Load() port = %v, want 7070", cfg.Server.Port)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("Load() storage type = %q, want memory", cfg.Storage.Type)
	}
	if cfg.Idempotency.TTL != 30*time.Minute {
		t.Errorf("Load() ttl = %v, want 30m", cfg.Idempotency.TTL)
	}
	if !cfg.Idempotency.FailOpen {
		t.Error("Load() fail_open = false, want true")
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Load() port = %v, want 8080", cfg.Server.Port)
	}
}
