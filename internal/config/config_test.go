package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected info log level, got %q", cfg.LogLevel)
	}
	if cfg.AuditCapacity != 500 {
		t.Errorf("expected audit capacity 500, got %d", cfg.AuditCapacity)
	}
	if cfg.Generation.Model != "gpt-4o-mini" {
		t.Errorf("unexpected generation model %q", cfg.Generation.Model)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sidekick.yaml")
	yaml := `
db_path: /tmp/custom.db
log_level: debug
audit_capacity: 50
embedding:
  provider: ollama
  model: all-minilm
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/tmp/custom.db" {
		t.Errorf("unexpected db path %q", cfg.DBPath)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("unexpected log level %q", cfg.LogLevel)
	}
	if cfg.AuditCapacity != 50 {
		t.Errorf("unexpected audit capacity %d", cfg.AuditCapacity)
	}
	if cfg.Embedding.Provider != "ollama" || cfg.Embedding.Model != "all-minilm" {
		t.Errorf("unexpected embedding config %+v", cfg.Embedding)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("SIDEKICK_DB", "/tmp/env.db")
	t.Setenv("SIDEKICK_LOG_LEVEL", "warn")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/tmp/env.db" {
		t.Errorf("env override lost: %q", cfg.DBPath)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("env override lost: %q", cfg.LogLevel)
	}
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("db_path: [not: valid"), 0o644)
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestGenerationAPIKey(t *testing.T) {
	t.Setenv("MY_KEY_VAR", "secret")
	g := GenerationConfig{APIKeyEnv: "MY_KEY_VAR"}
	if g.APIKey() != "secret" {
		t.Errorf("expected key from custom env var, got %q", g.APIKey())
	}
}
