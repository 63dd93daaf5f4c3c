// Package config loads the sidekick configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EmbeddingConfig selects the embedding provider used by retrieval.
type EmbeddingConfig struct {
	// Provider: "ollama", "openai", or "" for the deterministic hash fallback.
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Dims     int    `yaml:"dims"`
}

// GenerationConfig points at the OpenAI-compatible text generation backend.
type GenerationConfig struct {
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	TimeoutMS int    `yaml:"timeout_ms"`
}

// Config is the full sidekick configuration.
type Config struct {
	DBPath        string           `yaml:"db_path"`
	DocsRoot      string           `yaml:"docs_root"`
	LogLevel      string           `yaml:"log_level"`
	AuditCapacity int              `yaml:"audit_capacity"`
	Embedding     EmbeddingConfig  `yaml:"embedding"`
	Generation    GenerationConfig `yaml:"generation"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DBPath:        filepath.Join(home, ".sidekick", "sidekick.db"),
		DocsRoot:      "docs",
		LogLevel:      "info",
		AuditCapacity: 500,
		Generation: GenerationConfig{
			Model:     "gpt-4o-mini",
			APIKeyEnv: "OPENAI_API_KEY",
			TimeoutMS: 30000,
		},
	}
}

// Load reads the config file at path. A missing file is not an error; the
// defaults apply. Environment variables SIDEKICK_DB, SIDEKICK_DOCS_ROOT and
// SIDEKICK_LOG_LEVEL override the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if v := os.Getenv("SIDEKICK_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("SIDEKICK_DOCS_ROOT"); v != "" {
		cfg.DocsRoot = v
	}
	if v := os.Getenv("SIDEKICK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if cfg.AuditCapacity <= 0 {
		cfg.AuditCapacity = 500
	}
	return cfg, nil
}

// APIKey resolves the generation API key from the configured env var.
func (g GenerationConfig) APIKey() string {
	env := g.APIKeyEnv
	if env == "" {
		env = "OPENAI_API_KEY"
	}
	return os.Getenv(env)
}
