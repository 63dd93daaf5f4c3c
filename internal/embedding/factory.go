package embedding

import (
	"os"

	"sidekick/internal/config"
)

// New builds an embedder from config. An empty provider selects the
// deterministic hash fallback.
func New(cfg config.EmbeddingConfig) Embedder {
	switch cfg.Provider {
	case "ollama":
		model := cfg.Model
		if model == "" {
			model = "nomic-embed-text"
		}
		return NewOllamaEmbedder(model)
	case "openai":
		return NewOpenAIEmbedder(cfg.BaseURL, os.Getenv("OPENAI_API_KEY"), cfg.Model, cfg.Dims)
	default:
		return NewHashEmbedder(cfg.Dims)
	}
}

// NewFromEnv creates an embedder from environment variables.
// SIDEKICK_EMBED_PROVIDER: "ollama" | "openai" | "" (hash fallback)
// SIDEKICK_EMBED_MODEL: model name
// SIDEKICK_EMBED_URL: base URL override
// OPENAI_API_KEY: for the openai provider
func NewFromEnv() Embedder {
	return New(config.EmbeddingConfig{
		Provider: os.Getenv("SIDEKICK_EMBED_PROVIDER"),
		Model:    os.Getenv("SIDEKICK_EMBED_MODEL"),
		BaseURL:  os.Getenv("SIDEKICK_EMBED_URL"),
	})
}
