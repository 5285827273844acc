package embedding

import (
	"fmt"

	"Sarah_AI/internal/config"
)

// NewEmbedder is a factory returning the embedding client selected by the
// configuration, wrapped in the in-process cache when one is configured.
// The embedding function is deterministic, so caching by text is safe.
func NewEmbedder(cfg *config.EmbeddingConfig) (Embedding, error) {
	var (
		embedder Embedding
		err      error
	)

	switch cfg.Provider {
	case "ollama":
		embedder, err = NewOllamaModel(cfg.Ollama.Model, cfg.Ollama.BaseURL)
	case "openai":
		embedder, err = NewOpenAIModel(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	case "gemini":
		embedder, err = NewGoogleModel(cfg.Gemini.APIKey, cfg.Gemini.Model)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheSize > 0 {
		return NewCachedEmbedder(embedder, cfg.CacheSize)
	}
	return embedder, nil
}
