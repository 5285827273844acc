package llm

import (
	"context"
	"fmt"

	"Sarah_AI/internal/config"
)

// LLM is the generic text-completion capability the memory pipeline relies
// on. Output is free text and must be treated as unreliable by callers.
type LLM interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// NewClient is a factory returning the completion client selected by the
// configuration.
func NewClient(cfg *config.LLMConfig) (LLM, error) {
	switch cfg.Provider {
	case "ollama":
		return NewOllama(cfg.Ollama.Model, cfg.Ollama.BaseURL)
	case "openai":
		return NewOpenAI(cfg.OpenAI.Model, cfg.OpenAI.APIKey)
	case "gemini":
		return NewGemini(context.Background(), cfg.Gemini.Model, cfg.Gemini.APIKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
