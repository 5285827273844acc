package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	olla "github.com/ollama/ollama/api"
)

// Ollama is an LLM client backed by a local Ollama server.
type Ollama struct {
	client *olla.Client
	model  string
}

// NewOllama creates a new Ollama client. An empty baseURL defaults to
// "http://localhost:11434".
func NewOllama(model, baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	hc := &http.Client{
		Timeout: 120 * time.Second,
	}

	return &Ollama{client: olla.NewClient(parsedURL, hc), model: model}, nil
}

// Complete generates a non-streamed completion for the prompt.
func (o *Ollama) Complete(ctx context.Context, prompt string) (string, error) {
	stream := false

	var sb strings.Builder
	err := o.client.Generate(ctx, &olla.GenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: &stream,
	}, func(resp olla.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate completion from ollama: %w", err)
	}

	return sb.String(), nil
}
