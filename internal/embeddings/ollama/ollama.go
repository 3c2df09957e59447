// Package ollama implements the embeddings provider against a local Ollama
// instance.
package ollama

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Provider calls the Ollama embeddings HTTP API.
type Provider struct {
	client     *resty.Client
	model      string
	dimensions int
}

// New creates a provider for the given model. dimensions must match the
// model's output size (e.g. 1024 for mxbai-embed-large). The base URL is
// taken from OLLAMA_URL, defaulting to localhost.
func New(model string, dimensions int) *Provider {
	base := os.Getenv("OLLAMA_URL")
	if base == "" {
		base = "http://localhost:11434"
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	client := resty.New().
		SetBaseURL(base).
		SetTimeout(10 * time.Second)
	return &Provider{client: client, model: model, dimensions: dimensions}
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
	Error     string    `json:"error"`
}

// Embed returns the embedding vector for text.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return make([]float32, p.dimensions), nil
	}

	var out embedResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(embedRequest{Model: p.model, Prompt: text}).
		SetResult(&out).
		Post("/api/embeddings")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ollama embeddings status %d", resp.StatusCode())
	}
	if out.Error != "" {
		return nil, fmt.Errorf("ollama embeddings error: %s", out.Error)
	}
	if len(out.Embedding) != p.dimensions {
		return nil, fmt.Errorf("ollama returned %d dimensions, want %d", len(out.Embedding), p.dimensions)
	}

	vec := make([]float32, len(out.Embedding))
	for i, v := range out.Embedding {
		vec[i] = float32(v)
	}
	return vec, nil
}

// Dimensions returns the configured embedding size.
func (p *Provider) Dimensions() int { return p.dimensions }

// HealthPing checks /api/tags for the configured model's presence.
func (p *Provider) HealthPing(ctx context.Context) error {
	var data struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	resp, err := p.client.R().SetContext(ctx).SetResult(&data).Get("/api/tags")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("ollama status %d", resp.StatusCode())
	}
	want := baseModelName(p.model)
	for _, m := range data.Models {
		if baseModelName(m.Name) == want {
			return nil
		}
	}
	return fmt.Errorf("model %s not found", want)
}

// baseModelName strips the tag suffix ("mxbai-embed-large:latest" -> "mxbai-embed-large").
func baseModelName(name string) string {
	return strings.Split(name, ":")[0]
}
