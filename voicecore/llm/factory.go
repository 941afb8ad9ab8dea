package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// =============================================================================
// FACTORY
// =============================================================================

// FactoryOptions carries vendor credentials and endpoint overrides.
type FactoryOptions struct {
	OpenAIKey    string
	AnthropicKey string
	GeminiKey    string
	DeepSeekKey  string
	OllamaHost   string // default http://localhost:11434
	Timeout      time.Duration
	// Mocks supplies providers for the mock kind, keyed by model name.
	Mocks map[string]Provider
}

// Factory constructs backends from "kind:model" config specs.
type Factory struct {
	opts   FactoryOptions
	client *http.Client
}

// NewFactory creates a Factory.
func NewFactory(opts FactoryOptions) *Factory {
	if opts.OllamaHost == "" {
		opts.OllamaHost = "http://localhost:11434"
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &Factory{
		opts:   opts,
		client: &http.Client{Timeout: timeout},
	}
}

// Build constructs a Backend for one spec.
func (f *Factory) Build(spec string) (Backend, error) {
	kind, model, err := ParseBackendSpec(spec)
	if err != nil {
		return Backend{}, err
	}

	var provider Provider
	switch kind {
	case KindOpenAI:
		provider = &chatProvider{
			client: f.client, model: model,
			url:    "https://api.openai.com/v1/chat/completions",
			apiKey: f.opts.OpenAIKey,
		}
	case KindDeepSeek:
		provider = &chatProvider{
			client: f.client, model: model,
			url:    "https://api.deepseek.com/v1/chat/completions",
			apiKey: f.opts.DeepSeekKey,
		}
	case KindOllama:
		// Ollama exposes an OpenAI-compatible endpoint; no key required.
		provider = &chatProvider{
			client: f.client, model: model,
			url: f.opts.OllamaHost + "/v1/chat/completions",
		}
	case KindAnthropic:
		provider = &anthropicProvider{client: f.client, model: model, apiKey: f.opts.AnthropicKey}
	case KindGemini:
		provider = &geminiProvider{client: f.client, model: model, apiKey: f.opts.GeminiKey}
	case KindMock:
		mock, ok := f.opts.Mocks[model]
		if !ok {
			return Backend{}, fmt.Errorf("no mock provider registered for model %q", model)
		}
		provider = mock
	}

	return Backend{Kind: kind, Model: model, Provider: provider}, nil
}

// BuildAll constructs every backend in order, failing on the first bad spec.
func (f *Factory) BuildAll(specs []string) ([]Backend, error) {
	backends := make([]Backend, 0, len(specs))
	for _, spec := range specs {
		b, err := f.Build(spec)
		if err != nil {
			return nil, err
		}
		backends = append(backends, b)
	}
	return backends, nil
}

// =============================================================================
// OPENAI-COMPATIBLE CHAT
// =============================================================================

type chatProvider struct {
	client *http.Client
	url    string
	apiKey string
	model  string
}

func (p *chatProvider) Invoke(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"model": p.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	raw, err := doRequest(p.client, req)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// =============================================================================
// ANTHROPIC
// =============================================================================

type anthropicProvider struct {
	client *http.Client
	apiKey string
	model  string
}

func (p *anthropicProvider) Invoke(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"model":      p.model,
		"max_tokens": 2048,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://api.anthropic.com/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	raw, err := doRequest(p.client, req)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("completion returned no content")
	}
	return parsed.Content[0].Text, nil
}

// =============================================================================
// GEMINI
// =============================================================================

type geminiProvider struct {
	client *http.Client
	apiKey string
	model  string
}

func (p *geminiProvider) Invoke(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": prompt}}},
		},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent", p.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	raw, err := doRequest(p.client, req)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("completion returned no candidates")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// =============================================================================
// SHARED HTTP
// =============================================================================

func doRequest(client *http.Client, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llm api status %d: %s", resp.StatusCode, truncate(string(raw), 300))
	}
	return raw, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
