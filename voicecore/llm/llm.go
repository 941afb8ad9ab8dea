// Package llm abstracts the language-model backends behind a small
// provider interface so the reasoning cascade can fall through an ordered
// list of backends without caring which vendor sits behind each one.
package llm

import (
	"context"
	"fmt"
	"strings"
)

// =============================================================================
// PROVIDER
// =============================================================================

// Provider is the interface for LLM generation.
type Provider interface {
	// Invoke sends a prompt and returns the raw completion text.
	Invoke(ctx context.Context, prompt string) (string, error)
}

// =============================================================================
// BACKEND KINDS
// =============================================================================

// BackendKind identifies a supported LLM vendor.
type BackendKind string

const (
	KindOpenAI    BackendKind = "openai"
	KindAnthropic BackendKind = "anthropic"
	KindGemini    BackendKind = "gemini"
	KindDeepSeek  BackendKind = "deepseek"
	KindOllama    BackendKind = "ollama"
	KindMock      BackendKind = "mock"
)

// BackendKindFromString converts a string to a BackendKind.
func BackendKindFromString(value string) (BackendKind, error) {
	switch BackendKind(strings.ToLower(value)) {
	case KindOpenAI, KindAnthropic, KindGemini, KindDeepSeek, KindOllama, KindMock:
		return BackendKind(strings.ToLower(value)), nil
	default:
		return "", fmt.Errorf("invalid backend kind: %s. Must be one of: openai, anthropic, gemini, deepseek, ollama, mock", value)
	}
}

// Backend pairs a provider with its identity for logging and metrics.
type Backend struct {
	Kind     BackendKind
	Model    string
	Provider Provider
}

// Name returns the "kind:model" identifier used in config and logs.
func (b Backend) Name() string {
	return string(b.Kind) + ":" + b.Model
}

// ParseBackendSpec splits a "kind:model" config entry.
func ParseBackendSpec(spec string) (BackendKind, string, error) {
	kindStr, model, found := strings.Cut(spec, ":")
	if !found || model == "" {
		return "", "", fmt.Errorf("invalid backend spec %q: want kind:model", spec)
	}
	kind, err := BackendKindFromString(kindStr)
	if err != nil {
		return "", "", err
	}
	return kind, model, nil
}

// =============================================================================
// CAPACITY ERRORS
// =============================================================================

var capacityMarkers = []string{
	"context length",
	"context_length",
	"maximum context",
	"token limit",
	"tokens exceed",
	"rate limit",
	"rate_limit",
	"quota",
	"overloaded",
	"capacity",
	"429",
}

// IsCapacityError reports whether an error looks like a model capacity or
// throttling failure rather than a hard fault. The cascade treats both the
// same way but the distinction matters for diagnostics.
func IsCapacityError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range capacityMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
