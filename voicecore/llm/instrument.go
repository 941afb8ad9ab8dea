package llm

import (
	"context"
	"time"

	"github.com/execdesk-labs/voiceassist/voicecore/observability"
)

type instrumented struct {
	inner Provider
	kind  BackendKind
	model string
}

// Instrument wraps a backend's provider so every call is recorded in the
// LLM metrics with its backend, model, and outcome.
func Instrument(b Backend) Backend {
	b.Provider = &instrumented{inner: b.Provider, kind: b.Kind, model: b.Model}
	return b
}

func (i *instrumented) Invoke(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	out, err := i.inner.Invoke(ctx, prompt)
	durationMS := int(time.Since(start).Milliseconds())

	status := "success"
	switch {
	case IsCapacityError(err):
		status = "capacity"
	case err != nil:
		status = "error"
	}
	observability.RecordLLMCall(string(i.kind), i.model, status, durationMS)
	return out, err
}
