package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/execdesk-labs/voiceassist/voicecore/llm"
	"github.com/execdesk-labs/voiceassist/voicecore/logging"
	"github.com/execdesk-labs/voiceassist/voicecore/state"
)

func backend(kind llm.BackendKind, model string, p llm.Provider) llm.Backend {
	return llm.Backend{Kind: kind, Model: model, Provider: p}
}

func TestReasonerPrimarySuccess(t *testing.T) {
	primary := llm.NewScripted("This is high priority because the CEO asked. You should draft a reply today.")
	secondary := llm.NewScripted("unused")

	r := NewReasoner([]llm.Backend{
		backend(llm.KindOpenAI, "gpt-4o", primary),
		backend(llm.KindOllama, "llama3", secondary),
	}, logging.NewNop(), "Donna")

	st := state.New("what about the CEO email", state.ModeText, "", "")
	st.Intent = state.IntentTriageInbox
	st.RecordStageStart(StageReasoningEngine)
	require.NoError(t, r.Run(context.Background(), st))

	assert.Equal(t, "openai:gpt-4o", st.ModelUsed)
	assert.Equal(t, "draft_reply", st.RecommendedAction)
	assert.Equal(t, "high", st.PriorityAssessment["level"])
	assert.NotEmpty(t, st.Reasoning)
	assert.Empty(t, st.Error)
	assert.Equal(t, 0, secondary.Calls, "fallback not consulted on success")
}

func TestReasonerFallbackOnCapacity(t *testing.T) {
	primary := llm.NewScripted()
	primary.Err = errors.New("429 rate limit exceeded")
	secondary := llm.NewScripted("Low priority, just review when you have time.")

	r := NewReasoner([]llm.Backend{
		backend(llm.KindOpenAI, "gpt-4o", primary),
		backend(llm.KindOllama, "llama3", secondary),
	}, logging.NewNop(), "Donna")

	st := state.New("triage", state.ModeText, "", "")
	st.RecordStageStart(StageReasoningEngine)
	require.NoError(t, r.Run(context.Background(), st))

	assert.Equal(t, 1, primary.Calls)
	assert.Equal(t, 1, secondary.Calls)
	assert.Equal(t, "ollama:llama3", st.ModelUsed)
	assert.Equal(t, "low", st.PriorityAssessment["level"])
	assert.Empty(t, st.Error)
}

func TestReasonerCascadeExhaustion(t *testing.T) {
	const n = 3
	providers := make([]*llm.Scripted, n)
	backends := make([]llm.Backend, n)
	for i := range providers {
		providers[i] = llm.NewScripted()
		providers[i].Err = errors.New("model overloaded")
		backends[i] = backend(llm.KindOllama, "m", providers[i])
	}

	r := NewReasoner(backends, logging.NewNop(), "Donna")

	st := state.New("triage", state.ModeText, "", "")
	st.RecordStageStart(StageReasoningEngine)
	require.NoError(t, r.Run(context.Background(), st), "exhaustion degrades, never aborts")

	for i, p := range providers {
		assert.Equalf(t, 1, p.Calls, "backend %d tried exactly once", i)
	}
	assert.Equal(t, "manual_review", st.RecommendedAction)
	assert.Contains(t, st.Reasoning, "All 3 reasoning backends failed")
	assert.Contains(t, st.Error, "Reasoning error:")
	assert.Equal(t, "medium", st.PriorityAssessment["level"], "falls back to default priority")
	assert.Empty(t, st.ModelUsed)
	assert.Equal(t, n, st.TotalLLMCalls(), "one counted call per attempted backend")
}

func TestReasonerNoBackends(t *testing.T) {
	r := NewReasoner(nil, logging.NewNop(), "Donna")

	st := state.New("triage", state.ModeText, "", "")
	st.RecordStageStart(StageReasoningEngine)
	require.NoError(t, r.Run(context.Background(), st))

	assert.Equal(t, "manual_review", st.RecommendedAction)
	assert.Empty(t, st.Error, "no attempts means no error to report")
}
