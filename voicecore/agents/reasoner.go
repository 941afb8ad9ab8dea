package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/execdesk-labs/voiceassist/voicecore/llm"
	"github.com/execdesk-labs/voiceassist/voicecore/logging"
	"github.com/execdesk-labs/voiceassist/voicecore/state"
)

// Reasoner analyzes intent plus retrieved context and produces a priority
// assessment and a recommended action.
//
// Core algorithm is a cascading backend fallback: try each configured
// backend in order and stop on the first success. Capacity failures
// (context length, rate limits, quota) and hard faults both advance the
// cascade; the distinction only matters for diagnostics. When every
// backend fails the stage degrades to a manual-review recommendation so
// the user still sees some triaged output.
type Reasoner struct {
	backends  []llm.Backend
	logger    logging.Logger
	agentName string
}

// NewReasoner creates a Reasoner over an ordered backend list, primary first.
func NewReasoner(backends []llm.Backend, logger logging.Logger, agentName string) *Reasoner {
	return &Reasoner{backends: backends, logger: logger, agentName: agentName}
}

func (r *Reasoner) Name() string { return StageReasoningEngine }

func (r *Reasoner) Run(ctx context.Context, st *state.State) error {
	ctx, span := tracer.Start(ctx, "agents.reason")
	defer span.End()

	prompt := r.buildPrompt(st)

	var lastErr error
	for _, backend := range r.backends {
		st.CountLLMCall()
		text, err := backend.Provider.Invoke(ctx, prompt)
		if err == nil {
			r.apply(st, text, backend.Name())
			span.SetAttributes(
				attribute.String("model_used", backend.Name()),
				attribute.String("recommended_action", st.RecommendedAction),
			)
			return nil
		}

		lastErr = err
		if llm.IsCapacityError(err) {
			r.logger.Warn("backend over capacity, falling back",
				"session_id", st.SessionID, "backend", backend.Name(), "error", err.Error())
		} else {
			r.logger.Error("backend failed, falling back",
				"session_id", st.SessionID, "backend", backend.Name(), "error", err.Error())
		}
	}

	// Cascade exhausted. Degrade rather than fail: flag for human review.
	st.Reasoning = fmt.Sprintf("All %d reasoning backends failed; flagging for manual review. Last error: %v", len(r.backends), lastErr)
	st.RecommendedAction = "manual_review"
	level, reason := ExtractPriority("")
	st.PriorityAssessment = map[string]any{"level": string(level), "reason": reason}
	if lastErr != nil {
		st.SetError(fmt.Sprintf("Reasoning error: %v", lastErr))
	}
	span.SetAttributes(attribute.String("recommended_action", "manual_review"))
	return nil
}

func (r *Reasoner) apply(st *state.State, text, modelUsed string) {
	st.Reasoning = text
	st.ModelUsed = modelUsed

	level, reason := ExtractPriority(text)
	st.PriorityAssessment = map[string]any{"level": string(level), "reason": reason}
	st.RecommendedAction = ExtractAction(text)
}

func (r *Reasoner) buildPrompt(st *state.State) string {
	emailCtx, _ := json.Marshal(st.EmailThreads)
	calendarCtx, _ := json.Marshal(st.CalendarEvents)
	senderHistory, _ := json.Marshal(st.SenderHistory)

	return fmt.Sprintf(`You are the reasoning engine for an executive assistant named %s.

Analyze the emails, calendar events, and context below to determine:
1. Priority level (high/medium/low) and why
2. Recommended action (reply, schedule, decline, snooze, etc.)
3. Reasoning behind your recommendation

Be concise but thorough. Prioritize the user's time and focus.

Intent: %s
User Query: %s

Email Context: %s
Calendar Context: %s
Sender History: %s`,
		r.agentName, st.Intent, st.UserQuery, emailCtx, calendarCtx, senderHistory)
}
