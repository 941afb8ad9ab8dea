package agents

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/execdesk-labs/voiceassist/voicecore/llm"
	"github.com/execdesk-labs/voiceassist/voicecore/logging"
	"github.com/execdesk-labs/voiceassist/voicecore/state"
)

// Classifier maps a free-text query to one of the closed-set intents with
// a confidence score. It is the first stage in the pipeline.
//
// Failure policy: no retry. If the model call fails or its output cannot
// be parsed, the query degrades to unknown intent with zero confidence and
// the pipeline continues. An unclassifiable query must still flow through
// and be logged, not crash the request.
type Classifier struct {
	provider llm.Provider
	logger   logging.Logger
}

// NewClassifier creates a Classifier.
func NewClassifier(provider llm.Provider, logger logging.Logger) *Classifier {
	return &Classifier{provider: provider, logger: logger}
}

func (c *Classifier) Name() string { return StageIntentClassifier }

func (c *Classifier) Run(ctx context.Context, st *state.State) error {
	ctx, span := tracer.Start(ctx, "agents.classify")
	defer span.End()

	st.CountLLMCall()
	raw, err := c.provider.Invoke(ctx, classifyPrompt(st.UserQuery))
	if err != nil {
		c.degrade(st, fmt.Sprintf("Failed to classify: %v", err))
		span.SetAttributes(attribute.String("intent", string(st.Intent)))
		return nil
	}

	parsed, err := extractAndParseJSON(raw)
	if err != nil {
		c.degrade(st, fmt.Sprintf("Failed to classify: %v", err))
		span.SetAttributes(attribute.String("intent", string(st.Intent)))
		return nil
	}

	intentStr, _ := parsed["intent"].(string)
	intent, err := state.IntentFromString(intentStr)
	if err != nil {
		c.degrade(st, fmt.Sprintf("Failed to classify: %v", err))
		span.SetAttributes(attribute.String("intent", string(st.Intent)))
		return nil
	}

	st.Intent = intent
	if conf, ok := parsed["confidence"].(float64); ok && conf >= 0 && conf <= 1 {
		st.Confidence = conf
	}
	if reasoning, ok := parsed["reasoning"].(string); ok {
		st.Reasoning = reasoning
	}

	span.SetAttributes(
		attribute.String("intent", string(st.Intent)),
		attribute.Float64("confidence", st.Confidence),
	)
	c.logger.Debug("intent classified",
		"session_id", st.SessionID,
		"intent", string(st.Intent),
		"confidence", st.Confidence,
	)
	return nil
}

func (c *Classifier) degrade(st *state.State, reason string) {
	st.Intent = state.IntentUnknown
	st.Confidence = 0.0
	st.Reasoning = reason
	st.SetError(reason)
	c.logger.Warn("intent classification degraded", "session_id", st.SessionID, "reason", reason)
}

func classifyPrompt(query string) string {
	return fmt.Sprintf(`You are an intent classification system for an executive assistant.
Determine what the user wants to do based on their query.

Available intents:
- triage_inbox: user wants to know what's in their inbox, what needs attention
- draft_reply: user wants to compose or draft an email reply
- schedule_meeting: user wants to schedule, accept, or propose a meeting
- check_calendar: user wants to see their schedule or availability
- follow_up: user wants to set up or check follow-up tasks
- summarize: user wants a summary of emails, meetings, or activity
- config: user wants to change settings or configuration
- unknown: intent is unclear

Classify decisively. Respond with a JSON object:
{"intent": "<intent>", "confidence": <0.0-1.0>, "reasoning": "<why>"}

Query: %s`, query)
}
