// Package agents implements the seven pipeline stages: intent
// classification, context retrieval, reasoning, draft generation, the
// authorization gate, action execution, and audit logging.
//
// Stages mutate the shared state record and never let a failure escape
// their own boundary: every error is converted into a state annotation so
// the pipeline always reaches the audit stage and returns a response.
package agents

import (
	"context"

	"go.opentelemetry.io/otel"

	"github.com/execdesk-labs/voiceassist/voicecore/state"
)

// Stage names, in pipeline order.
const (
	StageIntentClassifier  = "intent_classifier"
	StageContextRetriever  = "context_retriever"
	StageReasoningEngine   = "reasoning_engine"
	StageDraftGenerator    = "draft_generator"
	StageAuthorizationGate = "authorization_gate"
	StageActionExecutor    = "action_executor"
	StageAuditLogger       = "audit_logger"
)

// Stage is one pipeline stage.
type Stage interface {
	// Name returns the stage's identity for history, metrics, and traces.
	Name() string
	// Run processes the state in place. A returned error is a stage-level
	// failure the orchestrator records on the state; it never aborts the
	// pipeline.
	Run(ctx context.Context, st *state.State) error
}

var tracer = otel.Tracer("voiceassist/agents")
