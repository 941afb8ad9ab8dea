// Package orchestrator runs the query pipeline: a strict sequential loop
// over the seven stages, with session snapshots so a follow-up request
// carrying an authorization code can resume its pending actions.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/execdesk-labs/voiceassist/voicecore/agents"
	"github.com/execdesk-labs/voiceassist/voicecore/eventbus"
	"github.com/execdesk-labs/voiceassist/voicecore/logging"
	"github.com/execdesk-labs/voiceassist/voicecore/observability"
	"github.com/execdesk-labs/voiceassist/voicecore/session"
	"github.com/execdesk-labs/voiceassist/voicecore/state"
)

var tracer = otel.Tracer("voiceassist/orchestrator")

// =============================================================================
// REQUEST
// =============================================================================

// Request is one incoming user turn.
type Request struct {
	Query  string `json:"query"`
	Mode   string `json:"mode,omitempty"` // "voice" or "text", default text
	UserID string `json:"user_id,omitempty"`

	// SessionID ties follow-up turns to a previous query's pending actions.
	SessionID string `json:"session_id,omitempty"`

	// AuthorizationCode, when set, makes this a verification turn.
	AuthorizationCode string `json:"authorization_code,omitempty"`
	// ActionID optionally narrows verification to one pending action.
	ActionID string `json:"action_id,omitempty"`
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Deps bundles the stage implementations and supporting services.
type Deps struct {
	Classifier agents.Stage
	Retriever  agents.Stage
	Reasoner   agents.Stage
	Drafter    agents.Stage
	Gate       agents.Stage
	Executor   agents.Stage
	Auditor    agents.Stage

	Sessions session.Store
	Bus      eventbus.Bus
	Logger   logging.Logger

	// StageTimeout bounds each stage. Zero disables the per-stage deadline.
	StageTimeout time.Duration
}

// Orchestrator is the single entry point for query processing.
type Orchestrator struct {
	deps Deps
}

// New creates an Orchestrator.
func New(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

// ProcessQuery runs one user turn through the pipeline and returns the
// final response. Stage failures degrade into state annotations; the only
// hard errors are invalid input and context cancellation.
func (o *Orchestrator) ProcessQuery(ctx context.Context, req Request) (*state.Response, error) {
	ctx, span := tracer.Start(ctx, "orchestrator.process_query")
	defer span.End()

	start := time.Now()

	st, stages, resumed, err := o.prepare(req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("session_id", st.SessionID),
		attribute.Bool("resumed", resumed),
	)

	_ = o.deps.Bus.Publish(ctx, &eventbus.QueryReceived{
		SessionID: st.SessionID,
		UserID:    st.UserID,
		Mode:      string(st.Mode),
		Query:     st.UserQuery,
	})
	o.deps.Logger.Info("query received",
		"session_id", st.SessionID, "mode", st.Mode, "resumed", resumed)

	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			o.finishQuery(st, start, "cancelled")
			return nil, fmt.Errorf("pipeline cancelled before %s: %w", stage.Name(), err)
		}
		o.runStage(ctx, stage, st)
	}

	o.snapshot(st)

	status := "success"
	if st.Error != "" {
		status = "error"
	}
	o.finishQuery(st, start, status)

	_ = o.deps.Bus.Publish(ctx, &eventbus.ResponseReady{
		SessionID:  st.SessionID,
		Intent:     string(st.Intent),
		Status:     status,
		DurationMS: int(time.Since(start).Milliseconds()),
		Pending:    len(st.PendingActions),
		Executed:   len(st.ExecutedActions),
	})

	return st.Final, nil
}

// prepare builds the state and stage list for a turn. A verification turn
// against a session with pending work resumes from the gate; everything
// else is a fresh full pipeline run.
func (o *Orchestrator) prepare(req Request) (*state.State, []agents.Stage, bool, error) {
	if req.Query == "" && req.AuthorizationCode == "" {
		return nil, nil, false, fmt.Errorf("empty request: need a query or an authorization code")
	}

	mode := state.ModeText
	if req.Mode != "" {
		parsed, err := state.InteractionModeFromString(req.Mode)
		if err != nil {
			return nil, nil, false, err
		}
		mode = parsed
	}

	if req.AuthorizationCode != "" && req.SessionID != "" && o.deps.Sessions != nil {
		if snapshot, ok := o.deps.Sessions.Load(req.SessionID); ok && snapshot.HasPendingWork() {
			snapshot.UserQuery = req.Query
			snapshot.Mode = mode
			snapshot.AuthorizationCode = req.AuthorizationCode
			snapshot.TargetActionID = req.ActionID
			snapshot.Error = ""
			snapshot.ActionLogs = []*state.ActionLog{}
			return snapshot, o.resumeStages(), true, nil
		}
	}

	st := state.New(req.Query, mode, req.UserID, req.SessionID)
	st.AuthorizationCode = req.AuthorizationCode
	st.TargetActionID = req.ActionID
	return st, o.fullStages(), false, nil
}

func (o *Orchestrator) fullStages() []agents.Stage {
	return []agents.Stage{
		o.deps.Classifier,
		o.deps.Retriever,
		o.deps.Reasoner,
		o.deps.Drafter,
		o.deps.Gate,
		o.deps.Executor,
		o.deps.Auditor,
	}
}

// resumeStages skips classification, retrieval, and drafting: the snapshot
// already holds the proposals, the turn only authorizes and executes them.
func (o *Orchestrator) resumeStages() []agents.Stage {
	return []agents.Stage{
		o.deps.Gate,
		o.deps.Executor,
		o.deps.Auditor,
	}
}

func (o *Orchestrator) runStage(ctx context.Context, stage agents.Stage, st *state.State) {
	stageCtx := ctx
	if o.deps.StageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, o.deps.StageTimeout)
		defer cancel()
	}

	st.RecordStageStart(stage.Name())
	_ = o.deps.Bus.Publish(stageCtx, &eventbus.StageStarted{
		SessionID: st.SessionID,
		Stage:     stage.Name(),
	})

	start := time.Now()
	err := stage.Run(stageCtx, st)
	durationMS := int(time.Since(start).Milliseconds())

	status := "success"
	errMsg := ""
	if err != nil {
		// Stages degrade internally; an error here is infrastructure-level
		// (cancellation, deadline). Annotate and keep the pipeline moving so
		// the audit stage still produces a response.
		status = "error"
		errMsg = err.Error()
		st.SetError(fmt.Sprintf("Stage %s failed: %v", stage.Name(), err))
		o.deps.Logger.Error("stage failed",
			"session_id", st.SessionID, "stage", stage.Name(), "error", errMsg)
	} else {
		o.deps.Logger.Debug("stage completed",
			"session_id", st.SessionID, "stage", stage.Name(), "duration_ms", durationMS)
	}

	st.RecordStageComplete(stage.Name(), status, errMsg)
	observability.RecordStageExecution(stage.Name(), status, durationMS)
	_ = o.deps.Bus.Publish(stageCtx, &eventbus.StageCompleted{
		SessionID:  st.SessionID,
		Stage:      stage.Name(),
		Status:     status,
		DurationMS: durationMS,
	})
}

// snapshot persists the session when actions remain pending, and clears it
// once nothing is left to authorize.
func (o *Orchestrator) snapshot(st *state.State) {
	if o.deps.Sessions == nil {
		return
	}
	if st.HasPendingWork() {
		if err := o.deps.Sessions.Save(st.SessionID, st); err != nil {
			o.deps.Logger.Warn("session snapshot failed",
				"session_id", st.SessionID, "error", err.Error())
		}
		return
	}
	o.deps.Sessions.Delete(st.SessionID)
}

func (o *Orchestrator) finishQuery(st *state.State, start time.Time, status string) {
	durationMS := int(time.Since(start).Milliseconds())
	observability.RecordQuery(string(st.Intent), status, durationMS)
	o.deps.Logger.Info("query finished",
		"session_id", st.SessionID,
		"intent", st.Intent,
		"status", status,
		"duration_ms", durationMS,
		"llm_calls", st.TotalLLMCalls(),
	)
}
