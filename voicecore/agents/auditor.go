package agents

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/execdesk-labs/voiceassist/voicecore/adapters"
	"github.com/execdesk-labs/voiceassist/voicecore/logging"
	"github.com/execdesk-labs/voiceassist/voicecore/state"
)

// Auditor converts everything that happened in a query into append-only
// audit log entries and assembles the final user-facing response. It is the
// last stage and always runs, even for fully degraded queries.
//
// Log persistence is best effort: on sink failure entries are buffered in
// memory, bounded by maxBuffered, oldest dropped first.
type Auditor struct {
	sink        adapters.LogSink
	logger      logging.Logger
	agentName   string
	maxBuffered int

	mu     sync.Mutex
	buffer []map[string]any
}

// NewAuditor creates an Auditor.
func NewAuditor(sink adapters.LogSink, logger logging.Logger, agentName string, maxBuffered int) *Auditor {
	return &Auditor{sink: sink, logger: logger, agentName: agentName, maxBuffered: maxBuffered}
}

func (a *Auditor) Name() string { return StageAuditLogger }

func (a *Auditor) Run(ctx context.Context, st *state.State) error {
	ctx, span := tracer.Start(ctx, "agents.audit")
	defer span.End()

	a.logIntent(st)
	a.logDrafts(st)
	a.logCalendarActions(st)
	a.logExecutions(st)

	a.persist(ctx, st.ActionLogs)
	a.generateFinalResponse(st)

	span.SetAttributes(attribute.Int("action_logs", len(st.ActionLogs)))
	return nil
}

// =============================================================================
// LOG ASSEMBLY
// =============================================================================

func (a *Auditor) logIntent(st *state.State) {
	if st.Intent == "" {
		return
	}
	log := state.NewActionLog(
		a.agentName,
		st.Mode,
		state.ObjectSummary,
		fmt.Sprintf("Intent: %s", st.Intent),
		"classified_intent",
		truncateReason(st.Reasoning, 200),
		state.NewActionStatus(state.LogStatusCompleted, "Intent classified successfully"),
		st.UserID,
	)
	st.ActionLogs = append(st.ActionLogs, log)
}

func (a *Auditor) logDrafts(st *state.State) {
	for _, draft := range st.EmailDrafts {
		status := DeriveStatus(draft.DraftID, st)
		log := state.NewActionLog(
			a.agentName,
			st.Mode,
			state.ObjectEmail,
			firstNonEmpty(draft.Subject, "Email Draft"),
			"drafted_reply",
			firstNonEmpty(draft.Reasoning, "User requested email draft"),
			status,
			st.UserID,
		)
		log.Metadata = map[string]any{
			"draft_id":  draft.DraftID,
			"to":        draft.To,
			"thread_id": draft.ThreadID,
		}
		st.ActionLogs = append(st.ActionLogs, log)
	}
}

func (a *Auditor) logCalendarActions(st *state.State) {
	for _, calAction := range st.CalendarActions {
		status := DeriveStatus(calAction.ActionID, st)
		log := state.NewActionLog(
			a.agentName,
			st.Mode,
			state.ObjectCalendar,
			firstNonEmpty(calAction.Event.Title, "Calendar Event"),
			string(calAction.ActionType),
			firstNonEmpty(calAction.Reasoning, "User requested calendar action"),
			status,
			st.UserID,
		)
		log.Metadata = map[string]any{
			"action_id":       calAction.ActionID,
			"event_id":        calAction.Event.EventID,
			"proposed_status": string(calAction.ProposedStatus),
		}
		st.ActionLogs = append(st.ActionLogs, log)
	}
}

func (a *Auditor) logExecutions(st *state.State) {
	for _, executed := range st.ExecutedActions {
		status := state.NewActionStatus(state.LogStatusCompleted, executed.Details)
		if !executed.Success {
			status = state.NewActionStatus(state.LogStatusFailed, firstNonEmpty(executed.Error, "Execution failed"))
		}
		log := state.NewActionLog(
			a.agentName,
			st.Mode,
			objectTypeFor(executed.ActionType),
			fmt.Sprintf("Action %s", executed.ActionID),
			"executed",
			"Action executed after authorization",
			status,
			st.UserID,
		)
		log.AuthorizationCodeUsed = true
		log.Metadata = map[string]any{
			"action_id":   executed.ActionID,
			"action_type": executed.ActionType,
			"success":     executed.Success,
		}
		for k, v := range executed.Result {
			log.Metadata[k] = v
		}
		st.ActionLogs = append(st.ActionLogs, log)
	}
}

// DeriveStatus computes the lifecycle status of a draft or calendar action
// purely from the state snapshot: executed results win, then the pending
// set, then draft_only. Replaying it on an identical snapshot always yields
// the same answer.
func DeriveStatus(actionID string, st *state.State) state.ActionStatus {
	if result := st.ExecutionFor(actionID); result != nil {
		if result.Success {
			return state.NewActionStatus(state.LogStatusCompleted, "Action executed successfully")
		}
		return state.NewActionStatus(state.LogStatusFailed, firstNonEmpty(result.Error, "Execution failed"))
	}
	if st.IsPending(actionID) {
		return state.NewActionStatus(state.LogStatusPendingAuth, "Awaiting user authorization code")
	}
	return state.NewActionStatus(state.LogStatusDraftOnly, "Draft prepared, no execution requested")
}

func objectTypeFor(actionType string) state.ObjectType {
	if strings.Contains(actionType, "email") {
		return state.ObjectEmail
	}
	return state.ObjectCalendar
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func (a *Auditor) persist(ctx context.Context, logs []*state.ActionLog) {
	entries := make([]map[string]any, 0, len(logs))
	for _, log := range logs {
		entries = append(entries, log.ToMap())
	}

	if a.sink != nil {
		if err := a.sink.SaveLogs(ctx, entries); err == nil {
			return
		} else {
			a.logger.Warn("log sink unavailable, buffering", "entries", len(entries), "error", err.Error())
		}
	}
	a.bufferLogs(entries)
}

func (a *Auditor) bufferLogs(entries []map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buffer = append(a.buffer, entries...)
	if over := len(a.buffer) - a.maxBuffered; over > 0 {
		a.buffer = a.buffer[over:]
	}
}

// BufferedLogs returns a copy of entries awaiting a healthy sink.
func (a *Auditor) BufferedLogs() []map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]map[string]any, len(a.buffer))
	copy(out, a.buffer)
	return out
}

// FlushBuffer retries persistence of buffered entries. Entries that fail
// again stay buffered.
func (a *Auditor) FlushBuffer(ctx context.Context) error {
	if a.sink == nil {
		return nil
	}
	a.mu.Lock()
	pending := a.buffer
	a.buffer = nil
	a.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}
	if err := a.sink.SaveLogs(ctx, pending); err != nil {
		a.bufferLogs(pending)
		return err
	}
	return nil
}

// =============================================================================
// FINAL RESPONSE
// =============================================================================

func (a *Auditor) generateFinalResponse(st *state.State) {
	var text string
	switch {
	case st.Error != "":
		text = fmt.Sprintf("I encountered an issue: %s", st.Error)
	case len(st.ExecutedActions) > 0:
		text = fmt.Sprintf("I've successfully completed %d action(s). ", len(st.ExecutedActions))
		for _, ex := range st.ExecutedActions {
			if !ex.Success {
				text += "However, some actions failed. Please check the details."
				break
			}
		}
	case len(st.EmailDrafts) > 0 || len(st.CalendarActions) > 0:
		var b strings.Builder
		b.WriteString("I've prepared the following for your review:\n\n")
		for _, draft := range st.EmailDrafts {
			fmt.Fprintf(&b, "- Email draft: '%s' (to %s)\n", draft.Subject, strings.Join(draft.To, ", "))
		}
		for _, calAction := range st.CalendarActions {
			fmt.Fprintf(&b, "- Calendar action: %s for '%s'\n", calAction.ActionType, calAction.Event.Title)
		}
		b.WriteString("\nWould you like me to proceed? I'll need your authorization code.")
		text = b.String()
	default:
		text = fmt.Sprintf("I've analyzed your request (intent: %s). No actions were required.", st.Intent)
	}

	st.TextResponse = text
	st.VoiceResponse = text
	st.Final = &state.Response{
		Text:            text,
		Intent:          st.Intent,
		Drafts:          st.EmailDrafts,
		CalendarActions: st.CalendarActions,
		Executed:        st.ExecutedActions,
		Logs:            st.ActionLogs,
		SessionID:       st.SessionID,
		Error:           st.Error,
	}
}

func truncateReason(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
