package agents

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/execdesk-labs/voiceassist/voicecore/adapters"
	"github.com/execdesk-labs/voiceassist/voicecore/eventbus"
	"github.com/execdesk-labs/voiceassist/voicecore/logging"
	"github.com/execdesk-labs/voiceassist/voicecore/observability"
	"github.com/execdesk-labs/voiceassist/voicecore/state"
)

// Executor performs the authorized side effects: sending email drafts and
// applying calendar actions through the providers. Only actions with a
// consumed authorization code run, each at most once per query. Every
// outcome lands in executed_actions; one action's failure never aborts its
// siblings in the same batch.
type Executor struct {
	email    adapters.EmailProvider
	calendar adapters.CalendarProvider
	bus      eventbus.Bus
	logger   logging.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(email adapters.EmailProvider, calendar adapters.CalendarProvider, bus eventbus.Bus, logger logging.Logger) *Executor {
	return &Executor{email: email, calendar: calendar, bus: bus, logger: logger}
}

func (e *Executor) Name() string { return StageActionExecutor }

func (e *Executor) Run(ctx context.Context, st *state.State) error {
	ctx, span := tracer.Start(ctx, "agents.execute")
	defer span.End()

	if len(st.AuthorizedActions) == 0 {
		if len(st.PendingActions) > 0 {
			st.ExecutionStatus = map[string]any{
				"status":  "awaiting_authorization",
				"message": "Actions prepared but awaiting user authorization",
			}
		}
		return nil
	}

	for _, draft := range st.EmailDrafts {
		if !e.eligible(st, draft.DraftID) {
			continue
		}
		result := e.sendEmail(ctx, draft)
		e.record(ctx, st, result)
	}

	for _, calAction := range st.CalendarActions {
		if !e.eligible(st, calAction.ActionID) {
			continue
		}
		result := e.executeCalendarAction(ctx, calAction)
		e.record(ctx, st, result)
	}

	succeeded := 0
	for _, r := range st.ExecutedActions {
		if r.Success {
			succeeded++
		}
	}
	st.ExecutionStatus = map[string]any{
		"status":  "completed",
		"message": fmt.Sprintf("Successfully executed %d action(s)", len(st.ExecutedActions)),
	}

	span.SetAttributes(
		attribute.Int("executed", len(st.ExecutedActions)),
		attribute.Int("succeeded", succeeded),
	)
	return nil
}

// eligible requires a consumed code and no prior execution for the action.
func (e *Executor) eligible(st *state.State, actionID string) bool {
	return st.IsPending(actionID) && st.IsAuthorized(actionID) && !st.IsExecuted(actionID)
}

func (e *Executor) sendEmail(ctx context.Context, draft *state.EmailDraft) *state.ExecutionResult {
	result := &state.ExecutionResult{
		ActionID:   draft.DraftID,
		ActionType: "send_email",
		ExecutedAt: time.Now().UTC(),
	}

	if e.email == nil {
		result.Success = false
		result.Error = "no email provider configured"
		result.Details = "Failed to send email"
		return result
	}

	sent, err := e.email.SendEmail(ctx, draft.To, draft.Subject, draft.Body, draft.CC, draft.BCC, draft.ThreadID)
	if err != nil {
		result.Success = false
		result.Error = err.Error()
		result.Details = "Failed to send email"
		return result
	}

	result.Success = sent.Success
	result.Details = "Email sent successfully"
	result.Result = map[string]any{"message_id": sent.MessageID}
	return result
}

func (e *Executor) executeCalendarAction(ctx context.Context, calAction *state.CalendarAction) *state.ExecutionResult {
	result := &state.ExecutionResult{
		ActionID:   calAction.ActionID,
		ActionType: string(calAction.ActionType),
		ExecutedAt: time.Now().UTC(),
	}

	if e.calendar == nil {
		result.Success = false
		result.Error = "no calendar provider configured"
		result.Details = "Failed to execute calendar action"
		return result
	}

	var res *adapters.EventResult
	var err error
	switch calAction.ActionType {
	case state.CalendarAcceptInvite:
		res, err = e.calendar.AcceptEvent(ctx, calAction.Event.EventID)
	case state.CalendarDeclineInvite:
		res, err = e.calendar.DeclineEvent(ctx, calAction.Event.EventID, calAction.DraftResponse)
	case state.CalendarProposeAlternative:
		res, err = e.calendar.ProposeAlternative(ctx, calAction.Event.EventID, calAction.AlternativeTimes, calAction.DraftResponse)
	case state.CalendarCreateEvent:
		res, err = e.calendar.CreateEvent(ctx, adapters.EventSpec{
			Title:       calAction.Event.Title,
			Start:       calAction.Event.Start,
			End:         calAction.Event.End,
			Attendees:   calAction.Event.Attendees,
			Description: calAction.Event.Description,
			Location:    calAction.Event.Location,
		})
	default:
		result.Success = false
		result.Error = fmt.Sprintf("unknown action type: %s", calAction.ActionType)
		return result
	}

	if err != nil {
		result.Success = false
		result.Error = err.Error()
		result.Details = "Failed to execute calendar action"
		return result
	}

	result.Success = res.Success
	result.Details = fmt.Sprintf("Calendar action '%s' completed", calAction.ActionType)
	result.Result = map[string]any{"event_id": res.EventID}
	return result
}

// record appends the outcome and retires the action from the pending set.
func (e *Executor) record(ctx context.Context, st *state.State, result *state.ExecutionResult) {
	st.ExecutedActions = append(st.ExecutedActions, result)
	st.RemovePendingAction(result.ActionID)

	status := "success"
	if !result.Success {
		status = "error"
		e.logger.Error("action execution failed",
			"session_id", st.SessionID, "action_id", result.ActionID, "error", result.Error)
	} else {
		e.logger.Info("action executed",
			"session_id", st.SessionID, "action_id", result.ActionID, "action_type", result.ActionType)
	}
	observability.RecordActionExecution(result.ActionType, status)
	_ = e.bus.Publish(ctx, &eventbus.ActionExecuted{
		SessionID:  st.SessionID,
		ActionID:   result.ActionID,
		ActionType: result.ActionType,
		Success:    result.Success,
		Error:      result.Error,
	})
}
