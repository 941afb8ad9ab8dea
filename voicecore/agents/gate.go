package agents

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/execdesk-labs/voiceassist/voicecore/authz"
	"github.com/execdesk-labs/voiceassist/voicecore/eventbus"
	"github.com/execdesk-labs/voiceassist/voicecore/logging"
	"github.com/execdesk-labs/voiceassist/voicecore/observability"
	"github.com/execdesk-labs/voiceassist/voicecore/state"
)

// ErrInvalidCode is the user-facing message for a failed verification.
const ErrInvalidCode = "Invalid or expired authorization code. Please try again."

// Gate is the authorization state machine in front of the executor.
//
// Per action: a proposal requiring authorization gets a one-time code and
// joins the pending set. A request carrying a code verifies it against the
// pending actions; success authorizes exactly one action, failure burns an
// attempt and leaves everything pending so the user can retry with a fresh
// request, bounded by the code's lifetime attempt budget.
type Gate struct {
	codes  *authz.Service
	bus    eventbus.Bus
	logger logging.Logger
}

// NewGate creates a Gate.
func NewGate(codes *authz.Service, bus eventbus.Bus, logger logging.Logger) *Gate {
	return &Gate{codes: codes, bus: bus, logger: logger}
}

func (g *Gate) Name() string { return StageAuthorizationGate }

func (g *Gate) Run(ctx context.Context, st *state.State) error {
	ctx, span := tracer.Start(ctx, "agents.authorize")
	defer span.End()

	if !st.RequiresAuthorization {
		return nil
	}

	g.collectPending(ctx, st)

	if st.AuthorizationCode != "" {
		g.verify(ctx, st)
	}

	span.SetAttributes(
		attribute.Int("pending_actions", len(st.PendingActions)),
		attribute.Int("authorized_actions", len(st.AuthorizedActions)),
	)
	return nil
}

// collectPending registers every unexecuted proposal that needs
// authorization and issues a code for any that lack one. Codes are not
// issued on requests that carry a code; those are verification turns.
func (g *Gate) collectPending(ctx context.Context, st *state.State) {
	issue := func(actionID, actionType string) {
		st.AddPendingAction(actionID)
		if st.AuthorizationCode != "" || g.codes.HasCode(actionID) || st.IsAuthorized(actionID) {
			return
		}
		code, err := g.codes.Issue(actionID, actionType)
		if err != nil {
			g.logger.Error("code issuance failed", "session_id", st.SessionID, "action_id", actionID, "error", err.Error())
			return
		}
		observability.RecordCodeIssued()
		_ = g.bus.Publish(ctx, &eventbus.CodeIssued{
			SessionID:  st.SessionID,
			ActionID:   actionID,
			ActionType: actionType,
		})
		g.logger.Info("authorization code issued",
			"session_id", st.SessionID,
			"action_id", actionID,
			"action_type", actionType,
			"expires_at", code.ExpiresAt,
		)
	}

	for _, draft := range st.EmailDrafts {
		if draft.RequiresAuthorization && !st.IsExecuted(draft.DraftID) {
			issue(draft.DraftID, "send_email")
		}
	}
	for _, calAction := range st.CalendarActions {
		if calAction.RequiresAuthorization && !st.IsExecuted(calAction.ActionID) {
			issue(calAction.ActionID, "calendar_action")
		}
	}
}

func (g *Gate) verify(ctx context.Context, st *state.State) {
	actionID, ok := g.codes.Verify(st.AuthorizationCode, st.PendingActions, st.TargetActionID)
	observability.RecordVerification(ok)
	_ = g.bus.Publish(ctx, &eventbus.CodeVerified{
		SessionID: st.SessionID,
		ActionID:  actionID,
		Granted:   ok,
	})

	if !ok {
		// The action stays pending; the user may retry on a later request
		// until the code's attempt budget or TTL runs out.
		st.AuthorizationCode = ""
		st.SetError(ErrInvalidCode)
		g.logger.Warn("authorization denied", "session_id", st.SessionID)
		return
	}

	st.MarkAuthorized(actionID)
	g.logger.Info("authorization granted", "session_id", st.SessionID, "action_id", actionID)
}
