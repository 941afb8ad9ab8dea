package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/execdesk-labs/voiceassist/voicecore/adapters"
	"github.com/execdesk-labs/voiceassist/voicecore/llm"
	"github.com/execdesk-labs/voiceassist/voicecore/logging"
	"github.com/execdesk-labs/voiceassist/voicecore/state"
)

// Drafter turns a recommended action into a concrete side-effecting
// proposal: an email draft or a calendar action. Drafts are never auto-sent;
// every proposal carries requires_authorization and waits for the gate.
type Drafter struct {
	provider  llm.Provider
	logger    logging.Logger
	agentName string
	tone      state.Tone
}

// NewDrafter creates a Drafter.
func NewDrafter(provider llm.Provider, logger logging.Logger, agentName string, tone state.Tone) *Drafter {
	return &Drafter{provider: provider, logger: logger, agentName: agentName, tone: tone}
}

func (d *Drafter) Name() string { return StageDraftGenerator }

func (d *Drafter) Run(ctx context.Context, st *state.State) error {
	ctx, span := tracer.Start(ctx, "agents.draft")
	defer span.End()

	action := st.RecommendedAction

	switch {
	case strings.Contains(action, "draft_reply") || st.Intent == state.IntentDraftReply:
		draft := d.generateEmailDraft(ctx, st)
		if draft != nil {
			st.EmailDrafts = append(st.EmailDrafts, draft)
			st.RequiresAuthorization = true
		}
	case strings.Contains(action, "meeting") || st.Intent == state.IntentScheduleMeeting:
		calAction := d.generateCalendarAction(ctx, st)
		if calAction != nil {
			st.CalendarActions = append(st.CalendarActions, calAction)
			st.RequiresAuthorization = true
		}
	}

	span.SetAttributes(
		attribute.Int("email_drafts", len(st.EmailDrafts)),
		attribute.Int("calendar_actions", len(st.CalendarActions)),
	)
	return nil
}

// generateEmailDraft synthesizes a reply to the first thread in context.
func (d *Drafter) generateEmailDraft(ctx context.Context, st *state.State) *state.EmailDraft {
	if len(st.EmailThreads) == 0 {
		return nil
	}
	thread := st.EmailThreads[0]

	st.CountLLMCall()
	body, err := d.provider.Invoke(ctx, d.emailPrompt(st, thread))
	if err != nil {
		st.SetError(fmt.Sprintf("Draft generation error: %v", err))
		d.logger.Error("email draft failed", "session_id", st.SessionID, "thread_id", thread.ThreadID, "error", err.Error())
		return nil
	}

	draft := state.NewEmailDraft(
		thread.ThreadID,
		"Re: "+thread.Subject,
		[]string{thread.From},
		body,
		d.tone,
		fmt.Sprintf("Generated reply based on: %s", firstNonEmpty(st.Reasoning, "user request")),
	)
	draft.PreviousThreadSummary = thread.Preview
	return draft
}

// generateCalendarAction responds to the first event in context, or
// proposes a new event when the calendar came back empty.
func (d *Drafter) generateCalendarAction(ctx context.Context, st *state.State) *state.CalendarAction {
	if len(st.CalendarEvents) == 0 {
		return d.proposeNewEvent(st)
	}

	event := st.CalendarEvents[0]
	action := firstNonEmpty(st.RecommendedAction, "review")

	st.CountLLMCall()
	response, err := d.provider.Invoke(ctx, d.calendarPrompt(st, event, action))
	if err != nil {
		st.SetError(fmt.Sprintf("Draft generation error: %v", err))
		d.logger.Error("calendar draft failed", "session_id", st.SessionID, "event_id", event.EventID, "error", err.Error())
		return nil
	}

	alternatives := st.AvailabilitySlots
	if len(alternatives) > 3 {
		alternatives = alternatives[:3]
	}

	calAction := state.NewCalendarAction(
		MapCalendarActionType(action),
		event,
		MapProposedStatus(action),
		alternatives,
		st.Reasoning,
	)
	calAction.DraftResponse = response
	return calAction
}

// proposeNewEvent builds a bare create_event proposal from availability.
// Adapters can extend this with real slot negotiation.
func (d *Drafter) proposeNewEvent(st *state.State) *state.CalendarAction {
	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour)
	end := start.Add(time.Hour)
	if len(st.AvailabilitySlots) > 0 {
		start = st.AvailabilitySlots[0].Start
		end = st.AvailabilitySlots[0].End
	}

	event := adapters.Event{
		Title: "Meeting requested: " + truncateQuery(st.UserQuery, 60),
		Start: start,
		End:   end,
	}
	return state.NewCalendarAction(
		state.CalendarCreateEvent,
		event,
		state.StatusTentative,
		nil,
		firstNonEmpty(st.Reasoning, "User requested a new meeting"),
	)
}

func (d *Drafter) emailPrompt(st *state.State, thread adapters.Thread) string {
	history, _ := json.Marshal(st.SenderHistory[thread.From])
	return fmt.Sprintf(`You are %s, an executive assistant.

Generate a professional email draft that sounds natural and human.

Tone: %s
Context: %s
Sender History: %s

The email should be concise and actionable, match the requested tone, and
include concrete next steps. Generate ONLY the email body.

Draft an email in response to:
From: %s
Subject: %s
Message: %s

User wants to: %s

Write the email body:`,
		d.agentName, d.tone, st.Reasoning, history,
		thread.From, thread.Subject, thread.Preview,
		firstNonEmpty(st.RecommendedAction, "reply"))
}

func (d *Drafter) calendarPrompt(st *state.State, event adapters.Event, action string) string {
	availability, _ := json.Marshal(st.AvailabilitySlots)
	organizer := event.Organizer
	if organizer == "" && len(event.Attendees) > 0 {
		organizer = event.Attendees[0]
	}
	return fmt.Sprintf(`You are %s, an executive assistant.

Generate a clear, professional response for a calendar action. State
clearly what you are doing (accepting, declining, proposing an alternative)
and keep it brief. If proposing alternatives, suggest specific time slots.

Calendar Action: %s
Event: %s
Organizer: %s
Proposed Time: %s
User's Availability: %s

Generate a response:`,
		d.agentName, action, event.Title, organizer, event.Start.Format(time.RFC3339), availability)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncateQuery(q string, n int) string {
	if len(q) <= n {
		return q
	}
	return q[:n]
}
