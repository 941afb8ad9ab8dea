package agents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/execdesk-labs/voiceassist/voicecore/adapters"
	"github.com/execdesk-labs/voiceassist/voicecore/llm"
	"github.com/execdesk-labs/voiceassist/voicecore/logging"
	"github.com/execdesk-labs/voiceassist/voicecore/state"
)

func TestDrafterEmailDraft(t *testing.T) {
	provider := llm.NewScripted("Hi John,\n\nThursday works for me.\n\nBest")
	d := NewDrafter(provider, logging.NewNop(), "Donna", state.ToneWarm)

	st := state.New("reply to john", state.ModeText, "", "")
	st.Intent = state.IntentDraftReply
	st.RecommendedAction = "draft_reply"
	st.Reasoning = "John asked about Thursday"
	st.EmailThreads = []adapters.Thread{
		{ThreadID: "t1", From: "john@x.com", Subject: "Q3 numbers", Preview: "Can we talk Thursday?"},
		{ThreadID: "t2", From: "kim@y.com", Subject: "Invoice"},
	}
	st.RecordStageStart(StageDraftGenerator)
	require.NoError(t, d.Run(context.Background(), st))

	require.Len(t, st.EmailDrafts, 1, "drafts against the first thread only")
	draft := st.EmailDrafts[0]
	assert.Equal(t, "t1", draft.ThreadID)
	assert.Equal(t, "Re: Q3 numbers", draft.Subject)
	assert.Equal(t, []string{"john@x.com"}, draft.To)
	assert.Contains(t, draft.Body, "Thursday works")
	assert.Equal(t, state.ToneWarm, draft.Tone)
	assert.True(t, draft.RequiresAuthorization)
	assert.Equal(t, "Can we talk Thursday?", draft.PreviousThreadSummary)
	assert.True(t, st.RequiresAuthorization)
	assert.Empty(t, st.CalendarActions)
}

func TestDrafterEmailDraftNoThreads(t *testing.T) {
	provider := llm.NewScripted("unused")
	d := NewDrafter(provider, logging.NewNop(), "Donna", state.ToneWarm)

	st := state.New("reply", state.ModeText, "", "")
	st.Intent = state.IntentDraftReply
	st.RecordStageStart(StageDraftGenerator)
	require.NoError(t, d.Run(context.Background(), st))

	assert.Empty(t, st.EmailDrafts)
	assert.False(t, st.RequiresAuthorization)
	assert.Equal(t, 0, provider.Calls, "no thread means no generation call")
}

func TestDrafterEmailDraftModelFailure(t *testing.T) {
	provider := llm.NewScripted()
	provider.Err = errors.New("connection refused")
	d := NewDrafter(provider, logging.NewNop(), "Donna", state.ToneWarm)

	st := state.New("reply", state.ModeText, "", "")
	st.Intent = state.IntentDraftReply
	st.EmailThreads = []adapters.Thread{{ThreadID: "t1", From: "john@x.com", Subject: "Hello"}}
	st.RecordStageStart(StageDraftGenerator)
	require.NoError(t, d.Run(context.Background(), st))

	assert.Empty(t, st.EmailDrafts, "no partial draft on model failure")
	assert.Contains(t, st.Error, "Draft generation error:")
	assert.False(t, st.RequiresAuthorization)
}

func TestDrafterCalendarAction(t *testing.T) {
	provider := llm.NewScripted("I'll accept the sync on your behalf.")
	d := NewDrafter(provider, logging.NewNop(), "Donna", state.ToneWarm)

	slots := []adapters.Slot{
		{Start: time.Now().Add(24 * time.Hour)},
		{Start: time.Now().Add(48 * time.Hour)},
		{Start: time.Now().Add(72 * time.Hour)},
		{Start: time.Now().Add(96 * time.Hour)},
	}
	st := state.New("accept the sync", state.ModeVoice, "", "")
	st.Intent = state.IntentScheduleMeeting
	st.RecommendedAction = "accept meeting"
	st.Reasoning = "No conflicts on the calendar"
	st.CalendarEvents = []adapters.Event{{EventID: "e1", Title: "Team sync", Organizer: "kim@y.com"}}
	st.AvailabilitySlots = slots
	st.RecordStageStart(StageDraftGenerator)
	require.NoError(t, d.Run(context.Background(), st))

	require.Len(t, st.CalendarActions, 1)
	ca := st.CalendarActions[0]
	assert.Equal(t, state.CalendarAcceptInvite, ca.ActionType)
	assert.Equal(t, state.StatusAccept, ca.ProposedStatus)
	assert.Equal(t, "e1", ca.Event.EventID)
	assert.Equal(t, "I'll accept the sync on your behalf.", ca.DraftResponse)
	assert.Len(t, ca.AlternativeTimes, 3, "alternatives capped at three")
	assert.True(t, ca.RequiresAuthorization)
	assert.True(t, st.RequiresAuthorization)
}

func TestDrafterProposeNewEvent(t *testing.T) {
	provider := llm.NewScripted("unused")
	d := NewDrafter(provider, logging.NewNop(), "Donna", state.ToneWarm)

	st := state.New("set up a meeting with the finance team about runway projections please", state.ModeText, "", "")
	st.Intent = state.IntentScheduleMeeting
	st.RecordStageStart(StageDraftGenerator)
	require.NoError(t, d.Run(context.Background(), st))

	require.Len(t, st.CalendarActions, 1)
	ca := st.CalendarActions[0]
	assert.Equal(t, state.CalendarCreateEvent, ca.ActionType)
	assert.Equal(t, state.StatusTentative, ca.ProposedStatus)
	assert.Contains(t, ca.Event.Title, "Meeting requested: ")
	assert.LessOrEqual(t, len(ca.Event.Title), len("Meeting requested: ")+60)
	assert.True(t, ca.Event.End.After(ca.Event.Start))
	assert.True(t, st.RequiresAuthorization)
	assert.Equal(t, 0, provider.Calls, "new-event proposal needs no model call")
}

func TestDrafterProposeNewEventUsesFreeSlot(t *testing.T) {
	provider := llm.NewScripted("unused")
	d := NewDrafter(provider, logging.NewNop(), "Donna", state.ToneWarm)

	slot := adapters.Slot{
		Start: time.Date(2026, 9, 3, 14, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 9, 3, 15, 0, 0, 0, time.UTC),
	}
	st := state.New("book time", state.ModeText, "", "")
	st.Intent = state.IntentScheduleMeeting
	st.AvailabilitySlots = []adapters.Slot{slot}
	st.RecordStageStart(StageDraftGenerator)
	require.NoError(t, d.Run(context.Background(), st))

	require.Len(t, st.CalendarActions, 1)
	assert.Equal(t, slot.Start, st.CalendarActions[0].Event.Start)
	assert.Equal(t, slot.End, st.CalendarActions[0].Event.End)
}

func TestDrafterNoActionForReviewIntent(t *testing.T) {
	provider := llm.NewScripted("unused")
	d := NewDrafter(provider, logging.NewNop(), "Donna", state.ToneWarm)

	st := state.New("what's in my inbox", state.ModeText, "", "")
	st.Intent = state.IntentTriageInbox
	st.RecommendedAction = "review"
	st.RecordStageStart(StageDraftGenerator)
	require.NoError(t, d.Run(context.Background(), st))

	assert.Empty(t, st.EmailDrafts)
	assert.Empty(t, st.CalendarActions)
	assert.False(t, st.RequiresAuthorization)
	assert.Equal(t, 0, provider.Calls)
}
