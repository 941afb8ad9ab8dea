package agents

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/execdesk-labs/voiceassist/voicecore/adapters"
	"github.com/execdesk-labs/voiceassist/voicecore/logging"
	"github.com/execdesk-labs/voiceassist/voicecore/state"
)

func TestAuditorLogAssembly(t *testing.T) {
	sink := adapters.NewMemorySink()
	a := NewAuditor(sink, logging.NewNop(), "Donna", 100)

	st := state.New("reply to john and accept the sync", state.ModeText, "user_1", "")
	st.Intent = state.IntentDraftReply
	st.Reasoning = "John needs an answer before Thursday"

	draft := state.NewEmailDraft("t1", "Re: Q3", []string{"john@x.com"}, "body", state.ToneWarm, "reply requested")
	st.EmailDrafts = append(st.EmailDrafts, draft)
	st.AddPendingAction(draft.DraftID)

	calAction := state.NewCalendarAction(state.CalendarAcceptInvite, adapters.Event{EventID: "e1", Title: "Sync"}, state.StatusAccept, nil, "no conflicts")
	st.CalendarActions = append(st.CalendarActions, calAction)
	st.AddPendingAction(calAction.ActionID)

	st.ExecutedActions = append(st.ExecutedActions, &state.ExecutionResult{
		ActionID:   draft.DraftID,
		ActionType: "send_email",
		Success:    true,
		Details:    "Email sent successfully",
		Result:     map[string]any{"message_id": "msg_1"},
		ExecutedAt: time.Now().UTC(),
	})

	require.NoError(t, a.Run(context.Background(), st))

	// intent + draft + calendar action + execution
	require.Len(t, st.ActionLogs, 4)

	intentLog := st.ActionLogs[0]
	assert.Equal(t, "classified_intent", intentLog.Action)
	assert.Equal(t, state.ObjectSummary, intentLog.ObjectType)
	assert.Equal(t, "user_1", intentLog.UserID)

	draftLog := st.ActionLogs[1]
	assert.Equal(t, "drafted_reply", draftLog.Action)
	assert.Equal(t, state.ObjectEmail, draftLog.ObjectType)
	assert.Equal(t, state.LogStatusCompleted, draftLog.Status.Status, "executed draft logs as completed")
	assert.Equal(t, draft.DraftID, draftLog.Metadata["draft_id"])

	calLog := st.ActionLogs[2]
	assert.Equal(t, string(state.CalendarAcceptInvite), calLog.Action)
	assert.Equal(t, state.LogStatusPendingAuth, calLog.Status.Status, "unexecuted pending action awaits authorization")

	execLog := st.ActionLogs[3]
	assert.Equal(t, "executed", execLog.Action)
	assert.True(t, execLog.AuthorizationCodeUsed)
	assert.Equal(t, "msg_1", execLog.Metadata["message_id"], "adapter payload merged into metadata")

	assert.Len(t, sink.Entries(), 4, "all entries persisted")
	assert.Empty(t, a.BufferedLogs())
}

func TestDeriveStatusIsPure(t *testing.T) {
	st := state.New("q", state.ModeText, "", "")
	draft := state.NewEmailDraft("t1", "Re: Q3", []string{"a@x.com"}, "b", state.ToneWarm, "r")
	st.EmailDrafts = append(st.EmailDrafts, draft)

	t.Run("draft only", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			status := DeriveStatus(draft.DraftID, st)
			assert.Equal(t, state.LogStatusDraftOnly, status.Status)
		}
	})

	t.Run("pending", func(t *testing.T) {
		st.AddPendingAction(draft.DraftID)
		for i := 0; i < 3; i++ {
			status := DeriveStatus(draft.DraftID, st)
			assert.Equal(t, state.LogStatusPendingAuth, status.Status)
		}
	})

	t.Run("executed wins over pending", func(t *testing.T) {
		st.ExecutedActions = append(st.ExecutedActions, &state.ExecutionResult{
			ActionID: draft.DraftID,
			Success:  true,
		})
		for i := 0; i < 3; i++ {
			status := DeriveStatus(draft.DraftID, st)
			assert.Equal(t, state.LogStatusCompleted, status.Status)
		}
	})

	t.Run("failed execution", func(t *testing.T) {
		st2 := state.New("q", state.ModeText, "", "")
		st2.AddPendingAction("a1")
		st2.ExecutedActions = append(st2.ExecutedActions, &state.ExecutionResult{
			ActionID: "a1",
			Success:  false,
			Error:    "smtp down",
		})
		status := DeriveStatus("a1", st2)
		assert.Equal(t, state.LogStatusFailed, status.Status)
		assert.Equal(t, "smtp down", status.StatusMessage)
	})
}

func TestAuditorBuffersOnSinkFailure(t *testing.T) {
	sink := adapters.NewMemorySink()
	sink.FailNext = true
	a := NewAuditor(sink, logging.NewNop(), "Donna", 100)

	st := state.New("triage", state.ModeText, "", "")
	st.Intent = state.IntentTriageInbox
	require.NoError(t, a.Run(context.Background(), st))

	assert.Empty(t, sink.Entries())
	require.Len(t, a.BufferedLogs(), 1)

	require.NoError(t, a.FlushBuffer(context.Background()))
	assert.Len(t, sink.Entries(), 1)
	assert.Empty(t, a.BufferedLogs())
}

func TestAuditorFlushFailureKeepsBuffer(t *testing.T) {
	sink := adapters.NewMemorySink()
	sink.FailNext = true
	a := NewAuditor(sink, logging.NewNop(), "Donna", 100)

	st := state.New("triage", state.ModeText, "", "")
	st.Intent = state.IntentTriageInbox
	require.NoError(t, a.Run(context.Background(), st))
	require.Len(t, a.BufferedLogs(), 1)

	sink.FailNext = true
	require.Error(t, a.FlushBuffer(context.Background()))
	assert.Len(t, a.BufferedLogs(), 1, "failed flush re-buffers")
}

func TestAuditorBufferBound(t *testing.T) {
	sink := adapters.NewMemorySink()
	a := NewAuditor(sink, logging.NewNop(), "Donna", 3)

	for i := 0; i < 5; i++ {
		sink.FailNext = true
		st := state.New(fmt.Sprintf("query %d", i), state.ModeText, "", "")
		st.Intent = state.IntentTriageInbox
		require.NoError(t, a.Run(context.Background(), st))
	}

	buffered := a.BufferedLogs()
	require.Len(t, buffered, 3, "bounded, oldest dropped first")
	assert.Contains(t, buffered[2]["object_ref"], "triage_inbox")
}

func TestAuditorFinalResponse(t *testing.T) {
	newAuditor := func() *Auditor {
		return NewAuditor(adapters.NewMemorySink(), logging.NewNop(), "Donna", 100)
	}

	t.Run("error takes precedence", func(t *testing.T) {
		st := state.New("q", state.ModeText, "", "")
		st.SetError("Reasoning error: all backends down")
		require.NoError(t, newAuditor().Run(context.Background(), st))

		assert.Equal(t, "I encountered an issue: Reasoning error: all backends down", st.TextResponse)
		require.NotNil(t, st.Final)
		assert.Equal(t, st.TextResponse, st.Final.Text)
		assert.Equal(t, st.Error, st.Final.Error)
	})

	t.Run("all executions succeeded", func(t *testing.T) {
		st := state.New("q", state.ModeText, "", "")
		st.ExecutedActions = append(st.ExecutedActions, &state.ExecutionResult{ActionID: "a1", Success: true})
		require.NoError(t, newAuditor().Run(context.Background(), st))

		assert.Equal(t, "I've successfully completed 1 action(s). ", st.TextResponse)
	})

	t.Run("partial execution failure is called out", func(t *testing.T) {
		st := state.New("q", state.ModeText, "", "")
		st.ExecutedActions = append(st.ExecutedActions,
			&state.ExecutionResult{ActionID: "a1", Success: true},
			&state.ExecutionResult{ActionID: "a2", Success: false, Error: "smtp down"},
		)
		require.NoError(t, newAuditor().Run(context.Background(), st))

		assert.Contains(t, st.TextResponse, "completed 2 action(s)")
		assert.Contains(t, st.TextResponse, "However, some actions failed. Please check the details.")
	})

	t.Run("proposals ask for authorization", func(t *testing.T) {
		st := state.New("q", state.ModeVoice, "", "")
		draft := state.NewEmailDraft("t1", "Re: Q3", []string{"john@x.com"}, "b", state.ToneWarm, "r")
		st.EmailDrafts = append(st.EmailDrafts, draft)
		calAction := state.NewCalendarAction(state.CalendarAcceptInvite, adapters.Event{Title: "Sync"}, state.StatusAccept, nil, "r")
		st.CalendarActions = append(st.CalendarActions, calAction)
		require.NoError(t, newAuditor().Run(context.Background(), st))

		assert.Contains(t, st.TextResponse, "I've prepared the following for your review:")
		assert.Contains(t, st.TextResponse, "- Email draft: 'Re: Q3' (to john@x.com)")
		assert.Contains(t, st.TextResponse, "- Calendar action: accept_invite for 'Sync'")
		assert.Contains(t, st.TextResponse, "I'll need your authorization code.")
		assert.Equal(t, st.TextResponse, st.VoiceResponse)
	})

	t.Run("nothing to do", func(t *testing.T) {
		st := state.New("q", state.ModeText, "", "")
		st.Intent = state.IntentCheckCalendar
		require.NoError(t, newAuditor().Run(context.Background(), st))

		assert.Equal(t, "I've analyzed your request (intent: check_calendar). No actions were required.", st.TextResponse)
	})
}
