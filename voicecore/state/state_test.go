package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState(t *testing.T) {
	t.Run("generates session id when empty", func(t *testing.T) {
		s := New("triage my inbox", ModeVoice, "user_1", "")
		assert.NotEmpty(t, s.SessionID)
		assert.Contains(t, s.SessionID, "sess_")
	})

	t.Run("preserves supplied session id", func(t *testing.T) {
		s := New("triage my inbox", ModeText, "user_1", "sess_abc")
		assert.Equal(t, "sess_abc", s.SessionID)
	})

	t.Run("starts with unknown intent and empty collections", func(t *testing.T) {
		s := New("hello", ModeText, "", "")
		assert.Equal(t, IntentUnknown, s.Intent)
		assert.Empty(t, s.PendingActions)
		assert.Empty(t, s.EmailDrafts)
		assert.Empty(t, s.ActionLogs)
	})
}

func TestStageTracking(t *testing.T) {
	s := New("q", ModeText, "", "")

	s.RecordStageStart("intent_classifier")
	require.Len(t, s.StageHistory, 1)
	assert.Equal(t, "running", s.StageHistory[0].Status)

	s.CountLLMCall()
	s.RecordStageComplete("intent_classifier", "success", "")
	rec := s.StageHistory[0]
	assert.Equal(t, "success", rec.Status)
	assert.NotNil(t, rec.CompletedAt)
	assert.Equal(t, 1, rec.LLMCalls)

	t.Run("completion of unknown stage is a no-op", func(t *testing.T) {
		before := len(s.StageHistory)
		s.RecordStageComplete("missing_stage", "success", "")
		assert.Len(t, s.StageHistory, before)
	})

	t.Run("llm call with no running stage is dropped", func(t *testing.T) {
		s.CountLLMCall()
		assert.Equal(t, 1, s.TotalLLMCalls())
	})

	t.Run("total llm calls sums history", func(t *testing.T) {
		s.RecordStageStart("reasoning_engine")
		s.CountLLMCall()
		s.CountLLMCall()
		s.RecordStageComplete("reasoning_engine", "success", "")
		assert.Equal(t, 3, s.TotalLLMCalls())
	})
}

func TestActionBookkeeping(t *testing.T) {
	s := New("q", ModeText, "", "")

	s.AddPendingAction("draft_1")
	s.AddPendingAction("draft_1")
	assert.Equal(t, []string{"draft_1"}, s.PendingActions, "pending set is deduplicated")
	assert.True(t, s.IsPending("draft_1"))

	s.RemovePendingAction("draft_1")
	assert.False(t, s.IsPending("draft_1"))

	s.MarkAuthorized("draft_1")
	s.MarkAuthorized("draft_1")
	assert.Equal(t, []string{"draft_1"}, s.AuthorizedActions)
	assert.True(t, s.IsAuthorized("draft_1"))
	assert.False(t, s.IsAuthorized("draft_2"))

	assert.False(t, s.IsExecuted("draft_1"))
	s.ExecutedActions = append(s.ExecutedActions, &ExecutionResult{ActionID: "draft_1", Success: true})
	assert.True(t, s.IsExecuted("draft_1"))
	require.NotNil(t, s.ExecutionFor("draft_1"))
	assert.Nil(t, s.ExecutionFor("draft_2"))
}

func TestClone(t *testing.T) {
	s := New("q", ModeText, "user_1", "sess_1")
	draft := NewEmailDraft("thread_1", "Re: hi", []string{"a@x.com"}, "body", ToneWarm, "because")
	s.EmailDrafts = append(s.EmailDrafts, draft)
	s.AddPendingAction(draft.DraftID)

	clone := s.Clone()

	t.Run("mutating clone leaves original intact", func(t *testing.T) {
		clone.EmailDrafts[0].Body = "changed"
		clone.PendingActions[0] = "other"
		assert.Equal(t, "body", s.EmailDrafts[0].Body)
		assert.Equal(t, draft.DraftID, s.PendingActions[0])
	})

	t.Run("clone drops the final response", func(t *testing.T) {
		s.Final = &Response{Text: "done"}
		c := s.Clone()
		assert.Nil(t, c.Final)
	})
}

func TestHasPendingWork(t *testing.T) {
	s := New("q", ModeText, "", "")
	assert.False(t, s.HasPendingWork())
	s.AddPendingAction("cal_action_1")
	assert.True(t, s.HasPendingWork())
}

func TestEmailDraftRegenerate(t *testing.T) {
	d := NewEmailDraft("thread_1", "Re: hi", []string{"a@x.com"}, "v1", ToneFormal, "r")
	assert.Equal(t, 1, d.Version)
	assert.True(t, d.RequiresAuthorization)

	created := d.CreatedAt
	time.Sleep(time.Millisecond)
	d.Regenerate("v2")
	assert.Equal(t, 2, d.Version)
	assert.Equal(t, "v2", d.Body)
	assert.Equal(t, created, d.CreatedAt)
}
