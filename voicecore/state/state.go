package state

import (
	"time"

	"github.com/google/uuid"

	"github.com/execdesk-labs/voiceassist/voicecore/adapters"
)

// =============================================================================
// STAGE HISTORY
// =============================================================================

// StageRecord tracks one stage execution for the query's audit trail.
type StageRecord struct {
	Stage       string     `json:"stage"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DurationMS  int        `json:"duration_ms"`
	Status      string     `json:"status"` // "running", "success", "error"
	Error       string     `json:"error,omitempty"`
	LLMCalls    int        `json:"llm_calls"`
}

// =============================================================================
// STATE
// =============================================================================

// State is the single mutable record threaded through every pipeline stage
// for one query. Stages mutate it in place; the orchestrator discards it
// after the final response is emitted (modulo the optional session snapshot).
type State struct {
	// User input
	UserQuery string          `json:"user_query"`
	Mode      InteractionMode `json:"interaction_mode"`
	SessionID string          `json:"session_id"`
	UserID    string          `json:"user_id,omitempty"`

	// Intent classification
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`

	// Retrieved context. Opaque to downstream stages except drafting.
	EmailThreads       []adapters.Thread                 `json:"email_threads,omitempty"`
	CalendarEvents     []adapters.Event                  `json:"calendar_events,omitempty"`
	SenderHistory      map[string]adapters.SenderHistory `json:"sender_history,omitempty"`
	AvailabilitySlots  []adapters.Slot                   `json:"availability_slots,omitempty"`
	FollowUpTasks      []map[string]any                  `json:"follow_up_tasks,omitempty"`

	// Reasoning & decision
	PriorityAssessment map[string]any `json:"priority_assessment,omitempty"`
	RecommendedAction  string         `json:"recommended_action,omitempty"`
	Reasoning          string         `json:"reasoning,omitempty"`
	ModelUsed          string         `json:"model_used,omitempty"`

	// Draft generation
	EmailDrafts     []*EmailDraft     `json:"email_drafts"`
	CalendarActions []*CalendarAction `json:"calendar_actions"`

	// Authorization
	RequiresAuthorization bool   `json:"requires_authorization"`
	AuthorizationCode     string `json:"authorization_code,omitempty"` // user-supplied
	TargetActionID        string `json:"target_action_id,omitempty"`   // optional, narrows verification
	PendingActions        []string `json:"pending_actions"`
	AuthorizedActions     []string `json:"authorized_actions"`

	// Execution
	ExecutedActions []*ExecutionResult `json:"executed_actions"`
	ExecutionStatus map[string]any     `json:"execution_status,omitempty"`

	// Audit
	ActionLogs []*ActionLog `json:"action_logs"`

	// Response
	TextResponse  string    `json:"text_response,omitempty"`
	VoiceResponse string    `json:"voice_response,omitempty"`
	Final         *Response `json:"final_response,omitempty"`

	// Error handling
	Error      string `json:"error,omitempty"`
	RetryCount int    `json:"retry_count"`

	// Trail
	StageHistory []StageRecord `json:"stage_history"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Response is the user-facing result assembled by the audit stage.
type Response struct {
	Text            string             `json:"text"`
	Intent          Intent             `json:"intent"`
	Drafts          []*EmailDraft      `json:"drafts"`
	CalendarActions []*CalendarAction  `json:"calendar_actions"`
	Executed        []*ExecutionResult `json:"executed"`
	Logs            []*ActionLog       `json:"logs"`
	SessionID       string             `json:"session_id,omitempty"`
	Error           string             `json:"error,omitempty"`
}

// New creates a fresh State for one incoming query. An empty sessionID gets
// a generated one so follow-up requests can resume pending authorizations.
func New(query string, mode InteractionMode, userID, sessionID string) *State {
	if sessionID == "" {
		sessionID = "sess_" + uuid.New().String()[:16]
	}
	return &State{
		UserQuery:         query,
		Mode:              mode,
		SessionID:         sessionID,
		UserID:            userID,
		Intent:            IntentUnknown,
		SenderHistory:     map[string]adapters.SenderHistory{},
		EmailDrafts:       []*EmailDraft{},
		CalendarActions:   []*CalendarAction{},
		PendingActions:    []string{},
		AuthorizedActions: []string{},
		ExecutedActions:   []*ExecutionResult{},
		ActionLogs:        []*ActionLog{},
		StageHistory:      []StageRecord{},
		CreatedAt:         time.Now().UTC(),
	}
}

// =============================================================================
// STAGE TRACKING
// =============================================================================

// RecordStageStart appends a running StageRecord for the named stage.
func (s *State) RecordStageStart(stage string) {
	s.StageHistory = append(s.StageHistory, StageRecord{
		Stage:     stage,
		StartedAt: time.Now().UTC(),
		Status:    "running",
	})
}

// RecordStageComplete closes the most recent running record for the stage.
func (s *State) RecordStageComplete(stage, status, errMsg string) {
	for i := len(s.StageHistory) - 1; i >= 0; i-- {
		rec := &s.StageHistory[i]
		if rec.Stage == stage && rec.Status == "running" {
			now := time.Now().UTC()
			rec.CompletedAt = &now
			rec.Status = status
			rec.Error = errMsg
			rec.DurationMS = int(now.Sub(rec.StartedAt).Milliseconds())
			return
		}
	}
}

// CountLLMCall attributes one LLM invocation to the currently running stage.
func (s *State) CountLLMCall() {
	for i := len(s.StageHistory) - 1; i >= 0; i-- {
		if s.StageHistory[i].Status == "running" {
			s.StageHistory[i].LLMCalls++
			return
		}
	}
}

// SetError annotates the state with a stage failure. The pipeline never
// aborts on stage errors; the annotation surfaces in the final response.
func (s *State) SetError(msg string) {
	s.Error = msg
}

// =============================================================================
// ACTION BOOKKEEPING
// =============================================================================

// AddPendingAction adds an action id to the pending set, once.
func (s *State) AddPendingAction(actionID string) {
	for _, id := range s.PendingActions {
		if id == actionID {
			return
		}
	}
	s.PendingActions = append(s.PendingActions, actionID)
}

// RemovePendingAction drops an action id from the pending set.
func (s *State) RemovePendingAction(actionID string) {
	for i, id := range s.PendingActions {
		if id == actionID {
			s.PendingActions = append(s.PendingActions[:i], s.PendingActions[i+1:]...)
			return
		}
	}
}

// IsPending reports whether an action id awaits authorization.
func (s *State) IsPending(actionID string) bool {
	for _, id := range s.PendingActions {
		if id == actionID {
			return true
		}
	}
	return false
}

// MarkAuthorized records a consumed authorization for an action id.
func (s *State) MarkAuthorized(actionID string) {
	for _, id := range s.AuthorizedActions {
		if id == actionID {
			return
		}
	}
	s.AuthorizedActions = append(s.AuthorizedActions, actionID)
}

// IsAuthorized reports whether an action id has a consumed code behind it.
func (s *State) IsAuthorized(actionID string) bool {
	for _, id := range s.AuthorizedActions {
		if id == actionID {
			return true
		}
	}
	return false
}

// IsExecuted reports whether an action id already has an execution result.
// Executor stages consult this so an action runs at most once per query.
func (s *State) IsExecuted(actionID string) bool {
	for _, r := range s.ExecutedActions {
		if r.ActionID == actionID {
			return true
		}
	}
	return false
}

// ExecutionFor returns the execution result for an action id, if any.
func (s *State) ExecutionFor(actionID string) *ExecutionResult {
	for _, r := range s.ExecutedActions {
		if r.ActionID == actionID {
			return r
		}
	}
	return nil
}

// TotalLLMCalls sums LLM calls across the stage history.
func (s *State) TotalLLMCalls() int {
	total := 0
	for _, rec := range s.StageHistory {
		total += rec.LLMCalls
	}
	return total
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Clone deep-copies the state for the session snapshot. Entity pointers are
// copied by value so a resumed request cannot mutate the stored snapshot.
func (s *State) Clone() *State {
	clone := *s

	clone.EmailThreads = append([]adapters.Thread(nil), s.EmailThreads...)
	clone.CalendarEvents = append([]adapters.Event(nil), s.CalendarEvents...)
	clone.AvailabilitySlots = append([]adapters.Slot(nil), s.AvailabilitySlots...)
	clone.PendingActions = append([]string(nil), s.PendingActions...)
	clone.AuthorizedActions = append([]string(nil), s.AuthorizedActions...)
	clone.StageHistory = append([]StageRecord(nil), s.StageHistory...)

	clone.SenderHistory = make(map[string]adapters.SenderHistory, len(s.SenderHistory))
	for k, v := range s.SenderHistory {
		clone.SenderHistory[k] = v
	}

	clone.EmailDrafts = make([]*EmailDraft, len(s.EmailDrafts))
	for i, d := range s.EmailDrafts {
		dc := *d
		dc.To = append([]string(nil), d.To...)
		dc.CC = append([]string(nil), d.CC...)
		dc.BCC = append([]string(nil), d.BCC...)
		clone.EmailDrafts[i] = &dc
	}

	clone.CalendarActions = make([]*CalendarAction, len(s.CalendarActions))
	for i, a := range s.CalendarActions {
		ac := *a
		ac.AlternativeTimes = append([]adapters.Slot(nil), a.AlternativeTimes...)
		clone.CalendarActions[i] = &ac
	}

	clone.ExecutedActions = make([]*ExecutionResult, len(s.ExecutedActions))
	for i, r := range s.ExecutedActions {
		rc := *r
		clone.ExecutedActions[i] = &rc
	}

	clone.ActionLogs = make([]*ActionLog, len(s.ActionLogs))
	for i, l := range s.ActionLogs {
		lc := *l
		clone.ActionLogs[i] = &lc
	}

	clone.Final = nil
	return &clone
}

// HasPendingWork reports whether the query left actions awaiting a code,
// which is what makes the session snapshot worth keeping.
func (s *State) HasPendingWork() bool {
	return len(s.PendingActions) > 0
}
