package state

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/execdesk-labs/voiceassist/voicecore/adapters"
)

// =============================================================================
// EMAIL DRAFT
// =============================================================================

// EmailDraft is a proposed, not-yet-sent email reply.
//
// Created by the draft generator; read by the authorization gate and the
// action executor. Immutable after creation except Version, which is
// incremented when the draft is regenerated.
type EmailDraft struct {
	DraftID               string    `json:"draft_id"`
	ThreadID              string    `json:"thread_id"`
	Subject               string    `json:"subject"`
	To                    []string  `json:"to"`
	CC                    []string  `json:"cc,omitempty"`
	BCC                   []string  `json:"bcc,omitempty"`
	Body                  string    `json:"body"`
	Tone                  Tone      `json:"tone"`
	RequiresAuthorization bool      `json:"requires_authorization"`
	PreviousThreadSummary string    `json:"previous_thread_summary,omitempty"`
	Reasoning             string    `json:"reasoning"`
	CreatedAt             time.Time `json:"created_at"`
	Version               int       `json:"version"`
}

// NewEmailDraft creates a version-1 draft with a fresh id. Authorization is
// required unless the caller explicitly clears the flag afterwards.
func NewEmailDraft(threadID, subject string, to []string, body string, tone Tone, reasoning string) *EmailDraft {
	return &EmailDraft{
		DraftID:               "draft_" + uuid.New().String()[:8],
		ThreadID:              threadID,
		Subject:               subject,
		To:                    to,
		CC:                    []string{},
		Body:                  body,
		Tone:                  tone,
		RequiresAuthorization: true,
		Reasoning:             reasoning,
		CreatedAt:             time.Now().UTC(),
		Version:               1,
	}
}

// Regenerate returns a copy with a new body and an incremented version.
func (d *EmailDraft) Regenerate(body string) *EmailDraft {
	clone := *d
	clone.Body = body
	clone.Version = d.Version + 1
	return &clone
}

// =============================================================================
// CALENDAR ACTION
// =============================================================================

// CalendarAction is a proposed calendar mutation awaiting authorization.
type CalendarAction struct {
	ActionID              string             `json:"action_id"`
	ActionType            CalendarActionType `json:"action_type"`
	Event                 adapters.Event     `json:"event"`
	ProposedStatus        ProposedStatus     `json:"proposed_status"`
	AlternativeTimes      []adapters.Slot    `json:"alternative_times,omitempty"`
	DraftResponse         string             `json:"draft_response,omitempty"`
	Reasoning             string             `json:"reasoning"`
	RequiresAuthorization bool               `json:"requires_authorization"`
	CreatedAt             time.Time          `json:"created_at"`
}

// NewCalendarAction creates a calendar action proposal with a fresh id.
func NewCalendarAction(actionType CalendarActionType, event adapters.Event, status ProposedStatus, alternatives []adapters.Slot, reasoning string) *CalendarAction {
	return &CalendarAction{
		ActionID:              "cal_action_" + uuid.New().String()[:8],
		ActionType:            actionType,
		Event:                 event,
		ProposedStatus:        status,
		AlternativeTimes:      alternatives,
		Reasoning:             reasoning,
		RequiresAuthorization: true,
		CreatedAt:             time.Now().UTC(),
	}
}

// =============================================================================
// EXECUTION RESULT
// =============================================================================

// ExecutionResult records the outcome of one executed action, success or not.
type ExecutionResult struct {
	ActionID   string         `json:"action_id"`
	ActionType string         `json:"action_type"` // "send_email" or "calendar_action"
	Success    bool           `json:"success"`
	Details    string         `json:"details,omitempty"`
	Error      string         `json:"error,omitempty"`
	Result     map[string]any `json:"result,omitempty"` // raw adapter payload
	ExecutedAt time.Time      `json:"executed_at"`
}

// =============================================================================
// ACTION LOG
// =============================================================================

// ActionStatus is the embedded status block of an ActionLog.
type ActionStatus struct {
	Status        LogStatus `json:"status"`
	StatusMessage string    `json:"status_message"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewActionStatus creates a status stamped with the current time.
func NewActionStatus(status LogStatus, message string) ActionStatus {
	return ActionStatus{
		Status:        status,
		StatusMessage: message,
		UpdatedAt:     time.Now().UTC(),
	}
}

// ActionLog is one immutable audit record of a pipeline lifecycle event.
// Entries are append-only; nothing mutates or deletes them within a session.
type ActionLog struct {
	LogID                 string          `json:"log_id"`
	Timestamp             time.Time       `json:"timestamp"`
	Actor                 string          `json:"actor"`
	Mode                  InteractionMode `json:"mode"`
	ObjectType            ObjectType      `json:"object_type"`
	ObjectRef             string          `json:"object_ref"`
	Action                string          `json:"action"`
	Reason                string          `json:"reason"`
	Status                ActionStatus    `json:"status"`
	UserID                string          `json:"user_id,omitempty"`
	AuthorizationCodeUsed bool            `json:"authorization_code_used"`
	Metadata              map[string]any  `json:"metadata,omitempty"`
}

// NewActionLog creates a log entry with a fresh id and UTC timestamp.
func NewActionLog(actor string, mode InteractionMode, objectType ObjectType, objectRef, action, reason string, status ActionStatus, userID string) *ActionLog {
	return &ActionLog{
		LogID:      "log_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12],
		Timestamp:  time.Now().UTC(),
		Actor:      actor,
		Mode:       mode,
		ObjectType: objectType,
		ObjectRef:  objectRef,
		Action:     action,
		Reason:     reason,
		Status:     status,
		UserID:     userID,
		Metadata:   map[string]any{},
	}
}

// ToMap flattens the entry for the log sink.
func (l *ActionLog) ToMap() map[string]any {
	return map[string]any{
		"log_id":      l.LogID,
		"timestamp":   l.Timestamp.Format(time.RFC3339),
		"actor":       l.Actor,
		"mode":        string(l.Mode),
		"object_type": string(l.ObjectType),
		"object_ref":  l.ObjectRef,
		"action":      l.Action,
		"reason":      l.Reason,
		"status": map[string]any{
			"status":         string(l.Status.Status),
			"status_message": l.Status.StatusMessage,
			"updated_at":     l.Status.UpdatedAt.Format(time.RFC3339),
		},
		"user_id":                 l.UserID,
		"authorization_code_used": l.AuthorizationCodeUsed,
		"metadata":                l.Metadata,
	}
}
