// Package state provides the pipeline state record and the entity types
// that flow through it.
//
// One State is created per incoming query, mutated in place by each
// pipeline stage, and discarded after the final response is emitted.
package state

import (
	"fmt"
	"strings"
)

// =============================================================================
// ENUMS
// =============================================================================

// Intent is the closed-set classification of a user goal.
type Intent string

const (
	IntentTriageInbox     Intent = "triage_inbox"
	IntentDraftReply      Intent = "draft_reply"
	IntentScheduleMeeting Intent = "schedule_meeting"
	IntentCheckCalendar   Intent = "check_calendar"
	IntentFollowUp        Intent = "follow_up"
	IntentSummarize       Intent = "summarize"
	IntentConfig          Intent = "config"
	IntentUnknown         Intent = "unknown"
)

// IntentFromString parses an intent string.
func IntentFromString(value string) (Intent, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "triage_inbox":
		return IntentTriageInbox, nil
	case "draft_reply":
		return IntentDraftReply, nil
	case "schedule_meeting":
		return IntentScheduleMeeting, nil
	case "check_calendar":
		return IntentCheckCalendar, nil
	case "follow_up":
		return IntentFollowUp, nil
	case "summarize":
		return IntentSummarize, nil
	case "config":
		return IntentConfig, nil
	case "unknown":
		return IntentUnknown, nil
	default:
		return "", fmt.Errorf("invalid intent '%s'. Must be one of: triage_inbox, draft_reply, schedule_meeting, check_calendar, follow_up, summarize, config, unknown", value)
	}
}

// NeedsEmailContext reports whether email threads and sender history should
// be fetched for this intent.
func (i Intent) NeedsEmailContext() bool {
	return i == IntentTriageInbox || i == IntentDraftReply || i == IntentSummarize
}

// NeedsCalendarContext reports whether calendar events and availability
// should be fetched for this intent.
func (i Intent) NeedsCalendarContext() bool {
	return i == IntentScheduleMeeting || i == IntentCheckCalendar || i == IntentSummarize
}

// NeedsFollowUpContext reports whether follow-up tasks should be fetched.
func (i Intent) NeedsFollowUpContext() bool {
	return i == IntentFollowUp || i == IntentSummarize
}

// InteractionMode represents how the user is interacting with the assistant.
type InteractionMode string

const (
	ModeVoice     InteractionMode = "voice"
	ModeText      InteractionMode = "text"
	ModeAutomated InteractionMode = "automated"
)

// InteractionModeFromString parses a mode string. Empty defaults to text.
func InteractionModeFromString(value string) (InteractionMode, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "voice":
		return ModeVoice, nil
	case "text", "":
		return ModeText, nil
	case "automated":
		return ModeAutomated, nil
	default:
		return "", fmt.Errorf("invalid interaction mode '%s'. Must be one of: voice, text, automated", value)
	}
}

// Tone represents the requested writing tone for drafted emails.
type Tone string

const (
	ToneWarm         Tone = "warm"
	ToneFormal       Tone = "formal"
	ToneDirect       Tone = "direct"
	ToneApologetic   Tone = "apologetic"
	ToneEnthusiastic Tone = "enthusiastic"
)

// ToneFromString parses a tone string. Empty defaults to warm.
func ToneFromString(value string) (Tone, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "warm", "":
		return ToneWarm, nil
	case "formal":
		return ToneFormal, nil
	case "direct":
		return ToneDirect, nil
	case "apologetic":
		return ToneApologetic, nil
	case "enthusiastic":
		return ToneEnthusiastic, nil
	default:
		return "", fmt.Errorf("invalid tone '%s'. Must be one of: warm, formal, direct, apologetic, enthusiastic", value)
	}
}

// CalendarActionType represents the kind of calendar mutation being proposed.
type CalendarActionType string

const (
	CalendarAcceptInvite       CalendarActionType = "accept_invite"
	CalendarDeclineInvite      CalendarActionType = "decline_invite"
	CalendarProposeAlternative CalendarActionType = "propose_alternative"
	CalendarCreateEvent        CalendarActionType = "create_event"
	CalendarBlockTime          CalendarActionType = "block_time"
	CalendarAddPrepTime        CalendarActionType = "add_prep_time"
)

// ProposedStatus is the attendance status a calendar action would set.
type ProposedStatus string

const (
	StatusAccept             ProposedStatus = "accept"
	StatusDecline            ProposedStatus = "decline"
	StatusProposeAlternative ProposedStatus = "propose_alternative"
	StatusTentative          ProposedStatus = "tentative"
)

// ObjectType classifies what an audit log entry refers to.
type ObjectType string

const (
	ObjectEmail    ObjectType = "email"
	ObjectCalendar ObjectType = "calendar"
	ObjectFollowUp ObjectType = "followup"
	ObjectSummary  ObjectType = "summary"
	ObjectConfig   ObjectType = "config"
)

// LogStatus is the lifecycle status recorded on an audit log entry.
type LogStatus string

const (
	LogStatusCompleted   LogStatus = "completed"
	LogStatusFailed      LogStatus = "failed"
	LogStatusPendingAuth LogStatus = "pending_user_auth"
	LogStatusDraftOnly   LogStatus = "draft_only"
)

// Priority buckets used by the reasoning stage.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)
