package agents

import (
	"strings"

	"github.com/execdesk-labs/voiceassist/voicecore/state"
)

// Deterministic keyword extraction from free-text model output. Different
// backends format their answers differently, so the pipeline matches
// substrings instead of re-parsing structured output: lower precision,
// but resilient to formatting drift.

// ExtractPriority derives a priority bucket and reason from reasoning text.
func ExtractPriority(reasoning string) (state.Priority, string) {
	lower := strings.ToLower(reasoning)
	switch {
	case strings.Contains(lower, "high priority") || strings.Contains(lower, "urgent"):
		return state.PriorityHigh, "Urgent or high-priority sender"
	case strings.Contains(lower, "low priority"):
		return state.PriorityLow, "Routine or informational"
	default:
		return state.PriorityMedium, "Standard priority"
	}
}

// ExtractAction derives a recommended action from reasoning text.
// Checked in fixed order; the first match wins.
func ExtractAction(reasoning string) string {
	lower := strings.ToLower(reasoning)
	switch {
	case strings.Contains(lower, "draft a reply") || strings.Contains(lower, "respond"):
		return "draft_reply"
	case strings.Contains(lower, "decline"):
		return "decline_meeting"
	case strings.Contains(lower, "accept"):
		return "accept_meeting"
	case strings.Contains(lower, "schedule"):
		return "propose_meeting"
	default:
		return "review"
	}
}

// MapCalendarActionType maps a recommended-action string to a calendar
// action type. Tie-break order: accept > decline > propose > create.
func MapCalendarActionType(action string) state.CalendarActionType {
	lower := strings.ToLower(action)
	switch {
	case strings.Contains(lower, "accept"):
		return state.CalendarAcceptInvite
	case strings.Contains(lower, "decline"):
		return state.CalendarDeclineInvite
	case strings.Contains(lower, "propose") || strings.Contains(lower, "alternative"):
		return state.CalendarProposeAlternative
	default:
		return state.CalendarCreateEvent
	}
}

// MapProposedStatus maps a recommended-action string to the attendance
// status the calendar action would set.
func MapProposedStatus(action string) state.ProposedStatus {
	lower := strings.ToLower(action)
	switch {
	case strings.Contains(lower, "accept"):
		return state.StatusAccept
	case strings.Contains(lower, "decline"):
		return state.StatusDecline
	case strings.Contains(lower, "propose"):
		return state.StatusProposeAlternative
	default:
		return state.StatusTentative
	}
}
