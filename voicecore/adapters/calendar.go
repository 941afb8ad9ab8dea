package adapters

import (
	"context"
	"time"
)

// Event is one calendar event as surfaced by a calendar provider.
type Event struct {
	EventID     string    `json:"event_id"`
	Title       string    `json:"title"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Attendees   []string  `json:"attendees,omitempty"`
	Organizer   string    `json:"organizer,omitempty"`
	Location    string    `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status,omitempty"` // needsAction, accepted, declined, tentative
}

// Slot is one free/busy time slot.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// EventResult is the outcome of a calendar mutation.
type EventResult struct {
	EventID string `json:"event_id"`
	Success bool   `json:"success"`
}

// Availability is the result of a free/busy check.
type Availability struct {
	Available bool    `json:"available"`
	Conflicts []Event `json:"conflicts,omitempty"`
	FreeSlots []Slot  `json:"free_slots,omitempty"`
}

// EventSpec describes a new event to create.
type EventSpec struct {
	Title       string
	Start       time.Time
	End         time.Time
	Attendees   []string
	Description string
	Location    string
	CalendarID  string
}

// CalendarProvider is the contract every calendar backend must implement.
type CalendarProvider interface {
	// GetEvents fetches events within a time range.
	GetEvents(ctx context.Context, start, end time.Time, calendarID string) ([]Event, error)

	// GetEvent returns the full event for an id.
	GetEvent(ctx context.Context, eventID string) (*Event, error)

	// CreateEvent creates a new event.
	CreateEvent(ctx context.Context, spec EventSpec) (*EventResult, error)

	// AcceptEvent accepts a calendar invite.
	AcceptEvent(ctx context.Context, eventID string) (*EventResult, error)

	// DeclineEvent declines an invite, optionally with a message.
	DeclineEvent(ctx context.Context, eventID, message string) (*EventResult, error)

	// ProposeAlternative proposes alternative times to the organizer.
	ProposeAlternative(ctx context.Context, eventID string, times []Slot, message string) (*EventResult, error)

	// CheckAvailability reports free/busy for a time slot.
	CheckAvailability(ctx context.Context, start, end time.Time) (*Availability, error)

	// DeleteEvent deletes an event.
	DeleteEvent(ctx context.Context, eventID string) (bool, error)
}
