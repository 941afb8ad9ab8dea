package adapters

import (
	"context"
	"sync"
	"time"
)

// MockCalendarProvider is a configurable in-memory CalendarProvider.
type MockCalendarProvider struct {
	mu sync.Mutex

	// Fixtures
	Events []Event
	Free   []Slot

	// Fail makes every call return ErrUnavailable.
	Fail bool

	// Recorded calls
	Accepted []string
	Declined []string
	Proposed []string
	Created  []EventSpec
	Deleted  []string
}

// NewMockCalendarProvider creates an empty mock provider.
func NewMockCalendarProvider(events ...Event) *MockCalendarProvider {
	return &MockCalendarProvider{Events: events}
}

func (m *MockCalendarProvider) GetEvents(_ context.Context, start, end time.Time, _ string) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail {
		return nil, ErrUnavailable
	}
	out := make([]Event, 0, len(m.Events))
	for _, e := range m.Events {
		if e.Start.Before(end) && e.End.After(start) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockCalendarProvider) GetEvent(_ context.Context, eventID string) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail {
		return nil, ErrUnavailable
	}
	for i := range m.Events {
		if m.Events[i].EventID == eventID {
			e := m.Events[i]
			return &e, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MockCalendarProvider) CreateEvent(_ context.Context, spec EventSpec) (*EventResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail {
		return nil, ErrUnavailable
	}
	m.Created = append(m.Created, spec)
	return &EventResult{EventID: "mock_evt_created", Success: true}, nil
}

func (m *MockCalendarProvider) AcceptEvent(_ context.Context, eventID string) (*EventResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail {
		return nil, ErrUnavailable
	}
	m.Accepted = append(m.Accepted, eventID)
	return &EventResult{EventID: eventID, Success: true}, nil
}

func (m *MockCalendarProvider) DeclineEvent(_ context.Context, eventID, _ string) (*EventResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail {
		return nil, ErrUnavailable
	}
	m.Declined = append(m.Declined, eventID)
	return &EventResult{EventID: eventID, Success: true}, nil
}

func (m *MockCalendarProvider) ProposeAlternative(_ context.Context, eventID string, _ []Slot, _ string) (*EventResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail {
		return nil, ErrUnavailable
	}
	m.Proposed = append(m.Proposed, eventID)
	return &EventResult{EventID: eventID, Success: true}, nil
}

func (m *MockCalendarProvider) CheckAvailability(_ context.Context, start, end time.Time) (*Availability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail {
		return nil, ErrUnavailable
	}
	conflicts := make([]Event, 0)
	for _, e := range m.Events {
		if e.Start.Before(end) && e.End.After(start) {
			conflicts = append(conflicts, e)
		}
	}
	return &Availability{
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
		FreeSlots: append([]Slot(nil), m.Free...),
	}, nil
}

func (m *MockCalendarProvider) DeleteEvent(_ context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail {
		return false, ErrUnavailable
	}
	m.Deleted = append(m.Deleted, eventID)
	return true, nil
}

var _ CalendarProvider = (*MockCalendarProvider)(nil)
