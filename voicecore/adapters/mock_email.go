package adapters

import (
	"context"
	"strings"
	"sync"
)

// MockEmailProvider is a configurable in-memory EmailProvider.
//
// Fixtures are set directly on the struct before use; every mutating call is
// recorded so tests can assert on exactly what was sent.
type MockEmailProvider struct {
	mu sync.Mutex

	// Fixtures
	Threads   []Thread
	Histories map[string]SenderHistory

	// Fail makes every call return ErrUnavailable.
	Fail bool

	// Recorded calls
	SentEmails   []SentEmail
	MarkedRead   []string
	Archived     []string
	HistoryCalls []string
}

// SentEmail captures one SendEmail invocation.
type SentEmail struct {
	To       []string
	CC       []string
	BCC      []string
	Subject  string
	Body     string
	ThreadID string
}

// NewMockEmailProvider creates an empty mock provider.
func NewMockEmailProvider(threads ...Thread) *MockEmailProvider {
	return &MockEmailProvider{
		Threads:   threads,
		Histories: map[string]SenderHistory{},
	}
}

func (m *MockEmailProvider) FetchThreads(_ context.Context, opts FetchOptions) ([]Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail {
		return nil, ErrUnavailable
	}

	out := make([]Thread, 0, len(m.Threads))
	for _, t := range m.Threads {
		if opts.UnreadOnly && !t.Unread {
			continue
		}
		out = append(out, t)
		if opts.MaxResults > 0 && len(out) >= opts.MaxResults {
			break
		}
	}
	return out, nil
}

func (m *MockEmailProvider) GetThread(_ context.Context, threadID string) (*Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail {
		return nil, ErrUnavailable
	}
	for i := range m.Threads {
		if m.Threads[i].ThreadID == threadID {
			t := m.Threads[i]
			return &t, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MockEmailProvider) SendEmail(_ context.Context, to []string, subject, body string, cc, bcc []string, threadID string) (*SendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail {
		return nil, ErrUnavailable
	}
	m.SentEmails = append(m.SentEmails, SentEmail{
		To: to, CC: cc, BCC: bcc, Subject: subject, Body: body, ThreadID: threadID,
	})
	return &SendResult{MessageID: "mock_msg_" + threadID, Success: true}, nil
}

func (m *MockEmailProvider) MarkRead(_ context.Context, threadID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail {
		return false, ErrUnavailable
	}
	m.MarkedRead = append(m.MarkedRead, threadID)
	return true, nil
}

func (m *MockEmailProvider) Archive(_ context.Context, threadID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail {
		return false, ErrUnavailable
	}
	m.Archived = append(m.Archived, threadID)
	return true, nil
}

func (m *MockEmailProvider) GetSenderHistory(_ context.Context, address string) (*SenderHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail {
		return nil, ErrUnavailable
	}
	m.HistoryCalls = append(m.HistoryCalls, address)
	if h, ok := m.Histories[address]; ok {
		hc := h
		return &hc, nil
	}
	return &SenderHistory{}, nil
}

func (m *MockEmailProvider) Search(_ context.Context, query string, maxResults int) ([]Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail {
		return nil, ErrUnavailable
	}
	out := make([]Thread, 0)
	needle := strings.ToLower(query)
	for _, t := range m.Threads {
		if strings.Contains(strings.ToLower(t.Subject), needle) ||
			strings.Contains(strings.ToLower(t.Preview), needle) ||
			strings.Contains(strings.ToLower(t.From), needle) {
			out = append(out, t)
		}
		if maxResults > 0 && len(out) >= maxResults {
			break
		}
	}
	return out, nil
}

// SendCount returns how many emails have been sent through this provider.
func (m *MockEmailProvider) SendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SentEmails)
}

var _ EmailProvider = (*MockEmailProvider)(nil)
