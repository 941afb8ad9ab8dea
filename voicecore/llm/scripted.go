package llm

import (
	"context"
	"sync"
)

// Scripted is a Provider that replays canned responses in order. It is the
// standard stand-in for a real backend in tests and the demo binary.
type Scripted struct {
	mu        sync.Mutex
	responses []string
	index     int

	// Err, when set, is returned on every Invoke instead of a response.
	Err error
	// Calls counts invocations, including failed ones.
	Calls int
	// LastPrompt keeps the most recent prompt for assertions.
	LastPrompt string
}

// NewScripted creates a Scripted provider that cycles through responses.
func NewScripted(responses ...string) *Scripted {
	return &Scripted{responses: responses}
}

func (s *Scripted) Invoke(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Calls++
	s.LastPrompt = prompt

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.Err != nil {
		return "", s.Err
	}
	if len(s.responses) == 0 {
		return "", nil
	}
	resp := s.responses[s.index%len(s.responses)]
	s.index++
	return resp, nil
}

var _ Provider = (*Scripted)(nil)
