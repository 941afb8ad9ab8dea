// Package authz implements the one-time authorization codes that gate
// side-effecting actions.
//
// Features:
//   - Cryptographically random numeric codes
//   - Per-code expiry and attempt budget
//   - Single use enforcement
//   - Pluggable code storage
//
// A code belongs to exactly one action. Verification consumes the code on
// success and burns an attempt on failure; a code with no attempts left is
// dead even before it expires.
package authz

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// =============================================================================
// CODE
// =============================================================================

// Code is one issued authorization code and its lifecycle counters.
type Code struct {
	Code        string     `json:"code"`
	ActionID    string     `json:"action_id"`
	ActionType  string     `json:"action_type"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Used        bool       `json:"used"`
	UsedAt      *time.Time `json:"used_at,omitempty"`
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
}

// IsValidAt reports whether the code can still be redeemed at the instant.
func (c *Code) IsValidAt(now time.Time) bool {
	return !c.Used && c.Attempts < c.MaxAttempts && !now.After(c.ExpiresAt)
}

// =============================================================================
// STORE
// =============================================================================

// CodeStore persists issued codes keyed by action id.
type CodeStore interface {
	// Put stores a code, replacing any previous code for the same action.
	Put(code *Code) error
	// Get returns the code for an action id.
	Get(actionID string) (*Code, bool)
	// Update persists counter mutations on an already stored code.
	Update(code *Code) error
	// Delete removes the code for an action id.
	Delete(actionID string)
}

// =============================================================================
// SERVICE
// =============================================================================

// Service issues and verifies authorization codes.
type Service struct {
	store       CodeStore
	codeLength  int
	ttl         time.Duration
	maxAttempts int

	now func() time.Time
}

// NewService creates a Service.
func NewService(store CodeStore, codeLength int, ttl time.Duration, maxAttempts int) *Service {
	return &Service{
		store:       store,
		codeLength:  codeLength,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

// Issue generates and stores a fresh code for an action. Re-issuing for the
// same action replaces the previous code.
func (s *Service) Issue(actionID, actionType string) (*Code, error) {
	digits, err := randomDigits(s.codeLength)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	now := s.now().UTC()
	code := &Code{
		Code:        digits,
		ActionID:    actionID,
		ActionType:  actionType,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.ttl),
		MaxAttempts: s.maxAttempts,
	}
	if err := s.store.Put(code); err != nil {
		return nil, err
	}
	return code, nil
}

// Verify checks a supplied code against the pending actions. When
// targetActionID is non-empty only that action's code is checked; otherwise
// the first pending action whose code matches wins.
//
// Every checked code burns an attempt regardless of outcome. A successful
// match marks the code used so it can never be redeemed twice.
func (s *Service) Verify(supplied string, pendingActionIDs []string, targetActionID string) (string, bool) {
	if supplied == "" {
		return "", false
	}

	candidates := pendingActionIDs
	if targetActionID != "" {
		candidates = nil
		for _, id := range pendingActionIDs {
			if id == targetActionID {
				candidates = []string{id}
				break
			}
		}
	}

	now := s.now().UTC()
	for _, actionID := range candidates {
		code, ok := s.store.Get(actionID)
		if !ok {
			continue
		}

		valid := code.IsValidAt(now)
		code.Attempts++
		if valid && code.Code == supplied {
			code.Used = true
			usedAt := now
			code.UsedAt = &usedAt
			_ = s.store.Update(code)
			return actionID, true
		}
		_ = s.store.Update(code)
	}
	return "", false
}

// HasCode reports whether an action already has an issued code.
func (s *Service) HasCode(actionID string) bool {
	_, ok := s.store.Get(actionID)
	return ok
}

// Revoke drops the code for an action, if any.
func (s *Service) Revoke(actionID string) {
	s.store.Delete(actionID)
}

// =============================================================================
// GENERATION
// =============================================================================

// randomDigits returns n decimal digits from crypto/rand. Leading zeros are
// allowed; the code is an opaque string, not a number.
func randomDigits(n int) (string, error) {
	out := make([]byte, n)
	for i := range out {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		out[i] = byte('0' + d.Int64())
	}
	return string(out), nil
}
