package authz

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	store := NewMemoryCodeStore(5 * time.Minute)
	return NewService(store, 6, 5*time.Minute, 3)
}

func TestIssue(t *testing.T) {
	svc := newTestService(t)

	code, err := svc.Issue("draft_1", "email")
	require.NoError(t, err)

	assert.Len(t, code.Code, 6)
	for _, r := range code.Code {
		assert.True(t, r >= '0' && r <= '9', "code must be numeric")
	}
	assert.Equal(t, "draft_1", code.ActionID)
	assert.False(t, code.Used)
	assert.Equal(t, 0, code.Attempts)
	assert.Equal(t, 3, code.MaxAttempts)
	assert.True(t, code.ExpiresAt.After(code.CreatedAt))

	t.Run("reissue replaces previous code", func(t *testing.T) {
		first := code.Code
		second, err := svc.Issue("draft_1", "email")
		require.NoError(t, err)

		if first != second.Code {
			_, ok := svc.Verify(first, []string{"draft_1"}, "")
			assert.False(t, ok, "old code must be dead after reissue")
		}
		_, ok := svc.Verify(second.Code, []string{"draft_1"}, "")
		assert.True(t, ok)
	})
}

func TestVerifySingleUse(t *testing.T) {
	svc := newTestService(t)
	code, err := svc.Issue("draft_1", "email")
	require.NoError(t, err)

	actionID, ok := svc.Verify(code.Code, []string{"draft_1"}, "")
	require.True(t, ok)
	assert.Equal(t, "draft_1", actionID)

	t.Run("same code cannot be redeemed twice", func(t *testing.T) {
		_, ok := svc.Verify(code.Code, []string{"draft_1"}, "")
		assert.False(t, ok)
	})
}

func TestVerifyAttemptBudget(t *testing.T) {
	svc := newTestService(t)
	code, err := svc.Issue("draft_1", "email")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, ok := svc.Verify("000000x", []string{"draft_1"}, "")
		assert.False(t, ok)
	}

	// Budget exhausted, even the correct code is refused now.
	_, ok := svc.Verify(code.Code, []string{"draft_1"}, "")
	assert.False(t, ok)
}

func TestVerifyExpiry(t *testing.T) {
	store := NewMemoryCodeStore(5 * time.Minute)
	svc := NewService(store, 6, 5*time.Minute, 3)

	code, err := svc.Issue("draft_1", "email")
	require.NoError(t, err)

	// Shift the service clock past expiry.
	svc.now = func() time.Time { return time.Now().Add(6 * time.Minute) }

	_, ok := svc.Verify(code.Code, []string{"draft_1"}, "")
	assert.False(t, ok, "expired code must be refused")
}

func TestVerifyAcrossPendingActions(t *testing.T) {
	svc := newTestService(t)

	codeA, err := svc.Issue("draft_a", "email")
	require.NoError(t, err)
	codeB, err := svc.Issue("cal_b", "calendar")
	require.NoError(t, err)

	t.Run("matches the right action without a target", func(t *testing.T) {
		actionID, ok := svc.Verify(codeB.Code, []string{"draft_a", "cal_b"}, "")
		require.True(t, ok)
		assert.Equal(t, "cal_b", actionID)
	})

	t.Run("target narrows verification to one action", func(t *testing.T) {
		// codeA is valid but the target points at cal_b, whose code is used.
		_, ok := svc.Verify(codeA.Code, []string{"draft_a", "cal_b"}, "cal_b")
		assert.False(t, ok)

		actionID, ok := svc.Verify(codeA.Code, []string{"draft_a", "cal_b"}, "draft_a")
		require.True(t, ok)
		assert.Equal(t, "draft_a", actionID)
	})

	t.Run("target outside pending set is refused", func(t *testing.T) {
		code, err := svc.Issue("draft_c", "email")
		require.NoError(t, err)
		_, ok := svc.Verify(code.Code, []string{"draft_a"}, "draft_c")
		assert.False(t, ok)
	})
}

func TestVerifyEdgeCases(t *testing.T) {
	svc := newTestService(t)

	t.Run("empty supplied code", func(t *testing.T) {
		_, ok := svc.Verify("", []string{"draft_1"}, "")
		assert.False(t, ok)
	})

	t.Run("no pending actions", func(t *testing.T) {
		_, ok := svc.Verify("123456", nil, "")
		assert.False(t, ok)
	})

	t.Run("pending action with no stored code", func(t *testing.T) {
		_, ok := svc.Verify("123456", []string{"ghost"}, "")
		assert.False(t, ok)
	})
}

func TestCodeIsValidAt(t *testing.T) {
	now := time.Now().UTC()
	code := &Code{
		Code:        "123456",
		ExpiresAt:   now.Add(time.Minute),
		MaxAttempts: 3,
	}

	assert.True(t, code.IsValidAt(now))

	used := *code
	used.Used = true
	assert.False(t, used.IsValidAt(now))

	burned := *code
	burned.Attempts = 3
	assert.False(t, burned.IsValidAt(now))

	assert.False(t, code.IsValidAt(now.Add(2*time.Minute)))
	assert.True(t, code.IsValidAt(code.ExpiresAt), "boundary instant is still valid")
}

func TestMemoryCodeStore(t *testing.T) {
	store := NewMemoryCodeStore(time.Minute)

	code := &Code{Code: "123456", ActionID: "draft_1", MaxAttempts: 3, ExpiresAt: time.Now().Add(time.Minute)}
	require.NoError(t, store.Put(code))

	t.Run("get returns a copy", func(t *testing.T) {
		got, ok := store.Get("draft_1")
		require.True(t, ok)
		got.Attempts = 99

		again, ok := store.Get("draft_1")
		require.True(t, ok)
		assert.Equal(t, 0, again.Attempts)
	})

	t.Run("update persists counters", func(t *testing.T) {
		got, _ := store.Get("draft_1")
		got.Attempts = 2
		require.NoError(t, store.Update(got))

		again, _ := store.Get("draft_1")
		assert.Equal(t, 2, again.Attempts)
	})

	t.Run("update of missing key is a no-op", func(t *testing.T) {
		assert.NoError(t, store.Update(&Code{ActionID: "ghost"}))
		_, ok := store.Get("ghost")
		assert.False(t, ok)
	})

	t.Run("delete", func(t *testing.T) {
		store.Delete("draft_1")
		_, ok := store.Get("draft_1")
		assert.False(t, ok)
	})
}
