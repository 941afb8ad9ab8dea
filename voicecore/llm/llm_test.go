package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackendKindFromString(t *testing.T) {
	t.Run("valid kinds", func(t *testing.T) {
		for _, v := range []string{"openai", "anthropic", "gemini", "deepseek", "ollama", "mock"} {
			kind, err := BackendKindFromString(v)
			require.NoError(t, err)
			assert.Equal(t, BackendKind(v), kind)
		}
	})

	t.Run("case insensitive", func(t *testing.T) {
		kind, err := BackendKindFromString("OpenAI")
		require.NoError(t, err)
		assert.Equal(t, KindOpenAI, kind)
	})

	t.Run("invalid kind", func(t *testing.T) {
		_, err := BackendKindFromString("cohere")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Must be one of")
	})
}

func TestParseBackendSpec(t *testing.T) {
	kind, model, err := ParseBackendSpec("openai:gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, KindOpenAI, kind)
	assert.Equal(t, "gpt-4o", model)

	for _, bad := range []string{"", "openai", "openai:", "nope:model"} {
		_, _, err := ParseBackendSpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestIsCapacityError(t *testing.T) {
	capacity := []error{
		errors.New("model context length exceeded"),
		errors.New("Rate limit reached for requests"),
		errors.New("llm api status 429: too many requests"),
		errors.New("monthly quota exhausted"),
		errors.New("server overloaded, retry later"),
	}
	for _, err := range capacity {
		assert.True(t, IsCapacityError(err), err.Error())
	}

	assert.False(t, IsCapacityError(nil))
	assert.False(t, IsCapacityError(errors.New("connection refused")))
	assert.False(t, IsCapacityError(errors.New("invalid api key")))
}

func TestScripted(t *testing.T) {
	t.Run("cycles responses", func(t *testing.T) {
		s := NewScripted("a", "b")
		ctx := context.Background()

		for _, want := range []string{"a", "b", "a"} {
			got, err := s.Invoke(ctx, "prompt")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		}
		assert.Equal(t, 3, s.Calls)
		assert.Equal(t, "prompt", s.LastPrompt)
	})

	t.Run("returns configured error", func(t *testing.T) {
		s := NewScripted("unused")
		s.Err = errors.New("rate limit")
		_, err := s.Invoke(context.Background(), "p")
		assert.Error(t, err)
		assert.Equal(t, 1, s.Calls)
	})

	t.Run("honors cancelled context", func(t *testing.T) {
		s := NewScripted("a")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := s.Invoke(ctx, "p")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestFactory(t *testing.T) {
	t.Run("builds known kinds", func(t *testing.T) {
		f := NewFactory(FactoryOptions{OpenAIKey: "k"})
		b, err := f.Build("openai:gpt-4o")
		require.NoError(t, err)
		assert.Equal(t, "openai:gpt-4o", b.Name())
		assert.NotNil(t, b.Provider)
	})

	t.Run("mock kind requires registration", func(t *testing.T) {
		f := NewFactory(FactoryOptions{})
		_, err := f.Build("mock:test")
		assert.Error(t, err)

		f = NewFactory(FactoryOptions{Mocks: map[string]Provider{"test": NewScripted("ok")}})
		b, err := f.Build("mock:test")
		require.NoError(t, err)
		out, err := b.Provider.Invoke(context.Background(), "p")
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
	})

	t.Run("BuildAll fails on first bad spec", func(t *testing.T) {
		f := NewFactory(FactoryOptions{})
		_, err := f.BuildAll([]string{"openai:gpt-4o", "broken"})
		assert.Error(t, err)
	})
}

func TestChatProvider(t *testing.T) {
	t.Run("parses completion", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
			w.Write([]byte(`{"choices":[{"message":{"content":"hello"}}]}`))
		}))
		defer srv.Close()

		p := &chatProvider{client: srv.Client(), url: srv.URL, apiKey: "k", model: "gpt-4o"}
		out, err := p.Invoke(context.Background(), "hi")
		require.NoError(t, err)
		assert.Equal(t, "hello", out)
	})

	t.Run("non-200 surfaces as error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate limit"}`))
		}))
		defer srv.Close()

		p := &chatProvider{client: srv.Client(), url: srv.URL, model: "gpt-4o"}
		_, err := p.Invoke(context.Background(), "hi")
		require.Error(t, err)
		assert.True(t, IsCapacityError(err))
	})

	t.Run("empty choices rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		p := &chatProvider{client: srv.Client(), url: srv.URL, model: "gpt-4o"}
		_, err := p.Invoke(context.Background(), "hi")
		assert.Error(t, err)
	})
}

func TestInstrumentPreservesBehavior(t *testing.T) {
	s := NewScripted("out")
	b := Instrument(Backend{Kind: KindMock, Model: "test", Provider: s})

	out, err := b.Provider.Invoke(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "out", out)
	assert.Equal(t, 1, s.Calls)

	s.Err = errors.New("quota")
	_, err = b.Provider.Invoke(context.Background(), "p")
	assert.Error(t, err)
}
