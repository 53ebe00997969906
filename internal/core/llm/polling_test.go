package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lueurxax/chat-digest-bot/internal/core/errors"
)

func newTestPolling(t *testing.T, handler http.Handler) Completer {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := zerolog.Nop()

	return NewPolling(PollingOptions{
		BaseURL:      srv.URL + "/",
		APIKey:       "sk-test",
		Model:        "deepseek-3",
		PollInterval: time.Millisecond,
	}, &logger)
}

func TestPollingClient_PollsUntilSuccess(t *testing.T) {
	var polls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /requests", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get(headerAuthorization))
		_, _ = w.Write([]byte(`{"request_id":"req-1"}`))
	})
	mux.HandleFunc("GET /requests/req-1", func(w http.ResponseWriter, _ *http.Request) {
		if polls.Add(1) < 3 {
			_, _ = w.Write([]byte(`{"status":"processing"}`))

			return
		}

		_, _ = w.Write([]byte(`{"status":"success","output":"digest text","cost":0.12}`))
	})

	c := newTestPolling(t, mux)

	out, err := c.Complete(context.Background(), Request{SystemPrompt: "s", UserPrompt: "u"})
	require.NoError(t, err)
	assert.Equal(t, "digest text", out.Text)
	assert.InDelta(t, 0.12, out.Cost, 1e-9)
	assert.Equal(t, int32(3), polls.Load())
}

func TestPollingClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		submit  string
		status  string
		code    int
		wantErr error
	}{
		{name: "remote error status", submit: `{"request_id":"a"}`, status: `{"status":"error","error":"overloaded"}`, code: http.StatusOK, wantErr: apperrors.ErrUpstream},
		{name: "malformed submit", submit: `not json`, code: http.StatusOK, wantErr: apperrors.ErrMalformedResponse},
		{name: "missing id", submit: `{}`, code: http.StatusOK, wantErr: apperrors.ErrMalformedResponse},
		{name: "empty output", submit: `{"id":"a"}`, status: `{"status":"success","output":"  "}`, code: http.StatusOK, wantErr: apperrors.ErrEmptyResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("POST /requests", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.submit))
			})
			mux.HandleFunc("GET /requests/a", func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.status))
			})

			_, err := newTestPolling(t, mux).Complete(context.Background(), Request{})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPollingClient_StatusError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /requests", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"slow down"}`))
	})

	_, err := newTestPolling(t, mux).Complete(context.Background(), Request{})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Status)
	assert.Contains(t, se.Body, "slow down")
}

func TestRateLimited_PassesThrough(t *testing.T) {
	c := NewRateLimited(NewMock(), 0)

	out, err := c.Complete(context.Background(), Request{UserPrompt: "Messages:\n1. hello"})
	require.NoError(t, err)
	assert.Contains(t, out.Text, "1. hello")
}
