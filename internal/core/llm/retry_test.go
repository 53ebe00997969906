package llm

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lueurxax/chat-digest-bot/internal/core/errors"
	"github.com/lueurxax/chat-digest-bot/internal/platform/worker"
)

type scriptedCompleter struct {
	mu      sync.Mutex
	calls   int
	results []error
	text    string
}

func (s *scriptedCompleter) Complete(ctx context.Context, _ Request) (Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.calls
	s.calls++

	if idx < len(s.results) && s.results[idx] != nil {
		return Completion{}, s.results[idx]
	}

	return Completion{Text: s.text, Cost: 0.5}, ctx.Err()
}

func newTestRetrying(next Completer, attempts int) (*Retrying, *[]time.Duration) {
	logger := zerolog.Nop()
	r := NewRetrying(next, RetryConfig{
		Attempts:  attempts,
		BaseDelay: 100 * time.Millisecond,
		MaxDelay:  time.Second,
	}, &logger)

	var slept []time.Duration

	r.jitter = func(ceiling time.Duration) time.Duration { return ceiling }
	r.wait = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)

		return ctx.Err()
	}

	return r, &slept
}

func TestRetrying_SucceedsAfterFailures(t *testing.T) {
	next := &scriptedCompleter{
		results: []error{&StatusError{Status: http.StatusBadGateway}, errors.New("timeout")},
		text:    "digest",
	}

	r, slept := newTestRetrying(next, 5)

	got, err := r.Complete(context.Background(), Request{UserPrompt: "x"})
	require.NoError(t, err)
	assert.Equal(t, "digest", got.Text)
	assert.Equal(t, 3, next.calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *slept)
}

func TestRetrying_ExhaustsAttempts(t *testing.T) {
	fail := &StatusError{Status: http.StatusInternalServerError, Body: `{"error":"boom"}`}
	next := &scriptedCompleter{results: []error{fail, fail, fail, fail, fail, fail}}

	r, slept := newTestRetrying(next, 5)

	_, err := r.Complete(context.Background(), Request{})
	require.Error(t, err)
	assert.Equal(t, 5, next.calls)
	assert.Len(t, *slept, 4)
	assert.ErrorIs(t, err, apperrors.ErrUpstream)

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusInternalServerError, ue.Status)
	assert.Equal(t, `{"error":"boom"}`, ue.Body)
	assert.Equal(t, 5, ue.Attempts)
}

func TestRetrying_DoesNotRetryCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	next := &scriptedCompleter{results: []error{context.Canceled}}

	cancel()

	r, slept := newTestRetrying(next, 5)

	_, err := r.Complete(ctx, Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, apperrors.ErrUpstream)
	assert.Equal(t, 1, next.calls)
	assert.Empty(t, *slept)
}

func TestRetrying_BackoffBounds(t *testing.T) {
	logger := zerolog.Nop()
	r := NewRetrying(&scriptedCompleter{}, RetryConfig{
		Attempts:  10,
		BaseDelay: 100 * time.Millisecond,
		MaxDelay:  time.Second,
	}, &logger)

	tests := []struct {
		retry int
		want  time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{9, time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, r.backoff(tt.retry), "retry %d", tt.retry)
	}

	for range 100 {
		d := fullJitter(time.Second)
		assert.GreaterOrEqual(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, time.Second)
	}
}

func TestRetrying_AttemptTimeout(t *testing.T) {
	logger := zerolog.Nop()
	slow := completerFunc(func(ctx context.Context, _ Request) (Completion, error) {
		<-ctx.Done()

		return Completion{}, ctx.Err()
	})

	r := NewRetrying(slow, RetryConfig{
		Attempts:       2,
		BaseDelay:      time.Millisecond,
		MaxDelay:       time.Millisecond,
		AttemptTimeout: 5 * time.Millisecond,
	}, &logger)

	_, err := r.Complete(context.Background(), Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPricing_Estimate(t *testing.T) {
	p := Pricing{PromptPer1M: 2, CompletionPer1M: 10}

	assert.InDelta(t, 0.002+0.005, p.Estimate(1000, 500), 1e-12)
	assert.Zero(t, Pricing{}.Estimate(1000, 1000))
}

type completerFunc func(ctx context.Context, req Request) (Completion, error)

func (f completerFunc) Complete(ctx context.Context, req Request) (Completion, error) {
	return f(ctx, req)
}

func TestRetrying_HangingUpstreamWithinJobBudget(t *testing.T) {
	logger := zerolog.Nop()

	var (
		mu    sync.Mutex
		calls int
	)

	hanging := completerFunc(func(ctx context.Context, _ Request) (Completion, error) {
		mu.Lock()
		calls++
		mu.Unlock()

		<-ctx.Done()

		return Completion{}, ctx.Err()
	})

	cfg := RetryConfig{
		Attempts:       5,
		BaseDelay:      time.Millisecond,
		MaxDelay:       4 * time.Millisecond,
		AttemptTimeout: 20 * time.Millisecond,
	}
	r := NewRetrying(hanging, cfg, &logger)

	budget := worker.RetryBudget(cfg.Attempts, cfg.AttemptTimeout, cfg.BaseDelay, cfg.MaxDelay)

	jobCtx, cancel := context.WithTimeout(context.Background(), budget+time.Second)
	defer cancel()

	_, err := r.Complete(jobCtx, Request{})

	var upstream *UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 5, upstream.Attempts)
	assert.NoError(t, jobCtx.Err())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, calls)
}
