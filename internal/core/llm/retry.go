package llm

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/chat-digest-bot/internal/platform/observability"
	"github.com/lueurxax/chat-digest-bot/internal/platform/worker"
)

const (
	defaultRetryAttempts  = 5
	defaultRetryBaseDelay = time.Second
	defaultRetryMaxDelay  = 30 * time.Second
)

// RetryConfig configures retry behavior for completion calls.
type RetryConfig struct {
	Attempts       int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	AttemptTimeout time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:  defaultRetryAttempts,
		BaseDelay: defaultRetryBaseDelay,
		MaxDelay:  defaultRetryMaxDelay,
	}
}

// Retrying retries a Completer with exponential backoff and full jitter.
type Retrying struct {
	next   Completer
	cfg    RetryConfig
	logger *zerolog.Logger

	// jitter picks the actual sleep in [0, ceiling].
	jitter func(ceiling time.Duration) time.Duration
	wait   func(ctx context.Context, d time.Duration) error
}

// NewRetrying wraps next. Zero fields in cfg fall back to DefaultRetryConfig.
func NewRetrying(next Completer, cfg RetryConfig, logger *zerolog.Logger) *Retrying {
	def := DefaultRetryConfig()

	if cfg.Attempts <= 0 {
		cfg.Attempts = def.Attempts
	}

	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}

	if cfg.MaxDelay < cfg.BaseDelay {
		cfg.MaxDelay = max(def.MaxDelay, cfg.BaseDelay)
	}

	return &Retrying{
		next:   next,
		cfg:    cfg,
		logger: logger,
		jitter: fullJitter,
		wait:   worker.Wait,
	}
}

// Complete calls the wrapped completer until it succeeds, attempts run out or
// ctx is done. Cancellation of ctx is returned as is and never retried.
func (r *Retrying) Complete(ctx context.Context, req Request) (Completion, error) {
	var lastErr error

	for attempt := 0; attempt < r.cfg.Attempts; attempt++ {
		if attempt > 0 {
			delay := r.jitter(r.backoff(attempt))

			r.logger.Warn().
				Err(lastErr).
				Int(logKeyAttempt, attempt).
				Dur(logKeyDelay, delay).
				Msg("completion attempt failed, retrying")

			if err := r.wait(ctx, delay); err != nil {
				observability.LLMAttempts.WithLabelValues(attemptCanceled).Inc()

				return Completion{}, fmt.Errorf("completion retry interrupted: %w", err)
			}
		}

		var out Completion

		err := worker.RunWithTimeout(ctx, r.cfg.AttemptTimeout, func(attemptCtx context.Context) error {
			var callErr error

			out, callErr = r.next.Complete(attemptCtx, req)

			return callErr
		})
		if err == nil {
			observability.LLMAttempts.WithLabelValues(attemptSuccess).Inc()

			return out, nil
		}

		if ctx.Err() != nil {
			observability.LLMAttempts.WithLabelValues(attemptCanceled).Inc()

			return Completion{}, fmt.Errorf("completion canceled: %w", ctx.Err())
		}

		observability.LLMAttempts.WithLabelValues(attemptFailure).Inc()

		lastErr = err
	}

	return Completion{}, newUpstreamError(lastErr, r.cfg.Attempts)
}

// backoff returns the jitter ceiling before the given retry (1-based).
func (r *Retrying) backoff(retry int) time.Duration {
	return worker.BackoffCeiling(r.cfg.BaseDelay, r.cfg.MaxDelay, retry)
}

func fullJitter(ceiling time.Duration) time.Duration {
	if ceiling <= 0 {
		return 0
	}

	return time.Duration(rand.Int64N(int64(ceiling) + 1))
}

func newUpstreamError(last error, attempts int) *UpstreamError {
	ue := &UpstreamError{Attempts: attempts, Last: last}

	var statusErr *StatusError
	if errors.As(last, &statusErr) {
		ue.Status = statusErr.Status
		ue.Body = statusErr.Body
	}

	return ue
}
