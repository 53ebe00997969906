// Package llm talks to the completion API that writes digests.
//
// Two transports are supported: an OpenAI-compatible chat endpoint (go-openai
// with a custom base URL) and a submit-then-poll request API. Both are wrapped
// by a rate limiter and by Retrying, which turns repeated failures into a
// single *UpstreamError.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/lueurxax/chat-digest-bot/internal/core/errors"
	"github.com/lueurxax/chat-digest-bot/internal/platform/config"
)

// Request is a single completion call.
type Request struct {
	SystemPrompt string
	UserPrompt   string
}

// Completion is the generated text and what it cost.
type Completion struct {
	Text  string
	Cost  float64
	Model string
}

// Completer produces a completion for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

// StatusError is returned when the API answers with a non-success status.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion API returned status %d: %s", e.Status, truncate(e.Body, truncateLengthError))
}

// UpstreamError is returned once every attempt has failed.
type UpstreamError struct {
	Status   int
	Body     string
	Attempts int
	Last     error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s after %d attempts: status %d: %s", apperrors.ErrUpstream, e.Attempts, e.Status, truncate(e.Body, truncateLengthError))
	}

	return fmt.Sprintf("%s after %d attempts: %v", apperrors.ErrUpstream, e.Attempts, e.Last)
}

func (e *UpstreamError) Unwrap() []error {
	if e.Last == nil {
		return []error{apperrors.ErrUpstream}
	}

	return []error{apperrors.ErrUpstream, e.Last}
}

// New builds the configured completer: transport, rate limiter and retries.
func New(cfg *config.Config, logger *zerolog.Logger) (Completer, error) {
	var base Completer

	switch {
	case cfg.LLMAPIKey == llmAPIKeyMock:
		base = NewMock()
	case cfg.LLMTransport == config.LLMTransportPolling:
		base = NewPolling(PollingOptions{
			BaseURL:      cfg.LLMBaseURL,
			APIKey:       cfg.LLMAPIKey,
			Model:        cfg.LLMModel,
			MaxTokens:    cfg.LLMMaxTokens,
			Temperature:  cfg.LLMTemperature,
			PollInterval: cfg.LLMPollInterval,
		}, logger)
	case cfg.LLMTransport == config.LLMTransportChat:
		base = NewChat(ChatOptions{
			BaseURL:     cfg.LLMBaseURL,
			APIKey:      cfg.LLMAPIKey,
			Model:       cfg.LLMModel,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
			Pricing: Pricing{
				PromptPer1M:     cfg.LLMPromptPricePer1M,
				CompletionPer1M: cfg.LLMCompletionPricePer1M,
			},
		}, logger)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownLLMTransport, cfg.LLMTransport)
	}

	limited := NewRateLimited(base, cfg.RateLimitRPS)

	return NewRetrying(limited, RetryConfig{
		Attempts:       cfg.LLMRetryAttempts,
		BaseDelay:      cfg.LLMRetryBaseDelay,
		MaxDelay:       cfg.LLMRetryMaxDelay,
		AttemptTimeout: cfg.LLMTimeout,
	}, logger), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n]) + "..."
}

func since(start time.Time) float64 {
	return time.Since(start).Seconds()
}
