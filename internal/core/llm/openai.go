package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	apperrors "github.com/lueurxax/chat-digest-bot/internal/core/errors"
	"github.com/lueurxax/chat-digest-bot/internal/platform/observability"
)

// ChatOptions configures the OpenAI-compatible chat transport.
type ChatOptions struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Pricing     Pricing
}

type chatClient struct {
	opts   ChatOptions
	client *openai.Client
	logger *zerolog.Logger
}

// NewChat creates a chat-completions client pointed at opts.BaseURL.
func NewChat(opts ChatOptions, logger *zerolog.Logger) Completer {
	clientCfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}

	return &chatClient{
		opts:   opts,
		client: openai.NewClientWithConfig(clientCfg),
		logger: logger,
	}
}

func (c *chatClient) Complete(ctx context.Context, req Request) (Completion, error) {
	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserPrompt},
		},
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	})

	observability.LLMRequestDuration.WithLabelValues(c.opts.Model).Observe(since(start))

	if err != nil {
		return Completion{}, mapChatError(err)
	}

	if len(resp.Choices) == 0 {
		return Completion{}, apperrors.ErrEmptyResponse
	}

	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return Completion{}, apperrors.ErrEmptyResponse
	}

	if resp.Choices[0].FinishReason == openai.FinishReasonLength {
		c.logger.Warn().
			Str(logKeyModel, c.opts.Model).
			Int(logKeyOutputTokens, resp.Usage.CompletionTokens).
			Msg("completion truncated by max_tokens")
	}

	return Completion{
		Text:  text,
		Cost:  c.opts.Pricing.Estimate(resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
		Model: resp.Model,
	}, nil
}

// mapChatError converts go-openai errors into StatusError where a status is known.
func mapChatError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return &StatusError{Status: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return &StatusError{Status: reqErr.HTTPStatusCode, Body: string(reqErr.Body)}
	}

	return fmt.Errorf(errOpenAIChatCompletion, err)
}
