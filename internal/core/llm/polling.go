package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/lueurxax/chat-digest-bot/internal/core/errors"
	"github.com/lueurxax/chat-digest-bot/internal/platform/observability"
	"github.com/lueurxax/chat-digest-bot/internal/platform/worker"
)

// PollingOptions configures the submit-then-poll transport.
type PollingOptions struct {
	BaseURL      string
	APIKey       string
	Model        string
	MaxTokens    int
	Temperature  float32
	PollInterval time.Duration
	HTTPClient   *http.Client
}

type pollingClient struct {
	opts       PollingOptions
	httpClient *http.Client
	logger     *zerolog.Logger
}

type pollingMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type pollingSubmitRequest struct {
	Model       string           `json:"model"`
	Messages    []pollingMessage `json:"messages"`
	MaxTokens   int              `json:"max_tokens,omitempty"`
	Temperature float32          `json:"temperature"`
}

type pollingSubmitResponse struct {
	RequestID string `json:"request_id"`
	ID        string `json:"id"`
}

type pollingStatusResponse struct {
	Status string  `json:"status"`
	Output string  `json:"output"`
	Cost   float64 `json:"cost"`
	Error  string  `json:"error"`
}

// NewPolling creates a client that submits a request and polls until it settles.
func NewPolling(opts PollingOptions, logger *zerolog.Logger) Completer {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: pollingClientTimeout}
	}

	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	return &pollingClient{
		opts:       opts,
		httpClient: httpClient,
		logger:     logger,
	}
}

func (c *pollingClient) Complete(ctx context.Context, req Request) (Completion, error) {
	start := time.Now()
	defer func() {
		observability.LLMRequestDuration.WithLabelValues(c.opts.Model).Observe(since(start))
	}()

	id, err := c.submit(ctx, req)
	if err != nil {
		return Completion{}, err
	}

	c.logger.Debug().Str(logKeyRequestID, id).Msg("completion request submitted")

	for {
		st, err := c.status(ctx, id)
		if err != nil {
			return Completion{}, err
		}

		switch st.Status {
		case pollStatusSuccess:
			if strings.TrimSpace(st.Output) == "" {
				return Completion{}, apperrors.ErrEmptyResponse
			}

			return Completion{Text: st.Output, Cost: st.Cost, Model: c.opts.Model}, nil
		case pollStatusError:
			return Completion{}, fmt.Errorf(errFmtPollFailed, apperrors.ErrUpstream, id, st.Error)
		}

		if err := worker.Wait(ctx, c.opts.PollInterval); err != nil {
			return Completion{}, err
		}
	}
}

func (c *pollingClient) submit(ctx context.Context, req Request) (string, error) {
	reqBody := pollingSubmitRequest{
		Model: c.opts.Model,
		Messages: []pollingMessage{
			{Role: "system", Content: req.SystemPrompt},
			{Role: "user", Content: req.UserPrompt},
		},
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
		return "", fmt.Errorf(errFmtMarshalRequest, err)
	}

	body, err := c.do(ctx, http.MethodPost, c.opts.BaseURL+pollingRequestsPath, &buf)
	if err != nil {
		return "", err
	}

	var resp pollingSubmitResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrMalformedResponse, err)
	}

	id := resp.RequestID
	if id == "" {
		id = resp.ID
	}

	if id == "" {
		return "", fmt.Errorf("%w: missing request id", apperrors.ErrMalformedResponse)
	}

	return id, nil
}

func (c *pollingClient) status(ctx context.Context, id string) (pollingStatusResponse, error) {
	body, err := c.do(ctx, http.MethodGet, c.opts.BaseURL+pollingRequestsPath+"/"+id, nil)
	if err != nil {
		return pollingStatusResponse{}, err
	}

	var st pollingStatusResponse
	if err := json.Unmarshal(body, &st); err != nil {
		return pollingStatusResponse{}, fmt.Errorf("%w: %w", apperrors.ErrMalformedResponse, err)
	}

	return st, nil
}

func (c *pollingClient) do(ctx context.Context, method, url string, payload io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return nil, fmt.Errorf(errFmtCreateRequest, err)
	}

	req.Header.Set(headerAuthorization, bearerPrefix+c.opts.APIKey)

	if payload != nil {
		req.Header.Set(headerContentType, contentTypeJSON)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf(errFmtReadResponse, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Status: resp.StatusCode, Body: string(body)}
	}

	return body, nil
}
