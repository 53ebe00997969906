package llm

import "time"

// Error message templates
const (
	errRateLimiter          = "rate limiter error: %w"
	errOpenAIChatCompletion = "openai chat completion error: %w"
)

// Error format strings for API clients
const (
	errFmtMarshalRequest = "marshal request: %w"
	errFmtCreateRequest  = "create request: %w"
	errFmtReadResponse   = "read response: %w"
	errFmtPollFailed     = "%w: request %s: %s"
)

// HTTP header values
const (
	contentTypeJSON     = "application/json"
	headerAuthorization = "Authorization"
	headerContentType   = "Content-Type"
	bearerPrefix        = "Bearer "
)

// Polling API paths and statuses
const (
	pollingRequestsPath  = "/requests"
	pollStatusSuccess    = "success"
	pollStatusError      = "error"
	defaultPollInterval  = 2 * time.Second
	pollingClientTimeout = 30 * time.Second
)

// Log key strings
const (
	logKeyModel        = "model"
	logKeyAttempt      = "attempt"
	logKeyDelay        = "delay"
	logKeyRequestID    = "request_id"
	logKeyOutputTokens = "output_tokens"
)

// Attempt outcome labels
const (
	attemptSuccess  = "success"
	attemptFailure  = "failure"
	attemptCanceled = "canceled"
)

// Numeric constants
const (
	rateLimiterBurst    = 1
	truncateLengthError = 500
	tokensPerMillion    = 1000000.0
)

// Mock client constants
const (
	llmAPIKeyMock = "mock"
	mockModel     = "mock"
)
