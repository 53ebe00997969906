// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Unexported errors (err*): Use for internal package errors
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Validation errors.
var (
	// ErrTooLong indicates a message exceeds the ingestion length cap.
	ErrTooLong = errors.New("message too long")
)

// Crypto errors.
var (
	// ErrKeyMissing indicates no encryption key is configured.
	ErrKeyMissing = errors.New("encryption key missing")

	// ErrInvalidKey indicates the configured encryption key cannot be decoded.
	ErrInvalidKey = errors.New("invalid encryption key")

	// ErrInvalidCiphertext indicates a token failed verification or decoding.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")

	// ErrDecryptFailed indicates one or more stored messages could not be decrypted.
	ErrDecryptFailed = errors.New("decrypt failed")
)

// Upstream errors.
var (
	// ErrUpstream indicates the completion API failed after all attempts.
	ErrUpstream = errors.New("upstream completion failed")

	// ErrEmptyResponse indicates an empty response was received.
	ErrEmptyResponse = errors.New("empty response")

	// ErrMalformedResponse indicates the response body could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")
)

// Schedule errors.
var (
	// ErrUnknownFrequency indicates a stored frequency is not one of the supported values.
	ErrUnknownFrequency = errors.New("unknown digest frequency")

	// ErrScheduleNotFound indicates no schedule exists for a subscriber.
	ErrScheduleNotFound = errors.New("schedule not found")
)

// Queue errors.
var (
	// ErrQueueClosed indicates the job queue no longer accepts or yields jobs.
	ErrQueueClosed = errors.New("job queue closed")
)
