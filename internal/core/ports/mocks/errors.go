package mocks

import "errors"

var (
	// ErrSendFailed is returned by Sender when FailOn matches a message.
	ErrSendFailed = errors.New("send failed")

	// ErrCompletionFailed is the default error returned by a failing Completer.
	ErrCompletionFailed = errors.New("completion failed")
)
