package digest

import (
	"context"
	"time"
)

// MessageSource reads decrypted chat messages for a digest window.
type MessageSource interface {
	// QueryWindow returns messages in [since, until), oldest first.
	QueryWindow(ctx context.Context, chatID int64, since, until time.Time) ([]string, error)
	// QueryRecent returns at most limit messages, newest first.
	QueryRecent(ctx context.Context, chatID int64, limit int) ([]string, error)
}
