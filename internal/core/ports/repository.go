// Package ports provides domain-centric interfaces for external dependencies.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern,
// allowing business logic to remain independent of infrastructure concerns.
package ports

import (
	"context"
	"time"

	"github.com/lueurxax/chat-digest-bot/internal/core/domain"
)

// MessageRepository persists encrypted chat messages.
type MessageRepository interface {
	// SaveMessage upserts the chat and author and inserts the message in one
	// transaction. newChat reports whether the chat was seen for the first time,
	// in which case the default schedule has been created as well.
	SaveMessage(ctx context.Context, msg domain.NewMessage) (ref domain.MessageRef, newChat bool, err error)

	// MessagesBetween returns messages of a chat with from <= timestamp < until,
	// ascending by (timestamp, id).
	MessagesBetween(ctx context.Context, chatID int64, from, until time.Time) ([]domain.Message, error)

	// RecentMessages returns at most limit messages of a chat, most recent first.
	RecentMessages(ctx context.Context, chatID int64, limit int) ([]domain.Message, error)
}

// ScheduleRegistry stores per-subscriber digest schedules.
type ScheduleRegistry interface {
	SetSchedule(ctx context.Context, subscriberID, chatID int64, freq domain.Frequency, now time.Time) error
	GetSchedule(ctx context.Context, subscriberID int64) (domain.Schedule, error)
	Advance(ctx context.Context, subscriberID int64) (domain.Schedule, error)
	DueSubscribers(ctx context.Context, asOf time.Time) ([]domain.Subscriber, error)
}

// TickLocker serializes scheduler ticks across processes sharing a database.
type TickLocker interface {
	// WithTryLock runs fn only if the lock could be taken. ran is false when
	// another holder owns it.
	WithTryLock(ctx context.Context, lockID int64, fn func(ctx context.Context) error) (ran bool, err error)
}

// FormatMode selects how the chat transport renders outgoing text.
type FormatMode int

// Format modes.
const (
	FormatPlain FormatMode = iota
	FormatMarkdown
)

// Sender delivers text to a chat.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string, mode FormatMode) error
}
