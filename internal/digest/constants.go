package digest

import "time"

// ChunkSize is the largest digest part sent in one chat message, in characters.
const ChunkSize = 4000

// DefaultTickInterval is used when the configured tick interval cannot be parsed.
const DefaultTickInterval = time.Minute

// notifyTimeout bounds a failure notice sent after the job context is gone.
const notifyTimeout = 10 * time.Second

// User-facing notices
const (
	NoticeEmpty            = "No messages to summarize for this period."
	NoticeGenerating       = "Generating digest, please wait..."
	NoticeFailed           = "Digest generation failed. Please try again later."
	NoticeUnknownFrequency = "Digest frequency is misconfigured, use /schedule"
	NoticeScheduleNotFound = "Could not determine digest frequency, use /schedule to set one."
)

// Observability label constants
const (
	StatusDelivered = "delivered"
	StatusEmpty     = "empty"
	StatusError     = "error"
	StatusAdvance   = "advance_error"
	StatusOK        = "ok"
	StatusSkipped   = "skipped"
)

// Log field name constants
const (
	LogFieldCorrelationID = "correlation_id"
	LogFieldSubscriberID  = "subscriber_id"
	LogFieldChatID        = "chat_id"
	LogFieldKind          = "kind"
	LogFieldCount         = "count"
	LogFieldSkipped       = "skipped"
	LogFieldChunks        = "chunks"
	LogFieldCost          = "cost"
	LogFieldModel         = "model"
	LogFieldDuration      = "duration"
	LogFieldInterval      = "interval"
	LogFieldQueueDepth    = "queue_depth"
	LogFieldSince         = "since"
	LogFieldUntil         = "until"
	LogFieldOutcome       = "outcome"
)

// Log message constants
const (
	MsgFailedToProcessJob = "digest job failed"
	MsgFailedToNotify     = "failed to send failure notice"
)
