package bot

import "time"

// Command names.
const (
	CmdStart    = "start"
	CmdDigest   = "digest"
	CmdSchedule = "schedule"
)

// defaultUpdateTimeout is the long polling timeout in seconds.
const defaultUpdateTimeout = 60

// httpTimeoutMargin is added to the long polling timeout for the HTTP client.
const httpTimeoutMargin = 30 * time.Second

// Chat member statuses reported by my_chat_member updates.
const (
	memberStatusLeft          = "left"
	memberStatusKicked        = "kicked"
	memberStatusMember        = "member"
	memberStatusAdministrator = "administrator"
)

// Update types the bot subscribes to.
const (
	updateMessage      = "message"
	updateMyChatMember = "my_chat_member"
)

// User facing replies.
const (
	ReplyGreeting = "Hi! 👋\n" +
		"This bot archives chat messages, builds digests and sends them on a schedule.\n\n" +
		"Add me to a chat and grant admin rights so I can start working.\n"
	ReplyAddedToChat = "Bot added to the chat ✅\n\n" +
		"Remember to grant admin rights so I can save messages.\n" +
		"From now on I will collect messages and build digests.\n" +
		"Set the schedule with /schedule. By default a digest is sent once a week.\n" +
		"Use /digest to get a digest of the last 100 messages."
	ReplyTooLong           = "Message was not saved, it is too long."
	ReplyScheduleMenu      = "Choose the digest frequency:"
	ReplyScheduleSetFmt    = "Digest frequency set: %s."
	ReplyScheduleFailed    = "Could not save the schedule. Please try again later."
	ReplyDigestQueued      = "Digest requested, it will arrive shortly."
	ReplyDigestUnavailable = "The bot is shutting down, please try again later."
	ReplyUnknownCommand    = "Unknown command"
)

// Log field names.
const (
	LogFieldUserID        = "user_id"
	LogFieldChatID        = "chat_id"
	LogFieldCommand       = "command"
	LogFieldCorrelationID = "correlation_id"
	LogFieldFrequency     = "frequency"
	LogFieldOldStatus     = "old_status"
	LogFieldNewStatus     = "new_status"
)

// Error message formats.
const (
	errFmtCreateAPI   = "creating bot API: %w"
	errFmtRunCanceled = "bot run context canceled: %w"
	errFmtSendMessage = "failed to send message to chat %d: %w"
)

// Telegram rejects Markdown it cannot parse with this description prefix.
const markdownParseErrorPrefix = "Bad Request: can't parse entities"
