package domain

import "time"

// Frequency is the digest cadence of a subscriber schedule.
type Frequency string

// Supported digest frequencies. The values are the persisted representation.
const (
	FrequencyDaily          Frequency = "daily"
	FrequencyEveryThreeDays Frequency = "every_three_days"
	FrequencyWeekly         Frequency = "weekly"
)

// DefaultFrequency is assigned to a chat on its first archived message.
const DefaultFrequency = FrequencyWeekly

// DefaultChatTitle is stored for chats without a title (private chats).
const DefaultChatTitle = "Untitled"

// Message is an archived chat message. Text is stored encrypted and never updated.
type Message struct {
	ID         int64
	ChatID     int64
	UserID     int64
	Ciphertext string
	Timestamp  time.Time
}

// NewMessage is an encrypted message ready to be persisted with its author and chat.
type NewMessage struct {
	Chat       Chat
	Author     User
	Ciphertext string
	Timestamp  time.Time
}

// MessageRef identifies a stored message.
type MessageRef struct {
	ID        int64
	ChatID    int64
	Timestamp time.Time
}

// User is a known message author.
type User struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
}

// Chat is a known chat the bot archives messages from.
type Chat struct {
	ID    int64
	Title string
}

// Schedule is the digest schedule of one subscriber.
type Schedule struct {
	SubscriberID int64
	ChatID       int64
	Frequency    Frequency
	NextRun      time.Time
}

// Subscriber is a due (subscriber, chat) pair returned by the registry.
// NextRun is the run time that made it due.
type Subscriber struct {
	SubscriberID int64
	ChatID       int64
	NextRun      time.Time
}

// JobKind distinguishes scheduled digests from on-demand requests.
type JobKind string

// Job kinds.
const (
	JobScheduled JobKind = "scheduled"
	JobOnDemand  JobKind = "on_demand"
)

// DigestJob is an ephemeral unit of work consumed exactly once by the executor.
type DigestJob struct {
	SubscriberID  int64
	ChatID        int64
	Kind          JobKind
	CorrelationID string
	CreatedAt     time.Time
	// WindowEnd is the due next_run of a scheduled job. The digest covers
	// the interval ending there.
	WindowEnd time.Time
}
