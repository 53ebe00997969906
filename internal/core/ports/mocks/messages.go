package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lueurxax/chat-digest-bot/internal/core/domain"
)

// MessageRepository is a thread-safe in-memory implementation of ports.MessageRepository.
type MessageRepository struct {
	mu       sync.Mutex
	nextID   int64
	messages []domain.Message
	chats    map[int64]domain.Chat
	users    map[int64]domain.User
	registry *ScheduleRegistry
	saves    int

	// SaveMessageFn allows overriding SaveMessage behavior.
	SaveMessageFn func(ctx context.Context, msg domain.NewMessage) (domain.MessageRef, bool, error)
}

// NewMessageRepository creates an empty repository. If registry is not nil,
// the first message of a chat creates its default schedule there.
func NewMessageRepository(registry *ScheduleRegistry) *MessageRepository {
	return &MessageRepository{
		chats:    make(map[int64]domain.Chat),
		users:    make(map[int64]domain.User),
		registry: registry,
	}
}

// Insert stores a message with the given ciphertext directly, as if written earlier.
func (r *MessageRepository) Insert(chatID, userID int64, ciphertext string, ts time.Time) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	r.messages = append(r.messages, domain.Message{
		ID:         r.nextID,
		ChatID:     chatID,
		UserID:     userID,
		Ciphertext: ciphertext,
		Timestamp:  ts,
	})

	return r.nextID
}

// SaveCalls returns how many times SaveMessage reached the store.
func (r *MessageRepository) SaveCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.saves
}

// Chat returns a known chat.
func (r *MessageRepository) Chat(id int64) (domain.Chat, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.chats[id]

	return c, ok
}

// User returns a known user.
func (r *MessageRepository) User(id int64) (domain.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]

	return u, ok
}

// SaveMessage upserts the chat and author and appends the message.
func (r *MessageRepository) SaveMessage(ctx context.Context, msg domain.NewMessage) (domain.MessageRef, bool, error) {
	if r.SaveMessageFn != nil {
		return r.SaveMessageFn(ctx, msg)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.saves++

	chat := msg.Chat
	if chat.Title == "" {
		chat.Title = domain.DefaultChatTitle
	}

	_, known := r.chats[chat.ID]
	r.chats[chat.ID] = chat
	r.users[msg.Author.ID] = msg.Author

	r.nextID++
	r.messages = append(r.messages, domain.Message{
		ID:         r.nextID,
		ChatID:     chat.ID,
		UserID:     msg.Author.ID,
		Ciphertext: msg.Ciphertext,
		Timestamp:  msg.Timestamp,
	})

	if !known && r.registry != nil {
		_ = r.registry.EnsureDefaultSchedule(ctx, chat.ID, msg.Timestamp) //nolint:errcheck // in-memory registry never fails
	}

	return domain.MessageRef{ID: r.nextID, ChatID: chat.ID, Timestamp: msg.Timestamp}, !known, nil
}

// MessagesBetween returns the chat's messages in [from, until), oldest first.
func (r *MessageRepository) MessagesBetween(_ context.Context, chatID int64, from, until time.Time) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Message

	for _, m := range r.messages {
		if m.ChatID == chatID && !m.Timestamp.Before(from) && m.Timestamp.Before(until) {
			out = append(out, m)
		}
	}

	sortMessages(out)

	return out, nil
}

// RecentMessages returns up to limit of the chat's messages, newest first.
func (r *MessageRepository) RecentMessages(_ context.Context, chatID int64, limit int) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.Message

	for _, m := range r.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}

	sortMessages(out)

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	if len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func sortMessages(ms []domain.Message) {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].Timestamp.Equal(ms[j].Timestamp) {
			return ms[i].ID < ms[j].ID
		}

		return ms[i].Timestamp.Before(ms[j].Timestamp)
	})
}
