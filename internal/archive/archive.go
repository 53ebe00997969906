// Package archive is the message store: it validates, encrypts and persists
// chat messages and reads them back as plaintext for digests.
package archive

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/lueurxax/chat-digest-bot/internal/core/domain"
	apperrors "github.com/lueurxax/chat-digest-bot/internal/core/errors"
	"github.com/lueurxax/chat-digest-bot/internal/core/ports"
	"github.com/lueurxax/chat-digest-bot/internal/platform/observability"
)

// MaxMessageLength is the longest message, in characters, accepted for archiving.
const MaxMessageLength = 1500

const (
	logFieldChatID  = "chat_id"
	logFieldSkipped = "skipped"
	logFieldTotal   = "total"
)

// Cipher seals and opens message text.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// DecryptError lists messages skipped because they could not be decrypted.
type DecryptError struct {
	ChatID     int64
	MessageIDs []int64
}

func (e *DecryptError) Error() string {
	return fmt.Sprintf("%s: %d message(s) in chat %d", apperrors.ErrDecryptFailed, len(e.MessageIDs), e.ChatID)
}

func (e *DecryptError) Unwrap() error {
	return apperrors.ErrDecryptFailed
}

// Store archives messages for a set of chats.
type Store struct {
	repo   ports.MessageRepository
	cipher Cipher
	logger *zerolog.Logger
	now    func() time.Time
}

// New creates a message store.
func New(repo ports.MessageRepository, cipher Cipher, logger *zerolog.Logger) *Store {
	return &Store{
		repo:   repo,
		cipher: cipher,
		logger: logger,
		now:    time.Now,
	}
}

// Append validates, encrypts and stores plaintext. Messages longer than
// MaxMessageLength are rejected with ErrTooLong and never truncated.
func (s *Store) Append(ctx context.Context, author domain.User, chat domain.Chat, plaintext string) (domain.MessageRef, error) {
	if n := utf8.RuneCountInString(plaintext); n > MaxMessageLength {
		observability.MessagesIngested.WithLabelValues(observability.StatusTooLong).Inc()

		return domain.MessageRef{}, fmt.Errorf("%w: %d characters, limit %d", apperrors.ErrTooLong, n, MaxMessageLength)
	}

	ciphertext, err := s.cipher.Encrypt(plaintext)
	if err != nil {
		observability.MessagesIngested.WithLabelValues(observability.StatusError).Inc()

		return domain.MessageRef{}, fmt.Errorf("encrypt message: %w", err)
	}

	ref, newChat, err := s.repo.SaveMessage(ctx, domain.NewMessage{
		Chat:       chat,
		Author:     author,
		Ciphertext: ciphertext,
		Timestamp:  s.now().UTC(),
	})
	if err != nil {
		observability.MessagesIngested.WithLabelValues(observability.StatusError).Inc()

		return domain.MessageRef{}, fmt.Errorf("save message: %w", err)
	}

	observability.MessagesIngested.WithLabelValues(observability.StatusSuccess).Inc()

	if newChat {
		s.logger.Info().Int64(logFieldChatID, chat.ID).Msg("new chat archived, default weekly schedule created")
	}

	return ref, nil
}

// QueryWindow returns the chat's messages in [since, until), oldest first.
// Undecryptable messages are skipped and reported as a *DecryptError alongside
// the remaining texts.
func (s *Store) QueryWindow(ctx context.Context, chatID int64, since, until time.Time) ([]string, error) {
	messages, err := s.repo.MessagesBetween(ctx, chatID, since, until)
	if err != nil {
		return nil, fmt.Errorf("query window: %w", err)
	}

	return s.decryptAll(chatID, messages)
}

// QueryRecent returns at most limit of the chat's messages, newest first.
// Decrypt failures are handled as in QueryWindow.
func (s *Store) QueryRecent(ctx context.Context, chatID int64, limit int) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}

	messages, err := s.repo.RecentMessages(ctx, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}

	return s.decryptAll(chatID, messages)
}

func (s *Store) decryptAll(chatID int64, messages []domain.Message) ([]string, error) {
	texts := make([]string, 0, len(messages))

	var failed []int64

	for _, m := range messages {
		text, err := s.cipher.Decrypt(m.Ciphertext)
		if err != nil {
			failed = append(failed, m.ID)

			continue
		}

		texts = append(texts, text)
	}

	if len(failed) == 0 {
		return texts, nil
	}

	observability.MessageDecryptFailures.Add(float64(len(failed)))
	s.logger.Warn().
		Int64(logFieldChatID, chatID).
		Int(logFieldSkipped, len(failed)).
		Int(logFieldTotal, len(messages)).
		Msg("skipped undecryptable messages")

	return texts, &DecryptError{ChatID: chatID, MessageIDs: failed}
}
