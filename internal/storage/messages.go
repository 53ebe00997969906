package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lueurxax/chat-digest-bot/internal/core/domain"
)

// SaveMessage stores an encrypted message together with its chat and author.
// On the first message of a chat the default schedule is created in the same
// transaction.
func (db *DB) SaveMessage(ctx context.Context, msg domain.NewMessage) (domain.MessageRef, bool, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return domain.MessageRef{}, false, fmt.Errorf(errFmtBeginTx, "save message", err)
	}

	defer rollback(ctx, tx)

	title := SanitizeUTF8(msg.Chat.Title)
	if title == "" {
		title = domain.DefaultChatTitle
	}

	var newChat bool

	// xmax is zero only for a freshly inserted row.
	err = tx.QueryRow(ctx, `
		INSERT INTO chats (id, title)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title
		RETURNING (xmax = 0)
	`, msg.Chat.ID, title).Scan(&newChat)
	if err != nil {
		return domain.MessageRef{}, false, fmt.Errorf("upsert chat: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO users (id, first_name, last_name, username)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			username = EXCLUDED.username
	`, msg.Author.ID, SanitizeUTF8(msg.Author.FirstName), SanitizeUTF8(msg.Author.LastName), SanitizeUTF8(msg.Author.Username))
	if err != nil {
		return domain.MessageRef{}, false, fmt.Errorf("upsert user: %w", err)
	}

	ref := domain.MessageRef{ChatID: msg.Chat.ID, Timestamp: msg.Timestamp}

	err = tx.QueryRow(ctx, `
		INSERT INTO messages (chat_id, user_id, message, timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, msg.Chat.ID, msg.Author.ID, msg.Ciphertext, msg.Timestamp).Scan(&ref.ID)
	if err != nil {
		return domain.MessageRef{}, false, fmt.Errorf("insert message: %w", err)
	}

	if newChat {
		if err := ensureDefaultSchedule(ctx, tx, msg.Chat.ID, msg.Timestamp); err != nil {
			return domain.MessageRef{}, false, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.MessageRef{}, false, fmt.Errorf(errFmtCommitTx, "save message", err)
	}

	return ref, newChat, nil
}

// MessagesBetween returns the chat's messages in [from, until), oldest first.
func (db *DB) MessagesBetween(ctx context.Context, chatID int64, from, until time.Time) ([]domain.Message, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, chat_id, user_id, message, timestamp
		FROM messages
		WHERE chat_id = $1 AND timestamp >= $2 AND timestamp < $3
		ORDER BY timestamp ASC, id ASC
	`, chatID, from, until)
	if err != nil {
		return nil, fmt.Errorf("get messages since: %w", err)
	}

	return scanMessages(rows)
}

// RecentMessages returns up to limit of the chat's messages, newest first.
func (db *DB) RecentMessages(ctx context.Context, chatID int64, limit int) ([]domain.Message, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, chat_id, user_id, message, timestamp
		FROM messages
		WHERE chat_id = $1
		ORDER BY timestamp DESC, id DESC
		LIMIT $2
	`, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent messages: %w", err)
	}

	return scanMessages(rows)
}

func scanMessages(rows pgx.Rows) ([]domain.Message, error) {
	defer rows.Close()

	var messages []domain.Message

	for rows.Next() {
		var m domain.Message

		if err := rows.Scan(&m.ID, &m.ChatID, &m.UserID, &m.Ciphertext, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}

		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}

	return messages, nil
}
