package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lueurxax/chat-digest-bot/internal/core/domain"
	apperrors "github.com/lueurxax/chat-digest-bot/internal/core/errors"
	"github.com/lueurxax/chat-digest-bot/internal/platform/schedule"
)

// SetSchedule upserts the subscriber's schedule and resets next_run to now.
// A user-defined schedule replaces the chat's default one.
func (db *DB) SetSchedule(ctx context.Context, subscriberID, chatID int64, freq domain.Frequency, now time.Time) error {
	freq, err := schedule.ParseFrequency(string(freq))
	if err != nil {
		return err
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf(errFmtBeginTx, "set schedule", err)
	}

	defer rollback(ctx, tx)

	_, err = tx.Exec(ctx, `
		INSERT INTO schedules (subscriber_id, chat_id, frequency, next_run)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (subscriber_id) DO UPDATE
		SET chat_id = EXCLUDED.chat_id,
			frequency = EXCLUDED.frequency,
			next_run = EXCLUDED.next_run
	`, subscriberID, chatID, string(freq), now)
	if err != nil {
		return fmt.Errorf("upsert schedule: %w", err)
	}

	if subscriberID != chatID {
		_, err = tx.Exec(ctx, `
			DELETE FROM schedules
			WHERE subscriber_id = $1 AND chat_id = $1
		`, chatID)
		if err != nil {
			return fmt.Errorf("remove default schedule: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf(errFmtCommitTx, "set schedule", err)
	}

	return nil
}

// ensureDefaultSchedule creates the chat's weekly schedule if it has none.
func ensureDefaultSchedule(ctx context.Context, q querier, chatID int64, now time.Time) error {
	_, err := q.Exec(ctx, `
		INSERT INTO schedules (subscriber_id, chat_id, frequency, next_run)
		SELECT $1::bigint, $1::bigint, $2::text, $3::timestamptz
		WHERE NOT EXISTS (SELECT 1 FROM schedules WHERE chat_id = $1::bigint)
		ON CONFLICT (subscriber_id) DO NOTHING
	`, chatID, string(domain.DefaultFrequency), now)
	if err != nil {
		return fmt.Errorf("ensure default schedule: %w", err)
	}

	return nil
}

// GetSchedule returns the subscriber's schedule or ErrScheduleNotFound.
func (db *DB) GetSchedule(ctx context.Context, subscriberID int64) (domain.Schedule, error) {
	s, err := scanSchedule(db.Pool.QueryRow(ctx, `
		SELECT subscriber_id, chat_id, frequency, next_run
		FROM schedules
		WHERE subscriber_id = $1
	`, subscriberID))
	if err != nil {
		return domain.Schedule{}, fmt.Errorf("get schedule %d: %w", subscriberID, err)
	}

	return s, nil
}

// Advance moves next_run forward by one interval of the stored frequency.
// The row is locked for the read-modify-write so concurrent callers serialize.
func (db *DB) Advance(ctx context.Context, subscriberID int64) (domain.Schedule, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return domain.Schedule{}, fmt.Errorf(errFmtBeginTx, "advance schedule", err)
	}

	defer rollback(ctx, tx)

	s, err := scanSchedule(tx.QueryRow(ctx, `
		SELECT subscriber_id, chat_id, frequency, next_run
		FROM schedules
		WHERE subscriber_id = $1
		FOR UPDATE
	`, subscriberID))
	if err != nil {
		return domain.Schedule{}, fmt.Errorf("lock schedule %d: %w", subscriberID, err)
	}

	next, err := schedule.Next(s.Frequency, s.NextRun)
	if err != nil {
		return s, fmt.Errorf("advance schedule %d: %w", subscriberID, err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE schedules SET next_run = $2 WHERE subscriber_id = $1
	`, subscriberID, next); err != nil {
		return domain.Schedule{}, fmt.Errorf("update next_run: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Schedule{}, fmt.Errorf(errFmtCommitTx, "advance schedule", err)
	}

	s.NextRun = next

	return s, nil
}

// DueSubscribers returns schedules whose next_run is at or before asOf,
// earliest first. Rows with an unknown frequency are never due.
func (db *DB) DueSubscribers(ctx context.Context, asOf time.Time) ([]domain.Subscriber, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT subscriber_id, chat_id, next_run
		FROM schedules
		WHERE next_run <= $1 AND frequency = ANY($2)
		ORDER BY next_run ASC, subscriber_id ASC
	`, asOf, knownFrequencies())
	if err != nil {
		return nil, fmt.Errorf("get due subscribers: %w", err)
	}
	defer rows.Close()

	var subs []domain.Subscriber

	for rows.Next() {
		var s domain.Subscriber

		if err := rows.Scan(&s.SubscriberID, &s.ChatID, &s.NextRun); err != nil {
			return nil, fmt.Errorf("scan due subscriber: %w", err)
		}

		subs = append(subs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate due subscribers: %w", err)
	}

	return subs, nil
}

func scanSchedule(row pgx.Row) (domain.Schedule, error) {
	var (
		s    domain.Schedule
		freq string
	)

	if err := row.Scan(&s.SubscriberID, &s.ChatID, &freq, &s.NextRun); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Schedule{}, apperrors.ErrScheduleNotFound
		}

		return domain.Schedule{}, fmt.Errorf("scan schedule: %w", err)
	}

	s.Frequency = domain.Frequency(freq)

	return s, nil
}

func knownFrequencies() []string {
	return []string{
		string(domain.FrequencyDaily),
		string(domain.FrequencyEveryThreeDays),
		string(domain.FrequencyWeekly),
	}
}
