package mocks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/chat-digest-bot/internal/core/domain"
	apperrors "github.com/lueurxax/chat-digest-bot/internal/core/errors"
	"github.com/lueurxax/chat-digest-bot/internal/core/ports"
)

var (
	_ ports.ScheduleRegistry  = (*ScheduleRegistry)(nil)
	_ ports.TickLocker        = (*ScheduleRegistry)(nil)
	_ ports.MessageRepository = (*MessageRepository)(nil)
	_ ports.Sender            = (*Sender)(nil)
)

const (
	chatID = int64(-1001)
	userID = int64(7)
)

var now = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func TestScheduleRegistry_SetScheduleReplacesDefault(t *testing.T) {
	ctx := context.Background()
	r := NewScheduleRegistry()

	require.NoError(t, r.EnsureDefaultSchedule(ctx, chatID, now))
	require.Len(t, r.All(), 1)

	require.NoError(t, r.SetSchedule(ctx, userID, chatID, domain.FrequencyDaily, now.Add(time.Hour)))

	all := r.All()
	require.Len(t, all, 1)
	assert.Equal(t, userID, all[0].SubscriberID)
	assert.Equal(t, domain.FrequencyDaily, all[0].Frequency)

	// The chat already has a schedule, so no default is recreated.
	require.NoError(t, r.EnsureDefaultSchedule(ctx, chatID, now))
	assert.Len(t, r.All(), 1)
}

func TestScheduleRegistry_SetScheduleRejectsUnknownFrequency(t *testing.T) {
	r := NewScheduleRegistry()

	err := r.SetSchedule(context.Background(), userID, chatID, "hourly", now)
	require.ErrorIs(t, err, apperrors.ErrUnknownFrequency)
	assert.Empty(t, r.All())
}

func TestScheduleRegistry_AdvanceAndDue(t *testing.T) {
	ctx := context.Background()
	r := NewScheduleRegistry()

	r.Put(domain.Schedule{SubscriberID: userID, ChatID: chatID, Frequency: domain.FrequencyEveryThreeDays, NextRun: now})
	r.Put(domain.Schedule{SubscriberID: 8, ChatID: chatID, Frequency: "broken", NextRun: now})

	due, err := r.DueSubscribers(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, []domain.Subscriber{{SubscriberID: userID, ChatID: chatID, NextRun: now}}, due)

	s, err := r.Advance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, now.Add(72*time.Hour), s.NextRun)
	assert.Equal(t, 1, r.AdvanceCount(userID))

	_, err = r.Advance(ctx, 8)
	require.ErrorIs(t, err, apperrors.ErrUnknownFrequency)

	_, err = r.Advance(ctx, 999)
	require.ErrorIs(t, err, apperrors.ErrScheduleNotFound)
}

func TestScheduleRegistry_WithTryLock(t *testing.T) {
	r := NewScheduleRegistry()
	calls := 0

	ran, err := r.WithTryLock(context.Background(), 1, func(context.Context) error {
		calls++

		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)

	r.SetLocked(true)

	ran, err = r.WithTryLock(context.Background(), 1, func(context.Context) error {
		calls++

		return nil
	})
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Equal(t, 1, calls)
}

func TestScheduleRegistry_SetScheduleTrimsFrequency(t *testing.T) {
	r := NewScheduleRegistry()

	require.NoError(t, r.SetSchedule(context.Background(), userID, chatID, " daily ", now))

	s, err := r.GetSchedule(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, domain.FrequencyDaily, s.Frequency)
}
