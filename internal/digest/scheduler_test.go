package digest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/chat-digest-bot/internal/core/domain"
	apperrors "github.com/lueurxax/chat-digest-bot/internal/core/errors"
	"github.com/lueurxax/chat-digest-bot/internal/core/ports/mocks"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestScheduler(registry *mocks.ScheduleRegistry, queue *Queue) *Scheduler {
	logger := zerolog.Nop()

	return NewScheduler(registry, queue, "1m", &logger)
}

func TestNewScheduler_IntervalFallback(t *testing.T) {
	logger := zerolog.Nop()

	assert.Equal(t, 5*time.Minute, NewScheduler(nil, nil, "5m", &logger).Interval())
	assert.Equal(t, DefaultTickInterval, NewScheduler(nil, nil, "soon", &logger).Interval())
	assert.Equal(t, DefaultTickInterval, NewScheduler(nil, nil, "-1m", &logger).Interval())
}

func TestTick_FiresOnlyDueSchedules(t *testing.T) {
	tests := []struct {
		name      string
		nextRun   time.Time
		wantFired bool
	}{
		{name: "past", nextRun: testNow.Add(-time.Hour), wantFired: true},
		{name: "exactly now", nextRun: testNow, wantFired: true},
		{name: "future", nextRun: testNow.Add(time.Second), wantFired: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := mocks.NewScheduleRegistry()
			registry.Put(domain.Schedule{SubscriberID: 1, ChatID: 10, Frequency: domain.FrequencyDaily, NextRun: tt.nextRun})

			queue := NewQueue()

			n, err := newTestScheduler(registry, queue).Tick(context.Background(), testNow)
			require.NoError(t, err)

			if !tt.wantFired {
				assert.Zero(t, n)
				assert.Zero(t, queue.Len())
				assert.Zero(t, registry.AdvanceCount(1))

				return
			}

			assert.Equal(t, 1, n)
			assert.Equal(t, 1, registry.AdvanceCount(1))

			j, err := queue.Pop(context.Background())
			require.NoError(t, err)
			assert.Equal(t, int64(1), j.SubscriberID)
			assert.Equal(t, int64(10), j.ChatID)
			assert.Equal(t, domain.JobScheduled, j.Kind)
			assert.NotEmpty(t, j.CorrelationID)
			assert.True(t, j.WindowEnd.Equal(tt.nextRun))

			s, err := registry.GetSchedule(context.Background(), 1)
			require.NoError(t, err)
			assert.True(t, s.NextRun.Equal(tt.nextRun.Add(24*time.Hour)))
		})
	}
}

func TestTick_DedupsSubscriberWithinTick(t *testing.T) {
	registry := mocks.NewScheduleRegistry()
	registry.DueSubscribersFn = func(context.Context, time.Time) ([]domain.Subscriber, error) {
		return []domain.Subscriber{{SubscriberID: 1, ChatID: 10}, {SubscriberID: 2, ChatID: 20}, {SubscriberID: 1, ChatID: 10}}, nil
	}

	advanced := map[int64]int{}
	registry.AdvanceFn = func(_ context.Context, id int64) (domain.Schedule, error) {
		advanced[id]++

		return domain.Schedule{}, nil
	}

	queue := NewQueue()

	n, err := newTestScheduler(registry, queue).Tick(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, queue.Len())
	assert.Equal(t, map[int64]int{1: 1, 2: 1}, advanced)
}

func TestTick_SecondTickDoesNotRefire(t *testing.T) {
	registry := mocks.NewScheduleRegistry()
	registry.Put(domain.Schedule{SubscriberID: 1, ChatID: 10, Frequency: domain.FrequencyWeekly, NextRun: testNow})

	queue := NewQueue()
	s := newTestScheduler(registry, queue)

	first, err := s.Tick(context.Background(), testNow)
	require.NoError(t, err)

	second, err := s.Tick(context.Background(), testNow.Add(time.Minute))
	require.NoError(t, err)

	assert.Equal(t, 1, first)
	assert.Zero(t, second)
	assert.Equal(t, 1, queue.Len())
}

func TestTick_AdvanceFailureKeepsJobQueued(t *testing.T) {
	registry := mocks.NewScheduleRegistry()
	registry.Put(domain.Schedule{SubscriberID: 1, ChatID: 10, Frequency: domain.FrequencyDaily, NextRun: testNow})
	registry.AdvanceFn = func(context.Context, int64) (domain.Schedule, error) {
		return domain.Schedule{}, apperrors.ErrUnknownFrequency
	}

	queue := NewQueue()

	n, err := newTestScheduler(registry, queue).Tick(context.Background(), testNow)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, queue.Len())
}

func TestTick_UnknownFrequencyIsNeverDue(t *testing.T) {
	registry := mocks.NewScheduleRegistry()
	registry.Put(domain.Schedule{SubscriberID: 1, ChatID: 10, Frequency: "monthly", NextRun: testNow.Add(-time.Hour)})

	queue := NewQueue()

	n, err := newTestScheduler(registry, queue).Tick(context.Background(), testNow)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTick_Errors(t *testing.T) {
	registry := mocks.NewScheduleRegistry()
	registry.DueSubscribersFn = func(context.Context, time.Time) ([]domain.Subscriber, error) {
		return nil, errors.New("db down")
	}

	_, err := newTestScheduler(registry, NewQueue()).Tick(context.Background(), testNow)
	require.Error(t, err)

	registry = mocks.NewScheduleRegistry()
	registry.Put(domain.Schedule{SubscriberID: 1, ChatID: 10, Frequency: domain.FrequencyDaily, NextRun: testNow})

	queue := NewQueue()
	queue.Close()

	_, err = newTestScheduler(registry, queue).Tick(context.Background(), testNow)
	assert.ErrorIs(t, err, apperrors.ErrQueueClosed)
	assert.Zero(t, registry.AdvanceCount(1))
}

func TestRunOnceWithLock_SkipsWhenLocked(t *testing.T) {
	registry := mocks.NewScheduleRegistry()
	registry.Put(domain.Schedule{SubscriberID: 1, ChatID: 10, Frequency: domain.FrequencyDaily, NextRun: testNow})
	registry.SetLocked(true)

	queue := NewQueue()
	s := newTestScheduler(registry, queue)
	s.SetLocker(registry)
	s.now = func() time.Time { return testNow }

	s.runOnceWithLock(context.Background())
	assert.Zero(t, queue.Len())

	registry.SetLocked(false)
	s.runOnceWithLock(context.Background())
	assert.Equal(t, 1, queue.Len())
}

func TestTickLocked(t *testing.T) {
	registry := mocks.NewScheduleRegistry()
	registry.Put(domain.Schedule{SubscriberID: 1, ChatID: 10, Frequency: domain.FrequencyDaily, NextRun: testNow})

	queue := NewQueue()
	s := newTestScheduler(registry, queue)

	// Without a locker the tick always runs.
	n, ran, err := s.TickLocked(context.Background(), testNow)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 1, n)

	registry.Put(domain.Schedule{SubscriberID: 2, ChatID: 20, Frequency: domain.FrequencyDaily, NextRun: testNow})
	registry.SetLocked(true)
	s.SetLocker(registry)

	n, ran, err = s.TickLocked(context.Background(), testNow)
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Zero(t, n)
	assert.Zero(t, registry.AdvanceCount(2))

	registry.SetLocked(false)

	n, ran, err = s.TickLocked(context.Background(), testNow)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, queue.Len())
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	registry := mocks.NewScheduleRegistry()
	queue := NewQueue()
	s := newTestScheduler(registry, queue)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- s.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
