package digest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/chat-digest-bot/internal/core/domain"
	apperrors "github.com/lueurxax/chat-digest-bot/internal/core/errors"
	"github.com/lueurxax/chat-digest-bot/internal/core/ports"
	"github.com/lueurxax/chat-digest-bot/internal/platform/observability"
	"github.com/lueurxax/chat-digest-bot/internal/platform/worker"
	db "github.com/lueurxax/chat-digest-bot/internal/storage"
)

// Scheduler polls the schedule registry and queues due digests.
// It keeps no state between ticks.
type Scheduler struct {
	registry ports.ScheduleRegistry
	locker   ports.TickLocker
	queue    *Queue
	interval time.Duration
	logger   *zerolog.Logger
	now      func() time.Time
}

// NewScheduler creates a scheduler ticking at tickInterval, a Go duration string.
// An unparsable interval falls back to DefaultTickInterval.
func NewScheduler(registry ports.ScheduleRegistry, queue *Queue, tickInterval string, logger *zerolog.Logger) *Scheduler {
	interval, err := time.ParseDuration(tickInterval)
	if err != nil || interval <= 0 {
		logger.Error().Err(err).Str(LogFieldInterval, tickInterval).Msg("invalid scheduler tick interval, using 1m")

		interval = DefaultTickInterval
	}

	return &Scheduler{
		registry: registry,
		queue:    queue,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// SetLocker makes every tick run under a cross-process advisory lock.
func (s *Scheduler) SetLocker(locker ports.TickLocker) {
	s.locker = locker
}

// Interval returns the effective tick interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Run ticks until ctx is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	err := worker.SingleTickerLoop(ctx, worker.SingleTickerConfig{
		Name:       "digest-scheduler",
		Interval:   s.interval,
		RunOnStart: true,
		OnTick:     s.runOnceWithLock,
		Logger:     s.logger,
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

func (s *Scheduler) runOnceWithLock(ctx context.Context) {
	defer worker.RecoverPanic(s.logger, "scheduler tick")

	correlationID := uuid.New().String()
	logger := s.logger.With().Str(LogFieldCorrelationID, correlationID).Logger()

	_, ran, err := s.TickLocked(ctx, s.now())
	if err != nil {
		observability.SchedulerTicks.WithLabelValues(StatusError).Inc()
		logger.Error().Err(err).Msg("scheduler tick failed")

		return
	}

	if !ran {
		observability.SchedulerTicks.WithLabelValues(StatusSkipped).Inc()
		logger.Debug().Msg("did not acquire scheduler lock, skipping")
	}
}

// TickLocked runs Tick under the scheduler advisory lock when a locker is
// set. ran is false when another process holds the lock.
func (s *Scheduler) TickLocked(ctx context.Context, now time.Time) (queued int, ran bool, err error) {
	tick := func(ctx context.Context) error {
		var tickErr error

		queued, tickErr = s.Tick(ctx, now)

		return tickErr
	}

	if s.locker == nil {
		return queued, true, tick(ctx)
	}

	ran, err = s.locker.WithTryLock(ctx, db.SchedulerTickLockID, tick)

	return queued, ran, err
}

// Tick queues a job for every subscriber due at now and advances each
// schedule right after its job is queued. A subscriber returned twice in one
// tick is queued once. It returns the number of queued jobs.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) (int, error) {
	due, err := s.registry.DueSubscribers(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("due subscribers: %w", err)
	}

	seen := make(map[int64]struct{}, len(due))
	queued := 0

	for _, sub := range due {
		if _, ok := seen[sub.SubscriberID]; ok {
			continue
		}

		seen[sub.SubscriberID] = struct{}{}

		job := domain.DigestJob{
			SubscriberID:  sub.SubscriberID,
			ChatID:        sub.ChatID,
			Kind:          domain.JobScheduled,
			CorrelationID: uuid.New().String(),
			CreatedAt:     now,
			WindowEnd:     sub.NextRun,
		}

		if err := s.queue.Push(job); err != nil {
			return queued, fmt.Errorf("queue digest for %d: %w", sub.SubscriberID, err)
		}

		queued++

		observability.JobsEnqueued.WithLabelValues(string(domain.JobScheduled)).Inc()

		if _, err := s.registry.Advance(ctx, sub.SubscriberID); err != nil {
			observability.SchedulerTicks.WithLabelValues(StatusAdvance).Inc()
			s.advanceFailed(sub, job.CorrelationID, err)
		}
	}

	observability.SchedulerTicks.WithLabelValues(StatusOK).Inc()

	if queued > 0 {
		s.logger.Info().Int(LogFieldCount, queued).Int(LogFieldQueueDepth, s.queue.Len()).Msg("queued due digests")
	}

	return queued, nil
}

func (s *Scheduler) advanceFailed(sub domain.Subscriber, correlationID string, err error) {
	event := s.logger.Error()
	if errors.Is(err, apperrors.ErrUnknownFrequency) {
		event = s.logger.Warn()
	}

	event.Err(err).
		Str(LogFieldCorrelationID, correlationID).
		Int64(LogFieldSubscriberID, sub.SubscriberID).
		Int64(LogFieldChatID, sub.ChatID).
		Msg("failed to advance schedule")
}
