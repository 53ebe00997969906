package digest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/chat-digest-bot/internal/core/domain"
	apperrors "github.com/lueurxax/chat-digest-bot/internal/core/errors"
	"github.com/lueurxax/chat-digest-bot/internal/core/ports"
	"github.com/lueurxax/chat-digest-bot/internal/platform/observability"
	"github.com/lueurxax/chat-digest-bot/internal/platform/worker"
)

// errDrainTimeout is returned when queued jobs were still pending at the drain deadline.
var errDrainTimeout = errors.New("digest queue drain timed out")

// JobRunner runs one digest job.
type JobRunner interface {
	Generate(ctx context.Context, job domain.DigestJob) (Outcome, error)
}

// Executor consumes the queue on a single goroutine so that digests never
// overlap and chunks for one chat are not interleaved.
type Executor struct {
	queue        *Queue
	runner       JobRunner
	sender       ports.Sender
	jobTimeout   time.Duration
	drainTimeout time.Duration
	logger       *zerolog.Logger
}

// NewExecutor creates an executor. jobTimeout bounds a single job and
// drainTimeout bounds the work left in the queue once Run's context is done.
func NewExecutor(queue *Queue, runner JobRunner, sender ports.Sender, jobTimeout, drainTimeout time.Duration, logger *zerolog.Logger) *Executor {
	return &Executor{
		queue:        queue,
		runner:       runner,
		sender:       sender,
		jobTimeout:   jobTimeout,
		drainTimeout: drainTimeout,
		logger:       logger,
	}
}

// Run processes jobs until ctx is done, then closes the queue and finishes the
// jobs already queued within the drain timeout. Job failures never stop it.
func (e *Executor) Run(ctx context.Context) error {
	workCtx, cancelWork := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWork()

	go e.watchShutdown(ctx, workCtx, cancelWork)

	e.logger.Info().Msg("digest executor started")

	for {
		if workCtx.Err() != nil {
			return fmt.Errorf("%w: %d job(s) dropped", errDrainTimeout, e.queue.Len())
		}

		job, err := e.queue.Pop(workCtx)
		if err != nil {
			if errors.Is(err, apperrors.ErrQueueClosed) {
				e.logger.Info().Msg("digest executor stopped, queue drained")

				return nil
			}

			return fmt.Errorf("%w: %d job(s) dropped: %w", errDrainTimeout, e.queue.Len(), err)
		}

		e.runJob(workCtx, job)
	}
}

// watchShutdown closes the queue when ctx ends and cancels in-flight work if
// draining exceeds the deadline.
func (e *Executor) watchShutdown(ctx, workCtx context.Context, cancelWork context.CancelFunc) {
	select {
	case <-workCtx.Done():
		return
	case <-ctx.Done():
	}

	e.queue.Close()
	e.logger.Info().Int(LogFieldQueueDepth, e.queue.Len()).Msg("draining digest queue")

	if e.drainTimeout <= 0 {
		return
	}

	timer := time.NewTimer(e.drainTimeout)
	defer timer.Stop()

	select {
	case <-workCtx.Done():
	case <-timer.C:
		cancelWork()
	}
}

func (e *Executor) runJob(ctx context.Context, job domain.DigestJob) {
	defer worker.RecoverPanic(e.logger, "digest job")

	logger := e.logger.With().
		Str(LogFieldCorrelationID, job.CorrelationID).
		Int64(LogFieldSubscriberID, job.SubscriberID).
		Int64(LogFieldChatID, job.ChatID).
		Str(LogFieldKind, string(job.Kind)).
		Logger()

	start := time.Now()

	var outcome Outcome

	err := worker.RunWithTimeout(ctx, e.jobTimeout, func(jobCtx context.Context) error {
		var genErr error

		outcome, genErr = e.runner.Generate(jobCtx, job)

		return genErr
	})

	observability.DigestDuration.Observe(time.Since(start).Seconds())

	if err == nil {
		observability.DigestsPosted.WithLabelValues(outcome.String()).Inc()
		logger.Info().Dur(LogFieldDuration, time.Since(start)).Str(LogFieldOutcome, outcome.String()).Msg("digest job finished")

		return
	}

	observability.DigestsPosted.WithLabelValues(StatusError).Inc()
	logger.Error().Err(err).Msg(MsgFailedToProcessJob)

	e.notifyFailure(ctx, job, err, &logger)
}

// notifyFailure tells the chat that its digest failed. It is best-effort and
// uses its own deadline so a timed-out job can still be reported.
func (e *Executor) notifyFailure(ctx context.Context, job domain.DigestJob, jobErr error, logger *zerolog.Logger) {
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := e.sender.SendText(notifyCtx, job.ChatID, FailureNotice(jobErr), ports.FormatPlain); err != nil {
		logger.Warn().Err(err).Msg(MsgFailedToNotify)
	}
}

// FailureNotice maps a job error to the text shown to the user.
func FailureNotice(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrUnknownFrequency):
		return NoticeUnknownFrequency
	case errors.Is(err, apperrors.ErrScheduleNotFound):
		return NoticeScheduleNotFound
	default:
		return NoticeFailed
	}
}
