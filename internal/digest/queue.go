package digest

import (
	"context"
	"sync"

	"github.com/lueurxax/chat-digest-bot/internal/core/domain"
	apperrors "github.com/lueurxax/chat-digest-bot/internal/core/errors"
	"github.com/lueurxax/chat-digest-bot/internal/platform/observability"
)

// Queue is an unbounded FIFO of digest jobs with many producers and a single
// blocking consumer.
type Queue struct {
	mu     sync.Mutex
	jobs   []domain.DigestJob
	closed bool

	notify    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewQueue creates an empty open queue.
func NewQueue() *Queue {
	return &Queue{
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

// Push appends a job. It never blocks and fails only after Close.
func (q *Queue) Push(job domain.DigestJob) error {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()

		return apperrors.ErrQueueClosed
	}

	q.jobs = append(q.jobs, job)
	observability.QueueDepth.Set(float64(len(q.jobs)))
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}

	return nil
}

// Pop removes the oldest job, blocking until one is available. After Close it
// keeps returning queued jobs and then ErrQueueClosed.
func (q *Queue) Pop(ctx context.Context) (domain.DigestJob, error) {
	for {
		q.mu.Lock()

		if len(q.jobs) > 0 {
			job := q.jobs[0]
			q.jobs[0] = domain.DigestJob{}
			q.jobs = q.jobs[1:]
			observability.QueueDepth.Set(float64(len(q.jobs)))
			q.mu.Unlock()

			return job, nil
		}

		if q.closed {
			q.mu.Unlock()

			return domain.DigestJob{}, apperrors.ErrQueueClosed
		}

		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return domain.DigestJob{}, ctx.Err()
		case <-q.notify:
		case <-q.done:
		}
	}
}

// Close stops accepting jobs. It is safe to call more than once.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()

		close(q.done)
	})
}

// Len returns the number of waiting jobs.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.jobs)
}
