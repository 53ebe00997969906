package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lueurxax/chat-digest-bot/internal/core/domain"
	apperrors "github.com/lueurxax/chat-digest-bot/internal/core/errors"
	"github.com/lueurxax/chat-digest-bot/internal/platform/schedule"
)

// ScheduleRegistry is a thread-safe in-memory implementation of ports.ScheduleRegistry.
type ScheduleRegistry struct {
	mu        sync.Mutex
	schedules map[int64]domain.Schedule
	advanced  map[int64]int
	locked    bool

	// AdvanceFn allows overriding Advance behavior.
	AdvanceFn func(ctx context.Context, subscriberID int64) (domain.Schedule, error)

	// DueSubscribersFn allows overriding DueSubscribers behavior.
	DueSubscribersFn func(ctx context.Context, asOf time.Time) ([]domain.Subscriber, error)
}

// NewScheduleRegistry creates an empty registry.
func NewScheduleRegistry() *ScheduleRegistry {
	return &ScheduleRegistry{
		schedules: make(map[int64]domain.Schedule),
		advanced:  make(map[int64]int),
	}
}

// Put stores a schedule as is, bypassing frequency validation.
func (r *ScheduleRegistry) Put(s domain.Schedule) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.schedules[s.SubscriberID] = s
}

// AdvanceCount returns how many times Advance succeeded for a subscriber.
func (r *ScheduleRegistry) AdvanceCount(subscriberID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.advanced[subscriberID]
}

// All returns a snapshot of every stored schedule ordered by subscriber id.
func (r *ScheduleRegistry) All() []domain.Schedule {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Schedule, 0, len(r.schedules))
	for _, s := range r.schedules {
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].SubscriberID < out[j].SubscriberID })

	return out
}

// SetSchedule upserts a schedule and drops the chat's default row.
func (r *ScheduleRegistry) SetSchedule(_ context.Context, subscriberID, chatID int64, freq domain.Frequency, now time.Time) error {
	freq, err := schedule.ParseFrequency(string(freq))
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.schedules[subscriberID] = domain.Schedule{
		SubscriberID: subscriberID,
		ChatID:       chatID,
		Frequency:    freq,
		NextRun:      now,
	}

	if subscriberID != chatID {
		if def, ok := r.schedules[chatID]; ok && def.ChatID == chatID {
			delete(r.schedules, chatID)
		}
	}

	return nil
}

// EnsureDefaultSchedule adds a weekly schedule for a chat that has none.
func (r *ScheduleRegistry) EnsureDefaultSchedule(_ context.Context, chatID int64, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ensureDefaultLocked(chatID, now)

	return nil
}

func (r *ScheduleRegistry) ensureDefaultLocked(chatID int64, now time.Time) {
	for _, s := range r.schedules {
		if s.ChatID == chatID {
			return
		}
	}

	r.schedules[chatID] = domain.Schedule{
		SubscriberID: chatID,
		ChatID:       chatID,
		Frequency:    domain.DefaultFrequency,
		NextRun:      now,
	}
}

// GetSchedule returns a stored schedule or ErrScheduleNotFound.
func (r *ScheduleRegistry) GetSchedule(_ context.Context, subscriberID int64) (domain.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.schedules[subscriberID]
	if !ok {
		return domain.Schedule{}, apperrors.ErrScheduleNotFound
	}

	return s, nil
}

// Advance moves next_run forward by one interval.
func (r *ScheduleRegistry) Advance(ctx context.Context, subscriberID int64) (domain.Schedule, error) {
	if r.AdvanceFn != nil {
		return r.AdvanceFn(ctx, subscriberID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.schedules[subscriberID]
	if !ok {
		return domain.Schedule{}, apperrors.ErrScheduleNotFound
	}

	next, err := schedule.Next(s.Frequency, s.NextRun)
	if err != nil {
		return s, err
	}

	s.NextRun = next
	r.schedules[subscriberID] = s
	r.advanced[subscriberID]++

	return s, nil
}

// DueSubscribers returns schedules with next_run <= asOf and a known frequency,
// earliest first.
func (r *ScheduleRegistry) DueSubscribers(ctx context.Context, asOf time.Time) ([]domain.Subscriber, error) {
	if r.DueSubscribersFn != nil {
		return r.DueSubscribersFn(ctx, asOf)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	due := make([]domain.Schedule, 0)

	for _, s := range r.schedules {
		if _, err := schedule.Interval(s.Frequency); err != nil {
			continue
		}

		if !s.NextRun.After(asOf) {
			due = append(due, s)
		}
	}

	sort.Slice(due, func(i, j int) bool {
		if due[i].NextRun.Equal(due[j].NextRun) {
			return due[i].SubscriberID < due[j].SubscriberID
		}

		return due[i].NextRun.Before(due[j].NextRun)
	})

	subs := make([]domain.Subscriber, 0, len(due))
	for _, s := range due {
		subs = append(subs, domain.Subscriber{SubscriberID: s.SubscriberID, ChatID: s.ChatID, NextRun: s.NextRun})
	}

	return subs, nil
}

// SetLocked makes WithTryLock report the lock as held by someone else.
func (r *ScheduleRegistry) SetLocked(locked bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.locked = locked
}

// WithTryLock runs fn unless SetLocked(true) was called.
func (r *ScheduleRegistry) WithTryLock(ctx context.Context, _ int64, fn func(ctx context.Context) error) (bool, error) {
	r.mu.Lock()
	locked := r.locked
	r.mu.Unlock()

	if locked {
		return false, nil
	}

	return true, fn(ctx)
}
