package digest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/chat-digest-bot/internal/archive"
	"github.com/lueurxax/chat-digest-bot/internal/core/domain"
	"github.com/lueurxax/chat-digest-bot/internal/core/llm"
	"github.com/lueurxax/chat-digest-bot/internal/core/ports"
	"github.com/lueurxax/chat-digest-bot/internal/platform/observability"
	"github.com/lueurxax/chat-digest-bot/internal/platform/schedule"
)

// Outcome is the normal result of a digest job.
type Outcome int

// Digest outcomes.
const (
	OutcomeDelivered Outcome = iota
	OutcomeEmpty
)

func (o Outcome) String() string {
	if o == OutcomeEmpty {
		return StatusEmpty
	}

	return StatusDelivered
}

// Generator builds a digest for one job and delivers it to the chat.
type Generator struct {
	messages    MessageSource
	registry    ports.ScheduleRegistry
	completer   llm.Completer
	sender      ports.Sender
	recentLimit int
	logger      *zerolog.Logger
	now         func() time.Time
}

// NewGenerator creates a generator. recentLimit bounds on-demand digests.
func NewGenerator(messages MessageSource, registry ports.ScheduleRegistry, completer llm.Completer, sender ports.Sender, recentLimit int, logger *zerolog.Logger) *Generator {
	return &Generator{
		messages:    messages,
		registry:    registry,
		completer:   completer,
		sender:      sender,
		recentLimit: recentLimit,
		logger:      logger,
		now:         time.Now,
	}
}

// Generate fetches the job's messages, asks the completion API for a digest and
// sends it in chunks. An empty window is reported to the chat and returns
// OutcomeEmpty without calling the API.
func (g *Generator) Generate(ctx context.Context, job domain.DigestJob) (Outcome, error) {
	logger := g.logger.With().
		Str(LogFieldCorrelationID, job.CorrelationID).
		Int64(LogFieldChatID, job.ChatID).
		Str(LogFieldKind, string(job.Kind)).
		Logger()

	texts, err := g.fetch(ctx, job, &logger)
	if err != nil {
		return OutcomeEmpty, err
	}

	if len(texts) == 0 {
		if err := g.sender.SendText(ctx, job.ChatID, NoticeEmpty, ports.FormatPlain); err != nil {
			return OutcomeEmpty, fmt.Errorf("send empty notice: %w", err)
		}

		return OutcomeEmpty, nil
	}

	if err := g.sender.SendText(ctx, job.ChatID, NoticeGenerating, ports.FormatPlain); err != nil {
		logger.Warn().Err(err).Msg("failed to send progress notice")
	}

	logger.Info().Int(LogFieldCount, len(texts)).Msg("generating digest")

	completion, err := g.completer.Complete(ctx, BuildRequest(texts))
	if err != nil {
		return OutcomeEmpty, fmt.Errorf("generate digest: %w", err)
	}

	observability.LLMCost.Add(completion.Cost)

	chunks := Chunk(completion.Text, ChunkSize)
	for i, chunk := range chunks {
		if err := g.sender.SendText(ctx, job.ChatID, chunk, ports.FormatMarkdown); err != nil {
			return OutcomeDelivered, fmt.Errorf("deliver chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}

	observability.DigestChunks.Observe(float64(len(chunks)))
	logger.Info().
		Int(LogFieldChunks, len(chunks)).
		Float64(LogFieldCost, completion.Cost).
		Str(LogFieldModel, completion.Model).
		Msg("digest delivered")

	return OutcomeDelivered, nil
}

// fetch returns the job's messages in chronological order.
func (g *Generator) fetch(ctx context.Context, job domain.DigestJob, logger *zerolog.Logger) ([]string, error) {
	var (
		texts []string
		err   error
	)

	switch job.Kind {
	case domain.JobOnDemand:
		texts, err = g.messages.QueryRecent(ctx, job.ChatID, g.recentLimit)
		slices.Reverse(texts)
	default:
		var since, until time.Time

		since, until, err = g.window(ctx, job)
		if err != nil {
			return nil, err
		}

		logger.Debug().Time(LogFieldSince, since).Time(LogFieldUntil, until).Msg("digest window")

		texts, err = g.messages.QueryWindow(ctx, job.ChatID, since, until)
	}

	var decryptErr *archive.DecryptError
	if errors.As(err, &decryptErr) {
		logger.Warn().Int(LogFieldSkipped, len(decryptErr.MessageIDs)).Msg("digest continues without undecryptable messages")

		return texts, nil
	}

	if err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}

	return texts, nil
}

// window returns [since, until) for a scheduled job. It ends at the job's due
// run time, so catch-up runs after downtime cover consecutive intervals.
func (g *Generator) window(ctx context.Context, job domain.DigestJob) (time.Time, time.Time, error) {
	sched, err := g.registry.GetSchedule(ctx, job.SubscriberID)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("digest frequency: %w", err)
	}

	interval, err := schedule.Interval(sched.Frequency)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("digest frequency: %w", err)
	}

	until := job.WindowEnd
	if until.IsZero() {
		until = g.now()
	}

	return until.Add(-interval), until, nil
}
