// Package app provides the main application bootstrap and runtime orchestration.
//
// The App type wires together all dependencies and exposes methods to run
// the service:
//
//   - Run: Telegram bot, digest scheduler, digest executor and health server
//   - RunDigestOnce: a single scheduler tick whose jobs are executed before returning
//
// App is the only place components are constructed; nothing is held in globals.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/chat-digest-bot/internal/archive"
	"github.com/lueurxax/chat-digest-bot/internal/bot"
	"github.com/lueurxax/chat-digest-bot/internal/core/crypto"
	"github.com/lueurxax/chat-digest-bot/internal/core/llm"
	"github.com/lueurxax/chat-digest-bot/internal/digest"
	"github.com/lueurxax/chat-digest-bot/internal/platform/config"
	"github.com/lueurxax/chat-digest-bot/internal/platform/observability"
	db "github.com/lueurxax/chat-digest-bot/internal/storage"
)

const (
	errBotInit        = "bot initialization failed: %w"
	errCipherInit     = "cipher initialization failed: %w"
	errCompleterInit  = "completion client initialization failed: %w"
	msgBotStopped     = "bot stopped"
	msgSchedulerStop  = "digest scheduler stopped"
	msgHealthStopped  = "health server stopped"
	logFieldTransport = "transport"
	logFieldModel     = "model"
	logFieldQueued    = "queued"
)

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg      *config.Config
	database *db.DB
	logger   *zerolog.Logger
}

// components is the wired digest service.
type components struct {
	bot       *bot.Bot
	queue     *digest.Queue
	scheduler *digest.Scheduler
	executor  *digest.Executor
}

// New creates a new App instance with the given dependencies.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		database: database,
		logger:   logger,
	}
}

// Run starts every component and blocks until ctx is canceled and the digest
// queue has been drained.
func (a *App) Run(ctx context.Context) error {
	c, err := a.build()
	if err != nil {
		return err
	}

	var wg sync.WaitGroup

	wg.Add(3)

	go func() {
		defer wg.Done()
		a.runHealthServer(ctx)
	}()

	go func() {
		defer wg.Done()
		a.runBot(ctx, c.bot)
	}()

	go func() {
		defer wg.Done()
		a.runScheduler(ctx, c.scheduler)
	}()

	a.logger.Info().Dur("tick_interval", c.scheduler.Interval()).Msg("digest service started")

	// The executor closes the queue once ctx is done and drains it on a detached context.
	execErr := c.executor.Run(ctx)

	wg.Wait()

	if execErr != nil {
		return fmt.Errorf("digest executor: %w", execErr)
	}

	return nil
}

// RunDigestOnce performs one scheduler tick and executes the queued jobs.
func (a *App) RunDigestOnce(ctx context.Context) error {
	c, err := a.build()
	if err != nil {
		return err
	}

	queued, ran, err := c.scheduler.TickLocked(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("digest tick: %w", err)
	}

	if !ran {
		a.logger.Info().Msg("scheduler lock held by another instance, nothing queued")
	}

	a.logger.Info().Int(logFieldQueued, queued).Msg("digest tick finished")

	c.queue.Close()

	if err := c.executor.Run(ctx); err != nil {
		return fmt.Errorf("digest executor: %w", err)
	}

	return nil
}

func (a *App) build() (*components, error) {
	digestCfg := a.cfg.DigestCfg()
	botCfg := a.cfg.TelegramBotCfg()

	cipher, err := crypto.New(digestCfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf(errCipherInit, err)
	}

	completer, err := llm.New(a.cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf(errCompleterInit, err)
	}

	a.logger.Info().Str(logFieldTransport, a.cfg.LLMTransport).Str(logFieldModel, a.cfg.LLMModel).Msg("completion client ready")

	store := archive.New(a.database, cipher, a.logger)
	queue := digest.NewQueue()

	b, err := bot.New(bot.Config{
		Token:         botCfg.Token,
		UpdateTimeout: botCfg.UpdateTimeoutSec,
	}, store, a.database, queue, a.logger)
	if err != nil {
		return nil, fmt.Errorf(errBotInit, err)
	}

	generator := digest.NewGenerator(store, a.database, completer, b, digestCfg.RecentLimit, a.logger)

	scheduler := digest.NewScheduler(a.database, queue, digestCfg.TickInterval, a.logger)
	scheduler.SetLocker(a.database)

	executor := digest.NewExecutor(queue, generator, b, digestCfg.JobTimeout, digestCfg.DrainTimeout, a.logger)

	return &components{
		bot:       b,
		queue:     queue,
		scheduler: scheduler,
		executor:  executor,
	}, nil
}

func (a *App) runBot(ctx context.Context, b *bot.Bot) {
	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error().Err(err).Msg(msgBotStopped)

		return
	}

	a.logger.Info().Msg(msgBotStopped)
}

func (a *App) runScheduler(ctx context.Context, s *digest.Scheduler) {
	if err := s.Run(ctx); err != nil {
		a.logger.Error().Err(err).Msg(msgSchedulerStop)

		return
	}

	a.logger.Info().Msg(msgSchedulerStop)
}

func (a *App) runHealthServer(ctx context.Context) {
	srv := observability.NewServer(a.database, a.cfg.HealthPort, a.logger)

	if err := srv.Start(ctx); err != nil {
		a.logger.Error().Err(err).Msg(msgHealthStopped)

		return
	}

	a.logger.Info().Msg(msgHealthStopped)
}
