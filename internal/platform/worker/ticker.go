package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// errFmtSingleTickerLoop is the error format for single ticker loop context errors.
const errFmtSingleTickerLoop = "single ticker loop %s: %w"

// SingleTickerConfig configures a single-ticker loop.
type SingleTickerConfig struct {
	// Name identifies the worker for logging.
	Name string

	// Interval is the main ticker interval.
	Interval time.Duration

	// OnTick is called when the main ticker fires.
	OnTick func(ctx context.Context)

	// RunOnStart runs OnTick immediately when starting.
	RunOnStart bool

	// OnStop is called once when the loop exits.
	OnStop func()

	// Logger for the worker.
	Logger *zerolog.Logger
}

// SingleTickerLoop runs OnTick on every tick until the context is canceled.
// Ticks never overlap: a slow OnTick delays the next one and missed ticks are
// dropped by time.Ticker.
func SingleTickerLoop(ctx context.Context, cfg SingleTickerConfig) error {
	logger := getLogger(cfg.Logger)
	logger.Info().Str(logFieldWorker, cfg.Name).Dur("interval", cfg.Interval).Msg("starting single ticker loop")

	defer runOnStop(cfg.OnStop, logger, cfg.Name, "single ticker loop stopped")

	if cfg.RunOnStart && cfg.OnTick != nil {
		cfg.OnTick(ctx)
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf(errFmtSingleTickerLoop, cfg.Name, ctx.Err())
		case <-ticker.C:
			if cfg.OnTick != nil {
				logger.Debug().Str(logFieldTask, cfg.Name).Msg("ticker fired")
				cfg.OnTick(ctx)
			}
		}
	}
}
