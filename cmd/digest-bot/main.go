package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/chat-digest-bot/internal/app"
	"github.com/lueurxax/chat-digest-bot/internal/platform/config"
	db "github.com/lueurxax/chat-digest-bot/internal/storage"
)

func main() {
	once := flag.Bool("once", false, "Run a single digest tick, deliver the due digests and exit")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbCfg := cfg.DatabaseCfg()
	poolOpts := db.PoolOptions{
		MaxConns:          dbCfg.MaxConnections,
		MinConns:          dbCfg.MinConnections,
		MaxConnIdleTime:   dbCfg.MaxConnIdleTime,
		MaxConnLifetime:   dbCfg.MaxConnLifetime,
		HealthCheckPeriod: dbCfg.HealthCheckPeriod,
	}

	database, err := db.NewWithOptions(ctx, dbCfg.PostgresDSN, poolOpts, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	application := app.New(cfg, database, &logger)

	if err := run(ctx, application, *once); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}

	logger.Info().Msg("application stopped")
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func run(ctx context.Context, application *app.App, once bool) error {
	if once {
		return application.RunDigestOnce(ctx)
	}

	return application.Run(ctx)
}
