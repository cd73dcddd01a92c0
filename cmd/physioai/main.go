package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/physioai/physioai/internal/config"
	"github.com/physioai/physioai/internal/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	setupLogging(cfg)

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Str("env", cfg.Environment).Msg("physioai starting")
	if err := srv.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("physioai stopped")
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.DurationFieldUnit = time.Millisecond

	if cfg.Environment != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}
