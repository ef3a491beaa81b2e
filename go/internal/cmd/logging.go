package main

import (
	"os"

	"github.com/mcdev12/racecycles/go/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func setupLogging(cfg config.LogConfig) {
	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		log.Warn().Str("level", cfg.Level).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
