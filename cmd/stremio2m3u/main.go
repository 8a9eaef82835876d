package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"stremio2m3u/pkg/config"
	"stremio2m3u/pkg/env"
	"stremio2m3u/pkg/initialization"
	"stremio2m3u/pkg/logger"

	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	// Load environment variables for logger and config
	dotenvErr := godotenv.Load()

	// Initialize Logger early so config loading can use it
	logger.Init(env.LogLevel())
	if dotenvErr != nil {
		logger.Debug("No .env file found, using environment variables")
	}
	logToFile := env.LogToFile()
	if logToFile {
		if err := logger.EnableFile(); err != nil {
			logger.Warn("Log file disabled", "err", err)
		}
	}

	logger.Info("Starting stremio2m3u", "version", Version)

	cfg, err := config.Load(Version)
	if err != nil {
		initialization.Exit(err)
	}

	// config.json may carry its own logging settings
	if cfg.LogLevel != env.LogLevel() {
		logger.Init(cfg.LogLevel)
	}
	if cfg.LogFile && !logToFile {
		if err := logger.EnableFile(); err != nil {
			logger.Warn("Log file disabled", "err", err)
		}
	}

	comp, err := initialization.Bootstrap(cfg, nil)
	if err != nil {
		initialization.Exit(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = comp.Run(ctx)
	stop()

	initialization.Exit(err)
}
