package main

import (
	"log/slog"
	"os"

	"github.com/itsDrac/e-auc-live/cmd/server"
	"github.com/itsDrac/e-auc-live/pkg/config"
	"github.com/itsDrac/e-auc-live/pkg/logger"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		slog.Warn("No .env file found or error loading it", "error", err)
	}

	cfg := config.Load()

	var handler slog.Handler

	// Configure structured logging with slog
	logOptions := &slog.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelInfo,
	}
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, logOptions)
	} else {
		handler = slog.NewTextHandler(os.Stdout, logOptions)
	}
	slog.SetDefault(slog.New(handler))

	// zap backs the background components
	log := logger.NewLogger(cfg.Env)
	defer log.Sync()

	slog.Info("Initializing live auction service...", "env", cfg.Env)

	srv, err := server.New(cfg, log)
	if err != nil {
		slog.Error("server failed to initialize", "error", err)
		os.Exit(1)
	}
	if err := srv.Run(); err != nil {
		slog.Error("server failed to run", "error", err)
		os.Exit(1)
	}
}
