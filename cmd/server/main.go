package main

import (
	"log/slog"
	"os"

	"pet-adoption-portal/internal/app"
	"pet-adoption-portal/internal/logger"
)

func main() {
	// Replaced by the configured logger once the config is loaded.
	logHandler := logger.NewPrettyHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(logHandler))

	application, err := app.New()
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}
