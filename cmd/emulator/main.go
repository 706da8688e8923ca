package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattkinnersley/cloud-dlp-hook/internal/config"
	"github.com/mattkinnersley/cloud-dlp-hook/internal/executor"
	"github.com/mattkinnersley/cloud-dlp-hook/internal/server"
	"github.com/mattkinnersley/cloud-dlp-hook/internal/state"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Configure log level
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Create state store and register templates from the seed file
	store := state.NewStore()
	defaultParent := "projects/" + cfg.ProjectID
	for _, td := range cfg.Seed.InspectTemplates {
		tmpl, err := td.InspectTemplate(defaultParent)
		if err != nil {
			slog.Error("invalid inspect template", "error", err)
			os.Exit(1)
		}
		store.InspectTemplates.Save(tmpl)
		slog.Info("registered inspect template", "name", tmpl.GetName())
	}
	for _, td := range cfg.Seed.DeidentifyTemplates {
		tmpl, err := td.DeidentifyTemplate(defaultParent)
		if err != nil {
			slog.Error("invalid deidentify template", "error", err)
			os.Exit(1)
		}
		store.DeidentifyTemplates.Save(tmpl)
		slog.Info("registered deidentify template", "name", tmpl.GetName())
	}

	runner := executor.NewSimulatedExecutor(store, cfg.JobStartDelay, cfg.JobDuration)
	slog.Info("using simulated executor", "start_delay", cfg.JobStartDelay, "duration", cfg.JobDuration)

	// Start gRPC server
	srv := server.New(store, runner)

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("shutting down...")
		srv.Stop()
	}()

	if err := srv.Start(cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
