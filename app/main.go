package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/lysyi3m/timing-comb/app/api"
	"github.com/lysyi3m/timing-comb/app/cfg"
	"github.com/lysyi3m/timing-comb/app/database"
	"github.com/lysyi3m/timing-comb/app/metrics"
	"github.com/lysyi3m/timing-comb/app/profile"
	"github.com/lysyi3m/timing-comb/app/session"
	"github.com/lysyi3m/timing-comb/app/sink"
	"github.com/lysyi3m/timing-comb/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	setupLogging(appCfg.Debug)

	slog.Info("Starting Timing Comb", "version", appCfg.Version)

	slog.Info("Opening event store", "path", appCfg.DBPath)
	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open event store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Migrations applied", "version", version, "dirty", dirty)

	slog.Info("Loading harvest profiles", "dir", appCfg.ProfilesDir)
	configCache := profile.NewConfigCache(appCfg.ProfilesDir, appCfg.PollIntervalMs)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load profiles", "error", err)
		os.Exit(1)
	}
	slog.Info("Profiles loaded", "count", configCache.GetConfigCount())

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	obs := metrics.NewPromObs(reg)

	eventRepo := database.NewEventRepository(db)
	sinks := sink.Fanout{
		sink.NewMetrics(obs),
		sink.NewStore(eventRepo, obs),
	}
	if appCfg.Debug {
		sinks = append(sinks, sink.NewLog(slog.Default()))
	}

	registry := session.NewRegistry(configCache, sinks, tasks.RealClock(), obs, appCfg.MaxSessions)
	defer registry.Close()

	handler := api.NewHandler(configCache, registry, eventRepo)
	server := api.NewServer(handler, appCfg.APIAccessKey, reg)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Harvesters and the event store are closed via defer
	slog.Info("Timing Comb shutdown complete")
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}
