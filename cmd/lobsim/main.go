package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lobsim/internal/config"
	"lobsim/internal/domain"
	"lobsim/internal/handler"
	"lobsim/internal/metrics"
	"lobsim/internal/service"
	"lobsim/internal/sim"
)

func main() {
	scenarioPath := flag.String("scenario", "", "Path to a YAML scenario file (default scenario if empty)")
	serve := flag.Bool("serve", false, "Run the HTTP/websocket server instead of a headless run")
	seed := flag.Int64("seed", 0, "Override the scenario's random seed")
	duration := flag.Float64("duration", 0, "Override the scenario's duration in simulated seconds")
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
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
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Scenario: file if given, otherwise the default.
	simCfg := sim.DefaultConfig()
	if *scenarioPath != "" {
		simCfg, err = config.LoadScenario(*scenarioPath)
		if err != nil {
			logger.Error("failed to load scenario", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	if *seed != 0 {
		simCfg.Seed = *seed
	}
	if *duration > 0 {
		simCfg.Duration = *duration
	}

	if *serve {
		runServer(cfg, logger)
		return
	}

	if err := runHeadless(simCfg, logger); err != nil {
		logger.Error("run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runHeadless drives one run to completion and prints the market
// summary and strategy performance as JSON on stdout.
func runHeadless(simCfg sim.Config, logger *slog.Logger) error {
	runner, err := sim.NewRunner(simCfg, logger)
	if err != nil {
		return err
	}
	if err := runner.Start(); err != nil {
		return err
	}

	for {
		res, err := runner.Step(10000)
		if err != nil {
			return err
		}
		if res.Done {
			break
		}
	}

	snap := runner.Snapshot()
	report := struct {
		SimTime    float64               `json:"sim_time"`
		FinalMid   float64               `json:"final_mid"`
		Market     metrics.MarketSummary `json:"market"`
		Strategies any                   `json:"strategies"`
	}{
		SimTime:    snap.SimTime,
		FinalMid:   snap.MidPrice,
		Market:     metrics.Summarize(runner.PriceHistory(), runner.SpreadHistory(), runner.VolumeHistory(), runner.Trades()),
		Strategies: snap.Strategies,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// runServer exposes the run manager over HTTP and steps every
// registered run in the background until shutdown.
func runServer(cfg *config.Config, logger *slog.Logger) {
	mgr := service.NewManager(logger)
	feed := handler.NewFeed(logger)
	mgr.OnSnapshot = feed.PublishSnapshot
	mgr.OnTrade = feed.PublishTrade
	router := handler.NewRouter(mgr, feed, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go stepLoop(ctx, mgr, cfg.StepBatch, cfg.StepPace, logger)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	logger.Info("server stopped")
}

// stepLoop advances every registered run by batch events each pace
// interval. Finished or cancelled runs are skipped.
func stepLoop(ctx context.Context, mgr *service.Manager, batch int, pace time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(pace)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range mgr.RunIDs() {
				_, err := mgr.Step(id, batch)
				switch {
				case err == nil, errors.Is(err, domain.ErrRunNotRunning), errors.Is(err, domain.ErrRunNotFound):
				default:
					logger.Error("background step failed",
						slog.String("run_id", id),
						slog.String("error", err.Error()))
				}
			}
		}
	}
}
