package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jobsift/jobsift/internal/aggregate"
	"github.com/jobsift/jobsift/internal/enrich"
	"github.com/jobsift/jobsift/internal/scheduler"
	"github.com/jobsift/jobsift/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the scheduled aggregation daemon",
	Long:  "Serve the admin HTTP API and fire scheduled aggregation runs; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("config loaded",
		"interval", cfg.Scraping.Interval.String(),
		"scraping_enabled", cfg.Scraping.Enabled,
		"location", cfg.Search.Location,
		"limit_per_source", cfg.Search.LimitPerSource,
	)

	st, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	httpClient := &http.Client{Timeout: cfg.Scraping.FetchTimeout}
	adapters := buildAdapters(cfg, httpClient, logger)
	if len(adapters) == 0 {
		logger.Error("no sources registered")
		os.Exit(1)
	}

	fetchCache := openCache(cfg, logger)
	if fetchCache != nil {
		defer fetchCache.Close()
	}

	agg := buildAggregator(cfg, adapters, st, fetchCache, logger)
	sched := scheduler.New(
		scheduler.RunnerFunc(func(ctx context.Context) error {
			_, err := agg.Run(ctx, aggregate.Options{})
			return err
		}),
		cfg.Scraping.Interval,
		cfg.Scraping.Enabled,
		logger,
	)
	if err := sched.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	enricher := enrich.New(st, httpClient, logger)
	app := server.New(st, agg, sched, enricher, cfg.Server.AdminToken, logger).App()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http api listening", "addr", cfg.Server.Addr)
		errCh <- app.Listen(cfg.Server.Addr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	case err := <-errCh:
		if err != nil {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("goodbye")
	return nil
}
