package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jobsift/jobsift/internal/aggregate"
	"github.com/jobsift/jobsift/internal/model"
)

var (
	fetchDryRun   bool
	fetchRefresh  bool
	fetchLocation string
	fetchKeywords string
	fetchLimit    int
	fetchSources  []string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Run one aggregation pass and exit",
	Long:  "One-shot aggregation: fetch every configured source, filter and persist, print the summary. --dry-run aggregates without writing.",
	RunE:  runFetch,
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchDryRun, "dry-run", false, "aggregate and print the summary, do not persist")
	fetchCmd.Flags().BoolVar(&fetchRefresh, "refresh", false, "start fresh Apify scrape runs instead of reading existing datasets")
	fetchCmd.Flags().StringVar(&fetchLocation, "location", "", "override the configured search location")
	fetchCmd.Flags().StringVar(&fetchKeywords, "keywords", "", "override the configured search keywords")
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", 0, "override the per-source posting limit")
	fetchCmd.Flags().StringSliceVar(&fetchSources, "source", nil, "run only the named sources (repeatable)")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

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

	if fetchDryRun {
		logger.Info("dry-run mode enabled, nothing will be persisted")
	}

	opts := aggregate.Options{
		Location:       fetchLocation,
		Keywords:       fetchKeywords,
		LimitPerSource: fetchLimit,
		Refresh:        fetchRefresh,
		DryRun:         fetchDryRun,
	}
	for _, src := range fetchSources {
		opts.Sources = append(opts.Sources, model.Source(src))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	agg := buildAggregator(cfg, adapters, st, fetchCache, logger)
	summary, err := agg.Run(ctx, opts)
	if err != nil {
		logger.Error("aggregation failed", "error", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))

	for _, srcErr := range summary.Errors {
		logger.Warn("source failed", "source", srcErr.Source, "error", srcErr.Err)
	}
	return nil
}
