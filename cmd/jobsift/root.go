package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jobsift/jobsift/internal/adapter"
	"github.com/jobsift/jobsift/internal/aggregate"
	"github.com/jobsift/jobsift/internal/cache"
	"github.com/jobsift/jobsift/internal/config"
	"github.com/jobsift/jobsift/internal/model"
	"github.com/jobsift/jobsift/internal/region"
	"github.com/jobsift/jobsift/internal/store"
)

const (
	jsearchHost  = "jsearch.p.rapidapi.com"
	linkedinHost = "linkedin-job-search-api.p.rapidapi.com"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobsift",
	Short: "Aggregate and normalize job postings from external boards",
	Long:  "JobSift pulls postings from external job boards, normalizes them into one canonical shape, filters them to the target region, and serves them over an admin HTTP API.",
	// Default to `serve` so invoking the binary directly runs the daemon.
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBSIFT_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit flag > JOBSIFT_CONFIG env var > "./config.yaml"
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if env := os.Getenv("JOBSIFT_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// buildAdapters registers one adapter per provider with credentials.
func buildAdapters(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) []model.SourceAdapter {
	var adapters []model.SourceAdapter
	add := func(a model.SourceAdapter) {
		adapters = append(adapters, a)
		logger.Info("registered source", "source", a.Source())
	}

	p := cfg.Providers
	if p.JSearch.Enabled {
		add(adapter.NewJSearchAdapter(p.JSearch.APIKey, jsearchHost, httpClient))
	}
	if p.Adzuna.Enabled {
		add(adapter.NewAdzunaAdapter(p.Adzuna.AppID, p.Adzuna.AppKey, httpClient))
	}
	if p.Careerjet.Enabled {
		add(adapter.NewCareerjetAdapter(p.Careerjet.APIKey, httpClient))
	}
	if p.TheMuse.Enabled {
		add(adapter.NewTheMuseAdapter("", httpClient))
	}
	if p.Remotive.Enabled {
		add(adapter.NewRemotiveAdapter(httpClient))
	}
	if p.Arbeitnow.Enabled {
		add(adapter.NewArbeitnowAdapter(httpClient))
	}
	if p.LinkedIn.Enabled {
		add(adapter.NewLinkedInAdapter(p.LinkedIn.APIKey, linkedinHost, httpClient))
	}
	if p.Apify.Enabled {
		client := adapter.NewApifyClient(p.Apify.Token, cfg.Scraping.FetchTimeout)
		if p.Apify.LinkedInDataset != "" || p.Apify.LinkedInActor != "" {
			add(adapter.NewApifyLinkedInAdapter(client, p.Apify.LinkedInDataset, p.Apify.LinkedInActor))
		}
		if p.Apify.NaukriDataset != "" || p.Apify.NaukriActor != "" {
			add(adapter.NewApifyNaukriAdapter(client, p.Apify.NaukriDataset, p.Apify.NaukriActor))
		}
		if p.Apify.IndeedDataset != "" || p.Apify.IndeedActor != "" {
			add(adapter.NewApifyIndeedAdapter(client, p.Apify.IndeedDataset, p.Apify.IndeedActor))
		}
	}
	return adapters
}

// openCache connects the optional Redis fetch cache. A missing or
// unreachable Redis degrades to no caching, never a startup failure.
func openCache(cfg *config.Config, logger *slog.Logger) *cache.Cache {
	if cfg.Cache.URL == "" {
		return nil
	}
	c, err := cache.New(cfg.Cache.URL, cfg.Cache.TTL)
	if err != nil {
		logger.Warn("fetch cache unavailable, continuing without it", "error", err)
		return nil
	}
	logger.Info("fetch cache connected", "ttl", cfg.Cache.TTL.String())
	return c
}

func buildAggregator(cfg *config.Config, adapters []model.SourceAdapter, st model.PostingStore, c *cache.Cache, logger *slog.Logger) *aggregate.Aggregator {
	var fc aggregate.FetchCache
	if c != nil {
		fc = c
	}
	return aggregate.New(
		adapters,
		st,
		fc,
		region.New(cfg.Region.Allow, cfg.Region.Reject),
		model.SearchQuery{
			Keywords: cfg.Search.Keywords,
			Location: cfg.Search.Location,
			Limit:    cfg.Search.LimitPerSource,
		},
		cfg.Scraping.SourceDelay,
		cfg.Scraping.RecencyWindow,
		logger,
	)
}

func openStore(cfg *config.Config, logger *slog.Logger) (*store.SQLiteStore, error) {
	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	logger.Debug("store opened", "path", cfg.Store.Path)
	return st, nil
}
