package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for jobsift.
type Config struct {
	Search    SearchConfig
	Scraping  ScrapingConfig
	Providers ProvidersConfig
	Region    RegionConfig
	Store     StoreConfig
	Cache     CacheConfig
	Server    ServerConfig
}

// SearchConfig holds the default query parameters applied on every run
// unless a trigger supplies its own.
type SearchConfig struct {
	Keywords       string
	Location       string
	LimitPerSource int
}

// ScrapingConfig controls the scheduled aggregation loop.
type ScrapingConfig struct {
	Enabled       bool
	Interval      time.Duration // gap between scheduled runs
	SourceDelay   time.Duration // pause between consecutive sources in a run
	RecencyWindow time.Duration // postings older than this are dropped
	FetchTimeout  time.Duration // per-provider HTTP timeout
}

// ProvidersConfig carries per-provider credentials. A provider with empty
// credentials is simply not registered; public sources only need Enabled.
type ProvidersConfig struct {
	JSearch   KeyedProvider  `yaml:"jsearch"`
	Adzuna    AdzunaProvider `yaml:"adzuna"`
	Careerjet KeyedProvider  `yaml:"careerjet"`
	LinkedIn  KeyedProvider  `yaml:"linkedin"`
	TheMuse   ToggleProvider `yaml:"themuse"`
	Remotive  ToggleProvider `yaml:"remotive"`
	Arbeitnow ToggleProvider `yaml:"arbeitnow"`
	Apify     ApifyProvider  `yaml:"apify"`
}

type KeyedProvider struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
}

type AdzunaProvider struct {
	Enabled bool   `yaml:"enabled"`
	AppID   string `yaml:"app_id"`
	AppKey  string `yaml:"app_key"`
}

type ToggleProvider struct {
	Enabled bool `yaml:"enabled"`
}

// ApifyProvider points the dataset adapters at finished actor-run datasets.
// An actor id lets a manually triggered run start a fresh scrape; without
// one the adapter only ever reads its preconfigured dataset.
type ApifyProvider struct {
	Enabled         bool   `yaml:"enabled"`
	Token           string `yaml:"token"`
	LinkedInDataset string `yaml:"linkedin_dataset"`
	LinkedInActor   string `yaml:"linkedin_actor"`
	NaukriDataset   string `yaml:"naukri_dataset"`
	NaukriActor     string `yaml:"naukri_actor"`
	IndeedDataset   string `yaml:"indeed_dataset"`
	IndeedActor     string `yaml:"indeed_actor"`
}

// RegionConfig overrides the built-in allow/reject location lists when set.
type RegionConfig struct {
	Allow  []string `yaml:"allow"`
	Reject []string `yaml:"reject"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig enables the Redis fetch cache when URL is non-empty.
type CacheConfig struct {
	URL string
	TTL time.Duration
}

type ServerConfig struct {
	Addr       string `yaml:"addr"`
	AdminToken string `yaml:"admin_token"`
}

// rawConfig is used for YAML unmarshaling (snake_case fields and durations
// as strings).
type rawConfig struct {
	Search struct {
		Keywords       string `yaml:"keywords"`
		Location       string `yaml:"location"`
		LimitPerSource int    `yaml:"limit_per_source"`
	} `yaml:"search"`
	Scraping struct {
		Enabled       *bool  `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		SourceDelay   string `yaml:"source_delay"`
		RecencyDays   int    `yaml:"recency_days"`
		FetchTimeout  string `yaml:"fetch_timeout"`
	} `yaml:"scraping"`
	Providers ProvidersConfig `yaml:"providers"`
	Region    RegionConfig    `yaml:"region"`
	Store     StoreConfig     `yaml:"store"`
	Cache     struct {
		URL string `yaml:"url"`
		TTL string `yaml:"ttl"`
	} `yaml:"cache"`
	Server ServerConfig `yaml:"server"`
}

// Load reads the YAML config at path, expands ${VAR} references, applies
// environment overrides, validates and returns Config. A .env file next to
// the working directory is read first so expansion sees its values.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // absent .env is fine

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		Search: SearchConfig{
			Keywords:       raw.Search.Keywords,
			Location:       raw.Search.Location,
			LimitPerSource: raw.Search.LimitPerSource,
		},
		Scraping: ScrapingConfig{
			Enabled:       true,
			Interval:      6 * time.Hour,
			SourceDelay:   2 * time.Second,
			RecencyWindow: 7 * 24 * time.Hour,
			FetchTimeout:  30 * time.Second,
		},
		Providers: raw.Providers,
		Region:    raw.Region,
		Store:     raw.Store,
		Server:    raw.Server,
	}

	if raw.Scraping.Enabled != nil {
		cfg.Scraping.Enabled = *raw.Scraping.Enabled
	}
	if raw.Scraping.IntervalHours > 0 {
		cfg.Scraping.Interval = time.Duration(raw.Scraping.IntervalHours) * time.Hour
	}
	if raw.Scraping.SourceDelay != "" {
		cfg.Scraping.SourceDelay, err = time.ParseDuration(raw.Scraping.SourceDelay)
		if err != nil {
			return nil, fmt.Errorf("parse scraping.source_delay %q: %w", raw.Scraping.SourceDelay, err)
		}
	}
	if raw.Scraping.RecencyDays > 0 {
		cfg.Scraping.RecencyWindow = time.Duration(raw.Scraping.RecencyDays) * 24 * time.Hour
	}
	if raw.Scraping.FetchTimeout != "" {
		cfg.Scraping.FetchTimeout, err = time.ParseDuration(raw.Scraping.FetchTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse scraping.fetch_timeout %q: %w", raw.Scraping.FetchTimeout, err)
		}
	}

	cfg.Cache.URL = raw.Cache.URL
	cfg.Cache.TTL = time.Hour
	if raw.Cache.TTL != "" {
		cfg.Cache.TTL, err = time.ParseDuration(raw.Cache.TTL)
		if err != nil {
			return nil, fmt.Errorf("parse cache.ttl %q: %w", raw.Cache.TTL, err)
		}
	}

	if cfg.Search.Location == "" {
		cfg.Search.Location = "India"
	}
	if cfg.Search.Keywords == "" {
		cfg.Search.Keywords = "software engineer"
	}
	if cfg.Search.LimitPerSource <= 0 {
		cfg.Search.LimitPerSource = 50
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "jobsift.db"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides layers the scraping toggles on top of the file values.
// These take precedence over anything in the YAML.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("DEFAULT_SEARCH_LOCATION"); v != "" {
		cfg.Search.Location = v
	}
	if v := os.Getenv("SCRAPING_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse SCRAPING_ENABLED %q: %w", v, err)
		}
		cfg.Scraping.Enabled = b
	}
	if v := os.Getenv("SCRAPING_INTERVAL_HOURS"); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil || h <= 0 {
			return fmt.Errorf("parse SCRAPING_INTERVAL_HOURS %q: must be a positive integer", v)
		}
		cfg.Scraping.Interval = time.Duration(h) * time.Hour
	}
	if v := os.Getenv("MAX_JOBS_PER_SCRAPE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return fmt.Errorf("parse MAX_JOBS_PER_SCRAPE %q: must be a positive integer", v)
		}
		cfg.Search.LimitPerSource = n
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Cache.URL = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	return nil
}

func validate(cfg *Config) error {
	if cfg.Scraping.Interval <= 0 {
		return fmt.Errorf("scraping interval must be positive, got %v", cfg.Scraping.Interval)
	}
	if cfg.Scraping.SourceDelay < 0 {
		return fmt.Errorf("scraping.source_delay must not be negative, got %v", cfg.Scraping.SourceDelay)
	}

	p := cfg.Providers
	if p.JSearch.Enabled && p.JSearch.APIKey == "" {
		return fmt.Errorf("providers.jsearch.api_key is required when jsearch is enabled")
	}
	if p.Adzuna.Enabled && (p.Adzuna.AppID == "" || p.Adzuna.AppKey == "") {
		return fmt.Errorf("providers.adzuna.app_id and app_key are required when adzuna is enabled")
	}
	if p.Careerjet.Enabled && p.Careerjet.APIKey == "" {
		return fmt.Errorf("providers.careerjet.api_key is required when careerjet is enabled")
	}
	if p.LinkedIn.Enabled && p.LinkedIn.APIKey == "" {
		return fmt.Errorf("providers.linkedin.api_key is required when linkedin is enabled")
	}
	if p.Apify.Enabled {
		if p.Apify.Token == "" {
			return fmt.Errorf("providers.apify.token is required when apify is enabled")
		}
		if p.Apify.LinkedInDataset == "" && p.Apify.NaukriDataset == "" && p.Apify.IndeedDataset == "" &&
			p.Apify.LinkedInActor == "" && p.Apify.NaukriActor == "" && p.Apify.IndeedActor == "" {
			return fmt.Errorf("providers.apify needs at least one dataset or actor id when enabled")
		}
	}
	if !anyProviderEnabled(p) {
		return fmt.Errorf("at least one provider must be enabled")
	}

	if cfg.Cache.URL != "" && !strings.HasPrefix(cfg.Cache.URL, "redis://") && !strings.HasPrefix(cfg.Cache.URL, "rediss://") {
		return fmt.Errorf("cache.url must be a redis:// URL, got %q", cfg.Cache.URL)
	}
	return nil
}

func anyProviderEnabled(p ProvidersConfig) bool {
	return p.JSearch.Enabled || p.Adzuna.Enabled || p.Careerjet.Enabled ||
		p.LinkedIn.Enabled || p.TheMuse.Enabled || p.Remotive.Enabled ||
		p.Arbeitnow.Enabled || p.Apify.Enabled
}
