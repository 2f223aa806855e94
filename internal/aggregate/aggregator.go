package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jobsift/jobsift/internal/dedup"
	"github.com/jobsift/jobsift/internal/model"
	"github.com/jobsift/jobsift/internal/normalize"
	"github.com/jobsift/jobsift/internal/region"
)

// FetchCache is the optional cache consulted before hitting a provider.
// Implemented by the Redis cache; nil disables caching.
type FetchCache interface {
	Get(ctx context.Context, source model.Source, query, location string) ([]model.Posting, bool)
	Set(ctx context.Context, source model.Source, query, location string, postings []model.Posting) error
}

// Options parameterizes one aggregation run. Zero values fall back to the
// aggregator's configured defaults.
type Options struct {
	Keywords       string
	Location       string
	LimitPerSource int
	Sources        []model.Source // subset to run; empty means all registered
	UseCache       bool           // manual triggers set this; scheduled runs don't
	Refresh        bool           // start fresh scrape runs on refreshable sources
	DryRun         bool           // aggregate and report, skip persistence
}

// SourceError records one provider's failure without aborting the run.
type SourceError struct {
	Source model.Source `json:"source"`
	Err    error        `json:"-"`
}

func (e SourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

// Summary is the outcome of one aggregation run.
type Summary struct {
	PerSource  map[model.Source]int `json:"perSource"`
	Errors     []SourceError        `json:"errors,omitempty"`
	Fetched    int                  `json:"fetched"`
	Filtered   int                  `json:"filtered"` // dropped by region or recency
	Saved      int                  `json:"saved"`
	Updated    int                  `json:"updated"`
	Duplicates int                  `json:"duplicates"`
	ErrorCount int                  `json:"errorCount"` // failed sources + failed records
}

// Aggregator runs all registered source adapters in order, normalizes and
// filters what they return, and persists the survivors. One bad provider
// never aborts a run; its error lands in the summary.
type Aggregator struct {
	adapters      []model.SourceAdapter
	store         model.PostingStore
	cache         FetchCache
	filter        *region.Filter
	defaults      model.SearchQuery
	sourceDelay   time.Duration
	recencyWindow time.Duration
	logger        *slog.Logger

	now func() time.Time
}

// New creates an Aggregator. cache may be nil. sourceDelay is the pause
// between consecutive providers; recencyWindow drops postings whose
// PostedDate is older (postings without a date always pass).
func New(
	adapters []model.SourceAdapter,
	store model.PostingStore,
	cache FetchCache,
	filter *region.Filter,
	defaults model.SearchQuery,
	sourceDelay, recencyWindow time.Duration,
	logger *slog.Logger,
) *Aggregator {
	return &Aggregator{
		adapters:      adapters,
		store:         store,
		cache:         cache,
		filter:        filter,
		defaults:      defaults,
		sourceDelay:   sourceDelay,
		recencyWindow: recencyWindow,
		logger:        logger,
		now:           time.Now,
	}
}

// Run executes one aggregation pass. Zero survivors is a normal outcome;
// the only fatal condition is context cancellation between sources.
func (a *Aggregator) Run(ctx context.Context, opts Options) (*Summary, error) {
	q := model.SearchQuery{
		Keywords: firstNonEmpty(opts.Keywords, a.defaults.Keywords),
		Location: firstNonEmpty(opts.Location, a.defaults.Location),
		Limit:    a.defaults.Limit,
	}
	if opts.LimitPerSource > 0 {
		q.Limit = opts.LimitPerSource
	}

	summary := &Summary{PerSource: make(map[model.Source]int)}
	var batch []model.Posting

	first := true
	for _, adapter := range a.adapters {
		if !wantSource(opts.Sources, adapter.Source()) {
			continue
		}
		if !first {
			select {
			case <-ctx.Done():
				return summary, fmt.Errorf("aggregation cancelled: %w", ctx.Err())
			case <-time.After(a.sourceDelay):
			}
		}
		first = false

		src := adapter.Source()
		useCache := opts.UseCache
		if opts.Refresh {
			if r, ok := adapter.(model.DatasetRefresher); ok {
				if err := r.Refresh(ctx, q); err != nil {
					a.logger.Warn("source refresh failed", "source", src, "error", err)
					summary.Errors = append(summary.Errors, SourceError{Source: src, Err: err})
					continue
				}
				// A cached result would mask the data the refresh just produced.
				useCache = false
			}
		}

		postings, err := a.fetchSource(ctx, adapter, q, useCache)
		if err != nil {
			a.logger.Warn("source fetch failed", "source", src, "error", err)
			summary.Errors = append(summary.Errors, SourceError{Source: src, Err: err})
			continue
		}

		summary.PerSource[src] = len(postings)
		summary.Fetched += len(postings)

		kept := 0
		for _, p := range postings {
			a.finalize(&p)
			if !a.keep(p) {
				summary.Filtered++
				continue
			}
			batch = append(batch, p)
			kept++
		}
		a.logger.Info("source aggregated", "source", src, "fetched", len(postings), "kept", kept)
	}

	if opts.DryRun {
		summary.ErrorCount = len(summary.Errors)
		return summary, nil
	}

	result := a.store.SaveBatch(ctx, batch)
	summary.Saved = result.Saved
	summary.Updated = result.Updated
	summary.Duplicates = result.Duplicates
	summary.ErrorCount = len(summary.Errors) + result.Errors

	a.logger.Info("aggregation finished",
		"fetched", summary.Fetched, "filtered", summary.Filtered,
		"saved", summary.Saved, "updated", summary.Updated,
		"duplicates", summary.Duplicates, "errors", summary.ErrorCount)
	return summary, nil
}

func (a *Aggregator) fetchSource(ctx context.Context, adapter model.SourceAdapter, q model.SearchQuery, useCache bool) ([]model.Posting, error) {
	src := adapter.Source()
	if useCache && a.cache != nil {
		if postings, ok := a.cache.Get(ctx, src, q.Keywords, q.Location); ok {
			a.logger.Debug("cache hit", "source", src)
			return postings, nil
		}
	}

	postings, err := adapter.Fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	if useCache && a.cache != nil && len(postings) > 0 {
		if err := a.cache.Set(ctx, src, q.Keywords, q.Location, postings); err != nil {
			a.logger.Warn("cache fill failed", "source", src, "error", err)
		}
	}
	return postings, nil
}

// finalize applies the record-level invariants every stored posting carries:
// named defaults, placeholder URL, fingerprint, quality score, timestamps.
func (a *Aggregator) finalize(p *model.Posting) {
	now := a.now().UTC()

	if p.Company == "" {
		p.Company = model.DefaultCompany
	}
	if p.Location == "" {
		p.Location = model.DefaultLocation
	}
	if p.JobType == "" {
		p.JobType = model.DefaultJobType
	}
	if p.ExternalURL == "" {
		p.ExternalURL = fmt.Sprintf("https://example.com/jobs/%s/%s", p.Source, p.ExternalID)
	}
	if p.WorkMode == "" {
		p.WorkMode = model.WorkModeOnSite
	}
	if p.ExperienceLevel == "" {
		p.ExperienceLevel = model.LevelUnknown
	}
	if len(p.RequiredSkills) == 0 {
		p.RequiredSkills = []string{model.Placeholder}
	}
	if len(p.Requirements) == 0 {
		p.Requirements = []string{model.Placeholder}
	}
	if len(p.Benefits) == 0 {
		p.Benefits = []string{model.Placeholder}
	}

	p.ContentHash = dedup.Fingerprint(p.Title, p.Company, p.Location)
	p.QualityScore = normalize.Score(*p, now)
	p.Status = model.StatusActive
	p.ScrapedAt = now
	p.LastUpdated = now
	p.LastSyncedAt = now
}

// keep applies the region and recency gates.
func (a *Aggregator) keep(p model.Posting) bool {
	if !a.filter.InRegion(p.Location, p.WorkMode) {
		return false
	}
	if p.PostedDate != nil && a.now().Sub(*p.PostedDate) > a.recencyWindow {
		return false
	}
	return true
}

func wantSource(subset []model.Source, src model.Source) bool {
	if len(subset) == 0 {
		return true
	}
	for _, s := range subset {
		if s == src {
			return true
		}
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
