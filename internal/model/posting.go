package model

import (
	"context"
	"time"
)

// Source identifies an upstream job provider.
type Source string

const (
	SourceJSearch       Source = "jsearch"
	SourceAdzuna        Source = "adzuna"
	SourceCareerjet     Source = "careerjet"
	SourceTheMuse       Source = "themuse"
	SourceRemotive      Source = "remotive"
	SourceArbeitnow     Source = "arbeitnow"
	SourceLinkedIn      Source = "linkedin"
	SourceApifyLinkedIn Source = "apify-linkedin"
	SourceApifyNaukri   Source = "apify-naukri"
	SourceApifyIndeed   Source = "apify-indeed"
)

// WorkMode is where the work happens.
type WorkMode string

const (
	WorkModeRemote WorkMode = "Remote"
	WorkModeHybrid WorkMode = "Hybrid"
	WorkModeOnSite WorkMode = "On-site"
)

// ExperienceLevel is the seniority ladder a posting targets.
type ExperienceLevel string

const (
	LevelEntry     ExperienceLevel = "entry"
	LevelJunior    ExperienceLevel = "junior"
	LevelMid       ExperienceLevel = "mid"
	LevelSenior    ExperienceLevel = "senior"
	LevelLead      ExperienceLevel = "lead"
	LevelExecutive ExperienceLevel = "executive"
	LevelUnknown   ExperienceLevel = "unknown"
)

// Status is the lifecycle state of a stored posting. Postings are never
// row-deleted outside the explicit cleanup operation; they are flagged.
type Status string

const (
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusRemoved   Status = "removed"
	StatusDuplicate Status = "duplicate"
	StatusProcessed Status = "processed"
)

// Named defaults used when a provider omits a field. Records degrade to
// these rather than failing.
const (
	DefaultCompany  = "Not specified"
	DefaultLocation = "India"
	DefaultJobType  = "Full-time"
	Placeholder     = "Not specified"
)

// MaxDescriptionLen bounds stored description length; longer text is
// truncated, never rejected.
const MaxDescriptionLen = 10000

// Salary carries parsed bounds together with the provider's raw display
// string. Many sources supply only one or the other.
type Salary struct {
	Min      int64  `json:"min,omitempty"`
	Max      int64  `json:"max,omitempty"`
	Currency string `json:"currency,omitempty"`
	Period   string `json:"period,omitempty"` // "annual", "monthly", "hourly"
	Text     string `json:"text,omitempty"`   // raw provider string, verbatim
}

// Posting is the canonical record every provider's listing is normalized
// into before storage. (Source, ExternalID) is globally unique.
type Posting struct {
	ID         int64  `json:"id,omitempty"`
	Source     Source `json:"source"`
	ExternalID string `json:"externalId"`

	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Description string `json:"description"`
	ExternalURL string `json:"externalUrl"`

	JobType         string          `json:"jobType"`
	WorkMode        WorkMode        `json:"workMode"`
	ExperienceLevel ExperienceLevel `json:"experienceLevel"`

	Salary *Salary `json:"salary,omitempty"`

	RequiredSkills []string `json:"requiredSkills"`
	Requirements   []string `json:"requirements"`
	Benefits       []string `json:"benefits"`

	QualityScore int    `json:"qualityScore"`
	ContentHash  string `json:"contentHash"`
	DuplicateOf  string `json:"duplicateOf,omitempty"` // "<source>:<externalId>" of the earlier record
	Status       Status `json:"status"`

	PostedDate   *time.Time `json:"postedDate,omitempty"`
	ScrapedAt    time.Time  `json:"scrapedAt"`
	LastUpdated  time.Time  `json:"lastUpdated"`
	LastSyncedAt time.Time  `json:"lastSyncedAt"`
}

// Key returns the composite identity "<source>:<externalId>".
func (p Posting) Key() string {
	return string(p.Source) + ":" + p.ExternalID
}

// HasStructuredDetails reports whether the posting carries requirements
// richer than the single placeholder entry. The detail enricher uses this
// as its cache check.
func (p Posting) HasStructuredDetails() bool {
	if len(p.Requirements) == 0 {
		return false
	}
	if len(p.Requirements) == 1 && p.Requirements[0] == Placeholder {
		return false
	}
	return true
}

// SearchQuery is what an adapter is asked to fetch.
type SearchQuery struct {
	Keywords string
	Location string
	Limit    int
}

// SourceAdapter fetches postings from one provider and maps them into the
// canonical Posting shape. Each adapter owns its provider's field mapping.
type SourceAdapter interface {
	Source() Source
	Fetch(ctx context.Context, q SearchQuery) ([]Posting, error)
}

// DatasetRefresher is implemented by adapters whose provider data lives in a
// pre-scraped dataset that can be regenerated on demand. Manually triggered
// runs may ask for a refresh before fetching; scheduled runs never do.
type DatasetRefresher interface {
	Refresh(ctx context.Context, q SearchQuery) error
}

// BatchResult reports the outcome of persisting one aggregation batch.
// Records fail independently; Errors counts skipped records.
type BatchResult struct {
	Saved      int `json:"savedCount"`
	Updated    int `json:"updatedCount"`
	Duplicates int `json:"duplicateCount"`
	Errors     int `json:"errorCount"`
}

// PostingStore is the persistence contract the pipeline writes through.
type PostingStore interface {
	Upsert(ctx context.Context, p *Posting) (created bool, err error)
	FindBySourceID(ctx context.Context, source Source, externalID string) (*Posting, error)
	FindByContentHash(ctx context.Context, hash string) (*Posting, error)
	SaveBatch(ctx context.Context, postings []Posting) BatchResult
}
