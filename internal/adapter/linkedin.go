package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jobsift/jobsift/internal/model"
	"github.com/jobsift/jobsift/internal/normalize"
)

const linkedinBaseURL = "https://linkedin-job-search-api.p.rapidapi.com/active-jb-24h"

// linkedinJob represents a single job in the LinkedIn RapidAPI response.
type linkedinJob struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Organization   string `json:"organization"`
	LocationsRaw   string `json:"locations_raw"`
	URL            string `json:"url"`
	DatePosted     string `json:"date_posted"`     // RFC3339 when present
	PostedRelative string `json:"posted_relative"` // "3 days ago" fallback
	EmploymentType string `json:"employment_type"`
	RemoteDerived  bool   `json:"remote_derived"`
	Description    string `json:"description_text"`
	SalaryRaw      string `json:"salary_raw"`
}

// LinkedInAdapter fetches jobs from a LinkedIn search RapidAPI provider.
// Posted dates arrive either as timestamps or relative strings
// ("3 days ago"); both are handled.
type LinkedInAdapter struct {
	apiKey  string
	apiHost string
	client  *http.Client
	baseURL string
	now     func() time.Time
}

// NewLinkedInAdapter creates a new LinkedIn RapidAPI adapter.
func NewLinkedInAdapter(apiKey, apiHost string, client *http.Client) *LinkedInAdapter {
	if apiHost == "" {
		apiHost = "linkedin-job-search-api.p.rapidapi.com"
	}
	return &LinkedInAdapter{
		apiKey:  apiKey,
		apiHost: apiHost,
		client:  client,
		baseURL: linkedinBaseURL,
		now:     time.Now,
	}
}

func (a *LinkedInAdapter) Source() model.Source { return model.SourceLinkedIn }

// Fetch queries the LinkedIn RapidAPI endpoint and maps the results into
// canonical postings.
func (a *LinkedInAdapter) Fetch(ctx context.Context, q model.SearchQuery) ([]model.Posting, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{}
	params.Set("title_filter", q.Keywords)
	params.Set("location_filter", q.Location)
	params.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("linkedin fetch: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", a.apiKey)
	req.Header.Set("X-RapidAPI-Host", a.apiHost)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("linkedin fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("linkedin fetch: unexpected status %d", resp.StatusCode),
		}
	}

	var liJobs []linkedinJob
	if err := json.NewDecoder(resp.Body).Decode(&liJobs); err != nil {
		return nil, fmt.Errorf("linkedin fetch: %w", err)
	}

	postings := make([]model.Posting, 0, len(liJobs))
	for _, lj := range liJobs {
		posted := parseAnyDate(lj.DatePosted)
		if posted == nil {
			posted = parseRelativeDate(lj.PostedRelative, a.now())
		}

		explicit := ""
		if lj.RemoteDerived {
			explicit = "remote"
		}

		p := model.Posting{
			Source:          model.SourceLinkedIn,
			ExternalID:      firstNonEmpty(lj.ID, fallbackID(lj.Title, lj.Organization)),
			Title:           lj.Title,
			Company:         firstNonEmpty(lj.Organization, model.DefaultCompany),
			Location:        firstNonEmpty(lj.LocationsRaw, model.DefaultLocation),
			Description:     normalize.CleanText(lj.Description),
			ExternalURL:     lj.URL,
			JobType:         normalize.MapJobType(lj.EmploymentType),
			WorkMode:        normalize.InferWorkMode(explicit, lj.Title, lj.Description, lj.LocationsRaw),
			ExperienceLevel: normalize.MapExperienceLevel(lj.Title),
			Salary:          normalize.ParseSalary(lj.SalaryRaw),
			PostedDate:      posted,
		}
		postings = append(postings, p)
	}

	return postings, nil
}
