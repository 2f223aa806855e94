package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jobsift/jobsift/internal/model"
	"github.com/jobsift/jobsift/internal/normalize"
)

const adzunaBaseURL = "https://api.adzuna.com/v1/api/jobs/in/search/1"

// adzunaJob represents a single job in the Adzuna API response.
type adzunaJob struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Company struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	Description  string  `json:"description"`
	RedirectURL  string  `json:"redirect_url"`
	SalaryMin    float64 `json:"salary_min"`
	SalaryMax    float64 `json:"salary_max"`
	Created      string  `json:"created"`
	ContractTime string  `json:"contract_time"` // "full_time" / "part_time"
	ContractType string  `json:"contract_type"` // "permanent" / "contract"
}

// adzunaResponse is the top-level Adzuna search response.
type adzunaResponse struct {
	Results []adzunaJob `json:"results"`
}

// AdzunaAdapter fetches jobs from the Adzuna search API. Adzuna rate-limits
// aggressively, so a 429 response is retried once after a fixed delay;
// a second 429 is reported as source-unavailable.
type AdzunaAdapter struct {
	appID      string
	appKey     string
	client     *http.Client
	baseURL    string
	retryDelay time.Duration
}

// NewAdzunaAdapter creates a new Adzuna adapter.
func NewAdzunaAdapter(appID, appKey string, client *http.Client) *AdzunaAdapter {
	return &AdzunaAdapter{
		appID:      appID,
		appKey:     appKey,
		client:     client,
		baseURL:    adzunaBaseURL,
		retryDelay: 5 * time.Second,
	}
}

func (a *AdzunaAdapter) Source() model.Source { return model.SourceAdzuna }

// Fetch queries Adzuna and maps the results into canonical postings.
func (a *AdzunaAdapter) Fetch(ctx context.Context, q model.SearchQuery) ([]model.Posting, error) {
	postings, err := a.fetchOnce(ctx, q)
	if err == nil {
		return postings, nil
	}

	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusTooManyRequests {
		return nil, err
	}

	delay := a.retryDelay
	if httpErr.RetryAfter > 0 {
		delay = httpErr.RetryAfter
	}
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("adzuna retry cancelled: %w", ctx.Err())
	case <-time.After(delay):
	}

	return a.fetchOnce(ctx, q)
}

func (a *AdzunaAdapter) fetchOnce(ctx context.Context, q model.SearchQuery) ([]model.Posting, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{}
	params.Set("app_id", a.appID)
	params.Set("app_key", a.appKey)
	params.Set("what", q.Keywords)
	params.Set("where", q.Location)
	params.Set("results_per_page", strconv.Itoa(limit))
	params.Set("content-type", "application/json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("adzuna fetch: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("adzuna fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("adzuna fetch: unexpected status %d", resp.StatusCode),
		}
	}

	var azResp adzunaResponse
	if err := json.NewDecoder(resp.Body).Decode(&azResp); err != nil {
		return nil, fmt.Errorf("adzuna fetch: %w", err)
	}

	postings := make([]model.Posting, 0, len(azResp.Results))
	for _, aj := range azResp.Results {
		jobType := firstNonEmpty(aj.ContractTime, aj.ContractType)

		p := model.Posting{
			Source:          model.SourceAdzuna,
			ExternalID:      firstNonEmpty(aj.ID, fallbackID(aj.Title, aj.Company.DisplayName)),
			Title:           aj.Title,
			Company:         firstNonEmpty(aj.Company.DisplayName, model.DefaultCompany),
			Location:        firstNonEmpty(aj.Location.DisplayName, model.DefaultLocation),
			Description:     normalize.CleanText(aj.Description),
			ExternalURL:     aj.RedirectURL,
			JobType:         normalize.MapJobType(jobType),
			WorkMode:        normalize.InferWorkMode("", aj.Title, aj.Description, aj.Location.DisplayName),
			ExperienceLevel: normalize.MapExperienceLevel(aj.Title),
			Salary:          normalize.SalaryFromBounds(aj.SalaryMin, aj.SalaryMax, "INR", "annual"),
			PostedDate:      parseAnyDate(aj.Created),
		}
		postings = append(postings, p)
	}

	return postings, nil
}
