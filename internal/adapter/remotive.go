package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jobsift/jobsift/internal/model"
	"github.com/jobsift/jobsift/internal/normalize"
)

const remotiveBaseURL = "https://remotive.com/api/remote-jobs"

// remotiveJob represents a single job in the Remotive API response.
type remotiveJob struct {
	ID                        int64    `json:"id"`
	Title                     string   `json:"title"`
	CompanyName               string   `json:"company_name"`
	URL                       string   `json:"url"`
	CandidateRequiredLocation string   `json:"candidate_required_location"`
	JobType                   string   `json:"job_type"`
	PublicationDate           string   `json:"publication_date"`
	Salary                    string   `json:"salary"`
	Description               string   `json:"description"`
	Tags                      []string `json:"tags"`
}

// remotiveResponse is the top-level Remotive API response.
type remotiveResponse struct {
	Jobs []remotiveJob `json:"jobs"`
}

// RemotiveAdapter fetches jobs from the public Remotive API. Every Remotive
// posting is remote; candidate_required_location decides whether it is
// remote-but-in-country.
type RemotiveAdapter struct {
	client  *http.Client
	baseURL string
}

// NewRemotiveAdapter creates a new Remotive adapter.
func NewRemotiveAdapter(client *http.Client) *RemotiveAdapter {
	return &RemotiveAdapter{client: client, baseURL: remotiveBaseURL}
}

func (a *RemotiveAdapter) Source() model.Source { return model.SourceRemotive }

// Fetch queries Remotive and maps the results into canonical postings.
func (a *RemotiveAdapter) Fetch(ctx context.Context, q model.SearchQuery) ([]model.Posting, error) {
	params := url.Values{}
	if q.Keywords != "" {
		params.Set("search", q.Keywords)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("remotive fetch: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remotive fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("remotive fetch: unexpected status %d", resp.StatusCode),
		}
	}

	var rmResp remotiveResponse
	if err := json.NewDecoder(resp.Body).Decode(&rmResp); err != nil {
		return nil, fmt.Errorf("remotive fetch: %w", err)
	}

	postings := make([]model.Posting, 0, len(rmResp.Jobs))
	for _, rj := range rmResp.Jobs {
		location := firstNonEmpty(rj.CandidateRequiredLocation, "Remote")

		p := model.Posting{
			Source:          model.SourceRemotive,
			ExternalID:      strconv.FormatInt(rj.ID, 10),
			Title:           rj.Title,
			Company:         firstNonEmpty(rj.CompanyName, model.DefaultCompany),
			Location:        location,
			Description:     normalize.CleanText(rj.Description),
			ExternalURL:     rj.URL,
			JobType:         normalize.MapJobType(rj.JobType),
			WorkMode:        model.WorkModeRemote,
			ExperienceLevel: normalize.MapExperienceLevel(rj.Title),
			Salary:          normalize.ParseSalary(rj.Salary),
			RequiredSkills:  normalize.CleanList(rj.Tags, 15),
			PostedDate:      parseAnyDate(rj.PublicationDate),
		}
		postings = append(postings, p)
	}

	return postings, nil
}
