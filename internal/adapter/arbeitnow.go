package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jobsift/jobsift/internal/model"
	"github.com/jobsift/jobsift/internal/normalize"
)

const arbeitnowBaseURL = "https://www.arbeitnow.com/api/job-board-api"

// arbeitnowJob represents a single job in the Arbeitnow API response.
type arbeitnowJob struct {
	Slug        string   `json:"slug"`
	CompanyName string   `json:"company_name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Remote      bool     `json:"remote"`
	URL         string   `json:"url"`
	Tags        []string `json:"tags"`
	JobTypes    []string `json:"job_types"`
	Location    string   `json:"location"`
	CreatedAt   int64    `json:"created_at"`
}

// arbeitnowResponse is the top-level Arbeitnow API response.
type arbeitnowResponse struct {
	Data []arbeitnowJob `json:"data"`
}

// ArbeitnowAdapter fetches jobs from the public Arbeitnow job-board API.
type ArbeitnowAdapter struct {
	client  *http.Client
	baseURL string
}

// NewArbeitnowAdapter creates a new Arbeitnow adapter.
func NewArbeitnowAdapter(client *http.Client) *ArbeitnowAdapter {
	return &ArbeitnowAdapter{client: client, baseURL: arbeitnowBaseURL}
}

func (a *ArbeitnowAdapter) Source() model.Source { return model.SourceArbeitnow }

// Fetch retrieves the current Arbeitnow board and maps it into canonical
// postings. The API has no server-side search, so keyword filtering happens
// here.
func (a *ArbeitnowAdapter) Fetch(ctx context.Context, q model.SearchQuery) ([]model.Posting, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("arbeitnow fetch: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arbeitnow fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("arbeitnow fetch: unexpected status %d", resp.StatusCode),
		}
	}

	var anResp arbeitnowResponse
	if err := json.NewDecoder(resp.Body).Decode(&anResp); err != nil {
		return nil, fmt.Errorf("arbeitnow fetch: %w", err)
	}

	keywords := strings.ToLower(q.Keywords)
	var postings []model.Posting
	for _, aj := range anResp.Data {
		if keywords != "" && !strings.Contains(strings.ToLower(aj.Title+" "+aj.Description), keywords) {
			continue
		}

		explicit := ""
		if aj.Remote {
			explicit = "remote"
		}
		jobType := ""
		if len(aj.JobTypes) > 0 {
			jobType = aj.JobTypes[0]
		}

		p := model.Posting{
			Source:          model.SourceArbeitnow,
			ExternalID:      firstNonEmpty(aj.Slug, fallbackID(aj.Title, aj.CompanyName)),
			Title:           aj.Title,
			Company:         firstNonEmpty(aj.CompanyName, model.DefaultCompany),
			Location:        firstNonEmpty(aj.Location, model.DefaultLocation),
			Description:     normalize.CleanText(aj.Description),
			ExternalURL:     aj.URL,
			JobType:         normalize.MapJobType(jobType),
			WorkMode:        normalize.InferWorkMode(explicit, aj.Title, aj.Description, aj.Location),
			ExperienceLevel: normalize.MapExperienceLevel(aj.Title),
			RequiredSkills:  normalize.CleanList(aj.Tags, 15),
			PostedDate:      parseEpoch(aj.CreatedAt),
		}
		postings = append(postings, p)

		if q.Limit > 0 && len(postings) == q.Limit {
			break
		}
	}

	return postings, nil
}
