package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jobsift/jobsift/internal/model"
	"github.com/jobsift/jobsift/internal/normalize"
)

const jsearchBaseURL = "https://jsearch.p.rapidapi.com/search"

// jsearchJob represents a single job in the JSearch API response.
type jsearchJob struct {
	JobID             string   `json:"job_id"`
	EmployerName      string   `json:"employer_name"`
	JobTitle          string   `json:"job_title"`
	JobDescription    string   `json:"job_description"`
	JobApplyLink      string   `json:"job_apply_link"`
	JobCity           string   `json:"job_city"`
	JobState          string   `json:"job_state"`
	JobCountry        string   `json:"job_country"`
	JobIsRemote       bool     `json:"job_is_remote"`
	JobEmploymentType string   `json:"job_employment_type"`
	JobPostedAtTS     int64    `json:"job_posted_at_timestamp"`
	JobMinSalary      float64  `json:"job_min_salary"`
	JobMaxSalary      float64  `json:"job_max_salary"`
	JobSalaryCurrency string   `json:"job_salary_currency"`
	JobSalaryPeriod   string   `json:"job_salary_period"`
	JobRequiredSkills []string `json:"job_required_skills"`
}

// jsearchResponse is the top-level JSearch API response.
type jsearchResponse struct {
	Data []jsearchJob `json:"data"`
}

// JSearchAdapter fetches jobs from the JSearch RapidAPI endpoint.
type JSearchAdapter struct {
	apiKey  string
	apiHost string
	client  *http.Client
	baseURL string
}

// NewJSearchAdapter creates a new JSearch adapter.
func NewJSearchAdapter(apiKey, apiHost string, client *http.Client) *JSearchAdapter {
	if apiHost == "" {
		apiHost = "jsearch.p.rapidapi.com"
	}
	return &JSearchAdapter{
		apiKey:  apiKey,
		apiHost: apiHost,
		client:  client,
		baseURL: jsearchBaseURL,
	}
}

func (a *JSearchAdapter) Source() model.Source { return model.SourceJSearch }

// Fetch queries JSearch and maps the results into canonical postings.
func (a *JSearchAdapter) Fetch(ctx context.Context, q model.SearchQuery) ([]model.Posting, error) {
	params := url.Values{}
	params.Set("query", strings.TrimSpace(q.Keywords+" jobs in "+q.Location))
	params.Set("page", "1")
	params.Set("num_pages", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("jsearch fetch: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", a.apiKey)
	req.Header.Set("X-RapidAPI-Host", a.apiHost)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jsearch fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("jsearch fetch: unexpected status %d", resp.StatusCode),
		}
	}

	var jsResp jsearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&jsResp); err != nil {
		return nil, fmt.Errorf("jsearch fetch: %w", err)
	}

	limit := q.Limit
	if limit <= 0 || limit > len(jsResp.Data) {
		limit = len(jsResp.Data)
	}

	postings := make([]model.Posting, 0, limit)
	for _, jj := range jsResp.Data[:limit] {
		location := buildLocation(jj.JobCity, jj.JobState, jj.JobCountry)

		explicit := ""
		if jj.JobIsRemote {
			explicit = "remote"
		}

		p := model.Posting{
			Source:          model.SourceJSearch,
			ExternalID:      firstNonEmpty(jj.JobID, fallbackID(jj.JobTitle, jj.EmployerName)),
			Title:           jj.JobTitle,
			Company:         firstNonEmpty(jj.EmployerName, model.DefaultCompany),
			Location:        firstNonEmpty(location, model.DefaultLocation),
			Description:     normalize.CleanText(jj.JobDescription),
			ExternalURL:     jj.JobApplyLink,
			JobType:         normalize.MapJobType(jj.JobEmploymentType),
			WorkMode:        normalize.InferWorkMode(explicit, jj.JobTitle, jj.JobDescription, location),
			ExperienceLevel: normalize.MapExperienceLevel(jj.JobTitle),
			Salary:          normalize.SalaryFromBounds(jj.JobMinSalary, jj.JobMaxSalary, jj.JobSalaryCurrency, strings.ToLower(jj.JobSalaryPeriod)),
			RequiredSkills:  normalize.CleanList(jj.JobRequiredSkills, 15),
			PostedDate:      parseEpoch(jj.JobPostedAtTS),
		}
		postings = append(postings, p)
	}

	return postings, nil
}

func buildLocation(parts ...string) string {
	var out []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return strings.Join(out, ", ")
}
