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

const careerjetBaseURL = "https://public-api.careerjet.net/search"

// careerjetJob represents a single job in the Careerjet API response.
type careerjetJob struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Locations   string `json:"locations"`
	Description string `json:"description"`
	Salary      string `json:"salary"`
	URL         string `json:"url"`
	Date        string `json:"date"`
}

// careerjetResponse is the top-level Careerjet search response.
type careerjetResponse struct {
	Type string         `json:"type"`
	Jobs []careerjetJob `json:"jobs"`
}

// CareerjetAdapter fetches jobs from the Careerjet affiliate search API.
type CareerjetAdapter struct {
	affiliateID string
	client      *http.Client
	baseURL     string
}

// NewCareerjetAdapter creates a new Careerjet adapter.
func NewCareerjetAdapter(affiliateID string, client *http.Client) *CareerjetAdapter {
	return &CareerjetAdapter{affiliateID: affiliateID, client: client, baseURL: careerjetBaseURL}
}

func (a *CareerjetAdapter) Source() model.Source { return model.SourceCareerjet }

// Fetch queries Careerjet and maps the results into canonical postings.
// Careerjet ships no job id, so identity is synthesized from title+company.
func (a *CareerjetAdapter) Fetch(ctx context.Context, q model.SearchQuery) ([]model.Posting, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{}
	params.Set("keywords", q.Keywords)
	params.Set("location", q.Location)
	params.Set("affid", a.affiliateID)
	params.Set("pagesize", strconv.Itoa(limit))
	params.Set("locale_code", "en_IN")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("careerjet fetch: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("careerjet fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("careerjet fetch: unexpected status %d", resp.StatusCode),
		}
	}

	var cjResp careerjetResponse
	if err := json.NewDecoder(resp.Body).Decode(&cjResp); err != nil {
		return nil, fmt.Errorf("careerjet fetch: %w", err)
	}

	postings := make([]model.Posting, 0, len(cjResp.Jobs))
	for _, cj := range cjResp.Jobs {
		p := model.Posting{
			Source:          model.SourceCareerjet,
			ExternalID:      fallbackID(cj.Title, cj.Company, cj.Locations),
			Title:           cj.Title,
			Company:         firstNonEmpty(cj.Company, model.DefaultCompany),
			Location:        firstNonEmpty(cj.Locations, model.DefaultLocation),
			Description:     normalize.CleanText(cj.Description),
			ExternalURL:     cj.URL,
			JobType:         normalize.MapJobType(""),
			WorkMode:        normalize.InferWorkMode("", cj.Title, cj.Description, cj.Locations),
			ExperienceLevel: normalize.MapExperienceLevel(cj.Title),
			Salary:          normalize.ParseSalary(cj.Salary),
			PostedDate:      parseAnyDate(cj.Date),
		}
		postings = append(postings, p)
	}

	return postings, nil
}
