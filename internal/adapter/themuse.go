package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/jobsift/jobsift/internal/model"
	"github.com/jobsift/jobsift/internal/normalize"
)

const themuseBaseURL = "https://www.themuse.com/api/public/jobs"

// themuseJob represents a single job in TheMuse API response.
type themuseJob struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Contents string `json:"contents"`
	Company  struct {
		Name string `json:"name"`
	} `json:"company"`
	Locations []struct {
		Name string `json:"name"`
	} `json:"locations"`
	Levels []struct {
		Name string `json:"name"`
	} `json:"levels"`
	Refs struct {
		LandingPage string `json:"landing_page"`
	} `json:"refs"`
	PublicationDate string `json:"publication_date"`
	Type            string `json:"type"`
}

// themuseResponse is the top-level TheMuse API response.
type themuseResponse struct {
	Results []themuseJob `json:"results"`
}

// TheMuseAdapter fetches jobs from TheMuse public API.
type TheMuseAdapter struct {
	apiKey  string
	client  *http.Client
	baseURL string
}

// NewTheMuseAdapter creates a new TheMuse adapter. The API key is optional;
// keyless requests get a lower rate limit.
func NewTheMuseAdapter(apiKey string, client *http.Client) *TheMuseAdapter {
	return &TheMuseAdapter{apiKey: apiKey, client: client, baseURL: themuseBaseURL}
}

func (a *TheMuseAdapter) Source() model.Source { return model.SourceTheMuse }

// Fetch queries TheMuse and maps the results into canonical postings.
func (a *TheMuseAdapter) Fetch(ctx context.Context, q model.SearchQuery) ([]model.Posting, error) {
	params := url.Values{}
	params.Set("page", "1")
	if q.Location != "" {
		params.Set("location", q.Location)
	}
	if a.apiKey != "" {
		params.Set("api_key", a.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("themuse fetch: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("themuse fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("themuse fetch: unexpected status %d", resp.StatusCode),
		}
	}

	var tmResp themuseResponse
	if err := json.NewDecoder(resp.Body).Decode(&tmResp); err != nil {
		return nil, fmt.Errorf("themuse fetch: %w", err)
	}

	keywords := strings.ToLower(q.Keywords)
	var postings []model.Posting
	for _, tj := range tmResp.Results {
		if keywords != "" && !strings.Contains(strings.ToLower(tj.Name), keywords) {
			continue
		}

		var locParts []string
		for _, l := range tj.Locations {
			locParts = append(locParts, l.Name)
		}
		location := strings.Join(locParts, "; ")

		level := ""
		if len(tj.Levels) > 0 {
			level = tj.Levels[0].Name
		}

		p := model.Posting{
			Source:          model.SourceTheMuse,
			ExternalID:      strconv.FormatInt(tj.ID, 10),
			Title:           tj.Name,
			Company:         firstNonEmpty(tj.Company.Name, model.DefaultCompany),
			Location:        firstNonEmpty(location, model.DefaultLocation),
			Description:     normalize.CleanText(tj.Contents),
			ExternalURL:     tj.Refs.LandingPage,
			JobType:         normalize.MapJobType(tj.Type),
			WorkMode:        normalize.InferWorkMode("", tj.Name, tj.Contents, location),
			ExperienceLevel: normalize.MapExperienceLevel(firstNonEmpty(level, tj.Name)),
			PostedDate:      parseAnyDate(tj.PublicationDate),
		}
		postings = append(postings, p)

		if q.Limit > 0 && len(postings) == q.Limit {
			break
		}
	}

	return postings, nil
}
