package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jobsift/jobsift/internal/model"
)

const themusePayload = `{
	"results": [
		{
			"id": 9001,
			"name": "Backend Engineer",
			"contents": "<p>Ship Go services.</p>",
			"company": {"name": "Globex"},
			"locations": [{"name": "Bengaluru, India"}, {"name": "Flexible / Remote"}],
			"levels": [{"name": "Senior Level"}],
			"refs": {"landing_page": "https://www.themuse.com/jobs/globex/backend-engineer"},
			"publication_date": "2026-08-20T08:30:00Z",
			"type": "external"
		},
		{
			"id": 9002,
			"name": "Marketing Manager",
			"contents": "campaigns",
			"company": {"name": "Globex"},
			"locations": [{"name": "Bengaluru, India"}],
			"levels": [],
			"refs": {"landing_page": "https://www.themuse.com/jobs/globex/marketing-manager"},
			"publication_date": "2026-08-21T08:30:00Z"
		}
	]
}`

func TestTheMuseFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("page") != "1" {
			t.Errorf("expected page=1, got %q", q.Get("page"))
		}
		if q.Get("api_key") != "" {
			t.Errorf("keyless adapter must not send api_key, got %q", q.Get("api_key"))
		}
		w.Write([]byte(themusePayload))
	}))
	defer srv.Close()

	a := NewTheMuseAdapter("", rewriteClient(srv))
	postings, err := a.Fetch(context.Background(), model.SearchQuery{Keywords: "engineer", Location: "Bengaluru"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("expected only the engineer posting, got %d", len(postings))
	}

	p := postings[0]
	if p.ExternalID != "9001" {
		t.Errorf("expected external id 9001, got %s", p.ExternalID)
	}
	if p.Location != "Bengaluru, India; Flexible / Remote" {
		t.Errorf("expected joined locations, got %q", p.Location)
	}
	if p.ExperienceLevel != model.LevelSenior {
		t.Errorf("expected senior from levels[0].name, got %s", p.ExperienceLevel)
	}
	if p.ExternalURL != "https://www.themuse.com/jobs/globex/backend-engineer" {
		t.Errorf("expected landing page URL, got %s", p.ExternalURL)
	}
	if p.Description != "Ship Go services." {
		t.Errorf("expected cleaned contents, got %q", p.Description)
	}
	if p.PostedDate == nil || p.PostedDate.Day() != 20 {
		t.Errorf("expected publication date, got %v", p.PostedDate)
	}
}

func TestTheMuseFetch_LevelFallsBackToTitle(t *testing.T) {
	payload := `{"results": [{"id": 1, "name": "Junior Developer", "levels": []}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	a := NewTheMuseAdapter("", rewriteClient(srv))
	postings, err := a.Fetch(context.Background(), model.SearchQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if postings[0].ExperienceLevel != model.LevelJunior {
		t.Errorf("expected junior from title when levels is empty, got %s", postings[0].ExperienceLevel)
	}
}

func TestTheMuseFetch_SendsAPIKeyWhenConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("api_key"); got != "muse-key" {
			t.Errorf("expected api_key=muse-key, got %q", got)
		}
		w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	a := NewTheMuseAdapter("muse-key", rewriteClient(srv))
	if _, err := a.Fetch(context.Background(), model.SearchQuery{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTheMuseFetch_LimitApplied(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(themusePayload))
	}))
	defer srv.Close()

	a := NewTheMuseAdapter("", rewriteClient(srv))
	postings, err := a.Fetch(context.Background(), model.SearchQuery{Limit: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("expected limit to cap results at 1, got %d", len(postings))
	}
}
