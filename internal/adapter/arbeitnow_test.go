package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jobsift/jobsift/internal/model"
)

const arbeitnowPayload = `{
	"data": [
		{
			"slug": "golang-developer-berlin-123",
			"company_name": "Remote Gmbh",
			"title": "Golang Developer",
			"description": "<p>Write Go all day.</p>",
			"remote": true,
			"url": "https://www.arbeitnow.com/jobs/golang-developer-berlin-123",
			"tags": ["Go", "PostgreSQL", "Docker"],
			"job_types": ["full_time"],
			"location": "Berlin",
			"created_at": 1755856800
		},
		{
			"slug": "sous-chef-456",
			"company_name": "Bistro",
			"title": "Sous Chef",
			"description": "kitchen work",
			"remote": false,
			"url": "https://www.arbeitnow.com/jobs/sous-chef-456",
			"tags": [],
			"job_types": [],
			"location": "Munich",
			"created_at": 1755856800
		}
	]
}`

func TestArbeitnowFetch_KeywordFilterIsClientSide(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The board API takes no search parameters; everything ships.
		if r.URL.RawQuery != "" {
			t.Errorf("expected no query parameters, got %q", r.URL.RawQuery)
		}
		w.Write([]byte(arbeitnowPayload))
	}))
	defer srv.Close()

	a := NewArbeitnowAdapter(rewriteClient(srv))
	postings, err := a.Fetch(context.Background(), model.SearchQuery{Keywords: "golang"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("expected the chef posting filtered out, got %d postings", len(postings))
	}

	p := postings[0]
	if p.ExternalID != "golang-developer-berlin-123" {
		t.Errorf("expected slug as external id, got %s", p.ExternalID)
	}
	if p.WorkMode != model.WorkModeRemote {
		t.Errorf("remote flag should force remote work mode, got %s", p.WorkMode)
	}
	if p.JobType != "Full-time" {
		t.Errorf("expected full_time mapped to Full-time, got %s", p.JobType)
	}
	if len(p.RequiredSkills) != 3 || p.RequiredSkills[0] != "Go" {
		t.Errorf("expected tags mapped to skills, got %v", p.RequiredSkills)
	}
	if p.PostedDate == nil || p.PostedDate.Unix() != 1755856800 {
		t.Errorf("expected created_at epoch as posted date, got %v", p.PostedDate)
	}
}

func TestArbeitnowFetch_NoKeywordsKeepsAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(arbeitnowPayload))
	}))
	defer srv.Close()

	a := NewArbeitnowAdapter(rewriteClient(srv))
	postings, err := a.Fetch(context.Background(), model.SearchQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 2 {
		t.Fatalf("expected both postings without a keyword filter, got %d", len(postings))
	}
}

func TestArbeitnowFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := NewArbeitnowAdapter(rewriteClient(srv))
	if _, err := a.Fetch(context.Background(), model.SearchQuery{}); err == nil {
		t.Fatal("expected error for HTTP 429, got nil")
	}
}
