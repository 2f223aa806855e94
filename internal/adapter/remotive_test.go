package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jobsift/jobsift/internal/model"
)

func TestRemotiveFetch_AlwaysRemote(t *testing.T) {
	payload := `{
		"jobs": [
			{
				"id": 990,
				"title": "Go Developer",
				"company_name": "Remote Co",
				"url": "https://remotive.com/jobs/990",
				"candidate_required_location": "India",
				"job_type": "full_time",
				"publication_date": "2026-08-20T08:00:00",
				"salary": "5-8 Lacs P.A.",
				"description": "<p>Work from anywhere in India.</p>",
				"tags": ["golang", "backend"]
			}
		]
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	a := NewRemotiveAdapter(rewriteClient(srv))
	postings, err := a.Fetch(context.Background(), model.SearchQuery{Keywords: "go"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(postings))
	}

	p := postings[0]
	if p.WorkMode != model.WorkModeRemote {
		t.Errorf("remotive postings must be remote, got %s", p.WorkMode)
	}
	if p.Location != "India" {
		t.Errorf("expected candidate_required_location as location, got %q", p.Location)
	}
	if p.ExternalID != "990" {
		t.Errorf("expected external id 990, got %s", p.ExternalID)
	}
	if p.Salary == nil || p.Salary.Min != 500000 || p.Salary.Max != 800000 {
		t.Errorf("unexpected salary: %+v", p.Salary)
	}
	if p.Salary.Text != "5-8 Lacs P.A." {
		t.Errorf("salary text must be verbatim, got %q", p.Salary.Text)
	}
	if p.PostedDate == nil {
		t.Error("expected parsed publication date")
	}
}

func TestRemotiveFetch_EmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jobs": []}`))
	}))
	defer srv.Close()

	a := NewRemotiveAdapter(rewriteClient(srv))
	postings, err := a.Fetch(context.Background(), model.SearchQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 0 {
		t.Errorf("expected 0 postings, got %d", len(postings))
	}
}

func TestRemotiveFetch_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	a := NewRemotiveAdapter(rewriteClient(srv))
	if _, err := a.Fetch(context.Background(), model.SearchQuery{}); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
