package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jobsift/jobsift/internal/model"
)

func TestLinkedInFetch_Success(t *testing.T) {
	payload := `[
		{
			"id": "li-42",
			"title": "Staff Software Engineer",
			"organization": "Hooli",
			"locations_raw": "Bengaluru, Karnataka, India",
			"url": "https://www.linkedin.com/jobs/view/42",
			"date_posted": "2026-08-25T09:00:00Z",
			"employment_type": "FULL_TIME",
			"remote_derived": true,
			"description_text": "Design distributed systems.",
			"salary_raw": "40-60 Lacs P.A."
		}
	]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-RapidAPI-Key") != "li-key" {
			t.Errorf("missing RapidAPI key header")
		}
		if r.Header.Get("X-RapidAPI-Host") != "linkedin-job-search-api.p.rapidapi.com" {
			t.Errorf("unexpected RapidAPI host header: %q", r.Header.Get("X-RapidAPI-Host"))
		}
		if got := r.URL.Query().Get("title_filter"); got != "golang" {
			t.Errorf("expected title_filter=golang, got %q", got)
		}
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	a := NewLinkedInAdapter("li-key", "", rewriteClient(srv))
	postings, err := a.Fetch(context.Background(), model.SearchQuery{Keywords: "golang", Location: "Bengaluru"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(postings))
	}

	p := postings[0]
	if p.ExternalID != "li-42" {
		t.Errorf("expected external id li-42, got %s", p.ExternalID)
	}
	if p.WorkMode != model.WorkModeRemote {
		t.Errorf("remote_derived should force remote, got %s", p.WorkMode)
	}
	if p.ExperienceLevel != model.LevelLead {
		t.Errorf("expected lead from staff title, got %s", p.ExperienceLevel)
	}
	if p.Salary == nil || p.Salary.Min != 4000000 || p.Salary.Max != 6000000 {
		t.Errorf("unexpected salary: %+v", p.Salary)
	}
	if p.PostedDate == nil || p.PostedDate.Day() != 25 {
		t.Errorf("expected absolute posted date, got %v", p.PostedDate)
	}
}

func TestLinkedInFetch_RelativeDateFallback(t *testing.T) {
	payload := `[{"id": "li-7", "title": "Engineer", "posted_relative": "3 days ago"}]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	a := NewLinkedInAdapter("li-key", "", rewriteClient(srv))
	a.now = func() time.Time { return now }

	postings, err := a.Fetch(context.Background(), model.SearchQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := postings[0]
	if p.PostedDate == nil {
		t.Fatal("expected posted date resolved from the relative string")
	}
	if want := now.Add(-3 * 24 * time.Hour); !p.PostedDate.Equal(want) {
		t.Errorf("expected %v, got %v", want, p.PostedDate)
	}
}

func TestLinkedInFetch_MissingIDSynthesized(t *testing.T) {
	payload := `[{"title": "Engineer", "organization": "Hooli"}]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	a := NewLinkedInAdapter("li-key", "", rewriteClient(srv))
	postings, err := a.Fetch(context.Background(), model.SearchQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := fallbackID("Engineer", "Hooli"); postings[0].ExternalID != want {
		t.Errorf("expected synthesized id %s, got %s", want, postings[0].ExternalID)
	}
}

func TestLinkedInFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	a := NewLinkedInAdapter("bad-key", "", rewriteClient(srv))
	if _, err := a.Fetch(context.Background(), model.SearchQuery{}); err == nil {
		t.Fatal("expected error for HTTP 401, got nil")
	}
}
