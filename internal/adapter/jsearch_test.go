package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jobsift/jobsift/internal/model"
)

func TestJSearchFetch_Success(t *testing.T) {
	payload := `{
		"data": [
			{
				"job_id": "abc-123",
				"employer_name": "Acme Corp",
				"job_title": "Senior Backend Engineer",
				"job_description": "<p>Build Go services.</p>",
				"job_apply_link": "https://acme.example.org/jobs/abc-123",
				"job_city": "Bangalore",
				"job_state": "Karnataka",
				"job_country": "IN",
				"job_is_remote": false,
				"job_employment_type": "FULLTIME",
				"job_posted_at_timestamp": 1767225600,
				"job_min_salary": 1500000,
				"job_max_salary": 2500000,
				"job_salary_currency": "INR",
				"job_salary_period": "YEAR",
				"job_required_skills": ["Go", "SQL"]
			}
		]
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-RapidAPI-Key") != "test-key" {
			t.Errorf("missing RapidAPI key header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	a := NewJSearchAdapter("test-key", "", rewriteClient(srv))
	postings, err := a.Fetch(context.Background(), model.SearchQuery{Keywords: "golang", Location: "Bangalore"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(postings))
	}

	p := postings[0]
	if p.Source != model.SourceJSearch {
		t.Errorf("expected source jsearch, got %s", p.Source)
	}
	if p.ExternalID != "abc-123" {
		t.Errorf("expected external id abc-123, got %s", p.ExternalID)
	}
	if p.Company != "Acme Corp" {
		t.Errorf("expected company Acme Corp, got %s", p.Company)
	}
	if p.Location != "Bangalore, Karnataka, IN" {
		t.Errorf("unexpected location: %s", p.Location)
	}
	if p.Description != "Build Go services." {
		t.Errorf("expected cleaned description, got %q", p.Description)
	}
	if p.JobType != "Full-time" {
		t.Errorf("expected Full-time, got %s", p.JobType)
	}
	if p.ExperienceLevel != model.LevelSenior {
		t.Errorf("expected senior level from title, got %s", p.ExperienceLevel)
	}
	if p.Salary == nil || p.Salary.Min != 1500000 || p.Salary.Max != 2500000 {
		t.Errorf("unexpected salary: %+v", p.Salary)
	}
	if p.PostedDate == nil {
		t.Fatal("expected posted date from epoch")
	}
	if len(p.RequiredSkills) != 2 {
		t.Errorf("expected 2 skills, got %v", p.RequiredSkills)
	}
}

func TestJSearchFetch_MissingFieldsDegrade(t *testing.T) {
	payload := `{"data": [{"job_title": "Engineer"}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	a := NewJSearchAdapter("k", "", rewriteClient(srv))
	postings, err := a.Fetch(context.Background(), model.SearchQuery{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(postings))
	}

	p := postings[0]
	if p.Company != model.DefaultCompany {
		t.Errorf("expected default company, got %q", p.Company)
	}
	if p.Location != model.DefaultLocation {
		t.Errorf("expected default location, got %q", p.Location)
	}
	if p.ExternalID == "" {
		t.Error("expected synthesized external id")
	}
	if p.Salary != nil {
		t.Errorf("expected nil salary, got %+v", p.Salary)
	}
	if len(p.RequiredSkills) != 1 || p.RequiredSkills[0] != model.Placeholder {
		t.Errorf("expected placeholder skills, got %v", p.RequiredSkills)
	}
}

func TestJSearchFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	a := NewJSearchAdapter("k", "", rewriteClient(srv))
	_, err := a.Fetch(context.Background(), model.SearchQuery{})
	if err == nil {
		t.Fatal("expected error for HTTP 403, got nil")
	}
}

func TestJSearchFetch_LimitApplied(t *testing.T) {
	payload := `{"data": [
		{"job_id": "1", "job_title": "A"},
		{"job_id": "2", "job_title": "B"},
		{"job_id": "3", "job_title": "C"}
	]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	a := NewJSearchAdapter("k", "", rewriteClient(srv))
	postings, err := a.Fetch(context.Background(), model.SearchQuery{Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(postings) != 2 {
		t.Errorf("expected limit of 2 postings, got %d", len(postings))
	}
}
