package enrich

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jobsift/jobsift/internal/model"
)

type fakeStore struct {
	posting      *model.Posting
	getErr       error
	requirements []string
	skills       []string
	updates      int
}

func (f *fakeStore) Get(ctx context.Context, id int64) (*model.Posting, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	p := *f.posting
	return &p, nil
}

func (f *fakeStore) UpdateDetails(ctx context.Context, id int64, requirements, skills []string) error {
	f.updates++
	f.requirements = requirements
	f.skills = skills
	return nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const detailPage = `<html><body>
<main>
  <p>We are hiring.</p>
  <h2>Responsibilities</h2>
  <ul>
    <li>Build and run backend services</li>
    <li>Review designs</li>
  </ul>
  <h2>Requirements</h2>
  <ul>
    <li>5+ years with Go</li>
    <li>Production SQL experience</li>
  </ul>
  <h3>Skills</h3>
  <ul>
    <li>Go</li>
    <li>PostgreSQL</li>
  </ul>
  <h2>About us</h2>
  <p>Company fluff.</p>
</main>
</body></html>`

func TestEnrich_ScrapesSections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" || r.Header.Get("User-Agent") == "Go-http-client/1.1" {
			t.Error("expected a browser User-Agent")
		}
		w.Write([]byte(detailPage))
	}))
	defer srv.Close()

	store := &fakeStore{posting: &model.Posting{
		ID:             7,
		ExternalURL:    srv.URL + "/jobs/123",
		Requirements:   []string{model.Placeholder},
		RequiredSkills: []string{model.Placeholder},
	}}
	e := New(store, srv.Client(), discard())

	res, err := e.Enrich(context.Background(), 7)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if res.From != "scraped" || !res.Success {
		t.Fatalf("Result = %+v, want scraped success", res)
	}
	if store.updates != 1 {
		t.Fatalf("UpdateDetails called %d times, want 1", store.updates)
	}
	// requirements first, then responsibilities folded in
	if len(store.requirements) != 4 {
		t.Fatalf("requirements = %v, want 4 entries", store.requirements)
	}
	if store.requirements[0] != "5+ years with Go" {
		t.Errorf("requirements[0] = %q", store.requirements[0])
	}
	if len(store.skills) != 2 || store.skills[0] != "Go" {
		t.Errorf("skills = %v", store.skills)
	}
	if res.Posting.Requirements[0] != "5+ years with Go" {
		t.Errorf("returned posting not patched: %v", res.Posting.Requirements)
	}
}

func TestEnrich_CacheHit(t *testing.T) {
	store := &fakeStore{posting: &model.Posting{
		ID:           7,
		Requirements: []string{"3+ years of Go"},
	}}
	e := New(store, http.DefaultClient, discard())

	res, err := e.Enrich(context.Background(), 7)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if res.From != "cache" || !res.Success {
		t.Errorf("Result = %+v, want cache hit", res)
	}
	if store.updates != 0 {
		t.Error("cache hit must not write")
	}
}

func TestEnrich_PlaceholderURLIsNotScraped(t *testing.T) {
	store := &fakeStore{posting: &model.Posting{
		ID:           7,
		ExternalURL:  "https://example.com/jobs/remotive/r-1",
		Requirements: []string{model.Placeholder},
	}}
	e := New(store, http.DefaultClient, discard())

	res, err := e.Enrich(context.Background(), 7)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if res.Success {
		t.Error("placeholder URL cannot be scraped")
	}
	if store.updates != 0 {
		t.Error("failed scrape must not write")
	}
}

func TestEnrich_UpstreamErrorIsBestEffort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	store := &fakeStore{posting: &model.Posting{
		ID:           7,
		ExternalURL:  srv.URL + "/jobs/123",
		Requirements: []string{model.Placeholder},
	}}
	e := New(store, srv.Client(), discard())

	res, err := e.Enrich(context.Background(), 7)
	if err != nil {
		t.Fatalf("Enrich: scrape failures must not surface as errors, got %v", err)
	}
	if res.Success {
		t.Error("403 page cannot succeed")
	}
	if len(res.Posting.Requirements) != 1 || res.Posting.Requirements[0] != model.Placeholder {
		t.Errorf("posting must be unchanged, got %v", res.Posting.Requirements)
	}
}

func TestEnrich_PageWithoutSections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><main><p>Just prose, no headings.</p></main></body></html>`))
	}))
	defer srv.Close()

	store := &fakeStore{posting: &model.Posting{
		ID:           7,
		ExternalURL:  srv.URL + "/jobs/123",
		Requirements: []string{model.Placeholder},
	}}
	e := New(store, srv.Client(), discard())

	res, err := e.Enrich(context.Background(), 7)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if res.Success {
		t.Error("a page without recognizable sections yields no details")
	}
}

func TestEnrich_StoreError(t *testing.T) {
	store := &fakeStore{getErr: errors.New("not found")}
	e := New(store, http.DefaultClient, discard())

	if _, err := e.Enrich(context.Background(), 404); err == nil {
		t.Fatal("expected store errors to surface")
	}
}
