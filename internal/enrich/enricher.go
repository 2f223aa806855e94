package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jobsift/jobsift/internal/model"
	"github.com/jobsift/jobsift/internal/normalize"
)

const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko)"

// DetailStore is the slice of the store the enricher needs.
type DetailStore interface {
	Get(ctx context.Context, id int64) (*model.Posting, error)
	UpdateDetails(ctx context.Context, id int64, requirements, skills []string) error
}

// Result reports where the structured details came from. From is "cache"
// when the stored record already carried them, "scraped" otherwise.
type Result struct {
	From    string         `json:"from"`
	Success bool           `json:"success"`
	Posting *model.Posting `json:"posting"`
}

// Enricher pulls structured requirements and skills out of a posting's
// external detail page. Scraping is best-effort: any failure returns the
// stored record unchanged with Success=false, never an error.
type Enricher struct {
	store  DetailStore
	client *http.Client
	logger *slog.Logger
}

// New creates an Enricher around the given HTTP client.
func New(store DetailStore, client *http.Client, logger *slog.Logger) *Enricher {
	return &Enricher{store: store, client: client, logger: logger}
}

// Enrich loads the posting and fills its Requirements and RequiredSkills
// from the external page, unless the record already has them.
func (e *Enricher) Enrich(ctx context.Context, id int64) (*Result, error) {
	p, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("enrich posting %d: %w", id, err)
	}

	if p.HasStructuredDetails() {
		return &Result{From: "cache", Success: true, Posting: p}, nil
	}

	requirements, skills, ok := e.scrape(ctx, p)
	if !ok {
		return &Result{From: "scraped", Success: false, Posting: p}, nil
	}

	if len(skills) == 0 {
		skills = p.RequiredSkills // keep what aggregation already mapped
	}
	if err := e.store.UpdateDetails(ctx, id, requirements, skills); err != nil {
		return nil, fmt.Errorf("enrich posting %d: %w", id, err)
	}
	p.Requirements = requirements
	p.RequiredSkills = skills
	return &Result{From: "scraped", Success: true, Posting: p}, nil
}

func (e *Enricher) scrape(ctx context.Context, p *model.Posting) (requirements, skills []string, ok bool) {
	if p.ExternalURL == "" || strings.HasPrefix(p.ExternalURL, "https://example.com/") {
		return nil, nil, false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.ExternalURL, nil)
	if err != nil {
		e.logger.Warn("enrich request build failed", "id", p.ID, "error", err)
		return nil, nil, false
	}
	req.Header.Set("User-Agent", browserUA)

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Warn("enrich fetch failed", "id", p.ID, "url", p.ExternalURL, "error", err)
		return nil, nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.logger.Warn("enrich fetch non-200", "id", p.ID, "status", resp.StatusCode)
		return nil, nil, false
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		e.logger.Warn("enrich parse failed", "id", p.ID, "error", err)
		return nil, nil, false
	}

	container := findContainer(doc, p.ExternalURL)
	reqs, resps, sk := extractSections(container)

	// Responsibilities land in the same structured bucket as requirements;
	// the record has one Requirements list.
	merged := append(reqs, resps...)
	if len(merged) == 0 && len(sk) == 0 {
		return nil, nil, false
	}
	requirements = normalize.CleanList(merged, 10)
	if len(sk) > 0 {
		skills = normalize.CleanList(sk, 15)
	}
	return requirements, skills, true
}

// providerSelectors maps known detail-page hosts to the description
// container. Unknown hosts walk the generic fallbacks.
var providerSelectors = map[string]string{
	"linkedin.com": ".description__text, .show-more-less-html__markup",
	"naukri.com":   ".styles_JDC__dang-inner-html__h0K4t, .job-desc, .dang-inner-html",
	"indeed.com":   "#jobDescriptionText",
}

var genericSelectors = []string{
	".job-description", "#jobDescriptionText", "article", "main",
}

func findContainer(doc *goquery.Document, rawURL string) *goquery.Selection {
	if u, err := url.Parse(rawURL); err == nil {
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		for known, sel := range providerSelectors {
			if host == known || strings.HasSuffix(host, "."+known) {
				if s := doc.Find(sel); s.Length() > 0 {
					return s
				}
			}
		}
	}
	for _, sel := range genericSelectors {
		if s := doc.Find(sel); s.Length() > 0 {
			return s
		}
	}
	return doc.Find("body")
}

type sectionKind int

const (
	sectionNone sectionKind = iota
	sectionRequirements
	sectionResponsibilities
	sectionSkills
)

var responsibilityTerms = []string{
	"responsibilit", "duties", "what you will do", "what you'll do",
	"the role", "your role", "day to day",
}

var requirementTerms = []string{
	"requirement", "qualification", "must have", "what you need",
	"who you are", "what we are looking for", "what we're looking for",
}

var skillTerms = []string{"skill", "technolog", "tech stack", "tools"}

func classifyHeading(text string) sectionKind {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" || len(t) > 80 {
		return sectionNone
	}
	for _, term := range responsibilityTerms {
		if strings.Contains(t, term) {
			return sectionResponsibilities
		}
	}
	for _, term := range requirementTerms {
		if strings.Contains(t, term) {
			return sectionRequirements
		}
	}
	for _, term := range skillTerms {
		if strings.Contains(t, term) {
			return sectionSkills
		}
	}
	return sectionNone
}

// extractSections walks headings inside the container and collects the list
// items and paragraphs that follow each recognized heading, stopping at the
// next heading.
func extractSections(root *goquery.Selection) (requirements, responsibilities, skills []string) {
	root.Find("h2, h3, h4, strong, b").Each(func(_ int, h *goquery.Selection) {
		kind := classifyHeading(h.Text())
		if kind == sectionNone {
			return
		}
		items := collectAfter(h)
		switch kind {
		case sectionRequirements:
			requirements = append(requirements, items...)
		case sectionResponsibilities:
			responsibilities = append(responsibilities, items...)
		case sectionSkills:
			skills = append(skills, items...)
		}
	})
	return requirements, responsibilities, skills
}

func collectAfter(h *goquery.Selection) []string {
	// strong/b headings usually sit inside a paragraph; walk from there.
	start := h
	if name := goquery.NodeName(h); name == "strong" || name == "b" {
		if p := h.Parent(); goquery.NodeName(p) == "p" || goquery.NodeName(p) == "div" {
			start = p
		}
	}

	var items []string
	for sib := start.Next(); sib.Length() > 0; sib = sib.Next() {
		switch goquery.NodeName(sib) {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			return items
		case "ul", "ol":
			sib.Find("li").Each(func(_ int, li *goquery.Selection) {
				if text := strings.TrimSpace(li.Text()); text != "" {
					items = append(items, text)
				}
			})
		case "li":
			if text := strings.TrimSpace(sib.Text()); text != "" {
				items = append(items, text)
			}
		case "p", "div":
			// a paragraph starting a new recognized section ends this one
			if classifyHeading(sib.Find("strong, b").First().Text()) != sectionNone {
				return items
			}
			if sib.Find("ul, ol").Length() > 0 {
				sib.Find("li").Each(func(_ int, li *goquery.Selection) {
					if text := strings.TrimSpace(li.Text()); text != "" {
						items = append(items, text)
					}
				})
				continue
			}
			if text := strings.TrimSpace(sib.Text()); text != "" {
				items = append(items, text)
			}
		}
	}
	return items
}
