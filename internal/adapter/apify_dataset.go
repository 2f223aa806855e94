package adapter

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/jobsift/jobsift/internal/model"
	"github.com/jobsift/jobsift/internal/normalize"
)

// apifyFieldMap names the gjson paths for one actor's dataset item shape.
// No two actors share extraction paths; each adapter owns its own table.
type apifyFieldMap struct {
	id          []string
	title       []string
	company     []string
	location    []string
	description []string
	url         []string
	postedEpoch []string // numeric Unix fields, tried first
	postedText  []string // textual dates, absolute or relative
	salary      []string
	jobType     []string
	experience  []string
	skills      []string
}

// ApifyDatasetAdapter maps the output dataset of an Apify actor run into
// canonical postings. Scheduled runs read the preconfigured dataset; a
// manually triggered run with an actor id configured starts a fresh scrape
// through Refresh and then reads the run's output dataset.
type ApifyDatasetAdapter struct {
	source     model.Source
	client     *ApifyClient
	datasetID  string
	actorID    string
	runTimeout time.Duration
	fields     apifyFieldMap
}

const defaultApifyRunTimeout = 10 * time.Minute

// NewApifyLinkedInAdapter maps the LinkedIn-scraper actor's dataset.
// actorID may be empty; then only the preconfigured dataset is read.
func NewApifyLinkedInAdapter(client *ApifyClient, datasetID, actorID string) *ApifyDatasetAdapter {
	return &ApifyDatasetAdapter{
		source:     model.SourceApifyLinkedIn,
		client:     client,
		datasetID:  datasetID,
		actorID:    actorID,
		runTimeout: defaultApifyRunTimeout,
		fields: apifyFieldMap{
			id:          []string{"id", "jobId", "trackingId"},
			title:       []string{"title"},
			company:     []string{"companyName", "company.name"},
			location:    []string{"location", "place"},
			description: []string{"description", "descriptionHtml"},
			url:         []string{"link", "url", "jobUrl"},
			postedText:  []string{"postedAt", "publishedAt", "postedTime"},
			salary:      []string{"salaryInfo", "salary"},
			jobType:     []string{"employmentType", "contractType"},
			experience:  []string{"seniorityLevel", "experienceLevel"},
			skills:      []string{"skills"},
		},
	}
}

// NewApifyNaukriAdapter maps the Naukri-scraper actor's dataset.
func NewApifyNaukriAdapter(client *ApifyClient, datasetID, actorID string) *ApifyDatasetAdapter {
	return &ApifyDatasetAdapter{
		source:     model.SourceApifyNaukri,
		client:     client,
		datasetID:  datasetID,
		actorID:    actorID,
		runTimeout: defaultApifyRunTimeout,
		fields: apifyFieldMap{
			id:          []string{"jobId", "jdURL"},
			title:       []string{"title", "jobTitle"},
			company:     []string{"companyName"},
			location:    []string{"placeholders.location", "location"},
			description: []string{"jobDescription", "description"},
			url:         []string{"jdURL", "url"},
			postedEpoch: []string{"createdDate", "createdAt"},
			postedText:  []string{"footerPlaceholderLabel"},
			salary:      []string{"placeholders.salary", "salary"},
			jobType:     []string{"employmentType"},
			experience:  []string{"placeholders.experience", "experience"},
			skills:      []string{"tagsAndSkills", "keySkills"},
		},
	}
}

// NewApifyIndeedAdapter maps the Indeed-scraper actor's dataset.
func NewApifyIndeedAdapter(client *ApifyClient, datasetID, actorID string) *ApifyDatasetAdapter {
	return &ApifyDatasetAdapter{
		source:     model.SourceApifyIndeed,
		client:     client,
		datasetID:  datasetID,
		actorID:    actorID,
		runTimeout: defaultApifyRunTimeout,
		fields: apifyFieldMap{
			id:          []string{"id", "jobKey"},
			title:       []string{"positionName", "title"},
			company:     []string{"company"},
			location:    []string{"location"},
			description: []string{"description", "descriptionHTML"},
			url:         []string{"url", "externalApplyLink"},
			postedText:  []string{"postedAt", "postingDateParsed"},
			salary:      []string{"salary"},
			jobType:     []string{"jobType.0", "jobType"},
			experience:  []string{"positionName"},
			skills:      []string{},
		},
	}
}

func (a *ApifyDatasetAdapter) Source() model.Source { return a.source }

// Refresh starts the configured actor, waits for the run to finish, and
// repoints the adapter at the run's output dataset. Adapters without an
// actor id keep reading their preconfigured dataset.
func (a *ApifyDatasetAdapter) Refresh(ctx context.Context, q model.SearchQuery) error {
	if a.actorID == "" {
		return nil
	}

	input := map[string]any{
		"query":    q.Keywords,
		"location": q.Location,
	}
	if q.Limit > 0 {
		input["rows"] = q.Limit
	}

	runID, err := a.client.RunActor(ctx, a.actorID, input)
	if err != nil {
		return fmt.Errorf("%s refresh: %w", a.source, err)
	}
	status, err := a.client.WaitForRun(ctx, runID, a.runTimeout)
	if err != nil {
		return fmt.Errorf("%s refresh: %w", a.source, err)
	}
	if status.DatasetID == "" {
		return fmt.Errorf("%s refresh: run %s produced no dataset", a.source, runID)
	}
	a.datasetID = status.DatasetID
	return nil
}

// Fetch pulls the dataset and maps each item through the adapter's field
// table. Items missing a title are dropped; everything else degrades to the
// named defaults.
func (a *ApifyDatasetAdapter) Fetch(ctx context.Context, q model.SearchQuery) ([]model.Posting, error) {
	if a.datasetID == "" {
		return nil, fmt.Errorf("%s: no dataset configured, trigger a refresh first", a.source)
	}

	items, err := a.client.DatasetItems(ctx, a.datasetID)
	if err != nil {
		return nil, err
	}

	var postings []model.Posting
	for _, item := range items {
		p, ok := a.mapItem(item)
		if !ok {
			continue
		}
		postings = append(postings, p)
		if q.Limit > 0 && len(postings) == q.Limit {
			break
		}
	}
	return postings, nil
}

func (a *ApifyDatasetAdapter) mapItem(item gjson.Result) (model.Posting, bool) {
	title := pick(item, a.fields.title)
	if title == "" {
		return model.Posting{}, false
	}

	company := pick(item, a.fields.company)
	location := pick(item, a.fields.location)
	description := pick(item, a.fields.description)
	salaryText := pick(item, a.fields.salary)
	experience := pick(item, a.fields.experience)

	posted := parseEpochField(item, a.fields.postedEpoch)
	if posted == nil {
		raw := pick(item, a.fields.postedText)
		posted = parseAnyDate(raw)
		if posted == nil {
			posted = parseRelativeDate(raw, time.Now())
		}
	}

	p := model.Posting{
		Source:          a.source,
		ExternalID:      firstNonEmpty(pick(item, a.fields.id), fallbackID(title, company, location)),
		Title:           title,
		Company:         firstNonEmpty(company, model.DefaultCompany),
		Location:        firstNonEmpty(location, model.DefaultLocation),
		Description:     normalize.CleanText(description),
		ExternalURL:     pick(item, a.fields.url),
		JobType:         normalize.MapJobType(pick(item, a.fields.jobType)),
		WorkMode:        normalize.InferWorkMode("", title, description, location),
		ExperienceLevel: mapApifyExperience(experience, title),
		Salary:          normalize.ParseSalary(salaryText),
		RequiredSkills:  normalize.CleanList(pickList(item, a.fields.skills), 15),
		PostedDate:      posted,
	}
	return p, true
}

// pick returns the first non-empty scalar among the given gjson paths.
// Numeric ids are returned in their string form.
func pick(item gjson.Result, paths []string) string {
	for _, path := range paths {
		v := item.Get(path)
		if !v.Exists() || v.IsArray() || v.IsObject() {
			continue
		}
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	return ""
}

// pickList collects strings from the first path holding an array or a
// comma-separated string.
func pickList(item gjson.Result, paths []string) []string {
	for _, path := range paths {
		v := item.Get(path)
		if !v.Exists() {
			continue
		}
		if v.IsArray() {
			var out []string
			for _, e := range v.Array() {
				out = append(out, e.String())
			}
			return out
		}
		if s := strings.TrimSpace(v.String()); s != "" {
			return strings.Split(s, ",")
		}
	}
	return nil
}

// parseEpochField reads the first numeric Unix-epoch field among paths.
func parseEpochField(item gjson.Result, paths []string) *time.Time {
	for _, path := range paths {
		v := item.Get(path)
		if v.Exists() && v.Type == gjson.Number {
			if t := parseEpoch(v.Int()); t != nil {
				return t
			}
		}
	}
	return nil
}

// mapApifyExperience prefers numeric "2-5 Yrs" style experience text, then
// falls back to seniority keywords in the text or the title.
func mapApifyExperience(experience, title string) model.ExperienceLevel {
	if m := yearsRangeRegex.FindStringSubmatch(experience); m != nil {
		min, _ := strconv.Atoi(m[1])
		max := min
		if m[2] != "" {
			max, _ = strconv.Atoi(m[2])
		}
		return normalize.ExperienceFromYears(min, max)
	}
	if lvl := normalize.MapExperienceLevel(experience); lvl != model.LevelUnknown {
		return lvl
	}
	return normalize.MapExperienceLevel(title)
}

var yearsRangeRegex = regexp.MustCompile(`(?i)(\d+)\s*(?:-\s*(\d+))?\s*(?:\+\s*)?(?:yrs?|years?)`)
