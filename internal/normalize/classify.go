package normalize

import (
	"strings"

	"github.com/jobsift/jobsift/internal/model"
)

// InferWorkMode resolves a posting's work mode. An explicit provider flag
// wins; otherwise keywords across title, description and location decide,
// defaulting to on-site.
func InferWorkMode(explicit string, title, description, location string) model.WorkMode {
	switch strings.ToLower(strings.TrimSpace(explicit)) {
	case "remote", "fully remote", "work from home", "wfh":
		return model.WorkModeRemote
	case "hybrid":
		return model.WorkModeHybrid
	case "on-site", "onsite", "on_site", "in office", "office":
		return model.WorkModeOnSite
	}

	haystack := strings.ToLower(title + " " + description + " " + location)
	if strings.Contains(haystack, "remote") || strings.Contains(haystack, "work from home") {
		return model.WorkModeRemote
	}
	if strings.Contains(haystack, "hybrid") {
		return model.WorkModeHybrid
	}
	return model.WorkModeOnSite
}

// MapJobType maps a provider's employment-type string onto the small
// canonical vocabulary via substring matching. Unrecognized input defaults
// to Full-time.
func MapJobType(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case s == "":
		return model.DefaultJobType
	case strings.Contains(s, "intern"):
		return "Internship"
	case strings.Contains(s, "part"):
		return "Part-time"
	case strings.Contains(s, "contract") || strings.Contains(s, "freelance") || s == "b2b":
		return "Contract"
	case strings.Contains(s, "temp"):
		return "Temporary"
	case strings.Contains(s, "full") || strings.Contains(s, "permanent"):
		return "Full-time"
	default:
		return model.DefaultJobType
	}
}

// experience keyword ladder, checked most-senior first so "senior lead"
// resolves to lead rather than senior.
var levelKeywords = []struct {
	level    model.ExperienceLevel
	keywords []string
}{
	{model.LevelExecutive, []string{"executive", "director", "vp", "vice president", "chief", "head of"}},
	{model.LevelLead, []string{"lead", "principal", "staff"}},
	{model.LevelSenior, []string{"senior", "sr.", "sr "}},
	{model.LevelMid, []string{"mid", "intermediate"}},
	{model.LevelJunior, []string{"junior", "jr.", "jr ", "associate"}},
	{model.LevelEntry, []string{"entry", "fresher", "graduate", "intern", "trainee"}},
}

// MapExperienceLevel derives the seniority from explicit seniority text.
// Returns unknown when no keyword matches; adapters with numeric
// years-of-experience fields use ExperienceFromYears instead.
func MapExperienceLevel(raw string) model.ExperienceLevel {
	s := strings.ToLower(raw)
	for _, entry := range levelKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(s, kw) {
				return entry.level
			}
		}
	}
	return model.LevelUnknown
}

// ExperienceFromYears maps min/max years of experience onto the ladder.
func ExperienceFromYears(minYears, maxYears int) model.ExperienceLevel {
	years := maxYears
	if years < minYears {
		years = minYears
	}
	switch {
	case years <= 0:
		return model.LevelEntry
	case years <= 2:
		return model.LevelJunior
	case years <= 5:
		return model.LevelMid
	case years <= 10:
		return model.LevelSenior
	default:
		return model.LevelLead
	}
}
