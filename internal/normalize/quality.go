package normalize

import (
	"time"

	"github.com/jobsift/jobsift/internal/model"
)

// Score rates a posting 0-100 on field completeness and freshness.
// Completeness carries 70 points, freshness the remaining 30.
func Score(p model.Posting, now time.Time) int {
	score := 0

	if p.Title != "" {
		score += 10
	}
	if p.Company != "" && p.Company != model.DefaultCompany {
		score += 10
	}
	if p.Location != "" && p.Location != model.DefaultLocation {
		score += 5
	}
	if len(p.Description) >= 200 {
		score += 15
	} else if len(p.Description) > 0 {
		score += 5
	}
	if p.Salary != nil && (p.Salary.Max > 0 || p.Salary.Text != "") {
		score += 10
	}
	if hasRealEntries(p.RequiredSkills) {
		score += 10
	}
	if hasRealEntries(p.Requirements) {
		score += 5
	}
	if p.ExternalURL != "" && !isPlaceholderURL(p.ExternalURL) {
		score += 5
	}

	if p.PostedDate != nil {
		age := now.Sub(*p.PostedDate)
		switch {
		case age <= 24*time.Hour:
			score += 30
		case age <= 3*24*time.Hour:
			score += 20
		case age <= 7*24*time.Hour:
			score += 10
		case age <= 14*24*time.Hour:
			score += 5
		}
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

func hasRealEntries(list []string) bool {
	return len(list) > 0 && !(len(list) == 1 && list[0] == model.Placeholder)
}

func isPlaceholderURL(u string) bool {
	return len(u) >= 19 && u[:19] == "https://example.com"
}
