// Package region decides whether a posting belongs to the target region.
// It runs after normalization (so work mode is already resolved) and before
// dedup and persistence.
package region

import (
	"strings"

	"github.com/jobsift/jobsift/internal/model"
)

// DefaultAllowList covers the target localities and their common spelling
// variants.
var DefaultAllowList = []string{
	"bangalore", "bengaluru", "banglore",
	"mysore", "mysuru",
	"hubli", "hubballi", "dharwad",
	"mangalore", "mangaluru",
	"belgaum", "belagavi",
	"udupi", "manipal",
	"karnataka",
}

// DefaultRejectList names foreign countries and cities whose presence
// rejects a posting outright.
var DefaultRejectList = []string{
	"usa", "united states", "u.s.", "new york", "san francisco", "seattle",
	"uk", "united kingdom", "london",
	"germany", "berlin", "munich",
	"canada", "toronto", "vancouver",
	"australia", "sydney", "melbourne",
	"singapore", "dubai", "uae",
	"netherlands", "amsterdam",
	"france", "paris",
	"japan", "tokyo",
}

// CountryName is the remote-but-in-country qualifier. A remote posting must
// mention it to pass; bare "Remote" is rejected as likely globally remote.
const CountryName = "india"

// Filter holds the allow and reject locality lists, all lowercased.
type Filter struct {
	allow   []string
	reject  []string
	country string
}

// New creates a Filter. Empty lists fall back to the defaults.
func New(allow, reject []string) *Filter {
	if len(allow) == 0 {
		allow = DefaultAllowList
	}
	if len(reject) == 0 {
		reject = DefaultRejectList
	}
	return &Filter{
		allow:   lowerAll(allow),
		reject:  lowerAll(reject),
		country: CountryName,
	}
}

// InRegion reports whether a posting with the given location text and work
// mode belongs to the target region. The reject list wins over every other
// signal; a missing location cannot be verified and is rejected.
func (f *Filter) InRegion(location string, mode model.WorkMode) bool {
	loc := strings.ToLower(strings.TrimSpace(location))
	if loc == "" {
		return false
	}

	for _, term := range f.reject {
		if strings.Contains(loc, term) {
			return false
		}
	}

	for _, term := range f.allow {
		if strings.Contains(loc, term) {
			return true
		}
	}

	// Remote postings pass only when they name the country; bare "Remote"
	// would admit globally-remote foreign listings.
	if mode == model.WorkModeRemote && strings.Contains(loc, f.country) {
		return true
	}

	return false
}

func lowerAll(terms []string) []string {
	out := make([]string, len(terms))
	for i, t := range terms {
		out[i] = strings.ToLower(t)
	}
	return out
}
