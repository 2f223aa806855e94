package normalize

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jobsift/jobsift/internal/model"
)

var (
	// "5-8 Lacs P.A.", "5.5 - 8 LPA", "12 lakh"
	lakhRangeRegex  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:-|to)\s*(\d+(?:\.\d+)?)\s*(?:lacs?|lakhs?|lpa)`)
	lakhSingleRegex = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:lacs?|lakhs?|lpa)`)

	// "40k-60k", "40K to 60K"
	thousandRangeRegex  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*k\s*(?:-|to)\s*(\d+(?:\.\d+)?)\s*k`)
	thousandSingleRegex = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*k\b`)

	// "₹ 4,00,000 - 6,50,000", "$80,000 to $120,000", "500000-800000"
	plainRangeRegex  = regexp.MustCompile(`(\d[\d,]{3,})\s*(?:-|to)\s*[₹$€£]?\s*(\d[\d,]{3,})`)
	plainSingleRegex = regexp.MustCompile(`(\d[\d,]{4,})`)
)

// ParseSalary extracts structured bounds from a salary display string.
// Recognizes lakh/thousand-suffixed Indian notation and plain ranges; a
// single bound is widened into a ±10% band. The raw text is always kept
// verbatim in Salary.Text. Returns nil only for empty input.
func ParseSalary(text string) *model.Salary {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	sal := &model.Salary{
		Text:     trimmed,
		Currency: detectCurrency(trimmed),
		Period:   detectPeriod(trimmed),
	}

	if m := lakhRangeRegex.FindStringSubmatch(trimmed); m != nil {
		sal.Min = int64(parseFloat(m[1]) * 100000)
		sal.Max = int64(parseFloat(m[2]) * 100000)
		return sal
	}
	if m := lakhSingleRegex.FindStringSubmatch(trimmed); m != nil {
		mid := parseFloat(m[1]) * 100000
		sal.Min = int64(mid * 0.9)
		sal.Max = int64(mid * 1.1)
		return sal
	}
	if m := thousandRangeRegex.FindStringSubmatch(trimmed); m != nil {
		sal.Min = int64(parseFloat(m[1]) * 1000)
		sal.Max = int64(parseFloat(m[2]) * 1000)
		return sal
	}
	if m := thousandSingleRegex.FindStringSubmatch(trimmed); m != nil {
		mid := parseFloat(m[1]) * 1000
		sal.Min = int64(mid * 0.9)
		sal.Max = int64(mid * 1.1)
		return sal
	}
	if m := plainRangeRegex.FindStringSubmatch(trimmed); m != nil {
		sal.Min = parseGrouped(m[1])
		sal.Max = parseGrouped(m[2])
		return sal
	}
	if m := plainSingleRegex.FindStringSubmatch(trimmed); m != nil {
		mid := float64(parseGrouped(m[1]))
		sal.Min = int64(mid * 0.9)
		sal.Max = int64(mid * 1.1)
		return sal
	}

	// No parseable bounds; raw text alone is still worth keeping.
	return sal
}

// SalaryFromBounds builds a Salary from already-structured provider numbers.
// A missing bound is synthesized as a ±10% band around the present one.
func SalaryFromBounds(min, max float64, currency, period string) *model.Salary {
	if min <= 0 && max <= 0 {
		return nil
	}
	if min <= 0 {
		min = max * 0.9
	}
	if max <= 0 {
		max = min * 1.1
	}
	if period == "" {
		period = "annual"
	}
	return &model.Salary{
		Min:      int64(min),
		Max:      int64(max),
		Currency: currency,
		Period:   period,
	}
}

func detectCurrency(s string) string {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(s, "₹") || strings.Contains(lower, "inr") ||
		strings.Contains(lower, "lac") || strings.Contains(lower, "lakh") ||
		strings.Contains(lower, "lpa") || strings.Contains(lower, "rs."):
		return "INR"
	case strings.Contains(s, "$") || strings.Contains(lower, "usd"):
		return "USD"
	case strings.Contains(s, "€") || strings.Contains(lower, "eur"):
		return "EUR"
	case strings.Contains(s, "£") || strings.Contains(lower, "gbp"):
		return "GBP"
	default:
		return "INR"
	}
}

func detectPeriod(s string) string {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "month") || strings.Contains(lower, "p.m") || strings.Contains(lower, "/mo"):
		return "monthly"
	case strings.Contains(lower, "hour") || strings.Contains(lower, "/hr") || strings.Contains(lower, "p.h"):
		return "hourly"
	default:
		// "P.A.", "per annum", "LPA" and unmarked strings all read as annual.
		return "annual"
	}
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parseGrouped(s string) int64 {
	n, _ := strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
	return n
}
