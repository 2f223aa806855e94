package adapter

import (
	"crypto/md5"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// parseEpoch converts a Unix timestamp in seconds or milliseconds to UTC.
// Values above 10^10 are read as milliseconds.
func parseEpoch(v int64) *time.Time {
	if v <= 0 {
		return nil
	}
	var t time.Time
	if v > 10_000_000_000 {
		t = time.UnixMilli(v)
	} else {
		t = time.Unix(v, 0)
	}
	t = t.UTC()
	return &t
}

var relativeDateRegex = regexp.MustCompile(`(?i)(\d+)\+?\s*(minute|hour|day|week|month)s?\s*ago`)

// parseRelativeDate resolves provider strings like "3 days ago" or
// "2 weeks ago" against now. "just now"/"today" map to now, "yesterday" to
// one day back. Returns nil when the string carries no recognizable offset.
func parseRelativeDate(s string, now time.Time) *time.Time {
	lower := strings.ToLower(strings.TrimSpace(s))
	if lower == "" {
		return nil
	}
	if strings.Contains(lower, "just now") || strings.Contains(lower, "today") {
		t := now
		return &t
	}
	if strings.Contains(lower, "yesterday") {
		t := now.Add(-24 * time.Hour)
		return &t
	}

	m := relativeDateRegex.FindStringSubmatch(lower)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}

	var d time.Duration
	switch m[2] {
	case "minute":
		d = time.Duration(n) * time.Minute
	case "hour":
		d = time.Duration(n) * time.Hour
	case "day":
		d = time.Duration(n) * 24 * time.Hour
	case "week":
		d = time.Duration(n) * 7 * 24 * time.Hour
	case "month":
		d = time.Duration(n) * 30 * 24 * time.Hour
	}
	t := now.Add(-d)
	return &t
}

// parseAnyDate tries the date layouts seen across providers.
func parseAnyDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
		time.RFC1123,
		time.RFC1123Z,
		"Mon, 02 Jan 2006 15:04:05 MST",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			u := t.UTC()
			return &u
		}
	}
	return nil
}

// fallbackID synthesizes a stable external id for providers that ship
// postings without one, so the (source, externalId) identity still holds.
func fallbackID(parts ...string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.Join(parts, "|"))))
	return hex.EncodeToString(sum[:])[:16]
}

// firstNonEmpty returns the first non-blank string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
