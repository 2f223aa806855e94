package adapter

import (
	"net/http"
	"strconv"
	"time"
)

// parseRetryAfter turns a Retry-After header value into a wait duration.
// Providers send either delay seconds ("120") or an HTTP-date; a date in
// the past and anything unparseable come back as zero.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
