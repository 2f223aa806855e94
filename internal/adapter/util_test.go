package adapter

import (
	"testing"
	"time"
)

func TestParseEpoch(t *testing.T) {
	if got := parseEpoch(0); got != nil {
		t.Errorf("expected nil for zero epoch, got %v", got)
	}

	sec := parseEpoch(1767225600) // seconds
	if sec == nil || sec.Year() != 2026 {
		t.Errorf("unexpected seconds parse: %v", sec)
	}

	ms := parseEpoch(1767225600000) // milliseconds
	if ms == nil || !ms.Equal(*sec) {
		t.Errorf("milliseconds should parse to the same instant: %v vs %v", ms, sec)
	}
}

func TestParseRelativeDate(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"3 days ago", now.Add(-3 * 24 * time.Hour), true},
		{"2 weeks ago", now.Add(-14 * 24 * time.Hour), true},
		{"1 hour ago", now.Add(-time.Hour), true},
		{"30+ days ago", now.Add(-30 * 24 * time.Hour), true},
		{"Posted today", now, true},
		{"yesterday", now.Add(-24 * time.Hour), true},
		{"gibberish", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		got := parseRelativeDate(tt.in, now)
		if tt.ok {
			if got == nil {
				t.Errorf("parseRelativeDate(%q): expected a time, got nil", tt.in)
				continue
			}
			if !got.Equal(tt.want) {
				t.Errorf("parseRelativeDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		} else if got != nil {
			t.Errorf("parseRelativeDate(%q): expected nil, got %v", tt.in, got)
		}
	}
}

func TestParseAnyDate(t *testing.T) {
	for _, in := range []string{
		"2026-08-25T10:00:00Z",
		"2026-08-25T10:00:00",
		"2026-08-25 10:00:00",
		"2026-08-25",
	} {
		got := parseAnyDate(in)
		if got == nil || got.Day() != 25 {
			t.Errorf("parseAnyDate(%q) = %v", in, got)
		}
	}
	if got := parseAnyDate("not a date"); got != nil {
		t.Errorf("expected nil for garbage, got %v", got)
	}
}

func TestFallbackID_Stable(t *testing.T) {
	a := fallbackID("Engineer", "Acme")
	b := fallbackID("engineer", "ACME")
	if a != b {
		t.Error("fallback ids should be case-insensitive")
	}
	if len(a) != 16 {
		t.Errorf("expected 16-char id, got %d", len(a))
	}
	if a == fallbackID("Other", "Acme") {
		t.Error("different inputs should yield different ids")
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "  ", "x", "y"); got != "x" {
		t.Errorf("expected x, got %q", got)
	}
	if got := firstNonEmpty("", " "); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
