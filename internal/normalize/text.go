// Package normalize holds the pure transforms that turn canonical-but-messy
// provider fields into clean, bounded values.
package normalize

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jobsift/jobsift/internal/model"
)

var (
	scriptBlockRegex = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleBlockRegex  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)

	brRegex         = regexp.MustCompile(`(?i)<br\s*/?>`)
	paraOpenRegex   = regexp.MustCompile(`(?i)<p[^>]*>`)
	paraCloseRegex  = regexp.MustCompile(`(?i)</p>`)
	liOpenRegex     = regexp.MustCompile(`(?i)<li[^>]*>`)
	headingRegex    = regexp.MustCompile(`(?i)</?h[1-6][^>]*>`)
	blockCloseRegex = regexp.MustCompile(`(?i)</(li|ul|ol|div)>`)

	htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

	spaceRunRegex = regexp.MustCompile(`[ \t]+`)
	lineEdgeRegex = regexp.MustCompile(`[ \t]*\n[ \t]*`)
	blankRunRegex = regexp.MustCompile(`\n{3,}`)
)

// CleanText converts a provider description (HTML or plain text) to bounded
// plain text. Structural tags become newlines and bullets before generic tag
// stripping, otherwise paragraph and list boundaries are lost.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	s := scriptBlockRegex.ReplaceAllString(content, "")
	s = styleBlockRegex.ReplaceAllString(s, "")

	// Structural tags first: they carry the layout the stripped text keeps.
	s = brRegex.ReplaceAllString(s, "\n")
	s = paraCloseRegex.ReplaceAllString(s, "\n\n")
	s = paraOpenRegex.ReplaceAllString(s, "")
	s = liOpenRegex.ReplaceAllString(s, "\n• ")
	s = headingRegex.ReplaceAllString(s, "\n")
	s = blockCloseRegex.ReplaceAllString(s, "\n")

	s = htmlTagRegex.ReplaceAllString(s, "")
	s = html.UnescapeString(s)

	s = spaceRunRegex.ReplaceAllString(s, " ")
	s = lineEdgeRegex.ReplaceAllString(s, "\n")
	s = blankRunRegex.ReplaceAllString(s, "\n\n")
	s = strings.TrimSpace(s)

	return Truncate(s, model.MaxDescriptionLen)
}

// Truncate bounds s to at most max bytes without splitting a rune.
// Descriptions are truncated, never rejected.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// CleanList applies CleanText to each entry, drops empties, and bounds the
// list. An empty result becomes a single placeholder entry so display code
// never sees a nil list.
func CleanList(items []string, max int) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		cleaned := strings.TrimSpace(CleanText(it))
		if cleaned == "" {
			continue
		}
		out = append(out, cleaned)
		if len(out) == max {
			break
		}
	}
	if len(out) == 0 {
		return []string{model.Placeholder}
	}
	return out
}
