package utils

import (
	"regexp"
	"strings"
	"time"
)

var tzSuffixRe = regexp.MustCompile(`[+-]\d{2}:\d{2}$`)

// dateLayouts are tried in order against cleaned-up date strings.
// Feeds and page metadata produce a wide spread of formats; the list
// covers the ones seen in practice plus RFC1123 variants common in RSS.
var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
}

// NormalizeDate parses a best-effort date string from feed or page
// metadata and returns it as YYYY-MM-DD. Published dates are not
// guaranteed to be well-formed upstream, so every parse failure falls
// back to the current date rather than an error.
func NormalizeDate(dateStr string) string {
	if strings.TrimSpace(dateStr) == "" {
		return time.Now().Format("2006-01-02")
	}

	clean := tzSuffixRe.ReplaceAllString(strings.TrimSpace(dateStr), "")
	clean = strings.ReplaceAll(clean, "T", " ")
	clean = strings.TrimSuffix(clean, "Z")

	candidates := []string{clean}
	if len(clean) > 19 {
		candidates = append(candidates, clean[:19])
	}
	candidates = append(candidates, strings.TrimSpace(dateStr))

	for _, c := range candidates {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, c); err == nil {
				return t.Format("2006-01-02")
			}
		}
	}

	return time.Now().Format("2006-01-02")
}

// ValidArticle reports whether an article carries the fields required
// for analysis: a title, a source, and at least 100 characters of
// content. This mirrors the extraction quality gate for data that
// arrives from outside the scraper.
func ValidArticle(title, content, source string) bool {
	if title == "" || content == "" || source == "" {
		return false
	}
	return len(content) >= 100
}
