package scraper

import "strings"

// IsRelevant reports whether content plausibly discusses any of the search
// terms. Matching is case-insensitive substring OR: one matching term is
// enough. Content under the quality gate is never relevant; the length
// check is enforced here independently of the extractor because content
// may arrive from cached or external producers.
func IsRelevant(content string, searchTerms []string) bool {
	if len(content) < minContentLength {
		return false
	}
	contentLower := strings.ToLower(content)
	for _, term := range searchTerms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" && strings.Contains(contentLower, term) {
			return true
		}
	}
	return false
}

// matchesAnyTerm is the title/description-level variant of the relevance
// check: no length gate, same case-insensitive OR over trimmed terms.
func matchesAnyTerm(text string, searchTerms []string) bool {
	textLower := strings.ToLower(text)
	for _, term := range searchTerms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" && strings.Contains(textLower, term) {
			return true
		}
	}
	return false
}
