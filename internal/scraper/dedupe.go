package scraper

import (
	"regexp"
	"strings"

	"github.com/newspulse-ai/newspulse/pkg/models"
)

// duplicateThreshold is the Jaccard similarity above which two titles are
// considered the same story.
const duplicateThreshold = 0.7

var wordRe = regexp.MustCompile(`\w+`)

// Dedupe removes near-duplicate articles by title similarity. The pass is
// greedy and order-preserving: the first occurrence of a story wins, and
// each later title is compared against every title already kept. O(n^2)
// in the article count, which stays small per invocation.
func Dedupe(articles []models.Article) []models.Article {
	unique := make([]models.Article, 0, len(articles))
	seen := make([]map[string]struct{}, 0, len(articles))

	for _, article := range articles {
		tokens := titleTokens(article.Title)

		duplicate := false
		for _, prev := range seen {
			if jaccard(tokens, prev) > duplicateThreshold {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}

		unique = append(unique, article)
		seen = append(seen, tokens)
	}
	return unique
}

// titleTokens returns the set of word tokens in the lowercased title.
func titleTokens(title string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, w := range wordRe.FindAllString(strings.ToLower(title), -1) {
		tokens[w] = struct{}{}
	}
	return tokens
}

// jaccard computes |a∩b| / |a∪b|. Two empty sets have similarity 0, so
// punctuation-only titles are never flagged as duplicates of each other.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for t := range a {
		if _, ok := b[t]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
