package scraper

import (
	"testing"

	"github.com/newspulse-ai/newspulse/pkg/models"
)

func withTitles(titles ...string) []models.Article {
	articles := make([]models.Article, len(titles))
	for i, title := range titles {
		articles[i] = models.Article{Title: title, URL: "https://example.com/" + title}
	}
	return articles
}

func titlesOf(articles []models.Article) []string {
	titles := make([]string, len(articles))
	for i, a := range articles {
		titles[i] = a.Title
	}
	return titles
}

func TestDedupeRemovesNearDuplicates(t *testing.T) {
	articles := withTitles(
		"Apple announces new iPhone at September event",
		"Apple announces new iPhone at its September event", // near-dup
		"Fed raises interest rates again",
	)

	got := Dedupe(articles)
	if len(got) != 2 {
		t.Fatalf("got %d articles, want 2: %v", len(got), titlesOf(got))
	}
	if got[0].Title != articles[0].Title {
		t.Errorf("first occurrence should win, got %q", got[0].Title)
	}
	if got[1].Title != articles[2].Title {
		t.Errorf("unrelated title should survive, got %q", got[1].Title)
	}
}

func TestDedupeKeepsDistinctTitles(t *testing.T) {
	articles := withTitles(
		"Markets rally on earnings news",
		"New battery technology doubles range",
		"Senate passes infrastructure bill",
	)

	got := Dedupe(articles)
	if len(got) != len(articles) {
		t.Fatalf("got %d articles, want %d", len(got), len(articles))
	}
	for i := range articles {
		if got[i].Title != articles[i].Title {
			t.Errorf("order changed at %d: got %q, want %q", i, got[i].Title, articles[i].Title)
		}
	}
}

func TestDedupeIdempotent(t *testing.T) {
	articles := withTitles(
		"Apple announces new iPhone at September event",
		"Apple announces the new iPhone at September event",
		"Fed raises interest rates again",
		"Fed raises rates again",
		"Quantum computing milestone reached",
	)

	once := Dedupe(articles)
	twice := Dedupe(once)

	if len(once) != len(twice) {
		t.Fatalf("dedupe not idempotent: %d then %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].Title != twice[i].Title {
			t.Errorf("idempotence broken at %d: %q vs %q", i, once[i].Title, twice[i].Title)
		}
	}
}

func TestDedupeEmptyTokenTitles(t *testing.T) {
	// Punctuation-only titles tokenize to empty sets; similarity is
	// defined as 0, so neither is flagged as a duplicate.
	articles := withTitles("!!!", "???", "...")

	got := Dedupe(articles)
	if len(got) != 3 {
		t.Fatalf("got %d articles, want 3", len(got))
	}
}

func TestDedupeEmptyInput(t *testing.T) {
	got := Dedupe(nil)
	if len(got) != 0 {
		t.Fatalf("got %d articles, want 0", len(got))
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "apple iphone launch", "apple iphone launch", 1.0},
		{"disjoint", "apple iphone", "fed rates", 0.0},
		{"both empty", "", "", 0.0},
		{"one empty", "apple", "", 0.0},
		{"half overlap", "a b c d", "a b e f", 1.0 / 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := jaccard(titleTokens(tt.a), titleTokens(tt.b))
			if got != tt.want {
				t.Errorf("jaccard(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestDedupeAboveThresholdAtMostOneSurvives(t *testing.T) {
	// Eight of nine tokens shared: similarity 8/10 = 0.8 > 0.7.
	a := "one two three four five six seven eight nine"
	b := "one two three four five six seven eight zero"

	got := Dedupe(withTitles(a, b))
	if len(got) != 1 {
		t.Fatalf("got %d survivors, want 1", len(got))
	}
	if got[0].Title != a {
		t.Errorf("first-seen title should survive, got %q", got[0].Title)
	}
}
