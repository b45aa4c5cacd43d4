package scraper

import (
	"strings"
	"testing"
)

func paddedContent(prefix string, length int) string {
	if len(prefix) >= length {
		return prefix[:length]
	}
	return prefix + strings.Repeat("x", length-len(prefix))
}

func TestIsRelevantLengthGate(t *testing.T) {
	terms := []string{"market"}

	short := paddedContent("market ", 99)
	if IsRelevant(short, terms) {
		t.Error("99-char content should be rejected")
	}

	exact := paddedContent("market ", 100)
	if !IsRelevant(exact, terms) {
		t.Error("100-char content with a matching term should be accepted")
	}
}

func TestIsRelevantMatchesAnyTerm(t *testing.T) {
	content := paddedContent("The central bank held interest rates steady this quarter. ", 200)

	tests := []struct {
		name  string
		terms []string
		want  bool
	}{
		{"single match", []string{"interest rates"}, true},
		{"or semantics", []string{"cryptocurrency", "interest rates"}, true},
		{"no match", []string{"cryptocurrency", "blockchain"}, false},
		{"case insensitive", []string{"INTEREST RATES"}, true},
		{"term needs trimming", []string{"  interest rates  "}, true},
		{"empty terms ignored", []string{"", "   "}, false},
		{"no terms", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRelevant(content, tt.terms); got != tt.want {
				t.Errorf("IsRelevant(%v) = %v, want %v", tt.terms, got, tt.want)
			}
		})
	}
}

func TestMatchesAnyTerm(t *testing.T) {
	if !matchesAnyTerm("Apple Unveils New Chip", []string{"apple"}) {
		t.Error("title match should be case-insensitive")
	}
	if matchesAnyTerm("Apple Unveils New Chip", []string{"banana"}) {
		t.Error("unrelated term should not match")
	}
	// No length gate at title level.
	if !matchesAnyTerm("AI", []string{"ai"}) {
		t.Error("short titles still match")
	}
}
