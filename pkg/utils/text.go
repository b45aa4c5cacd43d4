// Package utils provides common text and date helpers for NewsPulse.
package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	urlRe   = regexp.MustCompile(`https?://\S+`)
	emailRe = regexp.MustCompile(`\S+@\S+`)
	wsRe    = regexp.MustCompile(`\s+`)
)

// CleanText normalizes text for single-line display and export:
// line breaks and runs of whitespace collapse to single spaces, and
// URLs and email addresses are removed. Punctuation and sentence
// structure are preserved.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	cleaned := urlRe.ReplaceAllString(text, "")
	cleaned = emailRe.ReplaceAllString(cleaned, "")
	cleaned = wsRe.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// Truncate shortens text to at most maxLen characters, appending "..."
// when it was cut. The ellipsis counts against maxLen.
func Truncate(text string, maxLen int) string {
	if text == "" || len(text) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return text[:maxLen]
	}
	return text[:maxLen-3] + "..."
}

// ReadingTime estimates reading time in minutes at the given words per
// minute. Non-empty text always yields at least 1 minute.
func ReadingTime(text string, wordsPerMinute int) int {
	if text == "" {
		return 0
	}
	if wordsPerMinute <= 0 {
		wordsPerMinute = 200
	}
	words := len(strings.Fields(text))
	minutes := words / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// FormatConfidence renders a 0.0-1.0 confidence score as a percentage
// string with one decimal place, e.g. 0.856 → "85.6%".
func FormatConfidence(score float64) string {
	return fmt.Sprintf("%.1f%%", score*100)
}
