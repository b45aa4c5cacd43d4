// Package export renders scored article collections into flat formats
// for download and external analysis.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/newspulse-ai/newspulse/pkg/models"
	"github.com/newspulse-ai/newspulse/pkg/utils"
)

// csvHeaders is the fixed column order of the CSV export.
var csvHeaders = []string{
	"Title", "Source", "Published Date", "Author", "URL",
	"Sentiment", "Confidence Score", "Market Impact",
	"Summary", "Key Insights", "Content Length",
}

// ToCSV renders scored articles as CSV with a fixed column set. An empty
// collection yields an empty string, not a lone header row.
func ToCSV(articles []models.ScoredArticle) (string, error) {
	if len(articles) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeaders); err != nil {
		return "", fmt.Errorf("write CSV header: %w", err)
	}

	for _, a := range articles {
		row := []string{
			a.Title,
			a.Source,
			utils.NormalizeDate(a.PublishedDate),
			a.Author,
			a.URL,
			a.Sentiment,
			fmt.Sprintf("%.2f", a.Confidence(0)),
			a.MarketImpact,
			cleanForCSV(a.Summary),
			strings.Join(a.KeyInsights, "; "),
			fmt.Sprintf("%d", len(a.Content)),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush CSV: %w", err)
	}
	return buf.String(), nil
}

// cleanForCSV flattens newlines to spaces so long summaries stay in one
// visual row in spreadsheet tools. Quote escaping is handled by the CSV
// writer itself.
func cleanForCSV(text string) string {
	text = strings.ReplaceAll(text, "\r\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	return strings.TrimSpace(text)
}
