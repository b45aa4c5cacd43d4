// Package stats implements the aggregation engine: pure functions that
// turn a collection of scored articles into tabular records and
// dataset-level statistics. Nothing here holds state or mutates its
// input; every value is rebuilt from the full collection on each call.
package stats

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/newspulse-ai/newspulse/pkg/models"
	"github.com/newspulse-ai/newspulse/pkg/utils"
)

// Tabulation defaults for fields the scoring oracle left unset.
const (
	defaultSentiment  = models.SentimentNeutral
	defaultImpact     = models.ImpactUnknown
	defaultConfidence = 0.0
	// impactConfidenceDefault applies only inside MarketImpactScore: an
	// article scored for impact but not for confidence should not zero
	// out the average, so it counts at half weight instead of none.
	impactConfidenceDefault = 0.5
)

// sentimentScore maps a sentiment label to its polarity.
func sentimentScore(sentiment string) int {
	switch sentiment {
	case models.SentimentPositive:
		return 1
	case models.SentimentNegative:
		return -1
	default:
		return 0
	}
}

// Tabulate flattens scored articles into normalized records: missing
// oracle fields are defaulted, publish dates are normalized to
// YYYY-MM-DD, and derived sentiment metrics are attached.
func Tabulate(articles []models.ScoredArticle) []models.ArticleRecord {
	records := make([]models.ArticleRecord, 0, len(articles))
	for _, a := range articles {
		sentiment := a.Sentiment
		if sentiment == "" {
			sentiment = defaultSentiment
		}
		impact := a.MarketImpact
		if impact == "" {
			impact = defaultImpact
		}
		confidence := a.Confidence(defaultConfidence)
		score := sentimentScore(strings.ToLower(sentiment))

		records = append(records, models.ArticleRecord{
			Title:             a.Title,
			Source:            a.Source,
			URL:               a.URL,
			PublishedDate:     utils.NormalizeDate(a.PublishedDate),
			Author:            a.Author,
			ContentLength:     len(a.Content),
			Sentiment:         sentiment,
			ConfidenceScore:   confidence,
			Summary:           a.Summary,
			MarketImpact:      impact,
			KeyInsightsCount:  len(a.KeyInsights),
			KeyInsights:       strings.Join(a.KeyInsights, "; "),
			SentimentScore:    score,
			WeightedSentiment: float64(score) * confidence,
		})
	}
	return records
}

// SentimentSummary computes dataset-level sentiment statistics. An empty
// input yields exact zero defaults rather than an error.
func SentimentSummary(articles []models.ScoredArticle) models.SentimentSummary {
	records := Tabulate(articles)
	if len(records) == 0 {
		return models.SentimentSummary{
			TotalArticles:         0,
			SentimentDistribution: map[string]int{},
			AverageConfidence:     0.0,
			OverallSentimentScore: 0.0,
		}
	}

	distribution := make(map[string]int)
	sourceSet := make(map[string]struct{})
	var sources []string
	var confidenceSum, weightedSum float64
	earliest, latest := records[0].PublishedDate, records[0].PublishedDate

	for _, r := range records {
		distribution[r.Sentiment]++
		confidenceSum += r.ConfidenceScore
		weightedSum += r.WeightedSentiment
		if _, seen := sourceSet[r.Source]; !seen {
			sourceSet[r.Source] = struct{}{}
			sources = append(sources, r.Source)
		}
		// Lexicographic min/max on the YYYY-MM-DD form.
		if r.PublishedDate < earliest {
			earliest = r.PublishedDate
		}
		if r.PublishedDate > latest {
			latest = r.PublishedDate
		}
	}

	n := float64(len(records))
	return models.SentimentSummary{
		TotalArticles:         len(records),
		SentimentDistribution: distribution,
		AverageConfidence:     confidenceSum / n,
		OverallSentimentScore: weightedSum / n,
		Sources:               sources,
		DateRange: &models.DateRange{
			Earliest: earliest,
			Latest:   latest,
		},
	}
}

// FilterOptions selects a subset of articles. Zero values and "all"
// disable the corresponding predicate; set predicates combine with AND.
type FilterOptions struct {
	// Sentiment matches case-insensitively; "all" or "" is a no-op.
	Sentiment string
	// Source matches by exact name; "all" or "" is a no-op.
	Source string
	// MinConfidence keeps articles with confidence at or above the
	// threshold. Nil disables the predicate.
	MinConfidence *float64
}

// FilterArticles returns a fresh slice of the articles passing every set
// predicate. The input is never mutated.
func FilterArticles(articles []models.ScoredArticle, opts FilterOptions) []models.ScoredArticle {
	filtered := make([]models.ScoredArticle, 0, len(articles))
	for _, a := range articles {
		if opts.Sentiment != "" && !strings.EqualFold(opts.Sentiment, "all") &&
			!strings.EqualFold(a.Sentiment, opts.Sentiment) {
			continue
		}
		if opts.Source != "" && !strings.EqualFold(opts.Source, "all") && a.Source != opts.Source {
			continue
		}
		if opts.MinConfidence != nil && a.Confidence(defaultConfidence) < *opts.MinConfidence {
			continue
		}
		filtered = append(filtered, a)
	}
	return filtered
}

var (
	insightWSRe     = regexp.MustCompile(`\s+`)
	insightPrefixRe = regexp.MustCompile(`^(the |a |an )`)
	insightSuffixRe = regexp.MustCompile(`(\.|!|\?)$`)
)

// normalizeInsight collapses insight phrasing variants: lowercase,
// whitespace collapsed, one leading article word and one trailing
// terminal punctuation mark stripped.
func normalizeInsight(insight string) string {
	normalized := insightWSRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(insight)), " ")
	normalized = insightPrefixRe.ReplaceAllString(normalized, "")
	normalized = insightSuffixRe.ReplaceAllString(normalized, "")
	return normalized
}

// TopInsights returns the topN most frequent normalized insights across
// all articles, ranked by count descending with ties broken by first
// encounter order.
func TopInsights(articles []models.ScoredArticle, topN int) []string {
	counts := make(map[string]int)
	var order []string

	for _, a := range articles {
		for _, insight := range a.KeyInsights {
			normalized := normalizeInsight(insight)
			if _, seen := counts[normalized]; !seen {
				order = append(order, normalized)
			}
			counts[normalized]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if topN >= 0 && len(order) > topN {
		order = order[:topN]
	}
	return order
}

// impactWeights translates ordinal impact labels to numeric weights.
// Unknown impact gets a neutral weight rather than dropping the article.
var impactWeights = map[string]float64{
	models.ImpactHigh:    3.0,
	models.ImpactMedium:  2.0,
	models.ImpactLow:     1.0,
	models.ImpactMinimal: 0.5,
	models.ImpactUnknown: 1.0,
}

// Impact level thresholds on the averaged score.
const (
	impactHighThreshold   = 2.5
	impactMediumThreshold = 1.5
	impactLowThreshold    = 0.7
)

// maxImpactFactors caps the contributing-article list.
const maxImpactFactors = 5

// MarketImpactScore aggregates per-article impact assessments into one
// score and level. Each article contributes weight(impact) times its
// confidence; the average divides by the article count, so every article
// counts equally in the denominator regardless of its weight.
func MarketImpactScore(articles []models.ScoredArticle) models.ImpactReport {
	if len(articles) == 0 {
		return models.ImpactReport{Score: 0.0, Level: models.ImpactMinimal, Factors: []models.ImpactFactor{}}
	}

	var total float64
	factors := make([]models.ImpactFactor, 0)

	for _, a := range articles {
		impact := a.MarketImpact
		if impact == "" {
			impact = models.ImpactUnknown
		}
		confidence := a.Confidence(impactConfidenceDefault)

		weight, ok := impactWeights[impact]
		if !ok {
			weight = 1.0
		}
		total += weight * confidence

		if impact == models.ImpactHigh || impact == models.ImpactMedium {
			factors = append(factors, models.ImpactFactor{
				Title:      a.Title,
				Impact:     impact,
				Confidence: confidence,
			})
		}
	}

	average := total / float64(len(articles))

	var level string
	switch {
	case average >= impactHighThreshold:
		level = models.ImpactHigh
	case average >= impactMediumThreshold:
		level = models.ImpactMedium
	case average >= impactLowThreshold:
		level = models.ImpactLow
	default:
		level = models.ImpactMinimal
	}

	sort.SliceStable(factors, func(i, j int) bool {
		return factors[i].Confidence > factors[j].Confidence
	})
	if len(factors) > maxImpactFactors {
		factors = factors[:maxImpactFactors]
	}

	return models.ImpactReport{
		Score:   roundTo(average, 2),
		Level:   level,
		Factors: factors,
	}
}

func roundTo(v float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(v*shift) / shift
}
