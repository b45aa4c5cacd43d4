// Package models defines the shared data types for NewsPulse:
// scraped articles, LLM-scored articles, and the aggregate statistics
// derived from them.
package models

// Sentinel values substituted when page metadata is missing.
const (
	UntitledTitle = "Untitled Article"
	UnknownAuthor = "Unknown"
)

// Sentiment classifications assigned by the scoring oracle.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Market impact levels assigned by the scoring oracle.
const (
	ImpactHigh    = "high"
	ImpactMedium  = "medium"
	ImpactLow     = "low"
	ImpactMinimal = "minimal"
	ImpactUnknown = "unknown"
)

// Article is a single scraped news article. It is immutable once
// extracted: sources construct it fully populated and nothing mutates
// it downstream.
//
// Invariants: Content is at least 100 characters (shorter extractions
// are rejected before an Article exists), Title and Author carry
// sentinel values rather than being empty, and PublishedDate is always
// set but is a best-effort string that may not parse to a calendar
// date. Consumers must parse it defensively.
type Article struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Source        string `json:"source"`
	URL           string `json:"url"`
	PublishedDate string `json:"published_date"`
	Author        string `json:"author"`
}

// ScoredArticle is an Article annotated by the scoring oracle.
type ScoredArticle struct {
	Article

	Sentiment       string   `json:"sentiment"`                  // "positive", "negative", "neutral"
	ConfidenceScore *float64 `json:"confidence_score,omitempty"` // 0.0 to 1.0; nil when the oracle gave none
	Summary         string   `json:"summary"`
	KeyInsights     []string `json:"key_insights"`
	MarketImpact    string   `json:"market_impact"` // "high", "medium", "low", "minimal", "unknown"
}

// Confidence returns the confidence score, or def when none was assigned.
func (a ScoredArticle) Confidence(def float64) float64 {
	if a.ConfidenceScore == nil {
		return def
	}
	return *a.ConfidenceScore
}

// Float64 is a convenience for building ScoredArticle literals.
func Float64(v float64) *float64 { return &v }

// ArticleRecord is the tabulated, analysis-ready form of a ScoredArticle
// with missing fields defaulted and derived sentiment metrics attached.
type ArticleRecord struct {
	Title             string  `json:"title"`
	Source            string  `json:"source"`
	URL               string  `json:"url"`
	PublishedDate     string  `json:"published_date"` // normalized YYYY-MM-DD
	Author            string  `json:"author"`
	ContentLength     int     `json:"content_length"`
	Sentiment         string  `json:"sentiment"`
	ConfidenceScore   float64 `json:"confidence_score"`
	Summary           string  `json:"summary"`
	MarketImpact      string  `json:"market_impact"`
	KeyInsightsCount  int     `json:"key_insights_count"`
	KeyInsights       string  `json:"key_insights"`       // semicolon-joined for flat display
	SentimentScore    int     `json:"sentiment_score"`    // -1, 0, or 1
	WeightedSentiment float64 `json:"weighted_sentiment"` // SentimentScore * ConfidenceScore
}

// DateRange bounds a set of normalized publication dates. The min/max
// are lexicographic on the YYYY-MM-DD form, not calendar-aware.
type DateRange struct {
	Earliest string `json:"earliest"`
	Latest   string `json:"latest"`
}

// SentimentSummary holds dataset-level sentiment statistics for a
// scored article collection. It has no independent lifecycle; it is
// always recomputed from its input set.
type SentimentSummary struct {
	TotalArticles         int            `json:"total_articles"`
	SentimentDistribution map[string]int `json:"sentiment_distribution"`
	AverageConfidence     float64        `json:"average_confidence"`
	OverallSentimentScore float64        `json:"overall_sentiment_score"` // mean weighted sentiment
	Sources               []string       `json:"sources,omitempty"`
	DateRange             *DateRange     `json:"date_range,omitempty"`
}

// ImpactFactor is one article's contribution to an ImpactReport.
type ImpactFactor struct {
	Title      string  `json:"title"`
	Impact     string  `json:"impact"`
	Confidence float64 `json:"confidence"`
}

// ImpactReport is the aggregate market impact assessment for a scored
// article collection.
type ImpactReport struct {
	Score   float64        `json:"score"` // 0.0 to 3.0
	Level   string         `json:"level"` // "high", "medium", "low", "minimal"
	Factors []ImpactFactor `json:"factors"`
}
