// Package analyzer scores scraped articles through an LLM provider
// along four dimensions: summary, sentiment, key insights, and market
// impact. Every provider failure is non-fatal and substitutes a fixed
// fallback value, so downstream aggregation always sees a complete
// record.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/newspulse-ai/newspulse/internal/llm"
	"github.com/newspulse-ai/newspulse/pkg/models"
)

// Prompt content limits, in characters. Impact assessment reads a
// shorter prefix since it can usually be judged from the lead.
const (
	contentLimit       = 2000
	impactContentLimit = 1500
)

// Per-dimension sampling settings.
const (
	summaryMaxTokens  = 150
	summaryTemp       = 0.3
	sentimentTemp     = 0.2
	insightsTemp      = 0.3
	impactTemp        = 0.2
	overallMaxTokens  = 500
	overallTemp       = 0.4
	defaultConfidence = 0.5
)

// Analyzer scores articles through an LLM provider.
type Analyzer struct {
	provider    llm.Provider
	model       string
	concurrency int
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithModel overrides the provider's default model.
func WithModel(model string) Option {
	return func(a *Analyzer) { a.model = model }
}

// WithConcurrency bounds how many articles are scored in parallel.
func WithConcurrency(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// New creates an analyzer backed by the given provider.
func New(provider llm.Provider, opts ...Option) *Analyzer {
	a := &Analyzer{provider: provider, concurrency: 4}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze scores one article. Each dimension is a separate provider
// call with its own fallback; a failed call degrades that dimension
// only and never returns an error.
func (a *Analyzer) Analyze(ctx context.Context, article models.Article) models.ScoredArticle {
	scored := models.ScoredArticle{Article: article}

	if article.Content == "" {
		scored.Sentiment = models.SentimentNeutral
		scored.ConfidenceScore = models.Float64(0.0)
		scored.Summary = "No content available for analysis"
		scored.KeyInsights = []string{}
		scored.MarketImpact = models.ImpactUnknown
		return scored
	}

	scored.Summary = a.summarize(ctx, article.Title, article.Content)
	sentiment, confidence := a.classifySentiment(ctx, article.Content)
	scored.Sentiment = sentiment
	scored.ConfidenceScore = models.Float64(confidence)
	scored.KeyInsights = a.extractInsights(ctx, article.Content)
	scored.MarketImpact = a.assessImpact(ctx, article.Content)
	return scored
}

// AnalyzeAll scores a batch of articles, preserving input order. Calls
// fan out up to the configured concurrency; articles are independent so
// per-article failures stay isolated.
func (a *Analyzer) AnalyzeAll(ctx context.Context, articles []models.Article) []models.ScoredArticle {
	scored := make([]models.ScoredArticle, len(articles))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, article := range articles {
		i, article := i, article
		g.Go(func() error {
			scored[i] = a.Analyze(ctx, article)
			return nil
		})
	}
	// Analyze never returns an error; Wait only propagates ctx state.
	_ = g.Wait()
	return scored
}

// summarize produces a 2-3 sentence summary of the article.
func (a *Analyzer) summarize(ctx context.Context, title, content string) string {
	prompt := fmt.Sprintf(`Please provide a concise summary of this news article.
Focus on the key points, main events, and important implications mentioned in the article.

Title: %s
Content: %s...

Summary should be 2-3 sentences maximum.`, title, truncate(content, contentLimit))

	resp, err := a.provider.Chat(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: prompt},
	}, &llm.ChatOptions{Model: a.model, Temperature: summaryTemp, MaxTokens: summaryMaxTokens})
	if err != nil {
		return fmt.Sprintf("Unable to generate summary: %v", err)
	}
	return strings.TrimSpace(resp.Content)
}

type sentimentResult struct {
	Sentiment  string   `json:"sentiment"`
	Confidence *float64 `json:"confidence"`
	Reasoning  string   `json:"reasoning"`
}

// classifySentiment returns the sentiment label and a confidence
// clamped to [0, 1]. Failures classify as neutral with zero confidence.
func (a *Analyzer) classifySentiment(ctx context.Context, content string) (string, float64) {
	prompt := fmt.Sprintf(`Analyze the sentiment of this news article. Consider factors like:
- Overall tone (positive, negative, or neutral)
- Outlook and implications mentioned
- Impact on stakeholders
- Future prospects discussed

Content: %s...

Respond with JSON in this exact format:
{"sentiment": "positive/negative/neutral", "confidence": 0.0-1.0, "reasoning": "brief explanation"}`, truncate(content, contentLimit))

	resp, err := a.provider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: "You are a news analyst specializing in sentiment analysis. Respond only with valid JSON."},
		{Role: llm.RoleUser, Content: prompt},
	}, &llm.ChatOptions{Model: a.model, Temperature: sentimentTemp, JSONMode: true})
	if err != nil {
		return models.SentimentNeutral, 0.0
	}

	var result sentimentResult
	if err := json.Unmarshal([]byte(resp.Content), &result); err != nil {
		return models.SentimentNeutral, 0.0
	}

	sentiment := result.Sentiment
	if sentiment == "" {
		sentiment = models.SentimentNeutral
	}
	confidence := defaultConfidence
	if result.Confidence != nil {
		confidence = clamp(*result.Confidence, 0.0, 1.0)
	}
	return sentiment, confidence
}

type insightsResult struct {
	Insights []string `json:"insights"`
}

// extractInsights returns 3-5 key insights from the article. A failed
// call yields an empty list.
func (a *Analyzer) extractInsights(ctx context.Context, content string) []string {
	prompt := fmt.Sprintf(`Extract 3-5 key insights from this article that would be valuable for understanding the main topic.
Focus on:
- Specific facts or data mentioned
- Important developments or announcements
- Driving factors and trends
- Analysis points and expert opinions

Content: %s...

Respond with JSON in this format:
{"insights": ["insight 1", "insight 2", "insight 3"]}`, truncate(content, contentLimit))

	resp, err := a.provider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: "You are a news analyst. Extract actionable insights from news articles. Respond only with valid JSON."},
		{Role: llm.RoleUser, Content: prompt},
	}, &llm.ChatOptions{Model: a.model, Temperature: insightsTemp, JSONMode: true})
	if err != nil {
		return []string{}
	}

	var result insightsResult
	if err := json.Unmarshal([]byte(resp.Content), &result); err != nil || result.Insights == nil {
		return []string{}
	}
	return result.Insights
}

type impactResult struct {
	Impact      string `json:"impact"`
	Explanation string `json:"explanation"`
}

// assessImpact classifies the article's market impact. Failures yield
// the unknown level.
func (a *Analyzer) assessImpact(ctx context.Context, content string) string {
	prompt := fmt.Sprintf(`Assess the potential impact of this news on the relevant industry, market, or stakeholders.

Content: %s...

Classify the impact as one of: "high", "medium", "low", "minimal"

Respond with JSON: {"impact": "level", "explanation": "brief reason"}`, truncate(content, impactContentLimit))

	resp, err := a.provider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: "You are a news impact analyst. Assess the impact of news on relevant markets or stakeholders. Respond only with valid JSON."},
		{Role: llm.RoleUser, Content: prompt},
	}, &llm.ChatOptions{Model: a.model, Temperature: impactTemp, JSONMode: true})
	if err != nil {
		return models.ImpactUnknown
	}

	var result impactResult
	if err := json.Unmarshal([]byte(resp.Content), &result); err != nil || result.Impact == "" {
		return models.ImpactUnknown
	}
	return result.Impact
}

// OverallAnalysis synthesizes a multi-paragraph topic assessment from a
// scored batch, using the sentiment distribution and up to five article
// summaries as grounding.
func (a *Analyzer) OverallAnalysis(ctx context.Context, articles []models.ScoredArticle) string {
	if len(articles) == 0 {
		return "No articles available for analysis."
	}

	counts := map[string]int{}
	var summaries []string
	for _, article := range articles {
		counts[article.Sentiment]++
		if article.Summary != "" && len(summaries) < 5 {
			summaries = append(summaries, article.Summary)
		}
	}

	prompt := fmt.Sprintf(`Based on analysis of %d recent news articles, provide an overall topic assessment.

Sentiment Distribution:
- Positive: %d articles
- Negative: %d articles
- Neutral: %d articles

Key Article Summaries:
%s

Provide a comprehensive 3-4 paragraph analysis covering:
1. Overall sentiment and trend direction for this topic
2. Key factors and developments driving the narrative
3. Outlook and potential implications
4. Key insights and takeaways`,
		len(articles),
		counts[models.SentimentPositive], counts[models.SentimentNegative], counts[models.SentimentNeutral],
		strings.Join(summaries, "\n"))

	resp, err := a.provider.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: "You are a senior news analyst. Provide professional, comprehensive analysis based on multiple news sources."},
		{Role: llm.RoleUser, Content: prompt},
	}, &llm.ChatOptions{Model: a.model, Temperature: overallTemp, MaxTokens: overallMaxTokens})
	if err != nil {
		return fmt.Sprintf("Unable to generate overall analysis: %v", err)
	}
	return strings.TrimSpace(resp.Content)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
