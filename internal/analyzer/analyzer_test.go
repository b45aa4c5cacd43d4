package analyzer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/newspulse-ai/newspulse/internal/llm"
	"github.com/newspulse-ai/newspulse/pkg/models"
)

// fakeProvider routes each chat call to a canned reply selected by a
// marker in the prompt text.
type fakeProvider struct {
	mu      sync.Mutex
	replies map[string]string // prompt substring -> reply
	errOn   string            // prompt substring that fails
	calls   int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Ping(context.Context) error { return nil }

func (f *fakeProvider) Chat(_ context.Context, messages []llm.Message, _ *llm.ChatOptions) (*llm.Response, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	prompt := messages[len(messages)-1].Content
	if f.errOn != "" && strings.Contains(prompt, f.errOn) {
		return nil, fmt.Errorf("provider blew up")
	}
	for marker, reply := range f.replies {
		if strings.Contains(prompt, marker) {
			return &llm.Response{Content: reply}, nil
		}
	}
	return nil, fmt.Errorf("no canned reply for prompt")
}

func happyProvider() *fakeProvider {
	return &fakeProvider{replies: map[string]string{
		"concise summary":          "Markets rallied. Tech led the gains.",
		"sentiment of this news":   `{"sentiment": "positive", "confidence": 0.85, "reasoning": "upbeat"}`,
		"3-5 key insights":         `{"insights": ["Tech led gains", "Volume was high"]}`,
		"potential impact":         `{"impact": "medium", "explanation": "sector move"}`,
		"overall topic assessment": "Overall the topic trends positive.",
	}}
}

func article(content string) models.Article {
	return models.Article{Title: "Markets Rally", Content: content, Source: "Test", URL: "https://example.com/a"}
}

func TestAnalyze(t *testing.T) {
	provider := happyProvider()
	a := New(provider)

	scored := a.Analyze(context.Background(), article("Stocks rose broadly today on strong earnings."))

	if scored.Sentiment != "positive" {
		t.Errorf("sentiment = %q", scored.Sentiment)
	}
	if scored.Confidence(0) != 0.85 {
		t.Errorf("confidence = %v", scored.Confidence(0))
	}
	if scored.Summary != "Markets rallied. Tech led the gains." {
		t.Errorf("summary = %q", scored.Summary)
	}
	if len(scored.KeyInsights) != 2 {
		t.Errorf("insights = %v", scored.KeyInsights)
	}
	if scored.MarketImpact != "medium" {
		t.Errorf("impact = %q", scored.MarketImpact)
	}
	if provider.calls != 4 {
		t.Errorf("provider calls = %d, want 4", provider.calls)
	}
}

func TestAnalyzeEmptyContent(t *testing.T) {
	provider := happyProvider()
	a := New(provider)

	scored := a.Analyze(context.Background(), models.Article{Title: "Empty"})

	if scored.Sentiment != models.SentimentNeutral {
		t.Errorf("sentiment = %q", scored.Sentiment)
	}
	if scored.Confidence(1) != 0.0 {
		t.Errorf("confidence = %v, want 0.0", scored.Confidence(1))
	}
	if scored.Summary != "No content available for analysis" {
		t.Errorf("summary = %q", scored.Summary)
	}
	if scored.KeyInsights == nil || len(scored.KeyInsights) != 0 {
		t.Errorf("insights = %v, want empty list", scored.KeyInsights)
	}
	if scored.MarketImpact != models.ImpactUnknown {
		t.Errorf("impact = %q", scored.MarketImpact)
	}
	if provider.calls != 0 {
		t.Errorf("provider should not be called for empty content, got %d calls", provider.calls)
	}
}

func TestAnalyzeSentimentFallback(t *testing.T) {
	provider := happyProvider()
	provider.errOn = "sentiment of this news"
	a := New(provider)

	scored := a.Analyze(context.Background(), article("Some substantial content here."))

	if scored.Sentiment != models.SentimentNeutral {
		t.Errorf("sentiment = %q, want neutral fallback", scored.Sentiment)
	}
	if scored.Confidence(1) != 0.0 {
		t.Errorf("confidence = %v, want 0.0 fallback", scored.Confidence(1))
	}
	// Other dimensions are unaffected.
	if scored.MarketImpact != "medium" {
		t.Errorf("impact = %q, other calls must still succeed", scored.MarketImpact)
	}
}

func TestAnalyzeSummaryFallbackCarriesError(t *testing.T) {
	provider := happyProvider()
	provider.errOn = "concise summary"
	a := New(provider)

	scored := a.Analyze(context.Background(), article("Some substantial content here."))
	if !strings.HasPrefix(scored.Summary, "Unable to generate summary:") {
		t.Errorf("summary = %q", scored.Summary)
	}
}

func TestAnalyzeInsightsFallback(t *testing.T) {
	provider := happyProvider()
	provider.errOn = "3-5 key insights"
	a := New(provider)

	scored := a.Analyze(context.Background(), article("Some substantial content here."))
	if scored.KeyInsights == nil || len(scored.KeyInsights) != 0 {
		t.Errorf("insights = %v, want empty list fallback", scored.KeyInsights)
	}
}

func TestAnalyzeImpactFallback(t *testing.T) {
	provider := happyProvider()
	provider.errOn = "potential impact"
	a := New(provider)

	scored := a.Analyze(context.Background(), article("Some substantial content here."))
	if scored.MarketImpact != models.ImpactUnknown {
		t.Errorf("impact = %q, want unknown fallback", scored.MarketImpact)
	}
}

func TestAnalyzeMalformedJSON(t *testing.T) {
	provider := happyProvider()
	provider.replies["sentiment of this news"] = "not json at all"
	a := New(provider)

	scored := a.Analyze(context.Background(), article("Some substantial content here."))
	if scored.Sentiment != models.SentimentNeutral || scored.Confidence(1) != 0.0 {
		t.Errorf("malformed JSON should fall back: %q/%v", scored.Sentiment, scored.Confidence(1))
	}
}

func TestAnalyzeConfidenceClamped(t *testing.T) {
	provider := happyProvider()
	provider.replies["sentiment of this news"] = `{"sentiment": "positive", "confidence": 1.7}`
	a := New(provider)

	scored := a.Analyze(context.Background(), article("Some substantial content here."))
	if scored.Confidence(0) != 1.0 {
		t.Errorf("confidence = %v, want clamped to 1.0", scored.Confidence(0))
	}
}

func TestAnalyzeConfidenceMissingDefaults(t *testing.T) {
	provider := happyProvider()
	provider.replies["sentiment of this news"] = `{"sentiment": "negative"}`
	a := New(provider)

	scored := a.Analyze(context.Background(), article("Some substantial content here."))
	if scored.Confidence(0) != 0.5 {
		t.Errorf("confidence = %v, want 0.5 when the oracle omits it", scored.Confidence(0))
	}
}

func TestAnalyzeAllPreservesOrder(t *testing.T) {
	provider := happyProvider()
	a := New(provider, WithConcurrency(3))

	articles := make([]models.Article, 6)
	for i := range articles {
		articles[i] = article(fmt.Sprintf("Article number %d body text.", i))
		articles[i].Title = fmt.Sprintf("Title %d", i)
	}

	scored := a.AnalyzeAll(context.Background(), articles)
	if len(scored) != len(articles) {
		t.Fatalf("got %d scored, want %d", len(scored), len(articles))
	}
	for i := range scored {
		if scored[i].Title != articles[i].Title {
			t.Errorf("order broken at %d: %q", i, scored[i].Title)
		}
	}
}

func TestOverallAnalysis(t *testing.T) {
	provider := happyProvider()
	a := New(provider)

	scored := []models.ScoredArticle{
		{Article: article("x"), Sentiment: "positive", Summary: "Good news."},
		{Article: article("y"), Sentiment: "negative", Summary: "Bad news."},
	}

	got := a.OverallAnalysis(context.Background(), scored)
	if got != "Overall the topic trends positive." {
		t.Errorf("got %q", got)
	}
}

func TestOverallAnalysisEmpty(t *testing.T) {
	a := New(happyProvider())
	got := a.OverallAnalysis(context.Background(), nil)
	if got != "No articles available for analysis." {
		t.Errorf("got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdef", 4); got != "abcd" {
		t.Errorf("got %q", got)
	}
	if got := truncate("abc", 4); got != "abc" {
		t.Errorf("got %q", got)
	}
}
