package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/newspulse-ai/newspulse/internal/analyzer"
	"github.com/newspulse-ai/newspulse/internal/config"
	"github.com/newspulse-ai/newspulse/internal/llm"
	"github.com/newspulse-ai/newspulse/internal/scraper"
	"github.com/newspulse-ai/newspulse/pkg/models"
)

func testConfig() *config.Config {
	return &config.Config{
		Scraper: config.ScraperConfig{
			MaxArticles:    20,
			RequestTimeout: 15,
			SourceDelay:    0,
			UserAgent:      "test-agent",
		},
		LLM: config.LLMConfig{
			Model:       "gpt-4o",
			Concurrency: 2,
		},
		API: config.APIConfig{
			Host:        "127.0.0.1",
			Port:        0,
			CORSOrigins: []string{"*"},
		},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	srv, err := NewServer(testConfig())
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return srv
}

// stubSource serves canned articles without touching the network.
type stubSource struct {
	name     string
	articles []models.Article
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchArticles(ctx context.Context, searchTerms []string, maxArticles int) ([]models.Article, error) {
	if maxArticles > len(s.articles) {
		maxArticles = len(s.articles)
	}
	return s.articles[:maxArticles], nil
}

func stubArticles(source string, n int) []models.Article {
	articles := make([]models.Article, n)
	for i := range articles {
		articles[i] = models.Article{
			Title:         fmt.Sprintf("Report %d from %s covering topic %s%d", i, source, source, i),
			Content:       strings.Repeat("Detailed coverage of the announcement. ", 5),
			Source:        source,
			URL:           fmt.Sprintf("https://example.com/%s/%d", source, i),
			PublishedDate: "2025-03-10",
			Author:        "Staff Writer",
		}
	}
	return articles
}

// installStubScraper swaps the server's scraper for one backed by stub
// sources only.
func installStubScraper(srv *Server, sources ...*stubSource) {
	registry := scraper.NewRegistry()
	var aggregator scraper.Source
	for i, src := range sources {
		if i == 0 {
			aggregator = src
			continue
		}
		registry.Register(src)
	}
	srv.scraper = scraper.NewWithSources(registry, aggregator, 0, 20)
}

// scriptedProvider answers analyzer prompts by matching substrings.
type scriptedProvider struct{}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Ping(ctx context.Context) error { return nil }

func (p *scriptedProvider) Chat(ctx context.Context, messages []llm.Message, opts *llm.ChatOptions) (*llm.Response, error) {
	prompt := messages[len(messages)-1].Content
	switch {
	case strings.Contains(prompt, "concise summary"):
		return &llm.Response{Content: "A short summary of the report."}, nil
	case strings.Contains(prompt, "sentiment of this news"):
		return &llm.Response{Content: `{"sentiment": "positive", "confidence": 0.8, "reasoning": "upbeat"}`}, nil
	case strings.Contains(prompt, "key insights from this article"):
		return &llm.Response{Content: `{"insights": ["Revenue grew", "Margins expanded"]}`}, nil
	case strings.Contains(prompt, "potential impact"):
		return &llm.Response{Content: `{"impact": "medium", "explanation": "sector-wide"}`}, nil
	case strings.Contains(prompt, "overall topic assessment"):
		return &llm.Response{Content: "The topic trends positive overall."}, nil
	}
	return nil, fmt.Errorf("unexpected prompt: %s", prompt[:40])
}

func postJSON(t *testing.T, handler http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rec.Code, http.StatusOK)
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatal("expected success response")
	}
	data := resp.Data.(map[string]interface{})
	if data["status"] != "ok" {
		t.Errorf("got status %v, want ok", data["status"])
	}
	if data["llm_enabled"] != false {
		t.Error("expected llm_enabled false without an API key")
	}
}

func TestScrapeRequiresSearchTerms(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.Router(), "/api/v1/scrape", map[string]interface{}{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d", rec.Code, http.StatusBadRequest)
	}
	resp := decodeResponse(t, rec)
	if resp.Success {
		t.Fatal("expected failure response")
	}
	if !strings.Contains(resp.Error, "search_terms") {
		t.Errorf("error %q should mention search_terms", resp.Error)
	}
}

func TestScrapeRejectsBadDate(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.Router(), "/api/v1/scrape", map[string]interface{}{
		"search_terms": []string{"markets"},
		"start_date":   "10/03/2025",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got status %d, want %d", rec.Code, http.StatusBadRequest)
	}
	resp := decodeResponse(t, rec)
	if !strings.Contains(resp.Error, "start_date") {
		t.Errorf("error %q should mention start_date", resp.Error)
	}
}

func TestScrape(t *testing.T) {
	srv := newTestServer(t)
	installStubScraper(srv,
		&stubSource{name: "Search", articles: stubArticles("Search", 3)},
		&stubSource{name: "Alpha Wire", articles: stubArticles("Alpha", 3)},
	)

	rec := postJSON(t, srv.Router(), "/api/v1/scrape", map[string]interface{}{
		"search_terms": []string{"markets"},
		"sources":      []string{"Alpha Wire", "No Such Source"},
		"max_articles": 10,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatal("expected success response")
	}

	data := resp.Data.(map[string]interface{})
	articles := data["articles"].([]interface{})
	if len(articles) != 6 {
		t.Errorf("got %d articles, want 6", len(articles))
	}
	skipped := data["skipped_sources"].([]interface{})
	if len(skipped) != 1 || skipped[0] != "No Such Source" {
		t.Errorf("got skipped sources %v, want [No Such Source]", skipped)
	}
	if data["date_filtered"] != false {
		t.Error("date_filtered should be false")
	}
}

func TestAnalyzeWithoutProvider(t *testing.T) {
	srv := newTestServer(t)

	rec := postJSON(t, srv.Router(), "/api/v1/analyze", map[string]interface{}{
		"search_terms": []string{"markets"},
	})
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("got status %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
	resp := decodeResponse(t, rec)
	if !strings.Contains(resp.Error, "LLM provider") {
		t.Errorf("error %q should mention the LLM provider", resp.Error)
	}
}

func TestAnalyze(t *testing.T) {
	srv := newTestServer(t)
	installStubScraper(srv,
		&stubSource{name: "Search", articles: stubArticles("Search", 2)},
	)
	srv.analyzer = analyzer.New(&scriptedProvider{}, analyzer.WithConcurrency(2))

	rec := postJSON(t, srv.Router(), "/api/v1/analyze", map[string]interface{}{
		"search_terms": []string{"markets"},
		"max_articles": 4,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatal("expected success response")
	}

	var result AnalysisResult
	raw, _ := json.Marshal(resp.Data)
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode analysis result: %v", err)
	}

	if len(result.Articles) != 2 {
		t.Fatalf("got %d scored articles, want 2", len(result.Articles))
	}
	first := result.Articles[0]
	if first.Sentiment != models.SentimentPositive {
		t.Errorf("got sentiment %q, want positive", first.Sentiment)
	}
	if first.Confidence(0) != 0.8 {
		t.Errorf("got confidence %v, want 0.8", first.Confidence(0))
	}
	if first.MarketImpact != models.ImpactMedium {
		t.Errorf("got impact %q, want medium", first.MarketImpact)
	}
	if result.Summary.TotalArticles != 2 {
		t.Errorf("got total %d, want 2", result.Summary.TotalArticles)
	}
	if result.Impact.Level != models.ImpactMedium {
		t.Errorf("got impact level %q, want medium", result.Impact.Level)
	}
	if result.Overall != "The topic trends positive overall." {
		t.Errorf("unexpected overall analysis %q", result.Overall)
	}
	if len(result.TopInsights) == 0 {
		t.Error("expected top insights")
	}
}

func TestStats(t *testing.T) {
	srv := newTestServer(t)

	articles := []models.ScoredArticle{
		{
			Article:         models.Article{Title: "One", Source: "Alpha Wire", PublishedDate: "2025-03-10"},
			Sentiment:       models.SentimentPositive,
			ConfidenceScore: models.Float64(0.9),
			MarketImpact:    models.ImpactHigh,
			KeyInsights:     []string{"Rates held steady"},
		},
		{
			Article:         models.Article{Title: "Two", Source: "Beta Post", PublishedDate: "2025-03-11"},
			Sentiment:       models.SentimentNegative,
			ConfidenceScore: models.Float64(0.5),
			MarketImpact:    models.ImpactLow,
			KeyInsights:     []string{"Rates held steady"},
		},
	}

	rec := postJSON(t, srv.Router(), "/api/v1/stats", StatsRequest{Articles: articles})
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d (body %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})

	summary := data["summary"].(map[string]interface{})
	if summary["total_articles"].(float64) != 2 {
		t.Errorf("got total %v, want 2", summary["total_articles"])
	}
	impact := data["impact"].(map[string]interface{})
	if impact["level"] == "" {
		t.Error("expected an impact level")
	}
	insights := data["top_insights"].([]interface{})
	if len(insights) != 1 {
		t.Fatalf("got %d insights, want 1 after merge", len(insights))
	}
	records := data["records"].([]interface{})
	if len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}
}

func TestStatsFilter(t *testing.T) {
	srv := newTestServer(t)

	articles := []models.ScoredArticle{
		{Article: models.Article{Title: "One", Source: "Alpha Wire"}, Sentiment: models.SentimentPositive},
		{Article: models.Article{Title: "Two", Source: "Beta Post"}, Sentiment: models.SentimentNegative},
	}

	rec := postJSON(t, srv.Router(), "/api/v1/stats", StatsRequest{
		Articles:  articles,
		Sentiment: "positive",
	})
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})
	summary := data["summary"].(map[string]interface{})
	if summary["total_articles"].(float64) != 1 {
		t.Errorf("got total %v after filter, want 1", summary["total_articles"])
	}
}

func TestExport(t *testing.T) {
	srv := newTestServer(t)

	articles := []models.ScoredArticle{
		{
			Article: models.Article{
				Title:         "Markets rally",
				Content:       "Body text",
				Source:        "Alpha Wire",
				URL:           "https://example.com/1",
				PublishedDate: "2025-03-10",
				Author:        "Jo Reporter",
			},
			Sentiment:       models.SentimentPositive,
			ConfidenceScore: models.Float64(0.75),
			Summary:         "Stocks rose.",
			MarketImpact:    models.ImpactMedium,
		},
	}

	rec := postJSON(t, srv.Router(), "/api/v1/export", ExportRequest{
		Articles: articles,
		Filename: "run.csv",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("got content type %q, want text/csv", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "run.csv") {
		t.Errorf("content disposition %q should name run.csv", cd)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Title,Source,Published Date") {
		t.Errorf("CSV missing header: %q", body)
	}
	if !strings.Contains(body, "Markets rally") {
		t.Errorf("CSV missing article row: %q", body)
	}
}

func TestSources(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sources", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got status %d, want %d", rec.Code, http.StatusOK)
	}
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]interface{})

	if data["aggregator"] != scraper.SearchFeedName {
		t.Errorf("got aggregator %v, want %q", data["aggregator"], scraper.SearchFeedName)
	}
	names := data["sources"].([]interface{})
	found := false
	for _, n := range names {
		if n == "BBC News" {
			found = true
		}
	}
	if !found {
		t.Errorf("sources %v should include BBC News", names)
	}
}

func TestWebSocketBroadcast(t *testing.T) {
	srv := newTestServer(t)
	go srv.wsHub.Run()

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial failed: %v", err)
	}
	defer conn.Close()

	// Ping round trip
	if err := conn.WriteJSON(WSMessage{Type: "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	var msg WSMessage
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read pong: %v", err)
	}
	if msg.Type != "pong" {
		t.Fatalf("got message type %q, want pong", msg.Type)
	}

	// Hub broadcast reaches the client
	waitForClients(t, srv.wsHub, 1)
	srv.wsHub.Broadcast(WSMessage{Type: "scrape_complete", Data: map[string]interface{}{"article_count": 3}})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if msg.Type != "scrape_complete" {
		t.Fatalf("got message type %q, want scrape_complete", msg.Type)
	}
}

func waitForClients(t *testing.T, hub *WSHub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("hub never reached %d clients", want)
}
