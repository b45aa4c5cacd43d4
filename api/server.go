// Package api provides the HTTP REST API server for NewsPulse.
//
// It exposes endpoints for scraping news sources, scoring articles,
// aggregating statistics, CSV export, and WebSocket streaming of
// analysis progress.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/newspulse-ai/newspulse/internal/analyzer"
	"github.com/newspulse-ai/newspulse/internal/config"
	"github.com/newspulse-ai/newspulse/internal/export"
	"github.com/newspulse-ai/newspulse/internal/llm"
	"github.com/newspulse-ai/newspulse/internal/scraper"
	"github.com/newspulse-ai/newspulse/internal/stats"
	"github.com/newspulse-ai/newspulse/pkg/models"
)

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	scraper  *scraper.Scraper
	analyzer *analyzer.Analyzer
	wsHub    *WSHub
}

// NewServer creates a configured API server with all routes and middleware.
// When no LLM API key is configured the server still starts: scraping,
// statistics and export remain available, and scoring endpoints report
// the missing provider.
func NewServer(cfg *config.Config) (*Server, error) {
	sc := scraper.New(&cfg.Scraper)

	var an *analyzer.Analyzer
	if cfg.LLM.APIKey != "" {
		provider, err := llm.NewOpenAIProvider(cfg.LLM.APIKey,
			llm.WithBaseURL(cfg.LLM.BaseURL),
			llm.WithModel(cfg.LLM.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("LLM setup failed: %w", err)
		}
		an = analyzer.New(provider,
			analyzer.WithModel(cfg.LLM.Model),
			analyzer.WithConcurrency(cfg.LLM.Concurrency),
		)
	} else {
		log.Println("no LLM API key configured; scoring endpoints disabled")
	}

	srv := &Server{
		cfg:      cfg,
		scraper:  sc,
		analyzer: an,
		wsHub:    NewWSHub(),
	}

	srv.router = srv.buildRouter()
	return srv, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start WebSocket hub
	go s.wsHub.Run()

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health (also available at /health)
		r.Get("/health", s.handleHealth)

		// Scraping
		r.Post("/scrape", s.handleScrape)

		// Full pipeline: scrape, score, aggregate
		r.Post("/analyze", s.handleAnalyze)

		// Aggregation over a posted scored-article set
		r.Post("/stats", s.handleStats)

		// CSV download
		r.Post("/export", s.handleExport)

		// Configured sources
		r.Get("/sources", s.handleSources)

		// Configuration keys status
		r.Get("/config/keys", s.handleConfigKeys)

		// WebSocket progress streaming
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// APIResponse is the standard JSON envelope for API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ScrapeRequest is the request body for /scrape and /analyze.
type ScrapeRequest struct {
	SearchTerms []string `json:"search_terms"`
	Sources     []string `json:"sources,omitempty"`
	MaxArticles int      `json:"max_articles,omitempty"`
	StartDate   string   `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate     string   `json:"end_date,omitempty"`   // YYYY-MM-DD
}

// StatsRequest is the request body for /stats.
type StatsRequest struct {
	Articles      []models.ScoredArticle `json:"articles"`
	Sentiment     string                 `json:"sentiment,omitempty"`
	Source        string                 `json:"source,omitempty"`
	MinConfidence *float64               `json:"min_confidence,omitempty"`
	TopInsights   int                    `json:"top_insights,omitempty"`
}

// ExportRequest is the request body for /export.
type ExportRequest struct {
	Articles []models.ScoredArticle `json:"articles"`
	Filename string                 `json:"filename,omitempty"`
}

// AnalysisResult is the response payload for /analyze.
type AnalysisResult struct {
	Articles       []models.ScoredArticle  `json:"articles"`
	Summary        models.SentimentSummary `json:"summary"`
	Impact         models.ImpactReport     `json:"impact"`
	TopInsights    []string                `json:"top_insights"`
	Overall        string                  `json:"overall_analysis"`
	SkippedSources []string                `json:"skipped_sources,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":      "ok",
			"llm_enabled": s.analyzer != nil,
			"ws_clients":  s.wsHub.ClientCount(),
			"time":        time.Now().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeScrapeRequest(w, r)
	if !ok {
		return
	}

	result, err := s.scraper.Scrape(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: result})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, "LLM provider not configured")
		return
	}

	req, ok := decodeScrapeRequest(w, r)
	if !ok {
		return
	}

	s.wsHub.Broadcast(WSMessage{Type: "analysis_started", Data: map[string]interface{}{
		"search_terms": req.SearchTerms,
	}})

	result, err := s.scraper.Scrape(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.wsHub.Broadcast(WSMessage{Type: "scrape_complete", Data: map[string]interface{}{
		"article_count":   len(result.Articles),
		"skipped_sources": result.SkippedSources,
	}})

	scored := s.analyzer.AnalyzeAll(r.Context(), result.Articles)

	s.wsHub.Broadcast(WSMessage{Type: "scoring_complete", Data: map[string]interface{}{
		"article_count": len(scored),
	}})

	overall := s.analyzer.OverallAnalysis(r.Context(), scored)

	payload := AnalysisResult{
		Articles:       scored,
		Summary:        stats.SentimentSummary(scored),
		Impact:         stats.MarketImpactScore(scored),
		TopInsights:    stats.TopInsights(scored, 5),
		Overall:        overall,
		SkippedSources: result.SkippedSources,
	}

	s.wsHub.Broadcast(WSMessage{Type: "analysis_complete", Data: map[string]interface{}{
		"article_count": len(scored),
		"impact_level":  payload.Impact.Level,
	}})

	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: payload})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var req StatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	articles := stats.FilterArticles(req.Articles, stats.FilterOptions{
		Sentiment:     req.Sentiment,
		Source:        req.Source,
		MinConfidence: req.MinConfidence,
	})

	topN := req.TopInsights
	if topN <= 0 {
		topN = 5
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"records":      stats.Tabulate(articles),
			"summary":      stats.SentimentSummary(articles),
			"impact":       stats.MarketImpactScore(articles),
			"top_insights": stats.TopInsights(articles, topN),
		},
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	csvData, err := export.ToCSV(req.Articles)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filename := req.Filename
	if filename == "" {
		filename = "newspulse_" + time.Now().Format("20060102_150405") + ".csv"
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(csvData)); err != nil {
		log.Printf("failed to write CSV response: %v", err)
	}
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"sources":    s.scraper.Registry().Names(),
			"aggregator": scraper.SearchFeedName,
		},
	})
}

func (s *Server) handleConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckAPIKeys(s.cfg),
	})
}

// decodeScrapeRequest parses and validates the common scrape/analyze
// request body. On failure it writes the error response and returns
// ok=false.
func decodeScrapeRequest(w http.ResponseWriter, r *http.Request) (scraper.Request, bool) {
	var body ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return scraper.Request{}, false
	}
	if len(body.SearchTerms) == 0 {
		writeError(w, http.StatusBadRequest, "search_terms is required")
		return scraper.Request{}, false
	}

	req := scraper.Request{
		SearchTerms: body.SearchTerms,
		Sources:     body.Sources,
		MaxArticles: body.MaxArticles,
	}
	if body.StartDate != "" {
		t, err := time.Parse("2006-01-02", body.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid start_date, expected YYYY-MM-DD")
			return scraper.Request{}, false
		}
		req.StartDate = t
	}
	if body.EndDate != "" {
		t, err := time.Parse("2006-01-02", body.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid end_date, expected YYYY-MM-DD")
			return scraper.Request{}, false
		}
		req.EndDate = t
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
