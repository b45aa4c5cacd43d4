// NewsPulse — AI-powered news scraping and sentiment analysis.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/newspulse-ai/newspulse/api"
	"github.com/newspulse-ai/newspulse/internal/analyzer"
	"github.com/newspulse-ai/newspulse/internal/config"
	"github.com/newspulse-ai/newspulse/internal/export"
	"github.com/newspulse-ai/newspulse/internal/llm"
	"github.com/newspulse-ai/newspulse/internal/scraper"
	"github.com/newspulse-ai/newspulse/internal/stats"
	"github.com/newspulse-ai/newspulse/pkg/models"
	"github.com/newspulse-ai/newspulse/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "newspulse",
	Short: "NewsPulse — AI-powered news scraping and sentiment analysis",
	Long: `NewsPulse collects news articles from RSS feeds and the Google News
search aggregator, scores them with an LLM for sentiment, key insights,
and market impact, and aggregates the results into topic-level statistics.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(scrapeCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("NewsPulse %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Scrape Command ---

var scrapeCmd = &cobra.Command{
	Use:   "scrape [search terms...]",
	Short: "Scrape news articles matching the search terms",
	Long: `Scrape news articles from the search aggregator and the requested
RSS sources, deduplicate near-identical stories, and print the results.

Examples:
  newspulse scrape "interest rates" inflation
  newspulse scrape AI --sources "TechCrunch,The Verge" --max 10
  newspulse scrape earnings --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := buildScrapeRequest(cmd, args)
		if err != nil {
			return err
		}
		jsonOut, _ := cmd.Flags().GetBool("json")

		sc := scraper.New(&cfg.Scraper)
		fmt.Printf("🔍 Scraping news for: %s\n", strings.Join(args, ", "))

		result, err := sc.Scrape(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("scrape failed: %w", err)
		}

		if jsonOut {
			return printJSON(result)
		}

		printScrapeResult(result)
		return nil
	},
}

func init() {
	scrapeCmd.Flags().StringSlice("sources", nil, "RSS sources to query (default: aggregator only)")
	scrapeCmd.Flags().Int("max", 0, "maximum articles (default from config)")
	scrapeCmd.Flags().String("start-date", "", "nominal range start (YYYY-MM-DD)")
	scrapeCmd.Flags().String("end-date", "", "nominal range end (YYYY-MM-DD)")
	scrapeCmd.Flags().Bool("json", false, "print raw JSON instead of a table")
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [search terms...]",
	Short: "Scrape, score, and aggregate news for a topic",
	Long: `Run the full pipeline: scrape matching articles, score each one with
the LLM (sentiment, confidence, insights, market impact), and print the
aggregated topic statistics.

Examples:
  newspulse analyze "federal reserve"
  newspulse analyze AI --sources TechCrunch --max 10 --csv out.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("no LLM API key configured; set NEWSPULSE_LLM_API_KEY or OPENAI_API_KEY")
		}

		req, err := buildScrapeRequest(cmd, args)
		if err != nil {
			return err
		}
		jsonOut, _ := cmd.Flags().GetBool("json")
		csvPath, _ := cmd.Flags().GetString("csv")
		topN, _ := cmd.Flags().GetInt("insights")

		provider, err := llm.NewOpenAIProvider(cfg.LLM.APIKey,
			llm.WithBaseURL(cfg.LLM.BaseURL),
			llm.WithModel(cfg.LLM.Model),
		)
		if err != nil {
			return fmt.Errorf("LLM setup failed: %w", err)
		}
		an := analyzer.New(provider,
			analyzer.WithModel(cfg.LLM.Model),
			analyzer.WithConcurrency(cfg.LLM.Concurrency),
		)

		sc := scraper.New(&cfg.Scraper)
		fmt.Printf("🔍 Scraping news for: %s\n", strings.Join(args, ", "))

		result, err := sc.Scrape(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("scrape failed: %w", err)
		}
		fmt.Printf("📄 Found %d articles, scoring with %s...\n", len(result.Articles), cfg.LLM.Model)

		scored := an.AnalyzeAll(cmd.Context(), result.Articles)
		summary := stats.SentimentSummary(scored)
		impact := stats.MarketImpactScore(scored)
		insights := stats.TopInsights(scored, topN)
		overall := an.OverallAnalysis(cmd.Context(), scored)

		if csvPath != "" {
			data, err := export.ToCSV(scored)
			if err != nil {
				return fmt.Errorf("CSV export failed: %w", err)
			}
			if err := os.WriteFile(csvPath, []byte(data), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", csvPath, err)
			}
			fmt.Printf("💾 Exported %d articles to %s\n", len(scored), csvPath)
		}

		if jsonOut {
			return printJSON(api.AnalysisResult{
				Articles:       scored,
				Summary:        summary,
				Impact:         impact,
				TopInsights:    insights,
				Overall:        overall,
				SkippedSources: result.SkippedSources,
			})
		}

		printAnalysis(scored, summary, impact, insights, overall, result.SkippedSources)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringSlice("sources", nil, "RSS sources to query (default: aggregator only)")
	analyzeCmd.Flags().Int("max", 0, "maximum articles (default from config)")
	analyzeCmd.Flags().String("start-date", "", "nominal range start (YYYY-MM-DD)")
	analyzeCmd.Flags().String("end-date", "", "nominal range end (YYYY-MM-DD)")
	analyzeCmd.Flags().Bool("json", false, "print raw JSON instead of a report")
	analyzeCmd.Flags().String("csv", "", "also export scored articles to this CSV file")
	analyzeCmd.Flags().Int("insights", 5, "number of top insights to show")
}

// --- Sources Command ---

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the configured news sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		sc := scraper.New(&cfg.Scraper)
		fmt.Println("📰 Configured sources:")
		for _, name := range sc.Registry().Names() {
			fmt.Printf("    %s\n", name)
		}
		fmt.Printf("\n🔎 Aggregator (always queried): %s\n", scraper.SearchFeedName)
		return nil
	},
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		if port == 0 {
			port = cfg.API.Port
		}
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, port)

		srv, err := api.NewServer(cfg)
		if err != nil {
			return fmt.Errorf("server setup failed: %w", err)
		}

		fmt.Printf("🌐 Starting NewsPulse API server on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "port override (default from config)")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  NewsPulse — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:     %s (%s)\n", version, commit)
		fmt.Printf("  Time:        %s\n", time.Now().Format("2006-01-02 15:04:05 MST"))
		fmt.Println()

		// Config summary
		fmt.Println("  Configuration:")
		fmt.Printf("    LLM Model:     %s\n", cfg.LLM.Model)
		fmt.Printf("    Max Articles:  %d\n", cfg.Scraper.MaxArticles)
		fmt.Printf("    Source Delay:  %ds\n", cfg.Scraper.SourceDelay)
		fmt.Printf("    API Server:    %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Println()

		// API keys status
		fmt.Println("  API Keys:")
		keys := config.CheckAPIKeys(cfg)
		for _, k := range keys {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// --- Helpers ---

// buildScrapeRequest assembles a scrape request from the shared
// scrape/analyze flags.
func buildScrapeRequest(cmd *cobra.Command, args []string) (scraper.Request, error) {
	sources, _ := cmd.Flags().GetStringSlice("sources")
	maxArticles, _ := cmd.Flags().GetInt("max")

	req := scraper.Request{
		SearchTerms: args,
		Sources:     sources,
		MaxArticles: maxArticles,
	}

	if start, _ := cmd.Flags().GetString("start-date"); start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			return req, fmt.Errorf("invalid --start-date %q, expected YYYY-MM-DD", start)
		}
		req.StartDate = t
	}
	if end, _ := cmd.Flags().GetString("end-date"); end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			return req, fmt.Errorf("invalid --end-date %q, expected YYYY-MM-DD", end)
		}
		req.EndDate = t
	}
	return req, nil
}

func printScrapeResult(result *scraper.Result) {
	fmt.Printf("\n📄 %d articles:\n\n", len(result.Articles))
	for i, a := range result.Articles {
		fmt.Printf("  %2d. %s\n", i+1, utils.Truncate(a.Title, 80))
		fmt.Printf("      %s | %s | ~%d min read\n", a.Source, utils.NormalizeDate(a.PublishedDate), utils.ReadingTime(a.Content, 200))
		fmt.Printf("      %s\n", a.URL)
	}
	printSkipped(result.SkippedSources)
}

func printAnalysis(scored []models.ScoredArticle, summary models.SentimentSummary, impact models.ImpactReport, insights []string, overall string, skipped []string) {
	fmt.Printf("\n📊 Sentiment Summary (%d articles)\n", summary.TotalArticles)
	for _, sentiment := range []string{models.SentimentPositive, models.SentimentNegative, models.SentimentNeutral} {
		fmt.Printf("    %-10s %d\n", sentiment+":", summary.SentimentDistribution[sentiment])
	}
	fmt.Printf("    Average confidence: %s\n", utils.FormatConfidence(summary.AverageConfidence))
	fmt.Printf("    Overall score:      %+.2f\n", summary.OverallSentimentScore)

	fmt.Printf("\n💥 Market Impact: %s (%.2f)\n", impact.Level, impact.Score)
	for _, f := range impact.Factors {
		fmt.Printf("    [%s] %s (%s)\n", f.Impact, utils.Truncate(f.Title, 70), utils.FormatConfidence(f.Confidence))
	}

	if len(insights) > 0 {
		fmt.Println("\n💡 Top Insights:")
		for i, insight := range insights {
			fmt.Printf("    %d. %s\n", i+1, insight)
		}
	}

	fmt.Println("\n📝 Overall Analysis:")
	fmt.Println(indent(overall, "    "))

	fmt.Println("\n📄 Articles:")
	for i, a := range scored {
		fmt.Printf("  %2d. %s\n", i+1, utils.Truncate(a.Title, 80))
		fmt.Printf("      %s | %s | %s (%s) | impact: %s\n",
			a.Source, utils.NormalizeDate(a.PublishedDate),
			a.Sentiment, utils.FormatConfidence(a.Confidence(0)), a.MarketImpact)
	}
	printSkipped(skipped)
}

func printSkipped(skipped []string) {
	if len(skipped) == 0 {
		return
	}
	fmt.Printf("\n⚠️  Unknown sources skipped: %s\n", strings.Join(skipped, ", "))
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
