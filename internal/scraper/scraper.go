package scraper

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/newspulse-ai/newspulse/internal/config"
	"github.com/newspulse-ai/newspulse/internal/infra"
	"github.com/newspulse-ai/newspulse/pkg/models"
)

// Request describes one scrape invocation.
type Request struct {
	SearchTerms []string
	Sources     []string
	// StartDate and EndDate bound the nominal date range. They are
	// accepted and carried in the result but not enforced as a filter:
	// publish dates are best-effort strings and many pages carry the
	// extraction timestamp instead of a real date. See Result.DateFiltered.
	StartDate time.Time
	EndDate   time.Time
	// MaxArticles caps the result after deduplication. Zero means the
	// configured default.
	MaxArticles int
}

// Result is the outcome of one scrape invocation. The article slice is
// owned by the caller; invocations never share state.
type Result struct {
	Articles []models.Article `json:"articles"`
	// SkippedSources lists requested source names that matched no
	// configured source. Unknown names do not fail the scrape, but the
	// gap is surfaced here instead of being silently dropped.
	SkippedSources []string `json:"skipped_sources,omitempty"`
	// DateFiltered is always false: the date range is advisory only.
	DateFiltered bool `json:"date_filtered"`
}

// Scraper orchestrates a scrape across the search aggregator and the
// requested RSS sources. Sources are queried sequentially with a
// politeness pause between them, and querying stops early once the
// article budget is reached.
type Scraper struct {
	registry    *Registry
	aggregator  Source
	sourceDelay time.Duration
	maxArticles int
}

// New builds a scraper from configuration: one RSS source per default
// feed, plus the search-aggregator source, all sharing one extractor.
func New(cfg *config.ScraperConfig) *Scraper {
	opts := []ExtractorOption{
		WithComments(cfg.IncludeComments),
	}
	if cfg.UserAgent != "" {
		opts = append(opts, WithUserAgent(cfg.UserAgent))
	}
	if cfg.RequestTimeout > 0 {
		opts = append(opts, WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		}))
	}
	extractor := NewExtractor(opts...)

	registry := NewRegistry()
	feedCacheTTL := time.Duration(cfg.FeedCacheTTL) * time.Second
	for _, feed := range DefaultFeeds() {
		src := NewRSSSource(feed, extractor)
		if feedCacheTTL > 0 {
			src.cache = infra.NewCache(feedCacheTTL)
		}
		registry.Register(src)
	}

	return &Scraper{
		registry:    registry,
		aggregator:  NewSearchFeedSource(extractor),
		sourceDelay: time.Duration(cfg.SourceDelay) * time.Second,
		maxArticles: cfg.MaxArticles,
	}
}

// NewWithSources builds a scraper over explicit sources, used by tests
// and embedders that bring their own registry.
func NewWithSources(registry *Registry, aggregator Source, sourceDelay time.Duration, maxArticles int) *Scraper {
	return &Scraper{
		registry:    registry,
		aggregator:  aggregator,
		sourceDelay: sourceDelay,
		maxArticles: maxArticles,
	}
}

// Registry exposes the configured source registry.
func (s *Scraper) Registry() *Registry { return s.registry }

// Scrape runs the full acquisition pipeline: aggregator first, then each
// requested source in order, then dedup and the final cap. Source-level
// failures yield an empty contribution from that source, never an error;
// the only user-visible failure mode is fewer results than expected.
func (s *Scraper) Scrape(ctx context.Context, req Request) (*Result, error) {
	maxArticles := req.MaxArticles
	if maxArticles <= 0 {
		maxArticles = s.maxArticles
	}

	var articles []models.Article

	// The aggregator is an implicit always-on source and gets half the
	// budget, since its entries are already query-matched.
	if s.aggregator != nil {
		found, err := s.aggregator.FetchArticles(ctx, req.SearchTerms, maxArticles/2)
		if err != nil {
			log.Printf("scrape: aggregator %s failed: %v", s.aggregator.Name(), err)
		}
		articles = append(articles, found...)
	}

	result := &Result{}
	for _, name := range req.Sources {
		if len(articles) >= maxArticles {
			break
		}

		src, ok := s.registry.Lookup(name)
		if !ok {
			log.Printf("scrape: unknown source %q skipped", name)
			result.SkippedSources = append(result.SkippedSources, name)
			continue
		}

		found, err := src.FetchArticles(ctx, req.SearchTerms, maxArticles-len(articles))
		if err != nil {
			log.Printf("scrape: source %s failed: %v", name, err)
		}
		articles = append(articles, found...)

		if err := s.pause(ctx); err != nil {
			return nil, err
		}
	}

	articles = Dedupe(articles)
	if len(articles) > maxArticles {
		articles = articles[:maxArticles]
	}

	result.Articles = articles
	return result, nil
}

// pause sleeps for the configured delay between source queries, honoring
// context cancellation.
func (s *Scraper) pause(ctx context.Context) error {
	if s.sourceDelay <= 0 {
		return nil
	}
	select {
	case <-time.After(s.sourceDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
