package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/newspulse-ai/newspulse/internal/infra"
	"github.com/newspulse-ai/newspulse/pkg/models"
)

// RSSSource fetches one configured RSS feed and extracts full article
// content for entries matching the search terms. Entries are pre-screened
// on title and description before the page fetch; accepted content is
// re-validated with IsRelevant.
type RSSSource struct {
	cfg       FeedConfig
	extractor *Extractor
	parser    *gofeed.Parser
	cache     *infra.Cache
	limiter   *infra.RateLimiter
}

// NewRSSSource creates an RSS-backed source for the given feed.
func NewRSSSource(cfg FeedConfig, extractor *Extractor) *RSSSource {
	parser := gofeed.NewParser()
	parser.UserAgent = extractor.userAgent
	return &RSSSource{
		cfg:       cfg,
		extractor: extractor,
		parser:    parser,
		cache:     infra.NewCache(10 * time.Minute),
		limiter:   infra.NewRateLimiter(2, time.Second),
	}
}

// Name returns the configured feed name.
func (s *RSSSource) Name() string { return s.cfg.Name }

// FetchArticles parses the feed and returns up to maxArticles relevant
// articles. One bad entry is skipped, not fatal; a feed-level fetch
// failure returns an error and no articles.
func (s *RSSSource) FetchArticles(ctx context.Context, searchTerms []string, maxArticles int) ([]models.Article, error) {
	feed, err := s.fetchFeed(ctx)
	if err != nil {
		return nil, err
	}

	items := feed.Items
	if len(items) > s.cfg.EntryCap {
		items = items[:s.cfg.EntryCap]
	}

	var articles []models.Article
	for _, item := range items {
		if maxArticles > 0 && len(articles) >= maxArticles {
			break
		}

		// Title pre-screen saves a page fetch for obvious misses; a
		// description match is the second chance.
		if !matchesAnyTerm(item.Title, searchTerms) && !matchesAnyTerm(item.Description, searchTerms) {
			continue
		}

		article, err := s.extractor.Extract(ctx, item.Link, s.cfg.Name)
		if err != nil {
			continue
		}
		if !IsRelevant(article.Content, searchTerms) {
			continue
		}

		applyFeedMetadata(article, item)
		articles = append(articles, *article)
	}
	return articles, nil
}

// fetchFeed returns the parsed feed document, served from cache within
// its TTL so repeated scrapes do not hammer the upstream host.
func (s *RSSSource) fetchFeed(ctx context.Context) (*gofeed.Feed, error) {
	if cached, ok := s.cache.Get(s.cfg.FeedURL); ok {
		return cached.(*gofeed.Feed), nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := s.parser.ParseURLWithContext(s.cfg.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", s.cfg.Name, err)
	}

	s.cache.Set(s.cfg.FeedURL, feed)
	return feed, nil
}

// applyFeedMetadata supplements an extracted article with feed entry
// metadata: the entry title when the page yielded only the sentinel, and
// the entry publish date when present.
func applyFeedMetadata(article *models.Article, item *gofeed.Item) {
	if article.Title == models.UntitledTitle && item.Title != "" {
		article.Title = item.Title
	}
	if item.Published != "" {
		article.PublishedDate = item.Published
	}
	if article.Author == models.UnknownAuthor && len(item.Authors) > 0 && item.Authors[0].Name != "" {
		article.Author = item.Authors[0].Name
	}
}
