// Package scraper implements multi-source news acquisition: feed fetching,
// article content extraction, topical relevance filtering, and title-based
// deduplication. It defines a common Source interface with concrete variants
// for RSS-backed feeds and a search-aggregator feed.
package scraper

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/newspulse-ai/newspulse/pkg/models"
)

// Source is the capability contract shared by all feed variants. A source
// turns search terms into a bounded list of articles with content already
// extracted and validated.
type Source interface {
	// Name returns the human-readable name of this source.
	Name() string

	// FetchArticles returns up to maxArticles articles matching the search
	// terms. Entry-level failures are skipped; a source-level failure
	// returns an error alongside whatever was collected so far.
	FetchArticles(ctx context.Context, searchTerms []string, maxArticles int) ([]models.Article, error)
}

// --- Sentinel errors ---

// ErrInvalidURL is returned when a URL is not a well-formed http(s) URL.
var ErrInvalidURL = fmt.Errorf("invalid article URL")

// ErrNoContent is returned when a page yields no usable article text.
var ErrNoContent = fmt.Errorf("insufficient article content")

// ErrNotRelevant is returned when extracted content fails the relevance check.
var ErrNotRelevant = fmt.Errorf("article not relevant to search terms")

// --- Feed configuration ---

// FeedConfig describes one configured RSS feed. EntryCap bounds how many
// feed entries are considered per fetch; topical feeds carry a higher cap
// because they yield denser matches for specialized queries.
type FeedConfig struct {
	Name     string
	FeedURL  string
	EntryCap int
}

// Entry caps per feed class.
const (
	generalEntryCap = 10
	topicalEntryCap = 15
)

// DefaultFeeds lists the built-in general and technology news feeds.
func DefaultFeeds() []FeedConfig {
	return []FeedConfig{
		// General news.
		{Name: "BBC News", FeedURL: "http://feeds.bbci.co.uk/news/rss.xml", EntryCap: generalEntryCap},
		{Name: "Reuters", FeedURL: "https://feeds.reuters.com/reuters/topNews", EntryCap: generalEntryCap},
		{Name: "CNN", FeedURL: "http://rss.cnn.com/rss/edition.rss", EntryCap: generalEntryCap},
		{Name: "AP News", FeedURL: "https://feeds.apnews.com/apnews/topnews", EntryCap: generalEntryCap},
		{Name: "Yahoo News", FeedURL: "https://www.yahoo.com/news/rss", EntryCap: generalEntryCap},
		{Name: "Google News", FeedURL: "https://news.google.com/rss?hl=en-US&gl=US&ceid=US:en", EntryCap: generalEntryCap},

		// Technology-focused feeds.
		{Name: "TechCrunch", FeedURL: "https://techcrunch.com/feed/", EntryCap: topicalEntryCap},
		{Name: "The Verge", FeedURL: "https://www.theverge.com/rss/index.xml", EntryCap: topicalEntryCap},
		{Name: "Ars Technica", FeedURL: "http://feeds.arstechnica.com/arstechnica/index", EntryCap: topicalEntryCap},
		{Name: "Wired", FeedURL: "https://www.wired.com/feed/rss", EntryCap: topicalEntryCap},
		{Name: "Engadget", FeedURL: "https://www.engadget.com/rss.xml", EntryCap: topicalEntryCap},
	}
}

// --- Source registry ---

// Registry maps source names to Source implementations. The orchestrator
// resolves user-supplied source names through a registry instead of
// branching on name strings.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

// NewRegistry creates an empty source registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register adds a source under its own name, replacing any previous entry.
func (r *Registry) Register(src Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[src.Name()] = src
}

// Lookup returns the source registered under name.
func (r *Registry) Lookup(name string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src, ok := r.sources[name]
	return src, ok
}

// Names returns the registered source names in lexicographic order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sources)
}
