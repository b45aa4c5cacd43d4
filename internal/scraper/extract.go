package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/newspulse-ai/newspulse/pkg/models"
)

// minContentLength is the sole content-quality gate: pages yielding fewer
// characters of body text are rejected outright.
const minContentLength = 100

// Title-from-body heuristic bounds.
const (
	minTitleLen = 10
	maxTitleLen = 150
)

// boilerplateSelectors are stripped from the document before text extraction.
var boilerplateSelectors = []string{
	"script", "style", "noscript", "iframe", "form",
	"nav", "header", "footer", "aside",
	".advertisement", ".ad", ".sidebar", ".related-articles",
	".social-share", ".newsletter-signup",
}

// commentSelectors are stripped unless comment extraction is enabled.
var commentSelectors = []string{
	"#comments", ".comments", ".comment-section", "#disqus_thread",
}

// contentSelectors are tried in order to locate the main article body.
// The document body is the last resort.
var contentSelectors = []string{
	"article",
	"main",
	"[role=main]",
	".article-body",
	".story-body",
	".post-content",
	".entry-content",
	"#content",
}

// Extractor downloads web pages and extracts clean article text plus
// title, author, and publish-date metadata. Extraction is best-effort:
// every failure mode returns an error to the caller, never a partial
// Article.
type Extractor struct {
	client          *http.Client
	userAgent       string
	includeComments bool
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ExtractorOption {
	return func(e *Extractor) { e.client = c }
}

// WithUserAgent sets the User-Agent header for page fetches.
func WithUserAgent(ua string) ExtractorOption {
	return func(e *Extractor) { e.userAgent = ua }
}

// WithComments includes comment sections in the extracted text.
func WithComments(include bool) ExtractorOption {
	return func(e *Extractor) { e.includeComments = include }
}

// NewExtractor creates an extractor with a 15 second request timeout and
// a browser-like user agent.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		client:    &http.Client{Timeout: 15 * time.Second},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DefaultUserAgent is sent on all page and feed fetches.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Extract fetches rawURL once and returns the article found there,
// attributed to source. It performs exactly one network fetch; any
// failure (bad URL, network error, non-200 status, body text under the
// quality gate) is terminal for that URL.
func (e *Extractor) Extract(ctx context.Context, rawURL, source string) (*models.Article, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html, application/xhtml+xml, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", rawURL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}

	text := e.extractText(doc)
	if len(text) < minContentLength {
		return nil, fmt.Errorf("%w: %d chars from %s", ErrNoContent, len(text), rawURL)
	}

	return &models.Article{
		Title:         e.extractTitle(doc, text),
		Content:       text,
		Source:        source,
		URL:           rawURL,
		PublishedDate: e.extractDate(doc),
		Author:        e.extractAuthor(doc),
	}, nil
}

// validateURL accepts only well-formed absolute http(s) URLs.
func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return nil
}

// extractText locates the main article container and returns its paragraph
// and table text, boilerplate removed.
func (e *Extractor) extractText(doc *goquery.Document) string {
	for _, sel := range boilerplateSelectors {
		doc.Find(sel).Remove()
	}
	if !e.includeComments {
		for _, sel := range commentSelectors {
			doc.Find(sel).Remove()
		}
	}

	container := doc.Selection
	for _, sel := range contentSelectors {
		if found := doc.Find(sel); found.Length() > 0 {
			container = found.First()
			break
		}
	}

	var parts []string
	container.Find("p, table, li").Each(func(_ int, s *goquery.Selection) {
		// Nested matches would duplicate text (e.g. li inside table).
		if s.ParentsFiltered("p, table, li").Length() > 0 {
			return
		}
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})

	text := strings.Join(parts, "\n")
	if strings.TrimSpace(text) == "" {
		// Pages without paragraph markup still may have a text body.
		text = strings.TrimSpace(container.Text())
	}
	return text
}

// extractTitle resolves the article title: page metadata first, then a
// heuristic pass over the first lines of body text, then a sentinel.
func (e *Extractor) extractTitle(doc *goquery.Document, text string) string {
	if t, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(t) != "" {
		return strings.TrimSpace(t)
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return titleFromText(text)
}

// titleFromText scans the first five lines of body text for one of
// plausible headline length.
func titleFromText(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > 5 {
		lines = lines[:5]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if len(line) > minTitleLen && len(line) < maxTitleLen {
			return line
		}
	}
	return models.UntitledTitle
}

// extractDate resolves the publish date from page metadata, falling back
// to the extraction timestamp. The result is a best-effort string and is
// not guaranteed to parse as a calendar date.
func (e *Extractor) extractDate(doc *goquery.Document) string {
	if d, ok := doc.Find(`meta[property="article:published_time"]`).Attr("content"); ok && strings.TrimSpace(d) != "" {
		return strings.TrimSpace(d)
	}
	if d, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok && strings.TrimSpace(d) != "" {
		return strings.TrimSpace(d)
	}
	return time.Now().Format(time.RFC3339)
}

// extractAuthor resolves the author from page metadata, falling back to
// the unknown-author sentinel.
func (e *Extractor) extractAuthor(doc *goquery.Document) string {
	if a, ok := doc.Find(`meta[name="author"]`).Attr("content"); ok && strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	if a, ok := doc.Find(`meta[property="article:author"]`).Attr("content"); ok && strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return models.UnknownAuthor
}
