package content

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Page registers one analyzable post: its identity, where its rendered HTML
// lives, and the keywords configured for it.
type Page struct {
	ID                int64    `json:"id"`
	URL               string   `json:"url"`
	PrimaryKeyword    string   `json:"primary_keyword"`
	SecondaryKeywords []string `json:"secondary_keywords"`
}

// HTMLProvider implements Provider against rendered page HTML fetched over
// HTTP. Parsed page parts are memoized per post for the provider lifetime
// (one process / one batch run).
type HTMLProvider struct {
	pages      map[int64]Page
	fetch      *FetchCache
	transients TransientStore
	locale     string
	thresholds DensityThresholds

	mu     sync.Mutex
	parsed map[int64]*parsedPage
}

type parsedPage struct {
	rawHTML         string
	title           string
	metaDescription string
	headings        []string
	cleanText       string
}

// NewHTMLProvider wires the provider. A nil transient store falls back to
// an in-memory one; zero thresholds fall back to the defaults.
func NewHTMLProvider(pages []Page, fetch *FetchCache, transients TransientStore, locale string, thresholds DensityThresholds) *HTMLProvider {
	byID := make(map[int64]Page, len(pages))
	for _, p := range pages {
		byID[p.ID] = p
	}
	if transients == nil {
		transients = NewMemoryTransientStore()
	}
	if thresholds == (DensityThresholds{}) {
		thresholds = DefaultDensityThresholds
	}
	if fetch == nil {
		fetch = NewFetchCache(nil)
	}
	return &HTMLProvider{
		pages:      byID,
		fetch:      fetch,
		transients: transients,
		locale:     locale,
		thresholds: thresholds,
		parsed:     make(map[int64]*parsedPage),
	}
}

func (p *HTMLProvider) page(postID int64) (Page, error) {
	pg, ok := p.pages[postID]
	if !ok {
		return Page{}, fmt.Errorf("post %d is not registered", postID)
	}
	return pg, nil
}

func (p *HTMLProvider) doc(ctx context.Context, postID int64) (*parsedPage, error) {
	p.mu.Lock()
	if d, ok := p.parsed[postID]; ok {
		p.mu.Unlock()
		return d, nil
	}
	p.mu.Unlock()

	pg, err := p.page(postID)
	if err != nil {
		return nil, err
	}
	raw, err := p.fetch.Get(ctx, pg.URL)
	if err != nil {
		return nil, err
	}
	d, err := parseHTML(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", pg.URL, err)
	}

	p.mu.Lock()
	p.parsed[postID] = d
	p.mu.Unlock()
	return d, nil
}

func parseHTML(raw string) (*parsedPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, err
	}

	d := &parsedPage{rawHTML: raw}
	d.title = strings.TrimSpace(doc.Find("title").First().Text())
	d.metaDescription, _ = doc.Find(`meta[name="description"]`).First().Attr("content")
	d.metaDescription = strings.TrimSpace(d.metaDescription)

	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			d.headings = append(d.headings, text)
		}
	})

	body := doc.Find("body").Clone()
	body.Find("script, style, noscript, nav, header, footer, aside").Remove()
	d.cleanText = normalizeWhitespace(body.Text())
	return d, nil
}

func normalizeWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// MetaDescription returns the page's meta description, empty when the tag
// is absent. Absence is an expected condition, not an error.
func (p *HTMLProvider) MetaDescription(ctx context.Context, postID int64) (string, error) {
	d, err := p.doc(ctx, postID)
	if err != nil {
		return "", err
	}
	return d.metaDescription, nil
}

// FallbackMetaDescription derives a description candidate from the first
// paragraph, truncated to a search-snippet length.
func (p *HTMLProvider) FallbackMetaDescription(ctx context.Context, postID int64) (string, error) {
	d, err := p.doc(ctx, postID)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(d.rawHTML))
	if err != nil {
		return "", err
	}
	first := normalizeWhitespace(doc.Find("p").First().Text())
	if utf8.RuneCountInString(first) > 160 {
		runes := []rune(first)
		first = string(runes[:157]) + "..."
	}
	return first, nil
}

// PrimaryKeyword returns the configured primary keyword, empty when unset.
func (p *HTMLProvider) PrimaryKeyword(_ context.Context, postID int64) (string, error) {
	pg, err := p.page(postID)
	if err != nil {
		return "", err
	}
	return pg.PrimaryKeyword, nil
}

// SecondaryKeywords returns the configured secondary keywords.
func (p *HTMLProvider) SecondaryKeywords(_ context.Context, postID int64) ([]string, error) {
	pg, err := p.page(postID)
	if err != nil {
		return nil, err
	}
	return pg.SecondaryKeywords, nil
}

// Content returns the raw page HTML. With fromFallback set it only serves
// the already-cached copy instead of going to the network.
func (p *HTMLProvider) Content(ctx context.Context, postID int64, fromFallback bool) (string, error) {
	pg, err := p.page(postID)
	if err != nil {
		return "", err
	}
	if fromFallback {
		if body, ok := p.fetch.Cached(pg.URL); ok {
			return body, nil
		}
		return "", fmt.Errorf("no cached content for post %d", postID)
	}
	return p.fetch.Get(ctx, pg.URL)
}

// PostURL returns the registered URL for the post.
func (p *HTMLProvider) PostURL(_ context.Context, postID int64) (string, error) {
	pg, err := p.page(postID)
	if err != nil {
		return "", err
	}
	return pg.URL, nil
}

// PostTitle returns the page <title> text.
func (p *HTMLProvider) PostTitle(ctx context.Context, postID int64) (string, error) {
	d, err := p.doc(ctx, postID)
	if err != nil {
		return "", err
	}
	return d.title, nil
}

// SiteLocale returns the configured site locale (e.g. "de_DE").
func (p *HTMLProvider) SiteLocale() string {
	return p.locale
}

// CleanContent strips markup and boilerplate elements, returning plain text.
func (p *HTMLProvider) CleanContent(html string) string {
	d, err := parseHTML(html)
	if err != nil {
		return normalizeWhitespace(html)
	}
	if d.cleanText != "" {
		return d.cleanText
	}
	// Fragments without a <body> still parse; fall back to full-document text.
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return normalizeWhitespace(html)
	}
	doc.Find("script, style, noscript").Remove()
	return normalizeWhitespace(doc.Text())
}

// WordCount counts words in plain text, multibyte-correct.
func (p *HTMLProvider) WordCount(text string) int {
	return len(Words(text))
}

// ExtractMetaDescription pulls the meta description out of an HTML document.
func (p *HTMLProvider) ExtractMetaDescription(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	desc, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	return strings.TrimSpace(desc)
}

// AnalyzeKeywordDensity analyzes one keyword against the page content,
// including title and heading placement.
func (p *HTMLProvider) AnalyzeKeywordDensity(ctx context.Context, postID int64, keyword, _ string, cleanContent string,
	totalWords int, shortContent, primary bool) (KeywordAnalysis, error) {

	var title string
	var headings []string
	if d, err := p.doc(ctx, postID); err == nil {
		title = d.title
		headings = d.headings
	}
	return analyzeKeyword(keyword, cleanContent, title, headings, totalWords, shortContent, primary, p.thresholds), nil
}

// OverallBalance scores the primary/secondary keyword relationship.
func (p *HTMLProvider) OverallBalance(primary KeywordAnalysis, secondary []KeywordAnalysis) float64 {
	return overallBalance(primary, secondary)
}

// SetTransient stores diagnostic detail in the configured transient store.
func (p *HTMLProvider) SetTransient(key string, value any, ttl time.Duration) error {
	return p.transients.Set(context.Background(), key, EncodeTransient(value), ttl)
}

// ConsumedURLs lists the page URLs fetched during this provider's lifetime.
func (p *HTMLProvider) ConsumedURLs() []string {
	return p.fetch.Consumed()
}
