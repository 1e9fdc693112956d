// Package content abstracts page content and metadata retrieval for the
// scoring engine, and implements the text-analysis primitives the keyword
// rules consume: multibyte word counting, keyword density, and placement
// checks.
package content

import (
	"context"
	"time"
)

// Keyword analysis statuses.
const (
	StatusMissing   = "missing"
	StatusUnderused = "underused"
	StatusOptimal   = "optimal"
	StatusOverused  = "overused"
	StatusStuffing  = "stuffing"
)

// KeywordAnalysis is the structured result of analyzing one keyword against
// the page content.
type KeywordAnalysis struct {
	Keyword      string  `json:"keyword"`
	Primary      bool    `json:"primary"`
	Occurrences  int     `json:"occurrences"`
	Density      float64 `json:"density"` // percent of total words
	Score        float64 `json:"score"`   // 0-1
	Status       string  `json:"status"`
	InTitle      bool    `json:"in_title"`
	InHeadings   bool    `json:"in_headings"`
	Distribution float64 `json:"distribution"` // 0-1, evenness across the content
	ShortContent bool    `json:"short_content"`
}

// Provider is the collaborator the rule tree reads page data through. All
// methods that touch page content may hit the network on a cold cache;
// pure text helpers (CleanContent, WordCount, ExtractMetaDescription) never
// do.
type Provider interface {
	MetaDescription(ctx context.Context, postID int64) (string, error)
	FallbackMetaDescription(ctx context.Context, postID int64) (string, error)
	PrimaryKeyword(ctx context.Context, postID int64) (string, error)
	SecondaryKeywords(ctx context.Context, postID int64) ([]string, error)
	Content(ctx context.Context, postID int64, fromFallback bool) (string, error)
	PostURL(ctx context.Context, postID int64) (string, error)
	PostTitle(ctx context.Context, postID int64) (string, error)
	SiteLocale() string

	CleanContent(html string) string
	WordCount(text string) int
	ExtractMetaDescription(html string) string

	AnalyzeKeywordDensity(ctx context.Context, postID int64, keyword, rawContent, cleanContent string,
		totalWords int, shortContent, primary bool) (KeywordAnalysis, error)
	OverallBalance(primary KeywordAnalysis, secondary []KeywordAnalysis) float64

	// SetTransient stores short-lived diagnostic detail computed alongside
	// a rule run. Best effort: implementations may drop writes.
	SetTransient(key string, value any, ttl time.Duration) error

	// ConsumedURLs lists the page URLs fetched so far, for the report's
	// urls_consumed field.
	ConsumedURLs() []string
}
