package rules

import (
	"context"
	"time"

	"github.com/seoscope/seoscope/internal/content"
)

// fakeProvider is a scripted content.Provider for rule tests.
type fakeProvider struct {
	meta        string
	metaErr     error
	primary     string
	secondary   []string
	body        string
	bodyErr     error
	fallback    string
	fallbackErr error
	locale      string
	analyses    map[string]content.KeywordAnalysis
	balance     float64
	transients  map[string]any
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		locale:     "en_US",
		analyses:   make(map[string]content.KeywordAnalysis),
		transients: make(map[string]any),
	}
}

func (p *fakeProvider) MetaDescription(context.Context, int64) (string, error) {
	return p.meta, p.metaErr
}

func (p *fakeProvider) FallbackMetaDescription(context.Context, int64) (string, error) {
	return "", nil
}

func (p *fakeProvider) PrimaryKeyword(context.Context, int64) (string, error) {
	return p.primary, nil
}

func (p *fakeProvider) SecondaryKeywords(context.Context, int64) ([]string, error) {
	return p.secondary, nil
}

func (p *fakeProvider) Content(_ context.Context, _ int64, fromFallback bool) (string, error) {
	if fromFallback {
		return p.fallback, p.fallbackErr
	}
	return p.body, p.bodyErr
}

func (p *fakeProvider) PostURL(context.Context, int64) (string, error)   { return "", nil }
func (p *fakeProvider) PostTitle(context.Context, int64) (string, error) { return "", nil }
func (p *fakeProvider) SiteLocale() string                               { return p.locale }

func (p *fakeProvider) CleanContent(html string) string { return html }

func (p *fakeProvider) WordCount(text string) int { return len(content.Words(text)) }

func (p *fakeProvider) ExtractMetaDescription(string) string { return "" }

func (p *fakeProvider) AnalyzeKeywordDensity(_ context.Context, _ int64, keyword, _, _ string,
	_ int, _, primary bool) (content.KeywordAnalysis, error) {
	a := p.analyses[keyword]
	a.Keyword = keyword
	a.Primary = primary
	return a, nil
}

func (p *fakeProvider) OverallBalance(content.KeywordAnalysis, []content.KeywordAnalysis) float64 {
	return p.balance
}

func (p *fakeProvider) SetTransient(key string, value any, _ time.Duration) error {
	p.transients[key] = value
	return nil
}

func (p *fakeProvider) ConsumedURLs() []string { return nil }
