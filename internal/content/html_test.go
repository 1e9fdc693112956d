package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPage = `<!DOCTYPE html>
<html>
<head>
<title>Espresso Machine Guide</title>
<meta name="description" content="Learn how to pick the right espresso machine for your kitchen today.">
<style>body { color: red }</style>
</head>
<body>
<nav>Home | Products | About</nav>
<header>Site header boilerplate</header>
<h1>Choosing an espresso machine</h1>
<p>The espresso machine market offers hundreds of models at every price point.</p>
<h2>Grinder pairing</h2>
<p>A good grinder matters as much as the espresso machine itself.</p>
<script>trackPageView();</script>
<footer>Copyright notice</footer>
</body>
</html>`

func testProvider(t *testing.T, html string) (*HTMLProvider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(html))
	}))
	t.Cleanup(srv.Close)

	pages := []Page{{
		ID:                1,
		URL:               srv.URL,
		PrimaryKeyword:    "espresso machine",
		SecondaryKeywords: []string{"grinder"},
	}}
	p := NewHTMLProvider(pages, NewFetchCache(srv.Client()), nil, "en_US", DensityThresholds{})
	return p, srv
}

func TestHTMLProvider_MetaDescriptionAndTitle(t *testing.T) {
	p, _ := testProvider(t, testPage)
	ctx := context.Background()

	desc, err := p.MetaDescription(ctx, 1)
	require.NoError(t, err)
	assert.Contains(t, desc, "espresso machine")

	title, err := p.PostTitle(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Espresso Machine Guide", title)
}

func TestHTMLProvider_UnregisteredPost(t *testing.T) {
	p, _ := testProvider(t, testPage)
	_, err := p.MetaDescription(context.Background(), 999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestHTMLProvider_CleanContentStripsBoilerplate(t *testing.T) {
	p, _ := testProvider(t, testPage)

	clean := p.CleanContent(testPage)
	assert.Contains(t, clean, "espresso machine market")
	assert.NotContains(t, clean, "trackPageView")
	assert.NotContains(t, clean, "color: red")
	assert.NotContains(t, clean, "Products | About")
	assert.NotContains(t, clean, "Copyright notice")
}

func TestHTMLProvider_WordCount(t *testing.T) {
	p, _ := testProvider(t, testPage)
	assert.Equal(t, 4, p.WordCount("vier Wörter über Espresso"))
	assert.Equal(t, 0, p.WordCount(""))
}

func TestHTMLProvider_ExtractMetaDescription(t *testing.T) {
	p, _ := testProvider(t, testPage)
	got := p.ExtractMetaDescription(testPage)
	assert.Contains(t, got, "pick the right espresso machine")
	assert.Empty(t, p.ExtractMetaDescription("<html><head></head></html>"))
}

func TestHTMLProvider_FallbackMetaDescription(t *testing.T) {
	p, _ := testProvider(t, testPage)
	got, err := p.FallbackMetaDescription(context.Background(), 1)
	require.NoError(t, err)
	assert.Contains(t, got, "espresso machine market")

	long := "<html><body><p>" + strings.Repeat("word ", 100) + "</p></body></html>"
	p2, _ := testProvider(t, long)
	got, err = p2.FallbackMetaDescription(context.Background(), 1)
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(got)), 160)
	assert.True(t, strings.HasSuffix(got, "..."))
}

func TestHTMLProvider_ContentFallbackServesOnlyCache(t *testing.T) {
	p, _ := testProvider(t, testPage)
	ctx := context.Background()

	_, err := p.Content(ctx, 1, true)
	require.Error(t, err, "cold cache has nothing to fall back to")

	raw, err := p.Content(ctx, 1, false)
	require.NoError(t, err)

	cached, err := p.Content(ctx, 1, true)
	require.NoError(t, err)
	assert.Equal(t, raw, cached)
}

func TestHTMLProvider_AnalyzeKeywordDensityPlacement(t *testing.T) {
	p, _ := testProvider(t, testPage)
	ctx := context.Background()

	raw, err := p.Content(ctx, 1, false)
	require.NoError(t, err)
	clean := p.CleanContent(raw)
	words := p.WordCount(clean)

	a, err := p.AnalyzeKeywordDensity(ctx, 1, "espresso machine", raw, clean, words, words < ShortContentThreshold, true)
	require.NoError(t, err)
	assert.Equal(t, "espresso machine", a.Keyword)
	assert.True(t, a.Primary)
	assert.True(t, a.InTitle)
	assert.True(t, a.InHeadings)
	assert.Equal(t, 3, a.Occurrences)

	b, err := p.AnalyzeKeywordDensity(ctx, 1, "grinder", raw, clean, words, true, false)
	require.NoError(t, err)
	assert.False(t, b.InTitle)
	assert.True(t, b.InHeadings)
}

func TestHTMLProvider_KeywordsAndURL(t *testing.T) {
	p, srv := testProvider(t, testPage)
	ctx := context.Background()

	kw, err := p.PrimaryKeyword(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "espresso machine", kw)

	secondary, err := p.SecondaryKeywords(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"grinder"}, secondary)

	url, err := p.PostURL(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, srv.URL, url)

	assert.Equal(t, "en_US", p.SiteLocale())
}

func TestHTMLProvider_ConsumedURLs(t *testing.T) {
	p, srv := testProvider(t, testPage)
	assert.Empty(t, p.ConsumedURLs())

	_, err := p.MetaDescription(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{srv.URL}, p.ConsumedURLs())
}

func TestHTMLProvider_SetTransient(t *testing.T) {
	store := NewMemoryTransientStore()
	p := NewHTMLProvider(nil, NewFetchCache(nil), store, "en_US", DensityThresholds{})

	require.NoError(t, p.SetTransient("seoscope_cta_detail_1", map[string]any{"language": "en"}, time.Minute))
	v, ok, err := store.Get(context.Background(), "seoscope_cta_detail_1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, v, `"language":"en"`)
}
