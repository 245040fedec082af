package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFetchExtractsTextAndLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head><title>Acme</title>
			<script>var x = "ignore me";</script>
			<style>.a { color: red }</style></head>
			<body>
			<nav><a href="/hidden">Nav</a></nav>
			<h1>Acme Corp</h1>
			<p>Founded in 1998 &amp; still growing.</p>
			<a href="/about">About us</a>
			<a href="/about">About duplicate</a>
			<a href="https://other.com/x">External</a>
			<a href="mailto:hi@acme.com">Mail</a>
			<a href="#top">Top</a>
			<footer>footer text</footer>
			</body></html>`))
	}))
	defer srv.Close()

	f := NewLocalFetcher(5*time.Second, 100)
	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Contains(t, page.Text, "Founded in 1998 & still growing.")
	assert.NotContains(t, page.Text, "ignore me")
	assert.NotContains(t, page.Text, "color: red")
	assert.NotContains(t, page.Text, "footer text")

	// Links come from the full document (nav included); external,
	// mailto, fragment, and duplicate anchors are dropped.
	require.Len(t, page.Links, 2)
	assert.Equal(t, srv.URL+"/hidden", page.Links[0].URL)
	assert.Equal(t, srv.URL+"/about", page.Links[1].URL)
	assert.Equal(t, "About us", page.Links[1].Text)
}

func TestLocalFetchDismissesConsentOverlay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<div class="cookie-banner">We use cookies. <button>Accept all</button></div>
			<p>Real content here.</p>
			</body></html>`))
	}))
	defer srv.Close()

	f := NewLocalFetcher(5*time.Second, 100)
	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Contains(t, page.Text, "Real content here.")
	assert.NotContains(t, page.Text, "We use cookies")
}

func TestLocalFetchKeepsNonConsentCookieMention(t *testing.T) {
	// A container mentioning cookies without an accept control stays.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>
			<div class="cookie-recipes">Grandma's cookie recipes.</div>
			</body></html>`))
	}))
	defer srv.Close()

	f := NewLocalFetcher(5*time.Second, 100)
	page, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Contains(t, page.Text, "cookie recipes")
}

func TestLocalFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	f := NewLocalFetcher(5*time.Second, 100)
	_, err := f.Fetch(context.Background(), srv.URL)

	var fetchErr *Error
	require.True(t, eris.As(err, &fetchErr))
	assert.Equal(t, ReasonHTTP, fetchErr.Reason)
	assert.Equal(t, http.StatusForbidden, fetchErr.Status)
}

func TestLocalFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	f := NewLocalFetcher(2*time.Second, 100)
	_, err := f.Fetch(context.Background(), srv.URL)

	var fetchErr *Error
	require.True(t, eris.As(err, &fetchErr))
	assert.Equal(t, ReasonNetwork, fetchErr.Reason)
}

func TestExtractTextEntities(t *testing.T) {
	got := ExtractText(`<p>Fish &amp; Chips &lt;est&gt; &quot;1950&quot;&nbsp;London</p>`)
	assert.Equal(t, `Fish & Chips <est> "1950" London`, got)
}

func TestExtractLinksResolvesRelative(t *testing.T) {
	base, _ := url.Parse("https://acme.com/deep/page")
	links := ExtractLinks(`<a href="../about">About</a>`, base)

	require.Len(t, links, 1)
	assert.Equal(t, "https://acme.com/about", links[0].URL)
}

func TestProbe(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("home"))
	})
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("User-agent: *"))
	})
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewLocalFetcher(5*time.Second, 100)
	probe, err := f.Probe(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.True(t, probe.Reachable)
	assert.Equal(t, http.StatusOK, probe.StatusCode)
	assert.True(t, probe.HasRobots)
	assert.False(t, probe.HasSitemap)
}

func TestProbeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	f := NewLocalFetcher(2*time.Second, 100)
	probe, err := f.Probe(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.False(t, probe.Reachable)
}
