package crawl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/intel-crawler/internal/extract"
	"github.com/sells-group/intel-crawler/internal/fetch"
	"github.com/sells-group/intel-crawler/internal/model"
	"github.com/sells-group/intel-crawler/internal/store"
)

// Prober checks a site's reachability out of band. Used to enrich the
// diagnostic when a homepage fetch fails.
type Prober interface {
	Probe(ctx context.Context, rawURL string) (*model.ProbeResult, error)
}

// Outcome is the per-company crawl result. Facts may be empty; the
// diagnostics record every non-fatal degradation hit along the way.
type Outcome struct {
	Facts       model.Facts
	Pages       []model.Page
	FromCache   bool
	Diagnostics []string
}

// Crawler composes the fetcher, link prioritizer, and fact extractor
// into a single per-company crawl. The page budget caps latency per
// company regardless of site size, and per-page failure isolation keeps
// one broken page from sacrificing facts obtainable from the others.
type Crawler struct {
	fetcher  fetch.Fetcher
	prober   Prober
	cache    store.Store
	budget   int
	cacheTTL time.Duration
	keywords []string
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithProber enables the out-of-band reachability probe on homepage
// fetch failure.
func WithProber(p Prober) Option {
	return func(c *Crawler) { c.prober = p }
}

// WithCache enables the crawl cache. Cache failures are warnings only.
func WithCache(st store.Store, ttl time.Duration) Option {
	return func(c *Crawler) {
		c.cache = st
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithKeywords overrides the link-prioritizer vocabulary.
func WithKeywords(keywords []string) Option {
	return func(c *Crawler) {
		if len(keywords) > 0 {
			c.keywords = keywords
		}
	}
}

// New creates a Crawler. pageBudget is the number of internal pages
// visited beyond the homepage; zero means 3.
func New(fetcher fetch.Fetcher, pageBudget int, opts ...Option) *Crawler {
	if pageBudget <= 0 {
		pageBudget = 3
	}
	c := &Crawler{
		fetcher:  fetcher,
		budget:   pageBudget,
		cacheTTL: 24 * time.Hour,
		keywords: DefaultKeywords,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Crawl visits the company homepage plus a shortlist of internal pages
// and extracts facts from the merged text. It never fails fatally: a
// total fetch failure degrades to empty facts with a diagnostic.
func (c *Crawler) Crawl(ctx context.Context, company model.Company) *Outcome {
	log := zap.L().With(zap.String("company", company.Name), zap.String("website", company.Website))
	out := &Outcome{}

	homeURL, err := fetch.NormalizeURL(company.Website)
	if err != nil {
		out.Diagnostics = append(out.Diagnostics, fmt.Sprintf("invalid website url: %v", err))
		return out
	}

	if cached := c.cachedPages(ctx, homeURL); cached != nil {
		log.Info("crawl: using cached pages", zap.Int("pages", len(cached)))
		out.Pages = cached
		out.FromCache = true
		out.Facts = extract.Extract(mergeText(cached))
		return out
	}

	home, err := c.fetcher.Fetch(ctx, homeURL)
	if err != nil {
		out.Diagnostics = append(out.Diagnostics, fmt.Sprintf("homepage fetch failed: %v", err))
		c.probeDiagnostic(ctx, homeURL, out, log)
		log.Warn("crawl: homepage fetch failed", zap.Error(err))
		return out
	}
	out.Pages = append(out.Pages, *home)

	visited := map[string]bool{homeURL: true, home.URL: true}
	shortlist := Prioritize(home.URL, home.Links, visited, c.budget, c.keywords)
	log.Debug("crawl: shortlisted internal pages",
		zap.Int("links", len(home.Links)),
		zap.Int("shortlist", len(shortlist)),
	)

	for _, pageURL := range shortlist {
		visited[pageURL] = true
		page, err := c.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			// Non-fatal: skip and keep going with the rest.
			out.Diagnostics = append(out.Diagnostics, fmt.Sprintf("page fetch failed: %v", err))
			log.Debug("crawl: internal page fetch failed",
				zap.String("url", pageURL),
				zap.Error(err),
			)
			continue
		}
		out.Pages = append(out.Pages, *page)
	}

	out.Facts = extract.Extract(mergeText(out.Pages))
	c.writeCache(ctx, homeURL, out.Pages, log)

	log.Info("crawl: complete",
		zap.Int("pages", len(out.Pages)),
		zap.Bool("founded", out.Facts.FoundedInfo != ""),
		zap.Bool("about", out.Facts.AboutUs != ""),
		zap.Bool("email", out.Facts.Email != ""),
	)
	return out
}

// mergeText concatenates page texts in visit order, single-space
// separated, matching what the extractor patterns expect.
func mergeText(pages []model.Page) string {
	parts := make([]string, 0, len(pages))
	for _, p := range pages {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, " ")
}

func (c *Crawler) cachedPages(ctx context.Context, website string) []model.Page {
	if c.cache == nil {
		return nil
	}
	cached, err := c.cache.GetCachedCrawl(ctx, website)
	if err != nil {
		zap.L().Warn("crawl: cache lookup failed", zap.String("website", website), zap.Error(err))
		return nil
	}
	if cached == nil || len(cached.Pages) == 0 {
		return nil
	}
	return cached.Pages
}

func (c *Crawler) writeCache(ctx context.Context, website string, pages []model.Page, log *zap.Logger) {
	if c.cache == nil || len(pages) == 0 {
		return
	}
	if err := c.cache.SetCachedCrawl(ctx, website, pages, c.cacheTTL); err != nil {
		log.Warn("crawl: failed to cache pages", zap.Error(err))
	}
}

func (c *Crawler) probeDiagnostic(ctx context.Context, homeURL string, out *Outcome, log *zap.Logger) {
	if c.prober == nil {
		return
	}
	probe, err := c.prober.Probe(ctx, homeURL)
	if err != nil || probe == nil {
		return
	}
	if !probe.Reachable {
		out.Diagnostics = append(out.Diagnostics, "site unreachable")
		return
	}
	out.Diagnostics = append(out.Diagnostics,
		fmt.Sprintf("site reachable (status %d) but fetch failed; robots=%t sitemap=%t",
			probe.StatusCode, probe.HasRobots, probe.HasSitemap))
	log.Debug("crawl: probe after failed fetch",
		zap.Int("status", probe.StatusCode),
		zap.Bool("robots", probe.HasRobots),
		zap.Bool("sitemap", probe.HasSitemap),
	)
}
