package model

import "time"

// Link is an anchor resolved to an absolute same-site URL, with its
// visible anchor text when the fetcher captured it.
type Link struct {
	URL  string `json:"url"`
	Text string `json:"text,omitempty"`
}

// Page is a fetched page: whitespace-normalized visible text plus the
// same-site outbound link set. Owned by the crawler for the duration of
// one company's crawl and discarded after merge.
type Page struct {
	URL   string `json:"url"`
	Text  string `json:"text"`
	Links []Link `json:"links,omitempty"`
}

// ProbeResult holds the outcome of an HTTP probe of a site's homepage.
type ProbeResult struct {
	Reachable  bool   `json:"reachable"`
	StatusCode int    `json:"status_code"`
	HasRobots  bool   `json:"has_robots"`
	HasSitemap bool   `json:"has_sitemap"`
	FinalURL   string `json:"final_url"`
}

// CrawlCache stores the merged pages of a previous site crawl.
type CrawlCache struct {
	ID        string    `json:"id"`
	Website   string    `json:"website"`
	Pages     []Page    `json:"pages"`
	CrawledAt time.Time `json:"crawled_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
