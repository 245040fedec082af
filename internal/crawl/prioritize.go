// Package crawl selects and visits the pages of one company site worth
// reading, and merges their text for fact extraction.
package crawl

import (
	"net/url"
	"sort"
	"strings"

	"github.com/sells-group/intel-crawler/internal/model"
)

// DefaultKeywords is the vocabulary of stems that mark a page as likely
// to carry company facts.
var DefaultKeywords = []string{
	"about", "company", "corporate", "group",
	"leadership", "management", "investor",
	"who", "overview", "profile", "team", "history",
}

type scoredLink struct {
	url   string
	score int
	path  string
	order int
}

// Prioritize scores links against the keyword vocabulary and returns the
// top `limit` URLs by descending score. Pure and deterministic: ties
// break by shorter path (higher-level pages first), then first-seen
// order. The base URL, already-visited URLs, and zero-score links are
// excluded; when nothing scores, the result is empty and the crawl
// relies on homepage text alone.
func Prioritize(baseURL string, links []model.Link, visited map[string]bool, limit int, keywords []string) []string {
	if limit <= 0 || len(links) == 0 {
		return nil
	}
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}

	base := trimTrailingSlash(baseURL)
	seen := make(map[string]bool)
	var candidates []scoredLink

	for i, link := range links {
		normalized := trimTrailingSlash(link.URL)
		if normalized == base || visited[link.URL] || visited[normalized] || seen[normalized] {
			continue
		}
		seen[normalized] = true

		u, err := url.Parse(link.URL)
		if err != nil {
			continue
		}

		score := scoreLink(u.Path, link.Text, keywords)
		if score == 0 {
			continue
		}
		candidates = append(candidates, scoredLink{
			url:   link.URL,
			score: score,
			path:  u.Path,
			order: i,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if len(candidates[i].path) != len(candidates[j].path) {
			return len(candidates[i].path) < len(candidates[j].path)
		}
		return candidates[i].order < candidates[j].order
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.url
	}
	return out
}

// scoreLink counts distinct vocabulary stems found in the URL path and
// the visible anchor text (when captured).
func scoreLink(path, anchorText string, keywords []string) int {
	haystack := strings.ToLower(path)
	if anchorText != "" {
		haystack += " " + strings.ToLower(anchorText)
	}

	score := 0
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			score++
		}
	}
	return score
}

func trimTrailingSlash(raw string) string {
	if strings.HasSuffix(raw, "/") {
		return strings.TrimRight(raw, "/")
	}
	return raw
}
