// Package fetch retrieves a page's visible text and same-site link set.
package fetch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sells-group/intel-crawler/internal/model"
)

// Fetcher retrieves a single URL's rendered text content and outbound
// links. The session is scoped to the call; no state is retained.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL string) (*model.Page, error)
	Name() string
}

// Reason classifies a fetch failure.
type Reason string

const (
	ReasonTimeout Reason = "timeout"
	ReasonNetwork Reason = "network"
	ReasonHTTP    Reason = "http"
)

// Error is the typed failure returned by fetchers. Per-page fetch
// failures are non-fatal to a crawl; callers convert them into
// diagnostics rather than propagating them.
type Error struct {
	URL    string
	Reason Reason
	Status int // set when Reason == ReasonHTTP
	Err    error
}

func (e *Error) Error() string {
	switch e.Reason {
	case ReasonHTTP:
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.Status)
	default:
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Reason, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// sameSite reports whether host matches or is a subdomain of origin.
// The www prefix is ignored on both sides so "acme.com" and
// "www.acme.com" are treated as the same site.
func sameSite(host, origin string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	origin = strings.TrimPrefix(strings.ToLower(origin), "www.")
	return host == origin || strings.HasSuffix(host, "."+origin)
}

// NormalizeURL coerces a schemeless website value into an absolute URL.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("fetch: url has no host: %q", raw)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}
