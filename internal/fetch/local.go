package fetch

import (
	"context"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"

	"github.com/sells-group/intel-crawler/internal/model"
)

const userAgent = "Mozilla/5.0 (compatible; IntelCrawler/1.0)"

// maxBodyBytes caps how much of a page we read.
const maxBodyBytes = 512 * 1024

// LocalFetcher fetches HTML via net/http and converts it to plaintext.
// Free, no API calls; script-rendered sites fall through to the reader
// service in the chain.
type LocalFetcher struct {
	client *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perHost  rate.Limit
}

// NewLocalFetcher creates a LocalFetcher. ratePerHost caps requests per
// second against any single host; zero means 2/s.
func NewLocalFetcher(timeout time.Duration, ratePerHost float64) *LocalFetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if ratePerHost == 0 {
		ratePerHost = 2
	}
	return &LocalFetcher{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(ratePerHost),
	}
}

func (l *LocalFetcher) Name() string { return "local_http" }

func (l *LocalFetcher) limiterFor(host string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[host]
	if !ok {
		lim = rate.NewLimiter(l.perHost, 2)
		l.limiters[host] = lim
	}
	return lim
}

// Fetch retrieves the page, strips a consent overlay if one is present,
// and returns normalized text plus the same-site link set.
func (l *LocalFetcher) Fetch(ctx context.Context, targetURL string) (*model.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: create request")
	}
	req.Header.Set("User-Agent", userAgent)

	if err := l.limiterFor(req.URL.Host).Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "local_http: rate limiter wait")
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, classifyTransport(targetURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, &Error{URL: targetURL, Reason: ReasonHTTP, Status: resp.StatusCode}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &Error{URL: targetURL, Reason: ReasonNetwork, Err: err}
	}

	html := decodeCharset(raw, resp.Header.Get("Content-Type"))
	html = dismissConsent(html)

	base := resp.Request.URL
	return &model.Page{
		URL:   base.String(),
		Text:  ExtractText(html),
		Links: ExtractLinks(html, base),
	}, nil
}

// classifyTransport maps a transport error onto the fetch taxonomy.
func classifyTransport(targetURL string, err error) *Error {
	var netErr net.Error
	if eris.As(err, &netErr) && netErr.Timeout() {
		return &Error{URL: targetURL, Reason: ReasonTimeout, Err: err}
	}
	return &Error{URL: targetURL, Reason: ReasonNetwork, Err: err}
}

// decodeCharset converts the body to UTF-8 based on the Content-Type
// charset parameter. Unknown or absent charsets pass through unchanged.
func decodeCharset(body []byte, contentType string) string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(body)
	}
	name := strings.ToLower(params["charset"])
	if name == "" || name == "utf-8" || name == "utf8" {
		return string(body)
	}
	enc, err := htmlindex.Get(name)
	if err != nil || enc == nil {
		return string(body)
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}

// consentContainerRe matches container open tags whose id or class marks
// a cookie/consent/gdpr overlay.
var consentContainerRe = map[string]*regexp.Regexp{}

var consentAcceptRe = regexp.MustCompile(`(?i)\b(accept( all)?( cookies)?|agree|allow all)\b`)

func init() {
	for _, tag := range []string{"div", "section", "aside", "dialog"} {
		consentContainerRe[tag] = regexp.MustCompile(
			`(?is)<` + tag + `[^>]*(?:id|class)="[^"]*(?:cookie|consent|gdpr)[^"]*"[^>]*>.*?</` + tag + `>`)
	}
}

// dismissConsent makes one best-effort pass at removing a cookie/consent
// overlay so its boilerplate does not pollute the page text. Nested
// markup may defeat the non-greedy match; not finding an overlay is not
// an error.
func dismissConsent(html string) string {
	dismissed := false
	for _, re := range consentContainerRe {
		if loc := re.FindStringIndex(html); loc != nil {
			if consentAcceptRe.MatchString(html[loc[0]:loc[1]]) {
				html = html[:loc[0]] + html[loc[1]:]
				dismissed = true
			}
		}
	}
	if dismissed {
		zap.L().Debug("local_http: consent overlay dismissed")
	}
	return html
}

var (
	tagRe    = regexp.MustCompile(`<[^>]+>`)
	spaceRe  = regexp.MustCompile(`\s+`)
	anchorRe = regexp.MustCompile(`(?is)<a\s[^>]*href="([^"]+)"[^>]*>(.*?)</a>`)
)

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

// ExtractText strips scripts/styles/nav/footer, removes tags, decodes
// entities, and collapses all whitespace runs to single spaces.
func ExtractText(html string) string {
	for _, tag := range []string{"script", "style", "noscript", "nav", "footer"} {
		re := regexp.MustCompile(`(?is)<` + tag + `[^>]*>.*?</` + tag + `>`)
		html = re.ReplaceAllString(html, " ")
	}
	html = tagRe.ReplaceAllString(html, " ")
	html = entityReplacer.Replace(html)
	return strings.TrimSpace(spaceRe.ReplaceAllString(html, " "))
}

// ExtractLinks pulls anchors from HTML, resolves them against base, and
// keeps only links whose host matches or is a subdomain of the origin.
// Deduplicated in first-seen order; fragments stripped.
func ExtractLinks(html string, base *url.URL) []model.Link {
	var links []model.Link
	seen := make(map[string]bool)

	for _, m := range anchorRe.FindAllStringSubmatch(html, -1) {
		href := strings.TrimSpace(entityReplacer.Replace(m[1]))
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "tel:") {
			continue
		}

		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		abs := base.ResolveReference(ref)
		if !sameSite(abs.Host, base.Host) {
			continue
		}
		abs.Fragment = ""

		normalized := abs.String()
		if seen[normalized] {
			continue
		}
		seen[normalized] = true

		links = append(links, model.Link{
			URL:  normalized,
			Text: ExtractText(m[2]),
		})
	}

	return links
}

// Probe checks homepage reachability and, in parallel, the presence of
// robots.txt and sitemap.xml. Diagnostics only; a failed probe never
// aborts a crawl on its own.
func (l *LocalFetcher) Probe(ctx context.Context, rawURL string) (*model.ProbeResult, error) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: parse url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, normalized, nil)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: create probe request")
	}
	req.Header.Set("User-Agent", userAgent)

	result := &model.ProbeResult{}

	resp, err := l.client.Do(req)
	if err != nil {
		return result, nil
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	_ = resp.Body.Close()

	result.Reachable = true
	result.StatusCode = resp.StatusCode
	result.FinalURL = resp.Request.URL.String()

	base := resp.Request.URL.Scheme + "://" + resp.Request.URL.Host
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result.HasRobots = l.checkExists(gCtx, base+"/robots.txt")
		return nil
	})
	g.Go(func() error {
		result.HasSitemap = l.checkExists(gCtx, base+"/sitemap.xml")
		return nil
	})
	_ = g.Wait()

	return result, nil
}

func (l *LocalFetcher) checkExists(ctx context.Context, target string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
