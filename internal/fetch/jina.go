package fetch

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/intel-crawler/internal/model"
	"github.com/sells-group/intel-crawler/pkg/jina"
)

// JinaFetcher fetches pages through the Jina AI Reader, which renders
// client-side scripts before extracting content. Preferred for
// script-rendered sites; costs API tokens.
type JinaFetcher struct {
	client jina.Client
}

// NewJinaFetcher creates a JinaFetcher backed by the given client.
func NewJinaFetcher(client jina.Client) *JinaFetcher {
	return &JinaFetcher{client: client}
}

func (j *JinaFetcher) Name() string { return "jina" }

func (j *JinaFetcher) Fetch(ctx context.Context, targetURL string) (*model.Page, error) {
	resp, err := j.client.Read(ctx, targetURL)
	if err != nil {
		return nil, &Error{URL: targetURL, Reason: ReasonNetwork, Err: err}
	}
	if resp.Code != 0 && resp.Code != 200 {
		return nil, &Error{URL: targetURL, Reason: ReasonHTTP, Status: resp.Code}
	}

	finalURL := resp.Data.URL
	if finalURL == "" {
		finalURL = targetURL
	}
	base, err := url.Parse(finalURL)
	if err != nil {
		return nil, eris.Wrap(err, "jina: parse final url")
	}

	text := strings.TrimSpace(spaceRe.ReplaceAllString(resp.Data.Content, " "))
	if text == "" {
		return nil, &Error{URL: targetURL, Reason: ReasonNetwork, Err: eris.New("jina: empty content")}
	}

	return &model.Page{
		URL:   base.String(),
		Text:  text,
		Links: linksFromSummary(resp.Data.Links, base),
	}, nil
}

// linksFromSummary converts the reader's anchor-text → URL summary into
// the same-site link set, first-seen order by URL.
func linksFromSummary(summary map[string]string, base *url.URL) []model.Link {
	var links []model.Link
	seen := make(map[string]bool)

	for text, raw := range summary {
		u, err := url.Parse(raw)
		if err != nil || !u.IsAbs() {
			continue
		}
		if !sameSite(u.Host, base.Host) {
			continue
		}
		u.Fragment = ""
		normalized := u.String()
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		links = append(links, model.Link{URL: normalized, Text: strings.TrimSpace(text)})
	}

	return links
}
