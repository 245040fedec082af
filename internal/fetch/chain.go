package fetch

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/intel-crawler/internal/model"
)

// Chain tries fetchers in priority order, returning the first success.
// When the Jina reader is configured it goes first (it handles
// script-rendered sites); the local HTTP fetcher is the fallback.
type Chain struct {
	fetchers []Fetcher
}

// NewChain creates a Chain. Fetchers are tried in the order given.
func NewChain(fetchers ...Fetcher) *Chain {
	return &Chain{fetchers: fetchers}
}

func (c *Chain) Name() string { return "chain" }

// Fetch tries each fetcher in order for a single URL. Returns the first
// successful page, or the last fetcher's error when all fail.
func (c *Chain) Fetch(ctx context.Context, targetURL string) (*model.Page, error) {
	var lastErr error
	for _, f := range c.fetchers {
		page, err := f.Fetch(ctx, targetURL)
		if err == nil && page != nil {
			return page, nil
		}
		if err != nil {
			zap.L().Debug("fetch: fetcher failed, trying next",
				zap.String("fetcher", f.Name()),
				zap.String("url", targetURL),
				zap.Error(err),
			)
			lastErr = err
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, eris.Errorf("fetch: no fetcher available for url: %s", targetURL)
}
