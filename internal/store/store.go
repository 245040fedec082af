// Package store persists the crawl cache and batch run history. Store
// failures never fail a job; callers log and continue.
package store

import (
	"context"
	"time"

	"github.com/sells-group/intel-crawler/internal/model"
)

// Store defines the persistence interface for the crawler.
type Store interface {
	// Crawl cache
	GetCachedCrawl(ctx context.Context, website string) (*model.CrawlCache, error)
	SetCachedCrawl(ctx context.Context, website string, pages []model.Page, ttl time.Duration) error
	DeleteExpiredCrawls(ctx context.Context) (int, error)

	// Run history
	CreateRun(ctx context.Context, inputPath string, total int) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, status model.RunStatus, completed int, errMsg string) error
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
