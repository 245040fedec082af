package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/intel-crawler/internal/crawl"
	"github.com/sells-group/intel-crawler/internal/enrich"
	"github.com/sells-group/intel-crawler/internal/fetch"
	"github.com/sells-group/intel-crawler/internal/job"
	"github.com/sells-group/intel-crawler/internal/store"
	anthropicpkg "github.com/sells-group/intel-crawler/pkg/anthropic"
	"github.com/sells-group/intel-crawler/pkg/jina"
)

// pipelineEnv holds the initialized store and orchestrator needed by
// the run/serve commands.
type pipelineEnv struct {
	Store        store.Store
	Orchestrator *job.Orchestrator
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens the configured persistence backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.Path)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initPipeline sets up the store, fetch chain, crawler, enricher, and
// orchestrator. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	timeout := time.Duration(cfg.Crawl.TimeoutSecs) * time.Second
	local := fetch.NewLocalFetcher(timeout, cfg.Crawl.RatePerHost)

	// The reader service renders client-side scripts; when a key is
	// configured it goes first and the local fetcher is the fallback.
	var fetcher fetch.Fetcher
	if cfg.Jina.Key != "" {
		jinaClient := jina.NewClient(cfg.Jina.Key, jina.WithBaseURL(cfg.Jina.BaseURL))
		fetcher = fetch.NewChain(fetch.NewJinaFetcher(jinaClient), local)
		zap.L().Info("jina reader enabled")
	} else {
		fetcher = local
		zap.L().Debug("INTEL_JINA_KEY not set, using local fetcher only")
	}

	keywords, err := loadKeywords()
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	crawler := crawl.New(fetcher, cfg.Crawl.PageBudget,
		crawl.WithProber(local),
		crawl.WithCache(st, time.Duration(cfg.Crawl.CacheTTLHours)*time.Hour),
		crawl.WithKeywords(keywords),
	)

	var anthropicClient anthropicpkg.Client
	if cfg.Anthropic.Key != "" {
		anthropicClient = anthropicpkg.NewClient(cfg.Anthropic.Key)
		zap.L().Info("enrichment enabled", zap.String("model", cfg.Anthropic.Model))
	} else {
		zap.L().Debug("INTEL_ANTHROPIC_KEY not set, enrichment disabled")
	}
	enricher := enrich.New(anthropicClient, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)

	orch := job.NewOrchestrator(crawler, enricher, job.NewRegistry(), job.NewBroker(), st)

	return &pipelineEnv{Store: st, Orchestrator: orch}, nil
}

// loadKeywords resolves the link-prioritizer vocabulary: inline config
// wins, then a keywords file, then the built-in default.
func loadKeywords() ([]string, error) {
	if len(cfg.Crawl.Keywords) > 0 {
		return cfg.Crawl.Keywords, nil
	}
	if cfg.Crawl.KeywordsFile != "" {
		return crawl.LoadKeywords(cfg.Crawl.KeywordsFile)
	}
	return nil, nil
}
