package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/intel-crawler/internal/model"
)

// Pool abstracts the pgx connection pool so the store can be tested
// with pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool creates a PostgresStore around an existing pool.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS crawl_cache (
	id         UUID PRIMARY KEY,
	website    TEXT NOT NULL,
	pages      JSONB NOT NULL,
	crawled_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id           UUID PRIMARY KEY,
	input_path   TEXT NOT NULL,
	total        INTEGER NOT NULL,
	completed    INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL DEFAULT 'running',
	error        TEXT,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_crawl_cache_website ON crawl_cache(website);
CREATE INDEX IF NOT EXISTS idx_crawl_cache_expires_at ON crawl_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetCachedCrawl(ctx context.Context, website string) (*model.CrawlCache, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, website, pages, crawled_at, expires_at FROM crawl_cache
		 WHERE website = $1 AND expires_at > now()
		 ORDER BY crawled_at DESC LIMIT 1`,
		website,
	)

	var cc model.CrawlCache
	var pagesJSON []byte
	err := row.Scan(&cc.ID, &cc.Website, &pagesJSON, &cc.CrawledAt, &cc.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get cached crawl")
	}
	if err := json.Unmarshal(pagesJSON, &cc.Pages); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal cached pages")
	}
	return &cc, nil
}

func (s *PostgresStore) SetCachedCrawl(ctx context.Context, website string, pages []model.Page, ttl time.Duration) error {
	pagesJSON, err := json.Marshal(pages)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal pages")
	}

	now := time.Now().UTC()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO crawl_cache (id, website, pages, crawled_at, expires_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), website, pagesJSON, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set cached crawl")
}

func (s *PostgresStore) DeleteExpiredCrawls(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM crawl_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete expired crawls")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, inputPath string, total int) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, input_path, total, completed, status, created_at) VALUES ($1, $2, $3, 0, $4, $5)`,
		id, inputPath, total, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		InputPath: inputPath,
		Total:     total,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus, completed int, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, completed = $2, error = NULLIF($3, ''), completed_at = $4 WHERE id = $5`,
		string(status), completed, errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, input_path, total, completed, status, error, created_at, completed_at
		 FROM runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var errMsg *string
		var completedAt *time.Time
		if err := rows.Scan(&r.ID, &r.InputPath, &r.Total, &r.Completed, &r.Status, &errMsg, &r.CreatedAt, &completedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if errMsg != nil {
			r.Error = *errMsg
		}
		r.CompletedAt = completedAt
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}
