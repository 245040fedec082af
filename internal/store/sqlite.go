package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/intel-crawler/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS crawl_cache (
	id         TEXT PRIMARY KEY,
	website    TEXT NOT NULL,
	pages      TEXT NOT NULL,
	crawled_at DATETIME NOT NULL DEFAULT (datetime('now')),
	expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	input_path   TEXT NOT NULL,
	total        INTEGER NOT NULL,
	completed    INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL DEFAULT 'running',
	error        TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_crawl_cache_website ON crawl_cache(website);
CREATE INDEX IF NOT EXISTS idx_crawl_cache_expires_at ON crawl_cache(expires_at);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetCachedCrawl(ctx context.Context, website string) (*model.CrawlCache, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, website, pages, crawled_at, expires_at FROM crawl_cache
		 WHERE website = ? AND expires_at > datetime('now')
		 ORDER BY crawled_at DESC LIMIT 1`,
		website,
	)

	var cc model.CrawlCache
	var pagesJSON string
	err := row.Scan(&cc.ID, &cc.Website, &pagesJSON, &cc.CrawledAt, &cc.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get cached crawl")
	}
	if err := json.Unmarshal([]byte(pagesJSON), &cc.Pages); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal cached pages")
	}
	return &cc, nil
}

func (s *SQLiteStore) SetCachedCrawl(ctx context.Context, website string, pages []model.Page, ttl time.Duration) error {
	id := uuid.New().String()
	now := time.Now().UTC()

	pagesJSON, err := json.Marshal(pages)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal pages")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO crawl_cache (id, website, pages, crawled_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		id, website, string(pagesJSON), now, now.Add(ttl),
	)
	return eris.Wrap(err, "sqlite: set cached crawl")
}

func (s *SQLiteStore) DeleteExpiredCrawls(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM crawl_cache WHERE expires_at <= datetime('now')`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired crawls")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) CreateRun(ctx context.Context, inputPath string, total int) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, input_path, total, completed, status, created_at) VALUES (?, ?, ?, 0, ?, ?)`,
		id, inputPath, total, string(model.RunStatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		InputPath: inputPath,
		Total:     total,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus, completed int, errMsg string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(status), completed, nullIfEmpty(errMsg), now, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input_path, total, completed, status, error, created_at, completed_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var errMsg sql.NullString
		var completedAt sql.NullTime
		if err := rows.Scan(&r.ID, &r.InputPath, &r.Total, &r.Completed, &r.Status, &errMsg, &r.CreatedAt, &completedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if errMsg.Valid {
			r.Error = errMsg.String
		}
		if completedAt.Valid {
			t := completedAt.Time
			r.CompletedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// helpers

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
