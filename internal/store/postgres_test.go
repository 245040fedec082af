package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/intel-crawler/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock), mock
}

func TestPostgresGetCachedCrawl(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	pages := []model.Page{{URL: "https://acme.com/", Text: "Founded in 1998."}}
	pagesJSON, err := json.Marshal(pages)
	require.NoError(t, err)

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, website, pages, crawled_at, expires_at FROM crawl_cache`).
		WithArgs("https://acme.com/").
		WillReturnRows(pgxmock.NewRows([]string{"id", "website", "pages", "crawled_at", "expires_at"}).
			AddRow("id-1", "https://acme.com/", pagesJSON, now, now.Add(time.Hour)))

	cached, err := s.GetCachedCrawl(context.Background(), "https://acme.com/")
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, pages, cached.Pages)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetCachedCrawlMiss(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, website, pages, crawled_at, expires_at FROM crawl_cache`).
		WithArgs("https://unknown.com/").
		WillReturnRows(pgxmock.NewRows([]string{"id", "website", "pages", "crawled_at", "expires_at"}))

	cached, err := s.GetCachedCrawl(context.Background(), "https://unknown.com/")
	require.NoError(t, err)
	assert.Nil(t, cached)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSetCachedCrawl(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO crawl_cache`).
		WithArgs(pgxmock.AnyArg(), "https://acme.com/", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SetCachedCrawl(context.Background(), "https://acme.com/",
		[]model.Page{{URL: "https://acme.com/", Text: "x"}}, time.Hour)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteExpiredCrawls(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM crawl_cache WHERE expires_at`).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := s.DeleteExpiredCrawls(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO runs`).
		WithArgs(pgxmock.AnyArg(), "input.csv", 5, "running", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run, err := s.CreateRun(context.Background(), "input.csv", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompleteRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status`).
		WithArgs("complete", 5, "", pgxmock.AnyArg(), "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.CompleteRun(context.Background(), "run-1", model.RunStatusComplete, 5, "")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCompleteRunNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE runs SET status`).
		WithArgs("complete", 0, "", pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.CompleteRun(context.Background(), "missing", model.RunStatusComplete, 0, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListRuns(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	completed := now.Add(time.Minute)
	errMsg := "boom"
	mock.ExpectQuery(`SELECT id, input_path, total, completed, status, error, created_at, completed_at`).
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "input_path", "total", "completed", "status", "error", "created_at", "completed_at"}).
			AddRow("run-2", "b.csv", 3, 1, "failed", &errMsg, now, &completed).
			AddRow("run-1", "a.csv", 2, 2, "complete", (*string)(nil), now.Add(-time.Hour), &completed))

	runs, err := s.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "boom", runs[0].Error)
	assert.Equal(t, model.RunStatusComplete, runs[1].Status)
	assert.Empty(t, runs[1].Error)
	assert.NoError(t, mock.ExpectationsWereMet())
}
