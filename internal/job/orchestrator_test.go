package job

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/intel-crawler/internal/crawl"
	"github.com/sells-group/intel-crawler/internal/model"
	"github.com/sells-group/intel-crawler/internal/report"
)

// fakeCrawler returns canned facts and records visit order.
type fakeCrawler struct {
	visited []string
	block   chan struct{} // when set, Crawl waits on it
}

func (f *fakeCrawler) Crawl(_ context.Context, company model.Company) *crawl.Outcome {
	if f.block != nil {
		<-f.block
	}
	f.visited = append(f.visited, company.Name)
	return &crawl.Outcome{
		Facts: model.Facts{Email: "info@" + company.Website},
	}
}

type fakeEnricher struct {
	enabled bool
	err     error
}

func (f *fakeEnricher) Enabled() bool { return f.enabled }

func (f *fakeEnricher) Enrich(_ context.Context, _ model.Company, _ string) (*model.Enrichment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &model.Enrichment{}, nil
}

// failingSink always errors on append.
type failingSink struct{}

func (failingSink) Append([]string) error { return eris.New("disk full") }
func (failingSink) Path() string          { return "" }

func writeInputCSV(t *testing.T, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte("company_name,website\n"+rows), 0o644))
	return path
}

// drainUntilTerminal collects events until done/error or timeout.
func drainUntilTerminal(t *testing.T, events <-chan model.Event) []model.Event {
	t.Helper()
	var out []model.Event
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			out = append(out, ev)
			if ev.Type == model.EventDone || ev.Type == model.EventError {
				return out
			}
		case <-deadline:
			t.Fatalf("timed out waiting for terminal event; got %d events", len(out))
		}
	}
}

func newTestOrchestrator(crawler SiteCrawler, enricher Enricher) *Orchestrator {
	return NewOrchestrator(crawler, enricher, NewRegistry(), NewBroker(), nil)
}

func TestOrchestratorBatchCompleteAndOrdered(t *testing.T) {
	input := writeInputCSV(t, "Acme,acme.com\nGlobex,globex.com\n")
	output := filepath.Join(t.TempDir(), "out.xlsx")

	crawler := &fakeCrawler{}
	o := newTestOrchestrator(crawler, nil)

	events, cancel := o.Broker().Subscribe()
	defer cancel()

	jobID, err := o.Submit(context.Background(), input, output, "Results")
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	got := drainUntilTerminal(t, events)

	types := make([]model.EventType, len(got))
	for i, ev := range got {
		types[i] = ev.Type
	}
	assert.Equal(t, []model.EventType{
		model.EventStart,
		model.EventCompanyStart, model.EventCompanyDone,
		model.EventCompanyStart, model.EventCompanyDone,
		model.EventDone,
	}, types)

	// Companies processed in input order.
	assert.Equal(t, []string{"Acme", "Globex"}, crawler.visited)
	assert.Equal(t, "Acme", got[1].Company)
	assert.Equal(t, "Globex", got[3].Company)
	assert.Equal(t, 1, got[2].Completed)
	assert.Equal(t, 2, got[4].Completed)
	require.NotNil(t, got[2].Headline)
	assert.Equal(t, "info@acme.com", got[2].Headline.Email)

	snap := o.Registry().Snapshot()
	assert.Equal(t, model.JobStatusDone, snap.Status)
	assert.Equal(t, 2, snap.Completed)

	// Output workbook has header + one row per company.
	f, err := xlsx.OpenFile(output)
	require.NoError(t, err)
	assert.Len(t, f.Sheet["Results"].Rows, 3)
}

func TestOrchestratorRejectsConcurrentSubmit(t *testing.T) {
	input := writeInputCSV(t, "Acme,acme.com\n")
	dir := t.TempDir()

	crawler := &fakeCrawler{block: make(chan struct{})}
	o := newTestOrchestrator(crawler, nil)

	events, cancel := o.Broker().Subscribe()
	defer cancel()

	_, err := o.Submit(context.Background(), input, filepath.Join(dir, "a.xlsx"), "Results")
	require.NoError(t, err)

	_, err = o.Submit(context.Background(), input, filepath.Join(dir, "b.xlsx"), "Results")
	assert.ErrorIs(t, err, ErrJobRunning)

	close(crawler.block)
	drainUntilTerminal(t, events)

	// Slot is free again after the terminal event.
	_, err = o.Submit(context.Background(), input, filepath.Join(dir, "c.xlsx"), "Results")
	assert.NoError(t, err)
}

func TestOrchestratorEnrichmentFailureDegrades(t *testing.T) {
	input := writeInputCSV(t, "Acme,acme.com\n")
	output := filepath.Join(t.TempDir(), "out.xlsx")

	o := newTestOrchestrator(&fakeCrawler{}, &fakeEnricher{enabled: true, err: eris.New("api down")})

	events, cancel := o.Broker().Subscribe()
	defer cancel()

	_, err := o.Submit(context.Background(), input, output, "Results")
	require.NoError(t, err)

	got := drainUntilTerminal(t, events)
	assert.Equal(t, model.EventDone, got[len(got)-1].Type)

	done := got[2]
	require.Equal(t, model.EventCompanyDone, done.Type)
	require.NotNil(t, done.Headline)
	assert.False(t, done.Headline.Enriched)
	require.NotEmpty(t, done.Headline.Diagnostics)
	assert.Contains(t, done.Headline.Diagnostics[0], "enrichment failed")
}

func TestOrchestratorEnrichmentSuccess(t *testing.T) {
	input := writeInputCSV(t, "Acme,acme.com\n")
	output := filepath.Join(t.TempDir(), "out.xlsx")

	o := newTestOrchestrator(&fakeCrawler{}, &fakeEnricher{enabled: true})

	events, cancel := o.Broker().Subscribe()
	defer cancel()

	_, err := o.Submit(context.Background(), input, output, "Results")
	require.NoError(t, err)

	got := drainUntilTerminal(t, events)
	done := got[2]
	require.NotNil(t, done.Headline)
	assert.True(t, done.Headline.Enriched)
}

func TestOrchestratorSinkFailureContinues(t *testing.T) {
	o := newTestOrchestrator(&fakeCrawler{}, nil)

	events, cancel := o.Broker().Subscribe()
	defer cancel()

	jobID, err := o.registry.Begin(2)
	require.NoError(t, err)

	companies := []model.Company{
		{Name: "Acme", Website: "acme.com"},
		{Name: "Globex", Website: "globex.com"},
	}
	go o.runBatch(context.Background(), jobID, "", companies, failingSink{})

	got := drainUntilTerminal(t, events)
	assert.Equal(t, model.EventDone, got[len(got)-1].Type)

	// Rows are still recorded in memory despite the sink failing.
	assert.Len(t, o.Registry().Results(), 2)
	done := got[2]
	require.NotNil(t, done.Headline)
	require.NotEmpty(t, done.Headline.Diagnostics)
	assert.Contains(t, done.Headline.Diagnostics[0], "output write failed")
}

func TestOrchestratorSetupErrors(t *testing.T) {
	dir := t.TempDir()
	o := newTestOrchestrator(&fakeCrawler{}, nil)

	// Missing input file is fatal and leaves the slot unclaimed.
	_, err := o.Submit(context.Background(), filepath.Join(dir, "missing.csv"), filepath.Join(dir, "out.xlsx"), "Results")
	require.Error(t, err)
	assert.Equal(t, model.JobStatusIdle, o.Registry().Snapshot().Status)

	// Input without the required columns is fatal too.
	bad := filepath.Join(dir, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("name,url\nAcme,acme.com\n"), 0o644))
	_, err = o.Submit(context.Background(), bad, filepath.Join(dir, "out.xlsx"), "Results")
	require.Error(t, err)
	assert.Equal(t, model.JobStatusIdle, o.Registry().Snapshot().Status)
}

func TestOrchestratorCancelledContext(t *testing.T) {
	o := newTestOrchestrator(&fakeCrawler{}, nil)

	events, cancelSub := o.Broker().Subscribe()
	defer cancelSub()

	jobID, err := o.registry.Begin(1)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	go o.runBatch(ctx, jobID, "", []model.Company{{Name: "Acme", Website: "acme.com"}}, failingSink{})

	got := drainUntilTerminal(t, events)
	assert.Equal(t, model.EventError, got[len(got)-1].Type)
	assert.Equal(t, model.JobStatusError, o.Registry().Snapshot().Status)
}

var _ report.Sink = failingSink{}
