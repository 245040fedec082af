package job

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/intel-crawler/internal/crawl"
	"github.com/sells-group/intel-crawler/internal/model"
	"github.com/sells-group/intel-crawler/internal/report"
	"github.com/sells-group/intel-crawler/internal/store"
)

// SiteCrawler produces the per-company crawl outcome.
type SiteCrawler interface {
	Crawl(ctx context.Context, company model.Company) *crawl.Outcome
}

// Enricher generates the optional 360 record for one company.
type Enricher interface {
	Enabled() bool
	Enrich(ctx context.Context, company model.Company, aboutText string) (*model.Enrichment, error)
}

// Orchestrator processes one batch at a time: each company is crawled,
// optionally enriched, flattened, and durably appended before the next
// company starts. Per-company failures degrade; only setup failures
// abort.
type Orchestrator struct {
	crawler  SiteCrawler
	enricher Enricher
	registry *Registry
	broker   *Broker
	store    store.Store

	advisedOnce bool
}

// NewOrchestrator wires the batch pipeline. enricher and st may be nil.
func NewOrchestrator(crawler SiteCrawler, enricher Enricher, registry *Registry, broker *Broker, st store.Store) *Orchestrator {
	return &Orchestrator{
		crawler:  crawler,
		enricher: enricher,
		registry: registry,
		broker:   broker,
		store:    st,
	}
}

// Registry exposes the job slot for HTTP handlers.
func (o *Orchestrator) Registry() *Registry { return o.registry }

// Broker exposes the event stream for subscribers.
func (o *Orchestrator) Broker() *Broker { return o.broker }

// Submit validates the input, claims the job slot, and starts the batch
// in the background. Input and sink errors are fatal and leave the slot
// unclaimed.
func (o *Orchestrator) Submit(ctx context.Context, inputPath, outputPath, sheetName string) (string, error) {
	companies, err := report.ReadCompanies(inputPath)
	if err != nil {
		return "", err
	}

	sink, err := report.NewXLSXSink(outputPath, sheetName)
	if err != nil {
		return "", err
	}

	jobID, err := o.registry.Begin(len(companies))
	if err != nil {
		return "", err
	}

	runID := o.createRun(ctx, inputPath, len(companies))

	go o.runBatch(ctx, jobID, runID, companies, sink)
	return jobID, nil
}

// runBatch processes companies in input order. Row k is appended before
// company k+1 starts.
func (o *Orchestrator) runBatch(ctx context.Context, jobID, runID string, companies []model.Company, sink report.Sink) {
	total := len(companies)
	log := zap.L().With(zap.String("job_id", jobID), zap.Int("total", total))
	log.Info("batch: started")

	o.broker.Publish(model.Event{Type: model.EventStart, Total: total})

	completed := 0
	for i, company := range companies {
		if err := ctx.Err(); err != nil {
			o.fail(ctx, runID, completed, "batch cancelled", log)
			return
		}

		idx := i + 1
		o.registry.setCurrent(company.Name)
		o.broker.Publish(model.Event{
			Type:    model.EventCompanyStart,
			Index:   idx,
			Total:   total,
			Company: company.Name,
		})

		outcome := o.crawler.Crawl(ctx, company)
		enrichment := o.enrich(ctx, company, outcome)

		row := report.BuildRow(company, outcome.Facts, enrichment)
		if err := sink.Append(row); err != nil {
			// The row stays in memory and the batch continues.
			outcome.Diagnostics = append(outcome.Diagnostics, fmt.Sprintf("output write failed: %v", err))
			log.Warn("batch: sink append failed",
				zap.String("company", company.Name),
				zap.Error(err),
			)
		}
		completed = o.registry.record(row)

		o.broker.Publish(model.Event{
			Type:      model.EventCompanyDone,
			Index:     idx,
			Total:     total,
			Company:   company.Name,
			Completed: completed,
			Headline: &model.Headline{
				FoundedInfo: outcome.Facts.FoundedInfo,
				AboutUs:     outcome.Facts.AboutUs,
				Email:       outcome.Facts.Email,
				Enriched:    enrichment != nil,
				Diagnostics: outcome.Diagnostics,
			},
		})
	}

	o.registry.finish(model.JobStatusDone, "")
	o.completeRun(ctx, runID, model.RunStatusComplete, completed, "")
	o.broker.Publish(model.Event{Type: model.EventDone, Total: total, Completed: completed})
	log.Info("batch: complete", zap.Int("completed", completed))
}

// enrich runs the LLM step when configured. Failures become
// diagnostics; a missing adapter is advised once per process.
func (o *Orchestrator) enrich(ctx context.Context, company model.Company, outcome *crawl.Outcome) *model.Enrichment {
	if o.enricher == nil || !o.enricher.Enabled() {
		if !o.advisedOnce {
			zap.L().Info("batch: enrichment disabled, emitting facts-only rows")
			o.advisedOnce = true
		}
		return nil
	}

	enrichment, err := o.enricher.Enrich(ctx, company, outcome.Facts.AboutUs)
	if err != nil {
		outcome.Diagnostics = append(outcome.Diagnostics, fmt.Sprintf("enrichment failed: %v", err))
		zap.L().Warn("batch: enrichment failed",
			zap.String("company", company.Name),
			zap.Error(err),
		)
		return nil
	}
	return enrichment
}

func (o *Orchestrator) fail(ctx context.Context, runID string, completed int, msg string, log *zap.Logger) {
	o.registry.finish(model.JobStatusError, msg)
	o.completeRun(ctx, runID, model.RunStatusFailed, completed, msg)
	o.broker.Publish(model.Event{Type: model.EventError, Message: msg, Completed: completed})
	log.Warn("batch: failed", zap.String("reason", msg))
}

func (o *Orchestrator) createRun(ctx context.Context, inputPath string, total int) string {
	if o.store == nil {
		return ""
	}
	run, err := o.store.CreateRun(ctx, inputPath, total)
	if err != nil {
		zap.L().Warn("batch: failed to record run", zap.Error(err))
		return ""
	}
	return run.ID
}

func (o *Orchestrator) completeRun(ctx context.Context, runID string, status model.RunStatus, completed int, errMsg string) {
	if o.store == nil || runID == "" {
		return
	}
	if err := o.store.CompleteRun(ctx, runID, status, completed, errMsg); err != nil {
		zap.L().Warn("batch: failed to complete run record", zap.Error(err))
	}
}
