// Package job runs batches and tracks their state. At most one batch is
// in flight at a time; a new submission is rejected, never queued,
// while another is running.
package job

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/intel-crawler/internal/model"
	"github.com/sells-group/intel-crawler/internal/report"
)

// ErrJobRunning is returned when a submission arrives while a batch is
// still in flight.
var ErrJobRunning = eris.New("job: a batch is already running")

// state is the mutable record of the current (or most recent) job.
// A new submission replaces it wholesale.
type state struct {
	id             string
	status         model.JobStatus
	total          int
	completed      int
	currentCompany string
	errMsg         string
	rows           [][]string
}

// Registry holds the single job slot. All access is mutex guarded; the
// orchestrator writes, HTTP handlers read snapshots.
type Registry struct {
	mu  sync.Mutex
	job *state
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Begin claims the job slot for a new batch. It fails with
// ErrJobRunning if the current job is still in flight; a finished job
// is replaced.
func (r *Registry) Begin(total int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.job != nil && r.job.status == model.JobStatusRunning {
		return "", ErrJobRunning
	}

	id := uuid.New().String()
	r.job = &state{
		id:     id,
		status: model.JobStatusRunning,
		total:  total,
		rows:   make([][]string, 0, total),
	}
	return id, nil
}

// Snapshot returns the externally visible view of the current job.
func (r *Registry) Snapshot() model.JobSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.job == nil {
		return model.JobSnapshot{Status: model.JobStatusIdle}
	}
	return model.JobSnapshot{
		ID:             r.job.id,
		Status:         r.job.status,
		Total:          r.job.total,
		Completed:      r.job.completed,
		CurrentCompany: r.job.currentCompany,
		Error:          r.job.errMsg,
	}
}

// Results returns the accumulated output rows as objects keyed by
// column name, in completion order.
func (r *Registry) Results() []map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.job == nil {
		return nil
	}
	out := make([]map[string]string, 0, len(r.job.rows))
	for _, row := range r.job.rows {
		obj := make(map[string]string, len(report.Columns))
		for i, col := range report.Columns {
			if i < len(row) {
				obj[col] = row[i]
			} else {
				obj[col] = ""
			}
		}
		out = append(out, obj)
	}
	return out
}

func (r *Registry) setCurrent(company string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.job != nil {
		r.job.currentCompany = company
	}
}

func (r *Registry) record(row []string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.job == nil {
		return 0
	}
	r.job.rows = append(r.job.rows, row)
	r.job.completed++
	return r.job.completed
}

func (r *Registry) finish(status model.JobStatus, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.job == nil {
		return
	}
	r.job.status = status
	r.job.errMsg = errMsg
	r.job.currentCompany = ""
}
