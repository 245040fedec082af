package model

import "time"

// JobStatus represents the lifecycle state of a batch job. Transitions
// are monotonic: Idle → Running → (Done | Error). A new submission
// replaces the state wholesale; it is never reset in place.
type JobStatus string

const (
	JobStatusIdle    JobStatus = "idle"
	JobStatusRunning JobStatus = "running"
	JobStatusDone    JobStatus = "done"
	JobStatusError   JobStatus = "error"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusError
}

// JobSnapshot is the externally visible view of a job, minus full
// results. Late event subscribers request this instead of a replay.
type JobSnapshot struct {
	ID             string    `json:"id"`
	Status         JobStatus `json:"status"`
	Total          int       `json:"total"`
	Completed      int       `json:"completed"`
	CurrentCompany string    `json:"current_company,omitempty"`
	Error          string    `json:"error,omitempty"`
}

// EventType identifies a progress event.
type EventType string

const (
	EventStart        EventType = "start"
	EventCompanyStart EventType = "company_start"
	EventCompanyDone  EventType = "company_done"
	EventDone         EventType = "done"
	EventError        EventType = "error"
)

// Headline carries the fields of a finished company worth showing in a
// progress feed, plus any non-fatal diagnostics hit along the way.
type Headline struct {
	FoundedInfo string   `json:"founded_info,omitempty"`
	AboutUs     string   `json:"about_us,omitempty"`
	Email       string   `json:"email,omitempty"`
	Enriched    bool     `json:"enriched"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// Event is one entry in the ordered progress stream of a job. Delivery
// is at-most-once per subscriber; there is no replay.
type Event struct {
	Type      EventType `json:"type"`
	Index     int       `json:"index,omitempty"`
	Total     int       `json:"total,omitempty"`
	Company   string    `json:"company,omitempty"`
	Completed int       `json:"completed,omitempty"`
	Message   string    `json:"message,omitempty"`
	Headline  *Headline `json:"headline,omitempty"`
	TS        time.Time `json:"ts"`
}

// RunStatus mirrors JobStatus for persisted run history.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one persisted batch submission.
type Run struct {
	ID          string     `json:"id"`
	InputPath   string     `json:"input_path"`
	Total       int        `json:"total"`
	Completed   int        `json:"completed"`
	Status      RunStatus  `json:"status"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
