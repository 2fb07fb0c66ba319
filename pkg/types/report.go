// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ItemOutcome is the terminal state of one remote dataset within a run.
type ItemOutcome string

const (
	OutcomeCreated ItemOutcome = "created"
	OutcomeUpdated ItemOutcome = "updated"
	OutcomeSkipped ItemOutcome = "skipped"
	OutcomeErrored ItemOutcome = "errored"
)

// JobStatus is the terminal state of a run.
type JobStatus string

const (
	// JobDone means the run completed, whatever the per-item outcomes.
	JobDone JobStatus = "done"

	// JobFailed means a run-fatal error stopped the run.
	JobFailed JobStatus = "failed"
)

// HarvestItemResult records the outcome for one remote dataset.
type HarvestItemResult struct {
	RemoteID  string      `json:"remote_id" yaml:"remote_id"`
	Outcome   ItemOutcome `json:"outcome" yaml:"outcome"`
	Reason    string      `json:"reason,omitempty" yaml:"reason,omitempty"`
	DatasetID string      `json:"dataset_id,omitempty" yaml:"dataset_id,omitempty"`
}

// ReportCounts aggregates item outcomes.
type ReportCounts struct {
	Created int `json:"created" yaml:"created"`
	Updated int `json:"updated" yaml:"updated"`
	Skipped int `json:"skipped" yaml:"skipped"`
	Errored int `json:"errored" yaml:"errored"`
}

// Total returns the number of items processed.
func (c ReportCounts) Total() int {
	return c.Created + c.Updated + c.Skipped + c.Errored
}

// HarvestJobReport is the ordered result of one run. It is not modified
// after the run returns.
type HarvestJobReport struct {
	Source    string              `json:"source" yaml:"source"`
	Domain    string              `json:"domain" yaml:"domain"`
	Status    JobStatus           `json:"status" yaml:"status"`
	Error     string              `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt time.Time           `json:"started_at" yaml:"started_at"`
	EndedAt   time.Time           `json:"ended_at" yaml:"ended_at"`
	Items     []HarvestItemResult `json:"items" yaml:"items"`
	Counts    ReportCounts        `json:"counts" yaml:"counts"`
}

// Add appends an item result and updates the aggregate counts.
func (r *HarvestJobReport) Add(item HarvestItemResult) {
	r.Items = append(r.Items, item)
	switch item.Outcome {
	case OutcomeCreated:
		r.Counts.Created++
	case OutcomeUpdated:
		r.Counts.Updated++
	case OutcomeSkipped:
		r.Counts.Skipped++
	case OutcomeErrored:
		r.Counts.Errored++
	}
}

// Failed reports whether a run-fatal error stopped the run.
func (r HarvestJobReport) Failed() bool {
	return r.Status == JobFailed
}
