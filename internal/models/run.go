package models

import (
	"fmt"
	"time"
)

// RunKind identifies what a recorded run did.
type RunKind string

const (
	RunTracks  RunKind = "tracks"
	RunSynteny RunKind = "synteny"
	RunCleanup RunKind = "cleanup"
)

// RunStatus is the terminal state of a recorded run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed" // every track processed, none failed
	RunPartial   RunStatus = "partial"   // every track processed, some failed
	RunAborted   RunStatus = "aborted"   // stopped early by a configuration error
)

var _ Model = (*GenerationRun)(nil)

// GenerationRun is the persisted summary of one generation or cleanup batch.
type GenerationRun struct {
	id           string
	sequence     int
	kind         RunKind
	organism     string
	assembly     string
	sheetID      string
	gid          string
	status       RunStatus
	counts       Counts
	removed      int
	failures     []FailedEntry
	errorMessage string
	startedAt    time.Time
	completedAt  *time.Time
	createdAt    time.Time
	updatedAt    time.Time
	deletedAt    *time.Time
}

// NewGenerationRun creates a run for the given scope, started now.
func NewGenerationRun(kind RunKind, organism, assembly string) *GenerationRun {
	now := time.Now()
	return &GenerationRun{
		kind:      kind,
		organism:  organism,
		assembly:  assembly,
		status:    RunCompleted,
		startedAt: now,
		createdAt: now,
		updatedAt: now,
	}
}

// Complete copies the outcome of report into the run and stamps the completion time.
//
// A non-nil runErr marks the run as aborted.
func (r *GenerationRun) Complete(report *BatchReport, runErr error) {
	now := time.Now()
	r.completedAt = &now
	r.updatedAt = now
	if report != nil {
		r.counts = report.Counts
		r.failures = append([]FailedEntry(nil), report.Failed...)
	}
	switch {
	case runErr != nil:
		r.status = RunAborted
		r.errorMessage = runErr.Error()
	case r.counts.Failed > 0:
		r.status = RunPartial
	default:
		r.status = RunCompleted
	}
}

func (r *GenerationRun) ID() string { return r.id }
func (r *GenerationRun) Sequence() int { return r.sequence }
func (r *GenerationRun) Kind() RunKind { return r.kind }
func (r *GenerationRun) Organism() string { return r.organism }
func (r *GenerationRun) Assembly() string { return r.assembly }
func (r *GenerationRun) SheetID() string { return r.sheetID }
func (r *GenerationRun) GID() string { return r.gid }
func (r *GenerationRun) Status() RunStatus { return r.status }
func (r *GenerationRun) Counts() Counts { return r.counts }
func (r *GenerationRun) Removed() int { return r.removed }
func (r *GenerationRun) Failures() []FailedEntry { return r.failures }
func (r *GenerationRun) ErrorMessage() string { return r.errorMessage }
func (r *GenerationRun) StartedAt() time.Time { return r.startedAt }
func (r *GenerationRun) CompletedAt() *time.Time { return r.completedAt }
func (r *GenerationRun) CreatedAt() time.Time { return r.createdAt }
func (r *GenerationRun) UpdatedAt() time.Time { return r.updatedAt }
func (r *GenerationRun) DeletedAt() *time.Time { return r.deletedAt }
func (r *GenerationRun) IsDeleted() bool { return r.deletedAt != nil }
func (r *GenerationRun) SetID(id string) { r.id = id }
func (r *GenerationRun) SetSequence(seq int) { r.sequence = seq }
func (r *GenerationRun) SetStatus(s RunStatus) { r.status = s }
func (r *GenerationRun) SetCounts(c Counts) { r.counts = c }
func (r *GenerationRun) SetRemoved(n int) { r.removed = n }
func (r *GenerationRun) SetFailures(f []FailedEntry) { r.failures = f }
func (r *GenerationRun) SetErrorMessage(m string) { r.errorMessage = m }
func (r *GenerationRun) SetStartedAt(t time.Time) { r.startedAt = t }
func (r *GenerationRun) SetCompletedAt(t *time.Time) { r.completedAt = t }
func (r *GenerationRun) SetCreatedAt(t time.Time) { r.createdAt = t }
func (r *GenerationRun) SetUpdatedAt(t time.Time) { r.updatedAt = t }
func (r *GenerationRun) SetDeletedAt(t *time.Time) { r.deletedAt = t }

// SetSheet records the spreadsheet the run was loaded from.
func (r *GenerationRun) SetSheet(sheetID, gid string) {
	r.sheetID = sheetID
	r.gid = gid
}

// Validate checks that the run can be persisted.
func (r *GenerationRun) Validate() error {
	switch r.kind {
	case RunTracks, RunSynteny, RunCleanup:
	default:
		return fmt.Errorf("invalid run kind: %q", r.kind)
	}
	switch r.status {
	case RunCompleted, RunPartial, RunAborted:
	default:
		return fmt.Errorf("invalid run status: %q", r.status)
	}
	c := r.counts
	if c.Total != c.Created+c.Failed+c.Skipped {
		return fmt.Errorf("inconsistent counts: total %d != %d+%d+%d", c.Total, c.Created, c.Failed, c.Skipped)
	}
	if r.startedAt.IsZero() {
		return fmt.Errorf("started_at is required")
	}
	return nil
}
