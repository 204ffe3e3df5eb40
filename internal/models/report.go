package models

import "strings"

// ForceMode enumerates the regeneration policies.
type ForceMode int

const (
	ForceNone ForceMode = iota // respect existing artifacts
	ForceEvery                 // regenerate every track
	ForceListed                // regenerate only the listed track IDs
)

func (m ForceMode) String() string {
	switch m {
	case ForceNone:
		return "none"
	case ForceEvery:
		return "all"
	case ForceListed:
		return "listed"
	default:
		return ""
	}
}

// ForcePolicy decides whether an existing artifact is regenerated.
//
// The zero value is [NoForce].
type ForcePolicy struct {
	mode ForceMode
	ids  map[string]struct{}
}

// NoForce skips tracks whose artifact already exists.
func NoForce() ForcePolicy { return ForcePolicy{mode: ForceNone} }

// ForceAll regenerates every track.
func ForceAll() ForcePolicy { return ForcePolicy{mode: ForceEvery} }

// ForceOnly regenerates only the given track IDs; every other existing track is skipped.
func ForceOnly(ids ...string) ForcePolicy {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = struct{}{}
		}
	}
	return ForcePolicy{mode: ForceListed, ids: set}
}

// Mode returns the policy variant.
func (p ForcePolicy) Mode() ForceMode { return p.mode }

// IDs returns the forced IDs of a [ForceOnly] policy.
func (p ForcePolicy) IDs() []string {
	ids := make([]string, 0, len(p.ids))
	for id := range p.ids {
		ids = append(ids, id)
	}
	return ids
}

// Applies reports whether trackID must be regenerated even when it exists.
func (p ForcePolicy) Applies(trackID string) bool {
	switch p.mode {
	case ForceEvery:
		return true
	case ForceListed:
		_, ok := p.ids[trackID]
		return ok
	default:
		return false
	}
}

// Outcome is the classification of a single track in a batch.
type Outcome int

const (
	Created Outcome = iota
	Skipped
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// GenerationResult is the outcome of one track, with a reason when it failed.
type GenerationResult struct {
	Outcome Outcome
	Reason  string
}

// CreatedResult, SkippedResult and FailedResult construct [GenerationResult] values.
func CreatedResult() GenerationResult { return GenerationResult{Outcome: Created} }
func SkippedResult() GenerationResult { return GenerationResult{Outcome: Skipped} }
func FailedResult(reason string) GenerationResult {
	return GenerationResult{Outcome: Failed, Reason: reason}
}

// FailedEntry identifies a track that could not be generated.
type FailedEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Error string `json:"error"`
}

// Counts summarizes a batch. Total always equals Created+Failed+Skipped.
type Counts struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// BatchReport aggregates the outcome of every track in a run.
type BatchReport struct {
	Success []string      `json:"success"`
	Failed  []FailedEntry `json:"failed"`
	Skipped []string      `json:"skipped"`
	Counts  Counts        `json:"counts"`
}

// NewBatchReport returns an empty report with non-nil lists.
func NewBatchReport() *BatchReport {
	return &BatchReport{
		Success: []string{},
		Failed:  []FailedEntry{},
		Skipped: []string{},
	}
}

// Record adds the outcome of one track and updates the counts.
func (r *BatchReport) Record(id, name string, result GenerationResult) {
	switch result.Outcome {
	case Created:
		r.Success = append(r.Success, id)
		r.Counts.Created++
	case Skipped:
		r.Skipped = append(r.Skipped, id)
		r.Counts.Skipped++
	default:
		r.Failed = append(r.Failed, FailedEntry{ID: id, Name: name, Error: result.Reason})
		r.Counts.Failed++
	}
	r.Counts.Total++
}

// Merge appends every entry of other to r.
func (r *BatchReport) Merge(other *BatchReport) {
	if other == nil {
		return
	}
	r.Success = append(r.Success, other.Success...)
	r.Skipped = append(r.Skipped, other.Skipped...)
	r.Failed = append(r.Failed, other.Failed...)
	r.Counts.Total += other.Counts.Total
	r.Counts.Created += other.Counts.Created
	r.Counts.Failed += other.Counts.Failed
	r.Counts.Skipped += other.Counts.Skipped
}

// Consistent reports whether the counts agree with the entry lists.
func (r *BatchReport) Consistent() bool {
	c := r.Counts
	return c.Total == c.Created+c.Failed+c.Skipped &&
		c.Total == len(r.Success)+len(r.Failed)+len(r.Skipped) &&
		c.Created == len(r.Success) && c.Failed == len(r.Failed) && c.Skipped == len(r.Skipped)
}
