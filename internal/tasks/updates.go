package tasks

import (
	"fmt"

	"github.com/desertthunder/jbtracks/internal/handlers"
	"github.com/desertthunder/jbtracks/internal/models"
)

// ProgressUpdate represents a progress event during a generation or cleanup run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data, the [models.GenerationResult] of a track
}

// Operation phase enumeration
type Phase int

const (
	GenerateRegular Phase = iota
	GenerateCombo
	GenerateSynteny
	Complete
)

func (p Phase) String() string {
	switch p {
	case GenerateRegular:
		return "generate_tracks"
	case GenerateCombo:
		return "generate_combo"
	case GenerateSynteny:
		return "generate_synteny"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func label(dryRun bool) string {
	if dryRun {
		return handlers.DryRunLabel
	}
	return ""
}

func trackUpdate(phase Phase, step, total int, d *models.TrackDescriptor, res models.GenerationResult, dryRun bool) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] %s %s%s", step, total, res.Outcome, d.TrackID, label(dryRun))
	if res.Outcome == models.Failed {
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %s%s", step, total, d.TrackID, res.Reason, label(dryRun))
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}

func completeUpdate(report *models.BatchReport, dryRun bool) ProgressUpdate {
	c := report.Counts
	return ProgressUpdate{
		Phase:   Complete,
		Step:    c.Total,
		Total:   c.Total,
		Message: fmt.Sprintf("✓ %d created, %d skipped, %d failed%s", c.Created, c.Skipped, c.Failed, label(dryRun)),
		Data:    report,
	}
}
