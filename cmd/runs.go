package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/jbtracks/internal/models"
	"github.com/desertthunder/jbtracks/internal/shared"
	"github.com/urfave/cli/v3"
)

// runView is the JSON shape of a recorded run.
type runView struct {
	ID           string               `json:"id"`
	Sequence     int                  `json:"sequence"`
	Kind         models.RunKind       `json:"kind"`
	Organism     string               `json:"organism,omitempty"`
	Assembly     string               `json:"assembly,omitempty"`
	SheetID      string               `json:"sheet_id,omitempty"`
	GID          string               `json:"gid,omitempty"`
	Status       models.RunStatus     `json:"status"`
	Counts       models.Counts        `json:"counts"`
	Removed      int                  `json:"removed"`
	Failures     []models.FailedEntry `json:"failures,omitempty"`
	ErrorMessage string               `json:"error_message,omitempty"`
	StartedAt    time.Time            `json:"started_at"`
	CompletedAt  *time.Time           `json:"completed_at,omitempty"`
}

func viewOf(run *models.GenerationRun) runView {
	return runView{
		ID:           run.ID(),
		Sequence:     run.Sequence(),
		Kind:         run.Kind(),
		Organism:     run.Organism(),
		Assembly:     run.Assembly(),
		SheetID:      run.SheetID(),
		GID:          run.GID(),
		Status:       run.Status(),
		Counts:       run.Counts(),
		Removed:      run.Removed(),
		Failures:     run.Failures(),
		ErrorMessage: run.ErrorMessage(),
		StartedAt:    run.StartedAt(),
		CompletedAt:  run.CompletedAt(),
	}
}

func runScope(run *models.GenerationRun) string {
	if run.Organism() == "" {
		return "-"
	}
	return run.Organism() + "/" + run.Assembly()
}

func sequenceArg(cmd *cli.Command) (int, error) {
	arg := cmd.StringArg("sequence")
	if arg == "" {
		return 0, fmt.Errorf("%w: run number", shared.ErrMissingArgument)
	}
	seq, err := strconv.Atoi(arg)
	if err != nil || seq <= 0 {
		return 0, fmt.Errorf("%w: run number must be a positive integer, got %q", shared.ErrInvalidArgument, arg)
	}
	return seq, nil
}

// RunsList prints recorded runs, newest first.
func (r *Runner) RunsList(ctx context.Context, cmd *cli.Command) error {
	repo, err := r.runs()
	if err != nil {
		return err
	}

	runs, err := repo.List(map[string]any{
		"kind":     cmd.String("kind"),
		"organism": cmd.String("organism"),
		"assembly": cmd.String("assembly"),
		"status":   cmd.String("status"),
		"limit":    int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		views := make([]runView, len(runs))
		for i, run := range runs {
			views[i] = viewOf(run)
		}
		return r.writeJSON(views, cmd.Bool("pretty"))
	}

	if len(runs) == 0 {
		r.writePlain("No runs recorded\n")
		return nil
	}
	for _, run := range runs {
		c := run.Counts()
		r.writePlain("#%-4d %-8s %-24s %-9s %d created, %d skipped, %d failed  %s\n",
			run.Sequence(), run.Kind(), runScope(run), run.Status(),
			c.Created, c.Skipped, c.Failed, run.StartedAt().Format(time.DateTime))
	}
	return nil
}

// RunsShow prints one run with its failures.
func (r *Runner) RunsShow(ctx context.Context, cmd *cli.Command) error {
	seq, err := sequenceArg(cmd)
	if err != nil {
		return err
	}
	repo, err := r.runs()
	if err != nil {
		return err
	}
	run, err := repo.GetBySequence(seq)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(viewOf(run), true)
	}

	c := run.Counts()
	r.writePlainHeader(fmt.Sprintf("Run #%d (%s)", run.Sequence(), run.Kind()))
	r.writePlain("Scope:    %s\n", runScope(run))
	if run.SheetID() != "" {
		r.writePlain("Sheet:    %s (gid %s)\n", run.SheetID(), run.GID())
	}
	r.writePlain("Status:   %s\n", run.Status())
	r.writePlain("Started:  %s\n", run.StartedAt().Format(time.DateTime))
	if done := run.CompletedAt(); done != nil {
		r.writePlain("Duration: %s\n", done.Sub(run.StartedAt()).Round(time.Millisecond))
	}
	r.writePlain("Counts:   %d total, %d created, %d skipped, %d failed\n", c.Total, c.Created, c.Skipped, c.Failed)
	if run.Removed() > 0 {
		r.writePlain("Removed:  %d\n", run.Removed())
	}
	if msg := run.ErrorMessage(); msg != "" {
		r.writePlain("Error:    %s\n", msg)
	}

	if failures := run.Failures(); len(failures) > 0 {
		r.writePlain("\nFailed tracks:\n")
		for _, f := range failures {
			r.writePlain("  - %s (%s): %s\n", f.ID, f.Name, f.Error)
		}
	}
	return nil
}

// RunsDelete removes a run from the history.
func (r *Runner) RunsDelete(ctx context.Context, cmd *cli.Command) error {
	seq, err := sequenceArg(cmd)
	if err != nil {
		return err
	}
	repo, err := r.runs()
	if err != nil {
		return err
	}
	run, err := repo.GetBySequence(seq)
	if err != nil {
		return err
	}
	if err := repo.Delete(run.ID()); err != nil {
		return err
	}
	r.logger.Info("deleted run", "sequence", seq, "id", run.ID())
	r.writePlain("✓ Deleted run #%d\n", seq)
	return nil
}
