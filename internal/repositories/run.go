package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/jbtracks/internal/models"
	"github.com/desertthunder/jbtracks/internal/shared"
)

// ErrRunNotFound is returned when no live run matches a lookup.
var ErrRunNotFound = errors.New("run not found")

var _ models.Repository[*models.GenerationRun] = (*RunRepository)(nil)

// RunRepository implements models.Repository[*models.GenerationRun] for run history.
//
// Failures are written with their run and replaced wholesale on update.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = `
	id, sequence, kind, organism, assembly, sheet_id, gid, status,
	total, created, failed, skipped, removed, error_message,
	started_at, completed_at, created_at, updated_at, deleted_at`

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Create inserts a new run and its failures with a generated ID and sequence
func (r *RunRepository) Create(run *models.GenerationRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	id := shared.GenerateID()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	c := run.Counts()
	_, err = tx.Exec(`
		INSERT INTO runs (
			id, sequence, kind, organism, assembly, sheet_id, gid, status,
			total, created, failed, skipped, removed, error_message,
			started_at, completed_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, sequence, string(run.Kind()), run.Organism(), run.Assembly(), run.SheetID(), run.GID(), string(run.Status()),
		c.Total, c.Created, c.Failed, c.Skipped, run.Removed(), nullable(run.ErrorMessage()),
		run.StartedAt(), run.CompletedAt(), run.CreatedAt(), run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	if err := insertFailures(tx, id, run.Failures()); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	run.SetID(id)
	run.SetSequence(sequence)
	return nil
}

func insertFailures(tx *sql.Tx, runID string, failures []models.FailedEntry) error {
	for _, f := range failures {
		if _, err := tx.Exec(`INSERT INTO run_failures (run_id, track_id, name, error) VALUES (?, ?, ?, ?)`,
			runID, f.ID, f.Name, f.Error); err != nil {
			return fmt.Errorf("failed to insert run failure: %w", err)
		}
	}
	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.GenerationRun, error) {
	return r.getWhere("id = ?", id)
}

// GetBySequence retrieves a run by its sequence number
func (r *RunRepository) GetBySequence(sequence int) (*models.GenerationRun, error) {
	return r.getWhere("sequence = ?", sequence)
}

func (r *RunRepository) getWhere(cond string, arg any) (*models.GenerationRun, error) {
	query := "SELECT" + runColumns + " FROM runs WHERE " + cond + " AND deleted_at IS NULL"
	run, err := scanRun(r.db.QueryRow(query, arg))
	if err != nil {
		return nil, err
	}
	if err := r.loadFailures(run); err != nil {
		return nil, err
	}
	return run, nil
}

// Update rewrites the outcome of an existing run and replaces its failures
func (r *RunRepository) Update(run *models.GenerationRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	c := run.Counts()
	result, err := tx.Exec(`
		UPDATE runs
		SET status = ?, total = ?, created = ?, failed = ?, skipped = ?, removed = ?,
			error_message = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL`,
		string(run.Status()), c.Total, c.Created, c.Failed, c.Skipped, run.Removed(),
		nullable(run.ErrorMessage()), run.CompletedAt(), now, run.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, run.ID())
	}

	if _, err := tx.Exec(`DELETE FROM run_failures WHERE run_id = ?`, run.ID()); err != nil {
		return fmt.Errorf("failed to clear run failures: %w", err)
	}
	if err := insertFailures(tx, run.ID(), run.Failures()); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete soft-deletes a run by ID
func (r *RunRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE runs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// List retrieves runs matching the given criteria, newest first.
//
// Supported criteria: kind, organism, assembly, status (strings) and limit (int).
// Failures are not loaded; use [RunRepository.Get] for the full run.
func (r *RunRepository) List(criteria map[string]any) ([]*models.GenerationRun, error) {
	query := "SELECT" + runColumns + " FROM runs WHERE deleted_at IS NULL"
	args := []any{}

	for _, key := range []string{"kind", "organism", "assembly", "status"} {
		if v, ok := criteria[key].(string); ok && v != "" {
			query += " AND " + key + " = ?"
			args = append(args, v)
		}
	}

	query += " ORDER BY sequence DESC"
	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.GenerationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return runs, nil
}

// Latest returns the most recent run of kind for an organism and assembly.
func (r *RunRepository) Latest(kind models.RunKind, organism, assembly string) (*models.GenerationRun, error) {
	runs, err := r.List(map[string]any{"kind": string(kind), "organism": organism, "assembly": assembly, "limit": 1})
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("%w: no %s run for %s/%s", ErrRunNotFound, kind, organism, assembly)
	}
	return r.Get(runs[0].ID())
}

func (r *RunRepository) loadFailures(run *models.GenerationRun) error {
	rows, err := r.db.Query(`SELECT track_id, name, error FROM run_failures WHERE run_id = ? ORDER BY id`, run.ID())
	if err != nil {
		return fmt.Errorf("failed to query run failures: %w", err)
	}
	defer rows.Close()

	var failures []models.FailedEntry
	for rows.Next() {
		var f models.FailedEntry
		if err := rows.Scan(&f.ID, &f.Name, &f.Error); err != nil {
			return fmt.Errorf("failed to scan run failure: %w", err)
		}
		failures = append(failures, f)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}
	run.SetFailures(failures)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanRun scans a [sql.Row] or the current row of [sql.Rows] into a [models.GenerationRun]
func scanRun(s scanner) (*models.GenerationRun, error) {
	var (
		id, kind, organism, assembly string
		sheetID, gid, status         string
		sequence                     int
		counts                       models.Counts
		removed                      int
		errorMessage                 sql.NullString
		startedAt                    time.Time
		completedAt                  sql.NullTime
		createdAt, updatedAt         time.Time
		deletedAt                    sql.NullTime
	)

	err := s.Scan(
		&id, &sequence, &kind, &organism, &assembly, &sheetID, &gid, &status,
		&counts.Total, &counts.Created, &counts.Failed, &counts.Skipped, &removed, &errorMessage,
		&startedAt, &completedAt, &createdAt, &updatedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run := models.NewGenerationRun(models.RunKind(kind), organism, assembly)
	run.SetID(id)
	run.SetSequence(sequence)
	run.SetSheet(sheetID, gid)
	run.SetStatus(models.RunStatus(status))
	run.SetCounts(counts)
	run.SetRemoved(removed)
	if errorMessage.Valid {
		run.SetErrorMessage(errorMessage.String)
	}
	run.SetStartedAt(startedAt)
	if completedAt.Valid {
		run.SetCompletedAt(&completedAt.Time)
	}
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}
	return run, nil
}
