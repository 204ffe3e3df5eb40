package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/jbtracks/internal/models"
	"github.com/desertthunder/jbtracks/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func partialRun(organism, assembly string) *models.GenerationRun {
	report := models.NewBatchReport()
	report.Record("cov1", "Coverage 1", models.CreatedResult())
	report.Record("cov2", "Coverage 2", models.FailedResult("data file not found"))
	report.Record("cov3", "Coverage 3", models.SkippedResult())

	run := models.NewGenerationRun(models.RunTracks, organism, assembly)
	run.SetSheet("sheet123", "0")
	run.Complete(report, nil)
	return run
}

func TestRunRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		first := partialRun("org1", "asm1")
		second := partialRun("org1", "asm1")

		if err := repo.Create(first); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if err := repo.Create(second); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		if first.ID() == "" {
			t.Error("run ID should be set after creation")
		}
		if first.Sequence() != 1 || second.Sequence() != 2 {
			t.Errorf("expected sequences 1 and 2, got %d and %d", first.Sequence(), second.Sequence())
		}
	})

	t.Run("Create rejects invalid runs", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := models.NewGenerationRun("bogus", "org1", "asm1")
		if err := repo.Create(run); err == nil {
			t.Error("expected validation error")
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := partialRun("org1", "asm1")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		retrieved, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}

		if retrieved.Status() != models.RunPartial {
			t.Errorf("expected status %s, got %s", models.RunPartial, retrieved.Status())
		}
		if retrieved.Counts() != run.Counts() {
			t.Errorf("expected counts %+v, got %+v", run.Counts(), retrieved.Counts())
		}
		if retrieved.SheetID() != "sheet123" || retrieved.GID() != "0" {
			t.Errorf("unexpected sheet %s/%s", retrieved.SheetID(), retrieved.GID())
		}
		if retrieved.CompletedAt() == nil {
			t.Error("expected completed_at to round-trip")
		}

		failures := retrieved.Failures()
		if len(failures) != 1 {
			t.Fatalf("expected 1 failure, got %d", len(failures))
		}
		if failures[0].ID != "cov2" || failures[0].Error != "data file not found" {
			t.Errorf("unexpected failure %+v", failures[0])
		}
	})

	t.Run("GetBySequence", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := partialRun("org1", "asm1")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		retrieved, err := repo.GetBySequence(run.Sequence())
		if err != nil {
			t.Fatalf("failed to get run by sequence: %v", err)
		}
		if retrieved.ID() != run.ID() {
			t.Errorf("expected ID %s, got %s", run.ID(), retrieved.ID())
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		if _, err := repo.Get("missing"); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
		if _, err := repo.GetBySequence(99); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
		if err := repo.Delete("missing"); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
		if _, err := repo.Latest(models.RunTracks, "org1", "asm1"); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("Update replaces failures", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := partialRun("org1", "asm1")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		retry := models.NewBatchReport()
		retry.Record("cov2", "Coverage 2", models.CreatedResult())
		run.Complete(retry, nil)

		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		retrieved, err := repo.Get(run.ID())
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if retrieved.Status() != models.RunCompleted {
			t.Errorf("expected status %s, got %s", models.RunCompleted, retrieved.Status())
		}
		if len(retrieved.Failures()) != 0 {
			t.Errorf("expected failures to be cleared, got %+v", retrieved.Failures())
		}
	})

	t.Run("Update records aborts", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := partialRun("org1", "asm1")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		run.Complete(models.NewBatchReport(), shared.ErrConfiguration)
		if err := repo.Update(run); err != nil {
			t.Fatalf("failed to update run: %v", err)
		}

		retrieved, _ := repo.Get(run.ID())
		if retrieved.Status() != models.RunAborted || retrieved.ErrorMessage() != shared.ErrConfiguration.Error() {
			t.Errorf("unexpected run %s %q", retrieved.Status(), retrieved.ErrorMessage())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := partialRun("org1", "asm1")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		if err := repo.Delete(run.ID()); err != nil {
			t.Fatalf("failed to delete run: %v", err)
		}
		if _, err := repo.Get(run.ID()); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("expected deleted run to be hidden, got %v", err)
		}
		if err := repo.Update(run); !errors.Is(err, ErrRunNotFound) {
			t.Errorf("expected update of deleted run to fail, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		for _, scope := range [][2]string{{"org1", "asm1"}, {"org1", "asm2"}, {"org1", "asm1"}, {"org2", "asm9"}} {
			if err := repo.Create(partialRun(scope[0], scope[1])); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}
		cleanup := models.NewGenerationRun(models.RunCleanup, "org1", "asm1")
		cleanup.Complete(nil, nil)
		if err := repo.Create(cleanup); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}

		all, err := repo.List(map[string]any{})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(all) != 5 {
			t.Fatalf("expected 5 runs, got %d", len(all))
		}
		if all[0].Sequence() != 5 || all[4].Sequence() != 1 {
			t.Errorf("expected newest first, got %d..%d", all[0].Sequence(), all[4].Sequence())
		}

		scoped, err := repo.List(map[string]any{"organism": "org1", "assembly": "asm1", "kind": string(models.RunTracks)})
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(scoped) != 2 {
			t.Errorf("expected 2 scoped runs, got %d", len(scoped))
		}

		limited, _ := repo.List(map[string]any{"limit": 2})
		if len(limited) != 2 {
			t.Errorf("expected 2 runs with limit, got %d", len(limited))
		}
	})

	t.Run("Latest", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		older := partialRun("org1", "asm1")
		newer := partialRun("org1", "asm1")
		for _, r := range []*models.GenerationRun{older, newer} {
			if err := repo.Create(r); err != nil {
				t.Fatalf("failed to create run: %v", err)
			}
		}

		latest, err := repo.Latest(models.RunTracks, "org1", "asm1")
		if err != nil {
			t.Fatalf("failed to get latest run: %v", err)
		}
		if latest.ID() != newer.ID() {
			t.Errorf("expected latest %s, got %s", newer.ID(), latest.ID())
		}
		if len(latest.Failures()) != 1 {
			t.Errorf("expected failures on latest run, got %d", len(latest.Failures()))
		}
	})

	t.Run("Delete cascades failures on hard delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewRunRepository(db)
		run := partialRun("org1", "asm1")
		if err := repo.Create(run); err != nil {
			t.Fatalf("failed to create run: %v", err)
		}
		if _, err := db.Exec("DELETE FROM runs WHERE id = ?", run.ID()); err != nil {
			t.Fatalf("failed to delete run row: %v", err)
		}

		var n int
		if err := db.QueryRow("SELECT COUNT(*) FROM run_failures WHERE run_id = ?", run.ID()).Scan(&n); err != nil {
			t.Fatal(err)
		}
		if n != 0 {
			t.Errorf("expected failures to cascade, %d left", n)
		}
	})
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "runs")
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}
}
