// Package repositories implements SQLite persistence for generation run history.
//
// [RunRepository] implements [models.Repository] for [models.GenerationRun] and stores the
// per-track failures of each run alongside it. Runs are soft deleted via deleted_at
// and excluded from queries by default.
//
// Sequence numbers provide stable, human-readable ordering (run #42) independent of UUIDs and creation timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
