// Package tasks orchestrates batch generation of track configs with real-time progress reporting.
//
// # Generators
//
// [TrackGenerator] handles single-assembly tracks and [SyntenyTrackGenerator] handles
// tracks between two assemblies. Both are built from an explicit, ordered list of
// [handlers.Handler] values; a handler that cannot be registered is logged and left out.
//
// Each generator exposes the same operations:
//
//  1. LoadFromSheet : download and parse a sheet through a [services.SheetSource]
//     - a missing required column aborts the load with [shared.ErrSchema]
//
//  2. GenerateTracks : run the batch protocol over a list of descriptors
//     - an existing artifact is Skipped unless the [models.ForcePolicy] applies to it
//     - otherwise the type is sniffed, the handler validates and writes the artifact
//     - unknown types, missing handlers and validation failures are Failed entries
//     - a configuration error ([shared.ErrConfiguration]) stops the batch
//
//  3. CleanOrphanedTracks : remove artifacts whose IDs left the sheet
//
// TrackExists scans every registered type directory, so adding a handler extends
// the scan without further changes.
//
// # Progress Reporting
//
// Operations accept an optional channel of [ProgressUpdate]. Updates use select
// with default so a slow reader never blocks a batch.
//
// Batches are sequential. Nothing locks the artifact tree, so concurrent runs
// against the same assembly may both write the same artifact.
package tasks
