// Package models defines the domain types of the track generation pipeline.
//
// The package contains two categories of types:
//
// 1. Descriptors: ephemeral values parsed from a spreadsheet for a single run
//   - [TrackDescriptor] : one track row (id, name, source path, category, access level, ...)
//   - [ComboTrackDescriptor] : a composite track built from color groups of member rows
//   - [SyntenyTrackDescriptor] : a track relating two organism/assembly pairs
//
// All three satisfy [Descriptor], which is what track type handlers accept.
//
// 2. Results: what a run produces
//   - [ResolvedPath] : a concrete local path or remote URL for a source path
//   - [GenerationResult] : Created, Skipped or Failed(reason) for one track
//   - [BatchReport] : every per-track outcome of a run plus counts
//   - [GenerationRun] : a persisted summary of a run for the run history database
//
// [ForcePolicy] is the tagged variant controlling regeneration of existing artifacts.
package models
