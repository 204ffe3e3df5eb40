// Package services obtains track descriptors from the spreadsheets a deployment is curated in.
//
// # Sheet Source
//
// Generators depend only on the [SheetSource] interface. [SheetService] implements it against the
// public TSV export of a spreadsheet tab, addressed by sheet ID and gid.
//
// Downloads share one [rate.Limiter] and retry transport errors, 429 and 5xx responses with
// exponential backoff. Anything else fails immediately with [shared.ErrDownload].
//
// # Parsing
//
// [ParseTracks] turns a track sheet into regular and combo descriptors:
//   - Header names are trimmed and lowercased; columns starting with "#" are ignored
//   - Rows missing track_id, name or track_path are skipped
//   - Columns without a dedicated field are kept as free-text metadata
//   - A "# Name" line opens a combo track, "## scheme: Group" opens a color group, "###" closes the block
//
// [ParseSyntenyTracks] reads the per-row assembly pairs of a synteny sheet.
//
// Missing required columns are reported by the callers as [shared.ErrSchema].
//
// # Manifest
//
// A YAML [Manifest] lists every sheet of a deployment so that one sync command can regenerate all of them.
package services
