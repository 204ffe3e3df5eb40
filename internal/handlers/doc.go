// Package handlers implements per-format validation and artifact generation for browser tracks.
//
// # Contract
//
// Every format implements [Handler]:
//
//  1. [Handler.Extensions] : ordered file suffixes used for type sniffing (case-insensitive,
//     URL query strings ignored)
//  2. [Handler.Validate] : precondition checks such as a resolvable path or co-located index.
//     Ordinary problems are returned in [Validation]; only configuration errors are returned as errors
//  3. [Handler.Generate] : writes the JSON track configuration, or only builds it in dry runs
//
// # Families
//
// [SingleAssembly] returns bigwig, bam, cram, vcf, bed, gtf, gff, combo and auto.
// [DualAssembly] returns paf, pif, maf and mcscan, which operate on
// [models.SyntenyTrackDescriptor] values and store artifacts per canonical assembly pair.
//
// A [Registry] keeps handlers in registration order and is the source of the type
// subdirectory list used by every existence scan.
//
// Artifacts are written to a temporary file and renamed into place.
package handlers
