// package tasks implements the playlist import pipeline.
//
// The core abstraction is ImportEngine, which drives one import run through its stages:
//
//	GatherAndBuildQueries → SearchEachQuery → MatchEachResult → BatchSubmit → Done
//
// Only gather failures abort a run. Search errors, unmatched queries and failed
// batches are recorded in the [ImportResult] and the run carries on.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks
