// Package providers reads playlist descriptions from the supported sources and
// turns them into search queries.
//
// Each source implements [Provider]:
//   - [FileRecords]: a CSV file with an artist,track header
//   - [StructuredExport]: a Tidal playlist export (JSON)
//   - [WebPlaylist]: a public YouTube playlist, fetched page by page
//
// [Select] picks the implementation once, from the platform name given on the
// command line. Gather errors wrap [shared.ErrSourceUnavailable],
// [shared.ErrSourceMalformed] or [shared.ErrSourceEmpty]; items that cannot be
// turned into a query are reported as [ExtractionFailure] values instead.
package providers
