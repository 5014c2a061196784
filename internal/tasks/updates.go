package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	GatherSource Phase = iota
	BuildQueries
	SearchTracks
	SubmitBatches
	Done
)

func (p Phase) String() string {
	switch p {
	case GatherSource:
		return "gather_source"
	case BuildQueries:
		return "build_queries"
	case SearchTracks:
		return "search_tracks"
	case SubmitBatches:
		return "submit_batches"
	case Done:
		return "done"
	default:
		return ""
	}
}

func gatherUpdate(source string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   GatherSource,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Reading %s source...", source),
	}
}

func queriesBuiltUpdate(queries, failures int) ProgressUpdate {
	msg := fmt.Sprintf("Built %d queries", queries)
	if failures > 0 {
		msg += fmt.Sprintf(" (%d entries skipped)", failures)
	}
	return ProgressUpdate{
		Phase:   BuildQueries,
		Step:    1,
		Total:   1,
		Message: msg,
	}
}

func searchStartedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    0,
		Total:   total,
		Message: "Searching for tracks on Spotify...",
	}
}

func searchTrackUpdate(step, total int, qr QueryResult) ProgressUpdate {
	mark := "✓"
	switch {
	case qr.Err != nil:
		mark = "!"
	case !qr.Match.Ok():
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, qr.Query.SearchText),
		Data:    qr,
	}
}

func submitStartedUpdate(batches, uris int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SubmitBatches,
		Step:    0,
		Total:   batches,
		Message: fmt.Sprintf("Adding %d tracks in %d batches...", uris, batches),
	}
}

func batchUpdate(step, total int, b BatchResult) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ batch %d (%d tracks)", step, total, b.Index+1, len(b.URIs))
	if b.Err != nil {
		msg = fmt.Sprintf("[%d/%d] ✗ batch %d: %v", step, total, b.Index+1, b.Err)
	}
	return ProgressUpdate{
		Phase:   SubmitBatches,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    b,
	}
}

func doneUpdate(result *ImportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    1,
		Total:   1,
		Message: result.Summary(),
		Data:    result,
	}
}
