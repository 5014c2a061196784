// package formatter renders import results as reports (JSON, YAML, CSV, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/desertthunder/spimport/internal/providers"
	"github.com/desertthunder/spimport/internal/shared"
	"github.com/desertthunder/spimport/internal/tasks"
	"gopkg.in/yaml.v3"
)

// Report formats accepted by [Render] and [WriteReport].
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCSV  = "csv"
	FormatText = "txt"
)

// Formats lists the accepted report formats, for help text.
var Formats = []string{FormatJSON, FormatYAML, FormatCSV, FormatText}

// Entry statuses.
const (
	StatusMatched      = "matched"
	StatusUnmatched    = "unmatched"
	StatusSearchFailed = "search_failed"
	StatusNotSearched  = "not_searched"
)

// Counts summarises a run.
type Counts struct {
	Queries          int `json:"queries" yaml:"queries"`
	Matched          int `json:"matched" yaml:"matched"`
	Unmatched        int `json:"unmatched" yaml:"unmatched"`
	SearchFailed     int `json:"search_failed" yaml:"search_failed"`
	NotSearched      int `json:"not_searched,omitempty" yaml:"not_searched,omitempty"`
	ExtractionFailed int `json:"extraction_failed" yaml:"extraction_failed"`
	Submitted        int `json:"submitted" yaml:"submitted"`
	SubmitFailed     int `json:"submit_failed" yaml:"submit_failed"`
}

// Entry is one query and its outcome.
type Entry struct {
	Status     string `json:"status" yaml:"status"`
	ArtistKey  string `json:"artist_key" yaml:"artist_key"`
	SearchText string `json:"search_text" yaml:"search_text"`
	URI        string `json:"uri,omitempty" yaml:"uri,omitempty"`
	Reason     string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// BatchEntry is one submitted batch.
type BatchEntry struct {
	Batch  int    `json:"batch" yaml:"batch"`
	Tracks int    `json:"tracks" yaml:"tracks"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report is the serializable form of a [tasks.ImportResult].
type Report struct {
	RunID      string                        `json:"run_id" yaml:"run_id"`
	Source     string                        `json:"source" yaml:"source"`
	PlaylistID string                        `json:"playlist_id,omitempty" yaml:"playlist_id,omitempty"`
	DryRun     bool                          `json:"dry_run" yaml:"dry_run"`
	StartedAt  time.Time                     `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time                     `json:"finished_at" yaml:"finished_at"`
	Counts     Counts                        `json:"counts" yaml:"counts"`
	Entries    []Entry                       `json:"entries" yaml:"entries"`
	Extraction []providers.ExtractionFailure `json:"extraction_failures,omitempty" yaml:"extraction_failures,omitempty"`
	Batches    []BatchEntry                  `json:"batches,omitempty" yaml:"batches,omitempty"`
}

// NewReport converts a result into a report.
func NewReport(result *tasks.ImportResult) Report {
	report := Report{
		RunID:      result.RunID,
		Source:     result.Source,
		PlaylistID: result.PlaylistID,
		DryRun:     result.DryRun,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Counts: Counts{
			Queries:          len(result.Queries),
			Matched:          result.Matched,
			Unmatched:        result.Unmatched,
			SearchFailed:     result.SearchFailed,
			NotSearched:      result.NotSearched,
			ExtractionFailed: result.ExtractionFailed,
			Submitted:        result.Submitted,
			SubmitFailed:     result.SubmitFailed,
		},
		Entries:    make([]Entry, 0, len(result.Queries)),
		Extraction: result.Extraction,
	}

	for _, q := range result.Queries {
		entry := Entry{ArtistKey: q.Query.ArtistKey, SearchText: q.Query.SearchText}
		switch {
		case errors.Is(q.Err, shared.ErrNotSearched):
			entry.Status = StatusNotSearched
			entry.Reason = q.Err.Error()
		case q.Err != nil:
			entry.Status = StatusSearchFailed
			entry.Reason = q.Err.Error()
		case q.Match.Ok():
			entry.Status = StatusMatched
			entry.URI = q.Match.URI
		case q.Match.Reason != "":
			entry.Status = StatusUnmatched
			entry.Reason = q.Match.Reason
		default:
			entry.Status = "pending"
		}
		report.Entries = append(report.Entries, entry)
	}

	for _, b := range result.Batches {
		entry := BatchEntry{Batch: b.Index + 1, Tracks: len(b.URIs)}
		if b.Err != nil {
			entry.Error = b.Err.Error()
		}
		report.Batches = append(report.Batches, entry)
	}
	return report
}

// ReportToJSON renders an indented JSON report.
func ReportToJSON(report Report) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return append(data, '\n'), nil
}

// ReportToYAML renders a YAML report.
func ReportToYAML(report Report) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal YAML report: %w", err)
	}
	return buf.Bytes(), nil
}

// ReportToCSV renders one row per query with columns: Status, Artist, Query, URI, Reason.
// Extraction failures follow as rows with an extraction_failed status.
func ReportToCSV(report Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Status", "Artist", "Query", "URI", "Reason"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range report.Entries {
		if err := writer.Write([]string{e.Status, e.ArtistKey, e.SearchText, e.URI, e.Reason}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	for _, f := range report.Extraction {
		if err := writer.Write([]string{"extraction_failed", "", f.Raw, "", f.Reason}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ReportToText renders a human-readable summary listing everything that did not make it.
func ReportToText(report Report) ([]byte, error) {
	var buf bytes.Buffer
	c := report.Counts

	fmt.Fprintf(&buf, "Import %s (%s)\n", report.RunID, report.Source)
	if report.PlaylistID != "" {
		fmt.Fprintf(&buf, "Playlist: %s\n", report.PlaylistID)
	}
	if report.DryRun {
		buf.WriteString("Dry run: nothing was added\n")
	}
	fmt.Fprintf(&buf, "Queries: %d\n", c.Queries)
	fmt.Fprintf(&buf, "Matched: %d\n", c.Matched)
	fmt.Fprintf(&buf, "Unmatched: %d\n", c.Unmatched)
	fmt.Fprintf(&buf, "Search failed: %d\n", c.SearchFailed)
	if c.NotSearched > 0 {
		fmt.Fprintf(&buf, "Not searched: %d\n", c.NotSearched)
	}
	fmt.Fprintf(&buf, "Not extracted: %d\n", c.ExtractionFailed)
	fmt.Fprintf(&buf, "Added: %d %s\n", c.Submitted, shared.Plural(c.Submitted, "track"))
	if c.SubmitFailed > 0 {
		fmt.Fprintf(&buf, "Failed to add: %d %s\n", c.SubmitFailed, shared.Plural(c.SubmitFailed, "track"))
	}

	var missing []Entry
	for _, e := range report.Entries {
		if e.Status != StatusMatched {
			missing = append(missing, e)
		}
	}
	if len(missing) > 0 {
		buf.WriteString("\nCould not find:\n")
		for i, e := range missing {
			fmt.Fprintf(&buf, "%d. %s [%s]: %s\n", i+1, e.SearchText, e.ArtistKey, e.Reason)
		}
	}

	if len(report.Extraction) > 0 {
		buf.WriteString("\nSkipped source entries:\n")
		for _, f := range report.Extraction {
			fmt.Fprintf(&buf, "- item %d %q: %s\n", f.Index, f.Raw, f.Reason)
		}
	}

	var failed []BatchEntry
	for _, b := range report.Batches {
		if b.Error != "" {
			failed = append(failed, b)
		}
	}
	if len(failed) > 0 {
		buf.WriteString("\nFailed batches:\n")
		for _, b := range failed {
			fmt.Fprintf(&buf, "- batch %d (%d tracks): %s\n", b.Batch, b.Tracks, b.Error)
		}
	}
	return buf.Bytes(), nil
}

// QueriesToText lists queries one per line, as printed by preview.
func QueriesToText(report Report) []byte {
	var buf bytes.Buffer
	for i, e := range report.Entries {
		artist := e.ArtistKey
		if artist == "" {
			artist = "-"
		}
		fmt.Fprintf(&buf, "%d. %s\t(%s)\n", i+1, e.SearchText, artist)
	}
	return buf.Bytes()
}

// Render renders report in format.
func Render(report Report, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return ReportToJSON(report)
	case FormatYAML, "yml":
		return ReportToYAML(report)
	case FormatCSV:
		return ReportToCSV(report)
	case FormatText, "text":
		return ReportToText(report)
	default:
		return nil, fmt.Errorf("%w: report format %q (expected one of %s)",
			shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// Fprint renders report in format to w.
func Fprint(w io.Writer, report Report, format string) error {
	data, err := Render(report, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// WriteReport writes the report for result to path, creating parent directories.
//
// An empty format is inferred from the file extension, falling back to JSON.
func WriteReport(result *tasks.ImportResult, format, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("spimport_%s.%s", result.RunID, extensionFor(format))
	}
	if format == "" {
		format = extensionFor(strings.TrimPrefix(filepath.Ext(path), "."))
	}

	data, err := Render(NewReport(result), format)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

func extensionFor(format string) string {
	switch strings.ToLower(format) {
	case FormatYAML, "yml":
		return FormatYAML
	case FormatCSV:
		return FormatCSV
	case FormatText, "text":
		return FormatText
	default:
		return FormatJSON
	}
}
