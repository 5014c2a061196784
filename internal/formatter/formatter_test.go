package formatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spimport/internal/models"
	"github.com/desertthunder/spimport/internal/providers"
	"github.com/desertthunder/spimport/internal/shared"
	"github.com/desertthunder/spimport/internal/tasks"
	th "github.com/desertthunder/spimport/internal/testing"
	"gopkg.in/yaml.v3"
)

func sampleResult() *tasks.ImportResult {
	started := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return &tasks.ImportResult{
		RunID:      "run-1",
		Source:     "csv",
		PlaylistID: "PL1",
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
		Queries: []tasks.QueryResult{
			{Query: models.Query{ArtistKey: "queen", SearchText: "queen bohemian rhapsody"}, Candidates: 3, Match: models.Matched("spotify:track:1")},
			{Query: models.Query{ArtistKey: "daft punk", SearchText: "daft punk one more time"}, Candidates: 1, Match: models.Unmatched("no candidate with matching artist")},
			{Query: models.Query{ArtistKey: "abba", SearchText: "abba, waterloo"}, Err: fmt.Errorf("%w: status 500", shared.ErrAPIRequest)},
		},
		Extraction: []providers.ExtractionFailure{{Index: 4, Raw: "   ", Reason: "empty title"}},
		Batches: []tasks.BatchResult{
			{Index: 0, URIs: []string{"spotify:track:1"}},
			{Index: 1, URIs: []string{"spotify:track:2"}, Err: fmt.Errorf("%w: boom", shared.ErrBatchSubmit)},
		},
		Matched:          1,
		Unmatched:        1,
		SearchFailed:     1,
		ExtractionFailed: 1,
		Submitted:        1,
		SubmitFailed:     1,
	}
}

func TestNewReport(t *testing.T) {
	report := NewReport(sampleResult())

	if report.Counts.Queries != 3 || report.Counts.Matched != 1 || report.Counts.SubmitFailed != 1 {
		t.Errorf("unexpected counts %+v", report.Counts)
	}

	wantStatus := []string{StatusMatched, StatusUnmatched, StatusSearchFailed}
	for i, want := range wantStatus {
		if report.Entries[i].Status != want {
			t.Errorf("entry %d status = %s, want %s", i, report.Entries[i].Status, want)
		}
	}
	if report.Entries[0].URI != "spotify:track:1" {
		t.Errorf("expected matched URI, got %q", report.Entries[0].URI)
	}
	if !strings.Contains(report.Entries[2].Reason, "status 500") {
		t.Errorf("expected search error as reason, got %q", report.Entries[2].Reason)
	}
	if len(report.Batches) != 2 || report.Batches[0].Batch != 1 || report.Batches[1].Error == "" {
		t.Errorf("unexpected batches %+v", report.Batches)
	}

	t.Run("not searched", func(t *testing.T) {
		result := sampleResult()
		result.Queries = append(result.Queries, tasks.QueryResult{
			Query: models.Query{ArtistKey: "muse", SearchText: "muse uprising"},
			Err:   shared.ErrNotSearched,
		})
		result.NotSearched = 1

		report := NewReport(result)
		if report.Counts.NotSearched != 1 || report.Entries[3].Status != StatusNotSearched {
			t.Errorf("expected a not searched entry, got %+v / %+v", report.Counts, report.Entries[3])
		}
		out, err := ReportToText(report)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(string(out), "Not searched: 1") {
			t.Errorf("expected not searched count in text report:\n%s", out)
		}
	})
}

func TestRenderers(t *testing.T) {
	report := NewReport(sampleResult())

	t.Run("JSON", func(t *testing.T) {
		data, err := ReportToJSON(report)
		if err != nil {
			t.Fatalf("ReportToJSON failed: %v", err)
		}
		var decoded Report
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.RunID != "run-1" || len(decoded.Entries) != 3 || len(decoded.Extraction) != 1 {
			t.Errorf("unexpected decoded report %+v", decoded)
		}
	})

	t.Run("YAML", func(t *testing.T) {
		data, err := ReportToYAML(report)
		if err != nil {
			t.Fatalf("ReportToYAML failed: %v", err)
		}
		var decoded map[string]any
		if err := yaml.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid YAML: %v", err)
		}
		if decoded["run_id"] != "run-1" || decoded["source"] != "csv" {
			t.Errorf("unexpected YAML document %v", decoded)
		}
		if !strings.Contains(string(data), "search_text: queen bohemian rhapsody") {
			t.Errorf("YAML missing entry, got:\n%s", data)
		}
	})

	t.Run("CSV", func(t *testing.T) {
		data, err := ReportToCSV(report)
		if err != nil {
			t.Fatalf("ReportToCSV failed: %v", err)
		}
		output := string(data)
		lines := strings.Split(strings.TrimSpace(output), "\n")
		if lines[0] != "Status,Artist,Query,URI,Reason" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if len(lines) != 5 {
			t.Errorf("expected header, 3 entries and 1 extraction row, got %d lines", len(lines))
		}
		if !strings.Contains(output, `"abba, waterloo"`) {
			t.Errorf("CSV should quote fields with commas, got: %s", output)
		}
	})

	t.Run("Text", func(t *testing.T) {
		data, err := ReportToText(report)
		if err != nil {
			t.Fatalf("ReportToText failed: %v", err)
		}
		output := string(data)
		for _, want := range []string{
			"Import run-1 (csv)",
			"Matched: 1",
			"Added: 1 track\n",
			"Could not find:",
			"daft punk one more time [daft punk]",
			"Skipped source entries:",
			"Failed batches:",
			"- batch 2 (1 tracks)",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("text report missing %q, got:\n%s", want, output)
			}
		}
		if strings.Contains(output, "queen bohemian rhapsody") {
			t.Error("matched queries should not be listed")
		}
	})

	t.Run("Queries", func(t *testing.T) {
		output := string(QueriesToText(report))
		if !strings.Contains(output, "1. queen bohemian rhapsody\t(queen)") {
			t.Errorf("unexpected query listing:\n%s", output)
		}
	})
}

func TestRender(t *testing.T) {
	report := NewReport(sampleResult())

	for _, format := range []string{"", "json", "yaml", "yml", "csv", "txt", "text"} {
		t.Run(format, func(t *testing.T) {
			if data, err := Render(report, format); err != nil || len(data) == 0 {
				t.Errorf("Render(%q) = %d bytes, %v", format, len(data), err)
			}
		})
	}

	if _, err := Render(report, "xml"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestFprint(t *testing.T) {
	report := NewReport(sampleResult())

	var buf bytes.Buffer
	if err := Fprint(&buf, report, "txt"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Import run-1") {
		t.Errorf("unexpected output %q", buf.String())
	}

	if err := Fprint(&th.FWriter{}, report, "txt"); err == nil {
		t.Error("expected write error")
	}
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()

	t.Run("explicit format", func(t *testing.T) {
		path := filepath.Join(dir, "nested", "report.out")
		written, err := WriteReport(sampleResult(), "csv", path)
		if err != nil {
			t.Fatalf("WriteReport failed: %v", err)
		}
		th.AssertFileExists(t, written)
		if !strings.HasPrefix(th.MustReadFile(t, written), "Status,Artist") {
			t.Error("expected CSV content")
		}
	})

	t.Run("format from extension", func(t *testing.T) {
		path := filepath.Join(dir, "report.yaml")
		if _, err := WriteReport(sampleResult(), "", path); err != nil {
			t.Fatalf("WriteReport failed: %v", err)
		}
		if !strings.Contains(th.MustReadFile(t, path), "run_id: run-1") {
			t.Error("expected YAML content")
		}
	})

	t.Run("unknown extension falls back to JSON", func(t *testing.T) {
		path := filepath.Join(dir, "report.out")
		if _, err := WriteReport(sampleResult(), "", path); err != nil {
			t.Fatalf("WriteReport failed: %v", err)
		}
		if !strings.HasPrefix(th.MustReadFile(t, path), "{") {
			t.Error("expected JSON content")
		}
	})

	t.Run("default path", func(t *testing.T) {
		wd := t.TempDir()
		th.MustChdir(t, wd)
		written, err := WriteReport(sampleResult(), "txt", "")
		if err != nil {
			t.Fatalf("WriteReport failed: %v", err)
		}
		if written != "spimport_run-1.txt" {
			t.Errorf("unexpected default path %s", written)
		}
		th.AssertFileExists(t, filepath.Join(wd, written))
	})
}
