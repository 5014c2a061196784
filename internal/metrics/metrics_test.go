package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStatus(t *testing.T) {
	if got := Status(nil); got != StatusOK {
		t.Errorf("expected %s, got %s", StatusOK, got)
	}
	if got := Status(errors.New("boom")); got != StatusError {
		t.Errorf("expected %s, got %s", StatusError, got)
	}
}

func TestWriteTextfile(t *testing.T) {
	SearchesTotal.WithLabelValues(StatusOK).Inc()
	BatchesTotal.WithLabelValues(StatusError).Inc()
	TracksAddedTotal.Add(3)

	path := filepath.Join(t.TempDir(), "spimport.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read metrics file: %v", err)
	}

	for _, want := range []string{
		`spimport_searches_total{status="ok"}`,
		`spimport_batches_total{status="error"}`,
		"spimport_tracks_added_total",
		"# HELP spimport_search_duration_seconds",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected %q in metrics output", want)
		}
	}

	t.Run("unwritable path", func(t *testing.T) {
		if err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom")); err == nil {
			t.Error("expected error")
		}
	})
}
