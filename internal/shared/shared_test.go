package shared

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

func TestIsFatalSource(t *testing.T) {
	tc := []struct {
		name string
		err  error
		want bool
	}{
		{name: "unavailable", err: fmt.Errorf("%w: open tracks.csv", ErrSourceUnavailable), want: true},
		{name: "malformed", err: fmt.Errorf("%w: row 3", ErrSourceMalformed), want: true},
		{name: "empty", err: ErrSourceEmpty, want: true},
		{name: "extraction", err: fmt.Errorf("%w: empty title", ErrExtraction), want: false},
		{name: "unmatched", err: ErrUnmatched, want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFatalSource(tt.err); got != tt.want {
				t.Errorf("IsFatalSource() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	t.Run("child logger carries fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "run", "abc")
		logger.Info("started")

		if !strings.Contains(buf.String(), "run=abc") {
			t.Errorf("expected run field in output, got %q", buf.String())
		}
	})

	t.Run("level filters debug", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.InfoLevel)
		logger.Debug("hidden")

		if buf.Len() != 0 {
			t.Errorf("expected no output, got %q", buf.String())
		}
	})

	t.Run("file logger creates directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "spimport.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		logger.Info("hello")
	})
}

func TestGenerateID(t *testing.T) {
	id := GenerateID()
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("GenerateID() = %q is not a uuid: %v", id, err)
	}
	if id == GenerateID() {
		t.Error("expected distinct ids")
	}
}

func TestPlural(t *testing.T) {
	if got := Plural(1, "track"); got != "track" {
		t.Errorf("Plural(1) = %q", got)
	}
	if got := Plural(3, "track"); got != "tracks" {
		t.Errorf("Plural(3) = %q", got)
	}
}
