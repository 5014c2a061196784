package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spimport/internal/models"
	"github.com/desertthunder/spimport/internal/providers"
	"github.com/desertthunder/spimport/internal/tasks"
)

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleResult() *tasks.ImportResult {
	return &tasks.ImportResult{
		RunID:  "run-1",
		Source: "csv",
		Queries: []tasks.QueryResult{
			{Query: models.Query{ArtistKey: "daft punk", SearchText: "daft punk one more time"}, Match: models.Matched("spotify:track:1")},
			{Query: models.Query{ArtistKey: "nobody", SearchText: "nobody nothing"}, Match: models.Unmatched("no candidate with matching artist")},
			{Query: models.Query{ArtistKey: "x", SearchText: "x y"}, Err: errors.New("rate limited")},
		},
		Extraction: []providers.ExtractionFailure{{Index: 3, Raw: "", Reason: "empty title"}},
		Matched:    1, Unmatched: 1, SearchFailed: 1, ExtractionFailed: 1, Submitted: 1,
	}
}

// drive feeds progress messages back into the model until the import completes.
func drive(t *testing.T, m *Model) {
	t.Helper()
	for range 100 {
		m.Update(m.waitForProgress()())
		if m.view == ResultView {
			return
		}
	}
	t.Fatal("import never completed")
}

func TestModel(t *testing.T) {
	t.Run("confirm starts import and shows result", func(t *testing.T) {
		want := sampleResult()
		run := func(_ context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.ImportResult, error) {
			progress <- tasks.ProgressUpdate{Phase: tasks.SearchTracks, Step: 1, Total: 3, Message: "searching"}
			progress <- tasks.ProgressUpdate{Phase: tasks.SubmitBatches, Step: 1, Total: 1, Message: "adding"}
			return want, nil
		}

		m := NewModel(context.Background(), Target{Source: "csv", Playlist: &models.Playlist{Name: "Mix"}}, run)
		if !strings.Contains(m.View(), "Mix") {
			t.Errorf("expected confirm view to show playlist name, got %q", m.View())
		}

		_, cmd := m.Update(keyPress("y"))
		if cmd == nil {
			t.Fatal("expected command after confirming")
		}
		if m.view != ImportView {
			t.Fatalf("expected ImportView, got %v", m.view)
		}

		drive(t, m)

		got, err := m.Result()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Error("expected the run's result")
		}
		if len(m.recent) != 2 {
			t.Errorf("expected 2 progress lines, got %d", len(m.recent))
		}
		if n := len(m.problems.Items()); n != 3 {
			t.Errorf("expected 3 problem items, got %d", n)
		}
		if !strings.Contains(m.View(), "Import Complete") {
			t.Errorf("expected result view, got %q", m.View())
		}
	})

	t.Run("declining quits without running", func(t *testing.T) {
		called := false
		run := func(context.Context, chan<- tasks.ProgressUpdate) (*tasks.ImportResult, error) {
			called = true
			return nil, nil
		}

		m := NewModel(context.Background(), Target{Source: "csv"}, run)
		_, cmd := m.Update(keyPress("n"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
		if called {
			t.Error("import should not run")
		}
		if _, err := m.Result(); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("import error is shown", func(t *testing.T) {
		run := func(context.Context, chan<- tasks.ProgressUpdate) (*tasks.ImportResult, error) {
			return nil, errors.New("source unavailable")
		}

		m := NewModel(context.Background(), Target{Source: "tidal"}, run)
		m.Update(keyPress("y"))
		drive(t, m)

		if _, err := m.Result(); err == nil {
			t.Error("expected error")
		}
		if !strings.Contains(m.View(), "source unavailable") {
			t.Errorf("expected error in view, got %q", m.View())
		}
	})

	t.Run("window size before result", func(t *testing.T) {
		m := NewModel(context.Background(), Target{}, nil)
		m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
		if m.bar.Width != 72 {
			t.Errorf("expected bar width 72, got %d", m.bar.Width)
		}
	})
}

func TestProblemItems(t *testing.T) {
	items := problemItems(sampleResult())
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].FilterValue() != "nobody nothing" {
		t.Errorf("expected unmatched entry first, got %q", items[0].FilterValue())
	}
	ex, ok := items[2].(extractionItem)
	if !ok {
		t.Fatalf("expected extraction item last, got %T", items[2])
	}
	if ex.Title() != "entry 4" {
		t.Errorf("expected fallback title, got %q", ex.Title())
	}
	if problemItems(nil) != nil {
		t.Error("expected nil for nil result")
	}
}
