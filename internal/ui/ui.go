package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spimport/internal/models"
	"github.com/desertthunder/spimport/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ConfirmView ViewState = iota
	ImportView
	ResultView
)

// recentLines is how many progress messages the import view keeps on screen.
const recentLines = 8

// ImportFunc runs one import, publishing progress on the channel it is given.
type ImportFunc func(ctx context.Context, progress chan<- tasks.ProgressUpdate) (*tasks.ImportResult, error)

// Target describes what the import will do, for the confirm view.
type Target struct {
	Source   string
	Playlist *models.Playlist
	User     *models.User
	DryRun   bool
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	run          ImportFunc
	target       Target
	width        int
	height       int
	spinner      spinner.Model
	bar          progress.Model
	progressChan chan tasks.ProgressUpdate
	outcome      chan importOutcome
	progress     tasks.ProgressUpdate
	recent       []string
	problems     list.Model
	result       *tasks.ImportResult
	err          error
	cancelled    bool
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model that will call run once the user confirms.
func NewModel(ctx context.Context, target Target, run ImportFunc) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.ok

	return &Model{
		ctx:     ctx,
		view:    ConfirmView,
		run:     run,
		target:  target,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Run starts the program and blocks until the user quits.
//
// The returned error is the import's error, or the program's own failure.
func Run(ctx context.Context, m *Model) (*tasks.ImportResult, error) {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return m.result, fmt.Errorf("tui: %w", err)
	}
	return m.Result()
}

// Result returns what the import produced, once it has finished.
func (m *Model) Result() (*tasks.ImportResult, error) {
	if m.cancelled && m.result == nil {
		return nil, context.Canceled
	}
	return m.result, m.err
}

// Init starts the spinner.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = max(msg.Width-8, 10)
		if m.view == ResultView {
			m.problems.SetSize(max(msg.Width-4, 20), max(msg.Height-10, 5))
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ImportView:
			if key.Matches(msg, m.keys.quit) {
				m.cancelled = true
				return m, tea.Quit
			}
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			update := msg.data.(tasks.ProgressUpdate)
			m.progress = update
			m.recent = append(m.recent, update.Message)
			if len(m.recent) > recentLines {
				m.recent = m.recent[len(m.recent)-recentLines:]
			}
			return m, m.waitForProgress()

		case MsgImportComplete:
			outcome := msg.data.(importOutcome)
			m.result = outcome.result
			m.err = outcome.err
			m.view = ResultView
			m.problems = list.New(problemItems(m.result), list.NewDefaultDelegate(), 0, 0)
			m.problems.Title = "Not imported"
			m.problems.SetShowHelp(false)
			m.problems.SetSize(max(m.width-4, 20), max(m.height-10, 5))
			return m, nil
		}
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ConfirmView:
		return m.renderConfirm()
	case ImportView:
		return m.renderImport()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.view = ImportView
		return m, tea.Batch(m.startImport(), m.spinner.Tick)
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.quit):
		m.cancelled = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.problems, cmd = m.problems.Update(msg)
	return m, cmd
}

func (m *Model) startImport() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.outcome = make(chan importOutcome, 1)

	go func() {
		result, err := m.run(m.ctx, m.progressChan)
		close(m.progressChan)
		m.outcome <- importOutcome{result, err}
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan, outcome := m.progressChan, m.outcome
	return func() tea.Msg {
		if update, ok := <-progressChan; ok {
			return progressUpdateMsg(update)
		}
		o := <-outcome
		return importCompleteMsg(o.result, o.err)
	}
}

func (m *Model) percent() float64 {
	if m.progress.Total == 0 {
		return 0
	}
	return float64(m.progress.Step) / float64(m.progress.Total)
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render("Import into Spotify?")

	var b strings.Builder
	fmt.Fprintf(&b, "Source:   %s\n", m.target.Source)
	if p := m.target.Playlist; p != nil {
		fmt.Fprintf(&b, "Playlist: %s (%d tracks)\n", p.Name, p.TrackCount)
	}
	if u := m.target.User; u != nil {
		fmt.Fprintf(&b, "Account:  %s\n", u.DisplayName)
	}
	if m.target.DryRun {
		b.WriteString(styles.warn.Render("Dry run: nothing will be added"))
		b.WriteString("\n")
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.yes, m.keys.no, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s", title, styles.box.Render(strings.TrimRight(b.String(), "\n")), helpView)
}

func (m *Model) renderImport() string {
	title := styles.title.Render("Importing")

	var phase string
	switch m.progress.Phase {
	case tasks.GatherSource, tasks.BuildQueries:
		phase = "Reading source..."
	case tasks.SearchTracks:
		phase = fmt.Sprintf("Searching tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.SubmitBatches:
		phase = fmt.Sprintf("Adding batches (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Finishing..."
	}

	lines := styles.muted.Render(strings.Join(m.recent, "\n"))
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n%s %s\n%s\n\n%s\n\n%s", title, m.spinner.View(), phase, m.bar.ViewAs(m.percent()), lines, helpView)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Import failed: %v\n\nPress q to quit", m.err))
	}
	if m.result == nil {
		return styles.err.Render("No result available\n\nPress q to quit")
	}

	heading := "✓ Import Complete"
	if m.result.DryRun {
		heading = "✓ Dry Run Complete"
	}
	title := styles.ok.Render(heading)
	info := fmt.Sprintf("\n%s\nFinished in %s", m.result.Summary(), m.result.Duration().Round(time.Millisecond))

	var problems string
	if len(m.problems.Items()) > 0 {
		problems = "\n\n" + m.problems.View()
	} else {
		problems = "\n\n" + styles.ok.Render("Every entry was imported.")
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.up, m.keys.down, m.keys.quit})
	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, problems, helpView)
}
