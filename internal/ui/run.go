package ui

import (
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/vibepilot/internal/models"
	"github.com/desertthunder/vibepilot/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ConfirmView ViewState = iota
	RunView
	ResultView
)

// Model represents the TUI application state for one classification run.
type Model struct {
	ctx    context.Context
	view   ViewState
	engine *tasks.RunEngine
	opts   tasks.RunOpts

	width  int
	height int

	spinner      spinner.Model
	bar          progress.Model
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate

	runLog *models.RunLog
	err    error

	help help.Model
	keys keyMap
}

// NewModel creates a TUI model for the given engine and run options.
func NewModel(ctx context.Context, engine *tasks.RunEngine, opts tasks.RunOpts) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.ok

	return &Model{
		ctx:     ctx,
		view:    ConfirmView,
		engine:  engine,
		opts:    opts,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient()),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// RunLog returns the completed run log, or nil if the run never finished.
func (m *Model) RunLog() *models.RunLog { return m.runLog }

// Err returns the terminal error of the run, if any.
func (m *Model) Err() error { return m.err }

// Init starts the spinner ticking.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = msg.Width - 8
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		default:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case runCompleteMsg:
		m.runLog = msg.log
		m.err = msg.err
		m.view = ResultView
		m.progressChan = nil
		return m, nil
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ConfirmView:
		return m.renderConfirm()
	case RunView:
		return m.renderRun()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n", "esc":
		return m, tea.Quit
	case "y", "enter":
		m.view = RunView
		return m, tea.Batch(m.startRun(), m.spinner.Tick)
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter", "esc":
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) startRun() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	ch := m.progressChan

	go func() {
		rl, err := m.engine.Run(m.ctx, ch, m.opts)
		m.runLog = rl
		m.err = err
		close(ch)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	ch := m.progressChan
	return func() tea.Msg {
		if ch == nil {
			return runCompleteMsg{log: m.runLog, err: m.err}
		}

		update, ok := <-ch
		if !ok {
			return runCompleteMsg{log: m.runLog, err: m.err}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) renderConfirm() string {
	title := styles.title.Render("Sort liked songs into vibe playlists?")

	prompt := m.opts.Prompt
	if prompt == "" {
		prompt = "(none, rules only)"
	}
	visibility := "private"
	if m.opts.Public {
		visibility = "public"
	}
	limit := m.opts.Limit
	if limit <= 0 {
		limit = 1000
	}
	info := fmt.Sprintf("\nPrompt: %s\nTrack limit: %d\nNew playlists: %s\n", prompt, limit, visibility)

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderRun() string {
	title := styles.title.Render("Classifying Library")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchLibrary:
		phase = "Fetching liked songs from Spotify..."
	case tasks.ClassifyTrack, tasks.AssignTrack:
		phase = fmt.Sprintf("Sorting tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.CreatePlaylist:
		phase = "Creating vibe playlist..."
	case tasks.WriteLog:
		phase = "Writing run log..."
	default:
		phase = "Starting..."
	}

	var bar string
	if m.progress.Total > 0 && (m.progress.Phase == tasks.ClassifyTrack || m.progress.Phase == tasks.AssignTrack) {
		bar = m.bar.ViewAs(float64(m.progress.Step)/float64(m.progress.Total)) + "\n"
	}

	return fmt.Sprintf("%s\n%s %s\n%s%s", title, m.spinner.View(), phase, bar, styles.help.Render(m.progress.Message))
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Run failed: %v\n\nPress q to quit", m.err))
	}

	if m.runLog == nil {
		return styles.err.Render("No run log available\n\nPress q to quit")
	}

	title := styles.ok.Render("✓ Run Complete")
	info := fmt.Sprintf("\nTracks processed: %d\nPlaylists: %d\n", m.runLog.TracksProcessed, len(m.runLog.Playlists))

	counts := make(map[models.Vibe]int)
	failed := 0
	for _, entry := range m.runLog.Entries {
		if entry.Status == models.StatusError {
			failed++
			continue
		}
		counts[entry.Vibe]++
	}

	vibes := make([]string, 0, len(counts))
	for vibe := range counts {
		vibes = append(vibes, string(vibe))
	}
	sort.Strings(vibes)

	var breakdown string
	for _, vibe := range vibes {
		breakdown += fmt.Sprintf("  %s: %d\n", vibe, counts[models.Vibe(vibe)])
	}

	var failures string
	if failed > 0 {
		failures = "\n" + styles.warn.Render(fmt.Sprintf("%d tracks could not be assigned (see run log)", failed)) + "\n"
	}

	helpKeys := []key.Binding{m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s%s\n%s", title, info, breakdown, failures, helpView)
}
