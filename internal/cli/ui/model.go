// Package ui implements the interactive progress view shown while a search
// runs in a TTY: a spinner, live scanned/matched counters, and the most
// recently matched paths.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dylanisaiahp/parex/internal/cli/hooks"
	"github.com/dylanisaiahp/parex/pkg/parex"
)

// recentMatchCount bounds the tail of matched paths kept on screen.
const recentMatchCount = 5

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	counterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	matchStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Model is the Bubble Tea model for a running search.
type Model struct {
	spinner spinner.Model
	root    string

	scanned int
	matched int
	recent  []string

	done     bool
	quitting bool
	results  parex.Results
	start    time.Time
}

// NewModel creates the progress model for a search rooted at root.
func NewModel(root string) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = counterStyle
	return &Model{
		spinner: sp,
		root:    root,
		start:   time.Now(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case hooks.EntryDiscoveredMsg:
		m.scanned++

	case hooks.MatchMsg:
		m.matched++
		m.recent = append(m.recent, msg.Path)
		if len(m.recent) > recentMatchCount {
			m.recent = m.recent[len(m.recent)-recentMatchCount:]
		}

	case hooks.RunCompleteMsg:
		m.done = true
		m.results = msg.Results
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting && !m.done {
		return errorStyle.Render("cancelled") + "\n"
	}
	if m.done {
		return m.summary()
	}

	var b strings.Builder
	b.WriteString(m.spinner.View())
	b.WriteString(titleStyle.Render("searching ") + faintStyle.Render(m.root))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s scanned, %s matched\n",
		counterStyle.Render(fmt.Sprintf("%d", m.scanned)),
		matchStyle.Render(fmt.Sprintf("%d", m.matched)),
	))
	for _, p := range m.recent {
		b.WriteString("  " + matchStyle.Render("✓") + " " + faintStyle.Render(p) + "\n")
	}
	b.WriteString(faintStyle.Render("  press q to cancel") + "\n")
	return b.String()
}

// Interrupted reports whether the user cancelled the view before the run
// finished.
func (m *Model) Interrupted() bool {
	return m.quitting && !m.done
}

func (m *Model) summary() string {
	stats := m.results.Stats
	return fmt.Sprintf("%s %s in %s (%d files, %d dirs, %d entries/s)\n",
		matchStyle.Render(fmt.Sprintf("%d", m.results.Matches)),
		titleStyle.Render("matches"),
		stats.Duration.Round(time.Millisecond),
		stats.Files,
		stats.Dirs,
		stats.EntriesPerSec,
	)
}
