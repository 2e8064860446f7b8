// Package tui implements the live watch dashboard.
package tui

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/steveyegge/vigil/internal/liveness"
	"github.com/steveyegge/vigil/internal/pulse"
	"github.com/steveyegge/vigil/internal/style"
)

// pollInterval is how often the dashboard re-reads the heartbeat
// document. Reads are cheap; the document is small and swapped
// atomically, so a poll never observes a half-written cycle.
const pollInterval = 2 * time.Second

type tickMsg time.Time

type docMsg struct {
	doc *pulse.Document
	err error
}

// Model is the watch dashboard state.
type Model struct {
	path    string
	spinner spinner.Model
	doc     *pulse.Document
	err     error
	width   int
	height  int
}

// NewModel creates a dashboard watching the heartbeat document at path.
func NewModel(path string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = style.Dim
	return Model{path: path, spinner: s}
}

// Run starts the dashboard and blocks until the user quits.
func Run(path string) error {
	p := tea.NewProgram(NewModel(path), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadDoc(m.path), tick())
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func loadDoc(path string) tea.Cmd {
	return func() tea.Msg {
		doc, err := pulse.LoadDocument(path)
		return docMsg{doc: doc, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m, loadDoc(m.path)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		return m, tea.Batch(loadDoc(m.path), tick())

	case docMsg:
		m.doc = msg.doc
		m.err = msg.err

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(style.Bold.Render("vg watch"))
	b.WriteString("  ")
	b.WriteString(m.spinner.View())
	b.WriteString(style.Dim.Render(" " + m.path))
	b.WriteString("\n\n")

	switch {
	case m.err != nil && os.IsNotExist(m.err):
		b.WriteString("No heartbeat document yet. Waiting for the first cycle...\n")
	case m.err != nil:
		b.WriteString(style.Error.Render("Error: ") + m.err.Error() + "\n")
	case m.doc == nil:
		b.WriteString("Loading...\n")
	default:
		m.renderDocument(&b)
	}

	b.WriteString("\n")
	b.WriteString(style.Dim.Render("r refresh · q quit"))
	return b.String()
}

func (m Model) renderDocument(b *strings.Builder) {
	doc := m.doc
	age := time.Since(doc.GeneratedAt).Round(time.Second)
	b.WriteString(style.Dim.Render(fmt.Sprintf("Cycle published %v ago", age)))
	if age > 2*time.Minute {
		b.WriteString("  " + style.Warning.Render("(stale; is the daemon running?)"))
	}
	b.WriteString("\n\n")

	names := doc.WorkerNames()
	if len(names) == 0 {
		b.WriteString("No workers in the registry.\n")
		return
	}

	nameWidth := 0
	for _, name := range names {
		if len(name) > nameWidth {
			nameWidth = len(name)
		}
	}

	for _, name := range names {
		snap := doc.Workers[name]
		marker := style.ForState(snap.State).Render(stateMarker(snap.State))
		fmt.Fprintf(b, " %s %-*s  %-8s %s\n", marker, nameWidth, name,
			snap.State, style.Dim.Render(liveness.FormatAge(snap.FreshnessAge)))
		for _, e := range snap.Errors {
			fmt.Fprintf(b, "   %-*s  %s\n", nameWidth, "", style.Warning.Render("! "+e))
		}
	}

	counts := make(map[liveness.State]int)
	for _, snap := range doc.Workers {
		counts[snap.State]++
	}
	b.WriteString("\n")
	fmt.Fprintf(b, " %s %d  %s %d  %s %d\n",
		style.Active.Render("active"), counts[liveness.StateActive],
		style.Idle.Render("idle"), counts[liveness.StateIdle],
		style.Stopped.Render("stopped"), counts[liveness.StateStopped])

	sorted := append([]string(nil), doc.Diagnostics...)
	sort.Strings(sorted)
	for _, diag := range sorted {
		b.WriteString(" " + style.Warning.Render("! "+diag) + "\n")
	}
}

func stateMarker(s liveness.State) string {
	switch s {
	case liveness.StateActive:
		return "●"
	case liveness.StateIdle:
		return "◐"
	default:
		return "○"
	}
}
