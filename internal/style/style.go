// Package style defines the shared lipgloss styles for vg output.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/steveyegge/vigil/internal/liveness"
)

func init() {
	// Respects NO_COLOR and non-TTY output; styles degrade to plain text.
	lipgloss.SetColorProfile(termenv.EnvColorProfile())
}

var (
	// Bold is for headers and emphasis.
	Bold = lipgloss.NewStyle().Bold(true)

	// Dim is for secondary information (hints, paths, timestamps).
	Dim = lipgloss.NewStyle().Faint(true)

	// Active renders active workers green.
	Active = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	// Idle renders idle workers yellow.
	Idle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	// Stopped renders stopped workers red.
	Stopped = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	// Warning renders doctor warnings and degraded-source notes.
	Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	// Error renders failures.
	Error = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// ForState returns the render style for a liveness state.
func ForState(s liveness.State) lipgloss.Style {
	switch s {
	case liveness.StateActive:
		return Active
	case liveness.StateIdle:
		return Idle
	default:
		return Stopped
	}
}
