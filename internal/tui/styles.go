package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/assignflow/internal/workflow/state"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))
	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#AAAAAA"))
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

var stateColors = map[state.State]lipgloss.Color{
	state.StateRevisionRequiresRebreakdown: lipgloss.Color("#FF6B6B"),
	state.StateImplementationInProgress:    lipgloss.Color("#5B8DEF"),
	state.StateReviewReady:                 lipgloss.Color("#C678DD"),
	state.StateImplementationReady:         lipgloss.Color("#61AFEF"),
	state.StateBreakdownReady:              lipgloss.Color("#E5C07B"),
	state.StateBrainstormInProgress:        lipgloss.Color("#D19A66"),
	state.StateCompleted:                   lipgloss.Color("#98C379"),
}

// Badge renders a state name in its color. Colors are dropped automatically
// when the output is not a terminal.
func Badge(s state.State) string {
	color, ok := stateColors[s]
	if !ok {
		color = lipgloss.Color("#888888")
	}
	return lipgloss.NewStyle().Bold(true).Foreground(color).Render(string(s))
}
