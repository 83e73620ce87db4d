package reporting

import "github.com/charmbracelet/lipgloss"

// Semantic styles for report rendering. Adaptive colors keep the output
// legible on both dark and light terminals; NO_COLOR is honored by lipgloss
// itself.
var (
	styleHeader = lipgloss.NewStyle().Bold(true)

	styleHealthy = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "42"})

	styleFailed = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "124", Dark: "196"})

	styleWarn = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "130", Dark: "214"})

	styleMuted = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "244", Dark: "240"})
)
