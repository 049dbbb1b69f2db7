package styles

import "github.com/charmbracelet/lipgloss"

var (
	TextPrimaryStyle   = lipgloss.NewStyle().Foreground(TextPrimary)
	TextSecondaryStyle = lipgloss.NewStyle().Foreground(TextSecondary)
	TextDimStyle       = lipgloss.NewStyle().Foreground(TextDim)
	TitleStyle         = lipgloss.NewStyle().Foreground(TitleText).Bold(true)
	KeybindKeyStyle    = lipgloss.NewStyle().Foreground(KeybindKey)
	KeybindLabelStyle  = lipgloss.NewStyle().Foreground(KeybindLabel)

	// Search hits: yellow background, black text
	SearchHighlightStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("11")).
				Foreground(lipgloss.Color("0"))
	// Current hit: orange background
	CurrentMatchStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("208")).
				Foreground(lipgloss.Color("0"))

	// Diagnostic lines the supervisor writes into the stream.
	DiagnosticStyle = lipgloss.NewStyle().Foreground(StatusWarning).Bold(true)
)

// OutputFrame is the border around the output pane.
func OutputFrame(active bool) lipgloss.Style {
	c := BorderIdle
	if active {
		c = Border
	}
	return lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(c)
}
