package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/justinpbarnett/devdeck/internal/devserver"
)

// Semantic colors as AdaptiveColor{Light, Dark}.
var (
	Border        = lipgloss.AdaptiveColor{Light: "#2e5cb8", Dark: "#7aa2f7"}
	BorderIdle    = lipgloss.AdaptiveColor{Light: "#c0c0c0", Dark: "#3b4261"}
	TitleText     = lipgloss.AdaptiveColor{Light: "#1a1b26", Dark: "#c0caf5"}
	KeybindKey    = lipgloss.AdaptiveColor{Light: "#8a6200", Dark: "#e0af68"}
	KeybindLabel  = lipgloss.AdaptiveColor{Light: "#8890a8", Dark: "#565f89"}
	TextPrimary   = lipgloss.AdaptiveColor{Light: "#1a1b26", Dark: "#c0caf5"}
	TextSecondary = lipgloss.AdaptiveColor{Light: "#8890a8", Dark: "#565f89"}
	TextDim       = lipgloss.AdaptiveColor{Light: "#b0b0b0", Dark: "#3b4261"}

	StatusRunning = lipgloss.AdaptiveColor{Light: "#0969da", Dark: "#7dcfff"}
	StatusSuccess = lipgloss.AdaptiveColor{Light: "#1a7f37", Dark: "#9ece6a"}
	StatusError   = lipgloss.AdaptiveColor{Light: "#cf222e", Dark: "#f7768e"}
	StatusWarning = lipgloss.AdaptiveColor{Light: "#8a6200", Dark: "#e0af68"}
	StatusPending = lipgloss.AdaptiveColor{Light: "#8890a8", Dark: "#565f89"}
)

// StateColor picks the status color for a dev server. exitCode only matters
// once the server has stopped.
func StateColor(state devserver.State, exitCode int) lipgloss.AdaptiveColor {
	switch state {
	case devserver.StateStarting:
		return StatusPending
	case devserver.StateRunning:
		return StatusRunning
	case devserver.StateStopped:
		if exitCode == 0 {
			return StatusSuccess
		}
		return StatusError
	default:
		return TextDim
	}
}

// CPUColor flags busy process trees.
func CPUColor(pct float64) lipgloss.AdaptiveColor {
	switch {
	case pct >= 90:
		return StatusError
	case pct >= 50:
		return StatusWarning
	default:
		return TextPrimary
	}
}
