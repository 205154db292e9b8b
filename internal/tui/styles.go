package tui

import "github.com/charmbracelet/lipgloss"

// Palette.
//
//nolint:gochecknoglobals // lipgloss colors are package-level styling constants.
var (
	ColorHeader    = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	ColorLabel     = lipgloss.AdaptiveColor{Light: "#3D3D3D", Dark: "#ABABAB"}
	ColorValue     = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#EEEEEE"}
	ColorMuted     = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	ColorHighlight = lipgloss.AdaptiveColor{Light: "#F25D94", Dark: "#F25D94"}
	ColorSpinner   = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	ColorError     = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF5F6D"}
	ColorSuccess   = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"}
	ColorBorder    = lipgloss.AdaptiveColor{Light: "#DBDBDB", Dark: "#383838"}
)

//nolint:gochecknoglobals // Shared styles.
var (
	titleStyle    = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	labelStyle    = lipgloss.NewStyle().Foreground(ColorLabel)
	valueStyle    = lipgloss.NewStyle().Foreground(ColorValue).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
	helpStyle     = lipgloss.NewStyle().Foreground(ColorMuted)
	errorStyle    = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	successStyle  = lipgloss.NewStyle().Foreground(ColorSuccess)
	selectedStyle = lipgloss.NewStyle().Foreground(ColorHighlight).Bold(true)
	spinnerStyle  = lipgloss.NewStyle().Foreground(ColorSpinner)
	answerBox     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)
)
