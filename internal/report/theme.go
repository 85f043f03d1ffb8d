package report

import "github.com/charmbracelet/lipgloss"

// ThemeName selects a color palette for RenderTerminal, adapted from the
// donor CLI's cmd/terminal/styles.go: three fixed palettes, with cyan used
// for any unknown name (a one-shot render, not an interactive
// theme-switching TUI).
type ThemeName string

const (
	ThemeCyan   ThemeName = "cyan"
	ThemeMatrix ThemeName = "matrix"
	ThemeAmber  ThemeName = "amber"
)

// ThemePalette is the set of colors a themed render draws from.
type ThemePalette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
}

var palettes = map[ThemeName]ThemePalette{
	ThemeCyan: {
		Primary:   lipgloss.Color("51"),
		Secondary: lipgloss.Color("33"),
		Success:   lipgloss.Color("46"),
		Warning:   lipgloss.Color("226"),
		Error:     lipgloss.Color("196"),
	},
	ThemeMatrix: {
		Primary:   lipgloss.Color("82"),
		Secondary: lipgloss.Color("46"),
		Success:   lipgloss.Color("82"),
		Warning:   lipgloss.Color("190"),
		Error:     lipgloss.Color("196"),
	},
	ThemeAmber: {
		Primary:   lipgloss.Color("220"),
		Secondary: lipgloss.Color("214"),
		Success:   lipgloss.Color("220"),
		Warning:   lipgloss.Color("208"),
		Error:     lipgloss.Color("196"),
	},
}
