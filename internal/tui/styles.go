package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorGray  = lipgloss.Color("244")
	ColorWhite = lipgloss.Color("15")
	ColorBlue  = lipgloss.Color("39")
	ColorNavy  = lipgloss.Color("17")
	ColorRed   = lipgloss.Color("196")
	ColorAmber = lipgloss.Color("208")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(ColorNavy).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorGray).
			Padding(0, 1)

	chartTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorWhite)
	helpStyle       = lipgloss.NewStyle().Foreground(ColorGray)
	errorStyle      = lipgloss.NewStyle().Foreground(ColorRed).Bold(true)
	pausedStyle     = lipgloss.NewStyle().Foreground(ColorAmber).Bold(true)
)

// levelColor maps a severity to its chart color.
func levelColor(name string) lipgloss.Color {
	switch name {
	case "WARN":
		return ColorAmber
	case "ERROR":
		return ColorRed
	default:
		return ColorBlue
	}
}

func levelStyle(name string) lipgloss.Style {
	c := levelColor(name)
	return lipgloss.NewStyle().Foreground(c).Background(c)
}
