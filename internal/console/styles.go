package console

import "github.com/charmbracelet/lipgloss"

var (
	brand   = lipgloss.Color("#1B7F3B") // N.Honest green
	warning = lipgloss.Color("#F59E0B")
	danger  = lipgloss.Color("#EF4444")
	muted   = lipgloss.Color("#6B7280")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(brand)
	mutedStyle = lipgloss.NewStyle().Foreground(muted)
	okStyle    = lipgloss.NewStyle().Bold(true).Foreground(brand)
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(warning)
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(danger)

	toastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(brand).
			Padding(0, 1)

	warningPanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(warning).
			Padding(0, 1)

	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(danger).
			Padding(0, 1)
)
