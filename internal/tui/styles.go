package tui

import "github.com/charmbracelet/lipgloss"

var (
	// HeaderStyle styles the column header row.
	HeaderStyle = lipgloss.NewStyle().Bold(true)

	// SpinnerStyle colors the footer spinner.
	SpinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))

	statusStyles = map[string]lipgloss.Style{
		// Terminal states
		"rendered": lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"composed": lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		"complete": lipgloss.NewStyle().Foreground(lipgloss.Color("2")),

		// Active states
		"analyzing": lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"rendering": lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
		"composing": lipgloss.NewStyle().Foreground(lipgloss.Color("4")),

		// Degraded
		"skipped": lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		"held":    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),

		// Error
		"error": lipgloss.NewStyle().Foreground(lipgloss.Color("1")),

		// Pending
		"pending": lipgloss.NewStyle().Faint(true),
	}
)

// StatusStyle returns the lipgloss style for the given status string.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}
