package ui

import "github.com/charmbracelet/lipgloss"

var (
	Primary = lipgloss.Color("#F46800")

	ColorSuccess = lipgloss.Color("#10B981")
	ColorWarning = lipgloss.Color("#F59E0B")
	ColorError   = lipgloss.Color("#EF4444")
	ColorInfo    = lipgloss.Color("#06B6D4")
	ColorMuted   = lipgloss.Color("#6B7280")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary)

	SuccessBadge = badge(lipgloss.Color("#000"), ColorSuccess)
	WarningBadge = badge(lipgloss.Color("#000"), ColorWarning)
	ErrorBadge   = badge(lipgloss.Color("#FFF"), ColorError)
	InfoBadge    = badge(lipgloss.Color("#000"), ColorInfo)

	ErrorBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorError).
			Padding(0, 1)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	CodeStyle = lipgloss.NewStyle().
			Foreground(ColorInfo).
			Bold(true)

	// Diff lines in verbose dry runs.
	DiffAddStyle    = lipgloss.NewStyle().Foreground(ColorSuccess)
	DiffRemoveStyle = lipgloss.NewStyle().Foreground(ColorError)
	DiffHunkStyle   = lipgloss.NewStyle().Foreground(ColorInfo)
)

func badge(fg, bg lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(fg).
		Background(bg).
		Padding(0, 1).
		Bold(true)
}
