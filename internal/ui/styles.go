package ui

import "github.com/charmbracelet/lipgloss"

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#2DD4BF")).
			MarginTop(1)

	LinkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5EEAD4")).
			Underline(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			MarginBottom(1)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#2DD4BF")).
			Bold(true)

	UnselectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	CheckedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5EEAD4")).
			Bold(true)

	MutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4757")).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5EEAD4")).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			MarginTop(1)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#2DD4BF")).
			Padding(1, 2)

	// Bar colors for positive and negative values in the chart view.
	BarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#2DD4BF"))

	NegativeBarStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#F59E0B"))

	PreviewHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#5EEAD4")).
				PaddingRight(2)

	PreviewCellStyle = lipgloss.NewStyle().
				PaddingRight(2)
)
