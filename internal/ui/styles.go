package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 3).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62"))

	disabledButtonStyle = buttonStyle.
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("238"))

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("203")).
			Padding(1, 2).
			MarginTop(1)

	dialogTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)

	frameStyle = lipgloss.NewStyle().Padding(1, 2)
)
