package repl

import "github.com/charmbracelet/lipgloss"

type styles struct {
	User      lipgloss.Style
	Assistant lipgloss.Style
	Meta      lipgloss.Style
	Error     lipgloss.Style
	Status    lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		User:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33")),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208")),
		Meta:      lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Status:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}
