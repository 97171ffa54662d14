// Package ui renders the upload workflow and the farm screens in a terminal.
package ui

import "github.com/charmbracelet/lipgloss"

// Theme holds the color scheme for terminal output.
type Theme struct {
	Status   lipgloss.Color
	Success  lipgloss.Color
	Error    lipgloss.Color
	Hint     lipgloss.Color
	Disabled lipgloss.Color

	RiskLow      lipgloss.Color
	RiskHigh     lipgloss.Color
	RiskMoreInfo lipgloss.Color
}

// DefaultTheme uses the portal's palette.
var DefaultTheme = Theme{
	Status:   lipgloss.Color("#5FAFD7"), // light blue
	Success:  lipgloss.Color("#3AD190"), // green
	Error:    lipgloss.Color("#F64468"), // red
	Hint:     lipgloss.Color("#6C6C6C"), // dim gray
	Disabled: lipgloss.Color("#3A3A3A"),

	RiskLow:      lipgloss.Color("#3AD190"),
	RiskHigh:     lipgloss.Color("#F64468"),
	RiskMoreInfo: lipgloss.Color("#ACDCE8"),
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) panelStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Error).
		Padding(0, 1)
}

// riskColor picks the color for a risk level.
func (t Theme) riskColor(level string) lipgloss.Color {
	switch level {
	case "low":
		return t.RiskLow
	case "high":
		return t.RiskHigh
	case "more_info_needed":
		return t.RiskMoreInfo
	default:
		return t.Hint
	}
}
