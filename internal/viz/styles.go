package viz

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/gearbox/internal/gearbox"
)

var (
	panelStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444466")).Padding(1, 2)
	statsStyle       = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(40)
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)

	pausedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffaa00"))

	modeStyles = map[gearbox.Mode]lipgloss.Style{
		gearbox.Normal:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88")),
		gearbox.Sovereign:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff00ff")).Background(lipgloss.Color("#1a001a")),
		gearbox.AccessDenied: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444")),
	}
)

// StatusBadge styles a controller status label by its mode.
func StatusBadge(label string) string {
	m, err := gearbox.ParseMode(label)
	if err != nil {
		return valueStyle.Render(label)
	}
	return modeStyles[m].Render(label)
}
