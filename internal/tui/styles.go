package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent   = lipgloss.Color("#14B8A6") // teal
	green    = lipgloss.Color("#22C55E")
	yellow   = lipgloss.Color("#F59E0B")
	red      = lipgloss.Color("#EF4444")
	slate    = lipgloss.Color("#94A3B8")
	slateDim = lipgloss.Color("#64748B")
	panelBg  = lipgloss.Color("#111827")
	bgDark   = lipgloss.Color("#0B1220")
	line     = lipgloss.Color("#1F2937")
	ink      = lipgloss.Color("#E5E7EB")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ink).
			Background(bgDark).
			BorderStyle(lipgloss.ThickBorder()).
			BorderLeft(true).
			BorderTop(false).
			BorderRight(false).
			BorderBottom(false).
			BorderForeground(accent).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(line).
			Background(panelBg).
			Padding(1, 1)

	panelHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ink)

	labelStyle = lipgloss.NewStyle().Foreground(slate).Width(14)
	okStyle    = lipgloss.NewStyle().Foreground(green)
	warnStyle  = lipgloss.NewStyle().Foreground(yellow)
	errStyle   = lipgloss.NewStyle().Bold(true).Foreground(red)
	dimStyle   = lipgloss.NewStyle().Foreground(slateDim)
)
