package tui

import "github.com/charmbracelet/lipgloss"

// Palette of the web deck.
var (
	colorAccent = lipgloss.Color("#00ff96")
	colorMuted  = lipgloss.Color("#b8b8b8")
	colorDown   = lipgloss.Color("#ff6b6b")
	colorFg     = lipgloss.Color("#ffffff")
)

type styles struct {
	Code     lipgloss.Style
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Label    lipgloss.Style
	Value    lipgloss.Style
	Up       lipgloss.Style
	Down     lipgloss.Style
	Bar      lipgloss.Style
	Track    lipgloss.Style
	Hovered  lipgloss.Style
	Flash    lipgloss.Style
	Readout  lipgloss.Style
	Help     lipgloss.Style
	Error    lipgloss.Style
	Bold     lipgloss.Style
}

func newStyles() styles {
	return styles{
		Code:     lipgloss.NewStyle().Foreground(colorAccent),
		Title:    lipgloss.NewStyle().Foreground(colorFg).Bold(true),
		Subtitle: lipgloss.NewStyle().Foreground(colorMuted),
		Label:    lipgloss.NewStyle().Foreground(colorMuted),
		Value:    lipgloss.NewStyle().Foreground(colorFg),
		Up:       lipgloss.NewStyle().Foreground(colorAccent),
		Down:     lipgloss.NewStyle().Foreground(colorDown),
		Bar:      lipgloss.NewStyle().Foreground(colorAccent),
		Track:    lipgloss.NewStyle().Foreground(lipgloss.Color("#2a3850")),
		Hovered:  lipgloss.NewStyle().Foreground(colorAccent).Bold(true),
		Flash:    lipgloss.NewStyle().Foreground(colorAccent).Bold(true),
		Readout:  lipgloss.NewStyle().Foreground(colorAccent),
		Help:     lipgloss.NewStyle().Foreground(colorMuted).Faint(true),
		Error:    lipgloss.NewStyle().Foreground(colorDown),
		Bold:     lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
	}
}
