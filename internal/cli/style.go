package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the color scheme for match listings.
type Theme struct {
	Pass     lipgloss.Color
	Fail     lipgloss.Color
	Continue lipgloss.Color
	Hint     lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Pass:     lipgloss.Color("#00D787"), // green
	Fail:     lipgloss.Color("#FF005F"), // red
	Continue: lipgloss.Color("#5FAFD7"), // light blue
	Hint:     lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) passStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Pass).Bold(true)
}

func (t Theme) failStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Fail).Bold(true)
}

func (t Theme) continueStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Continue)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// sprtStyle picks the style for an SPRT label.
func (t Theme) sprtStyle(label string) lipgloss.Style {
	switch label {
	case "PASS":
		return t.passStyle()
	case "FAIL":
		return t.failStyle()
	default:
		return t.continueStyle()
	}
}
