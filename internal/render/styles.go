package render

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Color constants for the terminal résumé.
const (
	primaryColor   = "#7C3AED" // Purple
	secondaryColor = "#10B981" // Green
	accentColor    = "#38BDF8" // Sky
	warningColor   = "#F59E0B" // Amber
	errorColor     = "#EF4444" // Red
	dimColor       = "#6B7280" // Gray
)

// Banner gradient endpoints, left to right.
const (
	gradientStart = primaryColor
	gradientEnd   = accentColor
)

// styles is the set of lipgloss styles bound to one colour profile.
type styles struct {
	Box     lipgloss.Style
	Title   lipgloss.Style
	Header  lipgloss.Style
	Label   lipgloss.Style
	Dim     lipgloss.Style
	Accent  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

func newStyles(lg *lipgloss.Renderer) styles {
	return styles{
		// Box provides a rounded border box with primary color.
		Box: lg.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(primaryColor)).
			Padding(0, boxPaddingX),

		// Title renders box titles in primary color with bold.
		Title: lg.NewStyle().
			Foreground(lipgloss.Color(primaryColor)).
			Bold(true),

		Header: lg.NewStyle().Bold(true),

		Label: lg.NewStyle().
			Foreground(lipgloss.Color(secondaryColor)).
			Bold(true),

		Dim: lg.NewStyle().
			Foreground(lipgloss.Color(dimColor)),

		Accent: lg.NewStyle().
			Foreground(lipgloss.Color(accentColor)),

		Success: lg.NewStyle().
			Foreground(lipgloss.Color(secondaryColor)),

		Warning: lg.NewStyle().
			Foreground(lipgloss.Color(warningColor)),

		Error: lg.NewStyle().
			Foreground(lipgloss.Color(errorColor)),
	}
}

// ProfileForTerm picks a colour profile from the client's TERM and
// COLORTERM values. The server never inspects its own stdout: the client's
// terminal is the one being drawn on.
func ProfileForTerm(term, colorTerm string) termenv.Profile {
	switch colorTerm {
	case "truecolor", "24bit":
		return termenv.TrueColor
	}
	switch {
	case term == "" || term == "dumb":
		return termenv.Ascii
	case containsAny(term, "256color", "256"):
		return termenv.ANSI256
	case containsAny(term, "truecolor", "direct"):
		return termenv.TrueColor
	default:
		return termenv.ANSI
	}
}

func newLipgloss(profile termenv.Profile) *lipgloss.Renderer {
	lg := lipgloss.NewRenderer(io.Discard)
	lg.SetColorProfile(profile)
	lg.SetHasDarkBackground(true)
	return lg
}
