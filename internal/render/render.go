// Package render turns a résumé into styled, width-aware terminal text.
//
// Every function here is pure: the same résumé, width and colour profile
// always produce byte-identical output, and nothing touches the network.
// Renderers never fail. Widths outside [MinWidth, MaxWidth] are clamped, and
// content that cannot be laid out falls back to a plainer form.
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Layout limits, in terminal cells.
const (
	MinWidth     = 24
	MaxWidth     = 100
	DefaultWidth = 80
)

// Box geometry: one border cell and boxPaddingX spaces on each side.
const (
	boxPaddingX = 2
	boxChrome   = 2 + 2*boxPaddingX
)

// ClearScreen erases the client's screen and homes the cursor.
const ClearScreen = "\x1b[2J\x1b[H"

// Renderer renders résumé sections for one colour profile. It holds no
// mutable state and is safe for concurrent use.
type Renderer struct {
	profile termenv.Profile
	styles  styles
}

// New returns a Renderer whose output targets the given colour profile.
func New(profile termenv.Profile) *Renderer {
	return &Renderer{
		profile: profile,
		styles:  newStyles(newLipgloss(profile)),
	}
}

// Plain returns a Renderer that emits no colour or text attributes.
func Plain() *Renderer {
	return New(termenv.Ascii)
}

// Profile reports the colour profile this Renderer targets.
func (r *Renderer) Profile() termenv.Profile {
	return r.profile
}

// innerWidth is the usable text width inside a box drawn at width.
func innerWidth(width int) int {
	return ClampWidth(width) - boxChrome
}

// Box frames body in a rounded border with an optional title line. The body
// must already be wrapped to innerWidth(width).
func (r *Renderer) Box(title, body string, width int) string {
	outer := ClampWidth(width)
	var content strings.Builder
	if title != "" {
		content.WriteString(r.styles.Title.Render(title))
		content.WriteString("\n\n")
	}
	content.WriteString(body)
	return r.styles.Box.Width(outer - 2).Render(content.String())
}

// Divider is a horizontal rule of n cells.
func (r *Renderer) Divider(n int) string {
	if n < 1 {
		n = 1
	}
	return r.styles.Dim.Render(strings.Repeat("─", n))
}

// Fallback is the minimal block used when a richer layout is not possible,
// e.g. when a command fails. It has no border and wraps to width.
func (r *Renderer) Fallback(title, message string, width int) string {
	w := ClampWidth(width)
	line := message
	if title != "" {
		line = "[" + title + "] " + message
	}
	return r.styles.Error.Render(Wrap(line, w))
}

// Hint renders a dim single-line hint, wrapped to width.
func (r *Renderer) Hint(s string, width int) string {
	return r.styles.Dim.Render(Wrap(s, ClampWidth(width)))
}

// Warning renders s in the warning colour.
func (r *Renderer) Warning(s string) string {
	return r.styles.Warning.Render(s)
}

// Success renders s in the success colour.
func (r *Renderer) Success(s string) string {
	return r.styles.Success.Render(s)
}

func (r *Renderer) render(style lipgloss.Style, s string) string {
	if s == "" {
		return ""
	}
	return style.Render(s)
}
