package render

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/gupta-akshay/portfolio-v2-sub000/internal/resume"
)

const glyphHeight = 5

// font is a five-row block alphabet. '#' marks a filled cell.
var font = map[rune][glyphHeight]string{
	'A': {" ### ", "#   #", "#####", "#   #", "#   #"},
	'B': {"#### ", "#   #", "#### ", "#   #", "#### "},
	'C': {" ####", "#    ", "#    ", "#    ", " ####"},
	'D': {"#### ", "#   #", "#   #", "#   #", "#### "},
	'E': {"#####", "#    ", "#### ", "#    ", "#####"},
	'F': {"#####", "#    ", "#### ", "#    ", "#    "},
	'G': {" ####", "#    ", "#  ##", "#   #", " ####"},
	'H': {"#   #", "#   #", "#####", "#   #", "#   #"},
	'I': {"###", " # ", " # ", " # ", "###"},
	'J': {"  ###", "    #", "    #", "#   #", " ### "},
	'K': {"#   #", "#  # ", "###  ", "#  # ", "#   #"},
	'L': {"#    ", "#    ", "#    ", "#    ", "#####"},
	'M': {"#   #", "## ##", "# # #", "#   #", "#   #"},
	'N': {"#   #", "##  #", "# # #", "#  ##", "#   #"},
	'O': {" ### ", "#   #", "#   #", "#   #", " ### "},
	'P': {"#### ", "#   #", "#### ", "#    ", "#    "},
	'Q': {" ### ", "#   #", "# # #", "#  # ", " ## #"},
	'R': {"#### ", "#   #", "#### ", "#  # ", "#   #"},
	'S': {" ####", "#    ", " ### ", "    #", "#### "},
	'T': {"#####", "  #  ", "  #  ", "  #  ", "  #  "},
	'U': {"#   #", "#   #", "#   #", "#   #", " ### "},
	'V': {"#   #", "#   #", "#   #", " # # ", "  #  "},
	'W': {"#   #", "#   #", "# # #", "## ##", "#   #"},
	'X': {"#   #", " # # ", "  #  ", " # # ", "#   #"},
	'Y': {"#   #", " # # ", "  #  ", "  #  ", "  #  "},
	'Z': {"#####", "   # ", "  #  ", " #   ", "#####"},
	' ': {"   ", "   ", "   ", "   ", "   "},
	'-': {"    ", "    ", "####", "    ", "    "},
	'.': {" ", " ", " ", " ", "#"},
}

// bigText lays out s in the block font. Characters without a glyph render
// as a space. The returned rows all have the same width.
func bigText(s string) []string {
	rows := make([]strings.Builder, glyphHeight)
	first := true
	for _, ch := range strings.ToUpper(s) {
		g, ok := font[ch]
		if !ok {
			if unicode.IsSpace(ch) {
				g = font[' ']
			} else {
				continue
			}
		}
		for i := range rows {
			if !first {
				rows[i].WriteByte(' ')
			}
			rows[i].WriteString(strings.ReplaceAll(g[i], "#", "█"))
		}
		first = false
	}
	out := make([]string, glyphHeight)
	for i := range rows {
		out[i] = rows[i].String()
	}
	return out
}

// gradient returns n colours blended evenly from gradientStart to gradientEnd.
func gradient(n int) []lipgloss.Color {
	start, _ := colorful.Hex(gradientStart)
	end, _ := colorful.Hex(gradientEnd)
	out := make([]lipgloss.Color, n)
	for i := range out {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		out[i] = lipgloss.Color(start.BlendLuv(end, t).Clamped().Hex())
	}
	return out
}

// colorize paints each filled cell of row with the gradient colour of its
// column; spaces are left unstyled.
func (r *Renderer) colorize(row string, colors []lipgloss.Color) string {
	var b strings.Builder
	col := 0
	for _, ch := range row {
		if ch == ' ' || col >= len(colors) {
			b.WriteRune(ch)
		} else {
			b.WriteString(r.styles.Header.Foreground(colors[col]).Render(string(ch)))
		}
		col++
	}
	return b.String()
}

// Banner renders the person's name in large gradient letters with the title
// centered beneath and a divider. When the name does not fit the width it
// falls back to a single bold line.
func (r *Renderer) Banner(res *resume.Resume, width int) string {
	w := ClampWidth(width)
	name := res.Basics.Name

	var lines []string
	rows := bigText(name)
	rowW := MaxLineWidth(strings.Join(rows, "\n"))
	if rowW > 0 && rowW <= w {
		colors := gradient(rowW)
		for _, row := range rows {
			lines = append(lines, Center(r.colorize(row, colors), w))
		}
	} else {
		for _, l := range strings.Split(Wrap(strings.ToUpper(name), w), "\n") {
			lines = append(lines, Center(r.styles.Title.Render(l), w))
		}
	}

	if res.Basics.Title != "" {
		lines = append(lines, "")
		for _, l := range strings.Split(Wrap(res.Basics.Title, w), "\n") {
			lines = append(lines, Center(r.styles.Accent.Render(l), w))
		}
	}
	lines = append(lines, r.Divider(w))
	return strings.Join(lines, "\n")
}
