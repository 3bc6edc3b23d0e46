package render

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// Wrap breaks s into lines no wider than width cells. Words are never split
// unless a single word is wider than width. Existing newlines are kept, so
// blank lines between paragraphs survive. Runs of spaces inside a line
// collapse to one, which makes Wrap(Wrap(s, w), w) == Wrap(s, w).
func Wrap(s string, width int) string {
	if width < 1 {
		width = 1
	}
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, wrapLine(line, width)...)
	}
	return strings.Join(out, "\n")
}

func wrapLine(line string, width int) []string {
	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{""}
	}

	var (
		lines []string
		cur   strings.Builder
		curW  int
	)
	flush := func() {
		lines = append(lines, cur.String())
		cur.Reset()
		curW = 0
	}

	for _, word := range words {
		ww := ansi.StringWidth(word)
		if ww > width {
			if curW > 0 {
				flush()
			}
			chunks := hardSplit(word, width)
			lines = append(lines, chunks[:len(chunks)-1]...)
			last := chunks[len(chunks)-1]
			cur.WriteString(last)
			curW = runewidth.StringWidth(last)
			continue
		}
		switch {
		case curW == 0:
			cur.WriteString(word)
			curW = ww
		case curW+1+ww <= width:
			cur.WriteByte(' ')
			cur.WriteString(word)
			curW += 1 + ww
		default:
			flush()
			cur.WriteString(word)
			curW = ww
		}
	}
	if curW > 0 {
		flush()
	}
	return lines
}

// hardSplit cuts an over-long word into pieces of at most width cells.
func hardSplit(word string, width int) []string {
	var (
		chunks []string
		cur    strings.Builder
		curW   int
	)
	for _, r := range word {
		rw := runewidth.RuneWidth(r)
		if curW+rw > width && curW > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curW = 0
		}
		cur.WriteRune(r)
		curW += rw
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

// Center pads s with spaces on both sides so it sits in the middle of width
// cells. Strings at least width wide are returned unchanged.
func Center(s string, width int) string {
	w := ansi.StringWidth(s)
	if w >= width {
		return s
	}
	left := (width - w) / 2
	right := width - w - left
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
}

// Hang wraps s to width and prefixes the first line with first and every
// following line with rest. Both prefixes must be plain text.
func Hang(s string, width int, first, rest string) string {
	pw := ansi.StringWidth(first)
	if rw := ansi.StringWidth(rest); rw > pw {
		pw = rw
	}
	lines := strings.Split(Wrap(s, width-pw), "\n")
	for i, l := range lines {
		if i == 0 {
			lines[i] = first + l
		} else {
			lines[i] = rest + l
		}
	}
	return strings.Join(lines, "\n")
}

// ClampWidth limits a terminal width to the range the layouts support.
func ClampWidth(width int) int {
	switch {
	case width < MinWidth:
		return MinWidth
	case width > MaxWidth:
		return MaxWidth
	default:
		return width
	}
}

// MaxLineWidth returns the widest line of s in terminal cells, ignoring
// escape sequences.
func MaxLineWidth(s string) int {
	maxW := 0
	for _, l := range strings.Split(s, "\n") {
		if w := ansi.StringWidth(l); w > maxW {
			maxW = w
		}
	}
	return maxW
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
