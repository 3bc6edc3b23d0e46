package render

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "hello world", 20, "hello world"},
		{"breaks at space", "hello world", 7, "hello\nworld"},
		{"never splits a word that fits", "alpha beta gamma", 10, "alpha beta\ngamma"},
		{"splits an over-long word", "abcdefghij", 4, "abcd\nefgh\nij"},
		{"long word then short", "abcdefghij xy", 4, "abcd\nefgh\nij\nxy"},
		{"keeps paragraph breaks", "one two\n\nthree", 20, "one two\n\nthree"},
		{"collapses runs of spaces", "a    b", 10, "a b"},
		{"empty", "", 10, ""},
		{"zero width treated as one", "ab", 0, "a\nb"},
		{"wide runes", "日本語", 4, "日本\n語"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Wrap(tt.in, tt.width); got != tt.want {
				t.Errorf("Wrap(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestWrapIsIdempotent(t *testing.T) {
	text := "Software engineer who likes shipping small, sharp tools and the systems underneath them.\n\n" +
		"Supercalifragilisticexpialidocious words still wrap, and short ones stay whole."
	for _, width := range []int{1, 5, 13, 24, 40, 80} {
		once := Wrap(text, width)
		twice := Wrap(once, width)
		if once != twice {
			t.Errorf("width %d: wrap drifted\nonce:  %q\ntwice: %q", width, once, twice)
		}
	}
}

func TestWrapRespectsWidth(t *testing.T) {
	text := strings.Repeat("lorem ipsum dolor sit amet ", 20)
	for _, width := range []int{3, 10, 33, 72} {
		for _, line := range strings.Split(Wrap(text, width), "\n") {
			if w := ansi.StringWidth(line); w > width {
				t.Errorf("width %d: line %q is %d cells", width, line, w)
			}
		}
	}
}

func TestCenter(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"ab", 6, "  ab  "},
		{"ab", 5, " ab  "},
		{"abcdef", 6, "abcdef"},
		{"abcdefg", 6, "abcdefg"},
	}
	for _, tt := range tests {
		if got := Center(tt.in, tt.width); got != tt.want {
			t.Errorf("Center(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}

func TestHang(t *testing.T) {
	got := Hang("one two three four", 12, "  - ", "    ")
	want := "  - one two\n    three\n    four"
	if got != want {
		t.Errorf("Hang = %q, want %q", got, want)
	}
}

func TestClampWidth(t *testing.T) {
	tests := []struct{ in, want int }{
		{-5, MinWidth},
		{0, MinWidth},
		{MinWidth, MinWidth},
		{60, 60},
		{MaxWidth + 50, MaxWidth},
	}
	for _, tt := range tests {
		if got := ClampWidth(tt.in); got != tt.want {
			t.Errorf("ClampWidth(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
