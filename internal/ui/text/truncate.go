package text

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Truncate cuts s to maxWidth cells, ending in "…" when it had to cut.
// Escape codes do not count toward the width and are never split.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if ansi.StringWidth(s) <= maxWidth {
		return s
	}
	return ansi.Truncate(s, maxWidth, "…")
}

// Wrap hard-wraps s at width cells and returns the resulting rows. Leading
// whitespace survives so indented stack traces keep their shape.
func Wrap(s string, width int) []string {
	if width <= 0 || ansi.StringWidth(s) <= width {
		return []string{s}
	}
	return strings.Split(ansi.Hardwrap(s, width, true), "\n")
}

// PadRight pads s with spaces to exactly width cells. Wider input is
// returned unchanged.
func PadRight(s string, width int) string {
	w := ansi.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

// Terminal reduces a raw output line to what a terminal would leave on
// screen: a carriage return restarts the line and erase-line sequences are
// dropped.
func Terminal(line string) string {
	line = strings.TrimSuffix(line, "\r")
	if i := strings.LastIndexByte(line, '\r'); i >= 0 {
		line = line[i+1:]
	}
	for _, seq := range []string{"\x1b[2K", "\x1b[1G", "\x1b[0K", "\x1b[K"} {
		line = strings.ReplaceAll(line, seq, "")
	}
	return line
}
