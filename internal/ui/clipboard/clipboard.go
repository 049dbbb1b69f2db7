package clipboard

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
)

// Write puts text on the system clipboard, falling back to an OSC 52
// sequence on stderr when no native clipboard tool is available (SSH, tmux).
func Write(text string) error {
	if err := clipboard.WriteAll(text); err == nil {
		return nil
	}
	return writeOSC52(os.Stderr, text)
}

// WriteLines copies lines joined by newlines and returns how many were
// copied. Empty input is not copied.
func WriteLines(lines []string) (int, error) {
	if len(lines) == 0 {
		return 0, nil
	}
	if err := Write(strings.Join(lines, "\n")); err != nil {
		return 0, err
	}
	return len(lines), nil
}

func writeOSC52(w io.Writer, text string) error {
	_, err := fmt.Fprintf(w, "\x1b]52;c;%s\x07", base64.StdEncoding.EncodeToString([]byte(text)))
	return err
}
