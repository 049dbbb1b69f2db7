package clipboard

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
)

func TestOSC52Encoding(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"simple", "hello"},
		{"multiline", "VITE ready\n  Local: http://localhost:5173/"},
		{"unicode", "こんにちは"},
		{"empty", ""},
		{"escape codes", "\x1b[32mok\x1b[0m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := writeOSC52(&buf, tt.input); err != nil {
				t.Fatalf("writeOSC52: %v", err)
			}
			got := buf.String()
			if !strings.HasPrefix(got, "\x1b]52;c;") || !strings.HasSuffix(got, "\x07") {
				t.Fatalf("not an OSC 52 sequence: %q", got)
			}
			payload := strings.TrimSuffix(strings.TrimPrefix(got, "\x1b]52;c;"), "\x07")
			decoded, err := base64.StdEncoding.DecodeString(payload)
			if err != nil {
				t.Fatalf("payload is not base64: %v", err)
			}
			if string(decoded) != tt.input {
				t.Errorf("decoded %q, want %q", decoded, tt.input)
			}
		})
	}
}

func TestWriteLinesEmpty(t *testing.T) {
	n, err := WriteLines(nil)
	if err != nil || n != 0 {
		t.Errorf("WriteLines(nil) = %d, %v", n, err)
	}
}
