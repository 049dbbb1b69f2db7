package ui

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/justinpbarnett/devdeck/internal/devserver"
)

func newTestOutput(width, height int) OutputView {
	o := NewOutputView(100, DefaultKeyMap())
	o.SetSize(width, height)
	return o
}

func TestOutputViewPlaceholder(t *testing.T) {
	o := newTestOutput(40, 5)
	if !strings.Contains(o.View(), "Waiting for output") {
		t.Errorf("empty view = %q", o.View())
	}
}

func TestOutputViewFollowsNewOutput(t *testing.T) {
	o := newTestOutput(40, 3)
	for i := 0; i < 10; i++ {
		o.Write([]byte(fmt.Sprintf("line %d\n", i)))
	}
	view := ansi.Strip(o.View())
	if !strings.Contains(view, "line 9") || strings.Contains(view, "line 0") {
		t.Errorf("following view should show the tail:\n%s", view)
	}

	o, _ = o.Update(keyRune('g'))
	if o.Following() {
		t.Error("jumping to the top stops following")
	}
	o.Write([]byte("line 10\n"))
	if view := ansi.Strip(o.View()); !strings.Contains(view, "line 0") {
		t.Errorf("view should stay at the top:\n%s", view)
	}

	o, _ = o.Update(keyRune('G'))
	if !o.Following() {
		t.Error("jumping to the bottom resumes following")
	}
}

func TestOutputViewToggleFollow(t *testing.T) {
	o := newTestOutput(40, 3)
	o, _ = o.Update(keyRune('f'))
	if o.Following() {
		t.Fatal("f toggles follow off")
	}
	o, _ = o.Update(keyRune('f'))
	if !o.Following() {
		t.Fatal("f toggles follow back on")
	}
}

func TestOutputViewTruncatesUnlessWrapping(t *testing.T) {
	o := newTestOutput(10, 5)
	o.Write([]byte("abcdefghijklmnopqrstuvwxyz\n"))
	if view := ansi.Strip(o.View()); !strings.Contains(view, "abcdefghi…") {
		t.Errorf("truncated view = %q", view)
	}

	o, _ = o.Update(keyRune('w'))
	if !o.Wrapping() {
		t.Fatal("w enables wrapping")
	}
	view := ansi.Strip(o.View())
	for _, want := range []string{"abcdefghij", "klmnopqrst", "uvwxyz"} {
		if !strings.Contains(view, want) {
			t.Errorf("wrapped view missing %q:\n%s", want, view)
		}
	}
}

func TestOutputViewSearch(t *testing.T) {
	o := newTestOutput(60, 10)
	o.Write([]byte("compiling\nerror: missing module\nready\nERROR again\n"))

	o, _ = o.Update(keyRune('/'))
	if !o.Searching() {
		t.Fatal("/ opens the search input")
	}
	for _, r := range "error" {
		o, _ = o.Update(keyRune(r))
	}
	o, _ = o.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if o.Searching() {
		t.Error("enter closes the search input")
	}
	if got := len(o.matchRows); got != 2 {
		t.Fatalf("matches = %d, want 2 (case-insensitive)", got)
	}
	if !strings.Contains(o.View(), "1/2") {
		t.Errorf("match status missing:\n%s", o.View())
	}

	o, _ = o.Update(keyRune('n'))
	if o.currentMatch != 1 {
		t.Errorf("n moves to match 1, got %d", o.currentMatch)
	}
	o, _ = o.Update(keyRune('n'))
	if o.currentMatch != 0 {
		t.Errorf("n wraps around, got %d", o.currentMatch)
	}
	o, _ = o.Update(keyRune('N'))
	if o.currentMatch != 1 {
		t.Errorf("N wraps backwards, got %d", o.currentMatch)
	}
}

func TestOutputViewSearchEscClears(t *testing.T) {
	o := newTestOutput(60, 10)
	o.Write([]byte("needle\n"))
	o, _ = o.Update(keyRune('/'))
	o, _ = o.Update(keyRune('n'))
	o, _ = o.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if o.Searching() || o.searchQuery != "" || len(o.matchRows) != 0 {
		t.Errorf("esc should clear the search: query=%q matches=%v", o.searchQuery, o.matchRows)
	}
}

func TestOutputViewClear(t *testing.T) {
	o := newTestOutput(40, 5)
	o.Write([]byte("old output\n"))
	o.Clear()
	if len(o.Lines()) != 0 {
		t.Errorf("lines after clear = %q", o.Lines())
	}
}

func TestIsDiagnostic(t *testing.T) {
	tests := []struct {
		line string
		want bool
	}{
		{strings.TrimSpace(devserver.ExitMessage(0)), true},
		{strings.TrimSpace(devserver.ExitMessage(-1)), true},
		{strings.TrimSpace(devserver.ConflictMessage), true},
		{"  VITE v5.0.0  ready in 312 ms", false},
	}
	for _, tt := range tests {
		if got := isDiagnostic(tt.line); got != tt.want {
			t.Errorf("isDiagnostic(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestHighlightMatchesKeepsText(t *testing.T) {
	got := highlightMatches("Error and error", "error", false)
	if ansi.Strip(got) != "Error and error" {
		t.Errorf("highlight changed the text: %q", ansi.Strip(got))
	}
}
