package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/justinpbarnett/devdeck/internal/devserver"
	"github.com/justinpbarnett/devdeck/internal/process"
	"github.com/justinpbarnett/devdeck/internal/ui/styles"
	"github.com/justinpbarnett/devdeck/internal/ui/text"
)

const exitPrefix = "Process exited with code"

// OutputView shows the combined output of the current run in a scrollable
// pane. While following, new output keeps the view pinned to the bottom.
type OutputView struct {
	viewport viewport.Model
	buffer   *process.LineBuffer
	keys     KeyMap
	width    int
	height   int
	follow   bool
	wrap     bool

	searching    bool
	searchInput  textinput.Model
	searchQuery  string
	matchRows    []int
	currentMatch int
}

func NewOutputView(lines int, keys KeyMap) OutputView {
	vp := viewport.New(0, 0)
	// Only scrolling keys; the rest belong to the runner.
	vp.KeyMap = viewport.KeyMap{
		Up:           keys.Up,
		Down:         keys.Down,
		HalfPageUp:   keys.PageUp,
		HalfPageDown: keys.PageDown,
	}
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "Search output..."
	ti.CharLimit = 256
	return OutputView{
		viewport:    vp,
		buffer:      process.NewLineBuffer(lines),
		keys:        keys,
		follow:      true,
		searchInput: ti,
	}
}

func (o *OutputView) SetSize(width, height int) {
	o.width = width
	o.height = height
	o.resizeViewport()
	o.refresh()
}

func (o *OutputView) resizeViewport() {
	h := o.height
	if o.searching || o.searchQuery != "" {
		h--
	}
	if h < 0 {
		h = 0
	}
	o.viewport.Width = o.width
	o.viewport.Height = h
}

// Write appends a raw output chunk.
func (o *OutputView) Write(p []byte) {
	o.buffer.Write(p)
	o.refresh()
}

// Mark appends a local status line, such as a restart separator.
func (o *OutputView) Mark(line string) {
	o.buffer.Append(line)
	o.refresh()
}

func (o *OutputView) Clear() {
	o.buffer.Reset()
	o.matchRows = nil
	o.currentMatch = 0
	o.refresh()
}

func (o *OutputView) Lines() []string { return o.buffer.Lines() }

func (o *OutputView) Following() bool { return o.follow }

func (o *OutputView) Wrapping() bool { return o.wrap }

func (o *OutputView) Searching() bool { return o.searching }

func (o OutputView) Update(msg tea.Msg) (OutputView, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if o.searching {
			return o.updateSearch(msg)
		}
		switch {
		case key.Matches(msg, o.keys.Search):
			o.searching = true
			o.searchInput.SetValue("")
			o.searchInput.Focus()
			o.resizeViewport()
			return o, textinput.Blink
		case key.Matches(msg, o.keys.Next):
			o.jump(1)
			return o, nil
		case key.Matches(msg, o.keys.Prev):
			o.jump(-1)
			return o, nil
		case key.Matches(msg, o.keys.Follow):
			o.follow = !o.follow
			if o.follow {
				o.viewport.GotoBottom()
			}
			return o, nil
		case key.Matches(msg, o.keys.Wrap):
			o.wrap = !o.wrap
			o.refresh()
			return o, nil
		case key.Matches(msg, o.keys.Top):
			o.follow = false
			o.viewport.GotoTop()
			return o, nil
		case key.Matches(msg, o.keys.Bottom):
			o.follow = true
			o.viewport.GotoBottom()
			return o, nil
		}
	}

	var cmd tea.Cmd
	o.viewport, cmd = o.viewport.Update(msg)
	// Scrolling back to the end resumes following; scrolling away stops it.
	o.follow = o.viewport.AtBottom()
	return o, cmd
}

func (o OutputView) updateSearch(msg tea.KeyMsg) (OutputView, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		o.searching = false
		o.searchQuery = ""
		o.searchInput.Blur()
		o.resizeViewport()
		o.refresh()
		return o, nil
	case tea.KeyEnter:
		o.searching = false
		o.searchQuery = o.searchInput.Value()
		o.searchInput.Blur()
		o.resizeViewport()
		o.currentMatch = 0
		o.refresh()
		o.jump(0)
		return o, nil
	}

	var cmd tea.Cmd
	o.searchInput, cmd = o.searchInput.Update(msg)
	o.searchQuery = o.searchInput.Value()
	o.currentMatch = 0
	o.refresh()
	return o, cmd
}

// jump moves the current match by delta and scrolls it into view.
func (o *OutputView) jump(delta int) {
	if len(o.matchRows) == 0 {
		return
	}
	n := len(o.matchRows)
	o.currentMatch = ((o.currentMatch+delta)%n + n) % n
	o.follow = false
	o.refresh()
	o.viewport.SetYOffset(o.matchRows[o.currentMatch])
}

// refresh re-renders the buffer into viewport rows and recomputes search
// matches against the rendered rows.
func (o *OutputView) refresh() {
	lines := o.buffer.Lines()
	query := strings.ToLower(o.searchQuery)

	rows := make([]string, 0, len(lines))
	o.matchRows = o.matchRows[:0]
	for _, line := range lines {
		line = text.Terminal(line)
		diagnostic := isDiagnostic(line)

		var segs []string
		if o.wrap {
			segs = text.Wrap(line, o.width)
		} else {
			segs = []string{text.Truncate(line, o.width)}
		}
		for _, seg := range segs {
			switch {
			case query != "" && strings.Contains(strings.ToLower(ansi.Strip(seg)), query):
				current := len(o.matchRows) == o.currentMatch
				o.matchRows = append(o.matchRows, len(rows))
				seg = highlightMatches(ansi.Strip(seg), query, current)
			case diagnostic:
				seg = styles.DiagnosticStyle.Render(seg)
			}
			rows = append(rows, seg)
		}
	}
	if o.currentMatch >= len(o.matchRows) {
		o.currentMatch = 0
	}

	if len(rows) == 0 {
		o.viewport.SetContent(styles.TextDimStyle.Render("Waiting for output..."))
		return
	}
	o.viewport.SetContent(strings.Join(rows, "\n"))
	if o.follow {
		o.viewport.GotoBottom()
	}
}

func (o OutputView) View() string {
	content := o.viewport.View()
	switch {
	case o.searching:
		content += "\n" + o.searchInput.View()
	case o.searchQuery != "":
		status := fmt.Sprintf("/%s  no matches", o.searchQuery)
		if len(o.matchRows) > 0 {
			status = fmt.Sprintf("/%s  %d/%d", o.searchQuery, o.currentMatch+1, len(o.matchRows))
		}
		content += "\n" + styles.TextSecondaryStyle.Render(status)
	}
	return content
}

// isDiagnostic reports lines the supervisor writes itself rather than the
// server process.
func isDiagnostic(line string) bool {
	plain := strings.TrimSpace(ansi.Strip(line))
	return strings.HasPrefix(plain, exitPrefix) || plain == strings.TrimSpace(devserver.ConflictMessage)
}

// highlightMatches wraps every case-insensitive occurrence of query in line.
// line must be free of escape codes and query lower-case.
func highlightMatches(line, query string, current bool) string {
	style := styles.SearchHighlightStyle
	if current {
		style = styles.CurrentMatchStyle
	}

	lower := strings.ToLower(line)
	var b strings.Builder
	start := 0
	for {
		idx := strings.Index(lower[start:], query)
		if idx < 0 {
			b.WriteString(line[start:])
			break
		}
		idx += start
		b.WriteString(line[start:idx])
		b.WriteString(style.Render(line[idx : idx+len(query)]))
		start = idx + len(query)
	}
	return b.String()
}
