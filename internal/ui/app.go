package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/justinpbarnett/devdeck/internal/devserver"
	"github.com/justinpbarnett/devdeck/internal/ui/clipboard"
	"github.com/justinpbarnett/devdeck/internal/ui/styles"
	"github.com/justinpbarnett/devdeck/internal/ui/text"
)

const (
	defaultLines           = 5000
	defaultShutdownTimeout = 10 * time.Second
)

// Options configure the runner.
type Options struct {
	Supervisor *devserver.Supervisor
	Project    string
	Command    string
	// Lines caps the output kept on screen. Zero means 5000.
	Lines int
	// ShutdownTimeout bounds how long quitting waits for the server to exit.
	ShutdownTimeout time.Duration
}

// App runs one dev server in the terminal and shows its output live.
type App struct {
	sup             *devserver.Supervisor
	project         string
	command         string
	shutdownTimeout time.Duration

	keys      KeyMap
	help      help.Model
	output    OutputView
	statusBar StatusBar

	width  int
	height int
	ready  bool

	run        int
	stream     *devserver.Stream
	restarting bool
	quitting   bool
}

func NewApp(opts Options) App {
	lines := opts.Lines
	if lines <= 0 {
		lines = defaultLines
	}
	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	keys := DefaultKeyMap()
	return App{
		sup:             opts.Supervisor,
		project:         opts.Project,
		command:         opts.Command,
		shutdownTimeout: timeout,
		keys:            keys,
		help:            help.New(),
		output:          NewOutputView(lines, keys),
		statusBar: StatusBar{
			project:   opts.Project,
			following: true,
			server:    serverStatus{state: devserver.StateStarting, exitCode: -1},
		},
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(startServer(a.sup, a.project, a.command, a.run), tick())
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.layout()
		return a, nil

	case startedMsg:
		if msg.run != a.run {
			// A run we no longer want; the stream is ours to close.
			msg.stream.Close()
			return a, nil
		}
		a.stream = msg.stream
		a.statusBar.server = serverStatus{
			state:     devserver.StateRunning,
			exitCode:  -1,
			pid:       msg.info.PID,
			port:      msg.info.Port,
			startedAt: msg.info.StartedAt,
		}
		return a, readOutput(msg.stream, msg.run)

	case startFailedMsg:
		if msg.run != a.run {
			return a, nil
		}
		a.statusBar.server = serverStatus{state: devserver.StateStopped, exitCode: -1, err: msg.err}
		a.output.Mark("Failed to start: " + msg.err.Error())
		return a, nil

	case outputMsg:
		if msg.run != a.run {
			return a, nil
		}
		a.output.Write(msg.data)
		return a, readOutput(a.stream, msg.run)

	case streamEndedMsg:
		if msg.run != a.run {
			return a, nil
		}
		a.stream = nil
		a.finishRun()
		if a.restarting && !a.quitting {
			return a, a.restart()
		}
		return a, nil

	case statsMsg:
		if msg.run == a.run && a.stream != nil {
			st := msg.stats
			a.statusBar.server.stats = &st
		}
		return a, nil

	case tickMsg:
		a.statusBar.Tick()
		var cmd tea.Cmd
		if a.stream != nil {
			cmd = sampleStats(a.sup, a.project, a.run)
		}
		return a, tea.Batch(cmd, tick())

	case shutdownDoneMsg:
		return a, tea.Quit

	case tea.MouseMsg:
		var cmd tea.Cmd
		a.output, cmd = a.output.Update(msg)
		a.syncModes()
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.output.Searching() {
		var cmd tea.Cmd
		a.output, cmd = a.output.Update(msg)
		return a, cmd
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		if a.quitting {
			return a, tea.Quit
		}
		a.quitting = true
		a.statusBar.SetFlash("stopping dev server...", FlashInfo)
		return a, shutdown(a.sup, a.shutdownTimeout)

	case key.Matches(msg, a.keys.Stop):
		if a.stream == nil {
			a.statusBar.SetFlash("not running", FlashError)
			return a, nil
		}
		a.restarting = false
		_ = a.sup.Stop(a.project)
		a.statusBar.SetFlash("stopping", FlashInfo)
		return a, nil

	case key.Matches(msg, a.keys.Restart):
		if a.stream == nil {
			return a, a.restart()
		}
		a.restarting = true
		_ = a.sup.Stop(a.project)
		a.statusBar.SetFlash("restarting", FlashInfo)
		return a, nil

	case key.Matches(msg, a.keys.Copy):
		n, err := clipboard.WriteLines(a.output.Lines())
		switch {
		case err != nil:
			a.statusBar.SetFlash("copy failed: "+err.Error(), FlashError)
		case n == 0:
			a.statusBar.SetFlash("nothing to copy", FlashInfo)
		default:
			a.statusBar.SetFlash(fmt.Sprintf("copied %d lines", n), FlashSuccess)
		}
		return a, nil

	case key.Matches(msg, a.keys.Clear):
		a.output.Clear()
		return a, nil

	case key.Matches(msg, a.keys.Help):
		a.help.ShowAll = !a.help.ShowAll
		a.layout()
		return a, nil
	}

	var cmd tea.Cmd
	a.output, cmd = a.output.Update(msg)
	a.syncModes()
	return a, cmd
}

// restart starts a fresh run. Output of earlier runs stays on screen.
func (a *App) restart() tea.Cmd {
	a.restarting = false
	a.run++
	a.statusBar.server = serverStatus{state: devserver.StateStarting, exitCode: -1}
	a.output.Mark(styles.TextDimStyle.Render("── restart: " + a.command + " ──"))
	return startServer(a.sup, a.project, a.command, a.run)
}

// finishRun reads the run's outcome from the diagnostic line the supervisor
// wrote last.
func (a *App) finishRun() {
	srv := &a.statusBar.server
	srv.state = devserver.StateStopped
	srv.stoppedAt = time.Now()
	srv.stats = nil

	lines := a.output.Lines()
	for i := len(lines) - 1; i >= 0 && i >= len(lines)-3; i-- {
		plain := strings.TrimSpace(ansi.Strip(lines[i]))
		if plain == strings.TrimSpace(devserver.ConflictMessage) {
			srv.conflict = true
			return
		}
		var code int
		if _, err := fmt.Sscanf(plain, exitPrefix+" %d", &code); err == nil {
			srv.exitCode = code
			return
		}
	}
}

func (a *App) syncModes() {
	a.statusBar.following = a.output.Following()
	a.statusBar.wrapping = a.output.Wrapping()
}

func (a *App) layout() {
	if !a.ready {
		return
	}
	a.help.Width = a.width
	a.statusBar.width = a.width

	// title + frame borders + status bar + help
	chrome := 1 + 2 + 1 + lipgloss.Height(a.help.View(a.keys))
	h := a.height - chrome
	if h < 1 {
		h = 1
	}
	w := a.width - 2
	if w < 1 {
		w = 1
	}
	a.output.SetSize(w, h)
}

func (a App) View() string {
	if !a.ready {
		return "Starting " + a.project + "..."
	}

	title := styles.TitleStyle.Render(a.project) + "  " + styles.TextSecondaryStyle.Render("$ "+a.command)
	frame := styles.OutputFrame(a.stream != nil).Render(a.output.View())

	return lipgloss.JoinVertical(lipgloss.Left,
		text.Truncate(title, a.width),
		frame,
		a.statusBar.View(),
		a.help.View(a.keys),
	)
}
