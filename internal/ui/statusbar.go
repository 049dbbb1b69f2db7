package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/justinpbarnett/devdeck/internal/devserver"
	"github.com/justinpbarnett/devdeck/internal/ui/styles"
	"github.com/justinpbarnett/devdeck/internal/ui/text"
)

const flashDuration = 4 * time.Second

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Version is set via -ldflags at build time.
var Version = "dev"

type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashSuccess
	FlashError
)

// serverStatus is what the status bar knows about the current run.
type serverStatus struct {
	state     devserver.State
	exitCode  int
	conflict  bool
	pid       int
	port      int
	startedAt time.Time
	stoppedAt time.Time
	stats     *devserver.Stats
	err       error
}

type StatusBar struct {
	width      int
	project    string
	server     serverStatus
	following  bool
	wrapping   bool
	flash      string
	flashLevel FlashLevel
	flashUntil time.Time
	tickStep   int
}

func (s *StatusBar) SetFlash(msg string, level FlashLevel) {
	s.flash = msg
	s.flashLevel = level
	s.flashUntil = time.Now().Add(flashDuration)
}

func (s *StatusBar) Tick() { s.tickStep++ }

func (s StatusBar) View() string {
	sep := styles.TextDimStyle.Render(" │ ")

	left := []string{styles.TextSecondaryStyle.Render("devdeck " + Version), styles.TitleStyle.Render(s.project)}
	left = append(left, s.stateView())

	srv := s.server
	if srv.pid > 0 && srv.state != devserver.StateStopped {
		left = append(left, styles.TextSecondaryStyle.Render(fmt.Sprintf("pid %d", srv.pid)))
	}
	if srv.port > 0 {
		left = append(left, styles.TextSecondaryStyle.Render(fmt.Sprintf("port %d", srv.port)))
	}
	if !srv.startedAt.IsZero() {
		end := time.Now()
		if !srv.stoppedAt.IsZero() {
			end = srv.stoppedAt
		}
		left = append(left, styles.TextPrimaryStyle.Render(text.FormatUptime(end.Sub(srv.startedAt))))
	}
	if st := srv.stats; st != nil && srv.state == devserver.StateRunning {
		cpu := lipgloss.NewStyle().Foreground(styles.CPUColor(st.CPUPercent)).Render(text.FormatPercent(st.CPUPercent))
		left = append(left, fmt.Sprintf("%s %s %s",
			cpu,
			styles.TextPrimaryStyle.Render(text.FormatBytes(st.RSSBytes)),
			styles.TextSecondaryStyle.Render(fmt.Sprintf("%d procs", st.Processes)),
		))
	}

	var modes []string
	if s.following {
		modes = append(modes, "follow")
	}
	if s.wrapping {
		modes = append(modes, "wrap")
	}
	right := styles.TextDimStyle.Render(strings.Join(modes, " "))
	if s.flash != "" && time.Now().Before(s.flashUntil) {
		right = s.flashView()
	}

	line := strings.Join(left, sep)
	gap := s.width - ansi.StringWidth(line) - ansi.StringWidth(right)
	if gap < 1 {
		return text.Truncate(line, s.width)
	}
	return line + strings.Repeat(" ", gap) + right
}

func (s StatusBar) stateView() string {
	srv := s.server
	color := styles.StateColor(srv.state, srv.exitCode)
	label := srv.state.String()
	switch {
	case srv.err != nil:
		color = styles.StatusError
		label = "failed: " + srv.err.Error()
	case srv.conflict:
		color = styles.StatusError
		label = "port in use"
	case srv.state == devserver.StateStopped:
		label = fmt.Sprintf("exited %d", srv.exitCode)
	}

	icon := "●"
	if srv.state == devserver.StateStarting {
		icon = spinnerFrames[s.tickStep%len(spinnerFrames)]
	}
	return lipgloss.NewStyle().Foreground(color).Render(icon + " " + label)
}

func (s StatusBar) flashView() string {
	switch s.flashLevel {
	case FlashSuccess:
		return lipgloss.NewStyle().Foreground(styles.StatusSuccess).Render("✓ " + s.flash)
	case FlashError:
		return lipgloss.NewStyle().Foreground(styles.StatusError).Render("✗ " + s.flash)
	default:
		return lipgloss.NewStyle().Foreground(styles.StatusRunning).Render("● " + s.flash)
	}
}
