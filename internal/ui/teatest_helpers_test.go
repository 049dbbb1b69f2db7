package ui

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/justinpbarnett/devdeck/internal/config"
	"github.com/justinpbarnett/devdeck/internal/devserver"
)

const waitDuration = 5 * time.Second

func newTestSupervisor(tb testing.TB) *devserver.Supervisor {
	tb.Helper()
	cfg := config.DefaultConfig().DevServer
	cfg.StopGrace = "300ms"
	sup := devserver.New(cfg, devserver.StaticDir(tb.TempDir()),
		devserver.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	tb.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = sup.ShutdownAll(ctx)
	})
	return sup
}

// appAdapter keeps the value-receiver App behind a pointer so tests can
// inspect the model teatest is driving.
type appAdapter struct {
	app App
}

func newTestAppAdapter(tb testing.TB, command string) *appAdapter {
	tb.Helper()
	return &appAdapter{app: NewApp(Options{
		Supervisor:      newTestSupervisor(tb),
		Project:         "site",
		Command:         command,
		Lines:           200,
		ShutdownTimeout: 2 * time.Second,
	})}
}

func (a *appAdapter) Init() tea.Cmd { return a.app.Init() }

func (a *appAdapter) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := a.app.Update(msg)
	a.app = m.(App)
	return a, cmd
}

func (a *appAdapter) View() string { return a.app.View() }

func startTestModel(tb testing.TB, adapter *appAdapter) *teatest.TestModel {
	tb.Helper()
	tm := teatest.NewTestModel(tb, adapter, teatest.WithInitialTermSize(100, 30))
	tm.Send(tea.WindowSizeMsg{Width: 100, Height: 30})
	return tm
}

// waitForContains waits for a frame holding every substr. Each call consumes
// the output it has seen, so wait for everything expected at once.
func waitForContains(tb testing.TB, tm *teatest.TestModel, substrs ...string) {
	tb.Helper()
	teatest.WaitFor(
		tb,
		tm.Output(),
		func(bts []byte) bool {
			for _, s := range substrs {
				if !bytes.Contains(bts, []byte(s)) {
					return false
				}
			}
			return true
		},
		teatest.WithDuration(waitDuration),
	)
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}
