package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/justinpbarnett/devdeck/internal/devserver"
)

const (
	tickInterval  = time.Second
	readChunkSize = 32 * 1024
)

// Every message about a server run carries the run generation it belongs
// to. Messages from a run that has since been replaced are dropped.

type startedMsg struct {
	run    int
	stream *devserver.Stream
	info   devserver.SessionInfo
}

type startFailedMsg struct {
	run int
	err error
}

type outputMsg struct {
	run  int
	data []byte
}

type streamEndedMsg struct {
	run int
}

type statsMsg struct {
	run   int
	stats devserver.Stats
}

type tickMsg time.Time

type shutdownDoneMsg struct{ err error }

func startServer(sup *devserver.Supervisor, project, command string, run int) tea.Cmd {
	return func() tea.Msg {
		stream, err := sup.Start(context.Background(), project, command)
		if err != nil {
			return startFailedMsg{run: run, err: err}
		}
		info, _ := sup.Get(project)
		return startedMsg{run: run, stream: stream, info: info}
	}
}

// readOutput blocks for the next chunk of a run's output.
func readOutput(s *devserver.Stream, run int) tea.Cmd {
	return func() tea.Msg {
		buf := make([]byte, readChunkSize)
		// Any error, io.EOF included, means the run is over.
		if n, _ := s.Read(buf); n > 0 {
			return outputMsg{run: run, data: buf[:n]}
		}
		return streamEndedMsg{run: run}
	}
}

func sampleStats(sup *devserver.Supervisor, project string, run int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), tickInterval)
		defer cancel()
		st, err := sup.Stats(ctx, project)
		if err != nil {
			return nil
		}
		return statsMsg{run: run, stats: st}
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func shutdown(sup *devserver.Supervisor, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return shutdownDoneMsg{err: sup.ShutdownAll(ctx)}
	}
}
