package devserver

import (
	"sync"
	"syscall"
	"time"

	"github.com/justinpbarnett/devdeck/internal/process"
)

type State int

const (
	StateStarting State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// StopReason records which termination path ended a session.
type StopReason string

const (
	ReasonExited     StopReason = "exited"
	ReasonConflict   StopReason = "port_conflict"
	ReasonStopped    StopReason = "stopped"
	ReasonDisconnect StopReason = "disconnect"
	ReasonShutdown   StopReason = "shutdown"
)

// SessionInfo is a point-in-time copy of a session's public fields.
type SessionInfo struct {
	ID        string    `json:"id"`
	Command   string    `json:"command"`
	Dir       string    `json:"dir"`
	PID       int       `json:"pid"`
	Port      int       `json:"port,omitempty"`
	State     string    `json:"state"`
	StartedAt time.Time `json:"startedAt"`
	LogFile   string    `json:"logFile,omitempty"`
}

// Session binds one ID to at most one running process.
type Session struct {
	ID        string
	Command   string
	Dir       string
	Port      int
	StartedAt time.Time

	output *process.LineBuffer

	mu          sync.Mutex
	logFile     string
	state       State
	pid         int
	exitCode    int
	reason      StopReason
	pendingStop bool
	signalled   bool

	// exited is closed once the process has been waited on, or right away
	// when it never started.
	exited chan struct{}
	// stopped is closed when the first stop reason is recorded.
	stopped chan struct{}
}

func newSession(id, command string, lines int) *Session {
	return &Session{
		ID:        id,
		Command:   command,
		StartedAt: time.Now(),
		output:    process.NewLineBuffer(lines),
		state:     StateStarting,
		exitCode:  -1,
		exited:    make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pid
}

// ExitCode is -1 until the process has exited, and stays -1 when a signal
// killed it.
func (s *Session) ExitCode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitCode
}

// Reason is empty while the session is live.
func (s *Session) Reason() StopReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Done is closed once the process has exited.
func (s *Session) Done() <-chan struct{} { return s.exited }

func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		ID:        s.ID,
		Command:   s.Command,
		Dir:       s.Dir,
		PID:       s.pid,
		Port:      s.Port,
		State:     s.state.String(),
		StartedAt: s.StartedAt,
		LogFile:   s.logFile,
	}
}

// markStopped records the first stop reason. It reports whether this call
// was the one that stopped the session.
func (s *Session) markStopped(reason StopReason) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reason != "" {
		return false
	}
	s.reason = reason
	s.state = StateStopped
	close(s.stopped)
	return true
}

// started moves a spawned session to Running. A stop requested while the
// process was being spawned is reported back so the caller can act on it.
func (s *Session) started(pid int) (stopRequested bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pid = pid
	if s.state == StateStarting {
		s.state = StateRunning
	}
	return s.pendingStop
}

// terminate sends SIGTERM to the process group and SIGKILL after grace if
// the process is still around. Repeated calls are no-ops.
func (s *Session) terminate(grace time.Duration) {
	s.mu.Lock()
	if s.pid == 0 {
		s.pendingStop = true
		s.mu.Unlock()
		return
	}
	if s.signalled {
		s.mu.Unlock()
		return
	}
	s.signalled = true
	pid := s.pid
	s.mu.Unlock()

	select {
	case <-s.exited:
		return
	default:
	}

	_ = syscall.Kill(-pid, syscall.SIGTERM)

	go func() {
		select {
		case <-s.exited:
		case <-time.After(grace):
			_ = syscall.Kill(-pid, syscall.SIGKILL)
		}
	}()
}

func (s *Session) setLogFile(path string) {
	s.mu.Lock()
	s.logFile = path
	s.mu.Unlock()
}

func (s *Session) setExit(code int) {
	s.mu.Lock()
	s.exitCode = code
	s.mu.Unlock()
}
