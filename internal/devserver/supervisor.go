package devserver

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/justinpbarnett/devdeck/internal/config"
	"github.com/justinpbarnett/devdeck/internal/process"
)

// ProjectResolver maps a session ID to the directory its command runs in.
type ProjectResolver interface {
	Dir(projectID string) (string, error)
}

// StaticDir resolves every session to the same directory.
type StaticDir string

func (d StaticDir) Dir(string) (string, error) { return string(d), nil }

type Option func(*Supervisor)

func WithLogger(l *slog.Logger) Option {
	return func(s *Supervisor) { s.logger = l }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Supervisor) { s.tracer = t }
}

// Supervisor runs at most one dev server per session ID.
type Supervisor struct {
	shell        []string
	grace        time.Duration
	signatures   []string
	portStrategy string
	basePort     int
	logDir       string
	logLines     int

	projects ProjectResolver
	logger   *slog.Logger
	tracer   trace.Tracer

	registry *registry
	history  *history
}

func New(cfg config.DevServerConfig, projects ProjectResolver, opts ...Option) *Supervisor {
	shell := cfg.ShellArgs()
	if len(shell) == 0 {
		shell = []string{"/bin/sh", "-c"}
	}
	s := &Supervisor{
		shell:        shell,
		grace:        cfg.StopGraceDuration(),
		signatures:   cfg.ConflictSignatures,
		portStrategy: cfg.PortStrategy,
		basePort:     cfg.BasePort,
		logDir:       cfg.LogDir,
		logLines:     cfg.LogLines,
		projects:     projects,
		logger:       slog.Default(),
		tracer:       otel.Tracer("github.com/justinpbarnett/devdeck/internal/devserver"),
		registry:     newRegistry(),
		history:      newHistory(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start spawns command for sessionID and returns its output stream. The
// session lives until the process exits, Stop or ShutdownAll is called, a
// port conflict is seen, or the consumer goes away: cancelling ctx or closing
// the stream both count as the latter. Callers must read the stream to EOF or
// Close it. Once the session stops, a stream whose consumer has not read for a
// stop grace period is cut and Read returns ErrStreamAbandoned.
func (s *Supervisor) Start(ctx context.Context, sessionID, command string) (*Stream, error) {
	ctx, span := s.tracer.Start(ctx, "devserver.start", trace.WithAttributes(
		attribute.String("devdeck.session_id", sessionID),
		attribute.String("devdeck.command", command),
	))
	defer span.End()

	dir, err := s.projects.Dir(sessionID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	sess := newSession(sessionID, command, s.logLines)
	sess.Dir = dir
	if s.portStrategy == "hash" {
		sess.Port = s.ComputePort(sessionID)
	}
	if err := s.registry.reserve(sess); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	m, err := s.spawn(sess)
	if err != nil {
		s.registry.remove(sess)
		sess.markStopped(ReasonExited)
		close(sess.exited)
		s.logger.Warn("dev server failed to start", "session", sessionID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("devdeck.pid", sess.PID()))
	s.history.record(sess)

	stopWatch := context.AfterFunc(ctx, func() { m.stream.Close() })
	go func() {
		m.forward(func(reason StopReason) { s.release(sess, reason) })
		stopWatch()
	}()

	return m.stream, nil
}

func (s *Supervisor) spawn(sess *Session) (*multiplexer, error) {
	args := append(append([]string{}, s.shell[1:]...), sess.Command)
	cmd := exec.Command(s.shell[0], args...)
	cmd.Dir = sess.Dir
	cmd.Env = os.Environ()
	if sess.Port != 0 {
		cmd.Env = append(cmd.Env, fmt.Sprintf("PORT=%d", sess.Port))
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &SpawnError{SessionID: sess.ID, Command: sess.Command, Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &SpawnError{SessionID: sess.ID, Command: sess.Command, Err: err}
	}

	var logFile *process.SessionLog
	if s.logDir != "" {
		logFile, err = process.CreateSessionLog(s.logDir, sess.ID, sess.Command)
		if err != nil {
			s.logger.Warn("dev server log unavailable", "session", sess.ID, "error", err)
		} else {
			sess.setLogFile(logFile.Path())
		}
	}

	if err := cmd.Start(); err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, &SpawnError{SessionID: sess.ID, Command: sess.Command, Err: err}
	}

	s.logger.Info("dev server started",
		"session", sess.ID, "pid", cmd.Process.Pid, "dir", sess.Dir, "command", sess.Command)

	m := newMultiplexer(sess, newStream(), logFile, s.signatures, s.grace)
	m.start(cmd, stdout, stderr, func(code int, err error) {
		s.logger.Info("dev server exited",
			"session", sess.ID, "pid", cmd.Process.Pid, "code", code, "reason", string(sess.Reason()))
	})

	if sess.started(cmd.Process.Pid) {
		// Stop or ShutdownAll arrived while the process was being spawned.
		sess.terminate(s.grace)
	}
	return m, nil
}

// Stop ends a session without waiting for its process to exit. The session
// leaves the registry before Stop returns. Unknown IDs are a no-op.
func (s *Supervisor) Stop(sessionID string) error {
	sess, ok := s.registry.get(sessionID)
	if !ok {
		return nil
	}
	s.release(sess, ReasonStopped)
	return nil
}

// ShutdownAll stops every session, refuses further starts and waits for the
// processes to exit or ctx to end.
func (s *Supervisor) ShutdownAll(ctx context.Context) error {
	sessions := s.registry.drain()
	for _, sess := range sessions {
		s.release(sess, ReasonShutdown)
	}

	var errs []error
	for _, sess := range sessions {
		select {
		case <-sess.exited:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("session %s: %w", sess.ID, ctx.Err()))
		}
	}
	if len(sessions) > 0 {
		s.logger.Info("dev servers shut down", "count", len(sessions))
	}
	return errors.Join(errs...)
}

// release is the single exit path for every session. It deregisters sess if
// it is still the registered session for its ID, records why it stopped and,
// unless the process is already gone, signals the process group.
func (s *Supervisor) release(sess *Session, reason StopReason) {
	s.registry.remove(sess)
	if !sess.markStopped(reason) {
		return
	}

	_, span := s.tracer.Start(context.Background(), "devserver.release", trace.WithAttributes(
		attribute.String("devdeck.session_id", sess.ID),
		attribute.String("devdeck.stop_reason", string(reason)),
	))
	defer span.End()

	if reason != ReasonExited {
		sess.terminate(s.grace)
	}

	level := slog.LevelInfo
	if reason == ReasonDisconnect {
		level = slog.LevelDebug
	}
	s.logger.Log(context.Background(), level, "dev server released", "session", sess.ID, "reason", string(reason))
}

// Get returns a copy of the registered session's state.
func (s *Supervisor) Get(sessionID string) (SessionInfo, bool) {
	sess, ok := s.registry.get(sessionID)
	if !ok {
		return SessionInfo{}, false
	}
	return sess.Info(), true
}

// Sessions lists the registered sessions sorted by ID.
func (s *Supervisor) Sessions() []SessionInfo {
	list := s.registry.list()
	out := make([]SessionInfo, len(list))
	for i, sess := range list {
		out[i] = sess.Info()
	}
	return out
}

// Logs returns up to n recent output lines of the current or most recent run
// of sessionID.
func (s *Supervisor) Logs(sessionID string, n int) ([]string, error) {
	if sess, ok := s.registry.get(sessionID); ok {
		return sess.output.Tail(n), nil
	}
	if buf, ok := s.history.lookup(sessionID); ok {
		return buf.Tail(n), nil
	}
	return nil, ErrNotRunning
}

// ComputePort maps a session ID onto one of 100 ports above the base port.
func (s *Supervisor) ComputePort(sessionID string) int {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return s.basePort + int(h.Sum32()%100)
}

func (s *Supervisor) Len() int { return s.registry.len() }
