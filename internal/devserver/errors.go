package devserver

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning is returned by Start when the session ID is taken.
	ErrAlreadyRunning = errors.New("dev server already running")
	// ErrShutdown is returned by Start once ShutdownAll has been called.
	ErrShutdown = errors.New("dev server supervisor is shut down")
	// ErrNotRunning is returned by queries about a session that is not registered.
	ErrNotRunning = errors.New("dev server not running")
)

// SpawnError reports a command that could not be started. Nothing stays
// registered for the session when Start returns it.
type SpawnError struct {
	SessionID string
	Command   string
	Err       error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("start dev server %s (%q): %v", e.SessionID, e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }
