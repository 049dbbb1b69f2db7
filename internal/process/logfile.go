package process

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

const followPollInterval = 100 * time.Millisecond

// FollowReader reads a file like tail -f: at EOF it polls for more data until
// its context is cancelled.
type FollowReader struct {
	file   *os.File
	ctx    context.Context
	cancel context.CancelFunc
}

func NewFollowReader(ctx context.Context, f *os.File) *FollowReader {
	ctx, cancel := context.WithCancel(ctx)
	return &FollowReader{
		file:   f,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (r *FollowReader) Read(p []byte) (int, error) {
	for {
		n, err := r.file.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != io.EOF {
			return 0, err
		}
		select {
		case <-r.ctx.Done():
			return 0, io.EOF
		case <-time.After(followPollInterval):
		}
	}
}

func (r *FollowReader) Close() error {
	r.cancel()
	return r.file.Close()
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// LogPath returns where the output log of sessionID lives under dir.
func LogPath(dir, sessionID string) string {
	name := unsafeNameChars.ReplaceAllString(sessionID, "_")
	if name == "" || name == "." || name == ".." {
		name = "_"
	}
	return filepath.Join(dir, name+".log")
}

// SessionLog is the append-only output log of one dev server session. Both
// output channels go into the same file in arrival order.
type SessionLog struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// CreateSessionLog opens the log for sessionID in dir, creating dir if needed.
// Each run starts with a header line so consecutive runs stay apart.
func CreateSessionLog(dir, sessionID, command string) (*SessionLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}
	path := LogPath(dir, sessionID)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintf(f, "--- %s %s\n", time.Now().Format(time.RFC3339), command); err != nil {
		f.Close()
		return nil, err
	}
	return &SessionLog{path: path, file: f}, nil
}

func (l *SessionLog) Path() string { return l.path }

func (l *SessionLog) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return 0, os.ErrClosed
	}
	return l.file.Write(p)
}

func (l *SessionLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
