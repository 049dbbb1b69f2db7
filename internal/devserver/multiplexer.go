package devserver

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/justinpbarnett/devdeck/internal/process"
)

// ConflictMessage is written to the stream when the server could not bind
// its port.
const ConflictMessage = "\nError: Port is already in use. Stop the other server using this port and try again.\n"

// ExitMessage formats the line written when the process exits on its own.
func ExitMessage(code int) string {
	return fmt.Sprintf("\nProcess exited with code %d", code)
}

const (
	readBufSize  = 32 * 1024
	defaultDrain = 5 * time.Second
)

// multiplexer merges a session's stdout and stderr into its Stream.
type multiplexer struct {
	sess    *Session
	stream  *Stream
	logFile *process.SessionLog
	detect  *conflictDetector
	// drain is how long a stopped session waits on a consumer that stopped
	// reading before cutting its stream.
	drain time.Duration

	chunks chan []byte
	// done is closed when forwarding stops; readers then drain and drop.
	done chan struct{}
}

func newMultiplexer(sess *Session, stream *Stream, logFile *process.SessionLog, signatures []string, drain time.Duration) *multiplexer {
	if drain <= 0 {
		drain = defaultDrain
	}
	return &multiplexer{
		sess:    sess,
		stream:  stream,
		logFile: logFile,
		detect:  newConflictDetector(signatures),
		drain:   drain,
		chunks:  make(chan []byte, 16),
		done:    make(chan struct{}),
	}
}

// start launches one reader per pipe and a waiter that reaps the process
// once both pipes hit EOF. onExit runs after the exit code is recorded.
func (m *multiplexer) start(cmd *exec.Cmd, stdout, stderr io.Reader, onExit func(code int, err error)) {
	var wg sync.WaitGroup
	wg.Add(2)
	go m.read(stdout, &wg)
	go m.read(stderr, &wg)

	go func() {
		select {
		case <-m.sess.stopped:
			m.stream.cutStalled(m.drain)
		case <-m.done:
		}
	}()

	go func() {
		wg.Wait()
		err := cmd.Wait()
		code := exitCode(cmd, err)
		m.sess.setExit(code)
		close(m.sess.exited)
		close(m.chunks)
		onExit(code, err)
	}()
}

func (m *multiplexer) read(r io.Reader, wg *sync.WaitGroup) {
	defer wg.Done()
	buf := make([]byte, readBufSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case m.chunks <- chunk:
			default:
				// Once stopped, a consumer that is not keeping up must not
				// keep the process from being reaped.
				select {
				case m.chunks <- chunk:
				case <-m.done:
				case <-m.sess.stopped:
				}
			}
		}
		if err != nil {
			return
		}
	}
}

// forward copies chunks to the stream in arrival order until the session
// ends, then ends the stream. release is the supervisor's exit path.
func (m *multiplexer) forward(release func(StopReason)) {
	defer m.stream.end()
	defer close(m.done)
	if m.logFile != nil {
		defer m.logFile.Close()
	}

	for {
		select {
		case chunk, ok := <-m.chunks:
			if !ok {
				release(ReasonExited)
				m.emit([]byte(ExitMessage(m.sess.ExitCode())))
				return
			}
			if err := m.emit(chunk); err != nil {
				release(ReasonDisconnect)
				return
			}
			if m.detect.check(chunk) {
				release(ReasonConflict)
				m.emit([]byte(ConflictMessage))
				return
			}
		case <-m.stream.closed:
			release(ReasonDisconnect)
			return
		}
	}
}

// emit records p in the session's line buffer and log file and hands it to
// the consumer.
func (m *multiplexer) emit(p []byte) error {
	m.sess.output.Write(p)
	if m.logFile != nil {
		m.logFile.Write(p)
	}
	return m.stream.write(p)
}

func exitCode(cmd *exec.Cmd, err error) int {
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// conflictDetector looks for port-conflict signatures in output with ANSI
// codes removed. The tail of the previous chunk is kept so a signature split
// across two reads still matches.
type conflictDetector struct {
	signatures []string
	keep       int
	tail       string
}

func newConflictDetector(signatures []string) *conflictDetector {
	d := &conflictDetector{}
	for _, sig := range signatures {
		sig = strings.ToLower(strings.TrimSpace(sig))
		if sig == "" {
			continue
		}
		d.signatures = append(d.signatures, sig)
		if len(sig)-1 > d.keep {
			d.keep = len(sig) - 1
		}
	}
	return d
}

func (d *conflictDetector) check(chunk []byte) bool {
	if len(d.signatures) == 0 {
		return false
	}
	text := d.tail + strings.ToLower(ansi.Strip(string(chunk)))
	for _, sig := range d.signatures {
		if strings.Contains(text, sig) {
			return true
		}
	}
	if len(text) > d.keep {
		text = text[len(text)-d.keep:]
	}
	d.tail = text
	return false
}
