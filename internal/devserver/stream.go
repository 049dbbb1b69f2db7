package devserver

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// ErrStreamAbandoned is returned by Read when the consumer did not drain the
// stream after its session stopped.
var ErrStreamAbandoned = errors.New("dev server stream abandoned")

// Stream is the consumer's end of a session's combined output. Reads return
// output chunks and diagnostic lines as they arrive and io.EOF once the
// session has ended. Closing it counts as a disconnect and stops the process.
type Stream struct {
	r *io.PipeReader
	w *io.PipeWriter

	closeOnce sync.Once
	closed    chan struct{}
	endOnce   sync.Once
	ended     chan struct{}

	writing atomic.Bool
	writes  atomic.Uint64
}

func newStream() *Stream {
	r, w := io.Pipe()
	return &Stream{r: r, w: w, closed: make(chan struct{}), ended: make(chan struct{})}
}

func (s *Stream) Read(p []byte) (int, error) { return s.r.Read(p) }

func (s *Stream) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return s.r.Close()
}

// write blocks until the consumer has taken all of p or went away.
func (s *Stream) write(p []byte) error {
	s.writing.Store(true)
	_, err := s.w.Write(p)
	s.writing.Store(false)
	s.writes.Add(1)
	return err
}

// end lets the consumer drain what it has and then see io.EOF.
func (s *Stream) end() {
	s.endOnce.Do(func() { close(s.ended) })
	_ = s.w.Close()
}

// cutStalled checks every d until the stream ends or is closed, and cuts it
// when a write has been pending for a whole period. Cutting unblocks the
// write.
func (s *Stream) cutStalled(d time.Duration) {
	t := time.NewTicker(d)
	defer t.Stop()
	last := s.writes.Load()
	for {
		select {
		case <-s.ended:
			return
		case <-s.closed:
			return
		case <-t.C:
			n := s.writes.Load()
			if s.writing.Load() && n == last {
				_ = s.w.CloseWithError(ErrStreamAbandoned)
				return
			}
			last = n
		}
	}
}
