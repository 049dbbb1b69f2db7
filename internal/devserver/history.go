package devserver

import (
	"sync"

	"github.com/justinpbarnett/devdeck/internal/process"
)

// history keeps the output buffer of the latest run per session ID so logs
// stay readable after the session has left the registry.
type history struct {
	mu   sync.Mutex
	runs map[string]*process.LineBuffer
}

func newHistory() *history {
	return &history{runs: make(map[string]*process.LineBuffer)}
}

func (h *history) record(sess *Session) {
	h.mu.Lock()
	h.runs[sess.ID] = sess.output
	h.mu.Unlock()
}

func (h *history) lookup(id string) (*process.LineBuffer, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	buf, ok := h.runs[id]
	return buf, ok
}
