package process

import (
	"strings"
	"sync"
)

// LineBuffer keeps the most recent output lines of a dev server. Raw output
// chunks go in through Write; a trailing partial line is held until its
// newline arrives.
type LineBuffer struct {
	mu           sync.RWMutex
	lines        []string
	capacity     int
	head         int
	count        int
	totalWritten int
	partial      strings.Builder
}

func NewLineBuffer(capacity int) *LineBuffer {
	if capacity <= 0 {
		capacity = 5000
	}
	return &LineBuffer{
		lines:    make([]string, capacity),
		capacity: capacity,
	}
}

// Write splits p into lines. It never fails.
func (lb *LineBuffer) Write(p []byte) (int, error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	s := string(p)
	for {
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			lb.partial.WriteString(s)
			break
		}
		lb.partial.WriteString(s[:i])
		lb.appendLocked(strings.TrimSuffix(lb.partial.String(), "\r"))
		lb.partial.Reset()
		s = s[i+1:]
	}
	return len(p), nil
}

// Append adds one complete line.
func (lb *LineBuffer) Append(line string) {
	lb.mu.Lock()
	lb.appendLocked(line)
	lb.mu.Unlock()
}

func (lb *LineBuffer) appendLocked(line string) {
	lb.lines[lb.head] = line
	lb.head = (lb.head + 1) % lb.capacity
	if lb.count < lb.capacity {
		lb.count++
	}
	lb.totalWritten++
}

// Lines returns the buffered lines oldest first, including a pending partial
// line if there is one.
func (lb *LineBuffer) Lines() []string {
	return lb.Tail(lb.capacity + 1)
}

// Tail returns up to the last n lines, including a pending partial line.
func (lb *LineBuffer) Tail(n int) []string {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	pending := lb.partial.Len() > 0
	if n <= 0 || (lb.count == 0 && !pending) {
		return nil
	}

	full := n
	if pending {
		full--
	}
	if full > lb.count {
		full = lb.count
	}

	result := make([]string, 0, full+1)
	start := (lb.head - full + lb.capacity) % lb.capacity
	if start+full <= lb.capacity {
		result = append(result, lb.lines[start:start+full]...)
	} else {
		result = append(result, lb.lines[start:]...)
		result = append(result, lb.lines[:full-(lb.capacity-start)]...)
	}
	if pending {
		result = append(result, lb.partial.String())
	}
	return result
}

func (lb *LineBuffer) Len() int {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return lb.count
}

func (lb *LineBuffer) TotalWritten() int {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return lb.totalWritten
}

func (lb *LineBuffer) Reset() {
	lb.mu.Lock()
	lb.head = 0
	lb.count = 0
	lb.totalWritten = 0
	lb.partial.Reset()
	lb.mu.Unlock()
}
