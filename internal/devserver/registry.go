package devserver

import (
	"sort"
	"sync"
)

// registry maps session IDs to live sessions. Every mutation goes through
// the Supervisor.
type registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

func newRegistry() *registry {
	return &registry{sessions: make(map[string]*Session)}
}

// reserve inserts sess under its ID unless the ID is taken or the registry
// has been drained. Check and insert happen under one lock.
func (r *registry) reserve(sess *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrShutdown
	}
	if _, exists := r.sessions[sess.ID]; exists {
		return ErrAlreadyRunning
	}
	r.sessions[sess.ID] = sess
	return nil
}

// remove deletes the entry for sess.ID only if it still points at sess, so a
// late exit of an old session never evicts its successor.
func (r *registry) remove(sess *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cur, ok := r.sessions[sess.ID]; ok && cur == sess {
		delete(r.sessions, sess.ID)
		return true
	}
	return false
}

func (r *registry) get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	return sess, ok
}

// list returns the registered sessions sorted by ID.
func (r *registry) list() []*Session {
	r.mu.Lock()
	out := make([]*Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, sess)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// drain empties the registry and refuses further reservations.
func (r *registry) drain() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	out := make([]*Session, 0, len(r.sessions))
	for id, sess := range r.sessions {
		out = append(out, sess)
		delete(r.sessions, id)
	}
	return out
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
