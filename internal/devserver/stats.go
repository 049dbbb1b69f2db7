package devserver

import (
	"context"
	"fmt"
	"time"

	gproc "github.com/shirou/gopsutil/v3/process"
)

// Stats is a resource snapshot of a session's process tree. Memory and CPU
// cover the shell and all of its descendants.
type Stats struct {
	PID        int           `json:"pid"`
	RSSBytes   uint64        `json:"rssBytes"`
	CPUPercent float64       `json:"cpuPercent"`
	Processes  int           `json:"processes"`
	Threads    int32         `json:"threads"`
	Uptime     time.Duration `json:"uptime"`
}

// Stats samples the process tree of a running session.
func (s *Supervisor) Stats(ctx context.Context, sessionID string) (Stats, error) {
	sess, ok := s.registry.get(sessionID)
	if !ok {
		return Stats{}, ErrNotRunning
	}
	pid := sess.PID()
	if pid == 0 {
		return Stats{}, ErrNotRunning
	}

	root, err := gproc.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return Stats{}, fmt.Errorf("inspect pid %d: %w", pid, err)
	}

	st := Stats{PID: pid, Uptime: time.Since(sess.StartedAt).Truncate(time.Second)}
	queue := []*gproc.Process{root}
	for len(queue) > 0 && st.Processes < 256 {
		p := queue[0]
		queue = queue[1:]
		st.Processes++

		if mem, err := p.MemoryInfoWithContext(ctx); err == nil {
			st.RSSBytes += mem.RSS
		}
		if cpu, err := p.CPUPercentWithContext(ctx); err == nil {
			st.CPUPercent += cpu
		}
		if n, err := p.NumThreadsWithContext(ctx); err == nil {
			st.Threads += n
		}
		// ErrorNoChildren is the common case for leaf processes.
		if children, err := p.ChildrenWithContext(ctx); err == nil {
			queue = append(queue, children...)
		}
	}
	return st, nil
}
