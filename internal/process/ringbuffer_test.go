package process

import (
	"fmt"
	"sync"
	"testing"
)

func TestLineBufferAppend(t *testing.T) {
	lb := NewLineBuffer(10)

	lb.Append("line 1")
	lb.Append("line 2")
	lb.Append("line 3")

	lines := lb.Lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "line 1" || lines[2] != "line 3" {
		t.Errorf("unexpected lines %q", lines)
	}
}

func TestLineBufferOverflow(t *testing.T) {
	lb := NewLineBuffer(3)

	for _, s := range []string{"a", "b", "c", "d", "e"} {
		lb.Append(s)
	}

	lines := lb.Lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines (capacity), got %d", len(lines))
	}
	if lines[0] != "c" || lines[1] != "d" || lines[2] != "e" {
		t.Errorf("expected [c d e], got %q", lines)
	}
	if lb.TotalWritten() != 5 {
		t.Errorf("expected 5 total written, got %d", lb.TotalWritten())
	}
}

func TestLineBufferTail(t *testing.T) {
	lb := NewLineBuffer(5)

	for i := 0; i < 7; i++ {
		lb.Append(fmt.Sprintf("line %d", i))
	}

	tail := lb.Tail(3)
	if len(tail) != 3 {
		t.Fatalf("expected 3 tail lines, got %d", len(tail))
	}
	if tail[0] != "line 4" || tail[1] != "line 5" || tail[2] != "line 6" {
		t.Errorf("unexpected tail %q", tail)
	}

	if got := lb.Tail(100); len(got) != 5 {
		t.Errorf("expected tail capped at 5, got %d", len(got))
	}
	if got := lb.Tail(0); got != nil {
		t.Errorf("expected nil for Tail(0), got %q", got)
	}
}

func TestLineBufferWriteSplitsChunks(t *testing.T) {
	lb := NewLineBuffer(10)

	lb.Write([]byte("ready in 3"))
	lb.Write([]byte("00ms\r\n  ➜  Local: "))
	lb.Write([]byte("http://localhost:5173/\n"))

	lines := lb.Lines()
	want := []string{"ready in 300ms", "  ➜  Local: http://localhost:5173/"}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %q", len(want), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestLineBufferPartialLineVisible(t *testing.T) {
	lb := NewLineBuffer(10)

	lb.Write([]byte("done\nwaiting"))

	tail := lb.Tail(2)
	if len(tail) != 2 || tail[0] != "done" || tail[1] != "waiting" {
		t.Errorf("expected [done waiting], got %q", tail)
	}
	if lb.Len() != 1 {
		t.Errorf("partial line must not count as complete, got Len %d", lb.Len())
	}
}

func TestLineBufferReset(t *testing.T) {
	lb := NewLineBuffer(10)
	lb.Write([]byte("a\nb"))
	lb.Reset()

	if lines := lb.Lines(); lines != nil {
		t.Errorf("expected nil after reset, got %q", lines)
	}
	if lb.TotalWritten() != 0 {
		t.Errorf("expected 0 total written after reset, got %d", lb.TotalWritten())
	}
}

func TestLineBufferConcurrentWrites(t *testing.T) {
	lb := NewLineBuffer(1000)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				lb.Write([]byte("x\n"))
			}
		}()
	}
	wg.Wait()

	if lb.TotalWritten() != 400 {
		t.Errorf("expected 400 lines, got %d", lb.TotalWritten())
	}
}
