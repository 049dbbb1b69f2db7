package process

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFollowReader_WaitsForNewData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	rf, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fr := NewFollowReader(ctx, rf)
	defer fr.Close()

	go func() {
		time.Sleep(200 * time.Millisecond)
		wf, _ := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
		wf.Write([]byte("delayed data\n"))
		wf.Close()
	}()

	buf := make([]byte, 64)
	n, err := fr.Read(buf)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if string(buf[:n]) != "delayed data\n" {
		t.Errorf("expected 'delayed data\\n', got %q", string(buf[:n]))
	}
}

func TestFollowReader_StopsOnContextCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.log")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	rf, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	fr := NewFollowReader(ctx, rf)
	defer fr.Close()

	go func() {
		time.Sleep(150 * time.Millisecond)
		cancel()
	}()

	buf := make([]byte, 64)
	start := time.Now()
	_, err = fr.Read(buf)
	if err != io.EOF {
		t.Errorf("expected EOF after cancel, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Read took too long after cancel: %v", elapsed)
	}
}

func TestSessionLogAppendsRuns(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")

	first, err := CreateSessionLog(dir, "site-a", "npm run dev")
	if err != nil {
		t.Fatal(err)
	}
	first.Write([]byte("first run\n"))
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second, err := CreateSessionLog(dir, "site-a", "npm run preview")
	if err != nil {
		t.Fatal(err)
	}
	second.Write([]byte("second run\n"))
	second.Close()

	if second.Path() != filepath.Join(dir, "site-a.log") {
		t.Errorf("unexpected log path %s", second.Path())
	}

	data, err := os.ReadFile(second.Path())
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{"npm run dev", "first run", "npm run preview", "second run"} {
		if !strings.Contains(text, want) {
			t.Errorf("log missing %q:\n%s", want, text)
		}
	}
	if strings.Index(text, "first run") > strings.Index(text, "second run") {
		t.Error("runs out of order")
	}
}

func TestSessionLogWriteAfterClose(t *testing.T) {
	l, err := CreateSessionLog(t.TempDir(), "x", "true")
	if err != nil {
		t.Fatal(err)
	}
	l.Close()

	if _, err := l.Write([]byte("late")); err == nil {
		t.Error("expected error writing to closed log")
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}

func TestLogPathSanitizesIDs(t *testing.T) {
	tests := map[string]string{
		"my-site":     "my-site.log",
		"../../etc":   ".._.._etc.log",
		"a b/c":       "a_b_c.log",
		"..":          "_.log",
		"":            "_.log",
		"site_2.beta": "site_2.beta.log",
	}
	for id, want := range tests {
		if got := filepath.Base(LogPath("/logs", id)); got != want {
			t.Errorf("LogPath(%q) = %q, want %q", id, got, want)
		}
		if dir := filepath.Dir(LogPath("/logs", id)); dir != "/logs" {
			t.Errorf("LogPath(%q) escaped the log dir: %s", id, dir)
		}
	}
}
