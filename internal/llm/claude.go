package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/justinpbarnett/devdeck/internal/config"
	"github.com/justinpbarnett/devdeck/internal/process"
	"github.com/justinpbarnett/devdeck/internal/tagstream"
)

const waitDelay = 2 * time.Second

// Claude runs the claude CLI in print mode and reads its stream-json output.
type Claude struct {
	path  string
	model string
}

func NewClaude(cfg config.LLMConfig) (*Claude, error) {
	name := cfg.ClaudePath
	if name == "" {
		name = "claude"
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("claude binary not found: %w", err)
	}
	return &Claude{path: path, model: cfg.Model}, nil
}

func (c *Claude) Name() string { return "claude" }

func (c *Claude) BuildArgs(req Request) []string {
	args := []string{
		"-p", req.Prompt,
		"--output-format", "stream-json",
		"--verbose",
		"--include-partial-messages",
	}
	if req.System != "" {
		args = append(args, "--append-system-prompt", req.System)
	}
	if req.Model != "" {
		args = append(args, "--model", req.Model)
	} else if c.model != "" {
		args = append(args, "--model", c.model)
	}
	return args
}

func (c *Claude) Stream(ctx context.Context, req Request) (tagstream.TextSource, error) {
	ctx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(ctx, c.path, c.BuildArgs(req)...)
	cmd.Dir = req.Dir
	cmd.WaitDelay = waitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr := process.NewLineBuffer(50)
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("start claude: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &claudeSource{cmd: cmd, cancel: cancel, scanner: scanner, stdout: stdout, stderr: stderr}, nil
}

// Lines of the stream-json format this source cares about.
type claudeLine struct {
	Type    string          `json:"type"`
	Event   *claudeEvent    `json:"event,omitempty"`
	Message *claudeMessage  `json:"message,omitempty"`
	IsError bool            `json:"is_error,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

type claudeEvent struct {
	Type  string `json:"type"`
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta,omitempty"`
}

type claudeMessage struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type claudeSource struct {
	cmd     *exec.Cmd
	cancel  context.CancelFunc
	scanner *bufio.Scanner
	stdout  io.ReadCloser
	stderr  *process.LineBuffer

	text      string
	sawDeltas bool
	err       error
	finished  bool
}

// Next prefers partial text deltas. Whole assistant text blocks are used
// only when the CLI sent no deltas, so text is never yielded twice.
func (s *claudeSource) Next() bool {
	if s.finished {
		return false
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		var msg claudeLine
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "stream_event":
			if msg.Event == nil || msg.Event.Type != "content_block_delta" || msg.Event.Delta == nil {
				continue
			}
			if msg.Event.Delta.Type != "text_delta" || msg.Event.Delta.Text == "" {
				continue
			}
			s.sawDeltas = true
			s.text = msg.Event.Delta.Text
			return true
		case "assistant":
			if s.sawDeltas || msg.Message == nil {
				continue
			}
			var sb strings.Builder
			for _, block := range msg.Message.Content {
				if block.Type == "text" {
					sb.WriteString(block.Text)
				}
			}
			if sb.Len() == 0 {
				continue
			}
			s.text = sb.String()
			return true
		case "result":
			if msg.IsError {
				var text string
				_ = json.Unmarshal(msg.Result, &text)
				s.err = fmt.Errorf("claude reported an error: %s", text)
			}
		}
	}
	s.finish()
	return false
}

func (s *claudeSource) finish() {
	s.finished = true
	scanErr := s.scanner.Err()
	waitErr := s.cmd.Wait()
	s.cancel()
	if s.err != nil {
		return
	}
	if scanErr != nil {
		s.err = fmt.Errorf("read claude output: %w", scanErr)
		return
	}
	if waitErr != nil {
		tail := strings.Join(s.stderr.Tail(5), "\n")
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) && tail != "" {
			s.err = fmt.Errorf("claude exited with code %d: %s", exitErr.ExitCode(), tail)
			return
		}
		s.err = fmt.Errorf("claude: %w", waitErr)
	}
}

func (s *claudeSource) Text() string { return s.text }
func (s *claudeSource) Err() error   { return s.err }

// Close kills the CLI if it is still streaming.
func (s *claudeSource) Close() error {
	if s.finished {
		return nil
	}
	s.finished = true
	s.cancel()
	_ = s.stdout.Close()
	_ = s.cmd.Wait()
	return nil
}
