package safety

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/justinpbarnett/devdeck/internal/config"
)

// ErrRejected is matched by every error Check returns.
var ErrRejected = errors.New("command rejected")

// RejectedError explains why a command was refused.
type RejectedError struct {
	Command string
	Reason  string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("command %q rejected: %s", e.Command, e.Reason)
}

func (e *RejectedError) Is(target error) bool { return target == ErrRejected }

// shellControl matches characters that would let a command chain, redirect
// or substitute past the allow-list.
var shellControl = regexp.MustCompile("[;&|<>`$\\n\\r]")

// FilesystemCommands is the allow-list for the filesystem execute endpoint.
var FilesystemCommands = []string{"ls", "pwd", "cd", "dir"}

// Policy decides which command strings may be handed to a shell. An allow-list
// entry containing a space must match the whole command; a single word entry
// matches the command's first word as long as no shell control characters
// follow. Blocked patterns are checked first and always win.
type Policy struct {
	allowed []string
	blocked []*regexp.Regexp
	raw     []string
}

// NewPolicy compiles blocked patterns as case-insensitive regexes. Invalid
// patterns are skipped and collected into the returned error; the policy is
// still usable with the patterns that compiled.
func NewPolicy(allowed, blocked []string) (*Policy, error) {
	p := &Policy{}
	for _, a := range allowed {
		if norm := normalize(a); norm != "" {
			p.allowed = append(p.allowed, norm)
		}
	}

	var errs []string
	for i, pat := range blocked {
		re, err := regexp.Compile("(?i)" + pat)
		if err != nil {
			errs = append(errs, fmt.Sprintf("pattern[%d] %q: %v", i, pat, err))
			continue
		}
		p.blocked = append(p.blocked, re)
		p.raw = append(p.raw, pat)
	}

	if len(errs) > 0 {
		return p, fmt.Errorf("invalid blocked patterns: %s", strings.Join(errs, "; "))
	}
	return p, nil
}

// Check returns nil when command may run and a *RejectedError otherwise.
func (p *Policy) Check(command string) error {
	norm := normalize(command)
	if norm == "" {
		return &RejectedError{Command: command, Reason: "empty command"}
	}

	if blocked, pattern := p.Blocked(norm); blocked {
		return &RejectedError{Command: command, Reason: fmt.Sprintf("matches blocked pattern %q", pattern)}
	}

	first := strings.Fields(norm)[0]
	for _, a := range p.allowed {
		if strings.Contains(a, " ") {
			if norm == a {
				return nil
			}
			continue
		}
		if first == a && !shellControl.MatchString(norm) {
			return nil
		}
	}
	return &RejectedError{Command: command, Reason: "not in the allowed command list"}
}

// Blocked reports the first blocked pattern command matches.
func (p *Policy) Blocked(command string) (bool, string) {
	for i, re := range p.blocked {
		if re.MatchString(command) {
			return true, p.raw[i]
		}
	}
	return false, ""
}

func (p *Policy) Allowed() []string {
	out := make([]string, len(p.allowed))
	copy(out, p.allowed)
	return out
}

// Patterns returns the blocked patterns that compiled.
func (p *Policy) Patterns() []string {
	out := make([]string, len(p.raw))
	copy(out, p.raw)
	return out
}

func normalize(command string) string {
	return strings.Join(strings.Fields(command), " ")
}

// DevServerPolicy builds the policy applied to dev server start commands.
func DevServerPolicy(cfg config.DevServerConfig) (*Policy, error) {
	return NewPolicy(cfg.AllowedCommands, cfg.BlockedPatterns)
}

// FilesystemPolicy allows the read-only navigation commands of the
// filesystem endpoint.
func FilesystemPolicy() *Policy {
	p, _ := NewPolicy(FilesystemCommands, nil)
	return p
}
