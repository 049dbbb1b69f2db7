// Package agent loads agent definitions and runs them against a project,
// turning the model's tagged answer into sections as they complete.
package agent

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/justinpbarnett/devdeck/internal/llm"
)

const (
	PriorityProject = 0 // .devdeck/agents/*.yaml
	PriorityUser    = 1 // ~/.config/devdeck/agents/*.yaml
	PriorityBuiltIn = 2 // embedded
)

// CodebaseAnalyzer is the built-in agent behind the analyze endpoint.
const CodebaseAnalyzer = "codebase-analyzer"

type Agent struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Model       string   `yaml:"model"`
	Sections    []string `yaml:"sections"`
	Prompt      string   `yaml:"prompt"`
	Task        string   `yaml:"task"`
	Focus       []string `yaml:"focus"`

	Source   string `yaml:"-"`
	Priority int    `yaml:"-"`
}

// Parse decodes one agent definition. The name falls back to the file name.
func Parse(data []byte, source string, priority int) (*Agent, error) {
	var a Agent
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse agent %s: %w", source, err)
	}
	if a.Name == "" {
		a.Name = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}
	if strings.TrimSpace(a.Prompt) == "" {
		return nil, fmt.Errorf("agent %s: prompt is empty", a.Name)
	}
	a.Source = source
	a.Priority = priority
	return &a, nil
}

func ParseFile(path string, priority int) (*Agent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent file %s: %w", path, err)
	}
	return Parse(data, path, priority)
}

// HasSection reports whether name is one of the sections the agent asks for.
func (a *Agent) HasSection(name string) bool {
	for _, s := range a.Sections {
		if s == name {
			return true
		}
	}
	return false
}

// Request builds the model request for running the agent on projectDir.
func (a *Agent) Request(projectDir string) llm.Request {
	var b strings.Builder
	task := a.Task
	if task == "" {
		task = "Analyze the project located at: {dir}"
	}
	b.WriteString(strings.ReplaceAll(task, "{dir}", projectDir))
	if len(a.Focus) > 0 {
		b.WriteString("\n\nFocus on:")
		for _, f := range a.Focus {
			b.WriteString("\n- ")
			b.WriteString(f)
		}
	}
	return llm.Request{
		System: strings.TrimSpace(a.Prompt),
		Prompt: b.String(),
		Dir:    projectDir,
		Model:  a.Model,
	}
}
