package config

import (
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	DevServer DevServerConfig `toml:"dev_server"`
	Settings  SettingsConfig  `toml:"settings"`
	LLM       LLMConfig       `toml:"llm"`
	Tracing   TracingConfig   `toml:"tracing"`
	Log       LogConfig       `toml:"log"`
}

type ServerConfig struct {
	Addr            string   `toml:"addr"`
	AllowedOrigins  []string `toml:"allowed_origins"`
	ShutdownTimeout string   `toml:"shutdown_timeout"`
}

type DevServerConfig struct {
	Shell              string   `toml:"shell"`
	AllowedCommands    []string `toml:"allowed_commands"`
	BlockedPatterns    []string `toml:"blocked_patterns"`
	ConflictSignatures []string `toml:"conflict_signatures"`
	StopGrace          string   `toml:"stop_grace"`
	PortStrategy       string   `toml:"port_strategy"`
	BasePort           int      `toml:"base_port"`
	LogDir             string   `toml:"log_dir"`
	LogLines           int      `toml:"log_lines"`
}

type SettingsConfig struct {
	Path         string `toml:"path"`
	ProjectsPath string `toml:"projects_path"`
}

type LLMConfig struct {
	Provider   string `toml:"provider"`
	Model      string `toml:"model"`
	MaxTokens  int    `toml:"max_tokens"`
	ClaudePath string `toml:"claude_path"`
}

type TracingConfig struct {
	Enabled      *bool   `toml:"enabled"`
	Exporter     string  `toml:"exporter"`
	OTLPEndpoint string  `toml:"otlp_endpoint"`
	SampleRate   float64 `toml:"sample_rate"`
	ServiceName  string  `toml:"service_name"`
}

type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// ShellArgs splits the configured shell into the program and its leading
// arguments. The command string is appended as the final argument.
func (d DevServerConfig) ShellArgs() []string {
	return strings.Fields(d.Shell)
}

// StopGraceDuration returns how long a stopped process gets before SIGKILL.
// The value has already passed validation when it comes from Load.
func (d DevServerConfig) StopGraceDuration() time.Duration {
	dur, err := time.ParseDuration(d.StopGrace)
	if err != nil {
		return 5 * time.Second
	}
	return dur
}

func (s ServerConfig) ShutdownTimeoutDuration() time.Duration {
	dur, err := time.ParseDuration(s.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return dur
}

func (t TracingConfig) IsEnabled() bool {
	return t.Enabled != nil && *t.Enabled
}
