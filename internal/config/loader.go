package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the project-local config file looked up first.
const FileName = "devdeck.toml"

// Load discovers a config file, merges it with defaults, applies environment
// variable overrides, validates the result, and returns the final config.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	return LoadFrom(cwd)
}

// LoadFrom loads config using dir for file discovery.
func LoadFrom(dir string) (*Config, error) {
	path, err := discoverConfigPath(dir)
	if err != nil {
		return nil, fmt.Errorf("config discovery: %w", err)
	}
	return load(path)
}

// LoadFile loads config from an explicit path, skipping discovery.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	return load(path)
}

func load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		override, err := loadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		merge(&cfg, override)
	}

	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigPath returns the first config file that exists, or an empty
// string when running on defaults only.
func discoverConfigPath(dir string) (string, error) {
	local := filepath.Join(dir, FileName)
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", nil
	}
	user := filepath.Join(home, ".config", "devdeck", "config.toml")
	if _, err := os.Stat(user); err == nil {
		return user, nil
	}

	return "", nil
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing TOML: %w", err)
	}

	return &cfg, nil
}

// merge overlays override onto base. Scalars override when non-zero, slices
// replace entirely when non-nil, pointer fields override when non-nil.
func merge(base *Config, override *Config) {
	// Server
	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.AllowedOrigins != nil {
		base.Server.AllowedOrigins = override.Server.AllowedOrigins
	}
	if override.Server.ShutdownTimeout != "" {
		base.Server.ShutdownTimeout = override.Server.ShutdownTimeout
	}

	// Dev server
	ds, ods := &base.DevServer, override.DevServer
	if ods.Shell != "" {
		ds.Shell = ods.Shell
	}
	if ods.AllowedCommands != nil {
		ds.AllowedCommands = ods.AllowedCommands
	}
	if ods.BlockedPatterns != nil {
		ds.BlockedPatterns = ods.BlockedPatterns
	}
	if ods.ConflictSignatures != nil {
		ds.ConflictSignatures = ods.ConflictSignatures
	}
	if ods.StopGrace != "" {
		ds.StopGrace = ods.StopGrace
	}
	if ods.PortStrategy != "" {
		ds.PortStrategy = ods.PortStrategy
	}
	if ods.BasePort != 0 {
		ds.BasePort = ods.BasePort
	}
	if ods.LogDir != "" {
		ds.LogDir = ods.LogDir
	}
	if ods.LogLines != 0 {
		ds.LogLines = ods.LogLines
	}

	// Settings
	if override.Settings.Path != "" {
		base.Settings.Path = override.Settings.Path
	}
	if override.Settings.ProjectsPath != "" {
		base.Settings.ProjectsPath = override.Settings.ProjectsPath
	}

	// LLM
	if override.LLM.Provider != "" {
		base.LLM.Provider = override.LLM.Provider
	}
	if override.LLM.Model != "" {
		base.LLM.Model = override.LLM.Model
	}
	if override.LLM.MaxTokens != 0 {
		base.LLM.MaxTokens = override.LLM.MaxTokens
	}
	if override.LLM.ClaudePath != "" {
		base.LLM.ClaudePath = override.LLM.ClaudePath
	}

	// Tracing
	if override.Tracing.Enabled != nil {
		base.Tracing.Enabled = override.Tracing.Enabled
	}
	if override.Tracing.Exporter != "" {
		base.Tracing.Exporter = override.Tracing.Exporter
	}
	if override.Tracing.OTLPEndpoint != "" {
		base.Tracing.OTLPEndpoint = override.Tracing.OTLPEndpoint
	}
	if override.Tracing.SampleRate != 0 {
		base.Tracing.SampleRate = override.Tracing.SampleRate
	}
	if override.Tracing.ServiceName != "" {
		base.Tracing.ServiceName = override.Tracing.ServiceName
	}

	// Log
	if override.Log.Level != "" {
		base.Log.Level = override.Log.Level
	}
	if override.Log.File != "" {
		base.Log.File = override.Log.File
	}
}

// applyEnvOverrides applies DEVDECK_* environment variables on top of the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DEVDECK_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DEVDECK_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("DEVDECK_LLM_PROVIDER"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := os.Getenv("DEVDECK_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("DEVDECK_PROJECTS_PATH"); v != "" {
		cfg.Settings.ProjectsPath = v
	}
	if v := os.Getenv("DEVDECK_STOP_GRACE"); v != "" {
		if _, err := time.ParseDuration(v); err == nil {
			cfg.DevServer.StopGrace = v
		} else {
			fmt.Fprintf(os.Stderr, "warning: DEVDECK_STOP_GRACE=%q is not a valid duration, ignoring\n", v)
		}
	}
	if v := os.Getenv("DEVDECK_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LLM.MaxTokens = n
		} else {
			fmt.Fprintf(os.Stderr, "warning: DEVDECK_MAX_TOKENS=%q is not a valid integer, ignoring\n", v)
		}
	}
}
