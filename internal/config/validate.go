package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ValidationError collects multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// validate checks the config for internal consistency. All checks run and
// their failures are collected into one ValidationError.
func validate(cfg *Config) error {
	var errs []string

	switch cfg.LLM.Provider {
	case "anthropic", "claude":
	default:
		errs = append(errs, fmt.Sprintf("llm.provider %q must be \"anthropic\" or \"claude\"", cfg.LLM.Provider))
	}

	switch cfg.DevServer.PortStrategy {
	case "none", "hash":
	default:
		errs = append(errs, fmt.Sprintf("dev_server.port_strategy %q must be \"none\" or \"hash\"", cfg.DevServer.PortStrategy))
	}

	switch cfg.Tracing.Exporter {
	case "none", "stdout", "otlp":
	default:
		errs = append(errs, fmt.Sprintf("tracing.exporter %q must be \"none\", \"stdout\", or \"otlp\"", cfg.Tracing.Exporter))
	}
	if cfg.Tracing.Exporter == "otlp" && cfg.Tracing.OTLPEndpoint == "" {
		errs = append(errs, "tracing.otlp_endpoint is required for the otlp exporter")
	}
	if cfg.Tracing.SampleRate < 0 || cfg.Tracing.SampleRate > 1 {
		errs = append(errs, "tracing.sample_rate must be between 0 and 1")
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level %q must be \"debug\", \"info\", \"warn\", or \"error\"", cfg.Log.Level))
	}

	if d, err := time.ParseDuration(cfg.DevServer.StopGrace); err != nil || d <= 0 {
		errs = append(errs, fmt.Sprintf("dev_server.stop_grace %q must be a positive duration", cfg.DevServer.StopGrace))
	}
	if d, err := time.ParseDuration(cfg.Server.ShutdownTimeout); err != nil || d <= 0 {
		errs = append(errs, fmt.Sprintf("server.shutdown_timeout %q must be a positive duration", cfg.Server.ShutdownTimeout))
	}

	if len(cfg.DevServer.ShellArgs()) == 0 {
		errs = append(errs, "dev_server.shell must not be empty")
	}
	if cfg.Server.Addr == "" {
		errs = append(errs, "server.addr must not be empty")
	}

	if cfg.DevServer.BasePort <= 0 {
		errs = append(errs, "dev_server.base_port must be positive")
	}
	if cfg.DevServer.LogLines <= 0 {
		errs = append(errs, "dev_server.log_lines must be positive")
	}
	if cfg.LLM.MaxTokens <= 0 {
		errs = append(errs, "llm.max_tokens must be positive")
	}

	for i, pattern := range cfg.DevServer.BlockedPatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			errs = append(errs, fmt.Sprintf("dev_server.blocked_patterns[%d] %q is not valid regex: %v", i, pattern, err))
		}
	}
	for i, sig := range cfg.DevServer.ConflictSignatures {
		if strings.TrimSpace(sig) == "" {
			errs = append(errs, fmt.Sprintf("dev_server.conflict_signatures[%d] must not be blank", i))
		}
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
