package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := validate(&cfg); err != nil {
		t.Fatalf("DefaultConfig() should pass validation, got: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"provider", func(c *Config) { c.LLM.Provider = "gemini" }, "llm.provider"},
		{"port strategy", func(c *Config) { c.DevServer.PortStrategy = "random" }, "port_strategy"},
		{"exporter", func(c *Config) { c.Tracing.Exporter = "jaeger" }, "tracing.exporter"},
		{"otlp without endpoint", func(c *Config) { c.Tracing.Exporter = "otlp" }, "otlp_endpoint"},
		{"sample rate", func(c *Config) { c.Tracing.SampleRate = 2 }, "sample_rate"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"stop grace", func(c *Config) { c.DevServer.StopGrace = "later" }, "stop_grace"},
		{"negative stop grace", func(c *Config) { c.DevServer.StopGrace = "-1s" }, "stop_grace"},
		{"shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = "x" }, "shutdown_timeout"},
		{"empty shell", func(c *Config) { c.DevServer.Shell = "  " }, "dev_server.shell"},
		{"base port", func(c *Config) { c.DevServer.BasePort = 0 }, "base_port"},
		{"log lines", func(c *Config) { c.DevServer.LogLines = -1 }, "log_lines"},
		{"max tokens", func(c *Config) { c.LLM.MaxTokens = 0 }, "max_tokens"},
		{"blocked pattern", func(c *Config) { c.DevServer.BlockedPatterns = []string{"("} }, "blocked_patterns[0]"},
		{"blank signature", func(c *Config) { c.DevServer.ConflictSignatures = []string{"EADDRINUSE", " "} }, "conflict_signatures[1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := validate(&cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error about %s, got: %v", tt.want, err)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Provider = "bad"
	cfg.DevServer.PortStrategy = "bad"
	cfg.DevServer.BasePort = -1

	err := validate(&cfg)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(ve.Errors) != 3 {
		t.Errorf("expected 3 errors, got %d: %v", len(ve.Errors), ve.Errors)
	}
}
