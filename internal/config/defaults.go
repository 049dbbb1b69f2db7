package config

func boolPtr(b bool) *bool { return &b }

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:            "localhost:3001",
			AllowedOrigins:  []string{"http://localhost:3000"},
			ShutdownTimeout: "10s",
		},
		DevServer: DevServerConfig{
			Shell: "/bin/sh -c",
			AllowedCommands: []string{
				"npm run dev",
				"npm run preview",
				"pnpm run dev",
				"yarn dev",
				"bun run dev",
			},
			BlockedPatterns: []string{
				`rm\s+-[rf]+\s+/`,
				`(curl|wget).*\|\s*(sh|bash)`,
				`chmod\s+777`,
				`:\(\)\{.*\};`,
				`[;&|]\s*(sudo|su)\b`,
			},
			ConflictSignatures: []string{"EADDRINUSE", "address already in use"},
			StopGrace:          "5s",
			PortStrategy:       "none",
			BasePort:           3100,
			LogLines:           5000,
		},
		Settings: SettingsConfig{
			Path: "settings.json",
		},
		LLM: LLMConfig{
			Provider:   "anthropic",
			Model:      "claude-sonnet-4-5",
			MaxTokens:  4096,
			ClaudePath: "claude",
		},
		Tracing: TracingConfig{
			Enabled:     boolPtr(false),
			Exporter:    "none",
			SampleRate:  1.0,
			ServiceName: "devdeck",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
