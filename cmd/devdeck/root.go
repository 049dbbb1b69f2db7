package main

import (
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/justinpbarnett/devdeck/internal/config"
	"github.com/justinpbarnett/devdeck/internal/project"
	"github.com/justinpbarnett/devdeck/internal/settings"
)

func init() {
	// Query the terminal background before any bubbletea program starts so
	// the OSC 11 reply cannot race the input loop.
	_ = lipgloss.HasDarkBackground()
}

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "devdeck",
	Short: "Run, watch and analyze local dev servers",
	Long: `devdeck supervises the dev servers of the projects in your projects folder.

Run "devdeck serve" for the HTTP and WebSocket API, or "devdeck run <project>"
to drive a single dev server from the terminal.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./devdeck.toml, then ~/.config/devdeck/config.toml)")
}

func loadConfig(_ *cobra.Command, _ []string) error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFile(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	return err
}

// newSettingsStore opens the settings file. A projects path set in the
// config or environment wins over the file's.
func newSettingsStore(logger *slog.Logger) *settings.Store {
	opts := []settings.Option{settings.WithLogger(logger)}
	if cfg.Settings.ProjectsPath != "" {
		opts = append(opts, settings.WithProjectsPath(cfg.Settings.ProjectsPath))
	}
	return settings.NewStore(cfg.Settings.Path, opts...)
}

func newCatalog(store *settings.Store, logger *slog.Logger) *project.Catalog {
	return project.NewCatalog(func() (string, error) {
		st, err := store.Settings()
		return st.ProjectsPath, err
	}, project.WithLogger(logger))
}
