package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/justinpbarnett/devdeck/internal/detect"
	"github.com/justinpbarnett/devdeck/internal/devserver"
	"github.com/justinpbarnett/devdeck/internal/logging"
	"github.com/justinpbarnett/devdeck/internal/safety"
	"github.com/justinpbarnett/devdeck/internal/ui"
)

var runForce bool

var runCmd = &cobra.Command{
	Use:   "run <project|.> [command...]",
	Short: "Run a project's dev server in the terminal",
	Long: `Start a dev server and follow its output in a terminal UI.

The project is looked up in the projects folder; "." runs in the current
directory. Without a command the detected dev command is used.

Example:
  devdeck run site                 # detected command, e.g. npm run dev
  devdeck run site npm run preview
  devdeck run .`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runForce, "force", false, "skip the allowed command check")
}

func runRun(_ *cobra.Command, args []string) error {
	logger, closeLog, err := logging.SetupTUI(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	projectID, dir, resolver, err := resolveProject(args[0])
	if err != nil {
		return err
	}

	command := strings.Join(args[1:], " ")
	if command == "" {
		res, err := detect.Detect(dir)
		if err != nil {
			return err
		}
		if res.DevCommand == "" {
			return fmt.Errorf("no dev command detected in %s; pass one explicitly", dir)
		}
		command = res.DevCommand
	}

	if !runForce {
		policy, err := safety.DevServerPolicy(cfg.DevServer)
		if err != nil {
			logger.Warn("ignoring invalid blocked patterns", "error", err)
		}
		if err := policy.Check(command); err != nil {
			return fmt.Errorf("%w (use --force to run it anyway)", err)
		}
	}

	sup := devserver.New(cfg.DevServer, resolver, devserver.WithLogger(logger))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.DevServer.StopGraceDuration()+time.Second)
		defer cancel()
		_ = sup.ShutdownAll(ctx)
	}()

	app := ui.NewApp(ui.Options{
		Supervisor:      sup,
		Project:         projectID,
		Command:         command,
		Lines:           cfg.DevServer.LogLines,
		ShutdownTimeout: cfg.DevServer.StopGraceDuration() + time.Second,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running terminal ui: %w", err)
	}
	return nil
}

// resolveProject maps the project argument to a session ID, its directory
// and the resolver the supervisor should use.
func resolveProject(arg string) (string, string, devserver.ProjectResolver, error) {
	if arg == "." {
		cwd, err := os.Getwd()
		if err != nil {
			return "", "", nil, fmt.Errorf("get working directory: %w", err)
		}
		return filepath.Base(cwd), cwd, devserver.StaticDir(cwd), nil
	}

	store := newSettingsStore(logging.Discard())
	catalog := newCatalog(store, logging.Discard())
	dir, err := catalog.Dir(arg)
	if err != nil {
		return "", "", nil, fmt.Errorf("project %q: %w", arg, err)
	}
	return arg, dir, catalog, nil
}
