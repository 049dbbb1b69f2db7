package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/justinpbarnett/devdeck/internal/config"
	"github.com/justinpbarnett/devdeck/internal/detect"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a devdeck.toml with the detected dev commands",
	Args:  cobra.MaximumNArgs(1),
	// init must work before any config exists.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		return runInit(cmd.OutOrStdout(), dir, initForce)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing devdeck.toml")
}

// initFile is the part of the config init writes out.
type initFile struct {
	Server    config.ServerConfig    `toml:"server"`
	DevServer config.DevServerConfig `toml:"dev_server"`
}

func runInit(out io.Writer, dir string, force bool) error {
	path := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	result, err := detect.Detect(dir)
	if err != nil {
		return fmt.Errorf("detect: %w", err)
	}
	printDetected(out, result)

	content, err := renderConfig(result)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(out, "  created %s\n", path)
	return nil
}

// renderConfig starts from the defaults and allow-lists the detected
// commands.
func renderConfig(r *detect.Result) ([]byte, error) {
	defaults := config.DefaultConfig()
	file := initFile{Server: defaults.Server, DevServer: defaults.DevServer}
	for _, c := range r.Commands() {
		if !slices.Contains(file.DevServer.AllowedCommands, c) {
			file.DevServer.AllowedCommands = append(file.DevServer.AllowedCommands, c)
		}
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# devdeck configuration for %s\n", r.Name)
	if r.Language != "" {
		fmt.Fprintf(&buf, "# detected: %s", r.Language)
		if r.PackageManager != "" {
			fmt.Fprintf(&buf, " (%s)", r.PackageManager)
		}
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
	if err := toml.NewEncoder(&buf).Encode(file); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return buf.Bytes(), nil
}

func printDetected(out io.Writer, r *detect.Result) {
	if r.Name != "" {
		fmt.Fprintf(out, "  detected project name: %s\n", r.Name)
	}
	if r.Language != "" {
		fmt.Fprintf(out, "  detected language: %s\n", r.Language)
	}
	if r.PackageManager != "" {
		fmt.Fprintf(out, "  detected package manager: %s\n", r.PackageManager)
	}
	if r.DevCommand != "" {
		fmt.Fprintf(out, "  detected dev command: %s\n", r.DevCommand)
	}
	if r.PreviewCommand != "" {
		fmt.Fprintf(out, "  detected preview command: %s\n", r.PreviewCommand)
	}
	if r.TestCommand != "" {
		fmt.Fprintf(out, "  detected test command: %s\n", r.TestCommand)
	}
}
