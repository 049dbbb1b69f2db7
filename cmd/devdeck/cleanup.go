package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const staleLogAge = 7 * 24 * time.Hour

var (
	cleanupDryRun bool
	cleanupAge    time.Duration
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove stale dev server log files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.DevServer.LogDir == "" {
			return errors.New("dev_server.log_dir is not set; nothing to clean up")
		}
		return runCleanup(cmd.OutOrStdout(), cfg.DevServer.LogDir, cleanupAge, cleanupDryRun, time.Now())
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "only list what would be removed")
	cleanupCmd.Flags().DurationVar(&cleanupAge, "older-than", staleLogAge, "remove logs not written to for this long")
}

func runCleanup(out io.Writer, dir string, age time.Duration, dryRun bool, now time.Time) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(out, "%s does not exist, nothing to do.\n", dir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read log dir: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".log") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		idle := now.Sub(info.ModTime())
		if idle < age {
			continue
		}

		path := filepath.Join(dir, e.Name())
		if dryRun {
			fmt.Fprintf(out, "  [dry-run] would remove %s (idle %s)\n", path, idle.Round(time.Hour))
			removed++
			continue
		}
		if err := os.Remove(path); err != nil {
			fmt.Fprintf(out, "  warning: remove %s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(out, "  removed %s\n", path)
		removed++
	}

	prefix := ""
	if dryRun {
		prefix = "[dry-run] "
	}
	fmt.Fprintf(out, "\n%sRemoved %d log files.\n", prefix, removed)
	return nil
}
