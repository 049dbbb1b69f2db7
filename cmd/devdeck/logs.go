package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/justinpbarnett/devdeck/internal/process"
)

var (
	logsFollow bool
	logsLines  int
)

var logsCmd = &cobra.Command{
	Use:   "logs <project>",
	Short: "Print a project's dev server log file",
	Long: `Print the tail of the log file a dev server writes when dev_server.log_dir
is configured. With --follow, keep printing output as it is appended.`,
	Args: cobra.ExactArgs(1),
	RunE: runLogs,
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "keep printing new output")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 200, "number of lines to print")
}

func runLogs(cmd *cobra.Command, args []string) error {
	if cfg.DevServer.LogDir == "" {
		return errors.New("dev_server.log_dir is not set; dev servers are not logging to disk")
	}
	path := process.LogPath(cfg.DevServer.LogDir, args[0])
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no log for %q at %s", args[0], path)
		}
		return err
	}

	out := cmd.OutOrStdout()
	if err := printTail(out, f, logsLines); err != nil {
		f.Close()
		return err
	}
	if !logsFollow {
		return f.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	r := process.NewFollowReader(ctx, f)
	defer r.Close()
	_, err = io.Copy(out, r)
	return err
}

// printTail writes the last n lines of r and leaves r at its end.
func printTail(w io.Writer, r io.Reader, n int) error {
	if n <= 0 {
		n = 1
	}
	tail := process.NewLineBuffer(n)
	if _, err := io.Copy(tail, r); err != nil {
		return err
	}
	for _, line := range tail.Tail(n) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
