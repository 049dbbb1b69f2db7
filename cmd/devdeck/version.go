package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justinpbarnett/devdeck/internal/update"
)

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print the version and check for updates",
	Args:              cobra.NoArgs,
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "devdeck version %s\n", version)

		if version == "dev" {
			fmt.Fprintln(out, "Development build, update check skipped.")
			return nil
		}

		rel, err := update.Check(cmd.Context(), version, update.Repo)
		switch {
		case err != nil:
			fmt.Fprintf(out, "Update check failed: %v\n", err)
		case rel != nil:
			fmt.Fprintf(out, "Update available: v%s. Run \"devdeck update\" to install.\n", rel.Version)
		default:
			fmt.Fprintln(out, "You are up to date.")
		}
		return nil
	},
}

var updateCmd = &cobra.Command{
	Use:               "update",
	Short:             "Replace this binary with the latest release",
	Args:              cobra.NoArgs,
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		rel, err := update.Check(cmd.Context(), version, update.Repo)
		if err != nil {
			return err
		}
		if rel == nil {
			fmt.Fprintf(out, "devdeck %s is the latest version.\n", version)
			return nil
		}

		fmt.Fprintf(out, "Updating to v%s...\n", rel.Version)
		applied, err := update.Apply(cmd.Context(), version, update.Repo)
		if errors.Is(err, update.ErrDevBuild) {
			return err
		}
		if err != nil {
			return fmt.Errorf("update to v%s: %w", rel.Version, err)
		}
		fmt.Fprintf(out, "Updated to v%s.\n", applied.Version)
		if applied.ReleaseNotes != "" {
			fmt.Fprintf(out, "\n%s\n", applied.ReleaseNotes)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd, updateCmd)
}
