package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"unicode"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/justinpbarnett/devdeck/agents"
	"github.com/justinpbarnett/devdeck/internal/agent"
	"github.com/justinpbarnett/devdeck/internal/api"
	"github.com/justinpbarnett/devdeck/internal/logging"
)

var (
	analyzeAgent string
	analyzeJSON  bool
	analyzeWidth int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <project|.>",
	Short: "Analyze a project's codebase with an agent",
	Long: `Run an agent over a project and print each section of its answer as soon
as the section is complete.

Agents come from the built-in set, ~/.config/devdeck/agents and the
project's .devdeck/agents directory, later ones overriding earlier ones.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&analyzeAgent, "agent", "a", agent.CodebaseAnalyzer, "agent to run")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print sections as JSON lines")
	analyzeCmd.Flags().IntVar(&analyzeWidth, "width", 100, "word wrap width for rendered output")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := logging.Setup(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	_, dir, _, err := resolveProject(args[0])
	if err != nil {
		return err
	}

	reg := agent.NewRegistry(logger)
	reg.Load(dir, agents.FS)
	a, ok := reg.Get(analyzeAgent)
	if !ok {
		var names []string
		for _, known := range reg.List() {
			names = append(names, known.Name)
		}
		return fmt.Errorf("unknown agent %q (available: %s)", analyzeAgent, strings.Join(names, ", "))
	}

	provider, err := api.ProviderFromSettings(cfg.LLM, newSettingsStore(logger))()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	var emit agent.SectionHandler
	if analyzeJSON {
		enc := json.NewEncoder(out)
		emit = func(s agent.Section) error { return enc.Encode(s) }
	} else {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(analyzeWidth))
		if err != nil {
			return fmt.Errorf("markdown renderer: %w", err)
		}
		emit = func(s agent.Section) error {
			rendered, err := r.Render(sectionMarkdown(s))
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(out, rendered)
			return err
		}
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Analyzing %s with %s (%s)...\n", dir, a.Name, provider.Name())
	return agent.Analyze(ctx, provider, a, dir, emit)
}

// sectionMarkdown renders a section under a heading derived from its tag.
func sectionMarkdown(s agent.Section) string {
	if s.Name == "" {
		return s.Raw + "\n"
	}
	return "## " + sectionTitle(s.Name) + "\n\n" + s.Content + "\n"
}

// sectionTitle splits a tag name like CoreComponents into "Core Components".
func sectionTitle(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && !unicode.IsUpper(runes[i-1]) {
			b.WriteByte(' ')
		}
		if r == '_' || r == '-' {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
