package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/justinpbarnett/devdeck/agents"
	"github.com/justinpbarnett/devdeck/internal/api"
	"github.com/justinpbarnett/devdeck/internal/devserver"
	"github.com/justinpbarnett/devdeck/internal/logging"
	"github.com/justinpbarnett/devdeck/internal/safety"
	"github.com/justinpbarnett/devdeck/internal/tracing"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP and WebSocket API",
	Long: `Serve the devdeck API: settings, project listing, dev server control with
streamed output, page browsing and codebase analysis.

Every dev server started through the API is stopped when serve exits.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "address to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	logger, closeLog, err := logging.Setup(cfg.Log)
	if err != nil {
		return err
	}
	defer closeLog()

	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("flushing traces", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := newSettingsStore(logger)
	if _, err := store.Load(); err != nil {
		return err
	}
	catalog := newCatalog(store, logger)

	changed := make(chan struct{}, 1)
	if err := store.Watch(ctx, changed); err != nil {
		logger.Warn("settings hot reload disabled", "error", err)
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-changed:
				catalog.Invalidate()
			}
		}
	}()

	devPolicy, err := safety.DevServerPolicy(cfg.DevServer)
	if err != nil {
		// The policy still works with the patterns that compiled.
		logger.Warn("ignoring invalid blocked patterns", "error", err)
	}

	sup := devserver.New(cfg.DevServer, catalog,
		devserver.WithLogger(logger),
		devserver.WithTracer(tp.Tracer("github.com/justinpbarnett/devdeck/internal/devserver")),
	)

	srv := api.New(cfg.Server, api.Deps{
		Supervisor: sup,
		Catalog:    catalog,
		Settings:   store,
		DevPolicy:  devPolicy,
		FSPolicy:   safety.FilesystemPolicy(),
		Providers:  api.ProviderFromSettings(cfg.LLM, store),
		Agents:     agents.FS,
		Shell:      cfg.DevServer.ShellArgs(),
		Logger:     logger,
	})

	logger.Info("devdeck serving", "addr", cfg.Server.Addr, "tracing", tp.Enabled())
	return srv.ListenAndServe(ctx)
}
