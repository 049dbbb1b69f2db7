// Package api exposes the supervisor, project catalog, settings and agents
// over HTTP and WebSocket for the web frontend.
package api

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/justinpbarnett/devdeck/internal/config"
	"github.com/justinpbarnett/devdeck/internal/devserver"
	"github.com/justinpbarnett/devdeck/internal/llm"
	"github.com/justinpbarnett/devdeck/internal/project"
	"github.com/justinpbarnett/devdeck/internal/safety"
	"github.com/justinpbarnett/devdeck/internal/settings"
)

// ProviderFactory returns the model backend for one analysis request.
type ProviderFactory func() (llm.Provider, error)

// Deps are the collaborators the handlers call into.
type Deps struct {
	Supervisor *devserver.Supervisor
	Catalog    *project.Catalog
	Settings   *settings.Store
	DevPolicy  *safety.Policy
	FSPolicy   *safety.Policy
	Providers  ProviderFactory
	// Agents holds the built-in agent definitions.
	Agents fs.FS
	// Shell runs filesystem commands, e.g. ["/bin/sh", "-c"].
	Shell  []string
	Logger *slog.Logger
}

type Server struct {
	cfg            config.ServerConfig
	deps           Deps
	logger         *slog.Logger
	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
	upgrader       websocket.Upgrader
	execTimeout    time.Duration
}

func New(cfg config.ServerConfig, deps Deps) *Server {
	s := &Server{
		cfg:            cfg,
		deps:           deps,
		logger:         deps.Logger,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
		execTimeout:    10 * time.Second,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.deps.FSPolicy == nil {
		s.deps.FSPolicy = safety.FilesystemPolicy()
	}
	if len(s.deps.Shell) == 0 {
		s.deps.Shell = []string{"/bin/sh", "-c"}
	}
	for _, origin := range cfg.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	return s
}

// Handler returns the routed API with CORS and request logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("POST /api/settings", s.handleUpdateSettings)

	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("POST /api/projects/server", s.handleStartServer)
	mux.HandleFunc("DELETE /api/projects/server", s.handleStopServer)
	mux.HandleFunc("GET /api/projects/server", s.handleListServers)
	mux.HandleFunc("GET /api/projects/server/logs", s.handleServerLogs)
	mux.HandleFunc("GET /api/projects/server/ws", s.handleServerWS)
	mux.HandleFunc("POST /api/projects/{project}/analyze", s.handleAnalyze)

	mux.HandleFunc("GET /api/pages/{project}", s.handleListPages)
	mux.HandleFunc("GET /api/pages/{project}/content", s.handlePageContent)

	mux.HandleFunc("POST /api/filesystem/execute", s.handleExecute)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "sessions": s.deps.Supervisor.Len()})
	})

	return s.logRequests(s.cors(mux))
}

// Serve runs the API on ln until ctx is done, then stops every dev server
// and drains in-flight requests within the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("api listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeoutDuration())
	defer cancel()

	// Stopping the sessions first ends the streaming responses, so the
	// HTTP shutdown below is not held up by them.
	supErr := s.deps.Supervisor.ShutdownAll(shutdownCtx)
	httpErr := srv.Shutdown(shutdownCtx)
	<-errCh
	if supErr != nil || httpErr != nil {
		return fmt.Errorf("shutdown: %w", errors.Join(supErr, httpErr))
	}
	return nil
}

func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// ProviderFromSettings builds providers from cfg, reading the API key from
// the settings file on every call so key changes apply immediately.
func ProviderFromSettings(cfg config.LLMConfig, store *settings.Store) ProviderFactory {
	return func() (llm.Provider, error) {
		key := ""
		if st, err := store.Settings(); err == nil {
			key = st.AnthropicAPIKey
		}
		return llm.New(cfg, llm.ResolveAPIKey(key))
	}
}
