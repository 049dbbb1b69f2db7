package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/justinpbarnett/devdeck/internal/agent"
)

var errUnknownAgent = errors.New("unknown agent")

type analyzeRequest struct {
	Agent string `json:"agent"`
}

// analysisLine is one NDJSON record of an analysis response.
type analysisLine struct {
	ID      string `json:"id"`
	Tag     string `json:"tag,omitempty"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content,omitempty"`
	Done    bool   `json:"done,omitempty"`
	Error   string `json:"error,omitempty"`
}

// handleAnalyze runs an agent over a project and streams one NDJSON line per
// completed section, followed by a done or error line.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Agent == "" {
		req.Agent = agent.CodebaseAnalyzer
	}

	dir, err := s.deps.Catalog.Dir(r.PathValue("project"))
	if err != nil {
		writeError(w, err)
		return
	}

	reg := agent.NewRegistry(s.logger)
	reg.Load(dir, s.deps.Agents)
	a, ok := reg.Get(req.Agent)
	if !ok {
		writeError(w, fmt.Errorf("%w: %s", errUnknownAgent, req.Agent))
		return
	}

	if s.deps.Providers == nil {
		writeError(w, errors.New("no model provider configured"))
		return
	}
	provider, err := s.deps.Providers()
	if err != nil {
		writeError(w, err)
		return
	}

	id := uuid.NewString()
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	enc := json.NewEncoder(w)
	emit := func(line analysisLine) error {
		if err := enc.Encode(line); err != nil {
			return err
		}
		return rc.Flush()
	}

	s.logger.Info("analysis started", "id", id, "agent", a.Name, "provider", provider.Name(), "dir", dir)
	err = agent.Analyze(r.Context(), provider, a, dir, func(sec agent.Section) error {
		return emit(analysisLine{ID: id, Tag: sec.Raw, Name: sec.Name, Content: sec.Content})
	})
	if err != nil {
		s.logger.Warn("analysis failed", "id", id, "error", err)
		_ = emit(analysisLine{ID: id, Error: err.Error()})
		return
	}
	_ = emit(analysisLine{ID: id, Done: true})
}
