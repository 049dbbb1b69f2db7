package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/justinpbarnett/devdeck/internal/devserver"
)

const streamBufSize = 32 * 1024

type startRequest struct {
	Command   string `json:"command"`
	ProjectID string `json:"projectId"`
}

// checkStart validates a start request before anything is spawned.
func (s *Server) checkStart(projectID, command string) error {
	if projectID == "" {
		return badRequest("projectId is required")
	}
	if s.deps.DevPolicy != nil {
		if err := s.deps.DevPolicy.Check(command); err != nil {
			return err
		}
	}
	return nil
}

// handleStartServer streams the dev server's output as a chunked plain text
// response. The session ends when the client goes away.
func (s *Server) handleStartServer(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.checkStart(req.ProjectID, req.Command); err != nil {
		writeError(w, err)
		return
	}

	stream, err := s.deps.Supervisor.Start(r.Context(), req.ProjectID, req.Command)
	if err != nil {
		writeError(w, err)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	// A quiet server must not leave the client waiting for headers.
	rc := http.NewResponseController(w)
	_ = rc.Flush()
	buf := make([]byte, streamBufSize)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				s.logger.Debug("client went away", "project", req.ProjectID, "error", werr)
				return
			}
			_ = rc.Flush()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.logger.Debug("stream ended", "project", req.ProjectID, "error", err)
			}
			return
		}
	}
}

func (s *Server) handleStopServer(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ProjectID == "" {
		req.ProjectID = r.URL.Query().Get("projectId")
	}
	if req.ProjectID == "" {
		writeError(w, badRequest("projectId is required"))
		return
	}
	if err := s.deps.Supervisor.Stop(req.ProjectID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"stopped": true})
}

type serverStatus struct {
	devserver.SessionInfo
	Stats *devserver.Stats `json:"stats,omitempty"`
}

func (s *Server) handleListServers(w http.ResponseWriter, r *http.Request) {
	infos := s.deps.Supervisor.Sessions()
	out := make([]serverStatus, 0, len(infos))
	for _, info := range infos {
		st := serverStatus{SessionInfo: info}
		if stats, err := s.deps.Supervisor.Stats(r.Context(), info.ID); err == nil {
			st.Stats = &stats
		}
		out = append(out, st)
	}
	writeJSON(w, http.StatusOK, map[string]any{"servers": out})
}

func (s *Server) handleServerLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id := q.Get("projectId")
	if id == "" {
		writeError(w, badRequest("projectId is required"))
		return
	}
	n := 200
	if v := q.Get("lines"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			writeError(w, badRequest("lines must be a positive integer"))
			return
		}
		n = parsed
	}
	lines, err := s.deps.Supervisor.Logs(id, n)
	if err != nil {
		writeError(w, err)
		return
	}
	if lines == nil {
		lines = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"projectId": id, "lines": lines})
}
