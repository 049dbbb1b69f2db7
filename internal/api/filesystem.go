package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os/exec"
)

type executeRequest struct {
	Command string `json:"command"`
}

type executeResponse struct {
	Output string `json:"output"`
	Error  string `json:"error"`
}

// handleExecute runs an allow-listed navigation command in the projects
// directory and returns what it printed.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.deps.FSPolicy.Check(req.Command); err != nil {
		writeError(w, err)
		return
	}

	dir := ""
	if st, err := s.deps.Settings.Settings(); err == nil {
		dir = st.ProjectsPath
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.execTimeout)
	defer cancel()

	args := append(append([]string{}, s.deps.Shell[1:]...), req.Command)
	cmd := exec.CommandContext(ctx, s.deps.Shell[0], args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = errors.New("command timed out")
		}
		s.logger.Debug("filesystem command failed", "command", req.Command, "error", err)
		writeJSON(w, http.StatusInternalServerError, executeResponse{Output: stdout.String(), Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, executeResponse{Output: stdout.String(), Error: stderr.String()})
}
