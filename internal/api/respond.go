package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/justinpbarnett/devdeck/internal/devserver"
	"github.com/justinpbarnett/devdeck/internal/llm"
	"github.com/justinpbarnett/devdeck/internal/project"
	"github.com/justinpbarnett/devdeck/internal/safety"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, safety.ErrRejected),
		errors.Is(err, project.ErrInvalidPath),
		errors.Is(err, llm.ErrMissingAPIKey):
		return http.StatusBadRequest
	case errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, project.ErrPageNotFound),
		errors.Is(err, devserver.ErrNotRunning),
		errors.Is(err, errUnknownAgent):
		return http.StatusNotFound
	case errors.Is(err, devserver.ErrAlreadyRunning):
		return http.StatusConflict
	case errors.Is(err, devserver.ErrShutdown):
		return http.StatusServiceUnavailable
	default:
		// includes *devserver.SpawnError
		return http.StatusInternalServerError
	}
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// decodeJSON reads a JSON body. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return badRequest("invalid JSON body: %v", err)
}
