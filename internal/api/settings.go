package api

import "net/http"

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	doc, err := s.deps.Settings.Load()
	if err != nil {
		s.logger.Error("read settings", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, err)
		return
	}
	doc, err := s.deps.Settings.Update(patch)
	if err != nil {
		s.logger.Error("update settings", "error", err)
		writeError(w, err)
		return
	}
	// projectsPath may have moved.
	s.deps.Catalog.Invalidate()
	writeJSON(w, http.StatusOK, doc)
}
