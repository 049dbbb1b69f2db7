package api

import (
	"net/http"

	"github.com/justinpbarnett/devdeck/internal/project"
)

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.deps.Catalog.List()
	if err != nil {
		s.logger.Error("list projects", "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := s.deps.Catalog.Pages(r.PathValue("project"))
	if err != nil {
		writeError(w, err)
		return
	}
	if pages == nil {
		pages = []project.Page{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": pages})
}

func (s *Server) handlePageContent(w http.ResponseWriter, r *http.Request) {
	content, err := s.deps.Catalog.PageContent(r.PathValue("project"), r.URL.Query().Get("pagePath"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"content": content})
}
