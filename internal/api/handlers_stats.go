package api

import (
	"net/http"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	cat := s.resolver.Catalogue()
	writeJSON(w, http.StatusOK, map[string]any{
		"render":       s.orchestrator.Stats(),
		"queue_depth":  s.orchestrator.QueueDepth(),
		"modules":      cat.Len(),
		"declarations": cat.Declarations(),
	})
}
