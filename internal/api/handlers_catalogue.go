package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type moduleSummary struct {
	Path         string   `json:"path"`
	File         string   `json:"file"`
	Declarations []string `json:"declarations"`
}

// handleCatalogue lists every resolved module and the declarations in it.
func (s *Server) handleCatalogue(w http.ResponseWriter, r *http.Request) {
	cat := s.resolver.Catalogue()

	modules := make([]moduleSummary, 0, cat.Len())
	for _, path := range cat.Paths() {
		m, _ := cat.Module(path)
		names := make([]string, 0, len(m.Declarations))
		for _, d := range m.Declarations {
			names = append(names, d.Name)
		}
		modules = append(modules, moduleSummary{
			Path:         path.String(),
			File:         m.File,
			Declarations: names,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"modules":      modules,
		"declarations": cat.Declarations(),
	})
}

// handleDeclaration resolves a directive path, absolute or shorthand.
// Slashes are accepted in place of "::".
func (s *Server) handleDeclaration(w http.ResponseWriter, r *http.Request) {
	text := strings.Trim(chi.URLParam(r, "*"), "/")
	text = strings.ReplaceAll(text, "/", "::")
	if text == "" {
		jsonError(w, "declaration path is required", http.StatusBadRequest)
		return
	}

	decl, ok := s.resolver.Lookup(text)
	if !ok {
		jsonError(w, "declaration not found: "+text, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, decl)
}
