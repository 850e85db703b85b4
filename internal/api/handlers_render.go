package api

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JakeStanger/rust-bindocs/internal/outline"
	"github.com/JakeStanger/rust-bindocs/internal/render"
	"github.com/JakeStanger/rust-bindocs/internal/replacer"
)

// handleRender renders the template in the request body.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format, err := s.format(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		jsonError(w, "failed to read template: "+err.Error(), http.StatusRequestEntityTooLarge)
		return
	}

	log := s.log.With("request_id", middleware.GetReqID(r.Context()))
	doc := render.New(format)
	rp := replacer.New(doc, s.resolver, s.typeStyle(), log)
	if err := rp.Replace(string(body)); err != nil {
		jsonError(w, "render failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		jsonError(w, "render failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	stats := rp.Stats()
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set(headerResolved, strconv.Itoa(stats.Resolved))
	w.Header().Set(headerUnresolved, strconv.Itoa(stats.Unresolved))
	w.Write(buf.Bytes())
}

// handleOutline returns the heading tree of a rendered document.
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	format, err := s.format(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	tree, err := outline.ForFormat(format).Parse(body, "document"+format.Extension())
	if err != nil {
		jsonError(w, "outline failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}
