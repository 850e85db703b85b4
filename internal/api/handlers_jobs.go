package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JakeStanger/rust-bindocs/internal/pipeline"
)

// handleSubmitJobs queues a render of the configured docs tree.
func (s *Server) handleSubmitJobs(w http.ResponseWriter, r *http.Request) {
	format, err := s.format(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	targets, err := pipeline.Plan(s.cfg.DocsPath, s.cfg.OutputPath, s.cfg.Pattern, format)
	if err != nil {
		jsonError(w, "plan failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	jobs := s.orchestrator.SubmitPlan(targets, format)
	accepted := make([]map[string]any, 0, len(jobs))
	for _, job := range jobs {
		snap := job.Snapshot()
		accepted = append(accepted, map[string]any{
			"job_id":   snap.ID,
			"source":   snap.Source,
			"status":   snap.Status,
			"poll_url": fmt.Sprintf("/api/jobs/%s", snap.ID),
		})
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"format": format,
		"jobs":   accepted,
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}
