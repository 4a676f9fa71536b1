package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/moat/internal/scheduler"
	"github.com/wonny/moat/pkg/logger"
)

// JobsHandler exposes scheduler state
type JobsHandler struct {
	scheduler *scheduler.Scheduler
	logger    *logger.Logger
}

// NewJobsHandler creates a new jobs handler
func NewJobsHandler(s *scheduler.Scheduler, log *logger.Logger) *JobsHandler {
	return &JobsHandler{
		scheduler: s,
		logger:    log,
	}
}

// Stats returns run statistics per job
// GET /api/jobs
func (h *JobsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    h.scheduler.GetJobStats(),
	})
}

// Trigger starts a job outside its schedule
// POST /api/jobs/{name}/run
func (h *JobsHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := h.scheduler.RunJob(name); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	h.logger.WithField("job", name).Info("Job triggered via API")
	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"job":     name,
	})
}
