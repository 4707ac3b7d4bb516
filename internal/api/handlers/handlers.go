package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/moxiedata/affiliate-ledger/internal/api/middleware"
	"github.com/moxiedata/affiliate-ledger/internal/config"
	"github.com/moxiedata/affiliate-ledger/internal/jobs"
)

// RunsHandler handles extraction-run endpoints.
type RunsHandler struct {
	publisher jobs.Publisher
	store     jobs.JobStore
	log       zerolog.Logger
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(publisher jobs.Publisher, store jobs.JobStore, log zerolog.Logger) *RunsHandler {
	return &RunsHandler{
		publisher: publisher,
		store:     store,
		log:       log,
	}
}

// EnqueueRun handles POST /api/runs. An omitted report_date defaults to
// yesterday, the day whose validations are complete.
func (h *RunsHandler) EnqueueRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Country    string `json:"country"`
		ReportDate string `json:"report_date"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	country, err := config.NormalizeCountry(req.Country)
	if err != nil {
		var cfgErr *config.Error
		if errors.As(err, &cfgErr) {
			middleware.WriteError(w, http.StatusBadRequest, cfgErr.Reason)
		} else {
			middleware.WriteError(w, http.StatusBadRequest, "Unsupported country")
		}
		return
	}

	reportDate := time.Now().UTC().AddDate(0, 0, -1).Truncate(24 * time.Hour)
	if req.ReportDate != "" {
		reportDate, err = time.Parse("2006-01-02", req.ReportDate)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid report_date format, want YYYY-MM-DD")
			return
		}
	}

	job := &jobs.ExtractionJob{
		Country:    country,
		ReportDate: reportDate,
	}

	if err := h.publisher.PublishExtraction(r.Context(), job); err != nil {
		h.log.Error().Err(err).Str("country", country).Msg("Failed to enqueue extraction job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue extraction job")
		return
	}

	h.log.Info().
		Str("job_id", job.JobID).
		Str("country", country).
		Str("report_date", reportDate.Format("2006-01-02")).
		Msg("Extraction job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":      job.JobID,
		"country":     country,
		"report_date": reportDate.Format("2006-01-02"),
		"status":      string(job.Status),
	})
}

// GetRun handles GET /api/runs/{id}.
func (h *RunsHandler) GetRun(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListRuns handles GET /api/runs.
func (h *RunsHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Country: query.Get("country"),
		Status:  jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  jobsList,
		"count": len(jobsList),
	})
}
