package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/finance-ingest/internal/api/middleware"
	"github.com/dvloznov/finance-ingest/internal/jobs"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// EventsHandler receives storage trigger events and turns them into jobs.
type EventsHandler struct {
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(publisher jobs.Publisher, log zerolog.Logger) *EventsHandler {
	return &EventsHandler{
		publisher: publisher,
		log:       log,
	}
}

// RawFileCreated handles POST /events/raw-file-created
func (h *EventsHandler) RawFileCreated(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		FileID string `json:"file_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.UserID) == "" || strings.TrimSpace(req.FileID) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id and file_id are required")
		return
	}

	h.publish(w, r, &jobs.Job{
		Type:   jobs.JobTypeProcessRawFile,
		UserID: req.UserID,
		FileID: req.FileID,
	})
}

// UserCreated handles POST /events/user-created
func (h *EventsHandler) UserCreated(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.UserID) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	h.publish(w, r, &jobs.Job{
		Type:   jobs.JobTypeSeedCategories,
		UserID: req.UserID,
	})
}

func (h *EventsHandler) publish(w http.ResponseWriter, r *http.Request, job *jobs.Job) {
	if err := h.publisher.Publish(r.Context(), job); err != nil {
		h.log.Error().Err(err).Str("type", string(job.Type)).Str("user_id", job.UserID).Msg("Failed to enqueue job")
		middleware.WriteError(w, http.StatusServiceUnavailable, "Failed to enqueue job")
		return
	}
	jobID, status := job.JobID, job.Status

	h.log.Info().
		Str("job_id", jobID).
		Str("type", string(job.Type)).
		Str("user_id", job.UserID).
		Str("file_id", job.FileID).
		Msg("Job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": jobID,
		"status": string(status),
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	job, err := h.store.GetJob(r.Context(), jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		UserID: query.Get("user_id"),
		FileID: query.Get("file_id"),
		Type:   jobs.JobType(query.Get("type")),
		Status: jobs.JobStatus(query.Get("status")),
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

	if jobsList == nil {
		jobsList = []*jobs.Job{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// Sweeper fails RawFiles stuck in processing.
type Sweeper interface {
	Sweep(ctx context.Context, userID string, olderThan time.Duration) ([]string, error)
}

// MaintenanceHandler exposes operator actions.
type MaintenanceHandler struct {
	sweeper    Sweeper
	staleAfter time.Duration
	log        zerolog.Logger
}

// NewMaintenanceHandler creates a maintenance handler. staleAfter is used
// when the request does not pass older_than.
func NewMaintenanceHandler(sweeper Sweeper, staleAfter time.Duration, log zerolog.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{
		sweeper:    sweeper,
		staleAfter: staleAfter,
		log:        log,
	}
}

// Sweep handles POST /api/users/{userID}/sweep?older_than=15m
func (h *MaintenanceHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	olderThan := h.staleAfter
	if s := r.URL.Query().Get("older_than"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid older_than duration")
			return
		}
		olderThan = d
	}

	swept, err := h.sweeper.Sweep(r.Context(), userID, olderThan)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", userID).Msg("Sweep failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Sweep failed")
		return
	}

	if swept == nil {
		swept = []string{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"file_ids": swept,
		"count":    len(swept),
	})
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
