package api

import (
	"errors"
	"log/slog"
	"net/http"

	billing "github.com/felixgeelhaar/jobtrack/internal/billing/domain"
	"github.com/felixgeelhaar/jobtrack/internal/jobs/application/commands"
	"github.com/felixgeelhaar/jobtrack/internal/jobs/application/queries"
	"github.com/felixgeelhaar/jobtrack/internal/jobs/domain/job"
	"github.com/google/uuid"
)

// JobHandler serves the job routes.
type JobHandler struct {
	jobs   JobService
	logger *slog.Logger
}

// NewJobHandler creates a JobHandler.
func NewJobHandler(jobs JobService, logger *slog.Logger) *JobHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobHandler{jobs: jobs, logger: logger}
}

type createJobRequest struct {
	CompanyName   string `json:"companyName"`
	Role          string `json:"role"`
	Status        string `json:"status"`
	Salary        string `json:"salary"`
	DateSubmitted string `json:"dateSubmitted"`
	JobLink       string `json:"jobLink"`
	Notes         string `json:"notes"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type jobActionResponse struct {
	Success bool            `json:"success"`
	Job     *queries.JobDTO `json:"job,omitempty"`
}

// List handles GET /api/jobs
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.jobs.List(r.Context(), queries.ListJobsQuery{
		OwnerID: ownerID(r.Context()),
		Status:  r.URL.Query().Get("status"),
	})
	if err != nil {
		h.writeJobError(w, r, err, "Failed to load jobs")
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// Get handles GET /api/jobs/{id}
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	dto, err := h.jobs.Get(r.Context(), queries.GetJobQuery{OwnerID: ownerID(r.Context()), JobID: id})
	if err != nil {
		h.writeJobError(w, r, err, "Failed to load job")
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// Stats handles GET /api/jobs/stats
func (h *JobHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.jobs.Stats(r.Context(), queries.GetJobStatsQuery{OwnerID: ownerID(r.Context())})
	if err != nil {
		h.writeJobError(w, r, err, "Failed to load job statistics")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Create handles POST /api/jobs
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dto, err := h.jobs.Create(r.Context(), commands.CreateJobCommand{
		OwnerID:       ownerID(r.Context()),
		CompanyName:   req.CompanyName,
		Role:          req.Role,
		Status:        req.Status,
		Salary:        req.Salary,
		DateSubmitted: req.DateSubmitted,
		JobLink:       req.JobLink,
		Notes:         req.Notes,
	})
	if err != nil {
		h.writeJobError(w, r, err, "Failed to create job")
		return
	}
	writeJSON(w, http.StatusCreated, jobActionResponse{Success: true, Job: dto})
}

// Update handles PUT /api/jobs/{id}. Only the supplied keys change.
func (h *JobHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	var input commands.JobInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	patch, err := input.ToPatch()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dto, err := h.jobs.Update(r.Context(), commands.UpdateJobCommand{
		OwnerID: ownerID(r.Context()),
		JobID:   id,
		Patch:   patch,
	})
	if err != nil {
		h.writeJobError(w, r, err, "Failed to update job")
		return
	}
	writeJSON(w, http.StatusOK, jobActionResponse{Success: true, Job: dto})
}

// UpdateStatus handles PATCH /api/jobs/{id}/status
func (h *JobHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	dto, err := h.jobs.UpdateStatus(r.Context(), commands.UpdateJobStatusCommand{
		OwnerID: ownerID(r.Context()),
		JobID:   id,
		Status:  req.Status,
	})
	if err != nil {
		h.writeJobError(w, r, err, "Failed to update job status")
		return
	}
	writeJSON(w, http.StatusOK, jobActionResponse{Success: true, Job: dto})
}

// Delete handles DELETE /api/jobs/{id}. Deleting an absent job succeeds.
func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusOK, jobActionResponse{Success: true})
		return
	}
	if err := h.jobs.Delete(r.Context(), commands.DeleteJobCommand{
		OwnerID: ownerID(r.Context()),
		JobID:   id,
	}); err != nil {
		h.writeJobError(w, r, err, "Failed to delete job")
		return
	}
	writeJSON(w, http.StatusOK, jobActionResponse{Success: true})
}

// jobID parses the path id. Malformed ids are reported like missing jobs.
func jobID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, job.ErrJobNotFound.Error())
		return uuid.Nil, false
	}
	return id, true
}

// writeJobError maps domain errors to statuses. Anything unrecognised is
// logged and answered with fallback.
func (h *JobHandler) writeJobError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, billing.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, "Not authenticated")
	case errors.Is(err, billing.ErrQuotaExceeded):
		writeError(w, http.StatusForbidden, billing.ErrQuotaExceeded.Error())
	case errors.Is(err, job.ErrJobNotFound):
		writeError(w, http.StatusNotFound, job.ErrJobNotFound.Error())
	case isJobValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), fallback, "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func isJobValidationError(err error) bool {
	return errors.Is(err, job.ErrInvalidStatus) ||
		errors.Is(err, job.ErrEmptyCompany) ||
		errors.Is(err, job.ErrEmptyRole) ||
		errors.Is(err, job.ErrInvalidDate) ||
		errors.Is(err, job.ErrEmptyPatch) ||
		errors.Is(err, job.ErrMissingOwner)
}
