package queries

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/jobtrack/internal/jobs/domain/job"
	"github.com/felixgeelhaar/jobtrack/pkg/observability"
)

const tracerName = "jobtrack/jobs/queries"

// ListJobsQuery contains the parameters for listing jobs.
type ListJobsQuery struct {
	OwnerID string
	Status  string // optional filter, any accepted spelling
}

// ListJobsHandler handles the ListJobsQuery.
type ListJobsHandler struct {
	jobRepo job.Repository
}

// NewListJobsHandler creates a new ListJobsHandler.
func NewListJobsHandler(jobRepo job.Repository) *ListJobsHandler {
	return &ListJobsHandler{jobRepo: jobRepo}
}

// Handle returns the owner's jobs newest first. A storage failure is
// returned, never reported as an empty list.
func (h *ListJobsHandler) Handle(ctx context.Context, query ListJobsQuery) (dtos []JobDTO, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "ListJobsHandler.Handle")
	defer func() { observability.EndSpan(span, err) }()

	if query.OwnerID == "" {
		return nil, job.ErrMissingOwner
	}

	var filter *job.Status
	if query.Status != "" {
		status, err := job.ParseStatus(query.Status)
		if err != nil {
			return nil, err
		}
		filter = &status
	}

	jobs, err := h.jobRepo.List(ctx, query.OwnerID, filter)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return ToJobDTOs(jobs), nil
}
