package queries

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/jobtrack/internal/jobs/domain/job"
	"github.com/google/uuid"
)

// GetJobQuery fetches a single job.
type GetJobQuery struct {
	OwnerID string
	JobID   uuid.UUID
}

// GetJobHandler handles the GetJobQuery.
type GetJobHandler struct {
	jobRepo job.Repository
}

// NewGetJobHandler creates a new GetJobHandler.
func NewGetJobHandler(jobRepo job.Repository) *GetJobHandler {
	return &GetJobHandler{jobRepo: jobRepo}
}

// Handle returns job.ErrJobNotFound for absent and foreign jobs alike.
func (h *GetJobHandler) Handle(ctx context.Context, query GetJobQuery) (*JobDTO, error) {
	if query.OwnerID == "" {
		return nil, job.ErrMissingOwner
	}

	j, err := h.jobRepo.Get(ctx, query.JobID, query.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if j == nil {
		return nil, job.ErrJobNotFound
	}

	dto := ToJobDTO(j)
	return &dto, nil
}
