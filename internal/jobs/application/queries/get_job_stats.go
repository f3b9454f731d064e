package queries

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/jobtrack/internal/jobs/domain/job"
)

// GetJobStatsQuery asks for an owner's pipeline summary.
type GetJobStatsQuery struct {
	OwnerID string
}

// GetJobStatsHandler handles the GetJobStatsQuery.
type GetJobStatsHandler struct {
	jobRepo job.Repository
}

// NewGetJobStatsHandler creates a new GetJobStatsHandler.
func NewGetJobStatsHandler(jobRepo job.Repository) *GetJobStatsHandler {
	return &GetJobStatsHandler{jobRepo: jobRepo}
}

// Handle aggregates in storage and folds the counts. Legacy status values
// only contribute to Total.
func (h *GetJobStatsHandler) Handle(ctx context.Context, query GetJobStatsQuery) (job.Stats, error) {
	if query.OwnerID == "" {
		return job.Stats{}, job.ErrMissingOwner
	}

	counts, err := h.jobRepo.StatusCounts(ctx, query.OwnerID)
	if err != nil {
		return job.Stats{}, fmt.Errorf("count jobs by status: %w", err)
	}
	return job.ComputeStats(counts), nil
}
