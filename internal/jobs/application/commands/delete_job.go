package commands

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/jobtrack/internal/jobs/domain/job"
	sharedApplication "github.com/felixgeelhaar/jobtrack/internal/shared/application"
	"github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/jobtrack/pkg/observability"
	"github.com/google/uuid"
)

// DeleteJobCommand removes a job.
type DeleteJobCommand struct {
	OwnerID string
	JobID   uuid.UUID
}

// DeleteJobHandler handles the DeleteJobCommand.
type DeleteJobHandler struct {
	jobRepo    job.Repository
	outboxRepo outbox.Writer
	uow        sharedApplication.UnitOfWork
	metrics    observability.Metrics
}

// NewDeleteJobHandler creates a new DeleteJobHandler.
func NewDeleteJobHandler(jobRepo job.Repository, outboxRepo outbox.Writer, uow sharedApplication.UnitOfWork, metrics observability.Metrics) *DeleteJobHandler {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &DeleteJobHandler{
		jobRepo:    jobRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
		metrics:    metrics,
	}
}

// Handle deletes the job. Deleting an absent or foreign job succeeds
// without effect.
func (h *DeleteJobHandler) Handle(ctx context.Context, cmd DeleteJobCommand) (err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "DeleteJobHandler.Handle")
	defer func() { observability.EndSpan(span, err) }()

	if cmd.OwnerID == "" {
		return job.ErrMissingOwner
	}

	deleted := false
	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		j, err := h.jobRepo.Get(txCtx, cmd.JobID, cmd.OwnerID)
		if err != nil {
			return fmt.Errorf("load job: %w", err)
		}
		if j == nil {
			return nil
		}

		ok, err := h.jobRepo.Delete(txCtx, cmd.JobID, cmd.OwnerID)
		if err != nil {
			return fmt.Errorf("delete job: %w", err)
		}
		if !ok {
			return nil
		}

		j.MarkDeleted()
		deleted = true
		return saveEvents(txCtx, h.outboxRepo, j)
	})
	if err != nil {
		return err
	}

	if deleted {
		h.metrics.Counter(observability.MetricJobsDeleted, 1)
	}
	return nil
}
