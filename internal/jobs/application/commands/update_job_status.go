package commands

import (
	"context"

	"github.com/felixgeelhaar/jobtrack/internal/jobs/domain/job"
	sharedApplication "github.com/felixgeelhaar/jobtrack/internal/shared/application"
	"github.com/felixgeelhaar/jobtrack/internal/shared/domain"
	"github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/jobtrack/pkg/observability"
	"github.com/google/uuid"
)

// UpdateJobStatusCommand moves a job to another pipeline stage.
type UpdateJobStatusCommand struct {
	OwnerID string
	JobID   uuid.UUID
	Status  string
}

// UpdateJobStatusHandler handles the UpdateJobStatusCommand.
type UpdateJobStatusHandler struct {
	jobRepo    job.Repository
	outboxRepo outbox.Writer
	uow        sharedApplication.UnitOfWork
}

// NewUpdateJobStatusHandler creates a new UpdateJobStatusHandler.
func NewUpdateJobStatusHandler(jobRepo job.Repository, outboxRepo outbox.Writer, uow sharedApplication.UnitOfWork) *UpdateJobStatusHandler {
	return &UpdateJobStatusHandler{
		jobRepo:    jobRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle rejects unknown status tokens before touching storage.
func (h *UpdateJobStatusHandler) Handle(ctx context.Context, cmd UpdateJobStatusCommand) (updated *job.Job, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "UpdateJobStatusHandler.Handle")
	defer func() { observability.EndSpan(span, err) }()

	status, err := job.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	return updateJob(ctx, h.jobRepo, h.outboxRepo, h.uow, UpdateJobCommand{
		OwnerID: cmd.OwnerID,
		JobID:   cmd.JobID,
		Patch:   job.Patch{Status: domain.Set(status)},
	})
}
