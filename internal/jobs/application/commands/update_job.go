package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/felixgeelhaar/jobtrack/internal/jobs/domain/job"
	sharedApplication "github.com/felixgeelhaar/jobtrack/internal/shared/application"
	"github.com/felixgeelhaar/jobtrack/internal/shared/domain"
	"github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/jobtrack/pkg/observability"
	"github.com/google/uuid"
)

// JobInput is the client form of a partial update. Keys left out of the
// JSON document stay unset; null or "" clears an optional field.
type JobInput struct {
	CompanyName   domain.Field[string] `json:"companyName"`
	Role          domain.Field[string] `json:"role"`
	Status        domain.Field[string] `json:"status"`
	Salary        domain.Field[string] `json:"salary"`
	DateSubmitted domain.Field[string] `json:"dateSubmitted"`
	JobLink       domain.Field[string] `json:"jobLink"`
	Notes         domain.Field[string] `json:"notes"`
}

// ToPatch parses the status and date tokens into a domain patch.
func (in JobInput) ToPatch() (job.Patch, error) {
	p := job.Patch{
		CompanyName: in.CompanyName,
		Role:        in.Role,
		Salary:      in.Salary,
		JobLink:     in.JobLink,
		Notes:       in.Notes,
	}

	if in.Status.IsSet() {
		token, _ := in.Status.Value()
		status, err := job.ParseStatus(token)
		if err != nil {
			return job.Patch{}, err
		}
		p.Status = domain.Set(status)
	}

	if in.DateSubmitted.IsSet() {
		value, _ := in.DateSubmitted.Value()
		date, err := job.ParseDate(value)
		if err != nil {
			return job.Patch{}, err
		}
		if date == nil {
			p.DateSubmitted = domain.Clear[time.Time]()
		} else {
			p.DateSubmitted = domain.Set(*date)
		}
	}
	return p, nil
}

// UpdateJobCommand contains the data needed to update a job.
type UpdateJobCommand struct {
	OwnerID string
	JobID   uuid.UUID
	Patch   job.Patch
}

// UpdateJobHandler handles the UpdateJobCommand.
type UpdateJobHandler struct {
	jobRepo    job.Repository
	outboxRepo outbox.Writer
	uow        sharedApplication.UnitOfWork
}

// NewUpdateJobHandler creates a new UpdateJobHandler.
func NewUpdateJobHandler(jobRepo job.Repository, outboxRepo outbox.Writer, uow sharedApplication.UnitOfWork) *UpdateJobHandler {
	return &UpdateJobHandler{
		jobRepo:    jobRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle applies the patch. A job that is absent or owned by someone else
// yields job.ErrJobNotFound.
func (h *UpdateJobHandler) Handle(ctx context.Context, cmd UpdateJobCommand) (updated *job.Job, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "UpdateJobHandler.Handle")
	defer func() { observability.EndSpan(span, err) }()

	return updateJob(ctx, h.jobRepo, h.outboxRepo, h.uow, cmd)
}

func updateJob(ctx context.Context, repo job.Repository, writer outbox.Writer, uow sharedApplication.UnitOfWork, cmd UpdateJobCommand) (*job.Job, error) {
	if cmd.OwnerID == "" {
		return nil, job.ErrMissingOwner
	}
	if cmd.Patch.IsEmpty() {
		return nil, job.ErrEmptyPatch
	}

	return sharedApplication.InUnitOfWork(ctx, uow, func(txCtx context.Context) (*job.Job, error) {
		j, err := repo.Get(txCtx, cmd.JobID, cmd.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("load job: %w", err)
		}
		if j == nil {
			return nil, job.ErrJobNotFound
		}

		changes, err := j.Apply(cmd.Patch)
		if err != nil {
			return nil, err
		}

		ok, err := repo.Update(txCtx, j, changes)
		if err != nil {
			return nil, fmt.Errorf("update job: %w", err)
		}
		if !ok {
			return nil, job.ErrJobNotFound
		}
		if err := saveEvents(txCtx, writer, j); err != nil {
			return nil, err
		}
		return j, nil
	})
}
