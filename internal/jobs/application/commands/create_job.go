package commands

import (
	"context"
	"fmt"
	"log/slog"

	billing "github.com/felixgeelhaar/jobtrack/internal/billing/domain"
	"github.com/felixgeelhaar/jobtrack/internal/jobs/domain/job"
	sharedApplication "github.com/felixgeelhaar/jobtrack/internal/shared/application"
	"github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/jobtrack/pkg/observability"
)

// EntitlementChecker decides whether an owner may add a job.
type EntitlementChecker interface {
	CanCreateJob(ctx context.Context, ownerID string) (billing.Decision, error)
}

// CreateJobCommand contains the data needed to create a job.
type CreateJobCommand struct {
	OwnerID       string
	CompanyName   string
	Role          string
	Status        string // empty means Applied
	Salary        string
	DateSubmitted string // YYYY-MM-DD
	JobLink       string
	Notes         string
}

// CreateJobHandler handles the CreateJobCommand.
type CreateJobHandler struct {
	jobRepo      job.Repository
	entitlements EntitlementChecker
	outboxRepo   outbox.Writer
	uow          sharedApplication.UnitOfWork
	logger       *slog.Logger
	metrics      observability.Metrics
}

// NewCreateJobHandler creates a new CreateJobHandler.
func NewCreateJobHandler(
	jobRepo job.Repository,
	entitlements EntitlementChecker,
	outboxRepo outbox.Writer,
	uow sharedApplication.UnitOfWork,
	logger *slog.Logger,
	metrics observability.Metrics,
) *CreateJobHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &CreateJobHandler{
		jobRepo:      jobRepo,
		entitlements: entitlements,
		outboxRepo:   outboxRepo,
		uow:          uow,
		logger:       logger,
		metrics:      metrics,
	}
}

// Handle validates the command, reserves a quota slot and inserts the job.
// The owner lock, the entitlement check and the insert share one
// transaction, so concurrent requests from one owner cannot both take the
// last free slot.
func (h *CreateJobHandler) Handle(ctx context.Context, cmd CreateJobCommand) (created *job.Job, err error) {
	ctx, span := observability.StartSpan(ctx, tracerName, "CreateJobHandler.Handle")
	defer func() { observability.EndSpan(span, err) }()

	if cmd.OwnerID == "" {
		return nil, billing.ErrNotAuthenticated
	}
	status, err := job.ParseStatusOrDefault(cmd.Status)
	if err != nil {
		return nil, err
	}
	date, err := job.ParseDate(cmd.DateSubmitted)
	if err != nil {
		return nil, err
	}
	j, err := job.NewJob(cmd.OwnerID, cmd.CompanyName, cmd.Role, status, job.Details{
		Salary:        cmd.Salary,
		DateSubmitted: date,
		JobLink:       cmd.JobLink,
		Notes:         cmd.Notes,
	})
	if err != nil {
		return nil, err
	}

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := h.jobRepo.LockOwner(txCtx, cmd.OwnerID); err != nil {
			return fmt.Errorf("lock owner: %w", err)
		}

		decision, err := h.entitlements.CanCreateJob(txCtx, cmd.OwnerID)
		if err != nil {
			return fmt.Errorf("check entitlement: %w", err)
		}
		if !decision.Allowed {
			if decision.Reason == billing.ReasonNotAuthenticated {
				return billing.ErrNotAuthenticated
			}
			return billing.ErrQuotaExceeded
		}

		if err := h.jobRepo.Create(txCtx, j); err != nil {
			return fmt.Errorf("insert job: %w", err)
		}
		return saveEvents(txCtx, h.outboxRepo, j)
	})
	if err != nil {
		return nil, err
	}

	h.metrics.Counter(observability.MetricJobsCreated, 1, observability.T("status", status.String()))
	h.logger.InfoContext(ctx, "job created", "job_id", j.ID(), "status", status.String())
	return j, nil
}
