package api

import (
	"context"
	"net/http"

	billingDomain "github.com/felixgeelhaar/jobtrack/internal/billing/domain"
	identityDomain "github.com/felixgeelhaar/jobtrack/internal/identity/domain"
	"github.com/felixgeelhaar/jobtrack/internal/identity/infrastructure/clerk"
	"github.com/felixgeelhaar/jobtrack/internal/jobs/application/commands"
	"github.com/felixgeelhaar/jobtrack/internal/jobs/application/queries"
	"github.com/felixgeelhaar/jobtrack/internal/jobs/domain/job"
	"github.com/felixgeelhaar/jobtrack/pkg/observability"
)

// Authenticator resolves the caller of a request.
type Authenticator interface {
	Authenticate(r *http.Request) (*clerk.Claims, error)
}

// JobService groups the job use cases exposed over HTTP.
type JobService interface {
	List(ctx context.Context, query queries.ListJobsQuery) ([]queries.JobDTO, error)
	Get(ctx context.Context, query queries.GetJobQuery) (*queries.JobDTO, error)
	Stats(ctx context.Context, query queries.GetJobStatsQuery) (job.Stats, error)
	Create(ctx context.Context, cmd commands.CreateJobCommand) (*queries.JobDTO, error)
	Update(ctx context.Context, cmd commands.UpdateJobCommand) (*queries.JobDTO, error)
	UpdateStatus(ctx context.Context, cmd commands.UpdateJobStatusCommand) (*queries.JobDTO, error)
	Delete(ctx context.Context, cmd commands.DeleteJobCommand) error
}

// SubscriptionService is the billing surface used by the handlers.
type SubscriptionService interface {
	GetSubscription(ctx context.Context, ownerID string) (*billingDomain.Subscription, error)
	GetJobCount(ctx context.Context, ownerID string) (int, error)
	CanCreateJob(ctx context.Context, ownerID string) (billingDomain.Decision, error)
	CreateCheckoutSession(ctx context.Context, ownerID, email, planID string) (*billingDomain.CheckoutSession, error)
	CompleteCheckout(ctx context.Context, reference, trxref string) (*billingDomain.Subscription, error)
	HandleWebhook(ctx context.Context, event, reference string) error
}

// ProfileService reads and mirrors identity provider profiles.
type ProfileService interface {
	Profile(ctx context.Context, userID string) (*identityDomain.Profile, error)
	Sync(ctx context.Context, userID string, fresh bool) (*identityDomain.Profile, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) observability.OverallHealth
}

// JobHandlers are the command and query handlers behind JobService.
type JobHandlers struct {
	List         *queries.ListJobsHandler
	Get          *queries.GetJobHandler
	Stats        *queries.GetJobStatsHandler
	Create       *commands.CreateJobHandler
	Update       *commands.UpdateJobHandler
	UpdateStatus *commands.UpdateJobStatusHandler
	Delete       *commands.DeleteJobHandler
}

// NewJobService adapts the handlers to JobService.
func NewJobService(h JobHandlers) JobService {
	return &jobService{h: h}
}

type jobService struct {
	h JobHandlers
}

func (s *jobService) List(ctx context.Context, query queries.ListJobsQuery) ([]queries.JobDTO, error) {
	return s.h.List.Handle(ctx, query)
}

func (s *jobService) Get(ctx context.Context, query queries.GetJobQuery) (*queries.JobDTO, error) {
	return s.h.Get.Handle(ctx, query)
}

func (s *jobService) Stats(ctx context.Context, query queries.GetJobStatsQuery) (job.Stats, error) {
	return s.h.Stats.Handle(ctx, query)
}

func (s *jobService) Create(ctx context.Context, cmd commands.CreateJobCommand) (*queries.JobDTO, error) {
	return toDTO(s.h.Create.Handle(ctx, cmd))
}

func (s *jobService) Update(ctx context.Context, cmd commands.UpdateJobCommand) (*queries.JobDTO, error) {
	return toDTO(s.h.Update.Handle(ctx, cmd))
}

func (s *jobService) UpdateStatus(ctx context.Context, cmd commands.UpdateJobStatusCommand) (*queries.JobDTO, error) {
	return toDTO(s.h.UpdateStatus.Handle(ctx, cmd))
}

func (s *jobService) Delete(ctx context.Context, cmd commands.DeleteJobCommand) error {
	return s.h.Delete.Handle(ctx, cmd)
}

func toDTO(j *job.Job, err error) (*queries.JobDTO, error) {
	if err != nil {
		return nil, err
	}
	dto := queries.ToJobDTO(j)
	return &dto, nil
}
