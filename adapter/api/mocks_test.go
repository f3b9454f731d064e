package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	billing "github.com/felixgeelhaar/jobtrack/internal/billing/domain"
	identity "github.com/felixgeelhaar/jobtrack/internal/identity/domain"
	"github.com/felixgeelhaar/jobtrack/internal/identity/infrastructure/clerk"
	"github.com/felixgeelhaar/jobtrack/internal/jobs/application/commands"
	"github.com/felixgeelhaar/jobtrack/internal/jobs/application/queries"
	"github.com/felixgeelhaar/jobtrack/internal/jobs/domain/job"
	"github.com/stretchr/testify/mock"
)

const testOwner = "user_test"

// headerAuth accepts "Bearer <owner>" as the session.
type headerAuth struct{}

func (headerAuth) Authenticate(r *http.Request) (*clerk.Claims, error) {
	token, ok := clerk.TokenFromRequest(r)
	if !ok {
		return nil, clerk.ErrMissingToken
	}
	if token == "bad" {
		return nil, clerk.ErrInvalidToken
	}
	return &clerk.Claims{Subject: token}, nil
}

type mockJobService struct {
	mock.Mock
}

func (m *mockJobService) List(ctx context.Context, query queries.ListJobsQuery) ([]queries.JobDTO, error) {
	args := m.Called(ctx, query)
	dtos, _ := args.Get(0).([]queries.JobDTO)
	return dtos, args.Error(1)
}

func (m *mockJobService) Get(ctx context.Context, query queries.GetJobQuery) (*queries.JobDTO, error) {
	args := m.Called(ctx, query)
	dto, _ := args.Get(0).(*queries.JobDTO)
	return dto, args.Error(1)
}

func (m *mockJobService) Stats(ctx context.Context, query queries.GetJobStatsQuery) (job.Stats, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(job.Stats), args.Error(1)
}

func (m *mockJobService) Create(ctx context.Context, cmd commands.CreateJobCommand) (*queries.JobDTO, error) {
	args := m.Called(ctx, cmd)
	dto, _ := args.Get(0).(*queries.JobDTO)
	return dto, args.Error(1)
}

func (m *mockJobService) Update(ctx context.Context, cmd commands.UpdateJobCommand) (*queries.JobDTO, error) {
	args := m.Called(ctx, cmd)
	dto, _ := args.Get(0).(*queries.JobDTO)
	return dto, args.Error(1)
}

func (m *mockJobService) UpdateStatus(ctx context.Context, cmd commands.UpdateJobStatusCommand) (*queries.JobDTO, error) {
	args := m.Called(ctx, cmd)
	dto, _ := args.Get(0).(*queries.JobDTO)
	return dto, args.Error(1)
}

func (m *mockJobService) Delete(ctx context.Context, cmd commands.DeleteJobCommand) error {
	return m.Called(ctx, cmd).Error(0)
}

type mockSubscriptionService struct {
	mock.Mock
}

func (m *mockSubscriptionService) GetSubscription(ctx context.Context, ownerID string) (*billing.Subscription, error) {
	args := m.Called(ctx, ownerID)
	sub, _ := args.Get(0).(*billing.Subscription)
	return sub, args.Error(1)
}

func (m *mockSubscriptionService) GetJobCount(ctx context.Context, ownerID string) (int, error) {
	args := m.Called(ctx, ownerID)
	return args.Int(0), args.Error(1)
}

func (m *mockSubscriptionService) CanCreateJob(ctx context.Context, ownerID string) (billing.Decision, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(billing.Decision), args.Error(1)
}

func (m *mockSubscriptionService) CreateCheckoutSession(ctx context.Context, ownerID, email, planID string) (*billing.CheckoutSession, error) {
	args := m.Called(ctx, ownerID, email, planID)
	session, _ := args.Get(0).(*billing.CheckoutSession)
	return session, args.Error(1)
}

func (m *mockSubscriptionService) CompleteCheckout(ctx context.Context, reference, trxref string) (*billing.Subscription, error) {
	args := m.Called(ctx, reference, trxref)
	sub, _ := args.Get(0).(*billing.Subscription)
	return sub, args.Error(1)
}

func (m *mockSubscriptionService) HandleWebhook(ctx context.Context, event, reference string) error {
	return m.Called(ctx, event, reference).Error(0)
}

type mockProfileService struct {
	mock.Mock
}

func (m *mockProfileService) Profile(ctx context.Context, userID string) (*identity.Profile, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).(*identity.Profile)
	return p, args.Error(1)
}

func (m *mockProfileService) Sync(ctx context.Context, userID string, fresh bool) (*identity.Profile, error) {
	args := m.Called(ctx, userID, fresh)
	p, _ := args.Get(0).(*identity.Profile)
	return p, args.Error(1)
}

type testServer struct {
	handler       http.Handler
	jobs          *mockJobService
	subscriptions *mockSubscriptionService
	profiles      *mockProfileService
}

const testWebhookSecret = "sk_test_webhook_secret"

func newTestServer(opts ...func(*ServerConfig)) *testServer {
	ts := &testServer{
		jobs:          &mockJobService{},
		subscriptions: &mockSubscriptionService{},
		profiles:      &mockProfileService{},
	}
	cfg := DefaultServerConfig()
	cfg.PaystackSecret = testWebhookSecret
	for _, opt := range opts {
		opt(&cfg)
	}
	srv := NewServer(cfg, Dependencies{
		Auth:          headerAuth{},
		Jobs:          ts.jobs,
		Subscriptions: ts.subscriptions,
		Profiles:      ts.profiles,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ts.handler = srv.Handler()
	return ts
}
