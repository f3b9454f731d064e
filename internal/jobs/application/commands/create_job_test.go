package commands

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	billing "github.com/felixgeelhaar/jobtrack/internal/billing/domain"
	"github.com/felixgeelhaar/jobtrack/internal/jobs/domain/job"
	"github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/jobtrack/pkg/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCreateHandler() (*CreateJobHandler, *mockJobRepo, *mockEntitlements, *mockOutbox, *stubUnitOfWork, *observability.InMemoryMetrics) {
	repo := new(mockJobRepo)
	ent := new(mockEntitlements)
	out := new(mockOutbox)
	uow := &stubUnitOfWork{}
	metrics := observability.NewInMemoryMetrics()
	return NewCreateJobHandler(repo, ent, out, uow, nil, metrics), repo, ent, out, uow, metrics
}

func TestCreateJobHandler_Handle(t *testing.T) {
	t.Run("creates a job when the quota allows", func(t *testing.T) {
		handler, repo, ent, out, uow, metrics := newCreateHandler()

		repo.On("LockOwner", mock.Anything, "user_1").Return(nil).Once()
		ent.On("CanCreateJob", mock.Anything, "user_1").Return(billing.Decision{Allowed: true}, nil).Once()
		repo.On("Create", mock.Anything, mock.AnythingOfType("*job.Job")).Return(nil).Once()
		out.On("SaveBatch", mock.Anything, mock.MatchedBy(func(msgs []*outbox.Message) bool {
			return len(msgs) == 1 && msgs[0].EventType == job.RoutingKeyCreated
		})).Return(nil).Once()

		created, err := handler.Handle(context.Background(), CreateJobCommand{
			OwnerID:       "user_1",
			CompanyName:   "  Acme ",
			Role:          "Engineer",
			Status:        "INTERVIEW",
			DateSubmitted: "2026-03-01",
		})

		require.NoError(t, err)
		assert.Equal(t, "Acme", created.CompanyName())
		assert.Equal(t, job.StatusInterview, created.Status())
		require.NotNil(t, created.DateSubmitted())
		assert.Nil(t, created.Salary())
		assert.Empty(t, created.DomainEvents())
		assert.Equal(t, 1, uow.committed)
		assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricJobsCreated, observability.T("status", "Interview")))
		repo.AssertExpectations(t)
		ent.AssertExpectations(t)
		out.AssertExpectations(t)
	})

	t.Run("locks the owner before checking the quota and inserting", func(t *testing.T) {
		handler, repo, ent, out, _, _ := newCreateHandler()
		var steps []string
		repo.On("LockOwner", mock.Anything, "user_1").Return(nil).
			Run(func(mock.Arguments) { steps = append(steps, "lock") })
		ent.On("CanCreateJob", mock.Anything, "user_1").Return(billing.Decision{Allowed: true}, nil).
			Run(func(mock.Arguments) { steps = append(steps, "check") })
		repo.On("Create", mock.Anything, mock.Anything).Return(nil).
			Run(func(mock.Arguments) { steps = append(steps, "insert") })
		out.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)

		_, err := handler.Handle(context.Background(), CreateJobCommand{OwnerID: "user_1", CompanyName: "Acme", Role: "Engineer"})

		require.NoError(t, err)
		assert.Equal(t, []string{"lock", "check", "insert"}, steps)
	})

	t.Run("lock failure skips the quota check", func(t *testing.T) {
		handler, repo, ent, _, uow, _ := newCreateHandler()
		repo.On("LockOwner", mock.Anything, "user_1").Return(errors.New("lock timeout"))

		_, err := handler.Handle(context.Background(), CreateJobCommand{OwnerID: "user_1", CompanyName: "Acme", Role: "Engineer"})

		require.Error(t, err)
		assert.Equal(t, 1, uow.rolledBack)
		ent.AssertNotCalled(t, "CanCreateJob", mock.Anything, mock.Anything)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("defaults an empty status to Applied", func(t *testing.T) {
		handler, repo, ent, out, _, _ := newCreateHandler()
		repo.On("LockOwner", mock.Anything, "user_1").Return(nil)
		ent.On("CanCreateJob", mock.Anything, "user_1").Return(billing.Decision{Allowed: true}, nil)
		repo.On("Create", mock.Anything, mock.Anything).Return(nil)
		out.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)

		created, err := handler.Handle(context.Background(), CreateJobCommand{OwnerID: "user_1", CompanyName: "Acme", Role: "Engineer"})

		require.NoError(t, err)
		assert.Equal(t, job.StatusApplied, created.Status())
	})

	t.Run("rejects the quota with a subscription message", func(t *testing.T) {
		handler, repo, ent, _, uow, _ := newCreateHandler()
		repo.On("LockOwner", mock.Anything, "user_1").Return(nil)
		ent.On("CanCreateJob", mock.Anything, "user_1").
			Return(billing.Decision{Reason: billing.ReasonQuotaReached}, nil)

		_, err := handler.Handle(context.Background(), CreateJobCommand{OwnerID: "user_1", CompanyName: "Acme", Role: "Engineer"})

		require.ErrorIs(t, err, billing.ErrQuotaExceeded)
		assert.True(t, strings.Contains(err.Error(), "subscription"))
		assert.Equal(t, 1, uow.rolledBack)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("propagates entitlement lookup failures", func(t *testing.T) {
		handler, repo, ent, _, _, _ := newCreateHandler()
		repo.On("LockOwner", mock.Anything, "user_1").Return(nil)
		ent.On("CanCreateJob", mock.Anything, "user_1").Return(billing.Decision{}, errors.New("db down"))

		_, err := handler.Handle(context.Background(), CreateJobCommand{OwnerID: "user_1", CompanyName: "Acme", Role: "Engineer"})

		require.Error(t, err)
		assert.NotErrorIs(t, err, billing.ErrQuotaExceeded)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects unknown status tokens", func(t *testing.T) {
		handler, repo, _, _, _, _ := newCreateHandler()

		_, err := handler.Handle(context.Background(), CreateJobCommand{OwnerID: "user_1", CompanyName: "Acme", Role: "Engineer", Status: "GHOSTED"})

		assert.ErrorIs(t, err, job.ErrInvalidStatus)
		repo.AssertNotCalled(t, "LockOwner", mock.Anything, mock.Anything)
	})

	t.Run("validates fields before locking", func(t *testing.T) {
		handler, repo, _, _, _, _ := newCreateHandler()

		_, err := handler.Handle(context.Background(), CreateJobCommand{OwnerID: "user_1", Role: "Engineer"})
		assert.ErrorIs(t, err, job.ErrEmptyCompany)

		_, err = handler.Handle(context.Background(), CreateJobCommand{OwnerID: "user_1", CompanyName: "Acme", Role: "Engineer", DateSubmitted: "03/01/2026"})
		assert.ErrorIs(t, err, job.ErrInvalidDate)

		_, err = handler.Handle(context.Background(), CreateJobCommand{CompanyName: "Acme", Role: "Engineer"})
		assert.ErrorIs(t, err, billing.ErrNotAuthenticated)

		repo.AssertNotCalled(t, "LockOwner", mock.Anything, mock.Anything)
	})
}

func TestJobInput_ToPatch(t *testing.T) {
	t.Run("absent keys stay unset and null clears", func(t *testing.T) {
		var in JobInput
		require.NoError(t, json.Unmarshal([]byte(`{"role":"Lead","salary":null,"status":"offer","dateSubmitted":""}`), &in))

		p, err := in.ToPatch()

		require.NoError(t, err)
		assert.False(t, p.CompanyName.IsSet())
		role, _ := p.Role.Value()
		assert.Equal(t, "Lead", role)
		assert.True(t, p.Salary.IsCleared())
		status, _ := p.Status.Value()
		assert.Equal(t, job.StatusOffer, status)
		assert.True(t, p.DateSubmitted.IsCleared())
		assert.False(t, p.Notes.IsSet())
	})

	t.Run("rejects bad tokens", func(t *testing.T) {
		var in JobInput
		require.NoError(t, json.Unmarshal([]byte(`{"status":"pending"}`), &in))
		_, err := in.ToPatch()
		assert.ErrorIs(t, err, job.ErrInvalidStatus)

		in = JobInput{}
		require.NoError(t, json.Unmarshal([]byte(`{"dateSubmitted":"tomorrow"}`), &in))
		_, err = in.ToPatch()
		assert.ErrorIs(t, err, job.ErrInvalidDate)
	})
}
