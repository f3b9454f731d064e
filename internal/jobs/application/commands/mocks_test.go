package commands

import (
	"context"

	billing "github.com/felixgeelhaar/jobtrack/internal/billing/domain"
	"github.com/felixgeelhaar/jobtrack/internal/jobs/domain/job"
	"github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/outbox"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// mockJobRepo is a mock implementation of job.Repository.
type mockJobRepo struct {
	mock.Mock
}

func (m *mockJobRepo) List(ctx context.Context, ownerID string, status *job.Status) ([]*job.Job, error) {
	args := m.Called(ctx, ownerID, status)
	jobs, _ := args.Get(0).([]*job.Job)
	return jobs, args.Error(1)
}

func (m *mockJobRepo) Get(ctx context.Context, id uuid.UUID, ownerID string) (*job.Job, error) {
	args := m.Called(ctx, id, ownerID)
	j, _ := args.Get(0).(*job.Job)
	return j, args.Error(1)
}

func (m *mockJobRepo) Create(ctx context.Context, j *job.Job) error {
	return m.Called(ctx, j).Error(0)
}

func (m *mockJobRepo) Update(ctx context.Context, j *job.Job, changes job.Patch) (bool, error) {
	args := m.Called(ctx, j, changes)
	return args.Bool(0), args.Error(1)
}

func (m *mockJobRepo) Delete(ctx context.Context, id uuid.UUID, ownerID string) (bool, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Bool(0), args.Error(1)
}

func (m *mockJobRepo) StatusCounts(ctx context.Context, ownerID string) (map[string]int, error) {
	args := m.Called(ctx, ownerID)
	counts, _ := args.Get(0).(map[string]int)
	return counts, args.Error(1)
}

func (m *mockJobRepo) Count(ctx context.Context, ownerID string) (int, error) {
	args := m.Called(ctx, ownerID)
	return args.Int(0), args.Error(1)
}

func (m *mockJobRepo) LockOwner(ctx context.Context, ownerID string) error {
	return m.Called(ctx, ownerID).Error(0)
}

type mockEntitlements struct {
	mock.Mock
}

func (m *mockEntitlements) CanCreateJob(ctx context.Context, ownerID string) (billing.Decision, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(billing.Decision), args.Error(1)
}

// mockOutbox is a mock implementation of outbox.Writer.
type mockOutbox struct {
	mock.Mock
}

func (m *mockOutbox) SaveBatch(ctx context.Context, msgs []*outbox.Message) error {
	return m.Called(ctx, msgs).Error(0)
}

type stubUnitOfWork struct {
	committed, rolledBack int
}

func (u *stubUnitOfWork) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (u *stubUnitOfWork) Commit(context.Context) error                       { u.committed++; return nil }
func (u *stubUnitOfWork) Rollback(context.Context) error                     { u.rolledBack++; return nil }

func eventTypes(msgs []*outbox.Message) []string {
	types := make([]string, len(msgs))
	for i, msg := range msgs {
		types[i] = msg.EventType
	}
	return types
}

func existingJob(ownerID string, status job.Status) *job.Job {
	return job.Rehydrate(job.Snapshot{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		CompanyName: "Acme",
		Role:        "Engineer",
		Status:      status,
	})
}
