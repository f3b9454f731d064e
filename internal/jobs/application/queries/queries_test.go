package queries

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/jobtrack/internal/jobs/domain/job"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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

func (m *mockJobRepo) StatusCounts(ctx context.Context, ownerID string) (map[string]int, error) {
	args := m.Called(ctx, ownerID)
	counts, _ := args.Get(0).(map[string]int)
	return counts, args.Error(1)
}

func (m *mockJobRepo) Create(context.Context, *job.Job) error                    { return nil }
func (m *mockJobRepo) Update(context.Context, *job.Job, job.Patch) (bool, error) { return false, nil }
func (m *mockJobRepo) Delete(context.Context, uuid.UUID, string) (bool, error)   { return false, nil }
func (m *mockJobRepo) Count(context.Context, string) (int, error)                { return 0, nil }
func (m *mockJobRepo) LockOwner(context.Context, string) error                   { return nil }

func sampleJob(ownerID string) *job.Job {
	salary := "90k"
	date := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	return job.Rehydrate(job.Snapshot{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		CompanyName:   "Acme",
		Role:          "Engineer",
		Status:        job.StatusInterview,
		Salary:        &salary,
		DateSubmitted: &date,
	})
}

func TestListJobsHandler(t *testing.T) {
	t.Run("passes the parsed filter", func(t *testing.T) {
		repo := new(mockJobRepo)
		handler := NewListJobsHandler(repo)
		repo.On("List", mock.Anything, "user_1", mock.MatchedBy(func(s *job.Status) bool {
			return s != nil && *s == job.StatusInterview
		})).Return([]*job.Job{sampleJob("user_1")}, nil)

		dtos, err := handler.Handle(context.Background(), ListJobsQuery{OwnerID: "user_1", Status: "INTERVIEW"})

		require.NoError(t, err)
		require.Len(t, dtos, 1)
		assert.Equal(t, "INTERVIEW", dtos[0].Status)
		require.NotNil(t, dtos[0].DateSubmitted)
		assert.Equal(t, "2026-02-14", *dtos[0].DateSubmitted)
		assert.Nil(t, dtos[0].Notes)
	})

	t.Run("empty result is an empty slice", func(t *testing.T) {
		repo := new(mockJobRepo)
		repo.On("List", mock.Anything, "user_1", (*job.Status)(nil)).Return(nil, nil)

		dtos, err := NewListJobsHandler(repo).Handle(context.Background(), ListJobsQuery{OwnerID: "user_1"})

		require.NoError(t, err)
		assert.NotNil(t, dtos)
		raw, _ := json.Marshal(dtos)
		assert.JSONEq(t, `[]`, string(raw))
	})

	t.Run("storage failure is returned", func(t *testing.T) {
		repo := new(mockJobRepo)
		repo.On("List", mock.Anything, "user_1", (*job.Status)(nil)).Return(nil, errors.New("timeout"))

		_, err := NewListJobsHandler(repo).Handle(context.Background(), ListJobsQuery{OwnerID: "user_1"})

		assert.Error(t, err)
	})

	t.Run("unknown filter is rejected", func(t *testing.T) {
		_, err := NewListJobsHandler(new(mockJobRepo)).Handle(context.Background(), ListJobsQuery{OwnerID: "user_1", Status: "lost"})
		assert.ErrorIs(t, err, job.ErrInvalidStatus)
	})
}

func TestGetJobHandler(t *testing.T) {
	repo := new(mockJobRepo)
	handler := NewGetJobHandler(repo)
	found := sampleJob("user_1")
	missing := uuid.New()
	repo.On("Get", mock.Anything, found.ID(), "user_1").Return(found, nil)
	repo.On("Get", mock.Anything, missing, "user_1").Return(nil, nil)

	dto, err := handler.Handle(context.Background(), GetJobQuery{OwnerID: "user_1", JobID: found.ID()})
	require.NoError(t, err)
	assert.Equal(t, found.ID(), dto.ID)

	_, err = handler.Handle(context.Background(), GetJobQuery{OwnerID: "user_1", JobID: missing})
	assert.ErrorIs(t, err, job.ErrJobNotFound)
}

func TestGetJobStatsHandler(t *testing.T) {
	repo := new(mockJobRepo)
	repo.On("StatusCounts", mock.Anything, "user_1").Return(map[string]int{
		"Applied":   3,
		"Interview": 1,
		"Offer":     1,
		"Pending":   2,
	}, nil)

	stats, err := NewGetJobStatsHandler(repo).Handle(context.Background(), GetJobStatsQuery{OwnerID: "user_1"})

	require.NoError(t, err)
	assert.Equal(t, job.Stats{Total: 7, Applied: 3, Interview: 1, Offer: 1}, stats)

	failing := new(mockJobRepo)
	failing.On("StatusCounts", mock.Anything, "user_2").Return(nil, errors.New("down"))
	_, err = NewGetJobStatsHandler(failing).Handle(context.Background(), GetJobStatsQuery{OwnerID: "user_2"})
	assert.Error(t, err)
}
