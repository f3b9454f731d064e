package job

import (
	"github.com/felixgeelhaar/jobtrack/internal/shared/domain"
	"github.com/google/uuid"
)

const (
	AggregateType = "Job"

	RoutingKeyCreated       = "jobs.job.created"
	RoutingKeyUpdated       = "jobs.job.updated"
	RoutingKeyStatusChanged = "jobs.job.status_changed"
	RoutingKeyDeleted       = "jobs.job.deleted"
)

// JobCreated is emitted when a job is recorded.
type JobCreated struct {
	domain.BaseEvent
	CompanyName string `json:"company_name"`
	Role        string `json:"role"`
	Status      string `json:"status"`
}

// NewJobCreated creates a JobCreated event.
func NewJobCreated(jobID uuid.UUID, companyName, role string, status Status) *JobCreated {
	return &JobCreated{
		BaseEvent:   domain.NewBaseEvent(jobID, AggregateType, RoutingKeyCreated),
		CompanyName: companyName,
		Role:        role,
		Status:      status.String(),
	}
}

// JobUpdated is emitted when any field changes.
type JobUpdated struct {
	domain.BaseEvent
	Fields []string `json:"fields"`
}

// NewJobUpdated creates a JobUpdated event.
func NewJobUpdated(jobID uuid.UUID, fields []string) *JobUpdated {
	return &JobUpdated{
		BaseEvent: domain.NewBaseEvent(jobID, AggregateType, RoutingKeyUpdated),
		Fields:    fields,
	}
}

// JobStatusChanged is emitted when the pipeline stage moves.
type JobStatusChanged struct {
	domain.BaseEvent
	From string `json:"from"`
	To   string `json:"to"`
}

// NewJobStatusChanged creates a JobStatusChanged event.
func NewJobStatusChanged(jobID uuid.UUID, from, to Status) *JobStatusChanged {
	return &JobStatusChanged{
		BaseEvent: domain.NewBaseEvent(jobID, AggregateType, RoutingKeyStatusChanged),
		From:      from.String(),
		To:        to.String(),
	}
}

// JobDeleted is emitted when a job is removed.
type JobDeleted struct {
	domain.BaseEvent
}

// NewJobDeleted creates a JobDeleted event.
func NewJobDeleted(jobID uuid.UUID) *JobDeleted {
	return &JobDeleted{
		BaseEvent: domain.NewBaseEvent(jobID, AggregateType, RoutingKeyDeleted),
	}
}
