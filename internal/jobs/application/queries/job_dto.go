package queries

import (
	"time"

	"github.com/felixgeelhaar/jobtrack/internal/jobs/domain/job"
	"github.com/google/uuid"
)

// JobDTO is the client view of a job. Optional fields are null when absent.
type JobDTO struct {
	ID            uuid.UUID `json:"id"`
	OwnerID       string    `json:"userId"`
	CompanyName   string    `json:"companyName"`
	Role          string    `json:"role"`
	Status        string    `json:"status"`
	Salary        *string   `json:"salary"`
	DateSubmitted *string   `json:"dateSubmitted"`
	JobLink       *string   `json:"jobLink"`
	Notes         *string   `json:"notes"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ToJobDTO converts a job. The status is rendered as its client token.
func ToJobDTO(j *job.Job) JobDTO {
	dto := JobDTO{
		ID:          j.ID(),
		OwnerID:     j.OwnerID(),
		CompanyName: j.CompanyName(),
		Role:        j.Role(),
		Status:      j.Status().Token(),
		Salary:      j.Salary(),
		JobLink:     j.JobLink(),
		Notes:       j.Notes(),
		CreatedAt:   j.CreatedAt(),
		UpdatedAt:   j.UpdatedAt(),
	}
	if d := j.DateSubmitted(); d != nil {
		s := d.Format(job.DateLayout)
		dto.DateSubmitted = &s
	}
	return dto
}

// ToJobDTOs converts a slice, never returning nil.
func ToJobDTOs(jobs []*job.Job) []JobDTO {
	dtos := make([]JobDTO, 0, len(jobs))
	for _, j := range jobs {
		dtos = append(dtos, ToJobDTO(j))
	}
	return dtos
}
