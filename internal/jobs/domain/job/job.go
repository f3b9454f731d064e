package job

import (
	"errors"
	"strings"
	"time"

	"github.com/felixgeelhaar/jobtrack/internal/shared/domain"
	"github.com/google/uuid"
)

var (
	ErrJobNotFound  = errors.New("job not found")
	ErrEmptyCompany = errors.New("company name is required")
	ErrEmptyRole    = errors.New("role is required")
	ErrMissingOwner = errors.New("job owner is required")
	ErrInvalidDate  = errors.New("date submitted must be formatted as YYYY-MM-DD")
	ErrEmptyPatch   = errors.New("no fields to update")
)

// DateLayout is the calendar-date format used for DateSubmitted.
const DateLayout = "2006-01-02"

// Job is a single job application owned by one user.
type Job struct {
	domain.BaseAggregateRoot
	ownerID       string
	companyName   string
	role          string
	status        Status
	salary        *string
	dateSubmitted *time.Time
	jobLink       *string
	notes         *string
}

// Details carries the optional fields of a new job. Empty strings are
// stored as absent.
type Details struct {
	Salary        string
	DateSubmitted *time.Time
	JobLink       string
	Notes         string
}

// NewJob creates a job for ownerID.
func NewJob(ownerID, companyName, role string, status Status, details Details) (*Job, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrMissingOwner
	}
	companyName = strings.TrimSpace(companyName)
	if companyName == "" {
		return nil, ErrEmptyCompany
	}
	role = strings.TrimSpace(role)
	if role == "" {
		return nil, ErrEmptyRole
	}
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	j := &Job{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		ownerID:           ownerID,
		companyName:       companyName,
		role:              role,
		status:            status,
		salary:            optional(details.Salary),
		dateSubmitted:     truncateDate(details.DateSubmitted),
		jobLink:           optional(details.JobLink),
		notes:             optional(details.Notes),
	}

	j.AddDomainEvent(NewJobCreated(j.ID(), j.companyName, j.role, j.status))
	return j, nil
}

// Snapshot is the persisted form of a job.
type Snapshot struct {
	ID            uuid.UUID
	OwnerID       string
	CompanyName   string
	Role          string
	Status        Status
	Salary        *string
	DateSubmitted *time.Time
	JobLink       *string
	Notes         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Rehydrate rebuilds a job from storage without validation, so legacy rows
// with unexpected status values can still be read.
func Rehydrate(s Snapshot) *Job {
	return &Job{
		BaseAggregateRoot: domain.RehydrateBaseAggregateRoot(
			domain.RehydrateBaseEntity(s.ID, s.CreatedAt, s.UpdatedAt),
		),
		ownerID:       s.OwnerID,
		companyName:   s.CompanyName,
		role:          s.Role,
		status:        s.Status,
		salary:        s.Salary,
		dateSubmitted: s.DateSubmitted,
		jobLink:       s.JobLink,
		notes:         s.Notes,
	}
}

func (j *Job) OwnerID() string           { return j.ownerID }
func (j *Job) CompanyName() string       { return j.companyName }
func (j *Job) Role() string              { return j.role }
func (j *Job) Status() Status            { return j.status }
func (j *Job) Salary() *string           { return j.salary }
func (j *Job) DateSubmitted() *time.Time { return j.dateSubmitted }
func (j *Job) JobLink() *string          { return j.jobLink }
func (j *Job) Notes() *string            { return j.notes }

// Apply validates p and applies it. It returns the normalised patch holding
// only the fields that were supplied.
func (j *Job) Apply(p Patch) (Patch, error) {
	if p.IsEmpty() {
		return Patch{}, ErrEmptyPatch
	}

	var (
		out     Patch
		changed []string
	)
	previous := j.status

	if p.CompanyName.IsSet() {
		v, _ := p.CompanyName.Value()
		v = strings.TrimSpace(v)
		if v == "" {
			return Patch{}, ErrEmptyCompany
		}
		j.companyName = v
		out.CompanyName = domain.Set(v)
		changed = append(changed, "company_name")
	}
	if p.Role.IsSet() {
		v, _ := p.Role.Value()
		v = strings.TrimSpace(v)
		if v == "" {
			return Patch{}, ErrEmptyRole
		}
		j.role = v
		out.Role = domain.Set(v)
		changed = append(changed, "role")
	}
	if p.Status.IsSet() {
		v, _ := p.Status.Value()
		if !v.IsValid() {
			return Patch{}, ErrInvalidStatus
		}
		j.status = v
		out.Status = domain.Set(v)
		changed = append(changed, "status")
	}
	if p.Salary.IsSet() {
		j.salary, out.Salary = applyText(p.Salary)
		changed = append(changed, "salary")
	}
	if p.DateSubmitted.IsSet() {
		j.dateSubmitted = truncateDate(p.DateSubmitted.Ptr())
		if j.dateSubmitted == nil {
			out.DateSubmitted = domain.Clear[time.Time]()
		} else {
			out.DateSubmitted = domain.Set(*j.dateSubmitted)
		}
		changed = append(changed, "date_submitted")
	}
	if p.JobLink.IsSet() {
		j.jobLink, out.JobLink = applyText(p.JobLink)
		changed = append(changed, "job_link")
	}
	if p.Notes.IsSet() {
		j.notes, out.Notes = applyText(p.Notes)
		changed = append(changed, "notes")
	}

	j.Touch()
	j.AddDomainEvent(NewJobUpdated(j.ID(), changed))
	if j.status != previous {
		j.AddDomainEvent(NewJobStatusChanged(j.ID(), previous, j.status))
	}
	return out, nil
}

// MarkDeleted records the deletion event.
func (j *Job) MarkDeleted() {
	j.AddDomainEvent(NewJobDeleted(j.ID()))
}

// ParseDate parses a YYYY-MM-DD calendar date. Empty input means absent.
func ParseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return nil, ErrInvalidDate
	}
	return &t, nil
}

func applyText(f domain.Field[string]) (*string, domain.Field[string]) {
	v, _ := f.Value()
	if p := optional(v); p != nil {
		return p, domain.Set(*p)
	}
	return nil, domain.Clear[string]()
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func truncateDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}
