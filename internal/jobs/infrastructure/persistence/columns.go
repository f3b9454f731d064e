package persistence

import (
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/felixgeelhaar/jobtrack/internal/jobs/domain/job"
	"github.com/felixgeelhaar/jobtrack/internal/shared/domain"
	"github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/database"
)

const tracerName = "jobtrack/jobs/persistence"

var jobColumns = []string{
	"id", "user_id", "company_name", "role", "status",
	"salary", "date_submitted", "job_link", "notes",
	"created_at", "updated_at",
}

// writeErr maps a rejected status column onto the domain error.
func writeErr(err error) error {
	if database.IsCheckViolation(err) {
		return fmt.Errorf("%w: %v", job.ErrInvalidStatus, err)
	}
	return err
}

// valueEncoder converts domain values into driver arguments.
type valueEncoder struct {
	text func(*string) any
	date func(*time.Time) any
	time func(time.Time) any
}

// setChanges adds one SET clause per supplied field of changes.
func setChanges(b sq.UpdateBuilder, j *job.Job, changes job.Patch, enc valueEncoder) sq.UpdateBuilder {
	if v, ok := changes.CompanyName.Value(); ok {
		b = b.Set("company_name", v)
	}
	if v, ok := changes.Role.Value(); ok {
		b = b.Set("role", v)
	}
	if v, ok := changes.Status.Value(); ok {
		b = b.Set("status", v.String())
	}
	b = setText(b, "salary", changes.Salary, enc)
	if changes.DateSubmitted.IsSet() {
		b = b.Set("date_submitted", enc.date(changes.DateSubmitted.Ptr()))
	}
	b = setText(b, "job_link", changes.JobLink, enc)
	b = setText(b, "notes", changes.Notes, enc)
	return b.Set("updated_at", enc.time(j.UpdatedAt()))
}

func setText(b sq.UpdateBuilder, column string, f domain.Field[string], enc valueEncoder) sq.UpdateBuilder {
	if !f.IsSet() {
		return b
	}
	return b.Set(column, enc.text(f.Ptr()))
}
