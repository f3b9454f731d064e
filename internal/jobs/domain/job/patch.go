package job

import (
	"time"

	"github.com/felixgeelhaar/jobtrack/internal/shared/domain"
)

// Patch is a partial update. Unset fields keep their stored value; cleared
// or blank optional fields are removed.
type Patch struct {
	CompanyName   domain.Field[string]
	Role          domain.Field[string]
	Status        domain.Field[Status]
	Salary        domain.Field[string]
	DateSubmitted domain.Field[time.Time]
	JobLink       domain.Field[string]
	Notes         domain.Field[string]
}

// IsEmpty reports whether no field was supplied.
func (p Patch) IsEmpty() bool {
	return !p.CompanyName.IsSet() &&
		!p.Role.IsSet() &&
		!p.Status.IsSet() &&
		!p.Salary.IsSet() &&
		!p.DateSubmitted.IsSet() &&
		!p.JobLink.IsSet() &&
		!p.Notes.IsSet()
}
