package commands

import (
	"context"

	"github.com/felixgeelhaar/jobtrack/internal/jobs/domain/job"
	sharedApplication "github.com/felixgeelhaar/jobtrack/internal/shared/application"
	"github.com/felixgeelhaar/jobtrack/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/jobtrack/pkg/observability"
)

const tracerName = "jobtrack/jobs/commands"

// saveEvents writes the job's pending events to the outbox within txCtx.
func saveEvents(txCtx context.Context, writer outbox.Writer, j *job.Job) error {
	events := j.DomainEvents()
	if len(events) == 0 {
		return nil
	}
	sharedApplication.ApplyEventMetadata(events,
		sharedApplication.NewEventMetadata(j.OwnerID(), observability.CorrelationUUID(txCtx)))

	msgs, err := outbox.NewMessages(events)
	if err != nil {
		return err
	}
	if err := writer.SaveBatch(txCtx, msgs); err != nil {
		return err
	}
	j.ClearDomainEvents()
	return nil
}
