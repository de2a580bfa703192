package river

import (
	"context"
	"log/slog"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/wafd/internal/domain"
)

// EventWorker processes allocation event jobs from the River queue.
// It records each event in the structured log, which is the audit trail
// for bed and tent changes.
type EventWorker struct {
	river.WorkerDefaults[EventJobArgs]
}

// Work processes a single event job.
func (w *EventWorker) Work(ctx context.Context, job *river.Job[EventJobArgs]) error {
	attrs := []any{
		"event", job.Args.Event,
		"job_id", job.ID,
		"attempt", job.Attempt,
		"occurred_at", job.Args.OccurredAt,
	}

	switch domain.EventKind(job.Args.Event) {
	case domain.EventBedAssigned, domain.EventBedVacated, domain.EventBedStatusChanged:
		attrs = append(attrs, "bed_id", job.Args.BedID, "bed_status", job.Args.BedStatus)
		if job.Args.PilgrimID != 0 {
			attrs = append(attrs, "pilgrim_id", job.Args.PilgrimID, "booking_id", job.Args.BookingID)
		}
	case domain.EventTentCreated, domain.EventTentCapacityChanged, domain.EventTentDeleted:
		attrs = append(attrs, "tent_id", job.Args.TentID, "capacity", job.Args.Capacity)
	case domain.EventPilgrimRegistered, domain.EventPilgrimGrouped:
		attrs = append(attrs, "pilgrim_id", job.Args.PilgrimID, "agency_id", job.Args.AgencyID)
	default:
		slog.WarnContext(ctx, "unknown event kind", attrs...)
		return nil
	}

	slog.InfoContext(ctx, "processing event", attrs...)
	return nil
}
