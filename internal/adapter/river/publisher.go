package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/wafd/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// EventJobArgs carries an allocation event through River's job queue.
// River serializes this as JSON into its job table. Ids that do not apply
// to the event kind are left zero and omitted.
type EventJobArgs struct {
	Event      string    `json:"event"`
	TentID     int64     `json:"tent_id,omitempty"`
	BedID      int64     `json:"bed_id,omitempty"`
	PilgrimID  int64     `json:"pilgrim_id,omitempty"`
	BookingID  int64     `json:"booking_id,omitempty"`
	AgencyID   int64     `json:"agency_id,omitempty"`
	BedStatus  string    `json:"bed_status,omitempty"`
	Capacity   int       `json:"capacity"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (EventJobArgs) Kind() string { return "allocation.event" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

// Publish enqueues an allocation event as an async job in River.
func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	_, err := p.client.Insert(ctx, newEventJobArgs(event), nil)
	if err != nil {
		return fmt.Errorf("enqueuing event job: %w", err)
	}
	return nil
}

func newEventJobArgs(event domain.Event) EventJobArgs {
	return EventJobArgs{
		Event:      string(event.Kind),
		TentID:     event.TentID,
		BedID:      event.BedID,
		PilgrimID:  event.PilgrimID,
		BookingID:  event.BookingID,
		AgencyID:   event.AgencyID,
		BedStatus:  string(event.BedStatus),
		Capacity:   event.Capacity,
		OccurredAt: event.OccurredAt,
	}
}
