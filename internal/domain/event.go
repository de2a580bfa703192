package domain

import "time"

// EventKind names something that happened to the accommodation state.
type EventKind string

const (
	EventBedAssigned         EventKind = "bed.assigned"
	EventBedVacated          EventKind = "bed.vacated"
	EventBedStatusChanged    EventKind = "bed.status_changed"
	EventTentCreated         EventKind = "tent.created"
	EventTentCapacityChanged EventKind = "tent.capacity_changed"
	EventTentDeleted         EventKind = "tent.deleted"
	EventPilgrimRegistered   EventKind = "pilgrim.registered"
	EventPilgrimGrouped      EventKind = "pilgrim.grouped"
)

// Event is a snapshot of a committed mutation. Only the ids relevant to
// the kind are set.
type Event struct {
	Kind       EventKind
	TentID     int64
	BedID      int64
	PilgrimID  int64
	BookingID  int64
	AgencyID   int64
	BedStatus  BedStatus
	Capacity   int
	OccurredAt time.Time
}

// NewEvent stamps an event of the given kind with the current time.
func NewEvent(kind EventKind) Event {
	return Event{Kind: kind, OccurredAt: time.Now().UTC()}
}
