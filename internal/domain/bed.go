package domain

// BedStatus represents the allocation state of a bed.
type BedStatus string

const (
	BedAvailable   BedStatus = "Available"
	BedBooked      BedStatus = "Booked"
	BedReserved    BedStatus = "Reserved"
	BedMaintenance BedStatus = "Maintenance"
)

// Valid reports whether s is one of the known bed statuses.
func (s BedStatus) Valid() bool {
	switch s {
	case BedAvailable, BedBooked, BedReserved, BedMaintenance:
		return true
	}
	return false
}

// BedEvent represents an action that moves a bed between statuses.
type BedEvent string

const (
	BedEventAssign   BedEvent = "assign"
	BedEventVacate   BedEvent = "vacate"
	BedEventReserve  BedEvent = "reserve"
	BedEventMaintain BedEvent = "maintain"
	BedEventRelease  BedEvent = "release"
)

// BedTransition defines a valid state change: an event moves a bed from Src to Dst.
type BedTransition struct {
	Event BedEvent
	Src   BedStatus
	Dst   BedStatus
}

// BedTransitions defines all valid state changes in the bed lifecycle.
// Booked is entered only through assign and left only through vacate,
// so a bed's status cannot drift away from its booking.
var BedTransitions = []BedTransition{
	{Event: BedEventAssign, Src: BedAvailable, Dst: BedBooked},

	{Event: BedEventVacate, Src: BedAvailable, Dst: BedAvailable},
	{Event: BedEventVacate, Src: BedBooked, Dst: BedAvailable},
	{Event: BedEventVacate, Src: BedReserved, Dst: BedAvailable},
	{Event: BedEventVacate, Src: BedMaintenance, Dst: BedAvailable},

	{Event: BedEventReserve, Src: BedAvailable, Dst: BedReserved},

	{Event: BedEventMaintain, Src: BedAvailable, Dst: BedMaintenance},
	{Event: BedEventMaintain, Src: BedReserved, Dst: BedMaintenance},

	{Event: BedEventRelease, Src: BedReserved, Dst: BedAvailable},
	{Event: BedEventRelease, Src: BedMaintenance, Dst: BedAvailable},
}

// StatusEvent returns the administrative event that moves a bed to target.
// Booked has no administrative event; beds become Booked only by assignment.
func StatusEvent(target BedStatus) (BedEvent, bool) {
	switch target {
	case BedAvailable:
		return BedEventRelease, true
	case BedReserved:
		return BedEventReserve, true
	case BedMaintenance:
		return BedEventMaintain, true
	}
	return "", false
}

// Bed is the unit of allocation. It belongs to exactly one tent.
type Bed struct {
	ID     int64
	TentID int64
	Status BedStatus
}

// NewBed creates an available bed in the given tent.
func NewBed(tentID int64) Bed {
	return Bed{TentID: tentID, Status: BedAvailable}
}
