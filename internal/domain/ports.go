package domain

import "context"

// TentRepository defines the persistence contract for tents.
type TentRepository interface {
	Create(ctx context.Context, tent Tent) (Tent, error)
	GetByID(ctx context.Context, id int64) (Tent, error)
	List(ctx context.Context, filter TentFilter) ([]Tent, error)
	Update(ctx context.Context, tent Tent) error
	// Delete removes the tent and, by cascade, its beds. Bookings that
	// pointed at those beds are kept with BedID cleared.
	Delete(ctx context.Context, id int64) error
}

// TentFilter holds optional criteria for listing tents.
type TentFilter struct {
	AgencyID *int64
}

// BedRepository defines the persistence contract for beds.
type BedRepository interface {
	Create(ctx context.Context, bed Bed) (Bed, error)
	GetByID(ctx context.Context, id int64) (Bed, error)
	// ListByTent returns the tent's beds in ascending id order.
	ListByTent(ctx context.Context, tentID int64) ([]Bed, error)
	// UpdateStatus moves a bed from one status to another. It returns
	// ErrStaleStatus when the stored status no longer equals from.
	UpdateStatus(ctx context.Context, id int64, from, to BedStatus) error
	// Delete removes the bed and clears BedID on the bookings that held it.
	Delete(ctx context.Context, id int64) error
	CountByStatus(ctx context.Context, filter BedFilter) (map[BedStatus]int, error)
}

// BedFilter narrows bed aggregates to a tent or to an agency's tents.
type BedFilter struct {
	TentID   *int64
	AgencyID *int64
}

// BookingRepository defines the persistence contract for bookings.
type BookingRepository interface {
	Create(ctx context.Context, booking Booking) (Booking, error)
	Update(ctx context.Context, booking Booking) error
	GetByID(ctx context.Context, id int64) (Booking, error)
	// GetByPilgrim returns the pilgrim's booking record regardless of status.
	GetByPilgrim(ctx context.Context, pilgrimID int64) (Booking, error)
	// GetActiveByBed returns the booking currently holding the bed.
	GetActiveByBed(ctx context.Context, bedID int64) (Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]Booking, error)
}

// BookingFilter holds optional criteria for listing bookings.
type BookingFilter struct {
	Status    *BookingStatus
	PilgrimID *int64
	Limit     int
	Offset    int
}

// PilgrimRepository defines the persistence contract for pilgrims.
type PilgrimRepository interface {
	Create(ctx context.Context, pilgrim Pilgrim) (Pilgrim, error)
	GetByID(ctx context.Context, id int64) (Pilgrim, error)
	GetByNationalID(ctx context.Context, nationalID string) (Pilgrim, error)
	GetByRegistrationNumber(ctx context.Context, regNo string) (Pilgrim, error)
	Update(ctx context.Context, pilgrim Pilgrim) error
	List(ctx context.Context, filter PilgrimFilter) ([]Pilgrim, error)
	CountByAgency(ctx context.Context, agencyID int64) (int, error)
	// LatestRegistrationNumber returns the most recently issued number, or
	// ok == false when no pilgrim has one yet.
	LatestRegistrationNumber(ctx context.Context) (regNo string, ok bool, err error)
}

// PilgrimFilter holds optional criteria for listing pilgrims.
type PilgrimFilter struct {
	AgencyID *int64
	Status   *PilgrimStatus
	Limit    int
	Offset   int
}

// AgencyRepository defines the persistence contract for agencies.
type AgencyRepository interface {
	Create(ctx context.Context, agency Agency) (Agency, error)
	GetByID(ctx context.Context, id int64) (Agency, error)
}

// Store groups the repositories and provides the transactional boundary
// that keeps bed and booking writes together.
type Store interface {
	Tents() TentRepository
	Beds() BedRepository
	Bookings() BookingRepository
	Pilgrims() PilgrimRepository
	Agencies() AgencyRepository
	// WithinTx runs fn against a Store bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// EventPublisher defines the contract for emitting domain events.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// TransitionValidator applies a bed event to a status and returns the
// resulting status, or a *TransitionError when the event is not allowed.
type TransitionValidator interface {
	Apply(ctx context.Context, current BedStatus, event BedEvent) (BedStatus, error)
}
