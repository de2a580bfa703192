package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neomorfeo/wafd/internal/domain"
)

// TentService manages tents and keeps each tent's beds in line with its
// declared capacity.
type TentService struct {
	store     domain.Store
	publisher domain.EventPublisher
}

// NewTentService creates a service with the given adapters.
func NewTentService(store domain.Store, publisher domain.EventPublisher) *TentService {
	return &TentService{
		store:     store,
		publisher: publisher,
	}
}

// TentDetails is a tent together with the beds it currently owns.
type TentDetails struct {
	Tent domain.Tent
	Beds []domain.Bed
}

// TentUpdate carries the new declared fields of a tent.
type TentUpdate struct {
	Name     string
	Code     string
	Type     domain.TentType
	Capacity int
	Location string
	AgencyID *int64
}

// Create persists a tent and creates one available bed per unit of capacity.
func (s *TentService) Create(ctx context.Context, tent domain.Tent) (TentDetails, error) {
	if err := tent.Validate(); err != nil {
		return TentDetails{}, err
	}

	var details TentDetails
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		if tent.AgencyID != nil {
			if _, err := tx.Agencies().GetByID(ctx, *tent.AgencyID); err != nil {
				return err
			}
		}

		created, err := tx.Tents().Create(ctx, tent)
		if err != nil {
			return fmt.Errorf("creating tent: %w", err)
		}

		beds, err := addBeds(ctx, tx, created.ID, created.Capacity)
		if err != nil {
			return err
		}

		details = TentDetails{Tent: created, Beds: beds}
		return nil
	})
	if err != nil {
		return TentDetails{}, err
	}

	event := domain.NewEvent(domain.EventTentCreated)
	event.TentID = details.Tent.ID
	event.Capacity = details.Tent.Capacity
	publish(ctx, s.publisher, event)

	return details, nil
}

// Get returns a tent with its beds. Supervisors only see the tents of their
// own agency; any other tent is reported as not found.
func (s *TentService) Get(ctx context.Context, caller domain.Caller, id int64) (TentDetails, error) {
	tent, err := s.store.Tents().GetByID(ctx, id)
	if err != nil {
		return TentDetails{}, err
	}
	if scoped, ok := caller.AgencyScope(); ok && (tent.AgencyID == nil || *tent.AgencyID != scoped) {
		return TentDetails{}, &domain.NotFoundError{Resource: "tent", Key: fmt.Sprint(id)}
	}
	beds, err := s.store.Beds().ListByTent(ctx, id)
	if err != nil {
		return TentDetails{}, fmt.Errorf("listing beds of tent %d: %w", id, err)
	}
	return TentDetails{Tent: tent, Beds: beds}, nil
}

// List returns the tents visible to the caller. Supervisors only see the
// tents of their own agency.
func (s *TentService) List(ctx context.Context, caller domain.Caller) ([]domain.Tent, error) {
	var filter domain.TentFilter
	if agencyID, ok := caller.AgencyScope(); ok {
		filter.AgencyID = &agencyID
	}
	return s.store.Tents().List(ctx, filter)
}

// Update replaces the tent's declared fields and reconciles its beds with
// the new capacity.
func (s *TentService) Update(ctx context.Context, id int64, upd TentUpdate) (TentDetails, error) {
	var (
		details     TentDetails
		oldCapacity int
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		tent, err := tx.Tents().GetByID(ctx, id)
		if err != nil {
			return err
		}
		oldCapacity = tent.Capacity

		tent.Name = upd.Name
		tent.Code = upd.Code
		tent.Type = upd.Type
		tent.Capacity = upd.Capacity
		tent.Location = upd.Location
		if tent.Location == "" {
			tent.Location = upd.Name
		}
		tent.AgencyID = upd.AgencyID
		tent.UpdatedAt = time.Now().UTC()

		if err := tent.Validate(); err != nil {
			return err
		}
		if tent.AgencyID != nil {
			if _, err := tx.Agencies().GetByID(ctx, *tent.AgencyID); err != nil {
				return err
			}
		}

		details, err = s.reconcile(ctx, tx, tent, oldCapacity)
		return err
	})
	if err != nil {
		return TentDetails{}, err
	}

	s.capacityChanged(ctx, details, oldCapacity)
	return details, nil
}

// UpdateCapacity changes only the tent's capacity.
func (s *TentService) UpdateCapacity(ctx context.Context, id int64, capacity int) (TentDetails, error) {
	if capacity < 0 {
		return TentDetails{}, &domain.ValidationError{Field: "capacity", Msg: "must not be negative"}
	}

	var (
		details     TentDetails
		oldCapacity int
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		tent, err := tx.Tents().GetByID(ctx, id)
		if err != nil {
			return err
		}
		oldCapacity = tent.Capacity
		tent.Capacity = capacity
		tent.UpdatedAt = time.Now().UTC()

		details, err = s.reconcile(ctx, tx, tent, oldCapacity)
		return err
	})
	if err != nil {
		return TentDetails{}, err
	}

	s.capacityChanged(ctx, details, oldCapacity)
	return details, nil
}

// Delete removes a tent and its beds. It is rejected while any bed of the
// tent is held by an active booking.
func (s *TentService) Delete(ctx context.Context, id int64) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		if _, err := tx.Tents().GetByID(ctx, id); err != nil {
			return err
		}

		beds, err := tx.Beds().ListByTent(ctx, id)
		if err != nil {
			return fmt.Errorf("listing beds of tent %d: %w", id, err)
		}

		ledger := NewBookingLedger(tx)
		for _, bed := range beds {
			_, held, err := ledger.ActiveForBed(ctx, bed.ID)
			if err != nil {
				return err
			}
			if held {
				return &domain.InvalidStateError{Reason: "Tent has beds with active bookings"}
			}
		}

		return tx.Tents().Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	event := domain.NewEvent(domain.EventTentDeleted)
	event.TentID = id
	publish(ctx, s.publisher, event)
	return nil
}

// reconcile persists tent and moves its bed count toward the new capacity.
// A reduction removes only available beds, lowest id first; when too few
// are available the tent keeps more beds than its capacity.
func (s *TentService) reconcile(ctx context.Context, tx domain.Store, tent domain.Tent, oldCapacity int) (TentDetails, error) {
	if err := tx.Tents().Update(ctx, tent); err != nil {
		return TentDetails{}, fmt.Errorf("updating tent %d: %w", tent.ID, err)
	}

	switch {
	case tent.Capacity > oldCapacity:
		if _, err := addBeds(ctx, tx, tent.ID, tent.Capacity-oldCapacity); err != nil {
			return TentDetails{}, err
		}
	case tent.Capacity < oldCapacity:
		if err := removeAvailableBeds(ctx, tx, tent.ID, oldCapacity-tent.Capacity); err != nil {
			return TentDetails{}, err
		}
	}

	beds, err := tx.Beds().ListByTent(ctx, tent.ID)
	if err != nil {
		return TentDetails{}, fmt.Errorf("listing beds of tent %d: %w", tent.ID, err)
	}
	return TentDetails{Tent: tent, Beds: beds}, nil
}

func (s *TentService) capacityChanged(ctx context.Context, details TentDetails, oldCapacity int) {
	if details.Tent.Capacity == oldCapacity {
		return
	}

	event := domain.NewEvent(domain.EventTentCapacityChanged)
	event.TentID = details.Tent.ID
	event.Capacity = details.Tent.Capacity
	publish(ctx, s.publisher, event)

	slog.InfoContext(ctx, "tent capacity changed",
		"tent_id", details.Tent.ID,
		"old_capacity", oldCapacity,
		"new_capacity", details.Tent.Capacity,
		"beds", len(details.Beds),
	)
}

func addBeds(ctx context.Context, tx domain.Store, tentID int64, n int) ([]domain.Bed, error) {
	beds := make([]domain.Bed, 0, n)
	for range n {
		bed, err := tx.Beds().Create(ctx, domain.NewBed(tentID))
		if err != nil {
			return nil, fmt.Errorf("creating bed for tent %d: %w", tentID, err)
		}
		beds = append(beds, bed)
	}
	return beds, nil
}

func removeAvailableBeds(ctx context.Context, tx domain.Store, tentID int64, n int) error {
	beds, err := tx.Beds().ListByTent(ctx, tentID)
	if err != nil {
		return fmt.Errorf("listing beds of tent %d: %w", tentID, err)
	}

	removed := 0
	for _, bed := range beds {
		if removed == n {
			break
		}
		if bed.Status != domain.BedAvailable {
			continue
		}
		if err := tx.Beds().Delete(ctx, bed.ID); err != nil {
			return fmt.Errorf("removing bed %d: %w", bed.ID, err)
		}
		removed++
	}
	return nil
}
