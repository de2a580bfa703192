package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/neomorfeo/wafd/internal/domain"
)

const (
	reasonBedUnavailable = "Bed is not available"
	reasonNoGroup        = "Pilgrim is not assigned to a group"
	reasonTentsFull      = "All Tents are full"
)

// AllocationService assigns beds to pilgrims and releases them. Every bed
// and booking mutation of a call happens inside one store transaction, and
// bed status writes are compare-and-set so concurrent callers cannot both
// book the same bed.
type AllocationService struct {
	store     domain.Store
	validator domain.TransitionValidator
	publisher domain.EventPublisher
}

// NewAllocationService creates a service with the given adapters.
func NewAllocationService(store domain.Store, validator domain.TransitionValidator, publisher domain.EventPublisher) *AllocationService {
	return &AllocationService{
		store:     store,
		validator: validator,
		publisher: publisher,
	}
}

// AssignBed books bedID for pilgrimID and returns the updated bed.
func (s *AllocationService) AssignBed(ctx context.Context, pilgrimID, bedID int64) (domain.Bed, error) {
	var (
		bed     domain.Bed
		booking domain.Booking
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		pilgrim, err := tx.Pilgrims().GetByID(ctx, pilgrimID)
		if err != nil {
			return err
		}

		target, err := tx.Beds().GetByID(ctx, bedID)
		if err != nil {
			return err
		}

		bed, booking, err = s.assign(ctx, tx, pilgrim, target)
		return err
	})
	if err != nil {
		return domain.Bed{}, err
	}

	s.bedAssigned(ctx, bed, booking)
	return bed, nil
}

// AssignBedByIdentifier resolves the pilgrim from a numeric id, national id
// or registration number and books bedID for them. Only pilgrims that
// belong to an agency can be placed this way.
func (s *AllocationService) AssignBedByIdentifier(ctx context.Context, identifier string, bedID int64) (domain.Bed, error) {
	var (
		bed     domain.Bed
		booking domain.Booking
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		pilgrim, err := NewBookingLedger(tx).ResolvePilgrim(ctx, identifier)
		if err != nil {
			return err
		}
		if pilgrim.AgencyID == nil {
			return &domain.InvalidStateError{Reason: reasonNoGroup}
		}

		target, err := tx.Beds().GetByID(ctx, bedID)
		if err != nil {
			return err
		}

		bed, booking, err = s.assign(ctx, tx, pilgrim, target)
		return err
	})
	if err != nil {
		return domain.Bed{}, err
	}

	s.bedAssigned(ctx, bed, booking)
	return bed, nil
}

// VacateBed releases the bed, cancelling its active booking if there is one.
// Vacating an available bed without a booking succeeds and changes nothing.
func (s *AllocationService) VacateBed(ctx context.Context, bedID int64) (domain.Bed, error) {
	var (
		bed       domain.Bed
		cancelled *domain.Booking
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		current, err := tx.Beds().GetByID(ctx, bedID)
		if err != nil {
			return err
		}

		ledger := NewBookingLedger(tx)
		booking, ok, err := ledger.ActiveForBed(ctx, bedID)
		if err != nil {
			return err
		}
		if ok {
			c, err := ledger.Cancel(ctx, booking)
			if err != nil {
				return err
			}
			cancelled = &c
		}

		bed, err = s.move(ctx, tx, current, domain.BedEventVacate)
		return err
	})
	if err != nil {
		return domain.Bed{}, err
	}

	event := domain.NewEvent(domain.EventBedVacated)
	event.BedID = bed.ID
	event.TentID = bed.TentID
	event.BedStatus = bed.Status
	if cancelled != nil {
		event.BookingID = cancelled.ID
		event.PilgrimID = cancelled.PilgrimID
	}
	publish(ctx, s.publisher, event)

	slog.InfoContext(ctx, "bed vacated",
		"bed_id", bed.ID,
		"booking_cancelled", cancelled != nil,
	)
	return bed, nil
}

// BookByAvailability resolves the pilgrim from identifier and books the
// first available bed found in the tents of the pilgrim's agency. Tents
// and beds are scanned in ascending id order.
func (s *AllocationService) BookByAvailability(ctx context.Context, identifier string) (domain.Bed, error) {
	var (
		bed     domain.Bed
		booking domain.Booking
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		pilgrim, err := NewBookingLedger(tx).ResolvePilgrim(ctx, identifier)
		if err != nil {
			return err
		}
		if pilgrim.AgencyID == nil {
			return &domain.InvalidStateError{Reason: reasonNoGroup}
		}

		agency, err := tx.Agencies().GetByID(ctx, *pilgrim.AgencyID)
		if err != nil {
			return err
		}

		tents, err := tx.Tents().List(ctx, domain.TentFilter{AgencyID: &agency.ID})
		if err != nil {
			return fmt.Errorf("listing tents of agency %d: %w", agency.ID, err)
		}

		for _, tent := range tents {
			if tent.Capacity == 0 {
				continue
			}
			beds, err := tx.Beds().ListByTent(ctx, tent.ID)
			if err != nil {
				return fmt.Errorf("listing beds of tent %d: %w", tent.ID, err)
			}
			for _, candidate := range beds {
				if candidate.Status != domain.BedAvailable {
					continue
				}
				bed, booking, err = s.assign(ctx, tx, pilgrim, candidate)
				return err
			}
		}

		return &domain.ResourceExhaustedError{Reason: reasonTentsFull}
	})
	if err != nil {
		return domain.Bed{}, err
	}

	s.bedAssigned(ctx, bed, booking)
	return bed, nil
}

// SetBedStatus applies an administrative status override. Booked cannot be
// set directly and a bed holding an active booking cannot be moved at all;
// use AssignBed and VacateBed for those.
func (s *AllocationService) SetBedStatus(ctx context.Context, caller domain.Caller, bedID int64, target domain.BedStatus) (domain.Bed, error) {
	if !target.Valid() {
		return domain.Bed{}, &domain.ValidationError{Field: "status", Msg: fmt.Sprintf("unknown bed status %q", target)}
	}
	if !caller.CanSetBedStatus(target) {
		if caller.Role == domain.RoleSupervisor {
			return domain.Bed{}, domain.NotPermitted("Supervisors are not allowed to set beds to maintenance status")
		}
		return domain.Bed{}, domain.NotPermitted(fmt.Sprintf("role %q is not allowed to change bed status", caller.Role))
	}

	event, ok := domain.StatusEvent(target)
	if !ok {
		return domain.Bed{}, &domain.InvalidStateError{Reason: "Beds become Booked only by assignment"}
	}

	var (
		bed     domain.Bed
		changed bool
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		current, err := tx.Beds().GetByID(ctx, bedID)
		if err != nil {
			return err
		}
		if current.Status == target {
			bed = current
			return nil
		}

		if _, held, err := NewBookingLedger(tx).ActiveForBed(ctx, bedID); err != nil {
			return err
		} else if held {
			return &domain.InvalidStateError{Reason: "Bed has an active booking; vacate it first"}
		}

		bed, err = s.move(ctx, tx, current, event)
		changed = err == nil
		return err
	})
	if err != nil {
		return domain.Bed{}, err
	}

	if changed {
		ev := domain.NewEvent(domain.EventBedStatusChanged)
		ev.BedID = bed.ID
		ev.TentID = bed.TentID
		ev.BedStatus = bed.Status
		publish(ctx, s.publisher, ev)
	}
	return bed, nil
}

// assign books bed for pilgrim inside tx. When the pilgrim's booking was
// holding another bed, that bed is released in the same transaction so no
// bed stays Booked without a booking.
func (s *AllocationService) assign(ctx context.Context, tx domain.Store, pilgrim domain.Pilgrim, bed domain.Bed) (domain.Bed, domain.Booking, error) {
	booked, err := s.move(ctx, tx, bed, domain.BedEventAssign)
	if err != nil {
		return domain.Bed{}, domain.Booking{}, err
	}

	booking, previousBedID, err := NewBookingLedger(tx).RecordAssignment(ctx, pilgrim.ID, bed.ID)
	if err != nil {
		return domain.Bed{}, domain.Booking{}, err
	}

	if previousBedID != 0 {
		previous, err := tx.Beds().GetByID(ctx, previousBedID)
		if err != nil {
			return domain.Bed{}, domain.Booking{}, fmt.Errorf("loading previous bed %d: %w", previousBedID, err)
		}
		if _, err := s.move(ctx, tx, previous, domain.BedEventVacate); err != nil {
			return domain.Bed{}, domain.Booking{}, fmt.Errorf("releasing previous bed %d: %w", previousBedID, err)
		}
	}

	return booked, booking, nil
}

// move validates event against the bed's status and persists the result
// with a compare-and-set on the prior status.
func (s *AllocationService) move(ctx context.Context, tx domain.Store, bed domain.Bed, event domain.BedEvent) (domain.Bed, error) {
	next, err := s.validator.Apply(ctx, bed.Status, event)
	if err != nil {
		return domain.Bed{}, transitionFailure(event, bed.Status, err)
	}
	if next == bed.Status {
		return bed, nil
	}

	if err := tx.Beds().UpdateStatus(ctx, bed.ID, bed.Status, next); err != nil {
		if errors.Is(err, domain.ErrStaleStatus) {
			return domain.Bed{}, &domain.InvalidStateError{Reason: reasonBedUnavailable, Err: err}
		}
		return domain.Bed{}, fmt.Errorf("updating bed %d: %w", bed.ID, err)
	}

	bed.Status = next
	return bed, nil
}

func transitionFailure(event domain.BedEvent, current domain.BedStatus, err error) error {
	var trErr *domain.TransitionError
	if !errors.As(err, &trErr) {
		return err
	}
	if event == domain.BedEventAssign {
		return &domain.InvalidStateError{Reason: reasonBedUnavailable, Err: err}
	}
	return &domain.InvalidStateError{
		Reason: fmt.Sprintf("Bed cannot leave status %s through %s", current, event),
		Err:    err,
	}
}

func (s *AllocationService) bedAssigned(ctx context.Context, bed domain.Bed, booking domain.Booking) {
	event := domain.NewEvent(domain.EventBedAssigned)
	event.BedID = bed.ID
	event.TentID = bed.TentID
	event.BookingID = booking.ID
	event.PilgrimID = booking.PilgrimID
	event.BedStatus = bed.Status
	publish(ctx, s.publisher, event)

	slog.InfoContext(ctx, "bed assigned",
		"bed_id", bed.ID,
		"pilgrim_id", booking.PilgrimID,
		"booking_id", booking.ID,
	)
}
