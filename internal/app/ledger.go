package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/neomorfeo/wafd/internal/domain"
)

// BookingLedger records which pilgrim holds which bed. It works against
// whatever Store it is given, so allocation flows build one per transaction.
type BookingLedger struct {
	store domain.Store
}

// NewBookingLedger creates a ledger over the given store.
func NewBookingLedger(store domain.Store) *BookingLedger {
	return &BookingLedger{store: store}
}

// ActiveForPilgrim returns the pilgrim's booking if it currently holds a bed.
func (l *BookingLedger) ActiveForPilgrim(ctx context.Context, pilgrimID int64) (domain.Booking, bool, error) {
	booking, err := l.store.Bookings().GetByPilgrim(ctx, pilgrimID)
	ok, err := found(err)
	if err != nil || !ok || !booking.Active() {
		return domain.Booking{}, false, err
	}
	return booking, true, nil
}

// ActiveForBed returns the booking currently holding the bed, if any.
func (l *BookingLedger) ActiveForBed(ctx context.Context, bedID int64) (domain.Booking, bool, error) {
	booking, err := l.store.Bookings().GetActiveByBed(ctx, bedID)
	ok, err := found(err)
	if err != nil || !ok {
		return domain.Booking{}, false, err
	}
	return booking, true, nil
}

// RecordAssignment points the pilgrim's booking at bedID with status Booked.
// A pilgrim without a booking gets a new one; otherwise the existing record
// is reused. When that record was still holding another bed, the id of that
// bed is returned as previousBedID so the caller can release it.
func (l *BookingLedger) RecordAssignment(ctx context.Context, pilgrimID, bedID int64) (booking domain.Booking, previousBedID int64, err error) {
	existing, err := l.store.Bookings().GetByPilgrim(ctx, pilgrimID)
	ok, err := found(err)
	if err != nil {
		return domain.Booking{}, 0, fmt.Errorf("loading booking for pilgrim %d: %w", pilgrimID, err)
	}

	now := time.Now().UTC()

	if !ok {
		created, err := l.store.Bookings().Create(ctx, domain.Booking{
			PilgrimID: pilgrimID,
			BedID:     bedID,
			Status:    domain.BookingBooked,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return domain.Booking{}, 0, fmt.Errorf("creating booking: %w", err)
		}
		return created, 0, nil
	}

	if existing.Active() && existing.BedID != bedID {
		previousBedID = existing.BedID
	}

	existing.BedID = bedID
	existing.Status = domain.BookingBooked
	existing.UpdatedAt = now

	if err := l.store.Bookings().Update(ctx, existing); err != nil {
		return domain.Booking{}, 0, fmt.Errorf("updating booking %d: %w", existing.ID, err)
	}
	return existing, previousBedID, nil
}

// Cancel marks the booking Cancelled. The record is kept as history.
func (l *BookingLedger) Cancel(ctx context.Context, booking domain.Booking) (domain.Booking, error) {
	booking.Status = domain.BookingCancelled
	booking.UpdatedAt = time.Now().UTC()

	if err := l.store.Bookings().Update(ctx, booking); err != nil {
		return domain.Booking{}, fmt.Errorf("cancelling booking %d: %w", booking.ID, err)
	}
	return booking, nil
}

// List returns bookings matching the filter.
func (l *BookingLedger) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	return l.store.Bookings().List(ctx, filter)
}

// pilgrimLookup tries one alternate key. It reports ok == false on a miss.
type pilgrimLookup func(ctx context.Context, pilgrims domain.PilgrimRepository, identifier string) (domain.Pilgrim, bool, error)

// pilgrimLookups is tried in order; the first hit wins.
var pilgrimLookups = []pilgrimLookup{
	lookupByID,
	lookupByNationalID,
	lookupByRegistrationNumber,
}

// ResolvePilgrim finds a pilgrim by numeric id, national id or registration
// number, in that order.
func (l *BookingLedger) ResolvePilgrim(ctx context.Context, identifier string) (domain.Pilgrim, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return domain.Pilgrim{}, &domain.ValidationError{Field: "identifier", Msg: "must not be empty"}
	}

	for _, lookup := range pilgrimLookups {
		p, ok, err := lookup(ctx, l.store.Pilgrims(), identifier)
		if err != nil {
			return domain.Pilgrim{}, fmt.Errorf("resolving pilgrim %q: %w", identifier, err)
		}
		if ok {
			return p, nil
		}
	}

	return domain.Pilgrim{}, &domain.NotFoundError{Resource: "pilgrim", Key: identifier}
}

func lookupByID(ctx context.Context, pilgrims domain.PilgrimRepository, identifier string) (domain.Pilgrim, bool, error) {
	id, err := strconv.ParseInt(identifier, 10, 64)
	if err != nil {
		return domain.Pilgrim{}, false, nil
	}
	p, err := pilgrims.GetByID(ctx, id)
	ok, err := found(err)
	return p, ok, err
}

func lookupByNationalID(ctx context.Context, pilgrims domain.PilgrimRepository, identifier string) (domain.Pilgrim, bool, error) {
	p, err := pilgrims.GetByNationalID(ctx, identifier)
	ok, err := found(err)
	return p, ok, err
}

func lookupByRegistrationNumber(ctx context.Context, pilgrims domain.PilgrimRepository, identifier string) (domain.Pilgrim, bool, error) {
	p, err := pilgrims.GetByRegistrationNumber(ctx, identifier)
	ok, err := found(err)
	return p, ok, err
}

// found turns a not-found error into ok == false.
func found(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, err
}
