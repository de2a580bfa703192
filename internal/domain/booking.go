package domain

import "time"

// BookingStatus is the state of a pilgrim-to-bed booking.
type BookingStatus string

const (
	BookingBooked    BookingStatus = "Booked"
	BookingCancelled BookingStatus = "Cancelled"
)

// Booking links one pilgrim to one bed. A pilgrim keeps a single booking
// record; reassignment moves it to another bed and vacating cancels it.
// BedID is zero once the bed it pointed at has been removed; the booking
// itself is kept as history.
type Booking struct {
	ID        int64
	PilgrimID int64
	BedID     int64
	Status    BookingStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Active reports whether the booking currently holds its bed.
func (b Booking) Active() bool {
	return b.Status == BookingBooked
}
