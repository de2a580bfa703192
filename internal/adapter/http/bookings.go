package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/wafd/internal/app"
	"github.com/neomorfeo/wafd/internal/domain"
)

// BookingResponse is the API representation of a booking.
type BookingResponse struct {
	ID        int64  `json:"id" doc:"Unique identifier"`
	PilgrimID int64  `json:"pilgrim_id" doc:"Pilgrim holding the booking"`
	BedID     int64  `json:"bed_id" doc:"Bed the booking points at; 0 once that bed was removed"`
	Status    string `json:"status" doc:"Booking status" enum:"Booked,Cancelled"`
	CreatedAt string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toBookingResponse(b domain.Booking) BookingResponse {
	return BookingResponse{
		ID:        b.ID,
		PilgrimID: b.PilgrimID,
		BedID:     b.BedID,
		Status:    string(b.Status),
		CreatedAt: formatTime(b.CreatedAt),
		UpdatedAt: formatTime(b.UpdatedAt),
	}
}

// --- Book By Availability ---

type BookInput struct {
	Body struct {
		Identifier string `json:"identifier" minLength:"1" doc:"Pilgrim id, national id or registration number"`
	}
}

// --- List Bookings ---

type ListBookingsInput struct {
	Status    string `query:"status" required:"false" enum:"Booked,Cancelled" doc:"Filter by status"`
	PilgrimID int64  `query:"pilgrim_id" required:"false" doc:"Filter by pilgrim"`
	Limit     int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset    int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListBookingsOutput struct {
	Body []BookingResponse
}

func registerBookings(api huma.API, alloc *app.AllocationService, ledger *app.BookingLedger) {
	huma.Register(api, huma.Operation{
		OperationID: "book-by-availability",
		Method:      http.MethodPost,
		Path:        "/api/v1/bookings",
		Summary:     "Book the first available bed in the pilgrim's agency",
		Tags:        []string{"Bookings"},
	}, func(ctx context.Context, input *BookInput) (*BedOutput, error) {
		bed, err := alloc.BookByAvailability(ctx, input.Body.Identifier)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BedOutput{Body: toBedResponse(bed)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-bookings",
		Method:      http.MethodGet,
		Path:        "/api/v1/bookings",
		Summary:     "List bookings",
		Tags:        []string{"Bookings"},
	}, func(ctx context.Context, input *ListBookingsInput) (*ListBookingsOutput, error) {
		filter := domain.BookingFilter{
			PilgrimID: optionalID(input.PilgrimID),
			Limit:     input.Limit,
			Offset:    input.Offset,
		}
		if input.Status != "" {
			s := domain.BookingStatus(input.Status)
			filter.Status = &s
		}

		bookings, err := ledger.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]BookingResponse, len(bookings))
		for i, b := range bookings {
			resp[i] = toBookingResponse(b)
		}
		return &ListBookingsOutput{Body: resp}, nil
	})
}
