package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/neomorfeo/wafd/internal/domain"
)

type bookingRepository struct {
	q querier
}

const bookingColumns = `id, pilgrim_id, bed_id, status, created_at, updated_at`

func (r bookingRepository) Create(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	result, err := r.q.ExecContext(ctx,
		`INSERT INTO bookings (pilgrim_id, bed_id, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		b.PilgrimID, nullableID(b.BedID), string(b.Status),
		formatTime(b.CreatedAt), formatTime(b.UpdatedAt),
	)
	if err != nil {
		return domain.Booking{}, bookingWriteError(err, b)
	}

	b.ID, err = result.LastInsertId()
	if err != nil {
		return domain.Booking{}, fmt.Errorf("reading booking id: %w", err)
	}
	return b, nil
}

func (r bookingRepository) Update(ctx context.Context, b domain.Booking) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE bookings SET bed_id = ?, status = ?, updated_at = ? WHERE id = ?`,
		nullableID(b.BedID), string(b.Status), formatTime(b.UpdatedAt), b.ID,
	)
	if err != nil {
		return bookingWriteError(err, b)
	}
	return expectOne(result, "booking", b.ID)
}

func (r bookingRepository) GetByID(ctx context.Context, id int64) (domain.Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
}

func (r bookingRepository) GetByPilgrim(ctx context.Context, pilgrimID int64) (domain.Booking, error) {
	return r.get(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE pilgrim_id = ?`, pilgrimID)
}

func (r bookingRepository) GetActiveByBed(ctx context.Context, bedID int64) (domain.Booking, error) {
	return r.get(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE bed_id = ? AND status = ?`,
		bedID, string(domain.BookingBooked),
	)
}

func (r bookingRepository) get(ctx context.Context, query string, key int64, args ...any) (domain.Booking, error) {
	b, err := scanBooking(r.q.QueryRowContext(ctx, query, append([]any{key}, args...)...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Booking{}, notFound("booking", key)
	}
	return b, err
}

func (r bookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings`
	var (
		conds []string
		args  []any
	)

	if filter.Status != nil {
		conds = append(conds, `status = ?`)
		args = append(args, string(*filter.Status))
	}
	if filter.PilgrimID != nil {
		conds = append(conds, `pilgrim_id = ?`)
		args = append(args, *filter.PilgrimID)
	}

	query += where(conds) + ` ORDER BY id`
	query, args = paginate(query, args, filter.Limit, filter.Offset)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing bookings: %w", err)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}

func scanBooking(row scanner) (domain.Booking, error) {
	var (
		b                    domain.Booking
		bedID                sql.NullInt64
		status               string
		createdAt, updatedAt string
	)

	err := row.Scan(&b.ID, &b.PilgrimID, &bedID, &status, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Booking{}, err
		}
		return domain.Booking{}, fmt.Errorf("scanning booking: %w", err)
	}

	b.BedID = bedID.Int64
	b.Status = domain.BookingStatus(status)
	b.CreatedAt = parseTime(createdAt)
	b.UpdatedAt = parseTime(updatedAt)

	return b, nil
}

// nullableID stores a zero bed id as NULL; removing a bed detaches the
// bookings that referenced it.
func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func bookingWriteError(err error, b domain.Booking) error {
	column, ok := uniqueViolation(err)
	switch {
	case ok && column == "pilgrim_id":
		return &domain.DuplicateError{Field: column, Value: strconv.FormatInt(b.PilgrimID, 10)}
	case ok && column == "bed_id":
		return &domain.InvalidStateError{Reason: "Bed is not available", Err: err}
	}
	return fmt.Errorf("writing booking: %w", err)
}
