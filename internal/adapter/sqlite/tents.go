package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/neomorfeo/wafd/internal/domain"
)

type tentRepository struct {
	q querier
}

const tentColumns = `id, name, code, type, capacity, location, agency_id, created_at, updated_at`

func (r tentRepository) Create(ctx context.Context, t domain.Tent) (domain.Tent, error) {
	result, err := r.q.ExecContext(ctx,
		`INSERT INTO tents (name, code, type, capacity, location, agency_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Name, t.Code, string(t.Type), t.Capacity, t.Location, nullableID(t.AgencyID),
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	if err != nil {
		return domain.Tent{}, fmt.Errorf("inserting tent: %w", err)
	}

	t.ID, err = result.LastInsertId()
	if err != nil {
		return domain.Tent{}, fmt.Errorf("reading tent id: %w", err)
	}
	return t, nil
}

func (r tentRepository) GetByID(ctx context.Context, id int64) (domain.Tent, error) {
	t, err := scanTent(r.q.QueryRowContext(ctx,
		`SELECT `+tentColumns+` FROM tents WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Tent{}, notFound("tent", id)
	}
	return t, err
}

func (r tentRepository) List(ctx context.Context, filter domain.TentFilter) ([]domain.Tent, error) {
	query := `SELECT ` + tentColumns + ` FROM tents`
	var args []any

	if filter.AgencyID != nil {
		query += ` WHERE agency_id = ?`
		args = append(args, *filter.AgencyID)
	}

	query += ` ORDER BY id`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tents: %w", err)
	}
	defer rows.Close()

	var tents []domain.Tent
	for rows.Next() {
		t, err := scanTent(rows)
		if err != nil {
			return nil, err
		}
		tents = append(tents, t)
	}

	return tents, rows.Err()
}

func (r tentRepository) Update(ctx context.Context, t domain.Tent) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE tents SET name = ?, code = ?, type = ?, capacity = ?, location = ?, agency_id = ?, updated_at = ?
		 WHERE id = ?`,
		t.Name, t.Code, string(t.Type), t.Capacity, t.Location, nullableID(t.AgencyID),
		time.Now().UTC().Format(timeFormat), t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating tent: %w", err)
	}
	return expectOne(result, "tent", t.ID)
}

func (r tentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM tents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting tent: %w", err)
	}
	return expectOne(result, "tent", id)
}

func scanTent(row scanner) (domain.Tent, error) {
	var (
		t                    domain.Tent
		typ                  string
		agencyID             sql.NullInt64
		createdAt, updatedAt string
	)

	err := row.Scan(&t.ID, &t.Name, &t.Code, &typ, &t.Capacity, &t.Location, &agencyID, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Tent{}, err
		}
		return domain.Tent{}, fmt.Errorf("scanning tent: %w", err)
	}

	t.Type = domain.TentType(typ)
	t.AgencyID = idPtr(agencyID)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)

	return t, nil
}

// expectOne turns a zero-row update or delete into a not-found error.
func expectOne(result sql.Result, resource string, id int64) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return notFound(resource, id)
	}
	return nil
}
