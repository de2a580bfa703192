package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/neomorfeo/wafd/internal/domain"
)

type bedRepository struct {
	q querier
}

func (r bedRepository) Create(ctx context.Context, b domain.Bed) (domain.Bed, error) {
	result, err := r.q.ExecContext(ctx,
		`INSERT INTO beds (tent_id, status) VALUES (?, ?)`,
		b.TentID, string(b.Status),
	)
	if err != nil {
		return domain.Bed{}, fmt.Errorf("inserting bed: %w", err)
	}

	b.ID, err = result.LastInsertId()
	if err != nil {
		return domain.Bed{}, fmt.Errorf("reading bed id: %w", err)
	}
	return b, nil
}

func (r bedRepository) GetByID(ctx context.Context, id int64) (domain.Bed, error) {
	var (
		b      domain.Bed
		status string
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT id, tent_id, status FROM beds WHERE id = ?`, id,
	).Scan(&b.ID, &b.TentID, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Bed{}, notFound("bed", id)
		}
		return domain.Bed{}, fmt.Errorf("scanning bed: %w", err)
	}

	b.Status = domain.BedStatus(status)
	return b, nil
}

func (r bedRepository) ListByTent(ctx context.Context, tentID int64) ([]domain.Bed, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, tent_id, status FROM beds WHERE tent_id = ? ORDER BY id`, tentID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing beds: %w", err)
	}
	defer rows.Close()

	var beds []domain.Bed
	for rows.Next() {
		var (
			b      domain.Bed
			status string
		)
		if err := rows.Scan(&b.ID, &b.TentID, &status); err != nil {
			return nil, fmt.Errorf("scanning bed row: %w", err)
		}
		b.Status = domain.BedStatus(status)
		beds = append(beds, b)
	}

	return beds, rows.Err()
}

// UpdateStatus is a compare-and-set on the status column.
func (r bedRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.BedStatus) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE beds SET status = ? WHERE id = ? AND status = ?`,
		string(to), id, string(from),
	)
	if err != nil {
		return fmt.Errorf("updating bed status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 1 {
		return nil
	}

	var exists int
	err = r.q.QueryRowContext(ctx, `SELECT 1 FROM beds WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound("bed", id)
	}
	if err != nil {
		return fmt.Errorf("checking bed: %w", err)
	}
	return domain.ErrStaleStatus
}

func (r bedRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM beds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting bed: %w", err)
	}
	return expectOne(result, "bed", id)
}

func (r bedRepository) CountByStatus(ctx context.Context, filter domain.BedFilter) (map[domain.BedStatus]int, error) {
	query := `SELECT b.status, COUNT(*) FROM beds b JOIN tents t ON t.id = b.tent_id`
	var (
		conds []string
		args  []any
	)

	if filter.TentID != nil {
		conds = append(conds, `b.tent_id = ?`)
		args = append(args, *filter.TentID)
	}
	if filter.AgencyID != nil {
		conds = append(conds, `t.agency_id = ?`)
		args = append(args, *filter.AgencyID)
	}

	query += where(conds) + ` GROUP BY b.status`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("counting beds: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.BedStatus]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning bed count: %w", err)
		}
		counts[domain.BedStatus(status)] = n
	}

	return counts, rows.Err()
}
