package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/neomorfeo/wafd/internal/domain"
)

type agencyRepository struct {
	q querier
}

func (r agencyRepository) Create(ctx context.Context, a domain.Agency) (domain.Agency, error) {
	result, err := r.q.ExecContext(ctx,
		`INSERT INTO agencies (name, code, max_pilgrims, status) VALUES (?, ?, ?, ?)`,
		a.Name, a.Code, a.MaxPilgrims, a.Status,
	)
	if err != nil {
		return domain.Agency{}, fmt.Errorf("inserting agency: %w", err)
	}

	a.ID, err = result.LastInsertId()
	if err != nil {
		return domain.Agency{}, fmt.Errorf("reading agency id: %w", err)
	}
	return a, nil
}

func (r agencyRepository) GetByID(ctx context.Context, id int64) (domain.Agency, error) {
	var a domain.Agency
	err := r.q.QueryRowContext(ctx,
		`SELECT id, name, code, max_pilgrims, status FROM agencies WHERE id = ?`, id,
	).Scan(&a.ID, &a.Name, &a.Code, &a.MaxPilgrims, &a.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Agency{}, notFound("agency", id)
		}
		return domain.Agency{}, fmt.Errorf("scanning agency: %w", err)
	}
	return a, nil
}
