package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/neomorfeo/wafd/internal/domain"
)

type pilgrimRepository struct {
	q querier
}

const pilgrimColumns = `id, registration_number, national_id, passport_number, first_name, last_name,
	gender, age, nationality, phone, status, has_special_needs, special_needs_type,
	special_needs_notes, notes, agency_id, created_at, updated_at`

func (r pilgrimRepository) Create(ctx context.Context, p domain.Pilgrim) (domain.Pilgrim, error) {
	result, err := r.q.ExecContext(ctx,
		`INSERT INTO pilgrims (registration_number, national_id, passport_number, first_name, last_name,
			gender, age, nationality, phone, status, has_special_needs, special_needs_type,
			special_needs_notes, notes, agency_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.RegistrationNumber, p.NationalID, p.PassportNumber, p.FirstName, p.LastName,
		p.Gender, p.Age, p.Nationality, p.Phone, string(p.Status), p.HasSpecialNeeds, p.SpecialNeedsType,
		p.SpecialNeedsNotes, p.Notes, nullableID(p.AgencyID),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		return domain.Pilgrim{}, pilgrimWriteError(err, p)
	}

	p.ID, err = result.LastInsertId()
	if err != nil {
		return domain.Pilgrim{}, fmt.Errorf("reading pilgrim id: %w", err)
	}
	return p, nil
}

func (r pilgrimRepository) GetByID(ctx context.Context, id int64) (domain.Pilgrim, error) {
	return r.get(ctx, `id`, id)
}

func (r pilgrimRepository) GetByNationalID(ctx context.Context, nationalID string) (domain.Pilgrim, error) {
	return r.get(ctx, `national_id`, nationalID)
}

func (r pilgrimRepository) GetByRegistrationNumber(ctx context.Context, regNo string) (domain.Pilgrim, error) {
	return r.get(ctx, `registration_number`, regNo)
}

// get loads one pilgrim by a unique column. column is always a constant.
func (r pilgrimRepository) get(ctx context.Context, column string, key any) (domain.Pilgrim, error) {
	p, err := scanPilgrim(r.q.QueryRowContext(ctx,
		`SELECT `+pilgrimColumns+` FROM pilgrims WHERE `+column+` = ?`, key,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Pilgrim{}, notFound("pilgrim", key)
	}
	return p, err
}

// Update writes every mutable field. The registration number is never
// rewritten.
func (r pilgrimRepository) Update(ctx context.Context, p domain.Pilgrim) error {
	result, err := r.q.ExecContext(ctx,
		`UPDATE pilgrims SET national_id = ?, passport_number = ?, first_name = ?, last_name = ?,
			gender = ?, age = ?, nationality = ?, phone = ?, status = ?, has_special_needs = ?,
			special_needs_type = ?, special_needs_notes = ?, notes = ?, agency_id = ?, updated_at = ?
		 WHERE id = ?`,
		p.NationalID, p.PassportNumber, p.FirstName, p.LastName,
		p.Gender, p.Age, p.Nationality, p.Phone, string(p.Status), p.HasSpecialNeeds,
		p.SpecialNeedsType, p.SpecialNeedsNotes, p.Notes, nullableID(p.AgencyID), formatTime(p.UpdatedAt),
		p.ID,
	)
	if err != nil {
		return pilgrimWriteError(err, p)
	}
	return expectOne(result, "pilgrim", p.ID)
}

func (r pilgrimRepository) List(ctx context.Context, filter domain.PilgrimFilter) ([]domain.Pilgrim, error) {
	query := `SELECT ` + pilgrimColumns + ` FROM pilgrims`
	var (
		conds []string
		args  []any
	)

	if filter.AgencyID != nil {
		conds = append(conds, `agency_id = ?`)
		args = append(args, *filter.AgencyID)
	}
	if filter.Status != nil {
		conds = append(conds, `status = ?`)
		args = append(args, string(*filter.Status))
	}

	query += where(conds) + ` ORDER BY id`
	query, args = paginate(query, args, filter.Limit, filter.Offset)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing pilgrims: %w", err)
	}
	defer rows.Close()

	var pilgrims []domain.Pilgrim
	for rows.Next() {
		p, err := scanPilgrim(rows)
		if err != nil {
			return nil, err
		}
		pilgrims = append(pilgrims, p)
	}

	return pilgrims, rows.Err()
}

func (r pilgrimRepository) CountByAgency(ctx context.Context, agencyID int64) (int, error) {
	var n int
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pilgrims WHERE agency_id = ?`, agencyID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting pilgrims: %w", err)
	}
	return n, nil
}

func (r pilgrimRepository) LatestRegistrationNumber(ctx context.Context) (string, bool, error) {
	var regNo string
	err := r.q.QueryRowContext(ctx,
		`SELECT registration_number FROM pilgrims WHERE registration_number <> '' ORDER BY id DESC LIMIT 1`,
	).Scan(&regNo)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("loading latest registration number: %w", err)
	}
	return regNo, true, nil
}

func scanPilgrim(row scanner) (domain.Pilgrim, error) {
	var (
		p                    domain.Pilgrim
		status               string
		agencyID             sql.NullInt64
		createdAt, updatedAt string
	)

	err := row.Scan(
		&p.ID, &p.RegistrationNumber, &p.NationalID, &p.PassportNumber, &p.FirstName, &p.LastName,
		&p.Gender, &p.Age, &p.Nationality, &p.Phone, &status, &p.HasSpecialNeeds, &p.SpecialNeedsType,
		&p.SpecialNeedsNotes, &p.Notes, &agencyID, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Pilgrim{}, err
		}
		return domain.Pilgrim{}, fmt.Errorf("scanning pilgrim: %w", err)
	}

	p.Status = domain.PilgrimStatus(status)
	p.AgencyID = idPtr(agencyID)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)

	return p, nil
}

func pilgrimWriteError(err error, p domain.Pilgrim) error {
	column, ok := uniqueViolation(err)
	if !ok {
		return fmt.Errorf("writing pilgrim: %w", err)
	}

	value := p.NationalID
	if column == "registration_number" {
		value = p.RegistrationNumber
	}
	return &domain.DuplicateError{Field: column, Value: value}
}
