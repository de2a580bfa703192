package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/neomorfeo/wafd/internal/domain"
)

// PilgrimService registers pilgrims and groups them into agencies.
type PilgrimService struct {
	store     domain.Store
	numbers   *RegistrationNumberGenerator
	publisher domain.EventPublisher

	// registerMu serializes registration number generation with the insert
	// that consumes it.
	registerMu sync.Mutex
}

// NewPilgrimService creates a service with the given adapters.
func NewPilgrimService(store domain.Store, numbers *RegistrationNumberGenerator, publisher domain.EventPublisher) *PilgrimService {
	return &PilgrimService{
		store:     store,
		numbers:   numbers,
		publisher: publisher,
	}
}

// PilgrimInput holds the fields supplied when registering a pilgrim.
type PilgrimInput struct {
	NationalID        string
	PassportNumber    string
	FirstName         string
	LastName          string
	Gender            string
	Age               int
	Nationality       string
	Phone             string
	Status            string
	HasSpecialNeeds   bool
	SpecialNeedsType  string
	SpecialNeedsNotes string
	Notes             string
	AgencyID          *int64
}

// Register creates a pilgrim with a freshly generated registration number.
// Supervisors always register into their own agency.
func (s *PilgrimService) Register(ctx context.Context, caller domain.Caller, in PilgrimInput) (domain.Pilgrim, error) {
	if !caller.CanManagePilgrims() {
		return domain.Pilgrim{}, domain.NotPermitted(fmt.Sprintf("role %q is not allowed to register pilgrims", caller.Role))
	}
	if in.Age < 0 {
		return domain.Pilgrim{}, &domain.ValidationError{Field: "age", Msg: "must not be negative"}
	}

	agencyID := in.AgencyID
	if scoped, ok := caller.AgencyScope(); ok {
		agencyID = &scoped
	}

	now := time.Now().UTC()
	pilgrim := domain.Pilgrim{
		PassportNumber:    strings.TrimSpace(in.PassportNumber),
		FirstName:         strings.TrimSpace(in.FirstName),
		LastName:          strings.TrimSpace(in.LastName),
		Gender:            domain.NormalizeGender(in.Gender),
		Age:               in.Age,
		Nationality:       strings.TrimSpace(in.Nationality),
		Phone:             strings.TrimSpace(in.Phone),
		Status:            domain.NormalizePilgrimStatus(in.Status),
		HasSpecialNeeds:   in.HasSpecialNeeds,
		SpecialNeedsType:  in.SpecialNeedsType,
		SpecialNeedsNotes: in.SpecialNeedsNotes,
		Notes:             in.Notes,
		AgencyID:          agencyID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	s.registerMu.Lock()
	defer s.registerMu.Unlock()

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		if agencyID != nil {
			if err := ensureRoom(ctx, tx, *agencyID); err != nil {
				return err
			}
		}

		regNo, err := s.numbers.Next(ctx, tx.Pilgrims())
		if err != nil {
			return err
		}
		pilgrim.RegistrationNumber = regNo
		pilgrim.NationalID = nationalIDOrFallback(in, regNo)

		pilgrim, err = tx.Pilgrims().Create(ctx, pilgrim)
		return err
	})
	if err != nil {
		return domain.Pilgrim{}, err
	}

	event := domain.NewEvent(domain.EventPilgrimRegistered)
	event.PilgrimID = pilgrim.ID
	if pilgrim.AgencyID != nil {
		event.AgencyID = *pilgrim.AgencyID
	}
	publish(ctx, s.publisher, event)

	slog.InfoContext(ctx, "pilgrim registered",
		"pilgrim_id", pilgrim.ID,
		"registration_number", pilgrim.RegistrationNumber,
	)
	return pilgrim, nil
}

// Get returns a pilgrim visible to the caller.
func (s *PilgrimService) Get(ctx context.Context, caller domain.Caller, id int64) (domain.Pilgrim, error) {
	p, err := s.store.Pilgrims().GetByID(ctx, id)
	if err != nil {
		return domain.Pilgrim{}, err
	}
	if scoped, ok := caller.AgencyScope(); ok && (p.AgencyID == nil || *p.AgencyID != scoped) {
		return domain.Pilgrim{}, &domain.NotFoundError{Resource: "pilgrim", Key: fmt.Sprint(id)}
	}
	return p, nil
}

// List returns pilgrims visible to the caller.
func (s *PilgrimService) List(ctx context.Context, caller domain.Caller, filter domain.PilgrimFilter) ([]domain.Pilgrim, error) {
	if scoped, ok := caller.AgencyScope(); ok {
		filter.AgencyID = &scoped
	}
	return s.store.Pilgrims().List(ctx, filter)
}

// SetStatus records a pilgrim's arrival, departure or no-show.
func (s *PilgrimService) SetStatus(ctx context.Context, caller domain.Caller, id int64, status string) (domain.Pilgrim, error) {
	if caller.Role != domain.RoleAdmin {
		return domain.Pilgrim{}, domain.NotPermitted(fmt.Sprintf("role %q is not allowed to edit pilgrims", caller.Role))
	}

	var pilgrim domain.Pilgrim
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		p, err := tx.Pilgrims().GetByID(ctx, id)
		if err != nil {
			return err
		}
		p.Status = domain.NormalizePilgrimStatus(status)
		p.UpdatedAt = time.Now().UTC()
		if err := tx.Pilgrims().Update(ctx, p); err != nil {
			return fmt.Errorf("updating pilgrim %d: %w", id, err)
		}
		pilgrim = p
		return nil
	})
	return pilgrim, err
}

// AssignToAgency moves a pilgrim into an agency, refusing when the agency
// already holds its maximum number of pilgrims.
func (s *PilgrimService) AssignToAgency(ctx context.Context, caller domain.Caller, pilgrimID, agencyID int64) (domain.Pilgrim, error) {
	if !caller.CanManagePilgrims() {
		return domain.Pilgrim{}, domain.NotPermitted(fmt.Sprintf("role %q is not allowed to group pilgrims", caller.Role))
	}
	if scoped, ok := caller.AgencyScope(); ok && scoped != agencyID {
		return domain.Pilgrim{}, domain.NotPermitted("Supervisors can only group pilgrims into their own agency")
	}

	var pilgrim domain.Pilgrim
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		p, err := tx.Pilgrims().GetByID(ctx, pilgrimID)
		if err != nil {
			return err
		}
		if p.AgencyID != nil && *p.AgencyID == agencyID {
			pilgrim = p
			return nil
		}
		if err := ensureRoom(ctx, tx, agencyID); err != nil {
			return err
		}

		p.AgencyID = &agencyID
		p.UpdatedAt = time.Now().UTC()
		if err := tx.Pilgrims().Update(ctx, p); err != nil {
			return fmt.Errorf("updating pilgrim %d: %w", pilgrimID, err)
		}
		pilgrim = p
		return nil
	})
	if err != nil {
		return domain.Pilgrim{}, err
	}

	event := domain.NewEvent(domain.EventPilgrimGrouped)
	event.PilgrimID = pilgrim.ID
	event.AgencyID = agencyID
	publish(ctx, s.publisher, event)
	return pilgrim, nil
}

// ensureRoom fails with "Group is full" when the agency is at its ceiling.
func ensureRoom(ctx context.Context, tx domain.Store, agencyID int64) error {
	agency, err := tx.Agencies().GetByID(ctx, agencyID)
	if err != nil {
		return err
	}
	members, err := tx.Pilgrims().CountByAgency(ctx, agencyID)
	if err != nil {
		return fmt.Errorf("counting pilgrims of agency %d: %w", agencyID, err)
	}
	if agency.Full(members) {
		return &domain.InvalidStateError{Reason: "Group is full"}
	}
	return nil
}

// nationalIDOrFallback prefers the national id, then the passport number,
// then the registration number.
func nationalIDOrFallback(in PilgrimInput, regNo string) string {
	if v := strings.TrimSpace(in.NationalID); v != "" {
		return v
	}
	if v := strings.TrimSpace(in.PassportNumber); v != "" {
		return v
	}
	return regNo
}
