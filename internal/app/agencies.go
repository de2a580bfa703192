package app

import (
	"context"
	"fmt"

	"github.com/neomorfeo/wafd/internal/domain"
)

// AgencyService exposes the minimum agency operations the allocation flows
// depend on.
type AgencyService struct {
	store domain.Store
}

// NewAgencyService creates a service over the given store.
func NewAgencyService(store domain.Store) *AgencyService {
	return &AgencyService{store: store}
}

// Create persists an agency.
func (s *AgencyService) Create(ctx context.Context, caller domain.Caller, agency domain.Agency) (domain.Agency, error) {
	if caller.Role != domain.RoleAdmin {
		return domain.Agency{}, domain.NotPermitted(fmt.Sprintf("role %q is not allowed to create agencies", caller.Role))
	}
	if agency.Name == "" {
		return domain.Agency{}, &domain.ValidationError{Field: "name", Msg: "must not be empty"}
	}
	if agency.MaxPilgrims < 0 {
		return domain.Agency{}, &domain.ValidationError{Field: "max_pilgrims", Msg: "must not be negative"}
	}
	if agency.Status == "" {
		agency.Status = "active"
	}
	return s.store.Agencies().Create(ctx, agency)
}

// Get returns an agency by id.
func (s *AgencyService) Get(ctx context.Context, id int64) (domain.Agency, error) {
	return s.store.Agencies().GetByID(ctx, id)
}
