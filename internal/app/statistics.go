package app

import (
	"context"
	"fmt"

	"github.com/neomorfeo/wafd/internal/domain"
)

// StatisticsService derives read-only reports from live pilgrim and bed state.
type StatisticsService struct {
	store domain.Store
}

// NewStatisticsService creates a service over the given store.
func NewStatisticsService(store domain.Store) *StatisticsService {
	return &StatisticsService{store: store}
}

// Pilgrims reports on the pilgrims visible to the caller.
func (s *StatisticsService) Pilgrims(ctx context.Context, caller domain.Caller) (domain.Statistics, error) {
	var filter domain.PilgrimFilter
	if agencyID, ok := caller.AgencyScope(); ok {
		filter.AgencyID = &agencyID
	}

	pilgrims, err := s.store.Pilgrims().List(ctx, filter)
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("listing pilgrims: %w", err)
	}
	return domain.ComputeStatistics(pilgrims), nil
}

// Occupancy counts beds by status, optionally for one tent. Supervisors only
// count beds in their agency's tents.
func (s *StatisticsService) Occupancy(ctx context.Context, caller domain.Caller, tentID *int64) (domain.BedOccupancy, error) {
	filter := domain.BedFilter{TentID: tentID}
	if agencyID, ok := caller.AgencyScope(); ok {
		filter.AgencyID = &agencyID
	}

	counts, err := s.store.Beds().CountByStatus(ctx, filter)
	if err != nil {
		return domain.BedOccupancy{}, fmt.Errorf("counting beds: %w", err)
	}
	return domain.NewBedOccupancy(counts), nil
}
