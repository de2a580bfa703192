package app_test

import (
	"context"
	"testing"

	"github.com/neomorfeo/wafd/internal/app"
	"github.com/neomorfeo/wafd/internal/domain"
)

type fixture struct {
	store  *memStore
	pub    *mockPublisher
	tents  *app.TentService
	alloc  *app.AllocationService
	stats  *app.StatisticsService
	ledger *app.BookingLedger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	pub := &mockPublisher{}
	return &fixture{
		store:  store,
		pub:    pub,
		tents:  app.NewTentService(store, pub),
		alloc:  app.NewAllocationService(store, tableValidator{}, pub),
		stats:  app.NewStatisticsService(store),
		ledger: app.NewBookingLedger(store),
	}
}

func (f *fixture) mustTent(t *testing.T, capacity int, agencyID *int64) app.TentDetails {
	t.Helper()
	tent := domain.NewTent("Hall", "H1", domain.TentMale, capacity, "Mina", agencyID)
	details, err := f.tents.Create(context.Background(), tent)
	if err != nil {
		t.Fatalf("mustTent failed: %v", err)
	}
	return details
}

func (f *fixture) mustAgency(t *testing.T, maxPilgrims int) domain.Agency {
	t.Helper()
	a, err := f.store.Agencies().Create(context.Background(), domain.Agency{Name: "Group", Code: "G", MaxPilgrims: maxPilgrims})
	if err != nil {
		t.Fatalf("mustAgency failed: %v", err)
	}
	return a
}

func (f *fixture) mustPilgrim(t *testing.T, p domain.Pilgrim) domain.Pilgrim {
	t.Helper()
	created, err := f.store.Pilgrims().Create(context.Background(), p)
	if err != nil {
		t.Fatalf("mustPilgrim failed: %v", err)
	}
	return created
}

func (f *fixture) bed(t *testing.T, id int64) domain.Bed {
	t.Helper()
	b, err := f.store.Beds().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("bed %d: %v", id, err)
	}
	return b
}

func (f *fixture) bookingFor(t *testing.T, pilgrimID int64) domain.Booking {
	t.Helper()
	b, err := f.store.Bookings().GetByPilgrim(context.Background(), pilgrimID)
	if err != nil {
		t.Fatalf("booking for pilgrim %d: %v", pilgrimID, err)
	}
	return b
}

func ptr[T any](v T) *T { return &v }
