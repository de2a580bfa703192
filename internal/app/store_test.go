package app_test

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"github.com/neomorfeo/wafd/internal/domain"
)

// --- In-memory store ---

type memData struct {
	nextID   int64
	tents    map[int64]domain.Tent
	beds     map[int64]domain.Bed
	bookings map[int64]domain.Booking
	pilgrims map[int64]domain.Pilgrim
	agencies map[int64]domain.Agency
}

func (d *memData) clone() *memData {
	return &memData{
		nextID:   d.nextID,
		tents:    maps.Clone(d.tents),
		beds:     maps.Clone(d.beds),
		bookings: maps.Clone(d.bookings),
		pilgrims: maps.Clone(d.pilgrims),
		agencies: maps.Clone(d.agencies),
	}
}

// memStore is a Store whose transactions snapshot the maps and restore them
// when fn fails.
type memStore struct {
	data *memData

	// failBookingWrites makes every booking Create/Update fail.
	failBookingWrites error
	txCount           int
}

func newMemStore() *memStore {
	return &memStore{data: &memData{
		tents:    make(map[int64]domain.Tent),
		beds:     make(map[int64]domain.Bed),
		bookings: make(map[int64]domain.Booking),
		pilgrims: make(map[int64]domain.Pilgrim),
		agencies: make(map[int64]domain.Agency),
	}}
}

func (m *memStore) id() int64 {
	m.data.nextID++
	return m.data.nextID
}

func (m *memStore) Tents() domain.TentRepository       { return memTents{m} }
func (m *memStore) Beds() domain.BedRepository         { return memBeds{m} }
func (m *memStore) Bookings() domain.BookingRepository { return memBookings{m} }
func (m *memStore) Pilgrims() domain.PilgrimRepository { return memPilgrims{m} }
func (m *memStore) Agencies() domain.AgencyRepository  { return memAgencies{m} }

func (m *memStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Store) error) error {
	m.txCount++
	snapshot := m.data.clone()
	if err := fn(ctx, m); err != nil {
		m.data = snapshot
		return err
	}
	return nil
}

// removeBed deletes a bed and detaches the bookings that pointed at it,
// matching the ON DELETE SET NULL on bookings.bed_id.
func (m *memStore) removeBed(id int64) {
	delete(m.data.beds, id)
	for bookingID, b := range m.data.bookings {
		if b.BedID == id {
			b.BedID = 0
			m.data.bookings[bookingID] = b
		}
	}
}

func notFound(resource string, key any) error {
	return &domain.NotFoundError{Resource: resource, Key: fmt.Sprint(key)}
}

func sortedKeys[V any](in map[int64]V) []int64 {
	return slices.Sorted(maps.Keys(in))
}

type memTents struct{ m *memStore }

func (r memTents) Create(_ context.Context, t domain.Tent) (domain.Tent, error) {
	t.ID = r.m.id()
	r.m.data.tents[t.ID] = t
	return t, nil
}

func (r memTents) GetByID(_ context.Context, id int64) (domain.Tent, error) {
	t, ok := r.m.data.tents[id]
	if !ok {
		return domain.Tent{}, notFound("tent", id)
	}
	return t, nil
}

func (r memTents) List(_ context.Context, f domain.TentFilter) ([]domain.Tent, error) {
	var out []domain.Tent
	for _, id := range sortedKeys(r.m.data.tents) {
		t := r.m.data.tents[id]
		if f.AgencyID != nil && (t.AgencyID == nil || *t.AgencyID != *f.AgencyID) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (r memTents) Update(_ context.Context, t domain.Tent) error {
	if _, ok := r.m.data.tents[t.ID]; !ok {
		return notFound("tent", t.ID)
	}
	r.m.data.tents[t.ID] = t
	return nil
}

func (r memTents) Delete(_ context.Context, id int64) error {
	if _, ok := r.m.data.tents[id]; !ok {
		return notFound("tent", id)
	}
	delete(r.m.data.tents, id)
	for bedID, b := range r.m.data.beds {
		if b.TentID == id {
			r.m.removeBed(bedID)
		}
	}
	return nil
}

type memBeds struct{ m *memStore }

func (r memBeds) Create(_ context.Context, b domain.Bed) (domain.Bed, error) {
	b.ID = r.m.id()
	r.m.data.beds[b.ID] = b
	return b, nil
}

func (r memBeds) GetByID(_ context.Context, id int64) (domain.Bed, error) {
	b, ok := r.m.data.beds[id]
	if !ok {
		return domain.Bed{}, notFound("bed", id)
	}
	return b, nil
}

func (r memBeds) ListByTent(_ context.Context, tentID int64) ([]domain.Bed, error) {
	var out []domain.Bed
	for _, id := range sortedKeys(r.m.data.beds) {
		if b := r.m.data.beds[id]; b.TentID == tentID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r memBeds) UpdateStatus(_ context.Context, id int64, from, to domain.BedStatus) error {
	b, ok := r.m.data.beds[id]
	if !ok {
		return notFound("bed", id)
	}
	if b.Status != from {
		return domain.ErrStaleStatus
	}
	b.Status = to
	r.m.data.beds[id] = b
	return nil
}

func (r memBeds) Delete(_ context.Context, id int64) error {
	if _, ok := r.m.data.beds[id]; !ok {
		return notFound("bed", id)
	}
	r.m.removeBed(id)
	return nil
}

func (r memBeds) CountByStatus(_ context.Context, f domain.BedFilter) (map[domain.BedStatus]int, error) {
	out := make(map[domain.BedStatus]int)
	for _, b := range r.m.data.beds {
		if f.TentID != nil && b.TentID != *f.TentID {
			continue
		}
		if f.AgencyID != nil {
			t := r.m.data.tents[b.TentID]
			if t.AgencyID == nil || *t.AgencyID != *f.AgencyID {
				continue
			}
		}
		out[b.Status]++
	}
	return out, nil
}

type memBookings struct{ m *memStore }

func (r memBookings) Create(_ context.Context, b domain.Booking) (domain.Booking, error) {
	if r.m.failBookingWrites != nil {
		return domain.Booking{}, r.m.failBookingWrites
	}
	b.ID = r.m.id()
	r.m.data.bookings[b.ID] = b
	return b, nil
}

func (r memBookings) Update(_ context.Context, b domain.Booking) error {
	if r.m.failBookingWrites != nil {
		return r.m.failBookingWrites
	}
	if _, ok := r.m.data.bookings[b.ID]; !ok {
		return notFound("booking", b.ID)
	}
	r.m.data.bookings[b.ID] = b
	return nil
}

func (r memBookings) GetByID(_ context.Context, id int64) (domain.Booking, error) {
	b, ok := r.m.data.bookings[id]
	if !ok {
		return domain.Booking{}, notFound("booking", id)
	}
	return b, nil
}

func (r memBookings) GetByPilgrim(_ context.Context, pilgrimID int64) (domain.Booking, error) {
	for _, b := range r.m.data.bookings {
		if b.PilgrimID == pilgrimID {
			return b, nil
		}
	}
	return domain.Booking{}, notFound("booking", pilgrimID)
}

func (r memBookings) GetActiveByBed(_ context.Context, bedID int64) (domain.Booking, error) {
	for _, b := range r.m.data.bookings {
		if b.BedID == bedID && b.Active() {
			return b, nil
		}
	}
	return domain.Booking{}, notFound("booking", bedID)
}

func (r memBookings) List(_ context.Context, f domain.BookingFilter) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, id := range sortedKeys(r.m.data.bookings) {
		b := r.m.data.bookings[id]
		if f.Status != nil && b.Status != *f.Status {
			continue
		}
		if f.PilgrimID != nil && b.PilgrimID != *f.PilgrimID {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

type memPilgrims struct{ m *memStore }

func (r memPilgrims) Create(_ context.Context, p domain.Pilgrim) (domain.Pilgrim, error) {
	for _, existing := range r.m.data.pilgrims {
		if existing.RegistrationNumber == p.RegistrationNumber {
			return domain.Pilgrim{}, &domain.DuplicateError{Field: "registration_number", Value: p.RegistrationNumber}
		}
	}
	p.ID = r.m.id()
	r.m.data.pilgrims[p.ID] = p
	return p, nil
}

func (r memPilgrims) GetByID(_ context.Context, id int64) (domain.Pilgrim, error) {
	p, ok := r.m.data.pilgrims[id]
	if !ok {
		return domain.Pilgrim{}, notFound("pilgrim", id)
	}
	return p, nil
}

func (r memPilgrims) GetByNationalID(_ context.Context, nationalID string) (domain.Pilgrim, error) {
	for _, p := range r.m.data.pilgrims {
		if p.NationalID == nationalID {
			return p, nil
		}
	}
	return domain.Pilgrim{}, notFound("pilgrim", nationalID)
}

func (r memPilgrims) GetByRegistrationNumber(_ context.Context, regNo string) (domain.Pilgrim, error) {
	for _, p := range r.m.data.pilgrims {
		if p.RegistrationNumber == regNo {
			return p, nil
		}
	}
	return domain.Pilgrim{}, notFound("pilgrim", regNo)
}

func (r memPilgrims) Update(_ context.Context, p domain.Pilgrim) error {
	if _, ok := r.m.data.pilgrims[p.ID]; !ok {
		return notFound("pilgrim", p.ID)
	}
	r.m.data.pilgrims[p.ID] = p
	return nil
}

func (r memPilgrims) List(_ context.Context, f domain.PilgrimFilter) ([]domain.Pilgrim, error) {
	var out []domain.Pilgrim
	for _, id := range sortedKeys(r.m.data.pilgrims) {
		p := r.m.data.pilgrims[id]
		if f.AgencyID != nil && (p.AgencyID == nil || *p.AgencyID != *f.AgencyID) {
			continue
		}
		if f.Status != nil && p.Status != *f.Status {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r memPilgrims) CountByAgency(_ context.Context, agencyID int64) (int, error) {
	n := 0
	for _, p := range r.m.data.pilgrims {
		if p.AgencyID != nil && *p.AgencyID == agencyID {
			n++
		}
	}
	return n, nil
}

func (r memPilgrims) LatestRegistrationNumber(_ context.Context) (string, bool, error) {
	ids := sortedKeys(r.m.data.pilgrims)
	for i := len(ids) - 1; i >= 0; i-- {
		if regNo := r.m.data.pilgrims[ids[i]].RegistrationNumber; regNo != "" {
			return regNo, true, nil
		}
	}
	return "", false, nil
}

type memAgencies struct{ m *memStore }

func (r memAgencies) Create(_ context.Context, a domain.Agency) (domain.Agency, error) {
	a.ID = r.m.id()
	r.m.data.agencies[a.ID] = a
	return a, nil
}

func (r memAgencies) GetByID(_ context.Context, id int64) (domain.Agency, error) {
	a, ok := r.m.data.agencies[id]
	if !ok {
		return domain.Agency{}, notFound("agency", id)
	}
	return a, nil
}

// --- Other mocks ---

type mockPublisher struct {
	events []domain.Event
	err    error
}

func (p *mockPublisher) Publish(_ context.Context, e domain.Event) error {
	p.events = append(p.events, e)
	return p.err
}

func (p *mockPublisher) kinds() []domain.EventKind {
	out := make([]domain.EventKind, len(p.events))
	for i, e := range p.events {
		out[i] = e.Kind
	}
	return out
}

// tableValidator applies domain.BedTransitions directly.
type tableValidator struct{}

func (tableValidator) Apply(_ context.Context, current domain.BedStatus, event domain.BedEvent) (domain.BedStatus, error) {
	for _, t := range domain.BedTransitions {
		if t.Event == event && t.Src == current {
			return t.Dst, nil
		}
	}
	return "", &domain.TransitionError{Event: event, Current: current}
}
