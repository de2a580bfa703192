package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/wafd/internal/domain"
)

const tracerName = "github.com/neomorfeo/wafd/internal/adapter/otel"

// TxDurationMetric is the histogram of store transaction durations, in
// seconds, labelled with the transaction outcome.
const TxDurationMetric = "wafd.store.tx.duration"

// TracingStore wraps a domain.Store with OpenTelemetry tracing. Transactions
// and the bed and booking repositories get their own spans; tent, pilgrim
// and agency access is left to the otelsql driver spans. Every outermost
// transaction is also timed into TxDurationMetric.
type TracingStore struct {
	next       domain.Store
	tracer     trace.Tracer
	txDuration metric.Float64Histogram
	inTx       bool
}

// Compile-time check: TracingStore implements domain.Store.
var _ domain.Store = (*TracingStore)(nil)

// NewTracingStore creates a tracing decorator around the given store.
func NewTracingStore(next domain.Store) *TracingStore {
	txDuration, err := otel.Meter(tracerName).Float64Histogram(TxDurationMetric,
		metric.WithDescription("Duration of allocation store transactions"),
		metric.WithUnit("s"),
	)
	if err != nil {
		otel.Handle(err)
	}

	return &TracingStore{
		next:       next,
		tracer:     otel.Tracer(tracerName),
		txDuration: txDuration,
	}
}

func (s *TracingStore) Tents() domain.TentRepository       { return s.next.Tents() }
func (s *TracingStore) Pilgrims() domain.PilgrimRepository { return s.next.Pilgrims() }
func (s *TracingStore) Agencies() domain.AgencyRepository  { return s.next.Agencies() }

func (s *TracingStore) Beds() domain.BedRepository {
	return &tracingBeds{next: s.next.Beds(), tracer: s.tracer}
}

func (s *TracingStore) Bookings() domain.BookingRepository {
	return &tracingBookings{next: s.next.Bookings(), tracer: s.tracer}
}

func (s *TracingStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx domain.Store) error) error {
	ctx, span := s.tracer.Start(ctx, "Store.WithinTx")
	defer span.End()

	start := time.Now()
	err := s.next.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		return fn(ctx, &TracingStore{next: tx, tracer: s.tracer, txDuration: s.txDuration, inTx: true})
	})
	recordError(span, err)

	// Joined transactions are timed by the outermost call.
	if !s.inTx {
		outcome := "commit"
		if err != nil {
			outcome = "rollback"
		}
		s.txDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("tx.outcome", outcome)),
		)
	}
	return err
}

type tracingBeds struct {
	next   domain.BedRepository
	tracer trace.Tracer
}

func (r *tracingBeds) Create(ctx context.Context, bed domain.Bed) (domain.Bed, error) {
	ctx, span := r.tracer.Start(ctx, "BedRepository.Create",
		trace.WithAttributes(attribute.Int64("tent.id", bed.TentID)),
	)
	defer span.End()

	created, err := r.next.Create(ctx, bed)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Int64("bed.id", created.ID))
	}
	return created, err
}

func (r *tracingBeds) GetByID(ctx context.Context, id int64) (domain.Bed, error) {
	ctx, span := r.tracer.Start(ctx, "BedRepository.GetByID",
		trace.WithAttributes(attribute.Int64("bed.id", id)),
	)
	defer span.End()

	bed, err := r.next.GetByID(ctx, id)
	recordError(span, err)
	return bed, err
}

func (r *tracingBeds) ListByTent(ctx context.Context, tentID int64) ([]domain.Bed, error) {
	ctx, span := r.tracer.Start(ctx, "BedRepository.ListByTent",
		trace.WithAttributes(attribute.Int64("tent.id", tentID)),
	)
	defer span.End()

	beds, err := r.next.ListByTent(ctx, tentID)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Int("result.count", len(beds)))
	}
	return beds, err
}

func (r *tracingBeds) UpdateStatus(ctx context.Context, id int64, from, to domain.BedStatus) error {
	ctx, span := r.tracer.Start(ctx, "BedRepository.UpdateStatus",
		trace.WithAttributes(
			attribute.Int64("bed.id", id),
			attribute.String("bed.status.from", string(from)),
			attribute.String("bed.status.to", string(to)),
		),
	)
	defer span.End()

	err := r.next.UpdateStatus(ctx, id, from, to)
	recordError(span, err)
	return err
}

func (r *tracingBeds) Delete(ctx context.Context, id int64) error {
	ctx, span := r.tracer.Start(ctx, "BedRepository.Delete",
		trace.WithAttributes(attribute.Int64("bed.id", id)),
	)
	defer span.End()

	err := r.next.Delete(ctx, id)
	recordError(span, err)
	return err
}

func (r *tracingBeds) CountByStatus(ctx context.Context, filter domain.BedFilter) (map[domain.BedStatus]int, error) {
	ctx, span := r.tracer.Start(ctx, "BedRepository.CountByStatus")
	defer span.End()

	if filter.TentID != nil {
		span.SetAttributes(attribute.Int64("filter.tent_id", *filter.TentID))
	}
	if filter.AgencyID != nil {
		span.SetAttributes(attribute.Int64("filter.agency_id", *filter.AgencyID))
	}

	counts, err := r.next.CountByStatus(ctx, filter)
	recordError(span, err)
	return counts, err
}

type tracingBookings struct {
	next   domain.BookingRepository
	tracer trace.Tracer
}

func (r *tracingBookings) Create(ctx context.Context, booking domain.Booking) (domain.Booking, error) {
	ctx, span := r.tracer.Start(ctx, "BookingRepository.Create",
		trace.WithAttributes(
			attribute.Int64("pilgrim.id", booking.PilgrimID),
			attribute.Int64("bed.id", booking.BedID),
		),
	)
	defer span.End()

	created, err := r.next.Create(ctx, booking)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Int64("booking.id", created.ID))
	}
	return created, err
}

func (r *tracingBookings) Update(ctx context.Context, booking domain.Booking) error {
	ctx, span := r.tracer.Start(ctx, "BookingRepository.Update",
		trace.WithAttributes(
			attribute.Int64("booking.id", booking.ID),
			attribute.Int64("bed.id", booking.BedID),
			attribute.String("booking.status", string(booking.Status)),
		),
	)
	defer span.End()

	err := r.next.Update(ctx, booking)
	recordError(span, err)
	return err
}

func (r *tracingBookings) GetByID(ctx context.Context, id int64) (domain.Booking, error) {
	ctx, span := r.tracer.Start(ctx, "BookingRepository.GetByID",
		trace.WithAttributes(attribute.Int64("booking.id", id)),
	)
	defer span.End()

	booking, err := r.next.GetByID(ctx, id)
	recordError(span, err)
	return booking, err
}

func (r *tracingBookings) GetByPilgrim(ctx context.Context, pilgrimID int64) (domain.Booking, error) {
	ctx, span := r.tracer.Start(ctx, "BookingRepository.GetByPilgrim",
		trace.WithAttributes(attribute.Int64("pilgrim.id", pilgrimID)),
	)
	defer span.End()

	booking, err := r.next.GetByPilgrim(ctx, pilgrimID)
	recordError(span, err)
	return booking, err
}

func (r *tracingBookings) GetActiveByBed(ctx context.Context, bedID int64) (domain.Booking, error) {
	ctx, span := r.tracer.Start(ctx, "BookingRepository.GetActiveByBed",
		trace.WithAttributes(attribute.Int64("bed.id", bedID)),
	)
	defer span.End()

	booking, err := r.next.GetActiveByBed(ctx, bedID)
	recordError(span, err)
	return booking, err
}

func (r *tracingBookings) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	ctx, span := r.tracer.Start(ctx, "BookingRepository.List",
		trace.WithAttributes(
			attribute.Int("filter.limit", filter.Limit),
			attribute.Int("filter.offset", filter.Offset),
		),
	)
	defer span.End()

	if filter.Status != nil {
		span.SetAttributes(attribute.String("filter.status", string(*filter.Status)))
	}

	bookings, err := r.next.List(ctx, filter)
	if err != nil {
		recordError(span, err)
	} else {
		span.SetAttributes(attribute.Int("result.count", len(bookings)))
	}
	return bookings, err
}

// recordError marks span failed when err is non-nil.
func recordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
