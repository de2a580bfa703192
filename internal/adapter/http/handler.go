package http

import (
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/wafd/internal/adapter/xlsx"
	"github.com/neomorfeo/wafd/internal/app"
	"github.com/neomorfeo/wafd/internal/domain"
)

// Services bundles the application services exposed over HTTP.
type Services struct {
	Tents      *app.TentService
	Allocation *app.AllocationService
	Ledger     *app.BookingLedger
	Pilgrims   *app.PilgrimService
	Agencies   *app.AgencyService
	Statistics *app.StatisticsService
	Importer   *xlsx.Importer
}

// Register adds all API routes to the Huma API.
func Register(api huma.API, svc Services) {
	registerTents(api, svc.Tents)
	registerBeds(api, svc.Allocation)
	registerBookings(api, svc.Allocation, svc.Ledger)
	registerPilgrims(api, svc.Pilgrims, svc.Importer)
	registerAgencies(api, svc.Agencies)
	registerStatistics(api, svc.Statistics)
}

// CallerHeaders carries the already-authenticated caller. An upstream
// gateway sets these after verifying the user's credentials. A request
// without a role is treated as a pilgrim, the least privileged caller.
type CallerHeaders struct {
	Role   string `header:"X-Caller-Role" enum:"Admin,Supervisor,Pilgrim" default:"Pilgrim" doc:"Role of the authenticated caller"`
	Agency int64  `header:"X-Caller-Agency" required:"false" doc:"Agency the caller supervises (Supervisor only)"`
}

func (h CallerHeaders) caller() (domain.Caller, error) {
	role := domain.Role(h.Role)
	switch role {
	case domain.RoleAdmin:
		return domain.Admin(), nil
	case domain.RoleSupervisor:
		if h.Agency <= 0 {
			return domain.Caller{}, huma.Error400BadRequest("X-Caller-Agency is required for supervisors")
		}
		return domain.Supervisor(h.Agency), nil
	case domain.RolePilgrim:
		return domain.Caller{Role: domain.RolePilgrim}, nil
	}
	return domain.Caller{}, huma.Error400BadRequest("unknown caller role")
}

const timeFormat = "2006-01-02T15:04:05Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func optionalID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrNotPermitted) {
		return huma.Error403Forbidden(err.Error())
	}

	var nfErr *domain.NotFoundError
	if errors.As(err, &nfErr) {
		return huma.Error404NotFound(nfErr.Error())
	}

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return huma.Error400BadRequest(vErr.Error())
	}

	var dupErr *domain.DuplicateError
	if errors.As(err, &dupErr) {
		return huma.Error409Conflict(dupErr.Error())
	}

	var exhErr *domain.ResourceExhaustedError
	if errors.As(err, &exhErr) {
		return huma.Error409Conflict(exhErr.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	var stateErr *domain.InvalidStateError
	if errors.As(err, &stateErr) {
		return huma.Error422UnprocessableEntity(stateErr.Error())
	}

	var statusErr huma.StatusError
	if errors.As(err, &statusErr) {
		return statusErr
	}

	return huma.Error500InternalServerError("internal server error")
}
