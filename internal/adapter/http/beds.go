package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/wafd/internal/app"
	"github.com/neomorfeo/wafd/internal/domain"
)

// --- Assign Bed ---

type AssignBedInput struct {
	ID   int64 `path:"id" doc:"Bed ID"`
	Body struct {
		PilgrimID  int64  `json:"pilgrim_id,omitempty" minimum:"1" doc:"Pilgrim to place in the bed"`
		Identifier string `json:"identifier,omitempty" doc:"Pilgrim id, national id or registration number; the pilgrim must belong to an agency"`
	}
}

type BedOutput struct {
	Body BedResponse
}

// --- Vacate Bed ---

type VacateBedInput struct {
	ID int64 `path:"id" doc:"Bed ID"`
}

// --- Set Bed Status ---

type SetBedStatusInput struct {
	CallerHeaders
	ID   int64 `path:"id" doc:"Bed ID"`
	Body struct {
		Status string `json:"status" enum:"Available,Booked,Reserved,Maintenance" doc:"Target status"`
	}
}

func registerBeds(api huma.API, svc *app.AllocationService) {
	huma.Register(api, huma.Operation{
		OperationID: "assign-bed",
		Method:      http.MethodPost,
		Path:        "/api/v1/beds/{id}/assign",
		Summary:     "Assign a pilgrim to a bed",
		Tags:        []string{"Beds"},
	}, func(ctx context.Context, input *AssignBedInput) (*BedOutput, error) {
		var (
			bed domain.Bed
			err error
		)
		switch {
		case input.Body.Identifier != "" && input.Body.PilgrimID != 0:
			return nil, huma.Error400BadRequest("send either pilgrim_id or identifier, not both")
		case input.Body.Identifier != "":
			bed, err = svc.AssignBedByIdentifier(ctx, input.Body.Identifier, input.ID)
		case input.Body.PilgrimID != 0:
			bed, err = svc.AssignBed(ctx, input.Body.PilgrimID, input.ID)
		default:
			return nil, huma.Error400BadRequest("pilgrim_id or identifier is required")
		}
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BedOutput{Body: toBedResponse(bed)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "vacate-bed",
		Method:      http.MethodPost,
		Path:        "/api/v1/beds/{id}/vacate",
		Summary:     "Free a bed and cancel its booking",
		Tags:        []string{"Beds"},
	}, func(ctx context.Context, input *VacateBedInput) (*BedOutput, error) {
		bed, err := svc.VacateBed(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BedOutput{Body: toBedResponse(bed)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-bed-status",
		Method:      http.MethodPut,
		Path:        "/api/v1/beds/{id}/status",
		Summary:     "Reserve, release or take a bed out of service",
		Tags:        []string{"Beds"},
	}, func(ctx context.Context, input *SetBedStatusInput) (*BedOutput, error) {
		caller, err := input.caller()
		if err != nil {
			return nil, err
		}

		bed, err := svc.SetBedStatus(ctx, caller, input.ID, domain.BedStatus(input.Body.Status))
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BedOutput{Body: toBedResponse(bed)}, nil
	})
}
