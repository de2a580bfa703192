package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/wafd/internal/app"
	"github.com/neomorfeo/wafd/internal/domain"
)

// AgencyResponse is the API representation of an agency.
type AgencyResponse struct {
	ID          int64  `json:"id" doc:"Unique identifier"`
	Name        string `json:"name" doc:"Display name"`
	Code        string `json:"code" doc:"Short code"`
	MaxPilgrims int    `json:"max_pilgrims" doc:"Maximum number of pilgrims in the agency"`
	Status      string `json:"status" doc:"Agency status"`
}

func toAgencyResponse(a domain.Agency) AgencyResponse {
	return AgencyResponse{
		ID:          a.ID,
		Name:        a.Name,
		Code:        a.Code,
		MaxPilgrims: a.MaxPilgrims,
		Status:      a.Status,
	}
}

// --- Create Agency ---

type CreateAgencyInput struct {
	CallerHeaders
	Body struct {
		Name        string `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		Code        string `json:"code,omitempty" maxLength:"50" doc:"Short code"`
		MaxPilgrims int    `json:"max_pilgrims" minimum:"0" doc:"Maximum number of pilgrims"`
	}
}

type AgencyOutput struct {
	Body AgencyResponse
}

// --- Get Agency ---

type GetAgencyInput struct {
	ID int64 `path:"id" doc:"Agency ID"`
}

func registerAgencies(api huma.API, svc *app.AgencyService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-agency",
		Method:        http.MethodPost,
		Path:          "/api/v1/agencies",
		Summary:       "Create an agency",
		Tags:          []string{"Agencies"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateAgencyInput) (*AgencyOutput, error) {
		caller, err := input.caller()
		if err != nil {
			return nil, err
		}

		a, err := svc.Create(ctx, caller, domain.Agency{
			Name:        input.Body.Name,
			Code:        input.Body.Code,
			MaxPilgrims: input.Body.MaxPilgrims,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &AgencyOutput{Body: toAgencyResponse(a)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-agency",
		Method:      http.MethodGet,
		Path:        "/api/v1/agencies/{id}",
		Summary:     "Get an agency by ID",
		Tags:        []string{"Agencies"},
	}, func(ctx context.Context, input *GetAgencyInput) (*AgencyOutput, error) {
		a, err := svc.Get(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &AgencyOutput{Body: toAgencyResponse(a)}, nil
	})
}
