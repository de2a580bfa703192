package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/wafd/internal/app"
	"github.com/neomorfeo/wafd/internal/domain"
)

// TentResponse is the API representation of a tent.
type TentResponse struct {
	ID        int64         `json:"id" doc:"Unique identifier"`
	Name      string        `json:"name" doc:"Display name"`
	Code      string        `json:"code" doc:"Short code painted on the tent"`
	Type      string        `json:"type" doc:"Occupant gender" enum:"male,female"`
	Capacity  int           `json:"capacity" doc:"Declared number of beds"`
	Location  string        `json:"location" doc:"Location within the camp"`
	AgencyID  *int64        `json:"agency_id,omitempty" doc:"Owning agency"`
	Beds      []BedResponse `json:"beds,omitempty" doc:"Beds currently in the tent"`
	CreatedAt string        `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt string        `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

// BedResponse is the API representation of a bed.
type BedResponse struct {
	ID     int64  `json:"id" doc:"Unique identifier"`
	TentID int64  `json:"tent_id" doc:"Tent the bed belongs to"`
	Status string `json:"status" doc:"Bed status" enum:"Available,Booked,Reserved,Maintenance"`
}

func toTentResponse(t domain.Tent) TentResponse {
	return TentResponse{
		ID:        t.ID,
		Name:      t.Name,
		Code:      t.Code,
		Type:      string(t.Type),
		Capacity:  t.Capacity,
		Location:  t.Location,
		AgencyID:  t.AgencyID,
		CreatedAt: formatTime(t.CreatedAt),
		UpdatedAt: formatTime(t.UpdatedAt),
	}
}

func toTentDetailsResponse(d app.TentDetails) TentResponse {
	resp := toTentResponse(d.Tent)
	resp.Beds = make([]BedResponse, len(d.Beds))
	for i, b := range d.Beds {
		resp.Beds[i] = toBedResponse(b)
	}
	return resp
}

func toBedResponse(b domain.Bed) BedResponse {
	return BedResponse{ID: b.ID, TentID: b.TentID, Status: string(b.Status)}
}

// TentBody holds the writable fields of a tent.
type TentBody struct {
	Name     string `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
	Code     string `json:"code,omitempty" maxLength:"50" doc:"Short code"`
	Type     string `json:"type" enum:"male,female" doc:"Occupant gender"`
	Capacity int    `json:"capacity" minimum:"0" doc:"Declared number of beds"`
	Location string `json:"location,omitempty" doc:"Location within the camp (defaults to the name)"`
	AgencyID int64  `json:"agency_id,omitempty" doc:"Owning agency"`
}

// --- Create Tent ---

type CreateTentInput struct {
	Body TentBody
}

type TentOutput struct {
	Body TentResponse
}

// --- Get / Delete Tent ---

type TentIDInput struct {
	ID int64 `path:"id" doc:"Tent ID"`
}

// --- List Tents ---

type ListTentsInput struct {
	CallerHeaders
}

type ListTentsOutput struct {
	Body []TentResponse
}

// --- Update Tent ---

type UpdateTentInput struct {
	ID   int64 `path:"id" doc:"Tent ID"`
	Body TentBody
}

// --- Get Tent ---

type GetTentInput struct {
	CallerHeaders
	ID int64 `path:"id" doc:"Tent ID"`
}

// --- Update Capacity ---

type UpdateCapacityInput struct {
	ID   int64 `path:"id" doc:"Tent ID"`
	Body struct {
		Capacity int `json:"capacity" minimum:"0" doc:"New declared number of beds"`
	}
}

func registerTents(api huma.API, svc *app.TentService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-tent",
		Method:        http.MethodPost,
		Path:          "/api/v1/tents",
		Summary:       "Create a tent and its beds",
		Tags:          []string{"Tents"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateTentInput) (*TentOutput, error) {
		b := input.Body
		tent := domain.NewTent(b.Name, b.Code, domain.TentType(b.Type), b.Capacity, b.Location, optionalID(b.AgencyID))
		details, err := svc.Create(ctx, tent)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TentOutput{Body: toTentDetailsResponse(details)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-tent",
		Method:      http.MethodGet,
		Path:        "/api/v1/tents/{id}",
		Summary:     "Get a tent with its beds",
		Tags:        []string{"Tents"},
	}, func(ctx context.Context, input *GetTentInput) (*TentOutput, error) {
		caller, err := input.caller()
		if err != nil {
			return nil, err
		}

		details, err := svc.Get(ctx, caller, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TentOutput{Body: toTentDetailsResponse(details)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-tents",
		Method:      http.MethodGet,
		Path:        "/api/v1/tents",
		Summary:     "List tents visible to the caller",
		Tags:        []string{"Tents"},
	}, func(ctx context.Context, input *ListTentsInput) (*ListTentsOutput, error) {
		caller, err := input.caller()
		if err != nil {
			return nil, err
		}

		tents, err := svc.List(ctx, caller)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]TentResponse, len(tents))
		for i, t := range tents {
			resp[i] = toTentResponse(t)
		}
		return &ListTentsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-tent",
		Method:      http.MethodPut,
		Path:        "/api/v1/tents/{id}",
		Summary:     "Update a tent and reconcile its beds",
		Tags:        []string{"Tents"},
	}, func(ctx context.Context, input *UpdateTentInput) (*TentOutput, error) {
		b := input.Body
		details, err := svc.Update(ctx, input.ID, app.TentUpdate{
			Name:     b.Name,
			Code:     b.Code,
			Type:     domain.TentType(b.Type),
			Capacity: b.Capacity,
			Location: b.Location,
			AgencyID: optionalID(b.AgencyID),
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TentOutput{Body: toTentDetailsResponse(details)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-tent-capacity",
		Method:      http.MethodPut,
		Path:        "/api/v1/tents/{id}/capacity",
		Summary:     "Change a tent's declared capacity",
		Description: "Adds Available beds on increase. On decrease removes only Available beds, lowest id first.",
		Tags:        []string{"Tents"},
	}, func(ctx context.Context, input *UpdateCapacityInput) (*TentOutput, error) {
		details, err := svc.UpdateCapacity(ctx, input.ID, input.Body.Capacity)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &TentOutput{Body: toTentDetailsResponse(details)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-tent",
		Method:        http.MethodDelete,
		Path:          "/api/v1/tents/{id}",
		Summary:       "Delete a tent and its beds",
		Tags:          []string{"Tents"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *TentIDInput) (*struct{}, error) {
		if err := svc.Delete(ctx, input.ID); err != nil {
			return nil, toHumaError(err)
		}
		return &struct{}{}, nil
	})
}
