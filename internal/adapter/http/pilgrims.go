package http

import (
	"bytes"
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/wafd/internal/adapter/xlsx"
	"github.com/neomorfeo/wafd/internal/app"
	"github.com/neomorfeo/wafd/internal/domain"
)

// PilgrimResponse is the API representation of a pilgrim.
type PilgrimResponse struct {
	ID                 int64  `json:"id" doc:"Unique identifier"`
	RegistrationNumber string `json:"registration_number" doc:"Camp registration number"`
	NationalID         string `json:"national_id" doc:"National identity number"`
	PassportNumber     string `json:"passport_number,omitempty" doc:"Passport number"`
	FirstName          string `json:"first_name" doc:"Given name"`
	LastName           string `json:"last_name" doc:"Family name"`
	Gender             string `json:"gender" enum:"male,female" doc:"Gender"`
	Age                int    `json:"age" doc:"Age in years"`
	Nationality        string `json:"nationality" doc:"Nationality"`
	Phone              string `json:"phone" doc:"Phone number"`
	Status             string `json:"status" enum:"expected,arrived,departed,no_show" doc:"Presence status"`
	HasSpecialNeeds    bool   `json:"has_special_needs" doc:"Needs special assistance"`
	SpecialNeedsType   string `json:"special_needs_type,omitempty" doc:"Kind of assistance"`
	SpecialNeedsNotes  string `json:"special_needs_notes,omitempty" doc:"Assistance details"`
	Notes              string `json:"notes,omitempty" doc:"Free-form notes"`
	AgencyID           *int64 `json:"agency_id,omitempty" doc:"Agency the pilgrim travels with"`
	CreatedAt          string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt          string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

func toPilgrimResponse(p domain.Pilgrim) PilgrimResponse {
	return PilgrimResponse{
		ID:                 p.ID,
		RegistrationNumber: p.RegistrationNumber,
		NationalID:         p.NationalID,
		PassportNumber:     p.PassportNumber,
		FirstName:          p.FirstName,
		LastName:           p.LastName,
		Gender:             p.Gender,
		Age:                p.Age,
		Nationality:        p.Nationality,
		Phone:              p.Phone,
		Status:             string(p.Status),
		HasSpecialNeeds:    p.HasSpecialNeeds,
		SpecialNeedsType:   p.SpecialNeedsType,
		SpecialNeedsNotes:  p.SpecialNeedsNotes,
		Notes:              p.Notes,
		AgencyID:           p.AgencyID,
		CreatedAt:          formatTime(p.CreatedAt),
		UpdatedAt:          formatTime(p.UpdatedAt),
	}
}

// --- Register Pilgrim ---

type RegisterPilgrimInput struct {
	CallerHeaders
	Body struct {
		NationalID        string `json:"national_id,omitempty" doc:"National identity number"`
		PassportNumber    string `json:"passport_number,omitempty" doc:"Passport number"`
		FirstName         string `json:"first_name" minLength:"1" doc:"Given name"`
		LastName          string `json:"last_name,omitempty" doc:"Family name"`
		Gender            string `json:"gender,omitempty" doc:"male/female (f or female is female, anything else male)"`
		Age               int    `json:"age,omitempty" minimum:"0" doc:"Age in years"`
		Nationality       string `json:"nationality,omitempty" doc:"Nationality"`
		Phone             string `json:"phone,omitempty" doc:"Phone number"`
		Status            string `json:"status,omitempty" doc:"Presence status (defaults to expected)"`
		HasSpecialNeeds   bool   `json:"has_special_needs,omitempty" doc:"Needs special assistance"`
		SpecialNeedsType  string `json:"special_needs_type,omitempty" doc:"Kind of assistance"`
		SpecialNeedsNotes string `json:"special_needs_notes,omitempty" doc:"Assistance details"`
		Notes             string `json:"notes,omitempty" doc:"Free-form notes"`
		AgencyID          int64  `json:"agency_id,omitempty" doc:"Agency (ignored for supervisors)"`
	}
}

type PilgrimOutput struct {
	Body PilgrimResponse
}

// --- Get Pilgrim ---

type GetPilgrimInput struct {
	CallerHeaders
	ID int64 `path:"id" doc:"Pilgrim ID"`
}

// --- List Pilgrims ---

type ListPilgrimsInput struct {
	CallerHeaders
	Status string `query:"status" required:"false" enum:"expected,arrived,departed,no_show" doc:"Filter by status"`
	Agency int64  `query:"agency_id" required:"false" doc:"Filter by agency (ignored for supervisors)"`
	Limit  int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListPilgrimsOutput struct {
	Body []PilgrimResponse
}

// --- Set Pilgrim Status ---

type SetPilgrimStatusInput struct {
	CallerHeaders
	ID   int64 `path:"id" doc:"Pilgrim ID"`
	Body struct {
		Status string `json:"status" minLength:"1" doc:"Presence status"`
	}
}

// --- Assign To Agency ---

type AssignAgencyInput struct {
	CallerHeaders
	ID   int64 `path:"id" doc:"Pilgrim ID"`
	Body struct {
		AgencyID int64 `json:"agency_id" minimum:"1" doc:"Target agency"`
	}
}

// --- Import Roster ---

type ImportPilgrimsInput struct {
	CallerHeaders
	RawBody []byte `contentType:"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"`
}

// ImportRowError reports a roster row that was not imported.
type ImportRowError struct {
	Row     int    `json:"row" doc:"Spreadsheet row number"`
	Message string `json:"message" doc:"Why the row was rejected"`
}

type ImportPilgrimsOutput struct {
	Body struct {
		Imported int               `json:"imported" doc:"Number of pilgrims registered"`
		Pilgrims []PilgrimResponse `json:"pilgrims" doc:"Registered pilgrims"`
		Errors   []ImportRowError  `json:"errors" doc:"Rejected rows"`
	}
}

func registerPilgrims(api huma.API, svc *app.PilgrimService, importer *xlsx.Importer) {
	huma.Register(api, huma.Operation{
		OperationID:   "register-pilgrim",
		Method:        http.MethodPost,
		Path:          "/api/v1/pilgrims",
		Summary:       "Register a pilgrim",
		Tags:          []string{"Pilgrims"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *RegisterPilgrimInput) (*PilgrimOutput, error) {
		caller, err := input.caller()
		if err != nil {
			return nil, err
		}

		b := input.Body
		p, err := svc.Register(ctx, caller, app.PilgrimInput{
			NationalID:        b.NationalID,
			PassportNumber:    b.PassportNumber,
			FirstName:         b.FirstName,
			LastName:          b.LastName,
			Gender:            b.Gender,
			Age:               b.Age,
			Nationality:       b.Nationality,
			Phone:             b.Phone,
			Status:            b.Status,
			HasSpecialNeeds:   b.HasSpecialNeeds,
			SpecialNeedsType:  b.SpecialNeedsType,
			SpecialNeedsNotes: b.SpecialNeedsNotes,
			Notes:             b.Notes,
			AgencyID:          optionalID(b.AgencyID),
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &PilgrimOutput{Body: toPilgrimResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-pilgrim",
		Method:      http.MethodGet,
		Path:        "/api/v1/pilgrims/{id}",
		Summary:     "Get a pilgrim by ID",
		Tags:        []string{"Pilgrims"},
	}, func(ctx context.Context, input *GetPilgrimInput) (*PilgrimOutput, error) {
		caller, err := input.caller()
		if err != nil {
			return nil, err
		}

		p, err := svc.Get(ctx, caller, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &PilgrimOutput{Body: toPilgrimResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-pilgrims",
		Method:      http.MethodGet,
		Path:        "/api/v1/pilgrims",
		Summary:     "List pilgrims visible to the caller",
		Tags:        []string{"Pilgrims"},
	}, func(ctx context.Context, input *ListPilgrimsInput) (*ListPilgrimsOutput, error) {
		caller, err := input.caller()
		if err != nil {
			return nil, err
		}

		filter := domain.PilgrimFilter{
			AgencyID: optionalID(input.Agency),
			Limit:    input.Limit,
			Offset:   input.Offset,
		}
		if input.Status != "" {
			s := domain.PilgrimStatus(input.Status)
			filter.Status = &s
		}

		pilgrims, err := svc.List(ctx, caller, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]PilgrimResponse, len(pilgrims))
		for i, p := range pilgrims {
			resp[i] = toPilgrimResponse(p)
		}
		return &ListPilgrimsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-pilgrim-status",
		Method:      http.MethodPut,
		Path:        "/api/v1/pilgrims/{id}/status",
		Summary:     "Record arrival, departure or no-show",
		Tags:        []string{"Pilgrims"},
	}, func(ctx context.Context, input *SetPilgrimStatusInput) (*PilgrimOutput, error) {
		caller, err := input.caller()
		if err != nil {
			return nil, err
		}

		p, err := svc.SetStatus(ctx, caller, input.ID, input.Body.Status)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &PilgrimOutput{Body: toPilgrimResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "assign-pilgrim-agency",
		Method:      http.MethodPut,
		Path:        "/api/v1/pilgrims/{id}/agency",
		Summary:     "Move a pilgrim into an agency",
		Tags:        []string{"Pilgrims"},
	}, func(ctx context.Context, input *AssignAgencyInput) (*PilgrimOutput, error) {
		caller, err := input.caller()
		if err != nil {
			return nil, err
		}

		p, err := svc.AssignToAgency(ctx, caller, input.ID, input.Body.AgencyID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &PilgrimOutput{Body: toPilgrimResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "import-pilgrims",
		Method:      http.MethodPost,
		Path:        "/api/v1/pilgrims/import",
		Summary:     "Register pilgrims from an xlsx roster",
		Tags:        []string{"Pilgrims"},
	}, func(ctx context.Context, input *ImportPilgrimsInput) (*ImportPilgrimsOutput, error) {
		caller, err := input.caller()
		if err != nil {
			return nil, err
		}

		result, err := importer.Import(ctx, caller, bytes.NewReader(input.RawBody))
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &ImportPilgrimsOutput{}
		out.Body.Imported = len(result.Imported)
		out.Body.Pilgrims = make([]PilgrimResponse, len(result.Imported))
		for i, p := range result.Imported {
			out.Body.Pilgrims[i] = toPilgrimResponse(p)
		}
		out.Body.Errors = make([]ImportRowError, len(result.Errors))
		for i, rowErr := range result.Errors {
			out.Body.Errors[i] = ImportRowError{Row: rowErr.Row, Message: rowErr.Err.Error()}
		}
		return out, nil
	})
}
