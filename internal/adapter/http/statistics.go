package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/wafd/internal/app"
)

// StatisticsResponse summarizes the pilgrims visible to the caller.
type StatisticsResponse struct {
	Total         int            `json:"total" doc:"Number of pilgrims"`
	Arrived       int            `json:"arrived"`
	Expected      int            `json:"expected"`
	Departed      int            `json:"departed"`
	NoShow        int            `json:"no_show"`
	SpecialNeeds  int            `json:"special_needs"`
	Male          int            `json:"male"`
	Female        int            `json:"female"`
	OccupancyRate float64        `json:"occupancy_rate" doc:"Arrived pilgrims as a percentage of the total"`
	ByNationality map[string]int `json:"by_nationality"`
	ByAgeGroup    map[string]int `json:"by_age_group"`
}

// OccupancyResponse counts beds by status.
type OccupancyResponse struct {
	Total       int `json:"total"`
	Available   int `json:"available"`
	Booked      int `json:"booked"`
	Reserved    int `json:"reserved"`
	Maintenance int `json:"maintenance"`
}

type StatisticsInput struct {
	CallerHeaders
}

type StatisticsOutput struct {
	Body StatisticsResponse
}

type OccupancyInput struct {
	CallerHeaders
	TentID int64 `query:"tent_id" required:"false" doc:"Restrict to one tent"`
}

type OccupancyOutput struct {
	Body OccupancyResponse
}

func registerStatistics(api huma.API, svc *app.StatisticsService) {
	huma.Register(api, huma.Operation{
		OperationID: "pilgrim-statistics",
		Method:      http.MethodGet,
		Path:        "/api/v1/statistics/pilgrims",
		Summary:     "Pilgrim counts by status, gender, nationality and age group",
		Tags:        []string{"Statistics"},
	}, func(ctx context.Context, input *StatisticsInput) (*StatisticsOutput, error) {
		caller, err := input.caller()
		if err != nil {
			return nil, err
		}

		st, err := svc.Pilgrims(ctx, caller)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StatisticsOutput{Body: StatisticsResponse{
			Total:         st.Total,
			Arrived:       st.Arrived,
			Expected:      st.Expected,
			Departed:      st.Departed,
			NoShow:        st.NoShow,
			SpecialNeeds:  st.SpecialNeeds,
			Male:          st.Male,
			Female:        st.Female,
			OccupancyRate: st.OccupancyRate,
			ByNationality: st.ByNationality,
			ByAgeGroup:    st.ByAgeGroup,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "bed-occupancy",
		Method:      http.MethodGet,
		Path:        "/api/v1/statistics/beds",
		Summary:     "Bed counts by status",
		Tags:        []string{"Statistics"},
	}, func(ctx context.Context, input *OccupancyInput) (*OccupancyOutput, error) {
		caller, err := input.caller()
		if err != nil {
			return nil, err
		}

		o, err := svc.Occupancy(ctx, caller, optionalID(input.TentID))
		if err != nil {
			return nil, toHumaError(err)
		}
		return &OccupancyOutput{Body: OccupancyResponse(o)}, nil
	})
}
