// internal/matching/dto.go
package matching

import (
	"errors"
	"net/url"
	"strconv"
)

// DTOs for API requests/responses

type ExploreQuery struct {
	Limit         int      `validate:"omitempty,min=1,max=50"`
	MinScore      *float64 `validate:"omitempty,gte=0,lte=1"`
	City          string   `validate:"omitempty,max=120"`
	MaxDistanceKm float64  `validate:"omitempty,gt=0,lte=500"`
}

func (q *ExploreQuery) Params() ExploreParams {
	return ExploreParams{
		Limit:         q.Limit,
		MinScore:      q.MinScore,
		City:          q.City,
		MaxDistanceKm: q.MaxDistanceKm,
	}
}

// parseExploreQuery reads the query string; range checks happen in validation.
func parseExploreQuery(values url.Values) (*ExploreQuery, error) {
	q := &ExploreQuery{City: values.Get("city")}

	if v := values.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.New("limit must be an integer")
		}
		q.Limit = n
	}
	if v := values.Get("min_score"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.New("min_score must be a number")
		}
		q.MinScore = &f
	}
	if v := values.Get("max_distance_km"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.New("max_distance_km must be a number")
		}
		q.MaxDistanceKm = f
	}
	return q, nil
}

type CompatibilityResponse struct {
	UserID             int64                `json:"user_id"`
	CompatibilityScore float64              `json:"compatibility_score"`
	Percentage         int                  `json:"percentage"`
	Factors            CompatibilityFactors `json:"factors"`
	Reasons            MatchingReasons      `json:"matching_reasons"`
}

type MatchesResponse struct {
	Matches []*Match `json:"matches"`
	Count   int      `json:"count"`
}
