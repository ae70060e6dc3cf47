package handler

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sakif/profile-dashboard/internal/apperror"
	"github.com/sakif/profile-dashboard/internal/query"
)

// filterParams reads the filter query parameters shared by /users and /stats.
func filterParams(v url.Values) (query.Params, error) {
	p := query.Params{
		Category:    v.Get("category"),
		Subcategory: v.Get("subcategory"),
		Industry:    v.Get("industry"),
		Platform:    v.Get("platform"),
		Stage:       v.Get("stage"),
		Email:       v.Get("email"),
		StartDate:   v.Get("start_date"),
		EndDate:     v.Get("end_date"),
	}

	if raw := strings.TrimSpace(v.Get("min_score")); raw != "" {
		score, err := parseInt("min_score", raw)
		if err != nil {
			return query.Params{}, err
		}
		p.MinScore = &score
	}
	return p, nil
}

// pageParams reads page and limit; missing values take the defaults, then
// query.NewPage clamps.
func pageParams(v url.Values) (query.Page, error) {
	number, limit := 1, query.DefaultLimit

	if raw := strings.TrimSpace(v.Get("page")); raw != "" {
		n, err := parseInt("page", raw)
		if err != nil {
			return query.Page{}, err
		}
		number = n
	}
	if raw := strings.TrimSpace(v.Get("limit")); raw != "" {
		n, err := parseInt("limit", raw)
		if err != nil {
			return query.Page{}, err
		}
		limit = n
	}
	return query.NewPage(number, limit), nil
}

func parseInt(field, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.ValidationFailed(field, fmt.Sprintf("%s must be an integer, got %q", field, raw))
	}
	return n, nil
}
