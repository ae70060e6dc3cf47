// Package handler contains the HTTP handlers of the dashboard API.
//
// Handlers are glue: parse the request, call a service, write the response.
// They never touch a store and never decide business rules; every error goes
// through writeError, which is the only place HTTP status codes are chosen.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/profile-dashboard/internal/query"
	"github.com/sakif/profile-dashboard/internal/service"
)

// ProfileHandler serves the read endpoints over user profiles.
type ProfileHandler struct {
	service *service.ProfileService
	logger  *slog.Logger
}

// NewProfileHandler creates a ProfileHandler.
func NewProfileHandler(svc *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{service: svc, logger: logger}
}

// HandleList returns a filtered, sorted page of profiles.
//
// HTTP: GET /api/users?category=&subcategory=&industry=&platform=&stage=
// &min_score=&email=&start_date=&end_date=&sort_by=&sort_order=&page=&limit=
//
// RESPONSE: {"items": [...], "total": 123, "page": 1, "limit": 50}
func (h *ProfileHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params, err := filterParams(q)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	sort, err := query.ParseSort(q.Get("sort_by"), q.Get("sort_order"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	page, err := pageParams(q)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.service.List(r.Context(), service.ListRequest{Params: params, Sort: sort, Page: page})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleGet returns one full profile by user id.
//
// HTTP: GET /api/users/{id}
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleStats returns the chart aggregates.
//
// HTTP: GET /api/stats?start_date=&end_date=&category=
//
// Only the date range and category apply here; other filter parameters are
// ignored so the charts always describe the whole population.
func (h *ProfileHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := query.Params{
		StartDate: q.Get("start_date"),
		EndDate:   q.Get("end_date"),
	}

	st, err := h.service.Stats(r.Context(), params, q.Get("category"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleFilters returns the distinct values for the filter dropdowns.
//
// HTTP: GET /api/filters
func (h *ProfileHandler) HandleFilters(w http.ResponseWriter, r *http.Request) {
	facets, err := h.service.Filters(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, facets)
}
