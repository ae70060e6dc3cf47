package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/profile-dashboard/internal/apperror"
	"github.com/sakif/profile-dashboard/internal/service"
)

// maxExclusionBody caps POST bodies; a valid request is a few dozen bytes.
const maxExclusionBody = 4 << 10

// ExclusionHandler serves /api/config/exclusion.
type ExclusionHandler struct {
	service *service.ExclusionService
	logger  *slog.Logger
}

// NewExclusionHandler creates an ExclusionHandler.
func NewExclusionHandler(svc *service.ExclusionService, logger *slog.Logger) *ExclusionHandler {
	return &ExclusionHandler{service: svc, logger: logger}
}

// exclusionRequest is the POST body.
type exclusionRequest struct {
	Email         string `json:"email"`
	ExcludeCharts bool   `json:"exclude_charts"`
	ExcludeList   bool   `json:"exclude_list"`
}

// HandleGet returns the registry.
//
// HTTP: GET /api/config/exclusion → {"charts": [...], "list": [...]}
func (h *ExclusionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// HandleAdd upserts one entry and returns the updated registry.
//
// HTTP: POST /api/config/exclusion {"email": "...", "exclude_charts": true, "exclude_list": false}
func (h *ExclusionHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req exclusionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxExclusionBody))
	if err := dec.Decode(&req); err != nil {
		h.logger.Warn("invalid exclusion JSON", slog.String("error", err.Error()))
		writeError(w, h.logger, apperror.ValidationFailed("body", "request body must be a JSON object"))
		return
	}

	cfg, err := h.service.Add(r.Context(), req.Email, req.ExcludeCharts, req.ExcludeList)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// HandleRemove deletes one entry and returns the updated registry.
//
// HTTP: DELETE /api/config/exclusion?email=...
func (h *ExclusionHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.service.Remove(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}
