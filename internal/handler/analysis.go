package handler

import (
	"net/http"
	"strconv"
	"strings"

	"huanghe-analytics-api/internal/service"
	"huanghe-analytics-api/pkg/apierror"
	"huanghe-analytics-api/pkg/response"
)

// AnalysisHandler handles trading-behavior analysis HTTP requests.
type AnalysisHandler struct {
	analysisService *service.AnalysisService
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(analysisService *service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

// GetProjectAnalysis handles GET /projects/{project_id}/analysis?timeRange={hours}
func (h *AnalysisHandler) GetProjectAnalysis(w http.ResponseWriter, r *http.Request) {
	id, apiErr := projectID(r)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	timeRange := 0
	if raw := r.URL.Query().Get("timeRange"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(w, apierror.BadRequest("timeRange must be an integer number of hours"))
			return
		}
		timeRange = hours
	}

	report, err := h.analysisService.GetProjectAnalysis(r.Context(), id, timeRange)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			response.Error(w, apierror.NotFound(err.Error()))
			return
		}
		response.Error(w, apierror.InternalError("failed to compute analysis"))
		return
	}

	response.OK(w, report)
}
