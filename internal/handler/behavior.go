package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"huanghe-analytics-api/internal/model"
	"huanghe-analytics-api/internal/service"
	"huanghe-analytics-api/pkg/apierror"
	"huanghe-analytics-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// MaxProfileSize caps crawler profile uploads (1MB).
const MaxProfileSize = 1 << 20

// BehaviorHandler handles per-user trading-behavior HTTP requests.
type BehaviorHandler struct {
	behaviorService *service.BehaviorService
}

// NewBehaviorHandler creates a new behavior handler.
func NewBehaviorHandler(behaviorService *service.BehaviorService) *BehaviorHandler {
	return &BehaviorHandler{behaviorService: behaviorService}
}

// userID parses the {user_id} URL parameter.
func userID(r *http.Request) (int64, *apierror.Error) {
	raw := chi.URLParam(r, "user_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.BadRequest("invalid user id")
	}
	return id, nil
}

// IngestTimeline handles POST /users/{user_id}/timeline
func (h *BehaviorHandler) IngestTimeline(w http.ResponseWriter, r *http.Request) {
	id, apiErr := userID(r)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	var records []model.TimelineRecord
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		response.Error(w, apierror.BadRequest("invalid timeline payload"))
		return
	}
	defer r.Body.Close()

	if err := h.behaviorService.IngestTimeline(r.Context(), id, records); err != nil {
		response.Error(w, apierror.BadRequest(err.Error()))
		return
	}
	response.OK(w, map[string]interface{}{
		"status":  "accepted",
		"user_id": id,
		"records": len(records),
	})
}

// UpsertProfile handles PUT /users/{user_id}/profile
func (h *BehaviorHandler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	id, apiErr := userID(r)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	rawJSON, err := io.ReadAll(io.LimitReader(r.Body, MaxProfileSize))
	if err != nil {
		response.Error(w, apierror.BadRequest("failed to read profile payload"))
		return
	}
	defer r.Body.Close()

	if err := h.behaviorService.UpsertProfile(r.Context(), id, rawJSON); err != nil {
		response.Error(w, apierror.BadRequest(err.Error()))
		return
	}
	response.OK(w, map[string]interface{}{
		"status":  "stored",
		"user_id": id,
	})
}

// GetTradingBehavior handles GET /users/{user_id}/trading-behavior
func (h *BehaviorHandler) GetTradingBehavior(w http.ResponseWriter, r *http.Request) {
	id, apiErr := userID(r)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	report, err := h.behaviorService.GetTradingBehavior(r.Context(), id)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to load trading behavior"))
		return
	}
	response.OK(w, report)
}
