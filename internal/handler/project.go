package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"huanghe-analytics-api/internal/model"
	"huanghe-analytics-api/internal/service"
	"huanghe-analytics-api/pkg/apierror"
	"huanghe-analytics-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// ProjectHandler handles monitoring-project HTTP requests.
type ProjectHandler struct {
	projectService  *service.ProjectService
	snapshotService *service.SnapshotService
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(projectService *service.ProjectService, snapshotService *service.SnapshotService) *ProjectHandler {
	return &ProjectHandler{
		projectService:  projectService,
		snapshotService: snapshotService,
	}
}

// projectID parses the {project_id} URL parameter.
func projectID(r *http.Request) (int64, *apierror.Error) {
	raw := chi.URLParam(r, "project_id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.BadRequest("invalid project id")
	}
	return id, nil
}

// List handles GET /projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projectService.ListProjects(r.Context())
	if err != nil {
		response.Error(w, apierror.InternalError("failed to list projects"))
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}
	response.OK(w, projects)
}

// Create handles POST /projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var project model.Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if err := h.projectService.CreateProject(r.Context(), &project); err != nil {
		response.Error(w, apierror.BadRequest(err.Error()))
		return
	}
	response.Created(w, project)
}

// Get handles GET /projects/{project_id}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, apiErr := projectID(r)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	project, err := h.projectService.GetProject(r.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			response.Error(w, apierror.NotFound(err.Error()))
			return
		}
		response.Error(w, apierror.InternalError("failed to get project"))
		return
	}
	response.OK(w, project)
}

// Update handles PUT /projects/{project_id}
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, apiErr := projectID(r)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	var project model.Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()
	project.ID = id

	if err := h.projectService.UpdateProject(r.Context(), &project); err != nil {
		if strings.Contains(err.Error(), "not found") {
			response.Error(w, apierror.NotFound(err.Error()))
			return
		}
		response.Error(w, apierror.BadRequest(err.Error()))
		return
	}
	response.OK(w, project)
}

// Delete handles DELETE /projects/{project_id}
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, apiErr := projectID(r)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	if err := h.projectService.DeleteProject(r.Context(), id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			response.Error(w, apierror.NotFound(err.Error()))
			return
		}
		response.Error(w, apierror.InternalError("failed to delete project"))
		return
	}
	response.NoContent(w)
}

// IngestSnapshot handles POST /projects/{project_id}/snapshots
func (h *ProjectHandler) IngestSnapshot(w http.ResponseWriter, r *http.Request) {
	id, apiErr := projectID(r)
	if apiErr != nil {
		response.Error(w, apiErr)
		return
	}

	var batch model.SnapshotBatch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		response.Error(w, apierror.BadRequest("invalid snapshot payload"))
		return
	}
	defer r.Body.Close()

	if err := h.snapshotService.Ingest(r.Context(), id, batch); err != nil {
		response.Error(w, apierror.BadRequest(err.Error()))
		return
	}
	response.OK(w, map[string]interface{}{
		"status":      "accepted",
		"project_id":  id,
		"captured_at": batch.Timestamp,
	})
}
