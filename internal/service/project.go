package service

import (
	"context"
	"fmt"
	"strings"

	"huanghe-analytics-api/internal/model"
	"huanghe-analytics-api/internal/repository"
)

// ProjectService handles monitoring-project business logic.
type ProjectService struct {
	projectRepo repository.ProjectRepository
}

// NewProjectService creates a new project service.
// Returns nil if projectRepo is nil (required dependency).
func NewProjectService(projectRepo repository.ProjectRepository) *ProjectService {
	if projectRepo == nil {
		return nil
	}
	return &ProjectService{projectRepo: projectRepo}
}

// CreateProject validates and creates a monitoring project.
func (s *ProjectService) CreateProject(ctx context.Context, project *model.Project) error {
	project.Name = strings.TrimSpace(project.Name)
	if project.Name == "" {
		return fmt.Errorf("project name is required")
	}
	if project.TemplateID <= 0 {
		return fmt.Errorf("template id is required")
	}
	project.IsActive = true
	return s.projectRepo.CreateProject(ctx, project)
}

// GetProject retrieves a project by id.
func (s *ProjectService) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	if id <= 0 {
		return nil, fmt.Errorf("invalid project id: %d", id)
	}
	return s.projectRepo.GetProject(ctx, id)
}

// ListProjects returns all projects, newest first.
func (s *ProjectService) ListProjects(ctx context.Context) ([]model.Project, error) {
	return s.projectRepo.ListProjects(ctx)
}

// UpdateProject validates and updates a project.
func (s *ProjectService) UpdateProject(ctx context.Context, project *model.Project) error {
	if project.ID <= 0 {
		return fmt.Errorf("invalid project id: %d", project.ID)
	}
	project.Name = strings.TrimSpace(project.Name)
	if project.Name == "" {
		return fmt.Errorf("project name is required")
	}
	return s.projectRepo.UpdateProject(ctx, project)
}

// DeleteProject removes a project.
func (s *ProjectService) DeleteProject(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("invalid project id: %d", id)
	}
	return s.projectRepo.DeleteProject(ctx, id)
}
