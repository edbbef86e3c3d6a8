package service

import (
	"context"
	"testing"

	"huanghe-analytics-api/internal/model"
)

func TestCreateProjectValidation(t *testing.T) {
	svc := NewProjectService(&mockProjectRepo{})
	ctx := context.Background()

	if err := svc.CreateProject(ctx, &model.Project{Name: "  ", TemplateID: 5}); err == nil {
		t.Error("expected error for blank name")
	}
	if err := svc.CreateProject(ctx, &model.Project{Name: "Karambit Doppler"}); err == nil {
		t.Error("expected error for missing template id")
	}

	project := &model.Project{Name: "  Karambit Doppler ", TemplateID: 5}
	if err := svc.CreateProject(ctx, project); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if project.ID == 0 {
		t.Error("expected id to be assigned")
	}
	if project.Name != "Karambit Doppler" {
		t.Errorf("name not trimmed: %q", project.Name)
	}
	if !project.IsActive {
		t.Error("new projects should start active")
	}
}

func TestGetProjectInvalidID(t *testing.T) {
	svc := NewProjectService(&mockProjectRepo{})
	if _, err := svc.GetProject(context.Background(), -1); err == nil {
		t.Error("expected error for negative id")
	}
	if err := svc.DeleteProject(context.Background(), 0); err == nil {
		t.Error("expected error for zero id")
	}
}
