package repository

import (
	"context"
	"database/sql"
	"fmt"

	"huanghe-analytics-api/internal/model"
)

// MySQLProjectRepository implements ProjectRepository using MySQL.
type MySQLProjectRepository struct {
	db *sql.DB
}

// NewMySQLProjectRepository creates a new MySQL project repository.
func NewMySQLProjectRepository(db *sql.DB) *MySQLProjectRepository {
	return &MySQLProjectRepository{db: db}
}

// CreateProject inserts a new project and returns it with its id set.
func (r *MySQLProjectRepository) CreateProject(ctx context.Context, project *model.Project) error {
	query := `
		INSERT INTO projects (name, template_id, owner_id, item, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, NOW())`

	result, err := r.db.ExecContext(ctx, query,
		project.Name, project.TemplateID, project.OwnerID, project.Item, project.IsActive)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read project id: %w", err)
	}
	project.ID = id
	return nil
}

// GetProject retrieves a project by id.
func (r *MySQLProjectRepository) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	query := `
		SELECT id, name, template_id, owner_id, item, is_active, created_at
		FROM projects WHERE id = ? LIMIT 1`

	var p model.Project
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.TemplateID, &p.OwnerID, &p.Item, &p.IsActive, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("project not found: %d", id)
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

// ListProjects returns all projects, newest first.
func (r *MySQLProjectRepository) ListProjects(ctx context.Context) ([]model.Project, error) {
	query := `
		SELECT id, name, template_id, owner_id, item, is_active, created_at
		FROM projects ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.TemplateID, &p.OwnerID, &p.Item, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject updates name, template and active flag.
func (r *MySQLProjectRepository) UpdateProject(ctx context.Context, project *model.Project) error {
	query := `
		UPDATE projects SET name = ?, template_id = ?, item = ?, is_active = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		project.Name, project.TemplateID, project.Item, project.IsActive, project.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("project not found: %d", project.ID)
	}
	return nil
}

// DeleteProject removes a project by id.
func (r *MySQLProjectRepository) DeleteProject(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("project not found: %d", id)
	}
	return nil
}

// Ensure MySQLProjectRepository implements ProjectRepository
var _ ProjectRepository = (*MySQLProjectRepository)(nil)
