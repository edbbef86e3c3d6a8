package repository

import (
	"context"
	"time"

	"huanghe-analytics-api/internal/model"
)

// SnapshotRepository defines market-snapshot and timeline data access.
type SnapshotRepository interface {
	// UpsertSnapshot inserts or replaces one crawl capture for a project.
	UpsertSnapshot(ctx context.Context, projectID int64, capturedAt int64, rawJSON []byte) error

	// BatchUpsertSnapshots inserts or replaces multiple captures efficiently.
	BatchUpsertSnapshots(ctx context.Context, items []model.ProjectSnapshot) error

	// ListSnapshots returns a project's captures with capturedAt >= sinceMs,
	// oldest first, decoded into batches.
	ListSnapshots(ctx context.Context, projectID int64, sinceMs int64) ([]model.SnapshotBatch, error)

	// AppendTimeline stores crawled listing/order history records for a user.
	AppendTimeline(ctx context.Context, userID int64, records []model.TimelineRecord) error

	// ListTimeline returns a user's records of one kind, newest first.
	ListTimeline(ctx context.Context, userID int64, kind model.TimelineKind, limit int) ([]model.TimelineRecord, error)

	// UpsertUserProfile stores the crawler's raw profile blob for a user
	// (identity history and delivery statistics).
	UpsertUserProfile(ctx context.Context, userID int64, rawJSON []byte) error

	// GetUserProfile retrieves the raw profile blob for a user.
	GetUserProfile(ctx context.Context, userID int64) ([]byte, *time.Time, error)

	// DeleteOldSnapshots deletes captures older than the retention threshold.
	DeleteOldSnapshots(ctx context.Context, retention time.Duration) (int64, error)

	// GetStats returns statistics about the snapshot store.
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Close closes the repository connection.
	Close() error
}

// ProjectRepository defines monitoring-project data access methods.
type ProjectRepository interface {
	// CreateProject inserts a new project and returns it with its id set.
	CreateProject(ctx context.Context, project *model.Project) error

	// GetProject retrieves a project by id.
	GetProject(ctx context.Context, id int64) (*model.Project, error)

	// ListProjects returns all projects, newest first.
	ListProjects(ctx context.Context) ([]model.Project, error)

	// UpdateProject updates name, template and active flag.
	UpdateProject(ctx context.Context, project *model.Project) error

	// DeleteProject removes a project by id.
	DeleteProject(ctx context.Context, id int64) error
}

// AccountRepository defines dashboard account data access methods.
type AccountRepository interface {
	// ValidateCredentials checks a username/password pair for token generation.
	ValidateCredentials(ctx context.Context, username, password string) (*model.AccountValidation, error)
}
