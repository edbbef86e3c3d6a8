package service

import (
	"context"
	"encoding/json"
	"fmt"

	"huanghe-analytics-api/internal/cache"
	"huanghe-analytics-api/internal/model"
	"huanghe-analytics-api/internal/repository"
)

// SnapshotService handles crawler snapshot ingestion.
type SnapshotService struct {
	snapshotRepo repository.SnapshotRepository
	buffer       *cache.RedisSnapshotBuffer
	invalidate   func(ctx context.Context, projectID int64)
}

// NewSnapshotService creates a new snapshot service.
// Returns nil if snapshotRepo is nil (required dependency).
func NewSnapshotService(snapshotRepo repository.SnapshotRepository) *SnapshotService {
	if snapshotRepo == nil {
		return nil
	}
	return &SnapshotService{snapshotRepo: snapshotRepo}
}

// SetBuffer sets the Redis buffer for write-behind ingestion.
func (s *SnapshotService) SetBuffer(buffer *cache.RedisSnapshotBuffer) {
	s.buffer = buffer
}

// SetInvalidator sets the callback run after each accepted capture, so stale
// cached analysis windows are dropped as soon as fresh data arrives.
func (s *SnapshotService) SetInvalidator(fn func(ctx context.Context, projectID int64)) {
	s.invalidate = fn
}

// Ingest stores one crawl capture for a project.
// If the buffer is set, writes go to Redis first (fast), otherwise direct to DB.
func (s *SnapshotService) Ingest(ctx context.Context, projectID int64, batch model.SnapshotBatch) error {
	if projectID <= 0 {
		return fmt.Errorf("invalid project id: %d", projectID)
	}
	if batch.Timestamp <= 0 {
		return fmt.Errorf("snapshot batch missing timestamp")
	}

	rawJSON, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}

	if s.buffer != nil {
		err = s.buffer.Add(ctx, projectID, batch.Timestamp, rawJSON)
	} else {
		err = s.snapshotRepo.UpsertSnapshot(ctx, projectID, batch.Timestamp, rawJSON)
	}
	if err != nil {
		return err
	}

	if s.invalidate != nil {
		s.invalidate(ctx, projectID)
	}
	return nil
}

// GetStoreStats returns snapshot store statistics plus pending buffer depth.
func (s *SnapshotService) GetStoreStats(ctx context.Context) (map[string]interface{}, error) {
	stats, err := s.snapshotRepo.GetStats(ctx)
	if err != nil {
		return nil, err
	}
	if s.buffer != nil {
		if pending, err := s.buffer.Count(ctx); err == nil {
			stats["buffer_pending"] = pending
		}
	}
	return stats, nil
}

// CreateFlushFunc creates a flush function for the Redis buffer.
func CreateFlushFunc(repo repository.SnapshotRepository) cache.FlushFunc {
	return func(ctx context.Context, items []*model.BufferedSnapshot) error {
		snapshots := make([]model.ProjectSnapshot, len(items))
		for i, item := range items {
			snapshots[i] = model.ProjectSnapshot{
				ProjectID:  item.ProjectID,
				CapturedAt: item.CapturedAt,
				RawJSON:    item.RawJSON,
				CreatedAt:  item.UpdatedAt,
			}
		}
		return repo.BatchUpsertSnapshots(ctx, snapshots)
	}
}
