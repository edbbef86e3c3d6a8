package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"huanghe-analytics-api/internal/analysis"
	"huanghe-analytics-api/internal/cache"
	"huanghe-analytics-api/internal/config"
	"huanghe-analytics-api/internal/model"
	"huanghe-analytics-api/internal/repository"
)

// AnalysisReport is the full analysis response for one project.
type AnalysisReport struct {
	Project    *model.Project        `json:"project"`
	Analysis   *model.AnalysisResult `json:"analysis"`
	Statistics *model.Statistics     `json:"statistics"`
}

// AnalysisService computes trading-behavior aggregates over stored snapshots.
type AnalysisService struct {
	projectRepo  repository.ProjectRepository
	snapshotRepo repository.SnapshotRepository
	cache        cache.Cache
	cfg          config.AnalysisConfig

	// now is swappable in tests
	now func() time.Time
}

// NewAnalysisService creates a new analysis service.
// Returns nil if snapshotRepo or resultCache is nil (required dependencies).
func NewAnalysisService(
	projectRepo repository.ProjectRepository,
	snapshotRepo repository.SnapshotRepository,
	resultCache cache.Cache,
	cfg config.AnalysisConfig,
) *AnalysisService {
	if snapshotRepo == nil || resultCache == nil {
		return nil
	}
	return &AnalysisService{
		projectRepo:  projectRepo,
		snapshotRepo: snapshotRepo,
		cache:        resultCache,
		cfg:          cfg,
		now:          time.Now,
	}
}

// ClampTimeRange normalizes a requested window: non-positive falls back to the
// configured default, anything above the configured maximum is capped.
func (s *AnalysisService) ClampTimeRange(hours int) int {
	if hours <= 0 {
		return s.cfg.DefaultTimeRange
	}
	if s.cfg.MaxTimeRange > 0 && hours > s.cfg.MaxTimeRange {
		return s.cfg.MaxTimeRange
	}
	return hours
}

// GetProjectAnalysis returns the cached or freshly-computed analysis for a
// project over the last timeRange hours.
func (s *AnalysisService) GetProjectAnalysis(ctx context.Context, projectID int64, timeRange int) (*AnalysisReport, error) {
	hours := s.ClampTimeRange(timeRange)

	key := fmt.Sprintf("project:%d:analysis:%d", projectID, hours)
	data, err := s.cache.GetOrSet(ctx, key, s.cfg.ResultTTL, func() ([]byte, error) {
		report, err := s.computeAnalysis(ctx, projectID, hours)
		if err != nil {
			return nil, err
		}
		return json.Marshal(report)
	})
	if err != nil {
		return nil, err
	}

	var report AnalysisReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode cached analysis: %w", err)
	}
	return &report, nil
}

// InvalidateProject drops any cached analysis windows for a project. A failed
// delete on one window must not leave the remaining windows stale, so errors
// are logged and the sweep continues.
func (s *AnalysisService) InvalidateProject(ctx context.Context, projectID int64) {
	for hours := 1; hours <= s.cfg.MaxTimeRange; hours++ {
		key := fmt.Sprintf("project:%d:analysis:%d", projectID, hours)
		if err := s.cache.Delete(ctx, key); err != nil {
			log.Printf("[AnalysisService] Failed to invalidate %s: %v", key, err)
		}
	}
}

func (s *AnalysisService) computeAnalysis(ctx context.Context, projectID int64, hours int) (*AnalysisReport, error) {
	var project *model.Project
	if s.projectRepo != nil {
		p, err := s.projectRepo.GetProject(ctx, projectID)
		if err != nil {
			return nil, err
		}
		project = p
	}

	nowMs := s.now().UnixMilli()
	window := model.NewTimeWindow(nowMs, hours)

	batches, err := s.snapshotRepo.ListSnapshots(ctx, projectID, window.StartMs)
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}

	start := time.Now()
	result, stats, err := analysis.Analyze(batches, window, hours)
	if err != nil {
		return nil, err
	}
	log.Printf("[AnalysisService] Analyzed project=%d window=%dh batches=%d in %v",
		projectID, hours, len(batches), time.Since(start))

	return &AnalysisReport{
		Project:    project,
		Analysis:   result,
		Statistics: stats,
	}, nil
}
