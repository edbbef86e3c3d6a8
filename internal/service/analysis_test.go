package service

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"huanghe-analytics-api/internal/cache"
	"huanghe-analytics-api/internal/config"
	"huanghe-analytics-api/internal/model"
	"huanghe-analytics-api/pkg/fixture"
)

// mockSnapshotRepo is an in-memory SnapshotRepository for service tests.
type mockSnapshotRepo struct {
	batches   []model.SnapshotBatch
	listCalls int

	timelines map[model.TimelineKind][]model.TimelineRecord
	appended  []model.TimelineRecord

	profile    []byte
	profileAt  *time.Time
	profileErr error

	deleteCalls  int
	deleteReturn int64

	upserted []model.ProjectSnapshot
}

func (m *mockSnapshotRepo) UpsertSnapshot(ctx context.Context, projectID int64, capturedAt int64, rawJSON []byte) error {
	m.upserted = append(m.upserted, model.ProjectSnapshot{
		ProjectID:  projectID,
		CapturedAt: capturedAt,
		RawJSON:    rawJSON,
	})
	return nil
}

func (m *mockSnapshotRepo) BatchUpsertSnapshots(ctx context.Context, items []model.ProjectSnapshot) error {
	m.upserted = append(m.upserted, items...)
	return nil
}

func (m *mockSnapshotRepo) ListSnapshots(ctx context.Context, projectID int64, sinceMs int64) ([]model.SnapshotBatch, error) {
	m.listCalls++
	var out []model.SnapshotBatch
	for _, b := range m.batches {
		if b.Timestamp >= sinceMs {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockSnapshotRepo) AppendTimeline(ctx context.Context, userID int64, records []model.TimelineRecord) error {
	m.appended = append(m.appended, records...)
	return nil
}

func (m *mockSnapshotRepo) ListTimeline(ctx context.Context, userID int64, kind model.TimelineKind, limit int) ([]model.TimelineRecord, error) {
	records := m.timelines[kind]
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (m *mockSnapshotRepo) UpsertUserProfile(ctx context.Context, userID int64, rawJSON []byte) error {
	m.profile = rawJSON
	return nil
}

func (m *mockSnapshotRepo) GetUserProfile(ctx context.Context, userID int64) ([]byte, *time.Time, error) {
	if m.profileErr != nil {
		return nil, nil, m.profileErr
	}
	return m.profile, m.profileAt, nil
}

func (m *mockSnapshotRepo) DeleteOldSnapshots(ctx context.Context, retention time.Duration) (int64, error) {
	m.deleteCalls++
	return m.deleteReturn, nil
}

func (m *mockSnapshotRepo) GetStats(ctx context.Context) (map[string]interface{}, error) {
	return map[string]interface{}{"snapshot_count": int64(len(m.batches))}, nil
}

func (m *mockSnapshotRepo) Close() error { return nil }

// mockProjectRepo serves one project.
type mockProjectRepo struct {
	project *model.Project
}

func (m *mockProjectRepo) CreateProject(ctx context.Context, project *model.Project) error {
	project.ID = 1
	return nil
}

func (m *mockProjectRepo) GetProject(ctx context.Context, id int64) (*model.Project, error) {
	if m.project == nil || m.project.ID != id {
		return nil, fmt.Errorf("project not found: %d", id)
	}
	p := *m.project
	return &p, nil
}

func (m *mockProjectRepo) ListProjects(ctx context.Context) ([]model.Project, error) {
	if m.project == nil {
		return nil, nil
	}
	return []model.Project{*m.project}, nil
}

func (m *mockProjectRepo) UpdateProject(ctx context.Context, project *model.Project) error {
	m.project = project
	return nil
}

func (m *mockProjectRepo) DeleteProject(ctx context.Context, id int64) error {
	m.project = nil
	return nil
}

func testAnalysisConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		DefaultTimeRange: 24,
		MaxTimeRange:     168,
		ResultTTL:        time.Minute,
	}
}

func newTestAnalysisService(t *testing.T, repo *mockSnapshotRepo, projects *mockProjectRepo) *AnalysisService {
	t.Helper()
	memCache := cache.NewMemoryCache()
	t.Cleanup(func() { memCache.Close() })

	var projectRepo = projects
	svc := NewAnalysisService(projectRepo, repo, memCache, testAnalysisConfig())
	if svc == nil {
		t.Fatal("NewAnalysisService returned nil")
	}
	return svc
}

func TestClampTimeRange(t *testing.T) {
	svc := newTestAnalysisService(t, &mockSnapshotRepo{}, &mockProjectRepo{})

	cases := []struct {
		in, want int
	}{
		{0, 24},
		{-5, 24},
		{1, 1},
		{24, 24},
		{168, 168},
		{500, 168},
	}
	for _, c := range cases {
		if got := svc.ClampTimeRange(c.in); got != c.want {
			t.Errorf("ClampTimeRange(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestGetProjectAnalysis(t *testing.T) {
	nowMs := time.Now().UnixMilli()
	gen := fixture.NewGenerator(rand.New(rand.NewSource(7)), 40)

	repo := &mockSnapshotRepo{batches: gen.HourlyBatches(nowMs, 24)}
	projects := &mockProjectRepo{project: &model.Project{ID: 42, Name: "AK-47 Redline", TemplateID: 9001, IsActive: true}}
	svc := newTestAnalysisService(t, repo, projects)
	svc.now = func() time.Time { return time.UnixMilli(nowMs) }

	report, err := svc.GetProjectAnalysis(context.Background(), 42, 24)
	if err != nil {
		t.Fatalf("GetProjectAnalysis: %v", err)
	}

	if report.Project == nil || report.Project.ID != 42 {
		t.Fatalf("expected project 42 in report, got %+v", report.Project)
	}
	if report.Analysis == nil {
		t.Fatal("expected analysis block")
	}
	if report.Analysis.TimeRange != 24 {
		t.Errorf("analysis timeRange = %d, want 24", report.Analysis.TimeRange)
	}
	if len(report.Analysis.TopBuyers) == 0 {
		t.Error("expected non-empty topBuyers from 24h of fixture batches")
	}
	if report.Statistics == nil || report.Statistics.TotalTransactions == 0 {
		t.Errorf("expected non-zero transaction total, got %+v", report.Statistics)
	}
}

func TestGetProjectAnalysisCachesResult(t *testing.T) {
	nowMs := time.Now().UnixMilli()
	gen := fixture.NewGenerator(rand.New(rand.NewSource(11)), 40)

	repo := &mockSnapshotRepo{batches: gen.HourlyBatches(nowMs, 6)}
	projects := &mockProjectRepo{project: &model.Project{ID: 1, Name: "Butterfly Knife", TemplateID: 17}}
	svc := newTestAnalysisService(t, repo, projects)
	svc.now = func() time.Time { return time.UnixMilli(nowMs) }

	first, err := svc.GetProjectAnalysis(context.Background(), 1, 6)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := svc.GetProjectAnalysis(context.Background(), 1, 6)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if repo.listCalls != 1 {
		t.Errorf("expected 1 snapshot load, got %d", repo.listCalls)
	}
	if first.Analysis.Timestamp != second.Analysis.Timestamp {
		t.Error("cached report differs from original")
	}
}

func TestGetProjectAnalysisUnknownProject(t *testing.T) {
	svc := newTestAnalysisService(t, &mockSnapshotRepo{}, &mockProjectRepo{})

	if _, err := svc.GetProjectAnalysis(context.Background(), 99, 24); err == nil {
		t.Fatal("expected error for unknown project")
	}
}

func TestInvalidateProjectDropsCachedWindows(t *testing.T) {
	nowMs := time.Now().UnixMilli()
	gen := fixture.NewGenerator(rand.New(rand.NewSource(3)), 40)

	repo := &mockSnapshotRepo{batches: gen.HourlyBatches(nowMs, 6)}
	projects := &mockProjectRepo{project: &model.Project{ID: 1, Name: "Desert Eagle Blaze", TemplateID: 5}}
	svc := newTestAnalysisService(t, repo, projects)
	svc.now = func() time.Time { return time.UnixMilli(nowMs) }
	ctx := context.Background()

	if _, err := svc.GetProjectAnalysis(ctx, 1, 6); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if repo.listCalls != 1 {
		t.Fatalf("expected 1 snapshot load, got %d", repo.listCalls)
	}

	svc.InvalidateProject(ctx, 1)

	if _, err := svc.GetProjectAnalysis(ctx, 1, 6); err != nil {
		t.Fatalf("call after invalidation: %v", err)
	}
	if repo.listCalls != 2 {
		t.Errorf("expected recompute after invalidation, listCalls = %d", repo.listCalls)
	}
}

// flakyCache fails Delete on one key and records every attempted key.
type flakyCache struct {
	cache.Cache
	failKey string
	deleted []string
}

func (c *flakyCache) Delete(ctx context.Context, key string) error {
	c.deleted = append(c.deleted, key)
	if key == c.failKey {
		return fmt.Errorf("delete refused")
	}
	return c.Cache.Delete(ctx, key)
}

func TestInvalidateProjectContinuesPastDeleteErrors(t *testing.T) {
	memCache := cache.NewMemoryCache()
	t.Cleanup(func() { memCache.Close() })
	flaky := &flakyCache{Cache: memCache, failKey: "project:1:analysis:2"}

	cfg := testAnalysisConfig()
	cfg.MaxTimeRange = 5
	svc := NewAnalysisService(&mockProjectRepo{}, &mockSnapshotRepo{}, flaky, cfg)

	svc.InvalidateProject(context.Background(), 1)

	if len(flaky.deleted) != 5 {
		t.Fatalf("expected all 5 windows attempted, got %d (%v)", len(flaky.deleted), flaky.deleted)
	}
}

func TestGetProjectAnalysisDefaultTimeRange(t *testing.T) {
	nowMs := time.Now().UnixMilli()
	repo := &mockSnapshotRepo{}
	projects := &mockProjectRepo{project: &model.Project{ID: 1, Name: "M4A4 Howl", TemplateID: 3}}
	svc := newTestAnalysisService(t, repo, projects)
	svc.now = func() time.Time { return time.UnixMilli(nowMs) }

	report, err := svc.GetProjectAnalysis(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("GetProjectAnalysis: %v", err)
	}
	if report.Analysis.TimeRange != 24 {
		t.Errorf("default timeRange = %d, want 24", report.Analysis.TimeRange)
	}
	// Empty stores still produce a valid, empty analysis.
	if len(report.Analysis.TopBuyers) != 0 {
		t.Errorf("expected empty topBuyers, got %d", len(report.Analysis.TopBuyers))
	}
}
