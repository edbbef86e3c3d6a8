package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"huanghe-analytics-api/internal/model"
)

func sellRecord(orderID string, price float64, crawlMs int64) model.TimelineRecord {
	return model.TimelineRecord{
		OrderID:      orderID,
		Kind:         model.TimelineSell,
		TemplateName: "AWP Asiimov",
		Price:        model.NewPrice(price),
		CrawlTime:    crawlMs,
	}
}

func newTestBehaviorService(t *testing.T, repo *mockSnapshotRepo) *BehaviorService {
	t.Helper()
	svc := NewBehaviorService(repo)
	if svc == nil {
		t.Fatal("NewBehaviorService returned nil")
	}
	counter := 0
	svc.SetKeyFunc(func() string {
		counter++
		return fmt.Sprintf("fallback_%d", counter)
	})
	return svc
}

func TestIngestTimelineValidation(t *testing.T) {
	repo := &mockSnapshotRepo{}
	svc := newTestBehaviorService(t, repo)
	ctx := context.Background()

	if err := svc.IngestTimeline(ctx, 0, []model.TimelineRecord{sellRecord("o1", 10, 1000)}); err == nil {
		t.Error("expected error for invalid user id")
	}
	if err := svc.IngestTimeline(ctx, 7, nil); err == nil {
		t.Error("expected error for empty records")
	}
	bad := sellRecord("o1", 10, 1000)
	bad.Kind = "listing"
	if err := svc.IngestTimeline(ctx, 7, []model.TimelineRecord{bad}); err == nil {
		t.Error("expected error for unknown kind")
	}
	noTime := sellRecord("o1", 10, 0)
	if err := svc.IngestTimeline(ctx, 7, []model.TimelineRecord{noTime}); err == nil {
		t.Error("expected error for missing crawl time")
	}

	good := []model.TimelineRecord{sellRecord("o1", 10, 1000), sellRecord("o2", 20, 2000)}
	if err := svc.IngestTimeline(ctx, 7, good); err != nil {
		t.Fatalf("IngestTimeline: %v", err)
	}
	if len(repo.appended) != 2 {
		t.Errorf("expected 2 appended records, got %d", len(repo.appended))
	}
}

func TestUpsertProfileRejectsGarbage(t *testing.T) {
	repo := &mockSnapshotRepo{}
	svc := newTestBehaviorService(t, repo)

	if err := svc.UpsertProfile(context.Background(), 7, []byte("{not json")); err == nil {
		t.Error("expected error for malformed profile")
	}

	profile := model.UserProfile{
		UserInfo: model.UserInfo{
			NicknameHistory: []model.NameRecord{{Name: "skinlord"}},
		},
		DeliveryStatistics: model.DeliveryStatistics{
			AvgDeliverTime:     "2.1h",
			DeliverSuccessRate: "98%",
		},
	}
	raw, _ := json.Marshal(profile)
	if err := svc.UpsertProfile(context.Background(), 7, raw); err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}
	if len(repo.profile) == 0 {
		t.Error("expected profile blob to be stored")
	}
}

func TestGetTradingBehavior(t *testing.T) {
	now := time.Now()
	profile := model.UserProfile{
		UserInfo: model.UserInfo{
			NicknameHistory:  []model.NameRecord{{Name: "skinlord"}, {Name: "old_name"}},
			StoreNameHistory: []model.NameRecord{{Name: "lord's store"}},
		},
		DeliveryStatistics: model.DeliveryStatistics{
			AvgDeliverTime:     "1.4h",
			DeliverSuccessRate: "99%",
			UnDeliverNumber:    2,
		},
	}
	rawProfile, _ := json.Marshal(profile)

	repo := &mockSnapshotRepo{
		timelines: map[model.TimelineKind][]model.TimelineRecord{
			model.TimelineSell: {
				sellRecord("o1", 100, 3000),
				sellRecord("o1", 80, 2000),
				sellRecord("o2", 50, 1000),
			},
			model.TimelinePurchase: {
				{Kind: model.TimelinePurchase, TemplateName: "Glock Fade", Price: model.NewPrice(30), CrawlTime: 1500},
			},
		},
		profile:   rawProfile,
		profileAt: &now,
	}
	svc := newTestBehaviorService(t, repo)

	report, err := svc.GetTradingBehavior(context.Background(), 9)
	if err != nil {
		t.Fatalf("GetTradingBehavior: %v", err)
	}

	if report.UserInfo == nil || report.UserInfo.UserID != 9 {
		t.Fatalf("expected user info for user 9, got %+v", report.UserInfo)
	}
	if report.UserInfo.NicknameHistory[0].Name != "skinlord" {
		t.Errorf("unexpected nickname history: %+v", report.UserInfo.NicknameHistory)
	}
	if report.DeliveryStatistics == nil || report.DeliveryStatistics.UnDeliverNumber != 2 {
		t.Errorf("unexpected delivery stats: %+v", report.DeliveryStatistics)
	}

	if len(report.SellTimeline) != 3 || len(report.PurchaseTimeline) != 1 {
		t.Fatalf("timeline lengths = %d/%d, want 3/1",
			len(report.SellTimeline), len(report.PurchaseTimeline))
	}

	// o1 has two observations, o2 one: two groups.
	if len(report.SellGroups) != 2 {
		t.Fatalf("expected 2 sell groups, got %d", len(report.SellGroups))
	}
	o1 := report.SellGroups[0]
	if o1.GroupKey != "o1" || len(o1.Entries) != 2 {
		t.Fatalf("unexpected first group: %+v", o1)
	}
	if !o1.Entries[0].IsLatest || o1.Entries[0].Delta == nil {
		t.Fatalf("newest o1 entry should carry a delta: %+v", o1.Entries[0])
	}
	if o1.Entries[0].Delta.Delta != 20 || o1.Entries[0].Delta.Direction != model.PriceUp {
		t.Errorf("o1 delta = %+v, want +20 up", o1.Entries[0].Delta)
	}

	if report.Summary.CurrentPageCount != 2 || report.Summary.TotalSellCount != 3 || report.Summary.ActiveListings != 2 {
		t.Errorf("unexpected summary: %+v", report.Summary)
	}
}

func TestGetTradingBehaviorWithoutProfile(t *testing.T) {
	repo := &mockSnapshotRepo{
		timelines: map[model.TimelineKind][]model.TimelineRecord{
			model.TimelineSell: {sellRecord("o1", 10, 1000)},
		},
		profileErr: fmt.Errorf("user profile not found"),
	}
	svc := newTestBehaviorService(t, repo)

	report, err := svc.GetTradingBehavior(context.Background(), 5)
	if err != nil {
		t.Fatalf("GetTradingBehavior: %v", err)
	}
	if report.UserInfo != nil {
		t.Error("expected nil user info when no profile is stored")
	}
	if len(report.SellGroups) != 1 {
		t.Errorf("expected 1 sell group, got %d", len(report.SellGroups))
	}
}
