package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"huanghe-analytics-api/internal/analysis"
	"huanghe-analytics-api/internal/model"
	"huanghe-analytics-api/internal/repository"
	"huanghe-analytics-api/pkg/uid"
)

// DefaultTimelineLimit caps how many records a trading-behavior view loads
// per timeline kind.
const DefaultTimelineLimit = 200

// TradingBehaviorReport is the full trading-behavior view for one user.
type TradingBehaviorReport struct {
	UserInfo           *model.UserInfo           `json:"user_info"`
	Summary            model.BehaviorSummary     `json:"summary"`
	DeliveryStatistics *model.DeliveryStatistics `json:"delivery_statistics"`
	ProfileUpdatedAt   *time.Time                `json:"profile_updated_at,omitempty"`

	SellTimeline     []model.TimelineRecord `json:"sell_timeline"`
	PurchaseTimeline []model.TimelineRecord `json:"purchase_timeline"`

	SellGroups     []model.TimelineGroup `json:"sell_groups"`
	PurchaseGroups []model.TimelineGroup `json:"purchase_groups"`
}

// BehaviorService assembles per-user trading-behavior views from stored
// timeline records and profile blobs.
type BehaviorService struct {
	snapshotRepo repository.SnapshotRepository
	keyFunc      analysis.KeyFunc
	limit        int
}

// NewBehaviorService creates a new behavior service.
// Returns nil if snapshotRepo is nil (required dependency).
func NewBehaviorService(snapshotRepo repository.SnapshotRepository) *BehaviorService {
	if snapshotRepo == nil {
		return nil
	}
	return &BehaviorService{
		snapshotRepo: snapshotRepo,
		keyFunc:      func() string { return "fallback_" + uid.New() },
		limit:        DefaultTimelineLimit,
	}
}

// SetKeyFunc overrides the fallback group-key generator.
func (s *BehaviorService) SetKeyFunc(fn analysis.KeyFunc) {
	if fn != nil {
		s.keyFunc = fn
	}
}

// IngestTimeline stores crawled listing/order history records for a user.
func (s *BehaviorService) IngestTimeline(ctx context.Context, userID int64, records []model.TimelineRecord) error {
	if userID <= 0 {
		return fmt.Errorf("invalid user id: %d", userID)
	}
	if len(records) == 0 {
		return fmt.Errorf("no timeline records")
	}
	for i, rec := range records {
		if rec.Kind != model.TimelineSell && rec.Kind != model.TimelinePurchase {
			return fmt.Errorf("record %d: unknown timeline kind %q", i, rec.Kind)
		}
		if rec.CrawlTime <= 0 {
			return fmt.Errorf("record %d: missing crawl time", i)
		}
	}
	return s.snapshotRepo.AppendTimeline(ctx, userID, records)
}

// UpsertProfile stores the crawler's raw profile blob for a user.
func (s *BehaviorService) UpsertProfile(ctx context.Context, userID int64, rawJSON []byte) error {
	if userID <= 0 {
		return fmt.Errorf("invalid user id: %d", userID)
	}
	var profile model.UserProfile
	if err := json.Unmarshal(rawJSON, &profile); err != nil {
		return fmt.Errorf("invalid profile payload: %w", err)
	}
	return s.snapshotRepo.UpsertUserProfile(ctx, userID, rawJSON)
}

// GetTradingBehavior loads a user's timelines and profile and assembles the
// trading-behavior view, including grouped timelines with price deltas.
func (s *BehaviorService) GetTradingBehavior(ctx context.Context, userID int64) (*TradingBehaviorReport, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id: %d", userID)
	}

	sells, err := s.snapshotRepo.ListTimeline(ctx, userID, model.TimelineSell, s.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load sell timeline: %w", err)
	}
	purchases, err := s.snapshotRepo.ListTimeline(ctx, userID, model.TimelinePurchase, s.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load purchase timeline: %w", err)
	}

	report := &TradingBehaviorReport{
		SellTimeline:     sells,
		PurchaseTimeline: purchases,
		SellGroups:       analysis.BuildTimeline(sells, model.TimelineSell, s.keyFunc),
		PurchaseGroups:   analysis.BuildTimeline(purchases, model.TimelinePurchase, s.keyFunc),
	}
	report.Summary = summarizeBehavior(sells, report.SellGroups)

	rawProfile, updatedAt, err := s.snapshotRepo.GetUserProfile(ctx, userID)
	if err != nil {
		// A user with timelines but no crawled profile is still viewable.
		log.Printf("[BehaviorService] No profile for user=%d: %v", userID, err)
		return report, nil
	}
	if len(rawProfile) > 0 {
		var profile model.UserProfile
		if err := json.Unmarshal(rawProfile, &profile); err != nil {
			log.Printf("[BehaviorService] Corrupt profile for user=%d: %v", userID, err)
		} else {
			profile.UserInfo.UserID = userID
			report.UserInfo = &profile.UserInfo
			report.DeliveryStatistics = &profile.DeliveryStatistics
			report.ProfileUpdatedAt = updatedAt
		}
	}

	return report, nil
}

// summarizeBehavior derives the headline block from the sell timeline:
// one page is one group, a listing is active while its newest entry still
// carries a price.
func summarizeBehavior(sells []model.TimelineRecord, groups []model.TimelineGroup) model.BehaviorSummary {
	active := 0
	for _, g := range groups {
		if len(g.Entries) > 0 && g.Entries[0].Price.Valid && g.Entries[0].Price.Value > 0 {
			active++
		}
	}
	return model.BehaviorSummary{
		CurrentPageCount: len(groups),
		TotalSellCount:   len(sells),
		ActiveListings:   active,
	}
}
