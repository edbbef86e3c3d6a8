package analysis

import (
	"strconv"
	"testing"

	"huanghe-analytics-api/internal/model"
)

// counterKeys returns a deterministic KeyFunc for tests.
func counterKeys() KeyFunc {
	n := 0
	return func() string {
		n++
		return "fallback_" + strconv.Itoa(n)
	}
}

func TestGroupTimelineKeyPriority(t *testing.T) {
	records := []model.TimelineRecord{
		{OrderID: "o1", CommodityID: 42, CrawlTime: 3},
		{CommodityID: 42, CrawlTime: 2},
		{CrawlTime: 1},
		{CrawlTime: 4},
	}

	groups := GroupTimeline(records, counterKeys())
	if len(groups) != 4 {
		t.Fatalf("expected 4 groups, got %d", len(groups))
	}

	keys := make(map[string]bool)
	for _, g := range groups {
		keys[g.GroupKey] = true
	}
	for _, want := range []string{"o1", "commodity_42", "fallback_1", "fallback_2"} {
		if !keys[want] {
			t.Errorf("missing group key %q in %v", want, keys)
		}
	}
}

func TestGroupTimelineSortsNewestFirst(t *testing.T) {
	records := []model.TimelineRecord{
		{OrderID: "o1", CrawlTime: 1},
		{OrderID: "o1", CrawlTime: 3},
		{OrderID: "o1", CrawlTime: 2},
	}

	groups := GroupTimeline(records, counterKeys())
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	entries := groups[0].Entries
	if entries[0].CrawlTime != 3 || entries[1].CrawlTime != 2 || entries[2].CrawlTime != 1 {
		t.Errorf("entries not newest-first: %+v", entries)
	}
}

func TestComputeDeltasAgainstOlderEntry(t *testing.T) {
	entries := []model.TimelineEntry{
		{TimelineRecord: model.TimelineRecord{Price: model.NewPrice(100), CrawlTime: 3}},
		{TimelineRecord: model.TimelineRecord{Price: model.NewPrice(80), CrawlTime: 2}},
		{TimelineRecord: model.TimelineRecord{Price: model.NewPrice(80), CrawlTime: 1}},
	}

	ComputeDeltas(entries, false)

	if !entries[0].IsLatest {
		t.Error("newest entry must carry isLatest")
	}
	if entries[1].IsLatest || entries[2].IsLatest {
		t.Error("only the newest entry may carry isLatest")
	}

	d := entries[0].Delta
	if d == nil {
		t.Fatal("expected a delta on the newest entry")
	}
	if d.Delta != 20 {
		t.Errorf("expected delta +20, got %v", d.Delta)
	}
	if d.Percent != 25.00 {
		t.Errorf("expected +25.00%%, got %v", d.Percent)
	}
	if d.Direction != model.PriceUp {
		t.Errorf("expected direction up, got %s", d.Direction)
	}

	if entries[1].Delta != nil {
		t.Errorf("equal prices must suppress the delta, got %+v", entries[1].Delta)
	}
	if entries[2].Delta != nil {
		t.Errorf("oldest entry has no older reference, got %+v", entries[2].Delta)
	}
}

func TestComputeDeltasDownDirection(t *testing.T) {
	entries := []model.TimelineEntry{
		{TimelineRecord: model.TimelineRecord{Price: model.NewPrice(75), CrawlTime: 2}},
		{TimelineRecord: model.TimelineRecord{Price: model.NewPrice(100), CrawlTime: 1}},
	}

	ComputeDeltas(entries, false)

	d := entries[0].Delta
	if d == nil {
		t.Fatal("expected a delta")
	}
	if d.Delta != -25 || d.Percent != -25.00 || d.Direction != model.PriceDown {
		t.Errorf("unexpected delta: %+v", d)
	}
}

func TestComputeDeltasMissingPriceNoStandIn(t *testing.T) {
	entries := []model.TimelineEntry{
		{TimelineRecord: model.TimelineRecord{Price: model.NewPrice(50), CrawlTime: 2}},
		{TimelineRecord: model.TimelineRecord{CrawlTime: 1}}, // no price
	}

	ComputeDeltas(entries, false)

	if entries[0].Delta != nil {
		t.Errorf("a missing price means no delta, not a zero baseline: %+v", entries[0].Delta)
	}
}

func TestComputeDeltasPurchaseRequiresNonZero(t *testing.T) {
	entries := []model.TimelineEntry{
		{TimelineRecord: model.TimelineRecord{Price: model.NewPrice(50), CrawlTime: 2}},
		{TimelineRecord: model.TimelineRecord{Price: model.NewPrice(0), CrawlTime: 1}},
	}

	ComputeDeltas(entries, true)
	if entries[0].Delta != nil {
		t.Errorf("purchase timelines must skip zero prices, got %+v", entries[0].Delta)
	}

	// sell timelines tolerate a zero older price; percent collapses to 0
	ComputeDeltas(entries, false)
	d := entries[0].Delta
	if d == nil {
		t.Fatal("expected a delta on the sell timeline")
	}
	if d.Delta != 50 || d.Percent != 0 || d.Direction != model.PriceUp {
		t.Errorf("unexpected delta: %+v", d)
	}
}

func TestBuildTimelineSingletonFallbackGroups(t *testing.T) {
	records := []model.TimelineRecord{
		{TemplateName: "AK-47 | Redline", Price: model.NewPrice(24.5), CrawlTime: 2},
		{TemplateName: "AK-47 | Redline", Price: model.NewPrice(25.0), CrawlTime: 1},
	}

	groups := BuildTimeline(records, model.TimelineSell, counterKeys())
	if len(groups) != 2 {
		t.Fatalf("identity-less records must form singleton groups, got %d groups", len(groups))
	}
	for _, g := range groups {
		if len(g.Entries) != 1 {
			t.Errorf("group %s should be a singleton, has %d entries", g.GroupKey, len(g.Entries))
		}
		if !g.Entries[0].IsLatest {
			t.Errorf("singleton entry must be latest in group %s", g.GroupKey)
		}
		if g.Entries[0].Delta != nil {
			t.Errorf("singleton entry can have no delta, got %+v", g.Entries[0].Delta)
		}
	}
}

func TestGroupTimelineGroupOrderDeterministic(t *testing.T) {
	records := []model.TimelineRecord{
		{OrderID: "old", CrawlTime: 1},
		{OrderID: "new", CrawlTime: 9},
		{OrderID: "mid", CrawlTime: 5},
	}

	groups := GroupTimeline(records, counterKeys())
	if groups[0].GroupKey != "new" || groups[1].GroupKey != "mid" || groups[2].GroupKey != "old" {
		t.Errorf("groups not ordered by newest entry: %v", []string{groups[0].GroupKey, groups[1].GroupKey, groups[2].GroupKey})
	}
}
