package analysis

import (
	"math"
	"sort"
	"strconv"

	"huanghe-analytics-api/internal/model"
)

// KeyFunc supplies fallback group keys for records carrying no stable
// identity. It is injected so tests can use a counter instead of random ids.
type KeyFunc func() string

// groupKey picks the identity of a timeline record: order id when present,
// then a commodity-derived key, then a fresh fallback key. Records keyed by
// fallback form singleton groups and never merge, even across calls.
func groupKey(rec model.TimelineRecord, fallback KeyFunc) string {
	if rec.OrderID != "" {
		return rec.OrderID
	}
	if rec.CommodityID != 0 {
		return "commodity_" + strconv.FormatInt(rec.CommodityID, 10)
	}
	return fallback()
}

// GroupTimeline groups flat listing/order history by order identity and sorts
// each group newest-first by crawl time. Groups themselves are ordered by
// their newest entry, newest group first, so output is deterministic.
func GroupTimeline(records []model.TimelineRecord, fallback KeyFunc) []model.TimelineGroup {
	index := make(map[string]int)
	groups := make([]model.TimelineGroup, 0)

	for _, rec := range records {
		key := groupKey(rec, fallback)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, model.TimelineGroup{GroupKey: key})
		}
		groups[i].Entries = append(groups[i].Entries, model.TimelineEntry{TimelineRecord: rec})
	}

	for i := range groups {
		entries := groups[i].Entries
		sort.SliceStable(entries, func(a, b int) bool {
			return entries[a].CrawlTime > entries[b].CrawlTime
		})
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Entries[0].CrawlTime > groups[b].Entries[0].CrawlTime
	})

	return groups
}

// ComputeDeltas annotates a newest-first group with price changes. Entry i is
// compared against entry i+1 (the next-older observation of the same order);
// the oldest entry has no older reference and never carries a delta. Equal
// prices are suppressed, and a missing price on either side means no delta is
// computable; zero never stands in for it. Purchase timelines additionally require
// both prices to be non-zero (requireNonZero).
func ComputeDeltas(entries []model.TimelineEntry, requireNonZero bool) {
	for i := range entries {
		entries[i].IsLatest = i == 0
		entries[i].Delta = nil

		if i+1 >= len(entries) {
			continue
		}
		cur, prev := entries[i].Price, entries[i+1].Price
		if !cur.Valid || !prev.Valid {
			continue
		}
		if requireNonZero && (cur.Value == 0 || prev.Value == 0) {
			continue
		}
		if cur.Value == prev.Value {
			continue
		}

		delta := cur.Value - prev.Value
		percent := 0.0
		if prev.Value != 0 {
			percent = math.Round(delta/prev.Value*10000) / 100
		}
		direction := model.PriceSame
		if delta > 0 {
			direction = model.PriceUp
		} else if delta < 0 {
			direction = model.PriceDown
		}
		entries[i].Delta = &model.PriceDelta{
			Delta:     delta,
			Percent:   percent,
			Direction: direction,
		}
	}
}

// BuildTimeline is the full grouper pipeline for one timeline kind.
func BuildTimeline(records []model.TimelineRecord, kind model.TimelineKind, fallback KeyFunc) []model.TimelineGroup {
	groups := GroupTimeline(records, fallback)
	for i := range groups {
		ComputeDeltas(groups[i].Entries, kind == model.TimelinePurchase)
	}
	return groups
}
