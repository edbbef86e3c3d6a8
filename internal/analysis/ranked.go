package analysis

import (
	"sort"

	"huanghe-analytics-api/internal/model"
)

// DefaultTopN is the board size for the ranked buyer/seller lists.
const DefaultTopN = 30

// TopBuyers ranks buyers inside the window by their summed orderCount.
// One snapshot row already represents an aggregate at capture time, so
// overlapping snapshots for the same user add up (cumulative activity, not
// latest-wins). The sort is stable: ties keep first-seen input order, which
// makes the result deterministic for a given input order.
func TopBuyers(orders []model.BuyOrderEvent, window model.TimeWindow, topN int) ([]model.RankedEntry, error) {
	if topN <= 0 {
		return nil, ErrInvalidInput
	}

	index := make(map[string]int)
	entries := make([]model.RankedEntry, 0)

	for _, order := range orders {
		if !window.Contains(order.Timestamp) {
			continue
		}
		if i, ok := index[order.UserID]; ok {
			entries[i].Count += order.OrderCount
			continue
		}
		index[order.UserID] = len(entries)
		entries = append(entries, model.RankedEntry{
			UserID:    order.UserID,
			UserName:  order.UserName,
			AvatarURL: order.AvatarURL,
			Count:     order.OrderCount,
		})
	}

	return rank(entries, topN), nil
}

// TopSellers ranks sellers inside the window by their summed listingCount.
func TopSellers(listings []model.SellListingEvent, window model.TimeWindow, topN int) ([]model.RankedEntry, error) {
	if topN <= 0 {
		return nil, ErrInvalidInput
	}

	index := make(map[string]int)
	entries := make([]model.RankedEntry, 0)

	for _, listing := range listings {
		if !window.Contains(listing.Timestamp) {
			continue
		}
		if i, ok := index[listing.UserID]; ok {
			entries[i].Count += listing.ListingCount
			continue
		}
		index[listing.UserID] = len(entries)
		entries = append(entries, model.RankedEntry{
			UserID:    listing.UserID,
			UserName:  listing.UserName,
			AvatarURL: listing.AvatarURL,
			Count:     listing.ListingCount,
		})
	}

	return rank(entries, topN), nil
}

// rank sorts descending by count (stable), truncates to topN and assigns
// 1-based ranks.
func rank(entries []model.RankedEntry, topN int) []model.RankedEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if len(entries) > topN {
		entries = entries[:topN]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
