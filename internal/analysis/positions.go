package analysis

import (
	"sort"

	"huanghe-analytics-api/internal/model"
)

// PositionTopK bounds how many of the ranked buyers get a histogram.
const PositionTopK = 10

// PositionHistograms computes, for each requested user, the frequency table
// of bid positions observed inside the window. Each snapshot row contributes
// one observation regardless of its orderCount: TotalOrders answers "how many
// times seen", while the ranked board's Count answers "how much volume
// reported". The two must not be conflated.
//
// Users are returned in the order requested; a user with no position
// observations gets an empty histogram rather than being dropped.
func PositionHistograms(orders []model.BuyOrderEvent, window model.TimeWindow, userIDs []string) []model.PositionHistogram {
	wanted := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}

	positions := make(map[string][]int)
	names := make(map[string]string)
	for _, order := range orders {
		if !window.Contains(order.Timestamp) || !wanted[order.UserID] {
			continue
		}
		if _, ok := names[order.UserID]; !ok {
			names[order.UserID] = order.UserName
		}
		if order.Position >= 1 {
			positions[order.UserID] = append(positions[order.UserID], order.Position)
		}
	}

	histograms := make([]model.PositionHistogram, 0, len(userIDs))
	for _, id := range userIDs {
		observed := positions[id]
		counts := make(map[int]int, len(observed))
		for _, pos := range observed {
			counts[pos]++
		}

		buckets := make([]model.PositionCount, 0, len(counts))
		for pos, count := range counts {
			buckets = append(buckets, model.PositionCount{Position: pos, Count: count})
		}
		sort.Slice(buckets, func(i, j int) bool {
			return buckets[i].Position < buckets[j].Position
		})

		name := names[id]
		if name == "" {
			name = id
		}
		histograms = append(histograms, model.PositionHistogram{
			UserID:      id,
			UserName:    name,
			Positions:   buckets,
			TotalOrders: len(observed),
		})
	}

	return histograms
}
