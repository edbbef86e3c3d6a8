// Package analysis is the trading-behavior aggregation engine: pure,
// synchronous computation over raw market events. It never fetches, renders
// or persists anything; callers hand it already-loaded snapshot batches and
// get derived aggregates back. Invocations share no state and are safe to run
// concurrently.
package analysis

import "huanghe-analytics-api/internal/model"

// Analyze runs the full pipeline over raw snapshot batches: normalize, rank
// buyers and sellers, build position histograms for the most active buyers,
// tally transaction leaders, mine active pairs, and summarize the window.
// Empty aggregates are valid results; the only errors are malformed top-level
// parameters and pair consistency violations.
func Analyze(batches []model.SnapshotBatch, window model.TimeWindow, hours int) (*model.AnalysisResult, *model.Statistics, error) {
	if hours <= 0 {
		return nil, nil, ErrInvalidInput
	}

	buys, sells, txs := Normalize(batches)
	names := nameIndex(buys, sells)

	topBuyers, err := TopBuyers(buys, window, DefaultTopN)
	if err != nil {
		return nil, nil, err
	}
	topSellers, err := TopSellers(sells, window, DefaultTopN)
	if err != nil {
		return nil, nil, err
	}

	histogramUsers := topBuyers
	if len(histogramUsers) > PositionTopK {
		histogramUsers = histogramUsers[:PositionTopK]
	}
	userIDs := make([]string, len(histogramUsers))
	for i, entry := range histogramUsers {
		userIDs[i] = entry.UserID
	}
	distribution := PositionHistograms(buys, window, userIDs)

	buyerLeaders, sellerLeaders, err := TransactionLeaders(txs, window, names, LeaderTopN)
	if err != nil {
		return nil, nil, err
	}
	pairs, err := MinePairs(txs, window, names, PairMinTotal, PairTopN)
	if err != nil {
		return nil, nil, err
	}

	result := &model.AnalysisResult{
		TimeRange:                 int64(hours),
		Timestamp:                 window.EndMs,
		TopBuyers:                 topBuyers,
		BuyerPositionDistribution: distribution,
		TopSellers:                topSellers,
		TopBuyerTransactions:      buyerLeaders,
		TopSellerTransactions:     sellerLeaders,
		ActivePairs:               pairs,
	}
	stats := Summarize(buys, sells, txs, window)
	return result, &stats, nil
}

// nameIndex maps user ids to display names from the events that carry them.
// Transactions only carry ids, so pair mining and leader boards resolve names
// through this index; first occurrence wins.
func nameIndex(buys []model.BuyOrderEvent, sells []model.SellListingEvent) map[string]string {
	names := make(map[string]string)
	for _, order := range buys {
		if _, ok := names[order.UserID]; !ok && order.UserName != "" {
			names[order.UserID] = order.UserName
		}
	}
	for _, listing := range sells {
		if _, ok := names[listing.UserID]; !ok && listing.UserName != "" {
			names[listing.UserID] = listing.UserName
		}
	}
	return names
}
