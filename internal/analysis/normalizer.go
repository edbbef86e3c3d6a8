package analysis

import "huanghe-analytics-api/internal/model"

// Normalize flattens per-snapshot batches into three uniform event streams.
// Records without a user id are dropped, as are self-trades; upstream feeds
// have holes and per-record tolerance is deliberate. No deduplication happens
// here: the same user appearing in several snapshots is accumulation, handled
// downstream. Pure transform, no side effects.
func Normalize(batches []model.SnapshotBatch) ([]model.BuyOrderEvent, []model.SellListingEvent, []model.TransactionEvent) {
	var (
		buys  []model.BuyOrderEvent
		sells []model.SellListingEvent
		txs   []model.TransactionEvent
	)

	for _, batch := range batches {
		for _, order := range batch.BuyOrders {
			if order.UserID == "" {
				continue
			}
			if order.Timestamp == 0 {
				order.Timestamp = batch.Timestamp
			}
			buys = append(buys, order)
		}
		for _, listing := range batch.SellListings {
			if listing.UserID == "" {
				continue
			}
			if listing.Timestamp == 0 {
				listing.Timestamp = batch.Timestamp
			}
			sells = append(sells, listing)
		}
		for _, tx := range batch.Transactions {
			if tx.BuyerID == "" || tx.SellerID == "" {
				continue
			}
			if tx.BuyerID == tx.SellerID {
				continue
			}
			if tx.Timestamp == 0 {
				tx.Timestamp = batch.Timestamp
			}
			txs = append(txs, tx)
		}
	}

	return buys, sells, txs
}
