package analysis

import (
	"testing"

	"huanghe-analytics-api/internal/model"
)

func TestNormalizeFlattensBatches(t *testing.T) {
	batches := []model.SnapshotBatch{
		{
			Timestamp: 1000,
			BuyOrders: []model.BuyOrderEvent{
				{UserID: "u1", UserName: "Alpha", OrderCount: 2, Timestamp: 1000, Position: 1},
			},
			SellListings: []model.SellListingEvent{
				{UserID: "s1", UserName: "Store", ListingCount: 3, Timestamp: 1000},
			},
			Transactions: []model.TransactionEvent{
				{TransactionID: "t1", BuyerID: "u1", SellerID: "s1", Price: 10, Timestamp: 1000},
			},
		},
		{
			Timestamp: 2000,
			BuyOrders: []model.BuyOrderEvent{
				{UserID: "u1", UserName: "Alpha", OrderCount: 4, Timestamp: 2000, Position: 2},
			},
		},
	}

	buys, sells, txs := Normalize(batches)
	if len(buys) != 2 || len(sells) != 1 || len(txs) != 1 {
		t.Fatalf("unexpected stream sizes: %d/%d/%d", len(buys), len(sells), len(txs))
	}
	// duplicates across snapshots pass through, no dedup here
	if buys[0].OrderCount+buys[1].OrderCount != 6 {
		t.Errorf("both snapshot rows must survive: %+v", buys)
	}
}

func TestNormalizeDropsRecordsWithoutUserID(t *testing.T) {
	batches := []model.SnapshotBatch{
		{
			Timestamp: 1000,
			BuyOrders: []model.BuyOrderEvent{
				{UserName: "NoID", OrderCount: 2, Timestamp: 1000},
				{UserID: "u1", UserName: "Alpha", OrderCount: 1, Timestamp: 1000},
			},
			SellListings: []model.SellListingEvent{
				{UserName: "NoID", ListingCount: 5, Timestamp: 1000},
			},
			Transactions: []model.TransactionEvent{
				{TransactionID: "t1", BuyerID: "", SellerID: "s1", Price: 10, Timestamp: 1000},
			},
		},
	}

	buys, sells, txs := Normalize(batches)
	if len(buys) != 1 {
		t.Errorf("expected malformed buy order dropped, got %d", len(buys))
	}
	if len(sells) != 0 {
		t.Errorf("expected malformed listing dropped, got %d", len(sells))
	}
	if len(txs) != 0 {
		t.Errorf("expected malformed transaction dropped, got %d", len(txs))
	}
}

func TestNormalizeExcludesSelfTrades(t *testing.T) {
	batches := []model.SnapshotBatch{
		{
			Timestamp: 1000,
			Transactions: []model.TransactionEvent{
				{TransactionID: "t1", BuyerID: "u1", SellerID: "u1", Price: 10, Timestamp: 1000},
				{TransactionID: "t2", BuyerID: "u1", SellerID: "u2", Price: 10, Timestamp: 1000},
			},
		},
	}

	_, _, txs := Normalize(batches)
	if len(txs) != 1 || txs[0].TransactionID != "t2" {
		t.Errorf("self-trade must be excluded at ingestion: %+v", txs)
	}
}

func TestNormalizeDefaultsTimestampFromBatch(t *testing.T) {
	batches := []model.SnapshotBatch{
		{
			Timestamp: 5000,
			BuyOrders: []model.BuyOrderEvent{
				{UserID: "u1", UserName: "Alpha", OrderCount: 1},
			},
		},
	}

	buys, _, _ := Normalize(batches)
	if buys[0].Timestamp != 5000 {
		t.Errorf("expected capture timestamp inherited, got %d", buys[0].Timestamp)
	}
}

func TestNormalizeNilInput(t *testing.T) {
	buys, sells, txs := Normalize(nil)
	if len(buys) != 0 || len(sells) != 0 || len(txs) != 0 {
		t.Errorf("nil input must produce empty streams")
	}
}
