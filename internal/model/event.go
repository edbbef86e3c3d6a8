package model

// BuyOrderEvent is one buy-order row observed in a crawl snapshot.
// Position is the row's rank on the source page (1-based) when known.
type BuyOrderEvent struct {
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	AvatarURL  string `json:"avatarUrl,omitempty"`
	OrderCount int    `json:"orderCount"`
	Timestamp  int64  `json:"timestamp"` // ms epoch
	Position   int    `json:"position,omitempty"`
}

// SellListingEvent is one sell-listing row observed in a crawl snapshot.
type SellListingEvent struct {
	UserID       string `json:"userId"`
	UserName     string `json:"userName"`
	UserNickName string `json:"userNickName,omitempty"`
	StoreName    string `json:"storeName,omitempty"`
	AvatarURL    string `json:"avatarUrl,omitempty"`
	ListingCount int    `json:"listingCount"`
	Timestamp    int64  `json:"timestamp"`
}

// TransactionEvent is a completed trade between two distinct users.
type TransactionEvent struct {
	TransactionID string  `json:"transactionId"`
	BuyerID       string  `json:"buyerId"`
	SellerID      string  `json:"sellerId"`
	Price         float64 `json:"price"`
	Timestamp     int64   `json:"timestamp"`
}

// SnapshotBatch is one per-hour crawl capture for a monitored item: up to 30
// buy orders and 30 sell listings (the source page cap) plus the transactions
// recorded since the previous capture.
type SnapshotBatch struct {
	Timestamp    int64              `json:"timestamp"`
	BuyOrders    []BuyOrderEvent    `json:"buyOrders"`
	SellListings []SellListingEvent `json:"sellListings"`
	Transactions []TransactionEvent `json:"transactions"`
}

// TimeWindow bounds an aggregation run. Events with Timestamp >= StartMs are
// in the window; the lower bound is inclusive.
type TimeWindow struct {
	StartMs int64 `json:"startMs"`
	EndMs   int64 `json:"endMs"`
}

// NewTimeWindow derives the [now-hours, now] window from a ms-epoch now.
func NewTimeWindow(nowMs int64, hours int) TimeWindow {
	return TimeWindow{
		StartMs: nowMs - int64(hours)*3600*1000,
		EndMs:   nowMs,
	}
}

// Contains reports whether a timestamp falls inside the window.
func (w TimeWindow) Contains(ts int64) bool {
	return ts >= w.StartMs
}
