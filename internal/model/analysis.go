package model

// RankedEntry is one row of a top-N board. Count sums the per-snapshot
// magnitudes (orderCount or listingCount), not distinct observations.
// Rank is 1-based; ties keep first-seen input order.
type RankedEntry struct {
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Count     int    `json:"count"`
	Rank      int    `json:"rank"`
}

// PositionCount is one bucket of a bid-position histogram.
type PositionCount struct {
	Position int `json:"position"`
	Count    int `json:"count"`
}

// PositionHistogram is the per-user distribution of observed bid positions.
// TotalOrders counts position observations (one per snapshot row), which is
// deliberately different from RankedEntry.Count's summed magnitudes.
type PositionHistogram struct {
	UserID      string          `json:"userId"`
	UserName    string          `json:"userName"`
	Positions   []PositionCount `json:"positions"`
	TotalOrders int             `json:"totalOrders"`
}

// TransactionLeader is a per-user transaction tally over the window.
type TransactionLeader struct {
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	AvatarURL  string `json:"avatarUrl,omitempty"`
	BuyCount   int    `json:"buyCount"`
	SellCount  int    `json:"sellCount"`
	TotalCount int    `json:"totalCount"`
}

// TradingPair is an unordered user pair with directional transaction counts.
// User1ID is the lexicographically smaller id. TotalTransactions always equals
// the sum of both directional counts.
type TradingPair struct {
	User1ID              string `json:"user1Id"`
	User1Name            string `json:"user1Name"`
	User2ID              string `json:"user2Id"`
	User2Name            string `json:"user2Name"`
	User1BoughtFromUser2 int    `json:"user1BoughtFromUser2"`
	User2BoughtFromUser1 int    `json:"user2BoughtFromUser1"`
	TotalTransactions    int    `json:"totalTransactions"`
}

// AnalysisResult is the combined output of one aggregation run.
type AnalysisResult struct {
	TimeRange int64 `json:"timeRange"` // hours
	Timestamp int64 `json:"timestamp"` // ms epoch of the run

	TopBuyers                 []RankedEntry       `json:"topBuyers"`
	BuyerPositionDistribution []PositionHistogram `json:"buyerPositionDistribution"`
	TopSellers                []RankedEntry       `json:"topSellers"`

	TopBuyerTransactions  []TransactionLeader `json:"topBuyers_transactions"`
	TopSellerTransactions []TransactionLeader `json:"topSellers_transactions"`
	ActivePairs           []TradingPair       `json:"activePairs"`
}

// Statistics summarizes the raw window the analysis ran over.
type Statistics struct {
	TotalBuyOrders    int     `json:"totalBuyOrders"`
	TotalSellListings int     `json:"totalSellListings"`
	TotalTransactions int     `json:"totalTransactions"`
	ActiveBuyers      int     `json:"activeBuyers"`
	ActiveSellers     int     `json:"activeSellers"`
	AvgPrice          float64 `json:"avgPrice"`
	MaxPrice          float64 `json:"maxPrice"`
	MinPrice          float64 `json:"minPrice"`
	PriceChange24h    float64 `json:"priceChange24h"`
}
