package analysis

import (
	"sort"

	"huanghe-analytics-api/internal/model"
)

// LeaderTopN bounds the per-role transaction leader boards.
const LeaderTopN = 20

// TransactionLeaders tallies completed transactions per user inside the
// window and returns the buyer board (sorted by buys) and the seller board
// (sorted by sells). Unlike the ranked aggregator these are distinct-event
// counts: one transaction is one unit. A user appears on both boards when
// they both bought and sold.
func TransactionLeaders(txs []model.TransactionEvent, window model.TimeWindow, names map[string]string, topN int) (buyers, sellers []model.TransactionLeader, err error) {
	if topN <= 0 {
		return nil, nil, ErrInvalidInput
	}

	buyCounts := make(map[string]int)
	sellCounts := make(map[string]int)
	var buyerOrder, sellerOrder []string

	for _, tx := range txs {
		if !window.Contains(tx.Timestamp) {
			continue
		}
		if _, seen := buyCounts[tx.BuyerID]; !seen {
			buyerOrder = append(buyerOrder, tx.BuyerID)
		}
		buyCounts[tx.BuyerID]++
		if _, seen := sellCounts[tx.SellerID]; !seen {
			sellerOrder = append(sellerOrder, tx.SellerID)
		}
		sellCounts[tx.SellerID]++
	}

	build := func(order []string) []model.TransactionLeader {
		board := make([]model.TransactionLeader, 0, len(order))
		for _, id := range order {
			board = append(board, model.TransactionLeader{
				UserID:     id,
				UserName:   displayName(names, id),
				BuyCount:   buyCounts[id],
				SellCount:  sellCounts[id],
				TotalCount: buyCounts[id] + sellCounts[id],
			})
		}
		return board
	}

	buyers = build(buyerOrder)
	sort.SliceStable(buyers, func(i, j int) bool {
		return buyers[i].BuyCount > buyers[j].BuyCount
	})
	if len(buyers) > topN {
		buyers = buyers[:topN]
	}

	sellers = build(sellerOrder)
	sort.SliceStable(sellers, func(i, j int) bool {
		return sellers[i].SellCount > sellers[j].SellCount
	})
	if len(sellers) > topN {
		sellers = sellers[:topN]
	}

	return buyers, sellers, nil
}
