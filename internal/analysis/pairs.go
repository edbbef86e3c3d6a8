package analysis

import (
	"sort"

	"huanghe-analytics-api/internal/model"
)

const (
	// PairMinTotal is the activity threshold: a pair needs at least this
	// many transactions (both directions combined) to surface.
	PairMinTotal = 3

	// PairTopN bounds the active-pair list.
	PairTopN = 20
)

type pairAccumulator struct {
	user1ID  string // lexicographically first
	user2ID  string
	forward  int // user1 bought from user2
	backward int // user2 bought from user1
	order    int // first-seen position, for deterministic tie-breaks
}

// MinePairs surfaces repeatedly-trading user pairs inside the window. The
// pair key is the unordered id set; directional counts are attributed with
// user1 as the lexicographically first id. The sum of both directions must
// account for every transaction of the pair; a mismatch means corrupt input
// and is reported as a ConsistencyError instead of being silently dropped.
func MinePairs(txs []model.TransactionEvent, window model.TimeWindow, names map[string]string, minTotal, topN int) ([]model.TradingPair, error) {
	if minTotal < 1 || topN <= 0 {
		return nil, ErrInvalidInput
	}

	pairs := make(map[string]*pairAccumulator)
	for _, tx := range txs {
		if !window.Contains(tx.Timestamp) {
			continue
		}
		if tx.BuyerID == tx.SellerID {
			// excluded at ingestion; guard anyway
			continue
		}

		u1, u2 := tx.BuyerID, tx.SellerID
		if u1 > u2 {
			u1, u2 = u2, u1
		}
		key := u1 + ":" + u2

		acc, ok := pairs[key]
		if !ok {
			acc = &pairAccumulator{user1ID: u1, user2ID: u2, order: len(pairs)}
			pairs[key] = acc
		}

		switch {
		case tx.BuyerID == acc.user1ID && tx.SellerID == acc.user2ID:
			acc.forward++
		case tx.BuyerID == acc.user2ID && tx.SellerID == acc.user1ID:
			acc.backward++
		default:
			return nil, &ConsistencyError{PairKey: key, TransactionID: tx.TransactionID}
		}
	}

	active := make([]*pairAccumulator, 0, len(pairs))
	for _, acc := range pairs {
		if acc.forward+acc.backward >= minTotal {
			active = append(active, acc)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		ti, tj := active[i].forward+active[i].backward, active[j].forward+active[j].backward
		if ti != tj {
			return ti > tj
		}
		return active[i].order < active[j].order
	})
	if len(active) > topN {
		active = active[:topN]
	}

	result := make([]model.TradingPair, 0, len(active))
	for _, acc := range active {
		result = append(result, model.TradingPair{
			User1ID:              acc.user1ID,
			User1Name:            displayName(names, acc.user1ID),
			User2ID:              acc.user2ID,
			User2Name:            displayName(names, acc.user2ID),
			User1BoughtFromUser2: acc.forward,
			User2BoughtFromUser1: acc.backward,
			TotalTransactions:    acc.forward + acc.backward,
		})
	}
	return result, nil
}

// displayName resolves a user id through the name index, falling back to the
// id itself the way the dashboard does for users never seen in a listing.
func displayName(names map[string]string, userID string) string {
	if name, ok := names[userID]; ok && name != "" {
		return name
	}
	return userID
}
