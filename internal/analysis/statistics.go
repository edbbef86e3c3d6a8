package analysis

import (
	"math"

	"huanghe-analytics-api/internal/model"
)

// Summarize computes the raw-window statistics block. Totals for buy orders
// and sell listings sum the reported magnitudes; transaction totals count
// events. priceChange24h compares the mean transaction price of the most
// recent 24 hours against the 24 hours before it (percent, 2 decimals) and
// is zero when either half has no transactions.
func Summarize(buys []model.BuyOrderEvent, sells []model.SellListingEvent, txs []model.TransactionEvent, window model.TimeWindow) model.Statistics {
	var stats model.Statistics

	buyers := make(map[string]bool)
	for _, order := range buys {
		if !window.Contains(order.Timestamp) {
			continue
		}
		stats.TotalBuyOrders += order.OrderCount
		buyers[order.UserID] = true
	}
	stats.ActiveBuyers = len(buyers)

	sellers := make(map[string]bool)
	for _, listing := range sells {
		if !window.Contains(listing.Timestamp) {
			continue
		}
		stats.TotalSellListings += listing.ListingCount
		sellers[listing.UserID] = true
	}
	stats.ActiveSellers = len(sellers)

	var priceSum float64
	dayAgo := window.EndMs - 24*3600*1000
	var recentSum, priorSum float64
	var recentN, priorN int

	for _, tx := range txs {
		if !window.Contains(tx.Timestamp) {
			continue
		}
		stats.TotalTransactions++
		priceSum += tx.Price
		if stats.MaxPrice == 0 || tx.Price > stats.MaxPrice {
			stats.MaxPrice = tx.Price
		}
		if stats.MinPrice == 0 || tx.Price < stats.MinPrice {
			stats.MinPrice = tx.Price
		}

		if tx.Timestamp >= dayAgo {
			recentSum += tx.Price
			recentN++
		} else if tx.Timestamp >= dayAgo-24*3600*1000 {
			priorSum += tx.Price
			priorN++
		}
	}

	if stats.TotalTransactions > 0 {
		stats.AvgPrice = priceSum / float64(stats.TotalTransactions)
	}
	if recentN > 0 && priorN > 0 {
		recentAvg := recentSum / float64(recentN)
		priorAvg := priorSum / float64(priorN)
		if priorAvg != 0 {
			stats.PriceChange24h = math.Round((recentAvg-priorAvg)/priorAvg*10000) / 100
		}
	}

	return stats
}
