// Package fixture generates deterministic market data for tests and dev
// seeding. The generator takes an explicit rand source so runs are
// reproducible; there is no package-level state.
package fixture

import (
	"fmt"
	"math/rand"

	"huanghe-analytics-api/internal/model"
)

// PageSize is the source system's page cap for buy orders and sell listings.
const PageSize = 30

// Generator produces mock users and per-hour snapshot batches.
type Generator struct {
	rng   *rand.Rand
	users []mockUser
}

type mockUser struct {
	id     string
	name   string
	avatar string
}

// NewGenerator creates a generator over a pool of userCount mock users.
func NewGenerator(rng *rand.Rand, userCount int) *Generator {
	users := make([]mockUser, userCount)
	for i := range users {
		users[i] = mockUser{
			id:     fmt.Sprintf("user_%d", 1000+i),
			name:   fmt.Sprintf("Trader%c%d", 'A'+rune(i%26), i/26),
			avatar: "/logo.ico",
		}
	}
	return &Generator{rng: rng, users: users}
}

// HourlyBatches generates one snapshot per hour covering [now-hoursBack, now],
// oldest first. Each snapshot has a full page of buy orders with positions
// 1..30, a full page of sell listings, and 20-70 transactions with self-trades
// filtered out.
func (g *Generator) HourlyBatches(nowMs int64, hoursBack int) []model.SnapshotBatch {
	batches := make([]model.SnapshotBatch, 0, hoursBack+1)

	for h := hoursBack; h >= 0; h-- {
		ts := nowMs - int64(h)*3600*1000
		batch := model.SnapshotBatch{Timestamp: ts}

		for i := 0; i < PageSize; i++ {
			u := g.users[g.rng.Intn(len(g.users)*3/5+1)]
			batch.BuyOrders = append(batch.BuyOrders, model.BuyOrderEvent{
				UserID:     u.id,
				UserName:   u.name,
				AvatarURL:  u.avatar,
				OrderCount: g.rng.Intn(20) + 1,
				Timestamp:  ts,
				Position:   i + 1,
			})
		}

		for i := 0; i < PageSize; i++ {
			u := g.users[g.rng.Intn(len(g.users)*3/5+1)+len(g.users)/5]
			batch.SellListings = append(batch.SellListings, model.SellListingEvent{
				UserID:       u.id,
				UserName:     u.name,
				AvatarURL:    u.avatar,
				ListingCount: g.rng.Intn(15) + 1,
				Timestamp:    ts,
			})
		}

		txCount := g.rng.Intn(50) + 20
		for i := 0; i < txCount; i++ {
			buyer := g.users[g.rng.Intn(len(g.users))]
			seller := g.users[g.rng.Intn(len(g.users))]
			if buyer.id == seller.id {
				continue
			}
			batch.Transactions = append(batch.Transactions, model.TransactionEvent{
				TransactionID: fmt.Sprintf("tx_%d_%d", ts, i),
				BuyerID:       buyer.id,
				SellerID:      seller.id,
				Price:         g.rng.Float64()*1000 + 50,
				Timestamp:     ts + int64(g.rng.Intn(3600*1000)),
			})
		}

		batches = append(batches, batch)
	}

	return batches
}

// TimelineRecords generates an order history of count observations spread one
// hour apart, oldest last, alternating between two order identities.
func (g *Generator) TimelineRecords(nowMs int64, count int) []model.TimelineRecord {
	records := make([]model.TimelineRecord, 0, count)
	for i := 0; i < count; i++ {
		records = append(records, model.TimelineRecord{
			OrderID:      fmt.Sprintf("order_%d", i%2),
			TemplateName: "AK-47 | Redline (Field-Tested)",
			Price:        model.NewPrice(float64(g.rng.Intn(900)+100) / 10),
			Position:     g.rng.Intn(PageSize) + 1,
			Abrade:       fmt.Sprintf("0.%04d", g.rng.Intn(10000)),
			CrawlTime:    nowMs - int64(i)*3600*1000,
		})
	}
	return records
}
