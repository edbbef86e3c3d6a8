package model

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Price is a nullable decimal. Upstream feeds serialize prices as a number, a
// quoted string, or null; missing prices stay missing instead of collapsing
// to zero so delta computation can skip them.
type Price struct {
	Value float64
	Valid bool
}

// NewPrice returns a present price.
func NewPrice(v float64) Price {
	return Price{Value: v, Valid: true}
}

// MarshalJSON encodes a missing price as null.
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}

// UnmarshalJSON accepts number, numeric string, "" and null.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = Price{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*p = Price{}
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*p = Price{Value: v, Valid: true}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = Price{Value: v, Valid: true}
	return nil
}

// Sticker is an applied sticker on a listed item.
type Sticker struct {
	Name string `json:"Name"`
}

// TimelineKind separates sell-listing history from purchase-order history.
type TimelineKind string

const (
	TimelineSell     TimelineKind = "sell"
	TimelinePurchase TimelineKind = "purchase"
)

// TimelineRecord is one crawled observation of a user's listing or purchase
// order. OrderID and CommodityID identify the underlying order when the
// source exposes them; either may be absent.
type TimelineRecord struct {
	OrderID      string       `json:"order_id,omitempty"`
	CommodityID  int64        `json:"commodity_id,omitempty"`
	Kind         TimelineKind `json:"kind,omitempty"`
	TemplateName string       `json:"template_name"`
	Price        Price        `json:"price"`
	Position     int          `json:"position"`
	Abrade       string       `json:"abrade,omitempty"`
	ExteriorName string       `json:"exterior_name,omitempty"`
	Stickers     []Sticker    `json:"stickers,omitempty"`
	CrawlTime    int64        `json:"crawl_time"` // ms epoch
}

// PriceDirection labels the sign of a price delta.
type PriceDirection string

const (
	PriceUp   PriceDirection = "up"
	PriceDown PriceDirection = "down"
	PriceSame PriceDirection = "same"
)

// PriceDelta is the change against the next-older observation of the same
// order. Percent is relative to the older price, rounded to 2 decimals.
type PriceDelta struct {
	Delta     float64        `json:"delta"`
	Percent   float64        `json:"percent"`
	Direction PriceDirection `json:"direction"`
}

// TimelineEntry is a TimelineRecord decorated with its place in the order's
// history. Entries are newest-first within a group; the newest carries
// IsLatest and the oldest never carries a delta.
type TimelineEntry struct {
	TimelineRecord
	IsLatest bool        `json:"isLatest"`
	Delta    *PriceDelta `json:"delta,omitempty"`
}

// TimelineGroup is the full observed history of one order, newest first.
type TimelineGroup struct {
	GroupKey string          `json:"groupKey"`
	Entries  []TimelineEntry `json:"entries"`
}
