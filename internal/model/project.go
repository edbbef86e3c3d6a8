package model

import "time"

// Project is a user-defined monitoring project tracking one item template.
type Project struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	TemplateID int64     `json:"template_id"`
	OwnerID    int64     `json:"owner_id,omitempty"`
	Item       string    `json:"item,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// BehaviorSummary is the headline block of a trading-behavior view.
type BehaviorSummary struct {
	CurrentPageCount int `json:"current_page_count"`
	TotalSellCount   int `json:"total_sell_count"`
	ActiveListings   int `json:"active_listings"`
}

// DeliveryStatistics describes a seller's fulfilment record.
type DeliveryStatistics struct {
	AvgDeliverTime     string `json:"avg_deliver_time"`
	DeliverSuccessRate string `json:"deliver_success_rate"`
	UnDeliverNumber    int    `json:"un_deliver_number"`
}

// NameRecord is one observed value of a mutable user field with its lifespan.
type NameRecord struct {
	Name      string    `json:"name"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// UserInfo carries the identity history shown on the trading-behavior view.
// The newest record in each history is the current value.
type UserInfo struct {
	UserID           int64        `json:"user_id"`
	NicknameHistory  []NameRecord `json:"nickname_history"`
	StoreNameHistory []NameRecord `json:"store_name_history"`
}

// UserProfile is the crawler's profile payload stored as one blob per user.
type UserProfile struct {
	UserInfo           UserInfo           `json:"user_info"`
	DeliveryStatistics DeliveryStatistics `json:"delivery_statistics"`
}
