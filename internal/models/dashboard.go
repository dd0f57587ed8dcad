package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateBounds is the min and max approval date present in a dataset.
type DateBounds struct {
	Min time.Time `json:"min"`
	Max time.Time `json:"max"`
}

// Metrics are the headline scalars of the sales performance section.
// TotalInteractions is a row count, not a count of distinct customers.
type Metrics struct {
	TotalOrders       int             `json:"total_orders"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	TotalRevenueText  string          `json:"total_revenue_text"`
	TotalInteractions int             `json:"total_interactions"`
	AvgReviewScore    *float64        `json:"avg_review_score"`
}

type RFMSummary struct {
	AvgRecency      *float64         `json:"avg_recency"`
	AvgFrequency    *float64         `json:"avg_frequency"`
	AvgMonetary     *decimal.Decimal `json:"avg_monetary"`
	AvgMonetaryText string           `json:"avg_monetary_text"`
}

type RFMLeaderboard struct {
	Summary     RFMSummary `json:"summary"`
	ByRecency   []RFMRow   `json:"by_recency"`
	ByFrequency []RFMRow   `json:"by_frequency"`
	ByMonetary  []RFMRow   `json:"by_monetary"`
}

type Demographics struct {
	Total     int          `json:"total"`
	TopStates []StateCount `json:"top_states"`
}

// Dashboard is everything the presentation layer renders for one date range.
type Dashboard struct {
	Start           string          `json:"start"`
	End             string          `json:"end"`
	RowCount        int             `json:"row_count"`
	Metrics         Metrics         `json:"metrics"`
	Monthly         []MonthlyRollup `json:"monthly"`
	BestCategories  []CategoryCount `json:"best_categories"`
	WorstCategories []CategoryCount `json:"worst_categories"`
	Sellers         Demographics    `json:"sellers"`
	Customers       Demographics    `json:"customers"`
	SellerRFM       RFMLeaderboard  `json:"seller_rfm"`
	CustomerRFM     RFMLeaderboard  `json:"customer_rfm"`
}
