package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// chart clients read amounts as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// OrderRecord is one row of the pre-joined order/payment/review dataset.
// An order may span several records (one per item or payment).
type OrderRecord struct {
	OrderID    string
	CustomerID string
	SellerID   string

	PurchasedAt         *time.Time
	ApprovedAt          *time.Time
	DeliveredCarrierAt  *time.Time
	DeliveredCustomerAt *time.Time
	EstimatedDeliveryAt *time.Time
	ShippingLimitAt     *time.Time
	ReviewCreatedAt     *time.Time
	ReviewAnsweredAt    *time.Time

	PaymentValue decimal.Decimal
	ReviewScore  *float64

	ProductCategory string
	SellerState     string
	CustomerState   string
}

type MonthlyRollup struct {
	Month          string          `json:"month"`
	OrderCount     int             `json:"order_count"`
	Revenue        decimal.Decimal `json:"revenue"`
	RowCount       int             `json:"row_count"`
	AvgReviewScore *float64        `json:"avg_review_score"`
}

type CategoryCount struct {
	Category   string `json:"category"`
	OrderCount int    `json:"order_count"`
}

type RFMRow struct {
	EntityID  string          `json:"entity_id"`
	Recency   int             `json:"recency"`
	Frequency int             `json:"frequency"`
	Monetary  decimal.Decimal `json:"monetary"`
}

type StateCount struct {
	StateCode     string `json:"state_code"`
	DistinctCount int    `json:"distinct_count"`
}
