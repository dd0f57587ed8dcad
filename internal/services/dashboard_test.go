package services

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olist-dashboard/internal/analytics"
	"olist-dashboard/internal/dataset"
	"olist-dashboard/internal/models"
)

func at(s string) *time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func testRecords() []models.OrderRecord {
	four, five, three := 4.0, 5.0, 3.0
	return []models.OrderRecord{
		{OrderID: "A", CustomerID: "c1", SellerID: "s1", PurchasedAt: at("2024-01-05 09:00:00"), ApprovedAt: at("2024-01-05 10:00:00"),
			PaymentValue: decimal.NewFromInt(10), ReviewScore: &four, ProductCategory: "toys", SellerState: "SP", CustomerState: "RJ"},
		{OrderID: "A", CustomerID: "c1", SellerID: "s1", PurchasedAt: at("2024-01-05 09:00:00"), ApprovedAt: at("2024-01-05 10:00:00"),
			PaymentValue: decimal.NewFromInt(5), ProductCategory: "toys", SellerState: "SP", CustomerState: "RJ"},
		{OrderID: "B", CustomerID: "c2", SellerID: "s2", PurchasedAt: at("2024-02-10 08:00:00"), ApprovedAt: at("2024-02-10 18:30:00"),
			PaymentValue: decimal.NewFromInt(20), ReviewScore: &five, ProductCategory: "books", SellerState: "MG", CustomerState: "SP"},
		{OrderID: "C", CustomerID: "c3", SellerID: "s2", PurchasedAt: at("2024-03-02 08:00:00"), ApprovedAt: at("2024-03-03 08:00:00"),
			PaymentValue: decimal.RequireFromString("12.5"), ReviewScore: &three, SellerState: "MG", CustomerState: "BA"},
		{OrderID: "D", CustomerID: "c4", SellerID: "s3", PurchasedAt: at("2024-03-04 08:00:00"),
			PaymentValue: decimal.NewFromInt(1), ProductCategory: "toys", SellerState: "RS", CustomerState: "RS"},
	}
}

func newTestDashboard(t *testing.T) *Dashboard {
	t.Helper()
	snap := dataset.NewSnapshot(testRecords(), dataset.LoadStats{Rows: 5, MissingApproval: 1})
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewDashboard(snap, 2, logger)
}

func TestNewDashboard_DefaultTopN(t *testing.T) {
	d := NewDashboard(dataset.NewSnapshot(nil, dataset.LoadStats{}), 0, nil)
	assert.Equal(t, DefaultTopN, d.TopN())
	assert.NotNil(t, d.logger)
}

func TestDashboard_ResolveRange(t *testing.T) {
	d := newTestDashboard(t)

	r, err := d.ResolveRange("", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-05..2024-03-03", r.String())

	r, err = d.ResolveRange("2024-02-01", "")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01..2024-03-03", r.String())

	_, err = d.ResolveRange("2024-03-01", "2024-02-01")
	require.ErrorIs(t, err, analytics.ErrInvalidDateRange)

	_, err = d.ResolveRange("01/02/2024", "")
	require.Error(t, err)
}

func TestDashboard_ResolveRange_NoData(t *testing.T) {
	d := NewDashboard(dataset.NewSnapshot([]models.OrderRecord{{OrderID: "x"}}, dataset.LoadStats{}), 5, nil)

	_, err := d.ResolveRange("", "")
	require.ErrorIs(t, err, ErrNoData)

	// explicit bounds still work on a dataset without approvals
	r, err := d.ResolveRange("2024-01-01", "2024-01-02")
	require.NoError(t, err)
	data, err := d.Compute(context.Background(), r)
	require.NoError(t, err)
	assert.Zero(t, data.RowCount)
}

func TestDashboard_Compute(t *testing.T) {
	d := newTestDashboard(t)
	r, err := d.ResolveRange("", "")
	require.NoError(t, err)

	data, err := d.Compute(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, "2024-01-05", data.Start)
	assert.Equal(t, "2024-03-03", data.End)
	assert.Equal(t, 4, data.RowCount)

	assert.Equal(t, 3, data.Metrics.TotalOrders)
	assert.True(t, data.Metrics.TotalRevenue.Equal(decimal.RequireFromString("47.5")))
	assert.Equal(t, "$47.50", data.Metrics.TotalRevenueText)
	assert.Equal(t, 4, data.Metrics.TotalInteractions)
	require.NotNil(t, data.Metrics.AvgReviewScore)
	assert.InDelta(t, 4.0, *data.Metrics.AvgReviewScore, 1e-9)

	require.Len(t, data.Monthly, 3)
	assert.Equal(t, "2024-01", data.Monthly[0].Month)

	require.Len(t, data.BestCategories, 2)
	assert.Equal(t, "toys", data.BestCategories[0].Category)
	require.Len(t, data.WorstCategories, 2)
	assert.Equal(t, 1, data.WorstCategories[0].OrderCount)

	assert.Equal(t, 2, data.Sellers.Total)
	assert.Equal(t, 3, data.Customers.Total)
	require.Len(t, data.Sellers.TopStates, 2)

	require.Len(t, data.SellerRFM.ByRecency, 2)
	assert.Equal(t, "s2", data.SellerRFM.ByRecency[0].EntityID)
	assert.Equal(t, 0, data.SellerRFM.ByRecency[0].Recency)
	require.Len(t, data.SellerRFM.ByMonetary, 2)
	assert.Equal(t, "s2", data.SellerRFM.ByMonetary[0].EntityID)
	require.NotNil(t, data.CustomerRFM.Summary.AvgFrequency)
	assert.InDelta(t, 4.0/3.0, *data.CustomerRFM.Summary.AvgFrequency, 1e-9)
}

func TestDashboard_Compute_EmptyRange(t *testing.T) {
	d := newTestDashboard(t)
	r, err := d.ResolveRange("2020-01-01", "2020-12-31")
	require.NoError(t, err)

	data, err := d.Compute(context.Background(), r)
	require.NoError(t, err)

	assert.Zero(t, data.RowCount)
	assert.Empty(t, data.Monthly)
	assert.Empty(t, data.BestCategories)
	assert.Empty(t, data.SellerRFM.ByFrequency)
	assert.Nil(t, data.Metrics.AvgReviewScore)
	assert.Nil(t, data.SellerRFM.Summary.AvgRecency)
	assert.Equal(t, "$0.00", data.Metrics.TotalRevenueText)
}

func TestDashboard_Compute_Cancelled(t *testing.T) {
	d := newTestDashboard(t)
	r, err := d.ResolveRange("", "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = d.Compute(ctx, r)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDashboard_Compute_InvalidRange(t *testing.T) {
	d := newTestDashboard(t)
	_, err := d.Compute(context.Background(), analytics.DateRange{
		Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.ErrorIs(t, err, analytics.ErrInvalidDateRange)
}

func TestDashboard_Queries(t *testing.T) {
	d := newTestDashboard(t)
	ctx := context.Background()
	r, err := d.ResolveRange("", "")
	require.NoError(t, err)

	monthly, err := d.Monthly(ctx, r)
	require.NoError(t, err)
	assert.Len(t, monthly, 3)

	worst, err := d.Categories(ctx, r, false, 10)
	require.NoError(t, err)
	require.Len(t, worst, 3)
	assert.Equal(t, "books", worst[0].Category)

	freq, err := d.RFM(ctx, r, analytics.CustomerEntity, ByFrequency, 1)
	require.NoError(t, err)
	require.Len(t, freq, 1)
	assert.Equal(t, "c1", freq[0].EntityID)

	states, err := d.States(ctx, r, analytics.SellerEntity, 5)
	require.NoError(t, err)
	require.Len(t, states, 2)
}

func TestDashboard_ComputeIsRepeatable(t *testing.T) {
	d := newTestDashboard(t)
	r, err := d.ResolveRange("", "")
	require.NoError(t, err)

	first, err := d.Compute(context.Background(), r)
	require.NoError(t, err)
	second, err := d.Compute(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(2), d.Stats()["computations"])
}

func TestDashboard_Stats(t *testing.T) {
	d := newTestDashboard(t)
	stats := d.Stats()

	assert.Equal(t, 5, stats["record_count"])
	assert.Equal(t, "2024-01-05", stats["min_approved"])
	assert.Equal(t, "2024-03-03", stats["max_approved"])
	assert.Equal(t, 2, stats["top_n"])
}

func TestParseRFMDimension(t *testing.T) {
	d, err := ParseRFMDimension("")
	require.NoError(t, err)
	assert.Equal(t, ByMonetary, d)

	d, err = ParseRFMDimension("recency")
	require.NoError(t, err)
	assert.Equal(t, ByRecency, d)

	_, err = ParseRFMDimension("loyalty")
	assert.Error(t, err)
}
