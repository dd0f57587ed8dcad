package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"olist-dashboard/internal/models"
)

func ts(s string) *time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func score(v float64) *float64 { return &v }

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

// exampleRows is the three-row scenario: order A split over two payment rows
// in January and order B in February.
func exampleRows() []models.OrderRecord {
	return []models.OrderRecord{
		{OrderID: "A", CustomerID: "c1", SellerID: "s1", ApprovedAt: ts("2024-01-05 10:00:00"),
			PaymentValue: money("10"), ReviewScore: score(4), ProductCategory: "toys",
			SellerState: "SP", CustomerState: "RJ"},
		{OrderID: "A", CustomerID: "c1", SellerID: "s1", ApprovedAt: ts("2024-01-05 10:00:00"),
			PaymentValue: money("5"), ProductCategory: "toys",
			SellerState: "SP", CustomerState: "RJ"},
		{OrderID: "B", CustomerID: "c2", SellerID: "s2", ApprovedAt: ts("2024-02-10 18:30:00"),
			PaymentValue: money("20"), ReviewScore: score(5), ProductCategory: "books",
			SellerState: "MG", CustomerState: "SP"},
	}
}

// mixedRows adds rows with missing keys and timestamps.
func mixedRows() []models.OrderRecord {
	rows := exampleRows()
	return append(rows,
		models.OrderRecord{OrderID: "C", CustomerID: "c3", SellerID: "s1", ApprovedAt: ts("2024-02-11 00:00:01"),
			PaymentValue: money("7.25"), SellerState: "SP"},
		models.OrderRecord{OrderID: "D", CustomerID: "c4", SellerID: "s3",
			PaymentValue: money("99"), ProductCategory: "toys", SellerState: "RS", CustomerState: "RS"},
		models.OrderRecord{OrderID: "E", CustomerID: "c1", SellerID: "s3", ApprovedAt: ts("2024-03-01 23:59:59"),
			PaymentValue: money("0.10"), ReviewScore: score(1), ProductCategory: "garden",
			SellerState: "RS", CustomerState: "RJ"},
	)
}

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01..2024-01-31", r.String())

	_, err = ParseDateRange("2024-02-01", "2024-01-31")
	require.ErrorIs(t, err, ErrInvalidDateRange)
	assert.Contains(t, err.Error(), "2024-02-01")

	_, err = ParseDateRange("yesterday", "2024-01-31")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidDateRange)
}

func TestFilter(t *testing.T) {
	rows := mixedRows()

	tests := []struct {
		name      string
		start     string
		end       string
		wantOrder []string
	}{
		{"full range", "2024-01-01", "2024-12-31", []string{"A", "A", "B", "C", "E"}},
		{"single day inclusive", "2024-01-05", "2024-01-05", []string{"A", "A"}},
		{"end date includes late timestamps", "2024-02-10", "2024-03-01", []string{"B", "C", "E"}},
		{"no match", "2023-01-01", "2023-12-31", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseDateRange(tt.start, tt.end)
			require.NoError(t, err)

			got, err := Filter(rows, r)
			require.NoError(t, err)
			require.NotNil(t, got)

			ids := make([]string, 0, len(got))
			for _, row := range got {
				require.NotNil(t, row.ApprovedAt)
				assert.True(t, r.Contains(*row.ApprovedAt))
				ids = append(ids, row.OrderID)
			}
			assert.Equal(t, tt.wantOrder, ids)
		})
	}
}

func TestFilter_RejectsInvertedRange(t *testing.T) {
	_, err := Filter(exampleRows(), DateRange{Start: day("2024-03-01"), End: day("2024-01-01")})
	require.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestFilter_DoesNotMutateSource(t *testing.T) {
	rows := mixedRows()
	before := len(rows)
	r, err := ParseDateRange("2024-02-01", "2024-02-28")
	require.NoError(t, err)

	got, err := Filter(rows, r)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	got[0].OrderID = "changed"

	assert.Len(t, rows, before)
	assert.Equal(t, "B", rows[2].OrderID)
}

func TestBounds(t *testing.T) {
	b, ok := Bounds(mixedRows())
	require.True(t, ok)
	assert.Equal(t, day("2024-01-05"), b.Min)
	assert.Equal(t, day("2024-03-01"), b.Max)

	_, ok = Bounds([]models.OrderRecord{{OrderID: "x"}})
	assert.False(t, ok)
}

func TestMonthlyRollup_ExampleScenario(t *testing.T) {
	got := MonthlyRollup(exampleRows())
	require.Len(t, got, 2)

	jan, feb := got[0], got[1]
	assert.Equal(t, "2024-01", jan.Month)
	assert.Equal(t, 1, jan.OrderCount)
	assert.True(t, jan.Revenue.Equal(money("15")), "january revenue = %s", jan.Revenue)
	assert.Equal(t, 2, jan.RowCount)
	require.NotNil(t, jan.AvgReviewScore)
	assert.InDelta(t, 4.0, *jan.AvgReviewScore, 1e-9)

	assert.Equal(t, "2024-02", feb.Month)
	assert.Equal(t, 1, feb.OrderCount)
	assert.True(t, feb.Revenue.Equal(money("20")))
	assert.Equal(t, 1, feb.RowCount)
	require.NotNil(t, feb.AvgReviewScore)
	assert.InDelta(t, 5.0, *feb.AvgReviewScore, 1e-9)
}

func TestMonthlyRollup_MissingReviewsStayUndefined(t *testing.T) {
	rows := []models.OrderRecord{
		{OrderID: "A", ApprovedAt: ts("2024-05-01 00:00:00"), PaymentValue: money("1")},
		{OrderID: "B", ApprovedAt: ts("2024-05-02 00:00:00"), PaymentValue: money("2")},
	}
	got := MonthlyRollup(rows)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].AvgReviewScore)
}

func TestMonthlyRollup_DistinctOrdersAddUp(t *testing.T) {
	rows := mixedRows()
	r, err := ParseDateRange("2024-01-01", "2024-12-31")
	require.NoError(t, err)
	subset, err := Filter(rows, r)
	require.NoError(t, err)

	distinct := make(map[string]struct{})
	for _, row := range subset {
		distinct[row.OrderID] = struct{}{}
	}

	total := 0
	for _, m := range MonthlyRollup(subset) {
		total += m.OrderCount
	}
	assert.Equal(t, len(distinct), total)
}

func TestMonthlyRollup_Empty(t *testing.T) {
	got := MonthlyRollup(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCategoryCounts(t *testing.T) {
	rows := mixedRows()
	got := CategoryCounts(rows)

	want := []models.CategoryCount{
		{Category: "books", OrderCount: 1},
		{Category: "garden", OrderCount: 1},
		{Category: "toys", OrderCount: 3},
		{Category: UnknownKey, OrderCount: 1},
	}
	assert.Equal(t, want, got)

	sum := 0
	for _, c := range got {
		sum += c.OrderCount
	}
	assert.Equal(t, len(rows), sum)
}

func TestBestAndWorstCategories(t *testing.T) {
	counts := []models.CategoryCount{
		{Category: "a", OrderCount: 10},
		{Category: "b", OrderCount: 3},
		{Category: "c", OrderCount: 7},
		{Category: "d", OrderCount: 1},
		{Category: "e", OrderCount: 5},
		{Category: "f", OrderCount: 8},
	}

	best := BestCategories(counts, 5)
	require.Len(t, best, 5)
	assert.Equal(t, "a", best[0].Category)
	assert.Equal(t, "b", best[4].Category)

	worst := WorstCategories(counts, 5)
	require.Len(t, worst, 5)
	assert.Equal(t, "d", worst[0].Category)
	assert.Equal(t, "f", worst[4].Category)

	// input order is preserved
	assert.Equal(t, "a", counts[0].Category)

	few := BestCategories(counts[:2], 5)
	assert.Len(t, few, 2)
}

func TestRFM(t *testing.T) {
	got := RFM(mixedRows(), SellerEntity)

	want := []models.RFMRow{
		{EntityID: "s1", Recency: 19, Frequency: 3, Monetary: money("22.25")},
		{EntityID: "s2", Recency: 20, Frequency: 1, Monetary: money("20")},
		{EntityID: "s3", Recency: 0, Frequency: 1, Monetary: money("0.10")},
	}
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].EntityID, got[i].EntityID)
		assert.Equal(t, want[i].Recency, got[i].Recency, want[i].EntityID)
		assert.Equal(t, want[i].Frequency, got[i].Frequency, want[i].EntityID)
		assert.True(t, want[i].Monetary.Equal(got[i].Monetary), "%s monetary = %s", want[i].EntityID, got[i].Monetary)
	}
}

func TestRFM_RecencyNonNegativeWithSingleZero(t *testing.T) {
	for _, field := range []EntityField{SellerEntity, CustomerEntity} {
		t.Run(field.String(), func(t *testing.T) {
			rows := RFM(mixedRows(), field)
			require.NotEmpty(t, rows)

			zeros := 0
			for _, row := range rows {
				assert.GreaterOrEqual(t, row.Recency, 0)
				if row.Recency == 0 {
					zeros++
				}
			}
			assert.Equal(t, 1, zeros)
		})
	}
}

func TestRFM_ExcludesRowsWithoutApproval(t *testing.T) {
	rows := []models.OrderRecord{
		{OrderID: "X", CustomerID: "ghost", PaymentValue: money("5")},
		{OrderID: "Y", CustomerID: "c1", ApprovedAt: ts("2024-01-01 00:00:00"), PaymentValue: money("1")},
	}
	got := RFM(rows, CustomerEntity)
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].EntityID)
	assert.Equal(t, 0, got[0].Recency)
}

func TestRFMLeaderboards(t *testing.T) {
	rows := []models.RFMRow{
		{EntityID: "a", Recency: 5, Frequency: 1, Monetary: money("100")},
		{EntityID: "b", Recency: 0, Frequency: 4, Monetary: money("10")},
		{EntityID: "c", Recency: 2, Frequency: 4, Monetary: money("55.5")},
	}

	recency := TopByRecency(rows, 2)
	assert.Equal(t, []string{"b", "c"}, entityIDs(recency))

	frequency := TopByFrequency(rows, 5)
	assert.Equal(t, []string{"b", "c", "a"}, entityIDs(frequency))

	monetary := TopByMonetary(rows, 1)
	assert.Equal(t, []string{"a"}, entityIDs(monetary))
}

func TestSummarizeRFM(t *testing.T) {
	s := SummarizeRFM([]models.RFMRow{
		{EntityID: "a", Recency: 1, Frequency: 2, Monetary: money("10")},
		{EntityID: "b", Recency: 4, Frequency: 1, Monetary: money("5")},
	})
	require.NotNil(t, s.AvgRecency)
	assert.InDelta(t, 2.5, *s.AvgRecency, 1e-9)
	require.NotNil(t, s.AvgFrequency)
	assert.InDelta(t, 1.5, *s.AvgFrequency, 1e-9)
	require.NotNil(t, s.AvgMonetary)
	assert.True(t, s.AvgMonetary.Equal(money("7.5")))
	assert.Equal(t, "$7.50", s.AvgMonetaryText)

	empty := SummarizeRFM(nil)
	assert.Nil(t, empty.AvgRecency)
	assert.Nil(t, empty.AvgFrequency)
	assert.Nil(t, empty.AvgMonetary)
}

func TestStateCounts(t *testing.T) {
	rows := mixedRows()

	sellers := StateCounts(rows, SellerEntity)
	assert.Equal(t, []models.StateCount{
		{StateCode: "MG", DistinctCount: 1},
		{StateCode: "RS", DistinctCount: 1},
		{StateCode: "SP", DistinctCount: 1},
	}, sellers)

	customers := StateCounts(rows, CustomerEntity)
	assert.Equal(t, []models.StateCount{
		{StateCode: "RJ", DistinctCount: 1},
		{StateCode: "RS", DistinctCount: 1},
		{StateCode: "SP", DistinctCount: 1},
		{StateCode: UnknownKey, DistinctCount: 1},
	}, customers)

	for _, field := range []EntityField{SellerEntity, CustomerEntity} {
		total := 0
		for _, c := range StateCounts(rows, field) {
			total += c.DistinctCount
		}
		assert.GreaterOrEqual(t, total, DistinctEntities(rows, field), field.String())
	}
}

func TestTopStates(t *testing.T) {
	counts := []models.StateCount{
		{StateCode: "AC", DistinctCount: 1},
		{StateCode: "SP", DistinctCount: 40},
		{StateCode: "RJ", DistinctCount: 12},
	}
	top := TopStates(counts, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "SP", top[0].StateCode)
	assert.Equal(t, "RJ", top[1].StateCode)
}

func TestDistinctEntities(t *testing.T) {
	rows := mixedRows()
	assert.Equal(t, 3, DistinctEntities(rows, SellerEntity))
	assert.Equal(t, 4, DistinctEntities(rows, CustomerEntity))
	assert.Equal(t, 0, DistinctEntities(nil, SellerEntity))
}

func TestParseEntityField(t *testing.T) {
	f, err := ParseEntityField("Sellers")
	require.NoError(t, err)
	assert.Equal(t, SellerEntity, f)

	f, err = ParseEntityField("customer")
	require.NoError(t, err)
	assert.Equal(t, CustomerEntity, f)

	_, err = ParseEntityField("product")
	assert.Error(t, err)
}

func TestSummarize(t *testing.T) {
	m := Summarize(MonthlyRollup(exampleRows()))
	assert.Equal(t, 2, m.TotalOrders)
	assert.True(t, m.TotalRevenue.Equal(money("35")))
	assert.Equal(t, "$35.00", m.TotalRevenueText)
	assert.Equal(t, 3, m.TotalInteractions)
	require.NotNil(t, m.AvgReviewScore)
	assert.InDelta(t, 4.5, *m.AvgReviewScore, 1e-9)

	empty := Summarize(nil)
	assert.Zero(t, empty.TotalOrders)
	assert.Nil(t, empty.AvgReviewScore)
	assert.Equal(t, "$0.00", empty.TotalRevenueText)
}

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"15", "$15.00"},
		{"1234.5", "$1,234.50"},
		{"1234567.891", "$1,234,567.89"},
		{"-42.1", "-$42.10"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatCurrency(money(tt.in)), tt.in)
	}
}

func TestAggregationsAreIdempotent(t *testing.T) {
	rows := mixedRows()
	assert.Equal(t, MonthlyRollup(rows), MonthlyRollup(rows))
	assert.Equal(t, CategoryCounts(rows), CategoryCounts(rows))
	assert.Equal(t, RFM(rows, SellerEntity), RFM(rows, SellerEntity))
	assert.Equal(t, StateCounts(rows, CustomerEntity), StateCounts(rows, CustomerEntity))
}

func entityIDs(rows []models.RFMRow) []string {
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.EntityID)
	}
	return ids
}
