package analytics

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"olist-dashboard/internal/models"
)

// Summarize folds the monthly series into the headline metrics. The review
// score is the mean of the monthly averages, skipping months without reviews.
func Summarize(monthly []models.MonthlyRollup) models.Metrics {
	var m models.Metrics
	var scoreSum float64
	var scoreMonths int

	for _, month := range monthly {
		m.TotalOrders += month.OrderCount
		m.TotalRevenue = m.TotalRevenue.Add(month.Revenue)
		m.TotalInteractions += month.RowCount
		if month.AvgReviewScore != nil {
			scoreSum += *month.AvgReviewScore
			scoreMonths++
		}
	}

	if scoreMonths > 0 {
		avg := scoreSum / float64(scoreMonths)
		m.AvgReviewScore = &avg
	}
	m.TotalRevenueText = FormatCurrency(m.TotalRevenue)
	return m
}

// FormatCurrency renders an amount as US dollars, e.g. "$1,234.50".
func FormatCurrency(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}
	return sign + "$" + humanize.FormatFloat("#,###.##", amount.Round(2).InexactFloat64())
}
