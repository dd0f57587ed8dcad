package analytics

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"olist-dashboard/internal/models"
)

const monthLayout = "2006-01"

type monthAcc struct {
	orders      map[string]struct{}
	revenue     decimal.Decimal
	rows        int
	reviewSum   float64
	reviewCount int
}

// MonthlyRollup groups rows by the calendar month of their approval date.
// OrderCount counts distinct orders, Revenue and RowCount are row-level.
func MonthlyRollup(rows []models.OrderRecord) []models.MonthlyRollup {
	groups := make(map[string]*monthAcc)

	for _, row := range rows {
		if row.ApprovedAt == nil {
			continue
		}
		month := row.ApprovedAt.Format(monthLayout)
		acc := groups[month]
		if acc == nil {
			acc = &monthAcc{orders: make(map[string]struct{})}
			groups[month] = acc
		}
		acc.orders[row.OrderID] = struct{}{}
		acc.revenue = acc.revenue.Add(row.PaymentValue)
		acc.rows++
		if row.ReviewScore != nil {
			acc.reviewSum += *row.ReviewScore
			acc.reviewCount++
		}
	}

	result := make([]models.MonthlyRollup, 0, len(groups))
	for month, acc := range groups {
		m := models.MonthlyRollup{
			Month:      month,
			OrderCount: len(acc.orders),
			Revenue:    acc.revenue,
			RowCount:   acc.rows,
		}
		if acc.reviewCount > 0 {
			avg := acc.reviewSum / float64(acc.reviewCount)
			m.AvgReviewScore = &avg
		}
		result = append(result, m)
	}
	slices.SortFunc(result, func(a, b models.MonthlyRollup) int {
		return strings.Compare(a.Month, b.Month)
	})
	return result
}
