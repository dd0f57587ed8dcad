package analytics

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"olist-dashboard/internal/models"
)

// EntityField selects which identifier (and matching state column) an RFM or
// geographic rollup groups by.
type EntityField int

const (
	SellerEntity EntityField = iota
	CustomerEntity
)

func ParseEntityField(s string) (EntityField, error) {
	switch strings.ToLower(s) {
	case "seller", "sellers":
		return SellerEntity, nil
	case "customer", "customers":
		return CustomerEntity, nil
	default:
		return 0, fmt.Errorf("unknown entity %q, must be seller or customer", s)
	}
}

func (f EntityField) String() string {
	if f == CustomerEntity {
		return "customer"
	}
	return "seller"
}

func (f EntityField) id(row models.OrderRecord) string {
	if f == CustomerEntity {
		return row.CustomerID
	}
	return row.SellerID
}

func (f EntityField) state(row models.OrderRecord) string {
	if f == CustomerEntity {
		return row.CustomerState
	}
	return row.SellerState
}

type rfmAcc struct {
	last      time.Time
	frequency int
	monetary  decimal.Decimal
}

// RFM computes one recency/frequency/monetary row per entity. Recency is the
// number of days between the latest approval date in rows and the entity's
// own latest approval date, so it is never negative. Rows without an
// approval date or entity id are ignored. Output is ordered by entity id.
func RFM(rows []models.OrderRecord, field EntityField) []models.RFMRow {
	groups := make(map[string]*rfmAcc)
	var latest time.Time

	for _, row := range rows {
		if row.ApprovedAt == nil {
			continue
		}
		id := field.id(row)
		if id == "" {
			continue
		}
		day := dayOf(*row.ApprovedAt)
		if day.After(latest) {
			latest = day
		}

		acc := groups[id]
		if acc == nil {
			acc = &rfmAcc{last: day}
			groups[id] = acc
		}
		if day.After(acc.last) {
			acc.last = day
		}
		acc.frequency++
		acc.monetary = acc.monetary.Add(row.PaymentValue)
	}

	result := make([]models.RFMRow, 0, len(groups))
	for id, acc := range groups {
		result = append(result, models.RFMRow{
			EntityID:  id,
			Recency:   int(latest.Sub(acc.last).Hours() / 24),
			Frequency: acc.frequency,
			Monetary:  acc.monetary,
		})
	}
	slices.SortFunc(result, func(a, b models.RFMRow) int {
		return strings.Compare(a.EntityID, b.EntityID)
	})
	return result
}

// TopByRecency returns the n most recently active entities.
func TopByRecency(rows []models.RFMRow, n int) []models.RFMRow {
	return TopN(rows, n, func(a, b models.RFMRow) int {
		if c := cmp.Compare(a.Recency, b.Recency); c != 0 {
			return c
		}
		return strings.Compare(a.EntityID, b.EntityID)
	})
}

func TopByFrequency(rows []models.RFMRow, n int) []models.RFMRow {
	return TopN(rows, n, func(a, b models.RFMRow) int {
		if c := cmp.Compare(b.Frequency, a.Frequency); c != 0 {
			return c
		}
		return strings.Compare(a.EntityID, b.EntityID)
	})
}

func TopByMonetary(rows []models.RFMRow, n int) []models.RFMRow {
	return TopN(rows, n, func(a, b models.RFMRow) int {
		if c := b.Monetary.Cmp(a.Monetary); c != 0 {
			return c
		}
		return strings.Compare(a.EntityID, b.EntityID)
	})
}

// SummarizeRFM averages each RFM dimension. All averages are nil when rows
// is empty.
func SummarizeRFM(rows []models.RFMRow) models.RFMSummary {
	if len(rows) == 0 {
		return models.RFMSummary{}
	}

	var recency, frequency int
	var monetary decimal.Decimal
	for _, row := range rows {
		recency += row.Recency
		frequency += row.Frequency
		monetary = monetary.Add(row.Monetary)
	}

	n := float64(len(rows))
	avgRecency := float64(recency) / n
	avgFrequency := float64(frequency) / n
	avgMonetary := monetary.Div(decimal.NewFromInt(int64(len(rows))))

	return models.RFMSummary{
		AvgRecency:      &avgRecency,
		AvgFrequency:    &avgFrequency,
		AvgMonetary:     &avgMonetary,
		AvgMonetaryText: FormatCurrency(avgMonetary),
	}
}
