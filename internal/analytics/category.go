package analytics

import (
	"cmp"
	"slices"
	"strings"

	"olist-dashboard/internal/models"
)

// UnknownKey groups rows whose category or state is missing.
const UnknownKey = "unknown"

// CategoryCounts counts rows per product category. The counts always sum to
// len(rows). Output is ordered by category name.
func CategoryCounts(rows []models.OrderRecord) []models.CategoryCount {
	groups := make(map[string]int)
	for _, row := range rows {
		groups[keyOrUnknown(row.ProductCategory)]++
	}

	result := make([]models.CategoryCount, 0, len(groups))
	for category, count := range groups {
		result = append(result, models.CategoryCount{Category: category, OrderCount: count})
	}
	slices.SortFunc(result, func(a, b models.CategoryCount) int {
		return strings.Compare(a.Category, b.Category)
	})
	return result
}

// BestCategories returns the n categories with the most rows.
func BestCategories(counts []models.CategoryCount, n int) []models.CategoryCount {
	return TopN(counts, n, func(a, b models.CategoryCount) int {
		if c := cmp.Compare(b.OrderCount, a.OrderCount); c != 0 {
			return c
		}
		return strings.Compare(a.Category, b.Category)
	})
}

// WorstCategories returns the n categories with the fewest rows, fewest first.
func WorstCategories(counts []models.CategoryCount, n int) []models.CategoryCount {
	return TopN(counts, n, func(a, b models.CategoryCount) int {
		if c := cmp.Compare(a.OrderCount, b.OrderCount); c != 0 {
			return c
		}
		return strings.Compare(a.Category, b.Category)
	})
}

func keyOrUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return UnknownKey
	}
	return s
}
