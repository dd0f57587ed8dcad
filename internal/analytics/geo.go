package analytics

import (
	"cmp"
	"slices"
	"strings"

	"olist-dashboard/internal/models"
)

// StateCounts counts distinct entity ids per state. Rows without an entity id
// are ignored, rows without a state land in the unknown bucket.
func StateCounts(rows []models.OrderRecord, field EntityField) []models.StateCount {
	groups := make(map[string]map[string]struct{})
	for _, row := range rows {
		id := field.id(row)
		if id == "" {
			continue
		}
		state := keyOrUnknown(field.state(row))
		ids := groups[state]
		if ids == nil {
			ids = make(map[string]struct{})
			groups[state] = ids
		}
		ids[id] = struct{}{}
	}

	result := make([]models.StateCount, 0, len(groups))
	for state, ids := range groups {
		result = append(result, models.StateCount{StateCode: state, DistinctCount: len(ids)})
	}
	slices.SortFunc(result, func(a, b models.StateCount) int {
		return strings.Compare(a.StateCode, b.StateCode)
	})
	return result
}

func TopStates(counts []models.StateCount, n int) []models.StateCount {
	return TopN(counts, n, func(a, b models.StateCount) int {
		if c := cmp.Compare(b.DistinctCount, a.DistinctCount); c != 0 {
			return c
		}
		return strings.Compare(a.StateCode, b.StateCode)
	})
}

// DistinctEntities counts the distinct non-empty entity ids in rows.
func DistinctEntities(rows []models.OrderRecord, field EntityField) int {
	seen := make(map[string]struct{})
	for _, row := range rows {
		if id := field.id(row); id != "" {
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}
