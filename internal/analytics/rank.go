package analytics

import "slices"

// TopN returns the first n elements of rows ordered by cmp. rows itself is
// left untouched. A non-positive n returns every row.
func TopN[T any](rows []T, n int, cmp func(a, b T) int) []T {
	sorted := slices.Clone(rows)
	if sorted == nil {
		sorted = []T{}
	}
	slices.SortStableFunc(sorted, cmp)
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
