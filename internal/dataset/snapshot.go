package dataset

import (
	"slices"
	"time"

	"olist-dashboard/internal/analytics"
	"olist-dashboard/internal/models"
)

// Snapshot is an immutable, loaded dataset ordered by purchase timestamp.
// Records without a purchase timestamp sort last.
type Snapshot struct {
	records   []models.OrderRecord
	bounds    models.DateBounds
	hasBounds bool
	stats     LoadStats
	source    string
	loadedAt  time.Time
}

// NewSnapshot takes ownership of records.
func NewSnapshot(records []models.OrderRecord, stats LoadStats) *Snapshot {
	slices.SortStableFunc(records, func(a, b models.OrderRecord) int {
		switch {
		case a.PurchasedAt == nil && b.PurchasedAt == nil:
			return 0
		case a.PurchasedAt == nil:
			return 1
		case b.PurchasedAt == nil:
			return -1
		}
		return a.PurchasedAt.Compare(*b.PurchasedAt)
	})

	bounds, ok := analytics.Bounds(records)
	return &Snapshot{
		records:   records,
		bounds:    bounds,
		hasBounds: ok,
		stats:     stats,
		loadedAt:  time.Now(),
	}
}

// Records returns the rows of the snapshot. Callers must not modify them.
func (s *Snapshot) Records() []models.OrderRecord {
	return s.records
}

func (s *Snapshot) Len() int {
	return len(s.records)
}

// Bounds returns the min and max approval dates. ok is false when no row has
// an approval timestamp.
func (s *Snapshot) Bounds() (models.DateBounds, bool) {
	return s.bounds, s.hasBounds
}

// DefaultRange spans the whole dataset.
func (s *Snapshot) DefaultRange() (analytics.DateRange, bool) {
	if !s.hasBounds {
		return analytics.DateRange{}, false
	}
	return analytics.DateRange{Start: s.bounds.Min, End: s.bounds.Max}, true
}

func (s *Snapshot) Stats() LoadStats {
	return s.stats
}

func (s *Snapshot) Source() string {
	return s.source
}

func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}
