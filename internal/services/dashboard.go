package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"olist-dashboard/internal/analytics"
	"olist-dashboard/internal/dataset"
	"olist-dashboard/internal/models"
	"olist-dashboard/internal/observability"
)

const DefaultTopN = 5

var ErrNoData = errors.New("dataset has no approved orders")

// RFMDimension selects the ordering of an RFM leaderboard.
type RFMDimension string

const (
	ByRecency   RFMDimension = "recency"
	ByFrequency RFMDimension = "frequency"
	ByMonetary  RFMDimension = "monetary"
)

func ParseRFMDimension(s string) (RFMDimension, error) {
	switch d := RFMDimension(s); d {
	case ByRecency, ByFrequency, ByMonetary:
		return d, nil
	case "":
		return ByMonetary, nil
	default:
		return "", fmt.Errorf("unknown RFM dimension %q, must be recency, frequency or monetary", s)
	}
}

// Dashboard serves every aggregate of the dashboard from an immutable
// snapshot. Each call filters and aggregates from scratch.
type Dashboard struct {
	mu           sync.RWMutex
	snapshot     *dataset.Snapshot
	topN         int
	computations atomic.Int64
	logger       *slog.Logger
}

func NewDashboard(snapshot *dataset.Snapshot, topN int, logger *slog.Logger) *Dashboard {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{
		snapshot: snapshot,
		topN:     topN,
		logger:   logger,
	}
}

// SetSnapshot swaps the dataset served by the dashboard.
func (d *Dashboard) SetSnapshot(snapshot *dataset.Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snapshot = snapshot
}

func (d *Dashboard) current() *dataset.Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.snapshot
}

func (d *Dashboard) TopN() int {
	return d.topN
}

func (d *Dashboard) Bounds() (models.DateBounds, error) {
	bounds, ok := d.current().Bounds()
	if !ok {
		return models.DateBounds{}, ErrNoData
	}
	return bounds, nil
}

// ResolveRange parses start and end (YYYY-MM-DD). A blank value defaults to
// the matching dataset bound.
func (d *Dashboard) ResolveRange(start, end string) (analytics.DateRange, error) {
	bounds, err := d.Bounds()
	if err != nil && (start == "" || end == "") {
		return analytics.DateRange{}, err
	}
	if start == "" {
		start = bounds.Min.Format(analytics.DateLayout)
	}
	if end == "" {
		end = bounds.Max.Format(analytics.DateLayout)
	}
	return analytics.ParseDateRange(start, end)
}

func (d *Dashboard) filter(ctx context.Context, r analytics.DateRange) ([]models.OrderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return analytics.Filter(d.current().Records(), r)
}

// Compute builds the full dashboard payload for r.
func (d *Dashboard) Compute(ctx context.Context, r analytics.DateRange) (*models.Dashboard, error) {
	ctx, span := observability.StartSpan(ctx, "dashboard.compute")
	defer func() {
		span.Finish()
		d.logger.Debug("dashboard computed", "range", r.String(), "span", span)
	}()
	span.SetTag("range", r.String())

	rows, err := d.filter(ctx, r)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	d.computations.Add(1)

	monthly := analytics.MonthlyRollup(rows)
	categories := analytics.CategoryCounts(rows)

	if err := ctx.Err(); err != nil {
		span.SetError(err)
		return nil, err
	}

	sellerRFM := analytics.RFM(rows, analytics.SellerEntity)
	customerRFM := analytics.RFM(rows, analytics.CustomerEntity)

	if err := ctx.Err(); err != nil {
		span.SetError(err)
		return nil, err
	}

	return &models.Dashboard{
		Start:           r.Start.Format(analytics.DateLayout),
		End:             r.End.Format(analytics.DateLayout),
		RowCount:        len(rows),
		Metrics:         analytics.Summarize(monthly),
		Monthly:         monthly,
		BestCategories:  analytics.BestCategories(categories, d.topN),
		WorstCategories: analytics.WorstCategories(categories, d.topN),
		Sellers:         d.demographics(rows, analytics.SellerEntity),
		Customers:       d.demographics(rows, analytics.CustomerEntity),
		SellerRFM:       d.leaderboard(sellerRFM),
		CustomerRFM:     d.leaderboard(customerRFM),
	}, nil
}

func (d *Dashboard) demographics(rows []models.OrderRecord, field analytics.EntityField) models.Demographics {
	return models.Demographics{
		Total:     analytics.DistinctEntities(rows, field),
		TopStates: analytics.TopStates(analytics.StateCounts(rows, field), d.topN),
	}
}

func (d *Dashboard) leaderboard(rows []models.RFMRow) models.RFMLeaderboard {
	return models.RFMLeaderboard{
		Summary:     analytics.SummarizeRFM(rows),
		ByRecency:   analytics.TopByRecency(rows, d.topN),
		ByFrequency: analytics.TopByFrequency(rows, d.topN),
		ByMonetary:  analytics.TopByMonetary(rows, d.topN),
	}
}

func (d *Dashboard) Monthly(ctx context.Context, r analytics.DateRange) ([]models.MonthlyRollup, error) {
	rows, err := d.filter(ctx, r)
	if err != nil {
		return nil, err
	}
	return analytics.MonthlyRollup(rows), nil
}

// Categories returns the best (most rows) or worst (fewest rows) categories.
func (d *Dashboard) Categories(ctx context.Context, r analytics.DateRange, best bool, limit int) ([]models.CategoryCount, error) {
	rows, err := d.filter(ctx, r)
	if err != nil {
		return nil, err
	}
	counts := analytics.CategoryCounts(rows)
	if best {
		return analytics.BestCategories(counts, limit), nil
	}
	return analytics.WorstCategories(counts, limit), nil
}

func (d *Dashboard) RFM(ctx context.Context, r analytics.DateRange, field analytics.EntityField, by RFMDimension, limit int) ([]models.RFMRow, error) {
	rows, err := d.filter(ctx, r)
	if err != nil {
		return nil, err
	}
	table := analytics.RFM(rows, field)
	switch by {
	case ByRecency:
		return analytics.TopByRecency(table, limit), nil
	case ByFrequency:
		return analytics.TopByFrequency(table, limit), nil
	default:
		return analytics.TopByMonetary(table, limit), nil
	}
}

func (d *Dashboard) States(ctx context.Context, r analytics.DateRange, field analytics.EntityField, limit int) ([]models.StateCount, error) {
	rows, err := d.filter(ctx, r)
	if err != nil {
		return nil, err
	}
	return analytics.TopStates(analytics.StateCounts(rows, field), limit), nil
}

// Stats reports dataset and usage figures for monitoring.
func (d *Dashboard) Stats() map[string]any {
	snap := d.current()
	stats := map[string]any{
		"record_count": snap.Len(),
		"source":       snap.Source(),
		"loaded_at":    snap.LoadedAt().Format(time.RFC3339),
		"load_stats":   snap.Stats(),
		"computations": d.computations.Load(),
		"top_n":        d.topN,
	}
	if bounds, ok := snap.Bounds(); ok {
		stats["min_approved"] = bounds.Min.Format(analytics.DateLayout)
		stats["max_approved"] = bounds.Max.Format(analytics.DateLayout)
	}
	return stats
}
