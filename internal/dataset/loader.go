package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"olist-dashboard/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

var (
	ErrEmptyFile     = errors.New("empty file")
	ErrMissingColumn = errors.New("missing required column")
)

const (
	colOrderID             = "order_id"
	colCustomerID          = "customer_id"
	colSellerID            = "seller_id"
	colPurchaseTimestamp   = "order_purchase_timestamp"
	colApprovedAt          = "order_approved_at"
	colDeliveredCarrier    = "order_delivered_carrier_date"
	colDeliveredCustomer   = "order_delivered_customer_date"
	colEstimatedDelivery   = "order_estimated_delivery_date"
	colShippingLimit       = "shipping_limit_date"
	colReviewCreation      = "review_creation_date"
	colReviewAnswer        = "review_answer_timestamp"
	colPaymentValue        = "payment_value"
	colReviewScore         = "review_score"
	colProductCategoryName = "product_category_name"
	colSellerState         = "seller_state"
	colCustomerState       = "customer_state"
)

var requiredColumns = []string{
	colOrderID,
	colCustomerID,
	colSellerID,
	colPurchaseTimestamp,
	colApprovedAt,
	colPaymentValue,
	colReviewScore,
	colProductCategoryName,
	colSellerState,
	colCustomerState,
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04",
	"01/02/2006",
}

// LoadStats describes what the loader had to coerce while parsing.
type LoadStats struct {
	Rows               int `json:"rows"`
	MissingApproval    int `json:"missing_approval"`
	InvalidTimestamps  int `json:"invalid_timestamps"`
	InvalidPayments    int `json:"invalid_payments"`
	InvalidReviewScore int `json:"invalid_review_scores"`
}

func (s *LoadStats) add(o LoadStats) {
	s.Rows += o.Rows
	s.MissingApproval += o.MissingApproval
	s.InvalidTimestamps += o.InvalidTimestamps
	s.InvalidPayments += o.InvalidPayments
	s.InvalidReviewScore += o.InvalidReviewScore
}

type Loader struct {
	cacheDir string
	logger   *slog.Logger
}

// NewLoader returns a loader. An empty cacheDir disables the snapshot cache.
func NewLoader(cacheDir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{cacheDir: cacheDir, logger: logger}
}

// LoadFile reads the CSV at path into a snapshot, reusing a cached snapshot
// when it is newer than the file.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Snapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat dataset: %w", err)
	}

	if l.cacheDir != "" {
		if snap, err := l.loadFromCache(path); err == nil && info.ModTime().Before(snap.LoadedAt()) {
			l.logger.Info("loaded dataset from cache", "path", path, "rows", snap.Len())
			return snap, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	start := time.Now()
	snap, err := l.Load(ctx, f)
	if err != nil {
		return nil, err
	}
	snap.source = path

	stats := snap.Stats()
	l.logger.Info("dataset parsed",
		"path", path,
		"rows", stats.Rows,
		"missing_approval", stats.MissingApproval,
		"invalid_timestamps", stats.InvalidTimestamps,
		"invalid_payments", stats.InvalidPayments,
		"duration", time.Since(start),
	)

	if l.cacheDir != "" {
		if err := l.saveToCache(path, snap); err != nil {
			l.logger.Warn("failed to save dataset cache", "error", err)
		}
	}
	return snap, nil
}

// Load parses CSV data from r. Malformed timestamps, payments and review
// scores are coerced rather than rejected; a missing required column is fatal.
func (l *Loader) Load(ctx context.Context, r io.Reader) (*Snapshot, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := indexColumns(header)
	if err != nil {
		return nil, err
	}

	var raw [][]string
	for {
		if len(raw)%batchSize == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(raw)+2, err)
		}
		raw = append(raw, record)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: header without data rows", ErrEmptyFile)
	}

	records, stats, err := parseBatches(ctx, raw, cols)
	if err != nil {
		return nil, err
	}

	return NewSnapshot(records, stats), nil
}

func parseBatches(ctx context.Context, raw [][]string, cols columnIndex) ([]models.OrderRecord, LoadStats, error) {
	records := make([]models.OrderRecord, len(raw))
	batches := (len(raw) + batchSize - 1) / batchSize
	batchStats := make([]LoadStats, batches)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for b := 0; b < batches; b++ {
		lo := b * batchSize
		hi := min(lo+batchSize, len(raw))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for i := lo; i < hi; i++ {
				records[i] = cols.parse(raw[i], &batchStats[b])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, LoadStats{}, err
	}

	var stats LoadStats
	for _, s := range batchStats {
		stats.add(s)
	}
	return records, stats, nil
}

type columnIndex map[string]int

func indexColumns(header []string) (columnIndex, error) {
	cols := make(columnIndex, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}

func (c columnIndex) get(record []string, name string) string {
	i, ok := c[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (c columnIndex) timestamp(record []string, name string, stats *LoadStats) *time.Time {
	v := c.get(record, name)
	if v == "" {
		return nil
	}
	t, ok := parseTimestamp(v)
	if !ok {
		stats.InvalidTimestamps++
		return nil
	}
	return &t
}

func (c columnIndex) parse(record []string, stats *LoadStats) models.OrderRecord {
	stats.Rows++

	rec := models.OrderRecord{
		OrderID:             c.get(record, colOrderID),
		CustomerID:          c.get(record, colCustomerID),
		SellerID:            c.get(record, colSellerID),
		PurchasedAt:         c.timestamp(record, colPurchaseTimestamp, stats),
		ApprovedAt:          c.timestamp(record, colApprovedAt, stats),
		DeliveredCarrierAt:  c.timestamp(record, colDeliveredCarrier, stats),
		DeliveredCustomerAt: c.timestamp(record, colDeliveredCustomer, stats),
		EstimatedDeliveryAt: c.timestamp(record, colEstimatedDelivery, stats),
		ShippingLimitAt:     c.timestamp(record, colShippingLimit, stats),
		ReviewCreatedAt:     c.timestamp(record, colReviewCreation, stats),
		ReviewAnsweredAt:    c.timestamp(record, colReviewAnswer, stats),
		ProductCategory:     c.get(record, colProductCategoryName),
		SellerState:         c.get(record, colSellerState),
		CustomerState:       c.get(record, colCustomerState),
	}
	if rec.ApprovedAt == nil {
		stats.MissingApproval++
	}

	if v := c.get(record, colPaymentValue); v != "" {
		payment, err := decimal.NewFromString(v)
		if err != nil {
			stats.InvalidPayments++
		} else {
			rec.PaymentValue = payment
		}
	}

	if v := c.get(record, colReviewScore); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil {
			stats.InvalidReviewScore++
		} else {
			rec.ReviewScore = &score
		}
	}

	return rec
}

func parseTimestamp(v string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
