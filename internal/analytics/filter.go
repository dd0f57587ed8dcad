package analytics

import (
	"errors"
	"fmt"
	"time"

	"olist-dashboard/internal/models"
)

const DateLayout = "2006-01-02"

var ErrInvalidDateRange = errors.New("invalid date range")

// DateRange is an inclusive range of calendar dates. Time of day is ignored.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: dayOf(start), End: dayOf(end)}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// ParseDateRange parses two YYYY-MM-DD dates.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("parse start date %q: %w", start, err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("parse end date %q: %w", end, err)
	}
	return NewDateRange(s, e)
}

func (r DateRange) Validate() error {
	if dayOf(r.Start).After(dayOf(r.End)) {
		return fmt.Errorf("%w: start date %s is after end date %s",
			ErrInvalidDateRange, r.Start.Format(DateLayout), r.End.Format(DateLayout))
	}
	return nil
}

// Contains reports whether the calendar date of t lies inside the range.
func (r DateRange) Contains(t time.Time) bool {
	d := dayOf(t)
	return !d.Before(dayOf(r.Start)) && !d.After(dayOf(r.End))
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

// Filter returns the records approved inside r. Records without an approval
// timestamp never match. The result is a new slice; records is not modified.
func Filter(records []models.OrderRecord, r DateRange) ([]models.OrderRecord, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	out := make([]models.OrderRecord, 0)
	for _, rec := range records {
		if rec.ApprovedAt == nil {
			continue
		}
		if r.Contains(*rec.ApprovedAt) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Bounds returns the earliest and latest approval dates. ok is false when no
// record carries an approval timestamp.
func Bounds(records []models.OrderRecord) (bounds models.DateBounds, ok bool) {
	for _, rec := range records {
		if rec.ApprovedAt == nil {
			continue
		}
		d := dayOf(*rec.ApprovedAt)
		if !ok || d.Before(bounds.Min) {
			bounds.Min = d
		}
		if !ok || d.After(bounds.Max) {
			bounds.Max = d
		}
		ok = true
	}
	return bounds, ok
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
