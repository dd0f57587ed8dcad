package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"olist-dashboard/internal/analytics"
	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/observability"
	"olist-dashboard/internal/services"
)

const (
	cacheControl = "public, max-age=300"
	maxLimit     = 100
)

type APIHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
}

func NewAPIHandlers(dashboard *services.Dashboard, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

// rangeError maps date range failures onto API errors.
func rangeError(err error) *errors.AppError {
	switch {
	case stderrors.Is(err, analytics.ErrInvalidDateRange):
		return errors.ValidationWrap(err, "start date must not be after end date")
	case stderrors.Is(err, services.ErrNoData):
		return errors.Wrap(err, errors.CodeNotFound, "dataset has no approved orders")
	default:
		return errors.BadRequestWrap(err, "dates must use the YYYY-MM-DD format")
	}
}

func (h *APIHandlers) dateRange(r *http.Request) (analytics.DateRange, error) {
	q := r.URL.Query()
	dr, err := h.dashboard.ResolveRange(q.Get("start"), q.Get("end"))
	if err != nil {
		return analytics.DateRange{}, rangeError(err)
	}
	return dr, nil
}

func (h *APIHandlers) limit(r *http.Request) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return h.dashboard.TopN(), nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > maxLimit {
		return 0, errors.BadRequest("limit must be an integer between 1 and 100")
	}
	return n, nil
}

func (h *APIHandlers) entity(r *http.Request) (analytics.EntityField, error) {
	field, err := analytics.ParseEntityField(r.PathValue("entity"))
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeNotFound, "unknown entity")
	}
	return field, nil
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) ok(w http.ResponseWriter, data any) {
	errors.WriteSuccessWithHeaders(w, data, map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleDateRange(w http.ResponseWriter, r *http.Request) {
	bounds, err := h.dashboard.Bounds()
	if err != nil {
		h.fail(w, r, rangeError(err))
		return
	}

	h.ok(w, map[string]string{
		"min": bounds.Min.Format(analytics.DateLayout),
		"max": bounds.Max.Format(analytics.DateLayout),
	})
}

func (h *APIHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	dr, err := h.dateRange(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data, err := h.dashboard.Compute(r.Context(), dr)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.ok(w, data)
}

func (h *APIHandlers) HandleMonthly(w http.ResponseWriter, r *http.Request) {
	dr, err := h.dateRange(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data, err := h.dashboard.Monthly(r.Context(), dr)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.ok(w, data)
}

func (h *APIHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	dr, err := h.dateRange(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	limit, err := h.limit(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var best bool
	switch r.URL.Query().Get("order") {
	case "", "best":
		best = true
	case "worst":
		best = false
	default:
		h.fail(w, r, errors.BadRequest("order must be best or worst"))
		return
	}

	data, err := h.dashboard.Categories(r.Context(), dr, best, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.ok(w, data)
}

func (h *APIHandlers) HandleRFM(w http.ResponseWriter, r *http.Request) {
	field, err := h.entity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dr, err := h.dateRange(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	limit, err := h.limit(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	by, err := services.ParseRFMDimension(r.URL.Query().Get("by"))
	if err != nil {
		h.fail(w, r, errors.BadRequestWrap(err, "invalid RFM dimension"))
		return
	}

	data, err := h.dashboard.RFM(r.Context(), dr, field, by, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.ok(w, data)
}

func (h *APIHandlers) HandleStates(w http.ResponseWriter, r *http.Request) {
	field, err := h.entity(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	dr, err := h.dateRange(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	limit, err := h.limit(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data, err := h.dashboard.States(r.Context(), dr, field, limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.ok(w, data)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.dashboard.Stats())
}
