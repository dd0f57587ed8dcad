package handlers

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"olist-dashboard/internal/errors"
	"olist-dashboard/internal/models"
	"olist-dashboard/internal/observability"
	"olist-dashboard/internal/services"
)

var templateFuncs = template.FuncMap{
	"optf": func(v *float64, precision int) string {
		if v == nil {
			return "–"
		}
		return fmt.Sprintf("%.*f", precision, *v)
	},
}

var summaryTemplate = template.Must(template.New("summary").Funcs(templateFuncs).Parse(`
<div id="summary-content">
{{if eq .RowCount 0}}<p class="empty-state">No orders approved between {{.Start}} and {{.End}}.</p>{{end}}
<section class="metrics">
<div class="metric"><span class="label">Total orders</span><span class="value">{{.Metrics.TotalOrders}}</span></div>
<div class="metric"><span class="label">Total Revenue</span><span class="value">{{.Metrics.TotalRevenueText}}</span></div>
<div class="metric"><span class="label">Total Customer</span><span class="value">{{.Metrics.TotalInteractions}}</span></div>
<div class="metric"><span class="label">Average of Review Score</span><span class="value">{{optf .Metrics.AvgReviewScore 2}}</span></div>
</section>
<section class="metrics">
<div class="metric"><span class="label">Total Seller</span><span class="value">{{.Sellers.Total}}</span></div>
<div class="metric"><span class="label">Total Customer</span><span class="value">{{.Customers.Total}}</span></div>
</section>
<table class="modern-table">
<thead><tr><th>RFM</th><th>Average Recency (days)</th><th>Average Frequency</th><th>Average Monetary</th></tr></thead>
<tbody>
<tr><td>Sellers</td><td>{{optf .SellerRFM.Summary.AvgRecency 1}}</td><td>{{optf .SellerRFM.Summary.AvgFrequency 2}}</td><td>{{or .SellerRFM.Summary.AvgMonetaryText "–"}}</td></tr>
<tr><td>Customers</td><td>{{optf .CustomerRFM.Summary.AvgRecency 1}}</td><td>{{optf .CustomerRFM.Summary.AvgFrequency 2}}</td><td>{{or .CustomerRFM.Summary.AvgMonetaryText "–"}}</td></tr>
</tbody>
</table>
</div>`))

var errorTemplate = template.Must(template.New("error").Parse(
	`<div id="summary-content"><p class="error">{{.Message}}{{if .Details}}: {{.Details}}{{end}}</p></div>`))

type dashboardSignals struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type SSEHandlers struct {
	dashboard *services.Dashboard
	logger    *slog.Logger
}

func NewSSEHandlers(dashboard *services.Dashboard, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		dashboard: dashboard,
		logger:    logger,
	}
}

func (h *SSEHandlers) renderSummary(data *models.Dashboard) (string, error) {
	var buf strings.Builder
	err := summaryTemplate.Execute(&buf, data)
	return buf.String(), err
}

func (h *SSEHandlers) renderError(appErr *errors.AppError) string {
	var buf strings.Builder
	if err := errorTemplate.Execute(&buf, appErr); err != nil {
		h.logger.Error("render error fragment", "error", err)
		return `<div id="summary-content"><p class="error">Something went wrong</p></div>`
	}
	return buf.String()
}

// HandleDashboard recomputes the dashboard for the range held in the
// startDate/endDate signals and patches both the summary fragment and the
// dashboard signal used by the charts.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	var signals dashboardSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "invalid signals"), requestID)
		return
	}

	sse := datastar.NewSSE(w, r)

	dr, err := h.dashboard.ResolveRange(signals.StartDate, signals.EndDate)
	if err != nil {
		appErr := rangeError(err)
		h.logger.Warn("rejected dashboard range",
			"start", signals.StartDate,
			"end", signals.EndDate,
			"error", err,
			"request_id", requestID,
		)
		h.patchError(sse, appErr)
		return
	}

	data, err := h.dashboard.Compute(r.Context(), dr)
	if err != nil {
		h.logger.Error("compute dashboard", "error", err, "request_id", requestID)
		h.patchError(sse, errors.As(err))
		return
	}

	html, err := h.renderSummary(data)
	if err != nil {
		h.logger.Error("render summary", "error", err, "request_id", requestID)
		h.patchError(sse, errors.Internal("could not render dashboard"))
		return
	}

	if err := sse.PatchElements(html); err != nil {
		h.logger.Warn("patch summary", "error", err, "request_id", requestID)
		return
	}
	if err := sse.MarshalAndPatchSignals(map[string]any{
		"dashboard": data,
		"error":     "",
	}); err != nil {
		h.logger.Warn("patch dashboard signals", "error", err, "request_id", requestID)
	}
}

func (h *SSEHandlers) patchError(sse *datastar.ServerSentEventGenerator, appErr *errors.AppError) {
	if err := sse.PatchElements(h.renderError(appErr)); err != nil {
		h.logger.Warn("patch error fragment", "error", err)
		return
	}
	msg := appErr.Message
	if appErr.Details != "" {
		msg += ": " + appErr.Details
	}
	if err := sse.MarshalAndPatchSignals(map[string]any{"error": msg}); err != nil {
		h.logger.Warn("patch error signal", "error", err)
	}
}
