package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"olist-dashboard/internal/analytics"
	"olist-dashboard/internal/models"
)

// Page holds what the dashboard shell needs before the first SSE round trip.
type Page struct {
	Title  string
	Bounds models.DateBounds
	TopN   int
}

// Dashboard renders the page shell. Date inputs start at the dataset bounds;
// everything else is filled in by /sse/dashboard.
func Dashboard(page Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		minDate := page.Bounds.Min.Format(analytics.DateLayout)
		maxDate := page.Bounds.Max.Format(analytics.DateLayout)

		signals, err := json.Marshal(map[string]any{
			"startDate": minDate,
			"endDate":   maxDate,
			"dashboard": nil,
			"error":     "",
		})
		if err != nil {
			return fmt.Errorf("marshal signals: %w", err)
		}

		_, err = fmt.Fprintf(w, pageHTML,
			templ.EscapeString(page.Title),
			templ.EscapeString(string(signals)),
			templ.EscapeString(page.Title),
			templ.EscapeString(minDate), templ.EscapeString(maxDate),
			templ.EscapeString(minDate), templ.EscapeString(maxDate),
			page.TopN, page.TopN,
			page.TopN, page.TopN,
			page.TopN,
		)
		return err
	})
}

const pageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"></script>
<script src="https://cdn.jsdelivr.net/npm/chart.js@4.4.1/dist/chart.umd.min.js"></script>
<script src="/static/charts.js" defer></script>
</head>
<body data-signals="%s" data-init="@get('/sse/dashboard')">
<header><h1>%s</h1></header>
<aside class="filters">
<label>Start date <input type="date" data-bind="startDate" min="%s" max="%s" data-on:change="@get('/sse/dashboard')"></label>
<label>End date <input type="date" data-bind="endDate" min="%s" max="%s" data-on:change="@get('/sse/dashboard')"></label>
<p class="error" data-show="$error" data-text="$error"></p>
</aside>
<main data-effect="window.renderDashboard && window.renderDashboard($dashboard)">
<h2>Sales Performance</h2>
<div id="summary-content"><p>Loading…</p></div>
<div class="charts">
<canvas id="monthly-orders"></canvas>
<canvas id="monthly-revenue"></canvas>
</div>
<h2>Best &amp; Worst Performing Product</h2>
<div class="charts">
<canvas id="best-categories" data-limit="%d"></canvas>
<canvas id="worst-categories" data-limit="%d"></canvas>
</div>
<h2>Demographics</h2>
<div class="charts">
<canvas id="seller-states" data-limit="%d"></canvas>
<canvas id="customer-states" data-limit="%d"></canvas>
</div>
<h2>Best Seller and Customer Based on RFM Parameters</h2>
<div class="charts" data-limit="%d">
<canvas id="seller-rfm-recency"></canvas>
<canvas id="seller-rfm-frequency"></canvas>
<canvas id="seller-rfm-monetary"></canvas>
<canvas id="customer-rfm-recency"></canvas>
<canvas id="customer-rfm-frequency"></canvas>
<canvas id="customer-rfm-monetary"></canvas>
</div>
</main>
</body>
</html>
`
