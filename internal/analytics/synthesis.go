package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/vibeloop/ops-copilot/internal/dataset"
)

// Metric is one headline figure, pre-formatted for display.
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Panel is a captioned table used as on-screen evidence or chart data.
type Panel struct {
	Title   string   `json:"title"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// sumColumn totals the present numeric values of a column; missing cells are
// skipped, an absent column sums to 0.
func sumColumn(t *dataset.Table, column string) float64 {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return 0
	}
	var sum float64
	for _, row := range t.Rows {
		if row[idx].NumOK {
			sum += row[idx].Num
		}
	}
	return sum
}

// BuildMetrics assembles the headline metrics in display order. Which
// metrics appear depends on which columns the dataset carries; total
// expenses is always reported, reading as zero when the column is absent.
func (e *Engine) BuildMetrics(t *dataset.Table) []Metric {
	var metrics []Metric

	hasRevenue := t.HasColumn("revenue")
	totalExpenses := sumColumn(t, "expenses")

	if hasRevenue {
		metrics = append(metrics, Metric{Label: "Total revenue", Value: money(sumColumn(t, "revenue"))})
	}
	metrics = append(metrics, Metric{Label: "Total expenses", Value: money(totalExpenses)})
	if hasRevenue {
		metrics = append(metrics, Metric{Label: "Net income", Value: money(sumColumn(t, "revenue") - totalExpenses)})
	}
	if t.HasColumn("units_sold") {
		metrics = append(metrics, Metric{Label: "Units sold", Value: thousands(sumColumn(t, "units_sold"))})
	}

	if name, revenue, ok := e.topItem(t); ok {
		metrics = append(metrics, Metric{
			Label: "Top item",
			Value: fmt.Sprintf("%s (%s)", name, money(revenue)),
		})
	}

	return metrics
}

// topItem finds the item with the highest summed revenue. Ties keep the
// first-seen item so the result is deterministic.
func (e *Engine) topItem(t *dataset.Table) (string, float64, bool) {
	itemIdx := t.ColumnIndex("item")
	revIdx := t.ColumnIndex("revenue")
	if itemIdx < 0 || revIdx < 0 {
		return "", 0, false
	}

	sums := make(map[string]float64)
	var order []string
	for _, row := range t.Rows {
		item := strings.TrimSpace(row[itemIdx].Raw)
		if item == "" {
			continue
		}
		if _, seen := sums[item]; !seen {
			order = append(order, item)
		}
		if row[revIdx].NumOK {
			sums[item] += row[revIdx].Num
		} else {
			sums[item] += 0
		}
	}
	if len(order) == 0 {
		return "", 0, false
	}

	best := order[0]
	for _, item := range order[1:] {
		if sums[item] > sums[best] {
			best = item
		}
	}
	return best, sums[best], true
}

// renderDates returns a copy of a derived table with the given time column
// rendered as plain calendar-date strings.
func renderDates(d Derived, column string) Derived {
	out := Derived{Columns: d.Columns, Rows: make([]Row, len(d.Rows))}
	for i, row := range d.Rows {
		copied := make(Row, len(row))
		for k, v := range row {
			copied[k] = v
		}
		if ts, ok := copied[column].(time.Time); ok {
			copied[column] = ts.Format("2006-01-02")
		}
		out.Rows[i] = copied
	}
	return out
}

// BuildEvidence assembles the evidence panels backing the answer: weekly
// revenue trend, trending items, and revenue anomalies. Windows that came
// back empty contribute nothing.
func (e *Engine) BuildEvidence(t *dataset.Table) []Panel {
	var evidence []Panel

	if weekly := e.WeeklyRevenue(t); !weekly.Empty() {
		rendered := renderDates(weekly, "week")
		evidence = append(evidence, Panel{
			Title:   "Weekly revenue trend",
			Columns: rendered.Columns,
			Rows:    rendered.Rows,
		})
	}

	if trending := e.TrendingItems(t); !trending.Empty() {
		evidence = append(evidence, Panel{
			Title:   "Trending items (last 7 days)",
			Columns: trending.Columns,
			Rows:    trending.Rows,
		})
	}

	if anomalies := e.Anomalies(t); !anomalies.Empty() {
		rendered := renderDates(anomalies, "date")
		evidence = append(evidence, Panel{
			Title:   "Revenue anomalies",
			Columns: rendered.Columns,
			Rows:    rendered.Rows,
		})
	}

	return evidence
}

// BuildCharts assembles the chart tables: a single daily financials series
// when it exists.
func (e *Engine) BuildCharts(t *dataset.Table) []Panel {
	daily := e.DailyFinancials(t)
	if daily.Empty() {
		return nil
	}
	rendered := renderDates(daily, "date")
	return []Panel{{
		Title:   "Daily financials",
		Columns: rendered.Columns,
		Rows:    rendered.Rows,
	}}
}

// displayName picks the name shown for a reorder row: item, then sku, then a
// generic placeholder.
func displayName(row Row) string {
	if name := row.Str("item"); name != "" {
		return name
	}
	if name := row.Str("sku"); name != "" {
		return name
	}
	return "Item"
}

// BuildActions assembles the recommended actions: up to three reorder calls
// for the most urgent inventory, a revenue-drop warning when the latest week
// fell below the prior one, and a generic promo suggestion only when nothing
// else qualified. The list is never empty.
func (e *Engine) BuildActions(t *dataset.Table) []string {
	var actions []string

	reorder := e.ReorderList(t)
	top := reorder.Rows
	if len(top) > 3 {
		top = top[:3]
	}
	for _, row := range top {
		actions = append(actions, fmt.Sprintf(
			"Reorder %s: only %s on hand with ~%s/day demand.",
			displayName(row),
			wholeNumber(row.Num("inventory_on_hand")),
			oneDecimal(row.Num("avg_daily_units")),
		))
	}

	if t.HasColumn("revenue") && t.HasColumn("date") {
		weekly := e.WeeklyRevenue(t)
		if len(weekly.Rows) >= 2 {
			last := weekly.Rows[len(weekly.Rows)-1].Num("revenue")
			prev := weekly.Rows[len(weekly.Rows)-2].Num("revenue")
			if prev > 0 && last < prev {
				drop := (prev - last) / prev * 100
				actions = append(actions, fmt.Sprintf(
					"Revenue dropped %s%% vs prior week. Consider a limited-time promo on slow movers.",
					oneDecimal(drop),
				))
			}
		}
	}

	if len(actions) == 0 {
		actions = append(actions, "Run a weekend promo on top-selling items to sustain momentum.")
	}

	return actions
}
