package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/vibeloop/ops-copilot/internal/dataset"
)

// epsilon guards every division in the engine so a zero denominator yields a
// large-but-finite result instead of Inf.
const epsilon = 1e-6

// weekStart truncates a date to the Monday of its ISO week, at midnight UTC.
func weekStart(d time.Time) time.Time {
	day := dayOf(d)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// dayOf truncates a timestamp to its calendar date, at midnight UTC.
func dayOf(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// WeeklyRevenue buckets rows into ISO weeks and sums revenue per week,
// returning the most recent weeks in ascending order. Requires date and
// revenue columns; rows without a valid date are dropped.
func (e *Engine) WeeklyRevenue(t *dataset.Table) Derived {
	if !t.HasColumn("date") || !t.HasColumn("revenue") {
		return Derived{}
	}

	sums := make(map[time.Time]float64)
	dateIdx := t.ColumnIndex("date")
	revIdx := t.ColumnIndex("revenue")
	for _, row := range t.Rows {
		if !row[dateIdx].DateOK {
			continue
		}
		week := weekStart(row[dateIdx].Date)
		if row[revIdx].NumOK {
			sums[week] += row[revIdx].Num
		} else {
			sums[week] += 0
		}
	}

	weeks := make([]time.Time, 0, len(sums))
	for w := range sums {
		weeks = append(weeks, w)
	}
	sort.Slice(weeks, func(i, j int) bool { return weeks[i].Before(weeks[j]) })
	if len(weeks) > e.params.WeeklyWeeks {
		weeks = weeks[len(weeks)-e.params.WeeklyWeeks:]
	}

	d := Derived{Columns: []string{"week", "revenue"}}
	for _, w := range weeks {
		d.Rows = append(d.Rows, Row{"week": w, "revenue": sums[w]})
	}
	return d
}

// dayEntry is one point of a per-date revenue series.
type dayEntry struct {
	date    time.Time
	revenue float64
}

// dailyRevenue sums revenue per calendar date, ascending. Rows without a
// valid date are dropped; a date whose revenue cells are all missing still
// appears with a zero sum.
func dailyRevenue(t *dataset.Table) []dayEntry {
	sums := make(map[time.Time]float64)
	dateIdx := t.ColumnIndex("date")
	revIdx := t.ColumnIndex("revenue")
	for _, row := range t.Rows {
		if !row[dateIdx].DateOK {
			continue
		}
		day := dayOf(row[dateIdx].Date)
		if row[revIdx].NumOK {
			sums[day] += row[revIdx].Num
		} else {
			sums[day] += 0
		}
	}

	entries := make([]dayEntry, 0, len(sums))
	for day, rev := range sums {
		entries = append(entries, dayEntry{date: day, revenue: rev})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].date.Before(entries[j].date) })
	return entries
}

// DailyFinancials sums revenue and expenses per calendar date and computes
// net income, returning the most recent days in ascending order. Requires
// date and revenue; an absent expenses column reads as zero expense per day.
func (e *Engine) DailyFinancials(t *dataset.Table) Derived {
	if !t.HasColumn("date") || !t.HasColumn("revenue") {
		return Derived{}
	}

	entries := dailyRevenue(t)

	expenses := make(map[time.Time]float64)
	if expIdx := t.ColumnIndex("expenses"); expIdx >= 0 {
		dateIdx := t.ColumnIndex("date")
		for _, row := range t.Rows {
			if !row[dateIdx].DateOK || !row[expIdx].NumOK {
				continue
			}
			expenses[dayOf(row[dateIdx].Date)] += row[expIdx].Num
		}
	}

	if len(entries) > e.params.DailyDays {
		entries = entries[len(entries)-e.params.DailyDays:]
	}

	d := Derived{Columns: []string{"date", "revenue", "expenses", "net_income"}}
	for _, entry := range entries {
		exp := expenses[entry.date]
		d.Rows = append(d.Rows, Row{
			"date":       entry.date,
			"revenue":    entry.revenue,
			"expenses":   exp,
			"net_income": entry.revenue - exp,
		})
	}
	return d
}

// TrendingItems compares per-item unit sales between the last 7 days and the
// 7 days before them, anchored at the maximum date in the dataset (a fixed
// offset window, not calendar weeks). Items absent from one window count as
// zero there. Returns the largest gainers first.
func (e *Engine) TrendingItems(t *dataset.Table) Derived {
	if !t.HasColumn("date") || !t.HasColumn("item") || !t.HasColumn("units_sold") {
		return Derived{}
	}

	dateIdx := t.ColumnIndex("date")
	itemIdx := t.ColumnIndex("item")
	unitsIdx := t.ColumnIndex("units_sold")

	var lastDate time.Time
	found := false
	for _, row := range t.Rows {
		if row[dateIdx].DateOK && (!found || row[dateIdx].Date.After(lastDate)) {
			lastDate = row[dateIdx].Date
			found = true
		}
	}
	if !found {
		return Derived{}
	}

	lastWeekStart := lastDate.AddDate(0, 0, -6)
	priorWeekStart := lastWeekStart.AddDate(0, 0, -7)

	lastWeek := make(map[string]float64)
	priorWeek := make(map[string]float64)
	for _, row := range t.Rows {
		if !row[dateIdx].DateOK {
			continue
		}
		item := strings.TrimSpace(row[itemIdx].Raw)
		if item == "" {
			continue
		}
		units := 0.0
		if row[unitsIdx].NumOK {
			units = row[unitsIdx].Num
		}

		date := row[dateIdx].Date
		switch {
		case !date.Before(lastWeekStart) && !date.After(lastDate):
			lastWeek[item] += units
		case !date.Before(priorWeekStart) && date.Before(lastWeekStart):
			priorWeek[item] += units
		}
	}

	items := make(map[string]bool)
	for item := range lastWeek {
		items[item] = true
	}
	for item := range priorWeek {
		items[item] = true
	}

	d := Derived{Columns: []string{"item", "last_week", "prior_week", "change"}}
	for item := range items {
		last := lastWeek[item]
		prior := priorWeek[item]
		d.Rows = append(d.Rows, Row{
			"item":       item,
			"last_week":  last,
			"prior_week": prior,
			"change":     last - prior,
		})
	}
	sort.SliceStable(d.Rows, func(i, j int) bool {
		ci, cj := d.Rows[i].Num("change"), d.Rows[j].Num("change")
		if ci != cj {
			return ci > cj
		}
		return d.Rows[i].Str("item") < d.Rows[j].Str("item")
	})
	if len(d.Rows) > e.params.TrendingTop {
		d.Rows = d.Rows[:e.params.TrendingTop]
	}
	return d
}

// reorderGroup accumulates per-group demand and inventory sums.
type reorderGroup struct {
	parts   []string
	demand  float64
	demandN int
	invSum  float64
	invN    int
}

// ReorderList ranks inventory groups by weeks of cover, most urgent first.
// Requires inventory_on_hand; rows are grouped by whichever of item, sku and
// category exist. Demand is the mean units_sold over rows where it is
// present, inventory the mean on-hand count; a zero demand is guarded by
// epsilon so cover stays finite.
func (e *Engine) ReorderList(t *dataset.Table) Derived {
	if !t.HasColumn("inventory_on_hand") {
		return Derived{}
	}

	var groupCols []string
	for _, c := range []string{"item", "sku", "category"} {
		if t.HasColumn(c) {
			groupCols = append(groupCols, c)
		}
	}
	if len(groupCols) == 0 {
		return Derived{}
	}

	groupIdx := make([]int, len(groupCols))
	for i, c := range groupCols {
		groupIdx[i] = t.ColumnIndex(c)
	}
	invIdx := t.ColumnIndex("inventory_on_hand")
	unitsIdx := t.ColumnIndex("units_sold")

	groups := make(map[string]*reorderGroup)
	for _, row := range t.Rows {
		parts := make([]string, len(groupIdx))
		complete := true
		for i, idx := range groupIdx {
			parts[i] = strings.TrimSpace(row[idx].Raw)
			if parts[i] == "" {
				complete = false
			}
		}
		if !complete {
			continue
		}
		key := strings.Join(parts, "\x1f")

		g, ok := groups[key]
		if !ok {
			g = &reorderGroup{parts: parts}
			groups[key] = g
		}
		if unitsIdx >= 0 && row[unitsIdx].NumOK {
			g.demand += row[unitsIdx].Num
			g.demandN++
		}
		if row[invIdx].NumOK {
			g.invSum += row[invIdx].Num
			g.invN++
		}
	}

	columns := append(append([]string(nil), groupCols...),
		"avg_daily_units", "inventory_on_hand", "weeks_of_cover")
	d := Derived{Columns: columns}
	for _, g := range groups {
		avg := 0.0
		if g.demandN > 0 {
			avg = g.demand / float64(g.demandN)
		}
		inv := 0.0
		if g.invN > 0 {
			inv = g.invSum / float64(g.invN)
		}
		row := Row{
			"avg_daily_units":   avg,
			"inventory_on_hand": inv,
			"weeks_of_cover":    inv / (avg*7 + epsilon),
		}
		for i, c := range groupCols {
			row[c] = g.parts[i]
		}
		d.Rows = append(d.Rows, row)
	}
	sort.SliceStable(d.Rows, func(i, j int) bool {
		wi, wj := d.Rows[i].Num("weeks_of_cover"), d.Rows[j].Num("weeks_of_cover")
		if wi != wj {
			return wi < wj
		}
		return d.Rows[i].Str(groupCols[0]) < d.Rows[j].Str(groupCols[0])
	})
	if len(d.Rows) > e.params.ReorderTop {
		d.Rows = d.Rows[:e.params.ReorderTop]
	}
	return d
}

// Anomalies flags days whose revenue deviates from the dataset's own
// baseline by at least the configured number of population standard
// deviations. Fewer than MinAnomalyDays distinct dates is too small a sample
// and yields an empty result. Returns the most recent flagged days in date
// order.
func (e *Engine) Anomalies(t *dataset.Table) Derived {
	if !t.HasColumn("date") || !t.HasColumn("revenue") {
		return Derived{}
	}

	entries := dailyRevenue(t)
	if len(entries) < e.params.MinAnomalyDays {
		return Derived{}
	}

	var sum float64
	for _, entry := range entries {
		sum += entry.revenue
	}
	mean := sum / float64(len(entries))

	var variance float64
	for _, entry := range entries {
		diff := entry.revenue - mean
		variance += diff * diff
	}
	// Population variance: denominator N, not N-1
	stddev := math.Sqrt(variance / float64(len(entries)))

	d := Derived{Columns: []string{"date", "revenue", "z_score"}}
	for _, entry := range entries {
		z := (entry.revenue - mean) / (stddev + epsilon)
		if math.Abs(z) >= e.params.AnomalySigma {
			d.Rows = append(d.Rows, Row{
				"date":    entry.date,
				"revenue": entry.revenue,
				"z_score": z,
			})
		}
	}
	if len(d.Rows) > e.params.AnomalyTop {
		d.Rows = d.Rows[len(d.Rows)-e.params.AnomalyTop:]
	}
	return d
}
