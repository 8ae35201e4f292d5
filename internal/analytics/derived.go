// Package analytics is the deterministic engine behind the copilot: five
// independent metric windows over a normalized table, the synthesis layer
// that turns them into headline metrics, evidence tables, charts and
// recommended actions, and the rule-based answer engine.
package analytics

// Row is one record of a derived table, keyed by column name.
type Row map[string]any

// Derived is the typed output of a metric window: a fixed column schema over
// ordered rows. An empty Derived means the window's preconditions were not
// met, not a zero result.
type Derived struct {
	Columns []string
	Rows    []Row
}

// Empty reports whether the derived table has no rows.
func (d Derived) Empty() bool { return len(d.Rows) == 0 }

// Num reads a float64 cell from a derived row; missing or mistyped cells
// read as 0.
func (r Row) Num(col string) float64 {
	if v, ok := r[col].(float64); ok {
		return v
	}
	return 0
}

// Str reads a string cell from a derived row; missing or mistyped cells read
// as "".
func (r Row) Str(col string) string {
	if v, ok := r[col].(string); ok {
		return v
	}
	return ""
}

// Params holds the window sizes and the anomaly threshold. The defaults are
// the canonical ones; config can widen or narrow them.
type Params struct {
	WeeklyWeeks    int
	DailyDays      int
	TrendingTop    int
	ReorderTop     int
	AnomalyTop     int
	MinAnomalyDays int
	AnomalySigma   float64
}

// DefaultParams returns the standard window sizes: 6 weeks of revenue, 14
// days of financials, top 8 trending items, top 10 reorder candidates, the 5
// most recent anomalies at |z| >= 2 over at least 7 distinct days.
func DefaultParams() Params {
	return Params{
		WeeklyWeeks:    6,
		DailyDays:      14,
		TrendingTop:    8,
		ReorderTop:     10,
		AnomalyTop:     5,
		MinAnomalyDays: 7,
		AnomalySigma:   2.0,
	}
}

// Engine computes the metric windows and everything derived from them. All
// methods are pure functions of their input table; the engine itself only
// carries Params, so it is safe for concurrent use.
type Engine struct {
	params Params
}

// NewEngine creates an engine with the given params, filling zero fields
// from the defaults.
func NewEngine(p Params) *Engine {
	def := DefaultParams()
	if p.WeeklyWeeks == 0 {
		p.WeeklyWeeks = def.WeeklyWeeks
	}
	if p.DailyDays == 0 {
		p.DailyDays = def.DailyDays
	}
	if p.TrendingTop == 0 {
		p.TrendingTop = def.TrendingTop
	}
	if p.ReorderTop == 0 {
		p.ReorderTop = def.ReorderTop
	}
	if p.AnomalyTop == 0 {
		p.AnomalyTop = def.AnomalyTop
	}
	if p.MinAnomalyDays == 0 {
		p.MinAnomalyDays = def.MinAnomalyDays
	}
	if p.AnomalySigma == 0 {
		p.AnomalySigma = def.AnomalySigma
	}
	return &Engine{params: p}
}
