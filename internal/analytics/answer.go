package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/vibeloop/ops-copilot/internal/dataset"
)

// intent is one entry of the answer router: a predicate over the question
// text and a responder over the dataset. A responder may decline (ok=false)
// when its data conditions do not hold, in which case evaluation continues
// down the list.
type intent struct {
	name    string
	match   func(q string) bool
	respond func(e *Engine, t *dataset.Table) (string, bool)
}

func containsAll(q string, words ...string) bool {
	for _, w := range words {
		if !strings.Contains(q, w) {
			return false
		}
	}
	return true
}

func containsAny(q string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}

// intents are evaluated in priority order; the first responder that produces
// an answer wins.
var intents = []intent{
	{
		name:  "revenue_drop",
		match: func(q string) bool { return containsAll(q, "revenue", "drop") },
		respond: func(e *Engine, t *dataset.Table) (string, bool) {
			weekly := e.WeeklyRevenue(t)
			if len(weekly.Rows) < 2 {
				return "", false
			}
			last := weekly.Rows[len(weekly.Rows)-1].Num("revenue")
			prev := weekly.Rows[len(weekly.Rows)-2].Num("revenue")
			if prev <= 0 {
				return "", false
			}
			drop := (prev - last) / prev * 100
			return fmt.Sprintf(
				"Revenue fell %s%% week-over-week. The last week posted %s vs %s the week before. "+
					"Check top items for softening demand and consider a promo.",
				oneDecimal(drop), money(last), money(prev),
			), true
		},
	},
	{
		name:  "reorder",
		match: func(q string) bool { return containsAny(q, "reorder", "stock") },
		respond: func(e *Engine, t *dataset.Table) (string, bool) {
			reorder := e.ReorderList(t)
			if reorder.Empty() {
				return "Inventory looks stable, but keep an eye on fast movers for any sudden spikes.", true
			}
			top := reorder.Rows[0]
			return fmt.Sprintf(
				"%s is your most urgent reorder: only %s on hand with %s units/day demand.",
				displayName(top),
				wholeNumber(top.Num("inventory_on_hand")),
				oneDecimal(top.Num("avg_daily_units")),
			), true
		},
	},
	{
		name:  "trending",
		match: func(q string) bool { return containsAny(q, "trend", "trending") },
		respond: func(e *Engine, t *dataset.Table) (string, bool) {
			trending := e.TrendingItems(t)
			if trending.Empty() {
				return "No clear trend detected yet. Try expanding the date range or checking category-specific views.", true
			}
			top := trending.Rows[0]
			return fmt.Sprintf(
				"%s is trending up, gaining %s units vs the prior week.",
				top.Str("item"), wholeNumber(top.Num("change")),
			), true
		},
	},
	{
		name:  "anomaly",
		match: func(q string) bool { return strings.Contains(q, "anomal") },
		respond: func(e *Engine, t *dataset.Table) (string, bool) {
			anomalies := e.Anomalies(t)
			if anomalies.Empty() {
				return "No major anomalies detected in the recent revenue pattern.", true
			}
			last := anomalies.Rows[len(anomalies.Rows)-1]
			date, _ := last["date"].(time.Time)
			return fmt.Sprintf(
				"An anomaly was detected on %s: revenue %s (z-score %s).",
				date.Format("2006-01-02"),
				money(last.Num("revenue")),
				oneDecimal(last.Num("z_score")),
			), true
		},
	},
}

// defaultAnswer is returned when no intent matches or produces an answer.
const defaultAnswer = "Here's a quick read: check the evidence panels for weekly trends, anomalies, and reorder risks."

// RuleAnswer produces the rule-based natural-language answer for a question
// over a normalized table. It is the system of record whenever no external
// answering service is configured, and the fallback when one fails.
func (e *Engine) RuleAnswer(question string, t *dataset.Table) string {
	q := strings.ToLower(question)
	for _, in := range intents {
		if !in.match(q) {
			continue
		}
		if answer, ok := in.respond(e, t); ok {
			return answer
		}
	}
	return defaultAnswer
}
