// Package agent defines the boundary to the optional external answering
// service. The analytics engine always produces a rule-based answer on its
// own; an Answerer, when configured and reachable, only supersedes the
// phrasing.
package agent

import "context"

// LabelValue is one pre-formatted headline metric.
type LabelValue struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// PromptContext is the bounded summary handed to the external service:
// headline metrics, recommended actions, and a sample of recent normalized
// rows. It never includes the full dataset.
type PromptContext struct {
	Metrics    []LabelValue        `json:"metrics"`
	Actions    []string            `json:"actions"`
	RecentRows []map[string]string `json:"recent_rows"`
}

// Answerer produces a natural-language answer from a question and the
// prompt context. Implementations may call out over the network; callers
// must treat any error as non-fatal and keep their own answer.
type Answerer interface {
	// Enabled reports whether the service is configured to be called at all.
	Enabled() bool
	Answer(ctx context.Context, question string, pc PromptContext) (string, error)
}
