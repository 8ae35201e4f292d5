package analytics

import (
	"context"

	"github.com/vibeloop/ops-copilot/internal/agent"
	"github.com/vibeloop/ops-copilot/internal/dataset"
	"github.com/vibeloop/ops-copilot/internal/pkg/logger"
)

// promptSampleRows bounds the normalized-row sample sent to the external
// answering service.
const promptSampleRows = 50

// Result is the full pipeline output for one question against one dataset.
// This is the contract the request layer serializes to its callers.
type Result struct {
	Answer      string   `json:"answer"`
	Metrics     []Metric `json:"metrics"`
	Evidence    []Panel  `json:"evidence"`
	Charts      []Panel  `json:"charts"`
	Actions     []string `json:"actions"`
	HasExpenses bool     `json:"has_expenses"`
	Schema      []string `json:"schema"`
}

// Service runs the full analytics pipeline and, when an external answering
// service is configured, lets it rephrase the final answer. The rule-based
// answer is always computed first; a failing or disabled answerer never
// degrades the result.
type Service struct {
	engine   *Engine
	answerer agent.Answerer
}

// NewService creates a service. answerer may be nil.
func NewService(engine *Engine, answerer agent.Answerer) *Service {
	return &Service{engine: engine, answerer: answerer}
}

// Engine exposes the underlying metric engine.
func (s *Service) Engine() *Engine { return s.engine }

// Ask computes metrics, evidence, charts, actions and the answer for a
// question over a normalized table.
func (s *Service) Ask(ctx context.Context, t *dataset.Table, question string) Result {
	metrics := s.engine.BuildMetrics(t)
	actions := s.engine.BuildActions(t)

	result := Result{
		Answer:      s.answer(ctx, t, question, metrics, actions),
		Metrics:     metrics,
		Evidence:    s.engine.BuildEvidence(t),
		Charts:      s.engine.BuildCharts(t),
		Actions:     actions,
		HasExpenses: t.HasColumn("expenses"),
		Schema:      t.Columns,
	}
	return result
}

// answer returns the rule-based answer, replaced by the external service's
// phrasing when one is configured and the call succeeds.
func (s *Service) answer(ctx context.Context, t *dataset.Table, question string, metrics []Metric, actions []string) string {
	ruleAnswer := s.engine.RuleAnswer(question, t)

	if s.answerer == nil || !s.answerer.Enabled() {
		return ruleAnswer
	}

	pc := agent.PromptContext{
		Actions:    actions,
		RecentRows: t.RecentRows(promptSampleRows),
	}
	for _, m := range metrics {
		pc.Metrics = append(pc.Metrics, agent.LabelValue{Label: m.Label, Value: m.Value})
	}

	phrased, err := s.answerer.Answer(ctx, question, pc)
	if err != nil {
		logger.Warn("external answerer failed, keeping rule-based answer", "error", err)
		return ruleAnswer
	}
	return phrased
}
