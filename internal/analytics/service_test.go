package analytics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibeloop/ops-copilot/internal/agent"
)

type fakeAnswerer struct {
	enabled bool
	answer  string
	err     error

	gotQuestion string
	gotContext  agent.PromptContext
	calls       int
}

func (f *fakeAnswerer) Enabled() bool { return f.enabled }

func (f *fakeAnswerer) Answer(_ context.Context, question string, pc agent.PromptContext) (string, error) {
	f.calls++
	f.gotQuestion = question
	f.gotContext = pc
	return f.answer, f.err
}

func TestServiceAsk_RuleAnswerWithoutAnswerer(t *testing.T) {
	svc := NewService(defaultEngine(), nil)
	table := mustTable(t, "date,revenue\n2024-01-01,1000\n2024-01-08,500\n")

	result := svc.Ask(context.Background(), table, "why did revenue drop?")
	assert.Contains(t, result.Answer, "Revenue fell 50.0%")
}

func TestServiceAsk_AnswererReplacesPhrasing(t *testing.T) {
	fake := &fakeAnswerer{enabled: true, answer: "Sales dipped; run a promo."}
	svc := NewService(defaultEngine(), fake)
	table := mustTable(t, "date,item,units_sold,revenue\n2024-01-01,Widget,3,100\n")

	result := svc.Ask(context.Background(), table, "how are sales?")
	assert.Equal(t, "Sales dipped; run a promo.", result.Answer)
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, "how are sales?", fake.gotQuestion)

	// The prompt context carries formatted metrics, actions, and sample rows
	require.NotEmpty(t, fake.gotContext.Metrics)
	assert.Equal(t, "Total revenue", fake.gotContext.Metrics[0].Label)
	assert.Equal(t, "$100", fake.gotContext.Metrics[0].Value)
	assert.NotEmpty(t, fake.gotContext.Actions)
	require.Len(t, fake.gotContext.RecentRows, 1)
	assert.Equal(t, "Widget", fake.gotContext.RecentRows[0]["item"])
}

func TestServiceAsk_AnswererErrorKeepsRuleAnswer(t *testing.T) {
	fake := &fakeAnswerer{enabled: true, err: errors.New("upstream timeout")}
	svc := NewService(defaultEngine(), fake)
	table := mustTable(t, "item,units_sold,inventory_on_hand\nWidget,10,5\n")

	result := svc.Ask(context.Background(), table, "any reorder concerns?")
	assert.Equal(t, 1, fake.calls)
	assert.Contains(t, result.Answer, "Widget is your most urgent reorder")
}

func TestServiceAsk_DisabledAnswererNeverCalled(t *testing.T) {
	fake := &fakeAnswerer{enabled: false, answer: "should not appear"}
	svc := NewService(defaultEngine(), fake)
	table := mustTable(t, "item,revenue\nWidget,100\n")

	result := svc.Ask(context.Background(), table, "hello")
	assert.Zero(t, fake.calls)
	assert.Equal(t, defaultAnswer, result.Answer)
}

func TestServiceAsk_ResultFields(t *testing.T) {
	svc := NewService(defaultEngine(), nil)
	table := mustTable(t, `date,item,units_sold,revenue,expenses
2024-01-01,Widget,3,100,40
2024-01-02,Widget,5,150,60
`)

	result := svc.Ask(context.Background(), table, "summary please")

	assert.True(t, result.HasExpenses)
	assert.Equal(t, []string{"date", "item", "units_sold", "revenue", "expenses"}, result.Schema)
	assert.NotEmpty(t, result.Metrics)
	assert.NotEmpty(t, result.Evidence)
	require.Len(t, result.Charts, 1)
	assert.Equal(t, "Daily financials", result.Charts[0].Title)
	assert.NotEmpty(t, result.Actions)
}
