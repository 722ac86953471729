package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/kaizen/internal/model"
	"github.com/nhle/kaizen/internal/service"
)

func sampleRequest() ExpenseAnalysisRequest {
	return ExpenseAnalysisRequest{
		Month:      "2024-05",
		TotalSpent: 60000,
		Budget:     50000,
		Breakdown: []model.CategoryTotal{
			{Name: "Bills", Value: 30000},
			{Name: "Dining Out", Value: 20000},
			{Name: "Pets", Value: 10000},
		},
		Goals: []model.Goal{{Title: "Bike", TargetAmount: 10000, CurrentAmount: 2500, Deadline: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)}},
		Expenses: []model.Expense{
			{CategoryName: "Bills", Description: "rent", Amount: 30000, ExpenseDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
}

func TestSavingsPotential(t *testing.T) {
	got := SavingsPotential([]model.CategoryTotal{
		{Name: "Entertainment", Value: 1000},
		{Name: "Other", Value: 500},
		{Name: "Bills", Value: 9000},
	})
	assert.Equal(t, int64(300), got)
}

func TestBudgetSuggestions(t *testing.T) {
	got := BudgetSuggestions(sampleRequest().Breakdown)
	assert.Equal(t, map[string]int64{"Bills": 28500, "Dining Out": 16000, "Pets": 9000}, got)
}

func TestAnalyze_UsesModelOutput(t *testing.T) {
	llm := &fakeLLM{out: "## Analysis"}
	got := NewExpenseAnalyst(llm, "").Analyze(context.Background(), sampleRequest())
	assert.Equal(t, "## Analysis", got.Summary)
	assert.Equal(t, int64(4000), got.SavingsPotential)
	assert.Equal(t, "sonar-pro", llm.last.Model)
	assert.Equal(t, 3000, llm.last.MaxTokens)
	require.Len(t, llm.last.Messages, 2)
	prompt := llm.last.Messages[1].Content
	assert.Contains(t, prompt, "Over budget by ₹100.00")
	assert.Contains(t, prompt, "Top Spending Category: Bills (₹300.00)")
	assert.Contains(t, prompt, "Bike: ₹25.00 / ₹100.00 (25.0% complete")
}

func TestAnalyze_FallsBack(t *testing.T) {
	got := NewExpenseAnalyst(&fakeLLM{err: errors.New("down")}, "").Analyze(context.Background(), sampleRequest())
	assert.Contains(t, got.Summary, "## Financial Overview - 2024-05")
	assert.Contains(t, got.Summary, "exceeded your monthly budget")
	assert.Len(t, got.Insights, 4)
	assert.Contains(t, got.Insights[0], "Bills at ₹300.00 (50.0% of total)")
	assert.Len(t, got.Recommendations, 6)
	assert.Equal(t, int64(4000), got.SavingsPotential)
}

func TestFallbackAnalysis_NoExpenses(t *testing.T) {
	got := FallbackAnalysis(ExpenseAnalysisRequest{Month: "2024-06"})
	assert.Contains(t, got.Summary, "No Expenses Yet")
	assert.Equal(t, []string{"Add your first expense to begin"}, got.Recommendations)
	assert.Zero(t, got.SavingsPotential)
	assert.Empty(t, got.BudgetSuggestions)
}

func TestTip(t *testing.T) {
	a := NewExpenseAnalyst(&fakeLLM{err: errors.New("x")}, "")
	assert.Equal(t, fallbackTip, a.Tip(context.Background(), "Shopping"))

	llm := &fakeLLM{out: "Cook at home."}
	assert.Equal(t, "Cook at home.", NewExpenseAnalyst(llm, "").Tip(context.Background(), "Dining Out"))
	assert.Equal(t, "sonar", llm.last.Model)
	assert.Contains(t, llm.last.Messages[0].Content, "Dining Out")
}

func TestRequestFromSummary(t *testing.T) {
	sum := &service.MonthSummary{Month: "2024-05", Total: 10, Budget: 20}
	req := RequestFromSummary(sum, nil)
	assert.Equal(t, "2024-05", req.Month)
	assert.Equal(t, int64(10), req.TotalSpent)
	assert.Equal(t, int64(20), req.Budget)
}
