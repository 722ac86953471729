package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/kaizen/internal/model"
	"github.com/nhle/kaizen/internal/ordering"
	"github.com/nhle/kaizen/internal/store"
	"github.com/nhle/kaizen/internal/testutil"
)

func TestExpenses_AddListAndTotals(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	food, err := s.CreateCategory(ctx, model.Category{UserID: userID, Name: "Food & Dining", Position: 0})
	require.NoError(t, err)
	bills, err := s.CreateCategory(ctx, model.Category{UserID: userID, Name: "Bills & Utilities", Position: 1})
	require.NoError(t, err)

	day := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	for _, e := range []model.Expense{
		{UserID: userID, CategoryID: food.ID, Amount: 1500, Description: "lunch", ExpenseDate: day},
		{UserID: userID, CategoryID: food.ID, Amount: 500, Description: "coffee", ExpenseDate: day.Add(24 * time.Hour)},
		{UserID: userID, CategoryID: bills.ID, Amount: 9000, Description: "power", ExpenseDate: day},
		{UserID: userID, CategoryID: bills.ID, Amount: 100, Description: "april", ExpenseDate: day.AddDate(0, 1, 0)},
	} {
		_, err := s.CreateExpense(ctx, e)
		require.NoError(t, err)
	}

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	filter := store.ExpenseFilter{UserID: userID, From: &from, To: &to}

	expenses, err := s.GetExpenses(ctx, filter)
	require.NoError(t, err)
	require.Len(t, expenses, 3)
	assert.Equal(t, "coffee", expenses[0].Description)
	assert.Equal(t, "Food & Dining", expenses[0].CategoryName)

	totals, err := s.CategoryTotals(ctx, filter)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, model.CategoryTotal{Name: "Bills & Utilities", Value: 9000}, totals[0])
	assert.Equal(t, model.CategoryTotal{Name: "Food & Dining", Value: 2000}, totals[1])
}

func TestCreateExpense_Validation(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.CreateExpense(ctx, model.Expense{UserID: userID, CategoryID: "c", Amount: 0})
	assert.True(t, errors.Is(err, ordering.ErrValidation))

	_, err = s.CreateExpense(ctx, model.Expense{UserID: userID, CategoryID: "missing", Amount: 10})
	assert.True(t, errors.Is(err, ordering.ErrNotFound))
}

func TestDeleteExpense_ScopedToUser(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	c, err := s.CreateCategory(ctx, model.Category{UserID: userID, Name: "Other"})
	require.NoError(t, err)
	e, err := s.CreateExpense(ctx, model.Expense{UserID: userID, CategoryID: c.ID, Amount: 10, Description: "x"})
	require.NoError(t, err)

	err = s.DeleteExpense(ctx, e.ID, "someone-else")
	assert.True(t, errors.Is(err, ordering.ErrNotFound))
	require.NoError(t, s.DeleteExpense(ctx, e.ID, userID))
}

func TestBudget_Upsert(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	b, err := s.GetBudget(ctx, userID, "2024-03")
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = s.SetBudget(ctx, userID, "2024-03", 50000)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), b.TotalBudget)
	firstID := b.ID

	b, err = s.SetBudget(ctx, userID, "2024-03", 42000)
	require.NoError(t, err)
	assert.Equal(t, int64(42000), b.TotalBudget)
	assert.Equal(t, firstID, b.ID)

	_, err = s.SetBudget(ctx, userID, "March", 1)
	assert.True(t, errors.Is(err, ordering.ErrValidation))
}

func TestGoals_Contribute(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	g, err := s.CreateGoal(ctx, model.Goal{
		UserID: userID, Title: "Laptop", TargetAmount: 1000, Deadline: time.Now().AddDate(0, 6, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, model.GoalStatusActive, g.Status)

	g, err = s.ContributeToGoal(ctx, g.ID, userID, 400)
	require.NoError(t, err)
	assert.Equal(t, int64(400), g.CurrentAmount)
	assert.Equal(t, model.GoalStatusActive, g.Status)

	g, err = s.ContributeToGoal(ctx, g.ID, userID, 600)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), g.CurrentAmount)
	assert.Equal(t, model.GoalStatusCompleted, g.Status)

	goals, err := s.GetGoals(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, goals, 1)

	require.NoError(t, s.DeleteGoal(ctx, g.ID, userID))
	err = s.DeleteGoal(ctx, g.ID, userID)
	assert.True(t, errors.Is(err, ordering.ErrNotFound))
}

func TestEnsureProfile_Idempotent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	p := model.Profile{ID: userID, Email: "ann@example.com", FullName: "ann"}
	created, err := s.EnsureProfile(ctx, p)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.EnsureProfile(ctx, model.Profile{ID: userID, Email: "other@example.com"})
	require.NoError(t, err)
	assert.False(t, created)

	got, err := s.GetProfile(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", got.Email)
}

func TestMoveRow_Expense(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	food, err := s.CreateCategory(ctx, model.Category{UserID: userID, Name: "Food", Position: 0})
	require.NoError(t, err)
	fun, err := s.CreateCategory(ctx, model.Category{UserID: userID, Name: "Fun", Position: 1})
	require.NoError(t, err)
	e, err := s.CreateExpense(ctx, model.Expense{UserID: userID, CategoryID: food.ID, Amount: 700, Description: "pizza"})
	require.NoError(t, err)

	require.NoError(t, s.MoveRow(ctx, ordering.KindExpense, e.ID, food.ID, fun.ID, 0, 0))

	expenses, err := s.GetExpenses(ctx, store.ExpenseFilter{UserID: userID})
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, fun.ID, expenses[0].CategoryID)
	assert.Equal(t, "Fun", expenses[0].CategoryName)

	// The row no longer references food.
	err = s.MoveRow(ctx, ordering.KindExpense, e.ID, food.ID, fun.ID, 0, 0)
	assert.True(t, errors.Is(err, ordering.ErrNotFound))

	err = s.MoveRow(ctx, ordering.KindExpense, e.ID, fun.ID, "no-such-category", 0, 0)
	assert.True(t, errors.Is(err, ordering.ErrNotFound))
}
