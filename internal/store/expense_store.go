package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/kaizen/internal/model"
	"github.com/nhle/kaizen/internal/ordering"
)

const categoryColumns = "id, user_id, name, icon, color, is_default, position, version, created_at, updated_at"

// CreateCategory inserts a new expense category and returns the stored row.
func (s *SQLStore) CreateCategory(ctx context.Context, c model.Category) (*model.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return nil, ordering.Invalid("name", "category name must not be empty")
	}
	if c.Position < 0 {
		return nil, ordering.Invalid("position", "must be >= 0, got %d", c.Position)
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	c.Version = 1

	_, err := s.exec(ctx, `
		INSERT INTO expense_categories (
			id, user_id, name, icon, color, is_default, position, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, c.Icon, c.Color, boolToInt(c.IsDefault),
		c.Position, c.Version, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return nil, ordering.Transient("creating expense category", err)
	}
	return &c, nil
}

// GetCategoryByID retrieves a single category.
func (s *SQLStore) GetCategoryByID(ctx context.Context, id string) (*model.Category, error) {
	var c model.Category
	err := s.lookup(ctx, &c, ordering.KindCategory, id,
		"SELECT "+categoryColumns+" FROM expense_categories WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCategories returns the user's categories in display order.
func (s *SQLStore) GetCategories(ctx context.Context, userID string) ([]model.Category, error) {
	var cats []model.Category
	err := s.selectRows(ctx, &cats,
		"SELECT "+categoryColumns+" FROM expense_categories WHERE user_id = ? ORDER BY position, created_at", userID)
	if err != nil {
		return nil, ordering.Transient("listing expense categories", err)
	}
	return cats, nil
}

// CreateExpense inserts a new expense and returns the stored row.
func (s *SQLStore) CreateExpense(ctx context.Context, e model.Expense) (*model.Expense, error) {
	if e.Amount <= 0 {
		return nil, ordering.Invalid("amount", "must be positive, got %d", e.Amount)
	}
	if e.CategoryID == "" {
		return nil, ordering.Invalid("category_id", "expense must belong to a category")
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.ExpenseDate.IsZero() {
		e.ExpenseDate = now
	}
	e.ExpenseDate = e.ExpenseDate.UTC()

	_, err := s.exec(ctx, `
		INSERT INTO expenses (
			id, user_id, category_id, amount, description, expense_date, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		e.ID, e.UserID, e.CategoryID, e.Amount, e.Description, e.ExpenseDate, e.CreatedAt, e.UpdatedAt,
	)
	if s.dialect.isForeignKeyViolation(err) {
		return nil, ordering.NotFound(ordering.KindCategory, e.CategoryID)
	}
	if err != nil {
		return nil, ordering.Transient("creating expense", err)
	}
	return &e, nil
}

// buildExpenseConditions returns the WHERE clause shared by expense queries.
// Columns are qualified with the expenses alias "e".
func buildExpenseConditions(opts ExpenseFilter) (string, []interface{}) {
	conditions := []string{"e.user_id = ?"}
	args := []interface{}{opts.UserID}

	if opts.CategoryID != nil {
		conditions = append(conditions, "e.category_id = ?")
		args = append(args, *opts.CategoryID)
	}
	if opts.From != nil {
		conditions = append(conditions, "e.expense_date >= ?")
		args = append(args, opts.From.UTC())
	}
	if opts.To != nil {
		conditions = append(conditions, "e.expense_date < ?")
		args = append(args, opts.To.UTC())
	}
	return strings.Join(conditions, " AND "), args
}

// GetExpenses returns expenses newest first, with their category name.
func (s *SQLStore) GetExpenses(ctx context.Context, opts ExpenseFilter) ([]model.Expense, error) {
	where, args := buildExpenseConditions(opts)
	query := `
		SELECT e.id, e.user_id, e.category_id, e.amount, e.description, e.expense_date,
			e.created_at, e.updated_at, COALESCE(c.name, '') AS category_name
		FROM expenses e
		LEFT JOIN expense_categories c ON c.id = e.category_id
		WHERE ` + where + `
		ORDER BY e.expense_date DESC, e.created_at DESC`
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	var expenses []model.Expense
	if err := s.selectRows(ctx, &expenses, query, args...); err != nil {
		return nil, ordering.Transient("querying expenses", err)
	}
	return expenses, nil
}

// DeleteExpense removes an expense owned by userID.
func (s *SQLStore) DeleteExpense(ctx context.Context, id, userID string) error {
	result, err := s.exec(ctx, "DELETE FROM expenses WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return ordering.Transient(fmt.Sprintf("deleting expense %s", id), err)
	}
	return mustAffect(result, ordering.KindExpense, id)
}

// CategoryTotals sums expense amounts per category name, largest first.
// Expenses whose category is gone are grouped under "Uncategorized".
func (s *SQLStore) CategoryTotals(ctx context.Context, opts ExpenseFilter) ([]model.CategoryTotal, error) {
	where, args := buildExpenseConditions(opts)
	query := `
		SELECT COALESCE(c.name, 'Uncategorized') AS name, SUM(e.amount) AS value
		FROM expenses e
		LEFT JOIN expense_categories c ON c.id = e.category_id
		WHERE ` + where + `
		GROUP BY COALESCE(c.name, 'Uncategorized')
		ORDER BY value DESC, name`

	var totals []model.CategoryTotal
	if err := s.selectRows(ctx, &totals, query, args...); err != nil {
		return nil, ordering.Transient("summing expenses by category", err)
	}
	return totals, nil
}

const budgetColumns = "id, user_id, month, total_budget, created_at, updated_at"

// GetBudget returns the budget for month ("2006-01"), or nil when none is set.
func (s *SQLStore) GetBudget(ctx context.Context, userID, month string) (*model.Budget, error) {
	var b model.Budget
	err := s.get(ctx, &b,
		"SELECT "+budgetColumns+" FROM budgets WHERE user_id = ? AND month = ?", userID, month)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ordering.Transient(fmt.Sprintf("getting budget for %s", month), err)
	}
	return &b, nil
}

// SetBudget creates or replaces the budget for month.
func (s *SQLStore) SetBudget(ctx context.Context, userID, month string, amount int64) (*model.Budget, error) {
	if _, err := time.Parse("2006-01", month); err != nil {
		return nil, ordering.Invalid("month", "expected YYYY-MM, got %q", month)
	}
	if amount < 0 {
		return nil, ordering.Invalid("total_budget", "must be >= 0, got %d", amount)
	}

	var out *model.Budget
	err := s.WithTx(ctx, func(tx *SQLStore) error {
		now := time.Now().UTC()
		result, err := tx.exec(ctx,
			"UPDATE budgets SET total_budget = ?, updated_at = ? WHERE user_id = ? AND month = ?",
			amount, now, userID, month,
		)
		if err != nil {
			return ordering.Transient("updating budget", err)
		}

		if rows, _ := result.RowsAffected(); rows == 0 {
			_, err = tx.exec(ctx, `
				INSERT INTO budgets (id, user_id, month, total_budget, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				uuid.New().String(), userID, month, amount, now, now,
			)
			if err != nil {
				return ordering.Transient("creating budget", err)
			}
		}

		b, err := tx.GetBudget(ctx, userID, month)
		if err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

const goalColumns = "id, user_id, title, target_amount, current_amount, deadline, status, created_at"

// CreateGoal inserts a new savings goal.
func (s *SQLStore) CreateGoal(ctx context.Context, g model.Goal) (*model.Goal, error) {
	g.Title = strings.TrimSpace(g.Title)
	if g.Title == "" {
		return nil, ordering.Invalid("title", "goal title must not be empty")
	}
	if g.TargetAmount <= 0 {
		return nil, ordering.Invalid("target_amount", "must be positive, got %d", g.TargetAmount)
	}
	if g.CurrentAmount < 0 {
		return nil, ordering.Invalid("current_amount", "must be >= 0, got %d", g.CurrentAmount)
	}
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	g.Status = model.GoalStatusActive
	if g.CurrentAmount >= g.TargetAmount {
		g.Status = model.GoalStatusCompleted
	}
	g.CreatedAt = time.Now().UTC()
	g.Deadline = g.Deadline.UTC()

	_, err := s.exec(ctx, `
		INSERT INTO financial_goals (id, user_id, title, target_amount, current_amount, deadline, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Title, g.TargetAmount, g.CurrentAmount, g.Deadline, g.Status, g.CreatedAt,
	)
	if err != nil {
		return nil, ordering.Transient("creating goal", err)
	}
	return &g, nil
}

// GetGoals returns the user's goals ordered by deadline.
func (s *SQLStore) GetGoals(ctx context.Context, userID string) ([]model.Goal, error) {
	var goals []model.Goal
	err := s.selectRows(ctx, &goals,
		"SELECT "+goalColumns+" FROM financial_goals WHERE user_id = ? ORDER BY deadline, created_at", userID)
	if err != nil {
		return nil, ordering.Transient("listing goals", err)
	}
	return goals, nil
}

// ContributeToGoal adds amount to a goal's saved total and marks it
// completed once the target is reached.
func (s *SQLStore) ContributeToGoal(ctx context.Context, id, userID string, amount int64) (*model.Goal, error) {
	if amount <= 0 {
		return nil, ordering.Invalid("amount", "must be positive, got %d", amount)
	}

	var out *model.Goal
	err := s.WithTx(ctx, func(tx *SQLStore) error {
		result, err := tx.exec(ctx, `
			UPDATE financial_goals SET
				status = CASE WHEN current_amount + ? >= target_amount THEN ? ELSE status END,
				current_amount = current_amount + ?
			WHERE id = ? AND user_id = ?`,
			amount, model.GoalStatusCompleted, amount, id, userID,
		)
		if err != nil {
			return ordering.Transient(fmt.Sprintf("contributing to goal %s", id), err)
		}
		if err := mustAffect(result, "financial_goal", id); err != nil {
			return err
		}

		var g model.Goal
		if err := tx.lookup(ctx, &g, "financial_goal", id,
			"SELECT "+goalColumns+" FROM financial_goals WHERE id = ?", id); err != nil {
			return err
		}
		out = &g
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteGoal removes a goal owned by userID.
func (s *SQLStore) DeleteGoal(ctx context.Context, id, userID string) error {
	result, err := s.exec(ctx, "DELETE FROM financial_goals WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return ordering.Transient(fmt.Sprintf("deleting goal %s", id), err)
	}
	return mustAffect(result, "financial_goal", id)
}
