package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nhle/kaizen/internal/model"
	"github.com/nhle/kaizen/internal/ordering"
	"github.com/nhle/kaizen/internal/store"
)

// DefaultCategories are created for a user on first use.
var DefaultCategories = []model.Category{
	{Name: "Dining Out", Icon: "utensils", Color: "#f97316"},
	{Name: "Transportation", Icon: "car", Color: "#3b82f6"},
	{Name: "Shopping", Icon: "shopping-bag", Color: "#ec4899"},
	{Name: "Entertainment", Icon: "film", Color: "#8b5cf6"},
	{Name: "Bills", Icon: "receipt", Color: "#ef4444"},
	{Name: "Healthcare", Icon: "heart-pulse", Color: "#10b981"},
	{Name: "Other", Icon: "circle", Color: "#6b7280"},
}

// NewCategory is the input for creating an expense category.
type NewCategory struct {
	Name  string
	Icon  string
	Color string
}

// NewExpense is the input for recording an expense. Amount is in minor units.
type NewExpense struct {
	CategoryID  string
	Amount      int64
	Description string
	Date        time.Time
}

// NewGoal is the input for creating a savings goal.
type NewGoal struct {
	Title         string
	TargetAmount  int64
	CurrentAmount int64
	Deadline      time.Time
}

// MonthSummary is the spending picture of one calendar month.
type MonthSummary struct {
	Month      string
	Total      int64
	Budget     int64 // zero when no budget is set
	Categories []model.CategoryTotal
	Recent     []model.Expense
}

// ExpenseService manages categories, expenses, budgets and goals.
type ExpenseService struct {
	store  store.Store
	engine *ordering.Engine
}

// NewExpenseService creates an ExpenseService over s.
func NewExpenseService(s store.Store, opts ...ordering.Option) *ExpenseService {
	return &ExpenseService{store: s, engine: ordering.NewEngine(s, opts...)}
}

func (s *ExpenseService) ownCategory(ctx context.Context, sess model.Session, id string) (*model.Category, error) {
	c, err := s.store.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != sess.UserID {
		return nil, ordering.NotFound(ordering.KindCategory, id)
	}
	return c, nil
}

// CreateCategory adds a category after the user's existing categories.
func (s *ExpenseService) CreateCategory(ctx context.Context, sess model.Session, nc NewCategory) (*model.Category, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(nc.Name)
	if name == "" {
		return nil, ordering.Invalid("name", "category name must not be empty")
	}

	pos, err := s.engine.AppendPosition(ctx,
		ordering.Partition{Kind: ordering.KindCategory, OwnerID: sess.UserID}, nil)
	if err != nil {
		return nil, logFailure("creating category", err)
	}
	c, err := s.store.CreateCategory(ctx, model.Category{
		UserID:   sess.UserID,
		Name:     name,
		Icon:     nc.Icon,
		Color:    nc.Color,
		Position: pos,
	})
	return c, logFailure("creating category", err)
}

// GetCategories returns the user's categories, seeding the defaults when the
// user has none.
func (s *ExpenseService) GetCategories(ctx context.Context, sess model.Session) ([]model.Category, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	cats, err := s.store.GetCategories(ctx, sess.UserID)
	if err != nil {
		return nil, logFailure("listing categories", err)
	}
	if len(cats) > 0 {
		return cats, nil
	}

	err = s.store.RunInTx(ctx, func(tx store.Store) error {
		for i, d := range DefaultCategories {
			d.UserID = sess.UserID
			d.IsDefault = true
			d.Position = i
			c, err := tx.CreateCategory(ctx, d)
			if err != nil {
				return err
			}
			cats = append(cats, *c)
		}
		return nil
	})
	if err != nil {
		return nil, logFailure("seeding categories", err)
	}
	return cats, nil
}

// DeleteCategory removes a category together with its expenses.
func (s *ExpenseService) DeleteCategory(ctx context.Context, sess model.Session, id string) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if _, err := s.ownCategory(ctx, sess, id); err != nil {
		if errors.Is(err, ordering.ErrNotFound) {
			return nil
		}
		return logFailure("deleting category", err)
	}
	return logFailure("deleting category",
		s.engine.CascadeDelete(ctx, ordering.KindCategory, ordering.KindExpense, id))
}

// AddExpense records an expense in one of the user's categories.
func (s *ExpenseService) AddExpense(ctx context.Context, sess model.Session, ne NewExpense) (*model.Expense, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	if ne.Amount <= 0 {
		return nil, ordering.Invalid("amount", "must be positive, got %d", ne.Amount)
	}
	c, err := s.ownCategory(ctx, sess, ne.CategoryID)
	if err != nil {
		return nil, logFailure("adding expense", err)
	}

	e, err := s.store.CreateExpense(ctx, model.Expense{
		UserID:      sess.UserID,
		CategoryID:  c.ID,
		Amount:      ne.Amount,
		Description: strings.TrimSpace(ne.Description),
		ExpenseDate: ne.Date,
	})
	if err != nil {
		return nil, logFailure("adding expense", err)
	}
	e.CategoryName = c.Name
	return e, nil
}

// MoveExpense files an expense under another category.
func (s *ExpenseService) MoveExpense(ctx context.Context, sess model.Session, expenseID, fromCategoryID, toCategoryID string) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if fromCategoryID == toCategoryID {
		return ordering.Invalid("target", "%s is already in %s", expenseID, toCategoryID)
	}
	for _, id := range []string{fromCategoryID, toCategoryID} {
		if _, err := s.ownCategory(ctx, sess, id); err != nil {
			return logFailure("moving expense", err)
		}
	}
	// Expenses carry no user-visible order; position is written as zero.
	err := s.store.MoveRow(ctx, ordering.KindExpense, expenseID, fromCategoryID, toCategoryID, 0, 0)
	return logFailure("moving expense", err)
}

// GetExpenses returns the user's expenses in [from, to), newest first.
// Zero times leave that end of the range open.
func (s *ExpenseService) GetExpenses(ctx context.Context, sess model.Session, from, to time.Time) ([]model.Expense, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	expenses, err := s.store.GetExpenses(ctx, rangeFilter(sess, from, to))
	return expenses, logFailure("listing expenses", err)
}

// DeleteExpense removes one of the user's expenses.
func (s *ExpenseService) DeleteExpense(ctx context.Context, sess model.Session, id string) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	return logFailure("deleting expense", s.store.DeleteExpense(ctx, id, sess.UserID))
}

// CategoryBreakdown sums the user's spending per category in [from, to).
func (s *ExpenseService) CategoryBreakdown(ctx context.Context, sess model.Session, from, to time.Time) ([]model.CategoryTotal, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	totals, err := s.store.CategoryTotals(ctx, rangeFilter(sess, from, to))
	return totals, logFailure("summing expenses", err)
}

func rangeFilter(sess model.Session, from, to time.Time) store.ExpenseFilter {
	f := store.ExpenseFilter{UserID: sess.UserID}
	if !from.IsZero() {
		f.From = &from
	}
	if !to.IsZero() {
		f.To = &to
	}
	return f
}

// SetBudget sets the total budget for month ("2006-01").
func (s *ExpenseService) SetBudget(ctx context.Context, sess model.Session, month string, total int64) (*model.Budget, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	b, err := s.store.SetBudget(ctx, sess.UserID, month, total)
	return b, logFailure("setting budget", err)
}

// GetBudget returns the budget for month, or nil when none is set.
func (s *ExpenseService) GetBudget(ctx context.Context, sess model.Session, month string) (*model.Budget, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	b, err := s.store.GetBudget(ctx, sess.UserID, month)
	return b, logFailure("getting budget", err)
}

// AddGoal creates a savings goal.
func (s *ExpenseService) AddGoal(ctx context.Context, sess model.Session, ng NewGoal) (*model.Goal, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	if ng.Deadline.IsZero() {
		return nil, ordering.Invalid("deadline", "goal deadline is required")
	}
	g, err := s.store.CreateGoal(ctx, model.Goal{
		UserID:        sess.UserID,
		Title:         ng.Title,
		TargetAmount:  ng.TargetAmount,
		CurrentAmount: ng.CurrentAmount,
		Deadline:      ng.Deadline,
	})
	return g, logFailure("adding goal", err)
}

// GetGoals returns the user's goals by deadline.
func (s *ExpenseService) GetGoals(ctx context.Context, sess model.Session) ([]model.Goal, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	goals, err := s.store.GetGoals(ctx, sess.UserID)
	return goals, logFailure("listing goals", err)
}

// Contribute adds amount to a goal.
func (s *ExpenseService) Contribute(ctx context.Context, sess model.Session, goalID string, amount int64) (*model.Goal, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	g, err := s.store.ContributeToGoal(ctx, goalID, sess.UserID, amount)
	return g, logFailure("contributing to goal", err)
}

// DeleteGoal removes a goal.
func (s *ExpenseService) DeleteGoal(ctx context.Context, sess model.Session, goalID string) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	return logFailure("deleting goal", s.store.DeleteGoal(ctx, goalID, sess.UserID))
}

// MonthBounds returns the first instant of month and of the following month.
func MonthBounds(month string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01", month)
	if err != nil {
		return time.Time{}, time.Time{}, ordering.Invalid("month", "expected YYYY-MM, got %q", month)
	}
	return start, start.AddDate(0, 1, 0), nil
}

// Summary collects a month's spending, budget and most recent expenses.
func (s *ExpenseService) Summary(ctx context.Context, sess model.Session, month string) (*MonthSummary, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	from, to, err := MonthBounds(month)
	if err != nil {
		return nil, err
	}

	totals, err := s.CategoryBreakdown(ctx, sess, from, to)
	if err != nil {
		return nil, err
	}
	budget, err := s.GetBudget(ctx, sess, month)
	if err != nil {
		return nil, err
	}
	filter := rangeFilter(sess, from, to)
	filter.Limit = 10
	recent, err := s.store.GetExpenses(ctx, filter)
	if err != nil {
		return nil, logFailure("listing recent expenses", err)
	}

	sum := &MonthSummary{Month: month, Categories: totals, Recent: recent}
	for _, t := range totals {
		sum.Total += t.Value
	}
	if budget != nil {
		sum.Budget = budget.TotalBudget
	}
	return sum, nil
}

// FormatAmount renders minor units as a decimal string, e.g. 12345 -> "123.45".
func FormatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}

// ParseAmount converts a decimal string with at most two fractional digits
// into minor units, e.g. "123.4" -> 12340.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, ordering.Invalid("amount", "%q is not a number", s)
	}
	if len(frac) > 2 {
		return 0, ordering.Invalid("amount", "%q has more than two decimal places", s)
	}
	frac += strings.Repeat("0", 2-len(frac))
	if whole == "" {
		whole = "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units < 0 {
		return 0, ordering.Invalid("amount", "%q is not a non-negative number", s)
	}
	if units > (math.MaxInt64-99)/100 {
		return 0, ordering.Invalid("amount", "%q is too large", s)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || strings.HasPrefix(frac, "-") || strings.HasPrefix(frac, "+") {
		return 0, ordering.Invalid("amount", "%q is not a non-negative number", s)
	}
	return units*100 + cents, nil
}
