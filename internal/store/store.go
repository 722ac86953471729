package store

import (
	"context"
	"time"

	"github.com/nhle/kaizen/internal/model"
	"github.com/nhle/kaizen/internal/ordering"
)

// TaskFilter controls filtering for task queries. Every query is scoped to a
// user; the remaining fields narrow it further.
type TaskFilter struct {
	UserID    string
	ListID    *string
	Completed *bool
	Overdue   bool // only tasks with a due date before now that are not completed
}

// ExpenseFilter controls filtering for expense queries.
type ExpenseFilter struct {
	UserID     string
	CategoryID *string
	From       *time.Time // inclusive
	To         *time.Time // exclusive
	Limit      int
}

// Store defines the persistence interface for profiles, task lists, tasks and
// the expense domain. It also satisfies the ordering package's row-store
// contract so positions are maintained against the same database.
type Store interface {
	ordering.Store
	ordering.Transactor

	// RunInTx runs fn against a Store bound to one transaction.
	RunInTx(ctx context.Context, fn func(tx Store) error) error

	// === Profiles ===

	GetProfile(ctx context.Context, id string) (*model.Profile, error)
	EnsureProfile(ctx context.Context, p model.Profile) (bool, error)

	// === Task lists ===

	CreateList(ctx context.Context, list model.TaskList) (*model.TaskList, error)
	GetListByID(ctx context.Context, id string) (*model.TaskList, error)
	GetLists(ctx context.Context, userID string) ([]model.TaskList, error)
	RenameList(ctx context.Context, id, name string) error

	// === Tasks ===

	CreateTask(ctx context.Context, task model.Task) (*model.Task, error)
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	GetTasks(ctx context.Context, opts TaskFilter) ([]model.Task, error)
	UpdateTask(ctx context.Context, task model.Task) error

	// === Expense categories ===

	CreateCategory(ctx context.Context, c model.Category) (*model.Category, error)
	GetCategoryByID(ctx context.Context, id string) (*model.Category, error)
	GetCategories(ctx context.Context, userID string) ([]model.Category, error)

	// === Expenses ===

	CreateExpense(ctx context.Context, e model.Expense) (*model.Expense, error)
	GetExpenses(ctx context.Context, opts ExpenseFilter) ([]model.Expense, error)
	DeleteExpense(ctx context.Context, id, userID string) error
	CategoryTotals(ctx context.Context, opts ExpenseFilter) ([]model.CategoryTotal, error)

	// === Budgets ===

	GetBudget(ctx context.Context, userID, month string) (*model.Budget, error)
	SetBudget(ctx context.Context, userID, month string, amount int64) (*model.Budget, error)

	// === Goals ===

	CreateGoal(ctx context.Context, g model.Goal) (*model.Goal, error)
	GetGoals(ctx context.Context, userID string) ([]model.Goal, error)
	ContributeToGoal(ctx context.Context, id, userID string, amount int64) (*model.Goal, error)
	DeleteGoal(ctx context.Context, id, userID string) error

	Close() error
}

var _ Store = (*SQLStore)(nil)
