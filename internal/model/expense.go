package model

import "time"

// Category groups expenses. Categories are containers like task lists but the
// expenses inside them carry no user-visible order.
type Category struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Icon      string    `json:"icon" db:"icon"`
	Color     string    `json:"color" db:"color"`
	IsDefault bool      `json:"is_default" db:"is_default"`
	Position  int       `json:"position" db:"position"`
	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Expense is a single spending record. Amount is stored in minor currency
// units (paise/cents).
type Expense struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	CategoryID  string    `json:"category_id" db:"category_id"`
	Amount      int64     `json:"amount" db:"amount"`
	Description string    `json:"description" db:"description"`
	ExpenseDate time.Time `json:"expense_date" db:"expense_date"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	// CategoryName is populated by queries that join expense_categories.
	CategoryName string `json:"category_name,omitempty" db:"category_name"`
}

// Budget is the total spending allowance for one calendar month ("2006-01").
type Budget struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Month       string    `json:"month" db:"month"`
	TotalBudget int64     `json:"total_budget" db:"total_budget"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Goal status constants.
const (
	GoalStatusActive    = "active"
	GoalStatusCompleted = "completed"
)

// Goal is a savings target with a deadline.
type Goal struct {
	ID            string    `json:"id" db:"id"`
	UserID        string    `json:"user_id" db:"user_id"`
	Title         string    `json:"title" db:"title"`
	TargetAmount  int64     `json:"target_amount" db:"target_amount"`
	CurrentAmount int64     `json:"current_amount" db:"current_amount"`
	Deadline      time.Time `json:"deadline" db:"deadline"`
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// CategoryTotal is one slice of a spending breakdown.
type CategoryTotal struct {
	Name  string `json:"name" db:"name"`
	Value int64  `json:"value" db:"value"`
}
