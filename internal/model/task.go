package model

import "time"

// Task is an individually ordered item that belongs to exactly one TaskList.
//
// Position is unique among the tasks of the same list that share the same
// Completed value; positions of completed tasks are left as they were when
// the task was closed.
type Task struct {
	ID          string     `json:"id" db:"id"`
	ListID      string     `json:"list_id" db:"list_id"`
	UserID      string     `json:"user_id" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description,omitempty" db:"description"`
	Completed   bool       `json:"completed" db:"completed"`
	Position    int        `json:"position" db:"position"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	Version     int        `json:"version" db:"version"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// IsOverdue reports whether the task has a due date in the past and is still open.
func (t Task) IsOverdue() bool {
	return t.DueDate != nil && t.DueDate.Before(time.Now()) && !t.Completed
}

// TaskPatch carries the mutable fields of a task. Nil fields are left unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	ClearDue    bool
	Completed   *bool
}
