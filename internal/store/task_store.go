package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/kaizen/internal/model"
	"github.com/nhle/kaizen/internal/ordering"
)

const taskColumns = "id, list_id, user_id, title, description, completed, position, due_date, version, created_at, updated_at"

// CreateTask inserts a new task into its list and returns the stored row.
func (s *SQLStore) CreateTask(ctx context.Context, task model.Task) (*model.Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return nil, ordering.Invalid("title", "task title must not be empty")
	}
	if task.ListID == "" {
		return nil, ordering.Invalid("list_id", "task must belong to a list")
	}
	if task.Position < 0 {
		return nil, ordering.Invalid("position", "must be >= 0, got %d", task.Position)
	}
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	task.Version = 1
	if task.DueDate != nil {
		due := task.DueDate.UTC()
		task.DueDate = &due
	}

	_, err := s.exec(ctx, `
		INSERT INTO tasks (
			id, list_id, user_id, title, description, completed,
			position, due_date, version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.ListID, task.UserID, task.Title, task.Description, boolToInt(task.Completed),
		task.Position, task.DueDate, task.Version, task.CreatedAt, task.UpdatedAt,
	)
	if s.dialect.isForeignKeyViolation(err) {
		return nil, ordering.NotFound(ordering.KindList, task.ListID)
	}
	if err != nil {
		return nil, ordering.Transient("creating task", err)
	}
	return &task, nil
}

// GetTaskByID retrieves a single task.
func (s *SQLStore) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := s.lookup(ctx, &task, ordering.KindTask, id,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTasks retrieves tasks matching the filter. Open tasks come before
// completed ones; each group is in position order.
func (s *SQLStore) GetTasks(ctx context.Context, opts TaskFilter) ([]model.Task, error) {
	if opts.UserID == "" && opts.ListID == nil {
		return nil, ordering.Invalid("filter", "user or list is required")
	}

	var conditions []string
	var args []interface{}

	if opts.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, opts.UserID)
	}
	if opts.ListID != nil {
		conditions = append(conditions, "list_id = ?")
		args = append(args, *opts.ListID)
	}
	if opts.Completed != nil {
		conditions = append(conditions, "completed = ?")
		args = append(args, boolToInt(*opts.Completed))
	}
	if opts.Overdue {
		conditions = append(conditions, "completed = 0 AND due_date IS NOT NULL AND due_date < ?")
		args = append(args, time.Now().UTC())
	}

	query := "SELECT " + taskColumns + " FROM tasks WHERE " + strings.Join(conditions, " AND ") +
		" ORDER BY list_id, completed, position, created_at"

	var tasks []model.Task
	if err := s.selectRows(ctx, &tasks, query, args...); err != nil {
		return nil, ordering.Transient("querying tasks", err)
	}
	return tasks, nil
}

// UpdateTask writes the mutable fields of a task, including its position.
// The list reference only changes through MoveRow.
func (s *SQLStore) UpdateTask(ctx context.Context, task model.Task) error {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return ordering.Invalid("title", "task title must not be empty")
	}
	if task.DueDate != nil {
		due := task.DueDate.UTC()
		task.DueDate = &due
	}

	result, err := s.exec(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, completed = ?, due_date = ?,
			position = ?, version = version + 1, updated_at = ?
		WHERE id = ?`,
		task.Title, task.Description, boolToInt(task.Completed), task.DueDate,
		task.Position, time.Now().UTC(),
		task.ID,
	)
	if err != nil {
		return ordering.Transient(fmt.Sprintf("updating task %s", task.ID), err)
	}
	return mustAffect(result, ordering.KindTask, task.ID)
}
